package arena

import (
	"strconv"
	"strings"
)

// FlattenHistory renders a coordinate move list the way prompts show it:
// move numbers before each of white's plies, tokens joined by spaces,
// e.g. "1. e2e4 e7e5 2. g1f3". An empty history renders empty.
func FlattenHistory(moves []string) string {
	if len(moves) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, mv := range moves {
		if i > 0 {
			sb.WriteString(" ")
		}
		if i%2 == 0 {
			sb.WriteString(strconv.Itoa(i/2 + 1))
			sb.WriteString(". ")
		}
		sb.WriteString(mv)
	}
	return sb.String()
}
