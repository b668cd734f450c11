// Package extract pulls a single move candidate out of free-form model
// output. Responses range from a bare "e4" to multi-paragraph analysis
// ending in "Final Answer: Nf3", so extraction is marker-driven with a
// terse-reply fallback, followed by artifact stripping and sanitization.
package extract

import (
	"regexp"
	"strings"
)

// Answer markers in precedence order, matched case-insensitively. The
// first marker present in the response wins, and within that marker the
// last occurrence is used so that restated answers override earlier
// drafts.
var answerMarkers = []string{
	"final answer:",
	"the final answer is",
	"my final answer is",
}

// moveChars is the alphabet a terse chess reply must intersect: files,
// piece letters, ranks, capture/promotion/check punctuation and castling.
const moveChars = "abcdefghNBRQKO12345678x=+-#"

var (
	htmlTagRE    = regexp.MustCompile(`<.*?>`)
	numberedRE   = regexp.MustCompile(`^(\d+)(\.+)\s*(.*)$`)
	tokenSplitRE = regexp.MustCompile(`[\s,;.!]+`)
)

// markup fragments deleted verbatim before tokenizing. LaTeX wrappers
// show up both escaped and with literal control characters depending on
// how the provider serialized the response.
var artifacts = []string{
	"$",
	"\\boxed{",
	"\\text{",
	"\boxed{",
	"\text{",
	"}",
	"*",
	"`",
}

// Extract runs the full pipeline: locate the final-answer token in a raw
// response, then sanitize it into parser-ready notation. Returns
// ok=false when no usable move text survives.
func Extract(response string) (string, bool) {
	token, ok := MoveCandidate(response)
	if !ok {
		return "", false
	}
	return Sanitize(token)
}

// MoveCandidate scans a raw model response for the stated final answer
// and returns the raw move token. The boolean is false when no move
// could be located at all.
func MoveCandidate(response string) (string, bool) {
	lowered := strings.ToLower(response)
	for _, marker := range answerMarkers {
		idx := strings.LastIndex(lowered, marker)
		if idx < 0 {
			continue
		}
		token := firstToken(response[idx+len(marker):])
		if token == "" {
			return "", false
		}
		return token, true
	}

	// No marker. A short bare reply like "e4" or "Nf3!" is accepted as
	// the answer itself, untouched; anything longer is unparseable.
	terse := strings.TrimSpace(response)
	if len(terse) == 0 || len(terse) > 10 {
		return "", false
	}
	if strings.Contains(terse, " ") {
		return "", false
	}
	if !strings.ContainsAny(terse, moveChars) {
		return "", false
	}
	return terse, true
}

// firstToken strips markup artifacts from the answer segment and returns
// the first move-shaped token.
func firstToken(segment string) string {
	s := strings.Trim(segment, " .")
	for _, a := range artifacts {
		s = strings.ReplaceAll(s, a, "")
	}
	s = strings.ReplaceAll(s, "\n", " ")
	s = htmlTagRE.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	// Castling answers are often spaced out ("O - O"). Collapse them
	// before generic tokenizing, which would split on the separators.
	collapsed := strings.ToUpper(s)
	collapsed = strings.ReplaceAll(collapsed, " ", "")
	collapsed = strings.ReplaceAll(collapsed, "-", "")
	if collapsed == "OO" || collapsed == "OOO" {
		return strings.ReplaceAll(s, " ", "")
	}

	// First word only, to keep "e4 therefore ..." from misparsing.
	return tokenSplitRE.Split(s, 2)[0]
}

// Sanitize normalizes a raw move token into notation the move parser can
// accept. It strips a leading move number ("12. e4" -> "e4"), deletes
// punctuation the models sprinkle in, and drops a trailing en passant
// suffix. The boolean is false when nothing usable remains.
func Sanitize(move string) (string, bool) {
	s := strings.TrimSpace(move)
	if s == "" {
		return "", false
	}

	if s[0] >= '0' && s[0] <= '9' {
		m := numberedRE.FindStringSubmatch(s)
		if m == nil {
			return "", false
		}
		s = m[3]
	}

	s = strings.Map(func(r rune) rune {
		switch r {
		case ':', '.', '*', ',', '&', '^', '\\', '<', '>', '{', '}', '[', ']', '?', '!':
			return -1
		}
		return r
	}, s)

	s = strings.TrimSuffix(s, "ep")
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}
