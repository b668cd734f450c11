// Package render draws match boards: an ANSI terminal view with a move
// history sidebar, and a PNG snapshot renderer for archived games.
package render

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// ANSI escape fragments. Backgrounds for the board squares are chosen
// at construction based on terminal capabilities.
const (
	ansiReset     = "\033[0m"
	ansiBold      = "\033[1m"
	ansiUnderline = "\033[4m"

	fgWhite   = "\033[97m"
	fgBlack   = "\033[30m"
	fgGray    = "\033[2;37m"
	fgNeutral = "\033[96m"
	fgYellow  = "\033[93m"
	fgGreen   = "\033[92m"
	fgRed     = "\033[91m"

	bgLastMove = "\033[101m"
)

// Truecolor board palette: muted tan and umber.
const (
	bgLightTrue = "\033[48;2;210;180;140m"
	bgDarkTrue  = "\033[48;2;139;109;83m"
	bgLight256  = "\033[48;5;180m"
	bgDark256   = "\033[48;5;137m"
)

const historyEntryWidth = 18

var ansiEscapeRE = regexp.MustCompile(`\033\[[0-9;]*m`)

// StripANSI removes escape sequences, leaving the visible text.
func StripANSI(s string) string {
	return ansiEscapeRE.ReplaceAllString(s, "")
}

var (
	whiteGlyphs = map[nchess.PieceType]string{
		nchess.King:   "♔",
		nchess.Queen:  "♕",
		nchess.Rook:   "♖",
		nchess.Bishop: "♗",
		nchess.Knight: "♘",
		nchess.Pawn:   "♙",
	}
	blackGlyphs = map[nchess.PieceType]string{
		nchess.King:   "♚",
		nchess.Queen:  "♛",
		nchess.Rook:   "♜",
		nchess.Bishop: "♝",
		nchess.Knight: "♞",
		nchess.Pawn:   "♟",
	}
)

type qualityAnnotation struct {
	label string
	color string
}

var qualityAnnotations = map[string]qualityAnnotation{
	"best":       {"[BEST]", fgGreen},
	"excellent":  {"[EXC]", fgGreen},
	"good":       {"[GOOD]", fgNeutral},
	"inaccuracy": {"[INACC]", fgYellow},
	"mistake":    {"[MIST]", fgRed},
	"blunder":    {"[BLUN]", fgRed},
}

// ANSI renders board frames to a terminal.
type ANSI struct {
	out          io.Writer
	white        string
	black        string
	historyLimit int
	lightBG      string
	darkBG       string
}

// NewANSI builds a terminal renderer for the named players. The board
// palette degrades from 24-bit to 256 colors when the terminal does not
// advertise truecolor support.
func NewANSI(out io.Writer, white, black string) *ANSI {
	r := &ANSI{
		out:          out,
		white:        white,
		black:        black,
		historyLimit: 8,
		lightBG:      bgLight256,
		darkBG:       bgDark256,
	}
	if supportsTruecolor() {
		r.lightBG = bgLightTrue
		r.darkBG = bgDarkTrue
	}
	return r
}

func supportsTruecolor() bool {
	colorterm := strings.ToLower(os.Getenv("COLORTERM"))
	term := strings.ToLower(os.Getenv("TERM"))
	return strings.Contains(colorterm, "truecolor") ||
		strings.Contains(colorterm, "24bit") ||
		strings.HasSuffix(term, "-direct")
}

// ClearScreen wipes the terminal and homes the cursor.
func (r *ANSI) ClearScreen() {
	fmt.Fprint(r.out, "\033[2J\033[H")
}

// Frame draws one full frame: header, board with history sidebar, and a
// status line. Qualities align with the game's plies; missing or empty
// entries render without an annotation.
func (r *ANSI) Frame(game *nchess.Game, qualities []string) error {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(r.headerLine())
	b.WriteString("\n\n")

	boardLines := r.boardLines(game)
	sidebar := r.sidebarLines(game, qualities)
	writeColumns(&b, boardLines, sidebar, 4)

	b.WriteString("\n")
	b.WriteString(r.statusLine(game))
	b.WriteString("\n")

	_, err := io.WriteString(r.out, b.String())
	return err
}

func (r *ANSI) headerLine() string {
	white := playerLabel(r.white, nchess.White)
	black := playerLabel(r.black, nchess.Black)
	return fmt.Sprintf("%s %svs%s %s", white, fgNeutral, ansiReset, black)
}

func playerLabel(name string, color nchess.Color) string {
	side := "White"
	code := fgWhite
	if color == nchess.Black {
		side = "Black"
		code = fgGray
	}
	if name == "" {
		return ansiBold + code + side + ansiReset
	}
	return fmt.Sprintf("%s%s%s (%s)%s", ansiBold, code, name, side, ansiReset)
}

func (r *ANSI) boardLines(game *nchess.Game) []string {
	board := game.CurrentPosition().Board()
	var lastFrom, lastTo nchess.Square
	hasLast := false
	if moves := game.Moves(); len(moves) > 0 {
		last := moves[len(moves)-1]
		lastFrom, lastTo = last.S1(), last.S2()
		hasLast = true
	}

	files := []nchess.File{
		nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD,
		nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH,
	}
	ranks := []nchess.Rank{
		nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5,
		nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1,
	}

	var header strings.Builder
	header.WriteString("    ")
	for _, f := range files {
		fmt.Fprintf(&header, "%s%s%3s%s", ansiBold, fgNeutral, f.String(), ansiReset)
	}

	lines := []string{header.String()}
	for _, rank := range ranks {
		var row strings.Builder
		fmt.Fprintf(&row, "%s%s%3s %s", ansiBold, fgNeutral, rank.String(), ansiReset)
		for _, file := range files {
			sq := nchess.NewSquare(file, rank)
			bg := r.squareBG(sq)
			if hasLast && (sq == lastFrom || sq == lastTo) {
				bg = bgLastMove
			}
			piece := board.Piece(sq)
			row.WriteString(bg)
			row.WriteString(pieceColor(piece, isLightSquare(sq)))
			row.WriteString(" " + glyph(piece) + " ")
			row.WriteString(ansiReset)
		}
		fmt.Fprintf(&row, " %s%s%s%s", ansiBold, fgNeutral, rank.String(), ansiReset)
		lines = append(lines, row.String())
	}
	return append(lines, header.String())
}

func isLightSquare(sq nchess.Square) bool {
	return (int(sq.File())+int(sq.Rank()))%2 == 1
}

func (r *ANSI) squareBG(sq nchess.Square) string {
	if isLightSquare(sq) {
		return r.lightBG
	}
	return r.darkBG
}

func glyph(piece nchess.Piece) string {
	if piece == nchess.NoPiece {
		return " "
	}
	glyphs := blackGlyphs
	if piece.Color() == nchess.White {
		glyphs = whiteGlyphs
	}
	if g, ok := glyphs[piece.Type()]; ok {
		return g
	}
	return piece.String()
}

// pieceColor keeps white pieces legible on light squares by switching
// to underlined black instead of white-on-tan.
func pieceColor(piece nchess.Piece, lightSquare bool) string {
	if piece == nchess.NoPiece {
		return fgWhite
	}
	if piece.Color() == nchess.White {
		if lightSquare {
			return ansiBold + ansiUnderline + fgBlack
		}
		return ansiBold + fgWhite
	}
	return ansiBold + fgBlack
}

type historyRow struct {
	number int
	white  string
	black  string
}

func (r *ANSI) sidebarLines(game *nchess.Game, qualities []string) []string {
	rows := historyRows(game, qualities)
	if len(rows) == 0 {
		return []string{fgNeutral + "No moves yet" + ansiReset}
	}
	if len(rows) > r.historyLimit {
		rows = rows[len(rows)-r.historyLimit:]
	}

	lines := []string{ansiBold + fgNeutral + "Move History" + ansiReset}
	for i, row := range rows {
		white := row.white
		if white == "" {
			white = padVisible("-", historyEntryWidth)
		}
		black := row.black
		if black == "" {
			black = padVisible("-", historyEntryWidth)
		}
		whiteFmt := fgWhite + white + ansiReset
		blackFmt := fgGray + black + ansiReset
		if i == len(rows)-1 {
			whiteFmt = ansiBold + fgWhite + white + ansiReset
			blackFmt = ansiBold + fgGray + black + ansiReset
		}
		lines = append(lines, fmt.Sprintf("%s%2d:%s %s   %s", fgNeutral, row.number, ansiReset, whiteFmt, blackFmt))
	}
	return lines
}

func historyRows(game *nchess.Game, qualities []string) []historyRow {
	moves := game.Moves()
	rows := make([]historyRow, 0, (len(moves)+1)/2)
	for i, mv := range moves {
		parent := mv.Parent().Position()
		mover := parent.Board().Piece(mv.S1())
		entry := glyph(mover) + " " + mv.String()
		if i < len(qualities) {
			entry += qualitySuffix(qualities[i])
		}
		entry = padVisible(entry, historyEntryWidth)

		if parent.Turn() == nchess.White {
			rows = append(rows, historyRow{number: i/2 + 1, white: entry})
		} else if len(rows) > 0 {
			rows[len(rows)-1].black = entry
		} else {
			rows = append(rows, historyRow{number: 1, black: entry})
		}
	}
	return rows
}

func qualitySuffix(quality string) string {
	ann, ok := qualityAnnotations[quality]
	if !ok {
		return ""
	}
	return " " + ann.color + ann.label + ansiReset
}

func padVisible(s string, width int) string {
	visible := len([]rune(StripANSI(s)))
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func (r *ANSI) statusLine(game *nchess.Game) string {
	switch game.Outcome() {
	case nchess.WhiteWon:
		return playerLabel(r.white, nchess.White) + " " + ansiBold + fgGreen + "WINS!" + ansiReset
	case nchess.BlackWon:
		return playerLabel(r.black, nchess.Black) + " " + ansiBold + fgGreen + "WINS!" + ansiReset
	case nchess.Draw:
		return ansiBold + fgNeutral + "Drawn game" + ansiReset
	}

	turn := game.CurrentPosition().Turn()
	name := r.white
	if turn == nchess.Black {
		name = r.black
	}
	return playerLabel(name, turn) + " " + fgNeutral + "to move" + ansiReset
}

func writeColumns(b *strings.Builder, left, right []string, gap int) {
	maxLeft := 0
	for _, line := range left {
		if w := len([]rune(StripANSI(line))); w > maxLeft {
			maxLeft = w
		}
	}
	total := len(left)
	if len(right) > total {
		total = len(right)
	}
	for i := 0; i < total; i++ {
		var leftLine, rightLine string
		if i < len(left) {
			leftLine = left[i]
		}
		if i < len(right) {
			rightLine = right[i]
		}
		if rightLine == "" {
			b.WriteString(leftLine)
			b.WriteString("\n")
			continue
		}
		width := len([]rune(StripANSI(leftLine)))
		b.WriteString(leftLine)
		b.WriteString(strings.Repeat(" ", gap+maxLeft-width))
		b.WriteString(rightLine)
		b.WriteString("\n")
	}
}
