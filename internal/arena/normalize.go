package arena

import (
	"fmt"
	"regexp"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var (
	uciMoveRE = regexp.MustCompile(`^[a-h][1-8][a-h][1-8][nbrq]?$`)
	sanMoveRE = regexp.MustCompile(`^([NBKRQ])?([a-h])?([1-8])?[-x]?([a-h][1-8])(=?[nbrqkNBRQK])?[+#]?$`)
)

var pieceByLetter = map[string]nchess.PieceType{
	"N": nchess.Knight,
	"B": nchess.Bishop,
	"R": nchess.Rook,
	"Q": nchess.Queen,
	"K": nchess.King,
}

// NormalizeMove resolves a player-supplied move string against the
// position in fen and returns the canonical coordinate (UCI) form.
// Coordinate notation is tried first, then standard algebraic notation
// with explicit disambiguation handling. Failures are *MoveError values
// whose kind tells the caller which retry prompt to use. The caller's
// position is never touched: a throwaway game is built from the FEN.
func NormalizeMove(moveText, fen string) (string, error) {
	text := strings.TrimSpace(moveText)
	if text == "" {
		return "", &MoveError{Kind: FailureInvalid, Move: moveText}
	}

	fenOpt, err := nchess.FEN(fen)
	if err != nil {
		return "", fmt.Errorf("arena: bad position %q: %w", fen, err)
	}
	game := nchess.NewGame(fenOpt)
	legal := game.ValidMoves()

	switch strings.ToLower(text) {
	case "o-o", "0-0":
		text = "O-O"
	case "o-o-o", "0-0-0":
		text = "O-O-O"
	}

	// Coordinate notation. A syntactically valid coordinate move that is
	// not among the legal moves is illegal, never invalid.
	if lowered := strings.ToLower(text); uciMoveRE.MatchString(lowered) {
		for i := range legal {
			if legal[i].String() == lowered {
				return lowered, nil
			}
		}
		return "", &MoveError{Kind: FailureIllegal, Move: text}
	}

	if text == "O-O" || text == "O-O-O" {
		tag := nchess.KingSideCastle
		if text == "O-O-O" {
			tag = nchess.QueenSideCastle
		}
		for i := range legal {
			if legal[i].HasTag(tag) {
				return legal[i].String(), nil
			}
		}
		return "", &MoveError{Kind: FailureIllegal, Move: text}
	}

	m := sanMoveRE.FindStringSubmatch(text)
	if m == nil {
		return "", &MoveError{Kind: FailureInvalid, Move: text}
	}
	pieceLetter, fromFile, fromRank, target, promo := m[1], m[2], m[3], m[4], m[5]

	wantPiece := nchess.Pawn
	if pieceLetter != "" {
		wantPiece = pieceByLetter[pieceLetter]
	}
	wantPromo := nchess.NoPieceType
	if promo != "" {
		letter := strings.ToUpper(strings.TrimPrefix(promo, "="))
		wantPromo = pieceByLetter[letter]
	}

	board := game.Position().Board()
	var matches []string
	for i := range legal {
		mv := legal[i]
		if mv.S2().String() != target {
			continue
		}
		if board.Piece(mv.S1()).Type() != wantPiece {
			continue
		}
		if fromFile != "" && mv.S1().File().String() != fromFile {
			continue
		}
		if fromRank != "" && mv.S1().Rank().String() != fromRank {
			continue
		}
		// Promotion must match exactly both ways: "e8=Q" only matches the
		// queen promotion, and a bare "e8" matches no promotion move at
		// all (the piece choice is required, so the push is illegal).
		if mv.Promo() != wantPromo {
			continue
		}
		matches = append(matches, mv.String())
	}

	switch len(matches) {
	case 0:
		return "", &MoveError{Kind: FailureIllegal, Move: text}
	case 1:
		return matches[0], nil
	default:
		return "", &MoveError{Kind: FailureAmbiguous, Move: text}
	}
}
