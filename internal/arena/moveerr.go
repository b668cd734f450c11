package arena

import "fmt"

// FailureKind classifies why a submitted move was rejected.
type FailureKind string

const (
	// FailureParse means no move could be read out of the raw response text.
	FailureParse FailureKind = "parse"
	// FailureInvalid means the notation itself is malformed.
	FailureInvalid FailureKind = "invalid"
	// FailureIllegal means the notation is well formed but the move is not
	// legal in the current position.
	FailureIllegal FailureKind = "illegal"
	// FailureAmbiguous means the algebraic notation matches more than one
	// legal move.
	FailureAmbiguous FailureKind = "ambiguous"
)

// MoveError is a rejected move together with its failure kind. The kind
// drives retry-prompt selection and forfeit reporting.
type MoveError struct {
	Kind FailureKind
	Move string
}

func (e *MoveError) Error() string {
	switch e.Kind {
	case FailureIllegal:
		return fmt.Sprintf("illegal move in current position: %q", e.Move)
	case FailureAmbiguous:
		return fmt.Sprintf("ambiguous move: %q (multiple pieces can make this move)", e.Move)
	case FailureParse:
		return fmt.Sprintf("no move found in response: %q", e.Move)
	default:
		return fmt.Sprintf("invalid move notation: %q", e.Move)
	}
}
