package engine

import "errors"

// Kind classifies an error for callers that map it onto a transport status.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindUnauthorized
	KindPreconditionFailed
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindPreconditionFailed:
		return "precondition_failed"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches on kind and message, so wrapped copies of a sentinel still match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Message == e.Message
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Internal wraps an infrastructure failure (storage, id generation).
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Cause: cause}
}

// KindOf classifies err; anything that is not an *Error is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrGameNotFound = newError(KindNotFound, "game not found")

	ErrNameLength    = newError(KindValidation, "player name should be between 3 and 16 characters long")
	ErrNameCharset   = newError(KindValidation, "player name should contain only letters, numbers and the characters '.' and '_'")
	ErrInvalidChoice = newError(KindValidation, "invalid choice")
	ErrInvalidRound  = newError(KindValidation, "invalid round number")
	ErrInvalidPage   = newError(KindValidation, "page must be greater than 0")
	ErrInvalidState  = newError(KindValidation, "unknown game state")

	ErrAlreadyChosen       = newError(KindConflict, "already chose a color")
	ErrNameTaken           = newError(KindConflict, "there is already a player with that name playing right now")
	ErrNoSlot              = newError(KindConflict, "no available slot for the player")
	ErrAlreadyDisconnected = newError(KindConflict, "player already disconnected")

	ErrInvalidToken  = newError(KindUnauthorized, "invalid token")
	ErrUnknownPlayer = newError(KindUnauthorized, "player name does not match")

	ErrGameNotActive   = newError(KindPreconditionFailed, "the game is not active")
	ErrGameOver        = newError(KindPreconditionFailed, "game already finished")
	ErrRoundNotCurrent = newError(KindPreconditionFailed, "round is not the current round")
	ErrNotDeletable    = newError(KindPreconditionFailed, "game cannot be deleted, it is already in progress")
)
