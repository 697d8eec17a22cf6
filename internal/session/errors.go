package session

import (
	"errors"

	"github.com/ironsheep/image-tune/internal/imaging"
)

// Session errors. None of them is fatal: a rejected transition leaves the
// session exactly as it was.
var (
	// ErrNoSource is returned when an operation needs a loaded image and there is none.
	ErrNoSource = imaging.ErrNoSource

	// ErrInvalidState is returned when a transition is not allowed in the current state.
	ErrInvalidState = errors.New("invalid session state")

	// ErrFactorOutOfRange is returned when an adjustment factor is NaN or outside [0, 2].
	ErrFactorOutOfRange = errors.New("adjustment factor out of range")

	// ErrPersistenceFailure matches every *PersistenceError.
	ErrPersistenceFailure = errors.New("persistence failure")
)

// PersistenceError reports that the persistence gateway rejected a save.
// Reason is the human-readable text shown to the user.
type PersistenceError struct {
	Reason string
	Err    error
}

func (e *PersistenceError) Error() string {
	return "save failed: " + e.Reason
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrPersistenceFailure) hold for any PersistenceError.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistenceFailure
}
