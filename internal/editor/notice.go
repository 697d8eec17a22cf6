package editor

import (
	"errors"

	"github.com/ironsheep/image-tune/internal/gateway"
	"github.com/ironsheep/image-tune/internal/imaging"
	"github.com/ironsheep/image-tune/internal/session"
)

// Notice returns the message to show the user for err, if any.
//
// Failed transforms and failed saves are reported to the user. Cancellations
// and contract violations (no image, wrong state) are not: the former is the
// user's own choice and the latter only happen when a host ignores the view
// policy.
func Notice(err error) (string, bool) {
	var perr *session.PersistenceError
	switch {
	case err == nil:
		return "", false
	case errors.As(err, &perr):
		return perr.Error(), true
	case errors.Is(err, imaging.ErrTransformUnavailable):
		return "The adjustment could not be applied to this image.", true
	case errors.Is(err, gateway.ErrImageTooLarge):
		return err.Error(), true
	default:
		return "", false
	}
}

// IsContractViolation reports errors that a correct host never triggers.
func IsContractViolation(err error) bool {
	return errors.Is(err, session.ErrNoSource) ||
		errors.Is(err, session.ErrInvalidState) ||
		errors.Is(err, session.ErrFactorOutOfRange)
}
