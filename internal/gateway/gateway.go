// Package gateway defines the collaborators the edit session depends on and
// provides file-backed implementations of them.
//
// Each collaborator is a small capability interface: ImageSource supplies a
// picked image, Persistence stores a final raster and Confirmer gates actions
// that would throw away unsaved edits. The editor composes them; nothing here
// knows about session state.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ironsheep/image-tune/internal/imaging"
)

// Gateway errors.
var (
	// ErrCancelled reports that the user dismissed a picker or declined a confirmation.
	ErrCancelled = errors.New("cancelled")

	// ErrImageTooLarge reports that a picked file exceeds the configured limits.
	ErrImageTooLarge = errors.New("image too large")
)

// ImageSource supplies a picked image.
//
// RequestImage blocks until the image is available, the pick is cancelled
// (ErrCancelled) or ctx is done. It is single-shot: callers that want another
// image request a new source.
type ImageSource interface {
	RequestImage(ctx context.Context) (*imaging.SourceImage, error)
}

// Persistence stores a final raster.
//
// Save either writes the whole image and returns a Receipt, or returns an error
// whose text is suitable to show to the user. Implementations do not retry.
type Persistence interface {
	Save(ctx context.Context, img *imaging.SourceImage) (Receipt, error)
}

// Confirmer asks the user to approve an action that discards unsaved edits.
// A nil error means confirmed; ErrCancelled means declined.
type Confirmer interface {
	Confirm(ctx context.Context, prompt Prompt) error
}

// Receipt confirms a completed write.
type Receipt struct {
	Location string    `json:"location"`
	Bytes    int64     `json:"bytes"`
	SavedAt  time.Time `json:"saved_at"`
}

// Prompt is what a Confirmer shows to the user.
type Prompt struct {
	Action  string `json:"action"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// DiscardPrompt builds the confirmation shown before action throws away edits.
func DiscardPrompt(action string) Prompt {
	return Prompt{
		Action:  action,
		Title:   fmt.Sprintf("Do you really want to %s?", strings.ToLower(action)),
		Message: "All changes will be lost!",
	}
}

// ImageSourceFunc adapts a function to the ImageSource interface.
type ImageSourceFunc func(ctx context.Context) (*imaging.SourceImage, error)

// RequestImage calls f(ctx).
func (f ImageSourceFunc) RequestImage(ctx context.Context) (*imaging.SourceImage, error) {
	return f(ctx)
}

// PersistenceFunc adapts a function to the Persistence interface.
type PersistenceFunc func(ctx context.Context, img *imaging.SourceImage) (Receipt, error)

// Save calls f(ctx, img).
func (f PersistenceFunc) Save(ctx context.Context, img *imaging.SourceImage) (Receipt, error) {
	return f(ctx, img)
}

// StaticConfirmer answers every prompt the same way. Hosts that collect the
// user's decision up front, such as a tool call carrying a confirm flag, use it
// to pass that decision on.
type StaticConfirmer bool

// Confirm returns nil when c is true and ErrCancelled otherwise.
func (c StaticConfirmer) Confirm(ctx context.Context, prompt Prompt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c {
		return fmt.Errorf("%s: %w", prompt.Title, ErrCancelled)
	}
	return nil
}
