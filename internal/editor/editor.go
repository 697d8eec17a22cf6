// Package editor coordinates one edit session with its preview renderer and
// gateways.
//
// The Editor is the single owner of the session: every user action takes the
// editor lock, runs exactly one session transition and updates the preview.
// Renders themselves run on background goroutines managed by the Previewer.
package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/ironsheep/image-tune/internal/gateway"
	"github.com/ironsheep/image-tune/internal/imaging"
	"github.com/ironsheep/image-tune/internal/session"
	"github.com/ironsheep/image-tune/internal/view"
)

// Transition names used in logs and metrics.
const (
	TransitionOpen    = "open"
	TransitionAdjust  = "adjust"
	TransitionDiscard = "discard"
	TransitionSave    = "save"
)

// Observer receives editor events. metrics.Metrics implements it.
type Observer interface {
	session.RenderObserver
	ObserveTransition(transition string, err error)
	ObserveSave(err error)
}

type nopObserver struct{}

func (nopObserver) ObserveRender(time.Duration, error) {}
func (nopObserver) ObserveStale()                      {}
func (nopObserver) ObserveTransition(string, error)    {}
func (nopObserver) ObserveSave(error)                  {}

// Options configures an Editor. Engine and Store are required.
type Options struct {
	Engine   session.Engine
	Store    gateway.Persistence
	Clock    clockwork.Clock
	Observer Observer
	Logger   zerolog.Logger

	// RenderTimeout bounds Preview. Zero means no limit beyond the caller's context.
	RenderTimeout time.Duration
}

// Status is a snapshot of the editor for hosts.
type Status struct {
	State  string             `json:"state"`
	Factor float64            `json:"factor"`
	Opened bool               `json:"opened"`
	Dirty  bool               `json:"dirty"`
	View   view.Descriptor    `json:"view"`
	Source *imaging.ImageInfo `json:"source,omitempty"`
}

// Editor serialises user actions against a single session.
type Editor struct {
	mu sync.Mutex

	session  *session.Session
	preview  *session.Previewer
	store    gateway.Persistence
	observer Observer
	timeout  time.Duration
	logger   zerolog.Logger
}

// New creates an Editor with an empty session.
func New(opts Options) *Editor {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	return &Editor{
		session:  session.New(opts.Engine, opts.Logger),
		preview:  session.NewPreviewer(opts.Engine, opts.Clock, opts.Observer, opts.Logger),
		store:    opts.Store,
		observer: opts.Observer,
		timeout:  opts.RenderTimeout,
		logger:   opts.Logger.With().Str("component", "editor").Logger(),
	}
}

// Open replaces the current image with one requested from src.
//
// If there are unsaved edits, confirm is asked first; a declined confirmation
// or a cancelled pick leaves the session untouched.
func (e *Editor) Open(ctx context.Context, src gateway.ImageSource, confirm gateway.Confirmer) (Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.open(ctx, src, confirm)
	e.finish(TransitionOpen, err)
	return e.statusLocked(), err
}

func (e *Editor) open(ctx context.Context, src gateway.ImageSource, confirm gateway.Confirmer) error {
	if e.session.Snapshot().Dirty {
		if err := confirm.Confirm(ctx, gateway.DiscardPrompt(TransitionOpen)); err != nil {
			return err
		}
	}

	img, err := src.RequestImage(ctx)
	if err != nil {
		return err
	}
	if err := e.session.Open(img); err != nil {
		return err
	}
	e.preview.Reset(img)
	return nil
}

// Adjust sets the saturation factor and starts rendering the new preview.
func (e *Editor) Adjust(ctx context.Context, factor float64) (Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := ctx.Err()
	if err == nil {
		err = e.session.Adjust(factor)
	}
	if err == nil {
		snap := e.session.Snapshot()
		e.preview.Request(snap.Source, snap.Factor)
	}
	e.finish(TransitionAdjust, err)
	return e.statusLocked(), err
}

// Discard drops unsaved edits after confirm approves.
func (e *Editor) Discard(ctx context.Context, confirm gateway.Confirmer) (Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.discard(ctx, confirm)
	e.finish(TransitionDiscard, err)
	return e.statusLocked(), err
}

func (e *Editor) discard(ctx context.Context, confirm gateway.Confirmer) error {
	if e.session.Snapshot().Dirty {
		if err := confirm.Confirm(ctx, gateway.DiscardPrompt(TransitionDiscard)); err != nil {
			return err
		}
	}
	if err := e.session.Discard(); err != nil {
		return err
	}
	e.preview.Reset(e.session.Snapshot().Source)
	return nil
}

// Save writes the adjusted image through the store. On success the saved
// image becomes the new baseline.
func (e *Editor) Save(ctx context.Context) (gateway.Receipt, Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	receipt, err := e.session.CommitSave(ctx, e.store)
	e.observer.ObserveSave(err)
	if err == nil {
		e.preview.Reset(e.session.Snapshot().Source)
	}
	e.finish(TransitionSave, err)
	return receipt, e.statusLocked(), err
}

// Preview waits for the most recently requested preview.
//
// It does not hold the editor lock, so other actions may supersede the render
// being waited for; Preview then returns the newer result.
func (e *Editor) Preview(ctx context.Context) (*imaging.SourceImage, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	return e.preview.Wait(ctx)
}

// Status returns the current editor state.
func (e *Editor) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusLocked()
}

// Close waits for background renders to finish.
func (e *Editor) Close() {
	e.preview.Drain()
}

func (e *Editor) statusLocked() Status {
	snap := e.session.Snapshot()
	st := Status{
		State:  snap.State.String(),
		Factor: snap.Factor,
		Opened: snap.Opened,
		Dirty:  snap.Dirty,
		View:   view.ForSnapshot(snap),
	}
	if snap.Source != nil {
		if info, err := snap.Source.Info(); err == nil {
			st.Source = info
		}
	}
	return st
}

func (e *Editor) finish(transition string, err error) {
	e.observer.ObserveTransition(transition, err)

	switch {
	case err == nil:
		return
	case errors.Is(err, gateway.ErrCancelled):
		e.logger.Info().Str("transition", transition).Msg("cancelled by user")
	case IsContractViolation(err):
		e.logger.Warn().Err(err).Str("transition", transition).Msg("transition rejected")
	default:
		e.logger.Error().Err(err).Str("transition", transition).Msg("transition failed")
	}
}
