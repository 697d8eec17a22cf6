package session

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ironsheep/image-tune/internal/gateway"
	"github.com/ironsheep/image-tune/internal/imaging"
)

// State is the coarse state of a Session.
type State int

// Session states.
const (
	StateEmpty State = iota // no image loaded
	StateClean              // image loaded, factor 1.0, no unsaved edits
	StateDirty              // image loaded with unsaved edits
)

func (s State) String() string {
	switch s {
	case StateClean:
		return "clean"
	case StateDirty:
		return "dirty"
	default:
		return "empty"
	}
}

// Engine renders an adjusted image from a baseline. imaging.Engine implements it.
type Engine interface {
	Apply(src *imaging.SourceImage, factor float64) (*imaging.SourceImage, error)
}

// Snapshot is a consistent copy of the session fields.
type Snapshot struct {
	Source *imaging.SourceImage
	Factor float64
	Opened bool
	Dirty  bool
	State  State
}

// Session is the edit-state machine for a single image.
//
// Each transition runs under the session lock and is either applied completely
// or rejected with the session unchanged. Session is safe for concurrent use,
// but the editor is expected to drive it from one goroutine at a time.
type Session struct {
	mu     sync.Mutex
	engine Engine
	logger zerolog.Logger

	source *imaging.SourceImage
	factor float64
	opened bool
	dirty  bool
}

// New creates an empty session that renders with engine.
func New(engine Engine, logger zerolog.Logger) *Session {
	return &Session{
		engine: engine,
		logger: logger.With().Str("component", "session").Logger(),
		factor: imaging.NeutralFactor,
	}
}

// ValidateFactor reports ErrFactorOutOfRange for NaN and values outside [0, 2].
func ValidateFactor(factor float64) error {
	if math.IsNaN(factor) || factor < imaging.MinFactor || factor > imaging.MaxFactor {
		return fmt.Errorf("%w: %v not in [%v, %v]", ErrFactorOutOfRange, factor, imaging.MinFactor, imaging.MaxFactor)
	}
	return nil
}

// Open makes img the baseline and resets the session to Clean.
//
// Open is allowed from every state. Asking the user before throwing away a
// Dirty session is the caller's job.
func (s *Session) Open(img *imaging.SourceImage) error {
	if img == nil || img.Pixels == nil {
		s.logger.Warn().Msg("open rejected: no image")
		return fmt.Errorf("open: %w", ErrNoSource)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.source = img
	s.factor = imaging.NeutralFactor
	s.opened = true
	s.dirty = false

	s.logger.Info().Stringer("image", img).Msg("image opened")
	return nil
}

// Adjust sets the saturation factor. A factor of exactly 1.0 leaves the
// session Clean, anything else makes it Dirty.
func (s *Session) Adjust(factor float64) error {
	if err := ValidateFactor(factor); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		s.logger.Warn().Float64("factor", factor).Msg("adjust rejected: no image open")
		return fmt.Errorf("adjust: %w", ErrInvalidState)
	}
	s.setFactorLocked(factor)

	s.logger.Debug().Float64("factor", factor).Bool("dirty", s.dirty).Msg("saturation adjusted")
	return nil
}

// Discard drops unsaved edits by returning the factor to neutral.
func (s *Session) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		s.logger.Warn().Msg("discard rejected: no image open")
		return fmt.Errorf("discard: %w", ErrInvalidState)
	}
	s.setFactorLocked(imaging.NeutralFactor)

	s.logger.Info().Msg("edits discarded")
	return nil
}

// Render returns the current preview: the baseline adjusted by the current factor.
func (s *Session) Render() (*imaging.SourceImage, error) {
	s.mu.Lock()
	src, factor := s.source, s.factor
	s.mu.Unlock()

	if src == nil {
		return nil, fmt.Errorf("render: %w", ErrNoSource)
	}
	return s.engine.Apply(src, factor)
}

// CommitSave renders the current preview and hands it to store.
//
// On success the rendered image becomes the new baseline and the session is
// Clean with factor 1.0. If rendering or saving fails nothing changes: the
// edits stay in place and the caller may try again. Store failures are
// reported as *PersistenceError.
func (s *Session) CommitSave(ctx context.Context, store gateway.Persistence) (gateway.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		s.logger.Warn().Msg("save rejected: no image open")
		return gateway.Receipt{}, fmt.Errorf("save: %w", ErrInvalidState)
	}

	rendered, err := s.engine.Apply(s.source, s.factor)
	if err != nil {
		s.logger.Error().Err(err).Float64("factor", s.factor).Msg("save aborted: render failed")
		return gateway.Receipt{}, fmt.Errorf("save: %w", err)
	}

	receipt, err := store.Save(ctx, rendered)
	if err != nil {
		s.logger.Error().Err(err).Msg("save failed")
		return gateway.Receipt{}, &PersistenceError{Reason: err.Error(), Err: err}
	}

	s.source = rendered
	s.factor = imaging.NeutralFactor
	s.dirty = false

	s.logger.Info().Str("location", receipt.Location).Msg("baseline replaced by saved image")
	return receipt, nil
}

// Snapshot returns a copy of the current session fields.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := StateEmpty
	switch {
	case s.dirty:
		state = StateDirty
	case s.opened:
		state = StateClean
	}
	return Snapshot{
		Source: s.source,
		Factor: s.factor,
		Opened: s.opened,
		Dirty:  s.dirty,
		State:  state,
	}
}

func (s *Session) setFactorLocked(factor float64) {
	s.factor = factor
	s.dirty = factor != imaging.NeutralFactor
}
