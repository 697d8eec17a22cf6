package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/ironsheep/image-tune/internal/imaging"
)

// RenderObserver receives render outcomes. metrics.Metrics implements it.
type RenderObserver interface {
	ObserveRender(elapsed time.Duration, err error)
	ObserveStale()
}

type nopObserver struct{}

func (nopObserver) ObserveRender(time.Duration, error) {}
func (nopObserver) ObserveStale()                      {}

// Previewer renders previews asynchronously and keeps the newest one.
//
// Every Request is tagged with a sequence number. A finished render is only
// accepted if no newer Request (or Reset) has been issued since; otherwise the
// result is dropped. The preview therefore always reflects the most recently
// requested factor, regardless of the order in which renders complete.
type Previewer struct {
	engine   Engine
	clock    clockwork.Clock
	observer RenderObserver
	logger   zerolog.Logger

	mu      sync.Mutex
	latest  uint64
	current *imaging.SourceImage
	err     error
	ready   chan struct{}
	pending bool

	wg sync.WaitGroup
}

// NewPreviewer creates a Previewer. observer may be nil.
func NewPreviewer(engine Engine, clock clockwork.Clock, observer RenderObserver, logger zerolog.Logger) *Previewer {
	if observer == nil {
		observer = nopObserver{}
	}
	ready := make(chan struct{})
	close(ready)
	return &Previewer{
		engine:   engine,
		clock:    clock,
		observer: observer,
		logger:   logger.With().Str("component", "previewer").Logger(),
		ready:    ready,
	}
}

// Request starts rendering src with factor in the background and returns the
// sequence number assigned to the request.
func (p *Previewer) Request(src *imaging.SourceImage, factor float64) uint64 {
	p.mu.Lock()
	p.latest++
	seq := p.latest
	p.markPendingLocked()
	p.mu.Unlock()

	p.wg.Add(1)
	go p.render(seq, src, factor)
	return seq
}

// Reset installs img as the current preview and supersedes in-flight renders.
// Used when the baseline changes, after which the preview is the baseline itself.
func (p *Previewer) Reset(img *imaging.SourceImage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.latest++
	p.current = img
	p.err = nil
	p.markDeliveredLocked()
}

// Wait blocks until the most recent request has been delivered and returns
// its result. If the render failed, the error is returned and the previous
// preview stays current.
func (p *Previewer) Wait(ctx context.Context) (*imaging.SourceImage, error) {
	p.mu.Lock()
	ready := p.ready
	p.mu.Unlock()

	select {
	case <-ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	if p.current == nil {
		return nil, ErrNoSource
	}
	return p.current, nil
}

// Current returns the last accepted preview without waiting.
func (p *Previewer) Current() *imaging.SourceImage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Latest returns the sequence number of the most recent Request or Reset.
func (p *Previewer) Latest() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// Drain waits for every started render to finish, including stale ones.
func (p *Previewer) Drain() {
	p.wg.Wait()
}

func (p *Previewer) render(seq uint64, src *imaging.SourceImage, factor float64) {
	defer p.wg.Done()

	start := p.clock.Now()
	out, err := p.engine.Apply(src, factor)
	elapsed := p.clock.Since(start)
	p.observer.ObserveRender(elapsed, err)

	p.mu.Lock()
	defer p.mu.Unlock()

	if seq != p.latest {
		p.observer.ObserveStale()
		p.logger.Debug().
			Uint64("seq", seq).
			Uint64("latest", p.latest).
			Float64("factor", factor).
			Msg("dropping stale preview")
		return
	}

	if err != nil {
		p.err = err
		p.logger.Error().Err(err).Float64("factor", factor).Msg("preview render failed")
	} else {
		p.current = out
		p.err = nil
		p.logger.Debug().Uint64("seq", seq).Float64("factor", factor).Dur("elapsed", elapsed).Msg("preview updated")
	}
	p.markDeliveredLocked()
}

func (p *Previewer) markPendingLocked() {
	if !p.pending {
		p.ready = make(chan struct{})
		p.pending = true
	}
}

func (p *Previewer) markDeliveredLocked() {
	if p.pending {
		close(p.ready)
		p.pending = false
	}
}
