package session

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-tune/internal/imaging"
)

// gatedEngine blocks each render until the test releases its factor. The
// returned image carries the factor in its Scale so results can be told apart.
type gatedEngine struct {
	mu    sync.Mutex
	gates map[float64]chan struct{}
	fail  map[float64]error
}

func newGatedEngine() *gatedEngine {
	return &gatedEngine{
		gates: make(map[float64]chan struct{}),
		fail:  make(map[float64]error),
	}
}

func (g *gatedEngine) gate(factor float64) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[factor]
	if !ok {
		ch = make(chan struct{})
		g.gates[factor] = ch
	}
	return ch
}

func (g *gatedEngine) release(factor float64) {
	close(g.gate(factor))
}

func (g *gatedEngine) failOn(factor float64, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail[factor] = err
}

func (g *gatedEngine) Apply(src *imaging.SourceImage, factor float64) (*imaging.SourceImage, error) {
	<-g.gate(factor)
	g.mu.Lock()
	err := g.fail[factor]
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return imaging.NewSourceImage(src.Pixels, src.Orientation, factor), nil
}

type countingObserver struct {
	mu      sync.Mutex
	renders int
	failed  int
	stale   int
}

func (c *countingObserver) ObserveRender(elapsed time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renders++
	if err != nil {
		c.failed++
	}
}

func (c *countingObserver) ObserveStale() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale++
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestPreviewer_RendersRequest(t *testing.T) {
	p := NewPreviewer(imaging.Engine{}, clockwork.NewRealClock(), nil, zerolog.Nop())
	src := newTestImage(color.RGBA{200, 100, 50, 255})

	seq := p.Request(src, 0)
	assert.Equal(t, uint64(1), seq)

	got, err := p.Wait(waitCtx(t))
	require.NoError(t, err)
	want, err := imaging.Saturate(src, 0)
	require.NoError(t, err)
	assert.Equal(t, want.Pixels, got.Pixels)
	assert.Same(t, got, p.Current())
}

func TestPreviewer_DropsStaleResultArrivingLate(t *testing.T) {
	engine := newGatedEngine()
	obs := &countingObserver{}
	p := NewPreviewer(engine, clockwork.NewRealClock(), obs, zerolog.Nop())
	src := newTestImage(color.RGBA{1, 2, 3, 255})

	p.Request(src, 0.5)
	p.Request(src, 1.5)

	// newer request finishes first
	engine.release(1.5)
	got, err := p.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 1.5, got.Scale)

	// older request finishes afterwards and must not replace the preview
	engine.release(0.5)
	p.Drain()
	assert.Equal(t, 1.5, p.Current().Scale)
	assert.Equal(t, 2, obs.renders)
	assert.Equal(t, 1, obs.stale)
}

func TestPreviewer_DropsStaleResultArrivingEarly(t *testing.T) {
	engine := newGatedEngine()
	obs := &countingObserver{}
	p := NewPreviewer(engine, clockwork.NewRealClock(), obs, zerolog.Nop())
	src := newTestImage(color.RGBA{1, 2, 3, 255})

	p.Request(src, 0.2)
	p.Request(src, 0.8)

	// older request finishes first while the newer one is still pending
	engine.release(0.2)
	require.Eventually(t, func() bool {
		obs.mu.Lock()
		defer obs.mu.Unlock()
		return obs.stale == 1
	}, 5*time.Second, time.Millisecond)
	assert.Nil(t, p.Current(), "stale result must not become the preview")

	engine.release(0.8)
	got, err := p.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 0.8, got.Scale)
}

func TestPreviewer_ResetSupersedesInFlight(t *testing.T) {
	engine := newGatedEngine()
	p := NewPreviewer(engine, clockwork.NewRealClock(), nil, zerolog.Nop())
	src := newTestImage(color.RGBA{1, 2, 3, 255})
	baseline := imaging.NewSourceImage(src.Pixels, imaging.OrientationUp, 7)

	p.Request(src, 1.9)
	p.Reset(baseline)

	got, err := p.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Same(t, baseline, got)

	engine.release(1.9)
	p.Drain()
	assert.Same(t, baseline, p.Current())
	assert.Equal(t, uint64(2), p.Latest())
}

func TestPreviewer_RenderError(t *testing.T) {
	engine := newGatedEngine()
	obs := &countingObserver{}
	p := NewPreviewer(engine, clockwork.NewRealClock(), obs, zerolog.Nop())
	src := newTestImage(color.RGBA{1, 2, 3, 255})

	engine.release(1.2)
	p.Request(src, 1.2)
	_, err := p.Wait(waitCtx(t))
	require.NoError(t, err)

	engine.failOn(0.4, imaging.ErrTransformUnavailable)
	engine.release(0.4)
	p.Request(src, 0.4)
	_, err = p.Wait(waitCtx(t))
	assert.True(t, errors.Is(err, imaging.ErrTransformUnavailable))
	assert.Equal(t, 1.2, p.Current().Scale, "failed render keeps the previous preview")
	assert.Equal(t, 1, obs.failed)
}

func TestPreviewer_WaitWithoutPreview(t *testing.T) {
	p := NewPreviewer(imaging.Engine{}, clockwork.NewRealClock(), nil, zerolog.Nop())

	_, err := p.Wait(waitCtx(t))
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestPreviewer_WaitHonoursContext(t *testing.T) {
	engine := newGatedEngine()
	p := NewPreviewer(engine, clockwork.NewRealClock(), nil, zerolog.Nop())
	p.Request(newTestImage(color.RGBA{1, 2, 3, 255}), 0.3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	engine.release(0.3)
	p.Drain()
}
