package session

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-tune/internal/gateway"
	"github.com/ironsheep/image-tune/internal/imaging"
)

func newTestImage(c color.RGBA) *imaging.SourceImage {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	return imaging.NewSourceImage(img, imaging.OrientationUp, 1)
}

func newTestSession() *Session {
	return New(imaging.Engine{}, zerolog.Nop())
}

// recordingStore captures saved images and can be told to fail.
type recordingStore struct {
	saved []*imaging.SourceImage
	fail  error
}

func (r *recordingStore) Save(ctx context.Context, img *imaging.SourceImage) (gateway.Receipt, error) {
	if r.fail != nil {
		return gateway.Receipt{}, r.fail
	}
	r.saved = append(r.saved, img)
	return gateway.Receipt{Location: "memory://saved"}, nil
}

func assertInvariants(t *testing.T, s *Session) {
	t.Helper()
	snap := s.Snapshot()
	if snap.Dirty {
		assert.True(t, snap.Opened, "dirty implies opened")
	} else {
		assert.Equal(t, imaging.NeutralFactor, snap.Factor, "clean implies neutral factor")
	}
	if snap.Source == nil {
		assert.False(t, snap.Opened, "no source implies not opened")
		assert.False(t, snap.Dirty, "no source implies not dirty")
	}
}

func TestNew_IsEmpty(t *testing.T) {
	s := newTestSession()
	snap := s.Snapshot()

	assert.Equal(t, StateEmpty, snap.State)
	assert.Nil(t, snap.Source)
	assert.Equal(t, 1.0, snap.Factor)
	assertInvariants(t, s)
}

func TestScenarioA_OpenAdjustDiscard(t *testing.T) {
	s := newTestSession()
	imgA := newTestImage(color.RGBA{200, 100, 50, 255})

	require.NoError(t, s.Open(imgA))
	snap := s.Snapshot()
	assert.Equal(t, StateClean, snap.State)
	assert.Same(t, imgA, snap.Source)

	require.NoError(t, s.Adjust(1.5))
	assert.Equal(t, StateDirty, s.Snapshot().State)

	preview, err := s.Render()
	require.NoError(t, err)
	want, err := imaging.Saturate(imgA, 1.5)
	require.NoError(t, err)
	assert.Equal(t, want.Pixels, preview.Pixels)

	require.NoError(t, s.Discard())
	snap = s.Snapshot()
	assert.Equal(t, StateClean, snap.State)
	assert.Equal(t, 1.0, snap.Factor)
	assert.Same(t, imgA, snap.Source, "discard keeps the baseline")
}

func TestScenarioB_AdjustOnEmpty(t *testing.T) {
	s := newTestSession()

	err := s.Adjust(1.2)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, StateEmpty, s.Snapshot().State)

	assert.ErrorIs(t, s.Discard(), ErrInvalidState)
	_, err = s.CommitSave(context.Background(), &recordingStore{})
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.Render()
	assert.ErrorIs(t, err, ErrNoSource)
	assertInvariants(t, s)
}

func TestScenarioC_CommitSaveReplacesBaseline(t *testing.T) {
	s := newTestSession()
	imgA := newTestImage(color.RGBA{30, 160, 90, 255})
	store := &recordingStore{}

	require.NoError(t, s.Open(imgA))
	require.NoError(t, s.Adjust(0.5))
	require.Equal(t, StateDirty, s.Snapshot().State)

	receipt, err := s.CommitSave(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, "memory://saved", receipt.Location)

	want, err := imaging.Saturate(imgA, 0.5)
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, StateClean, snap.State)
	assert.Equal(t, 1.0, snap.Factor)
	require.Len(t, store.saved, 1)
	assert.Same(t, store.saved[0], snap.Source, "saved output becomes the baseline")
	assert.Equal(t, want.Pixels, snap.Source.Pixels)
}

func TestCommitSave_FailureLeavesStateUnchanged(t *testing.T) {
	s := newTestSession()
	imgA := newTestImage(color.RGBA{30, 160, 90, 255})
	require.NoError(t, s.Open(imgA))
	require.NoError(t, s.Adjust(1.8))
	before := s.Snapshot()

	_, err := s.CommitSave(context.Background(), &recordingStore{fail: errors.New("disk full")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistenceFailure)

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "disk full", perr.Reason)

	assert.Equal(t, before, s.Snapshot())
}

func TestCommitSave_RenderFailureLeavesStateUnchanged(t *testing.T) {
	s := New(imaging.Engine{Model: "broken"}, zerolog.Nop())
	store := &recordingStore{}
	require.NoError(t, s.Open(newTestImage(color.RGBA{1, 2, 3, 255})))
	require.NoError(t, s.Adjust(0.2))
	before := s.Snapshot()

	_, err := s.CommitSave(context.Background(), store)
	assert.ErrorIs(t, err, imaging.ErrTransformUnavailable)
	assert.Empty(t, store.saved)
	assert.Equal(t, before, s.Snapshot())
}

func TestCommitSave_OnCleanSession(t *testing.T) {
	s := newTestSession()
	store := &recordingStore{}
	require.NoError(t, s.Open(newTestImage(color.RGBA{9, 9, 9, 255})))

	_, err := s.CommitSave(context.Background(), store)
	require.NoError(t, err)
	assert.Len(t, store.saved, 1)
	assert.Equal(t, StateClean, s.Snapshot().State)
}

func TestOpen_RejectsMissingImage(t *testing.T) {
	s := newTestSession()

	assert.ErrorIs(t, s.Open(nil), ErrNoSource)
	assert.ErrorIs(t, s.Open(&imaging.SourceImage{}), ErrNoSource)
	assert.Equal(t, StateEmpty, s.Snapshot().State)
}

func TestOpen_FromDirtyResetsEdits(t *testing.T) {
	s := newTestSession()
	require.NoError(t, s.Open(newTestImage(color.RGBA{1, 2, 3, 255})))
	require.NoError(t, s.Adjust(0.1))

	imgB := newTestImage(color.RGBA{4, 5, 6, 255})
	require.NoError(t, s.Open(imgB))

	snap := s.Snapshot()
	assert.Equal(t, StateClean, snap.State)
	assert.Equal(t, 1.0, snap.Factor)
	assert.Same(t, imgB, snap.Source)
}

func TestAdjust_NeutralFactorIsClean(t *testing.T) {
	s := newTestSession()
	require.NoError(t, s.Open(newTestImage(color.RGBA{1, 2, 3, 255})))

	require.NoError(t, s.Adjust(0.7))
	require.NoError(t, s.Adjust(1.0))
	assert.Equal(t, StateClean, s.Snapshot().State)
}

func TestAdjust_FactorRange(t *testing.T) {
	s := newTestSession()
	require.NoError(t, s.Open(newTestImage(color.RGBA{1, 2, 3, 255})))

	for _, f := range []float64{0, 2, 0.0001, 1.9999} {
		assert.NoError(t, s.Adjust(f), "factor %v", f)
	}
	require.NoError(t, s.Adjust(1.3))
	for _, f := range []float64{-0.01, 2.01, math.NaN(), math.Inf(1)} {
		assert.ErrorIs(t, s.Adjust(f), ErrFactorOutOfRange, "factor %v", f)
	}
	assert.Equal(t, 1.3, s.Snapshot().Factor, "rejected factor leaves state unchanged")
}

func TestDiscard_AfterManyAdjustments(t *testing.T) {
	s := newTestSession()
	require.NoError(t, s.Open(newTestImage(color.RGBA{1, 2, 3, 255})))

	for i := 0; i < 50; i++ {
		require.NoError(t, s.Adjust(float64(i%20)/10))
	}
	require.NoError(t, s.Discard())

	snap := s.Snapshot()
	assert.Equal(t, StateClean, snap.State)
	assert.Equal(t, 1.0, snap.Factor)
}

func TestInvariants_RandomWalk(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := newTestSession()
	failing := &recordingStore{fail: errors.New("nope")}
	working := &recordingStore{}

	for i := 0; i < 500; i++ {
		switch rng.Intn(6) {
		case 0:
			_ = s.Open(newTestImage(color.RGBA{uint8(rng.Intn(256)), 10, 20, 255}))
		case 1, 2:
			_ = s.Adjust(rng.Float64() * 2)
		case 3:
			_ = s.Adjust(1.0)
		case 4:
			_ = s.Discard()
		case 5:
			if rng.Intn(2) == 0 {
				_, _ = s.CommitSave(context.Background(), failing)
			} else {
				_, _ = s.CommitSave(context.Background(), working)
			}
		}
		assertInvariants(t, s)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "empty", StateEmpty.String())
	assert.Equal(t, "clean", StateClean.String())
	assert.Equal(t, "dirty", StateDirty.String())
}

func TestPersistenceError(t *testing.T) {
	cause := errors.New("permission denied")
	err := error(&PersistenceError{Reason: cause.Error(), Err: cause})

	assert.Equal(t, "save failed: permission denied", err.Error())
	assert.ErrorIs(t, err, ErrPersistenceFailure)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrInvalidState)
}
