package theory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleCtau0InverseProportional(t *testing.T) {
	ref, err := ScaleCtau0(10.0, 1e-6, 1e-6)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, ref, 1e-9)

	doubled, err := ScaleCtau0(10.0, 1e-6, 2e-6)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, doubled, 1e-9)
}

func TestScaleCtau0ClampsDegenerateInputs(t *testing.T) {
	_, err := ScaleCtau0(10.0, 1e-6, 0)
	assert.Error(t, err)

	v, err := ScaleCtau0(1e-30, 1e-12, 1e-2)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, ctau0FloorM)
}

func TestScaleBRDirectProportional(t *testing.T) {
	ref := ScaleBR(1e-7, 1e-6, 1e-6)
	assert.InDelta(t, 1e-7, ref, 1e-20)

	doubled := ScaleBR(1e-7, 1e-6, 2e-6)
	assert.InDelta(t, 2e-7, doubled, 1e-20)
}

func TestAnalyticAdapterAnchor(t *testing.T) {
	a := NewAnalyticAdapter()
	res, err := a.Anchor(context.Background(), 2.6, CouplingVector{UMu: 1.0})
	require.NoError(t, err)
	assert.Greater(t, res.Ctau0RefM, 0.0)
	assert.NotEmpty(t, res.BRPerParent)
	assert.Greater(t, res.BRTauToN, 0.0)
}

func TestSerializedAdapterSerializesCalls(t *testing.T) {
	inner := &countingAdapter{}
	s := NewSerializedAdapter(inner)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Anchor(context.Background(), 2.6, CouplingVector{UMu: 1.0})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(8), atomic.LoadInt32(&inner.calls))
	assert.LessOrEqual(t, atomic.LoadInt32(&inner.maxConcurrent), int32(1))
}

// countingAdapter records the maximum number of concurrent Anchor calls it
// observed, to verify SerializedAdapter actually serializes.
type countingAdapter struct {
	calls         int32
	inFlight      int32
	maxConcurrent int32
}

func (c *countingAdapter) Anchor(_ context.Context, _ float64, _ CouplingVector) (AnchorResult, error) {
	atomic.AddInt32(&c.calls, 1)
	n := atomic.AddInt32(&c.inFlight, 1)
	for {
		cur := atomic.LoadInt32(&c.maxConcurrent)
		if n <= cur || atomic.CompareAndSwapInt32(&c.maxConcurrent, cur, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	atomic.AddInt32(&c.inFlight, -1)
	return AnchorResult{Ctau0RefM: 1, BRPerParent: map[int]float64{511: 1e-7}}, nil
}
