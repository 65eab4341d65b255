package theory

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/llp-detector/hnlsens/internal/pipeline"
)

// SerializedAdapter wraps an Adapter that may not be safe for concurrent
// use with a single-slot weighted semaphore, so a pool of (mass, flavour)
// workers can share one Adapter instance without racing on it (spec.md
// §5: "the opaque theory adapter is non-thread-safe; callers must either
// hold a per-thread instance or serialize calls" — this is the serialize
// option).
type SerializedAdapter struct {
	inner Adapter
	sem   *semaphore.Weighted
}

// NewSerializedAdapter wraps inner so at most one Anchor call runs at a
// time across every caller sharing this SerializedAdapter.
func NewSerializedAdapter(inner Adapter) *SerializedAdapter {
	return &SerializedAdapter{inner: inner, sem: semaphore.NewWeighted(1)}
}

func (s *SerializedAdapter) Anchor(ctx context.Context, massGeV float64, uRef CouplingVector) (AnchorResult, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return AnchorResult{}, pipeline.Wrap(pipeline.KindTheoryFailure, "theory.SerializedAdapter.Anchor", err)
	}
	defer s.sem.Release(1)

	res, err := s.inner.Anchor(ctx, massGeV, uRef)
	if err != nil {
		return AnchorResult{}, pipeline.Wrap(pipeline.KindTheoryFailure, "theory.SerializedAdapter.Anchor", err)
	}
	return res, nil
}
