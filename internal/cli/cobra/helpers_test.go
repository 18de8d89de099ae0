package cobra

import (
	"context"
	"time"
)

// recordingSleeper records sleeps without blocking.
type recordingSleeper struct {
	sleeps []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.sleeps = append(s.sleeps, d)
	return nil
}
