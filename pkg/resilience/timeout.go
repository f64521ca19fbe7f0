package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/errors"
)

// WithTimeout bounds one dependency call, such as a Redis round trip made by
// the similarity cache, to timeout. It returns as soon as the limit passes
// even if fn ignores its context; fn then finishes in the background.
//
// An overrun wraps both apperrors.ErrTimeout and context.DeadlineExceeded.
// Cancellation of the parent is reported as such. A non-positive timeout
// calls fn directly.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := make(chan error, 1)
	go func() { result <- fn(callCtx) }()

	select {
	case err := <-result:
		if err != nil && callCtx.Err() != nil && errors.Is(err, context.DeadlineExceeded) {
			return overrun(ctx, name, timeout)
		}
		return err
	case <-callCtx.Done():
		return overrun(ctx, name, timeout)
	}
}

func overrun(parent context.Context, name string, timeout time.Duration) error {
	if err := parent.Err(); err != nil {
		return fmt.Errorf("%s: cancelled: %w", name, err)
	}
	return fmt.Errorf("%s exceeded %v: %w: %w", name, timeout, apperrors.ErrTimeout, context.DeadlineExceeded)
}
