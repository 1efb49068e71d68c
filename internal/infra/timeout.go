package infra

import (
	"context"
	"time"
)

// BoundedTimeout shortens the configured timeout of an outbound call to the
// context deadline. A non-positive timeout means the deadline alone applies.
func BoundedTimeout(ctx context.Context, timeout time.Duration) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, context.DeadlineExceeded
		}
		if timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	return timeout, nil
}
