package capture

import (
	"context"
	"sync"
	"time"
)

// startPeriodic calls callback every interval until ctx is canceled. The
// returned stop function cancels the timer and blocks until the goroutine has
// exited, so no callback is in flight afterwards.
func startPeriodic(ctx context.Context, interval time.Duration, callback func()) func() {
	ctx, cancel := context.WithCancel(ctx)
	ticker := time.NewTicker(interval)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				callback()
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}
