package tracking

import (
	"context"
	"time"
)

// Capture renders the board of a view that may not be active. It holds a lease until the
// view is ready or timeout passes, so a board with partial data is returned on timeout.
func Capture(ctx context.Context, view *View, timeout time.Duration) Board {
	ready := make(chan struct{}, 1)
	stopListening := view.OnChange(func(Board) {
		if view.Ready() {
			select {
			case ready <- struct{}{}:
			default:
			}
		}
	})
	defer stopListening()

	view.Acquire(ctx)
	defer view.Release()

	if !view.Ready() {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case <-ready:
		case <-timer.C:
		case <-ctx.Done():
		}
	}

	return view.Render(view.now())
}
