package filelock

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// refresher drives the periodic renewal of lock evidence. The timer is
// re-armed only after a tick completes, so a slow filesystem delays the
// next tick but never overlaps it. Tick errors are logged and the cycle
// always continues.
type refresher struct {
	tick     func(ctx context.Context) error
	interval time.Duration

	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

func newRefresher(tick func(ctx context.Context) error, interval time.Duration) *refresher {
	return &refresher{
		tick:     tick,
		interval: interval,
	}
}

// Start begins the refresh cycle. Safe to call multiple times; only the
// first call installs the recurring task.
func (r *refresher) Start(ctx context.Context) {
	r.once.Do(func() {
		ctx, r.cancel = context.WithCancel(ctx)
		r.done = make(chan struct{})
		go r.run(ctx)
	})
}

// Stop cancels the cycle and waits for any in-flight tick to finish.
func (r *refresher) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

func (r *refresher) run(ctx context.Context) {
	defer close(r.done)

	log := logr.FromContextOrDiscard(ctx)
	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if err := r.tick(ctx); err != nil {
				log.Error(err, "filelock: refresh tick")
			}
			timer.Reset(r.interval)
		}
	}
}
