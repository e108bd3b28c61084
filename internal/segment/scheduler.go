package segment

import (
	"sync"
	"time"
)

// CloserScheduler runs file-handle TTL tasks for any number of segments.
// A single instance may be shared across many segments, mirroring spec.md
// §5's "a shared closer scheduler runs file-handle TTL tasks; multiple
// segments may share one scheduler." Each registration owns its own
// goroutine and ticker; the scheduler itself holds no segment state.
type CloserScheduler struct{}

// NewCloserScheduler creates a scheduler ready to have closer tasks
// registered against it.
func NewCloserScheduler() *CloserScheduler {
	return &CloserScheduler{}
}

// closerHandle is the token returned by Schedule, used to cancel a closer
// task from the outside (when the segment closes or deletes itself). A
// task that decides to stop from inside its own tick (after closing the
// handle) does so by returning false from onTick, not through this handle.
type closerHandle struct {
	once     sync.Once
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// cancel stops the closer task. Safe to call multiple times and safe to
// call from within the task's own tick.
func (h *closerHandle) cancel() {
	h.once.Do(func() {
		close(h.shutdown)
	})
}

// wait blocks until the closer task's goroutine has exited. Only safe to
// call after cancel, and never from within the task itself.
func (h *closerHandle) wait() {
	h.wg.Wait()
}

// Schedule starts a new closer task ticking at interval, invoking onTick on
// every tick until either onTick returns false (meaning the closer decided
// to stop, e.g. after closing the handle) or the returned handle is
// cancelled. onTick must not block for long; it runs on the scheduler's
// dedicated goroutine for this registration.
func (s *CloserScheduler) Schedule(interval time.Duration, onTick func() (continueTicking bool)) *closerHandle {
	handle := &closerHandle{
		shutdown: make(chan struct{}),
	}
	handle.wg.Add(1)
	go func() {
		defer handle.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !onTick() {
					return
				}
			case <-handle.shutdown:
				return
			}
		}
	}()
	return handle
}
