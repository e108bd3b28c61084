package segment_test

import (
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"wal-segment/internal/segment"
	"wal-segment/internal/testutil"
)

var _ = Describe("FileHandleManager", func() {
	It("auto-closes an idle handle after roughly two TTL ticks and transparently reopens it on next access", func() {
		backing := testutil.NewMemoryFile("ttl-test")
		var openCount atomic.Int32
		opener := func(path string) (segment.SegmentFile, error) {
			openCount.Add(1)
			return backing.Opener()(path)
		}

		scheduler := segment.NewCloserScheduler()
		ttl := 20 * time.Millisecond
		manager := segment.NewFileHandleManager("ttl-test.wal", opener, scheduler, ttl)

		manager.Lock()
		_, err := manager.GetFile()
		manager.Unlock()
		Expect(err).NotTo(HaveOccurred())
		Expect(openCount.Load()).To(Equal(int32(1)))

		// Stay quiescent for longer than the two-tick TTL window, making no
		// calls into the manager in the meantime — every GetFile call on an
		// already-open handle resets close_next_time, which is exactly the
		// "access" the two-tick heuristic watches for, so polling through
		// GetFile itself would never let the closer observe an idle period.
		time.Sleep(3 * ttl)

		// A single access afterward should find the handle already closed
		// and transparently reopen it, bumping openCount.
		manager.Lock()
		_, err = manager.GetFile()
		manager.Unlock()
		Expect(err).NotTo(HaveOccurred())
		Expect(openCount.Load()).To(Equal(int32(2)))
	})

	It("never auto-closes while the segment is marked active", func() {
		backing := testutil.NewMemoryFile("active-test")
		var openCount atomic.Int32
		opener := func(path string) (segment.SegmentFile, error) {
			openCount.Add(1)
			return backing.Opener()(path)
		}

		scheduler := segment.NewCloserScheduler()
		manager := segment.NewFileHandleManager("active-test.wal", opener, scheduler, 10*time.Millisecond)
		manager.SetActive(true)

		manager.Lock()
		_, err := manager.GetFile()
		manager.Unlock()
		Expect(err).NotTo(HaveOccurred())

		Consistently(func() int32 {
			return openCount.Load()
		}, 150*time.Millisecond, 10*time.Millisecond).Should(Equal(int32(1)))
	})
})
