package segment_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"wal-segment/internal/lsn"
	"wal-segment/internal/pageformat"
	"wal-segment/internal/segment"
	"wal-segment/internal/testutil"
)

func newTestSegment(order uint64, cfg segment.Config, outer segment.Outer) (*segment.Segment, *testutil.MemoryFile) {
	backing := testutil.NewMemoryFile(fmt.Sprintf("segment-%d", order))
	seg := segment.New(fmt.Sprintf("%d.wal", order), order, cfg, outer, segment.NewCloserScheduler(), backing.Opener())
	return seg, backing
}

var _ = Describe("Segment append/read pipeline", func() {
	var (
		cfg   segment.Config
		outer *fakeOuter
		seg   *segment.Segment
	)

	BeforeEach(func() {
		cfg = segment.DefaultConfig()
		cfg.MaxPagesCached = 1 << 20 // effectively disabled unless a test overrides it
		outer = newFakeOuter(0)      // background flushing disabled; tests flush explicitly
		seg, _ = newTestSegment(1, cfg, outer)
		Expect(seg.Init()).To(Succeed())
	})

	It("round-trips any sequence of appended records through flush and read (property 1)", func() {
		records := [][]byte{
			[]byte("hello"),
			[]byte("a slightly longer record with more bytes in it"),
			[]byte("x"),
			make([]byte, 500),
		}
		lsns := make([]lsn.LSN, len(records))
		for i, r := range records {
			l, err := seg.Append(r)
			Expect(err).NotTo(HaveOccurred())
			lsns[i] = l
		}
		Expect(seg.Flush()).To(Succeed())

		for i, r := range records {
			data, err := seg.ReadRecord(lsns[i])
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(r))
		}
	})

	It("hands out strictly increasing LSNs (property 2)", func() {
		var last lsn.LSN
		for i := 0; i < 20; i++ {
			l, err := seg.Append([]byte(fmt.Sprintf("record-%d", i)))
			Expect(err).NotTo(HaveOccurred())
			if i > 0 {
				Expect(last.Less(l)).To(BeTrue())
			}
			last = l
		}
	})

	It("enumerates every appended LSN exactly once via begin/next_lsn (property 3)", func() {
		const count = 15
		expected := make([]lsn.LSN, 0, count)
		for i := 0; i < count; i++ {
			l, err := seg.Append([]byte(fmt.Sprintf("entry-%03d", i)))
			Expect(err).NotTo(HaveOccurred())
			expected = append(expected, l)
		}
		Expect(seg.Flush()).To(Succeed())

		var walked []lsn.LSN
		current, ok := seg.Begin()
		Expect(ok).To(BeTrue())
		for {
			walked = append(walked, current)
			next, hasNext, err := seg.NextLSN(current)
			Expect(err).NotTo(HaveOccurred())
			if !hasNext {
				break
			}
			current = next
		}

		Expect(walked).To(Equal(expected))
	})

	It("fragments and reassembles a record spanning many pages (property 7)", func() {
		payload := make([]byte, pageformat.CalculateRecordSize(pageformat.MaxEntrySize)*3+123)
		for i := range payload {
			payload[i] = byte(i % 251)
		}

		l, err := seg.Append(payload)
		Expect(err).NotTo(HaveOccurred())
		Expect(seg.Flush()).To(Succeed())

		data, err := seg.ReadRecord(l)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal(payload))
	})

	It("synchronously flushes and increments the overflow counter once the cache threshold is exceeded (property 8 / S5)", func() {
		overflowCfg := segment.DefaultConfig()
		overflowCfg.MaxPagesCached = 1
		overflowOuter := newFakeOuter(0)
		overflowSeg, _ := newTestSegment(2, overflowCfg, overflowOuter)
		Expect(overflowSeg.Init()).To(Succeed())

		recordSize := pageformat.CalculateRecordSize(pageformat.MaxEntrySize)
		// Fill roughly two pages' worth before the flusher (disabled here) has
		// a chance to run — the second such append must trigger a
		// synchronous flush.
		_, err := overflowSeg.Append(make([]byte, recordSize))
		Expect(err).NotTo(HaveOccurred())
		Expect(overflowOuter.overflowCount()).To(Equal(0))

		_, err = overflowSeg.Append(make([]byte, recordSize))
		Expect(err).NotTo(HaveOccurred())
		Expect(overflowOuter.overflowCount()).To(Equal(1))
	})

	It("makes repeated flushes with no new appends a no-op (property 9)", func() {
		_, err := seg.Append([]byte("only record"))
		Expect(err).NotTo(HaveOccurred())
		Expect(seg.Flush()).To(Succeed())

		flushedLSN, ok := seg.ReadFlushedLSN()
		Expect(ok).To(BeTrue())

		for i := 0; i < 5; i++ {
			Expect(seg.Flush()).To(Succeed())
		}

		again, ok := seg.ReadFlushedLSN()
		Expect(ok).To(BeTrue())
		Expect(again).To(Equal(flushedLSN))
	})
})
