package segment_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"wal-segment/internal/pageformat"
	"wal-segment/internal/segment"
	"wal-segment/internal/testutil"
)

var _ = Describe("Torn-tail repair", func() {
	It("truncates a torn tail to the last whole page and keeps previously-durable records readable (property 6 / S6)", func() {
		backing := testutil.NewMemoryFile("torn-tail")
		cfg := segment.DefaultConfig()
		outer := newFakeOuter(0)
		seg := segment.New("torn.wal", 30, cfg, outer, segment.NewCloserScheduler(), backing.Opener())
		Expect(seg.Init()).To(Succeed())

		// A almost fills the first page; B does not fit in what's left, so it
		// spills into a second page. Two flushes, two pages on disk.
		recordCap := pageformat.CalculateRecordSize(pageformat.MaxEntrySize)
		a := make([]byte, recordCap-1000)
		b := make([]byte, 2000)

		aLSN, err := seg.Append(a)
		Expect(err).NotTo(HaveOccurred())
		Expect(seg.Flush()).To(Succeed())

		_, err = seg.Append(b)
		Expect(err).NotTo(HaveOccurred())
		Expect(seg.Flush()).To(Succeed())
		Expect(seg.Close(false)).To(Succeed())

		Expect(len(backing.Bytes())).To(Equal(2 * pageformat.PageSize))

		torn := backing.Bytes()
		torn = torn[:len(torn)-3]
		backing.Overwrite(torn)

		reopened := segment.New("torn.wal", 30, cfg, outer, segment.NewCloserScheduler(), backing.Opener())
		Expect(reopened.Init()).To(Succeed())

		Expect(len(backing.Bytes()) % pageformat.PageSize).To(Equal(0))
		Expect(len(backing.Bytes())).To(Equal(pageformat.PageSize))

		data, err := reopened.ReadRecord(aLSN)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal(a))
	})
})
