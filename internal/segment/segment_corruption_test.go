package segment_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"wal-segment/internal/pageformat"
	"wal-segment/internal/segment"
	"wal-segment/internal/testutil"
)

var _ = Describe("Corruption detection", func() {
	It("raises ErrPageBroken when a payload byte is flipped in a written page (property 4)", func() {
		backing := testutil.NewMemoryFile("crc-test")
		cfg := segment.DefaultConfig()
		outer := newFakeOuter(0)
		seg := segment.New("crc.wal", 20, cfg, outer, segment.NewCloserScheduler(), backing.Opener())
		Expect(seg.Init()).To(Succeed())

		l, err := seg.Append([]byte("corrupt me"))
		Expect(err).NotTo(HaveOccurred())
		Expect(seg.Flush()).To(Succeed())

		data := backing.Bytes()
		data[pageformat.RecordsOffset+pageformat.ChunkHeaderSize] ^= 0xFF
		backing.Overwrite(data)

		_, err = seg.ReadRecord(l)
		Expect(err).To(MatchError(segment.ErrPageBroken))
	})

	It("raises ErrPageBroken when the page's magic number is corrupted (property 5)", func() {
		backing := testutil.NewMemoryFile("magic-test")
		cfg := segment.DefaultConfig()
		outer := newFakeOuter(0)
		seg := segment.New("magic.wal", 21, cfg, outer, segment.NewCloserScheduler(), backing.Opener())
		Expect(seg.Init()).To(Succeed())

		l, err := seg.Append([]byte("corrupt my magic"))
		Expect(err).NotTo(HaveOccurred())
		Expect(seg.Flush()).To(Succeed())

		data := backing.Bytes()
		data[4] ^= 0xFF
		backing.Overwrite(data)

		_, err = seg.ReadRecord(l)
		Expect(err).To(MatchError(segment.ErrPageBroken))
	})
})
