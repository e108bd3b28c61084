package segment_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"wal-segment/internal/segment"
)

var _ = Describe("OrdinalFromFileName", func() {
	It("extracts the ordinal from a conventionally named segment file", func() {
		order, err := segment.OrdinalFromFileName("segment.0000000042.wal")
		Expect(err).NotTo(HaveOccurred())
		Expect(order).To(Equal(uint64(42)))
	})

	It("extracts the ordinal even with an arbitrary prefix", func() {
		order, err := segment.OrdinalFromFileName("some-directory.7.wal")
		Expect(err).NotTo(HaveOccurred())
		Expect(order).To(Equal(uint64(7)))
	})

	It("rejects a file name without the .wal suffix", func() {
		_, err := segment.OrdinalFromFileName("7.log")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("SegmentFileName", func() {
	It("round-trips through OrdinalFromFileName", func() {
		name := segment.SegmentFileName(123)
		order, err := segment.OrdinalFromFileName(name)
		Expect(err).NotTo(HaveOccurred())
		Expect(order).To(Equal(uint64(123)))
	})
})

var _ = Describe("GetSegments", func() {
	It("returns the ordinals of every segment file, sorted ascending", func() {
		dir := GinkgoT().TempDir()
		for _, name := range []string{"segment.3.wal", "segment.1.wal", "segment.2.wal", "not-a-segment.txt"} {
			Expect(os.WriteFile(filepath.Join(dir, name), nil, 0o600)).To(Succeed())
		}

		orders, err := segment.GetSegments(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(orders).To(Equal([]uint64{1, 2, 3}))
	})
})

var _ = Describe("Compare", func() {
	It("orders segments by ordinal", func() {
		Expect(segment.Compare(1, 2)).To(Equal(-1))
		Expect(segment.Compare(2, 1)).To(Equal(1))
		Expect(segment.Compare(2, 2)).To(Equal(0))
	})
})
