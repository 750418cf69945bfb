package teehistorian_test

import (
	"bytes"
	"strings"

	"github.com/bsm/teehistorian"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("Compression", func() {
	DescribeTable("should round-trip",
		func(c teehistorian.Compression) {
			plain := encode(scenario...)

			buf := new(bytes.Buffer)
			cw, err := teehistorian.NewCompressWriter(buf, c)
			Expect(err).NotTo(HaveOccurred())
			_, err = cw.Write(plain)
			Expect(err).NotTo(HaveOccurred())
			Expect(cw.Close()).To(Succeed())

			Expect(teehistorian.DetectCompression(buf.Bytes())).To(Equal(c))
			Expect(teehistorian.Decompress(buf.Bytes())).To(Equal(plain))
		},
		Entry("none", teehistorian.NoCompression),
		Entry("snappy", teehistorian.SnappyCompression),
		Entry("gzip", teehistorian.GzipCompression),
		Entry("zstd", teehistorian.ZstdCompression),
	)

	It("should parse names", func() {
		for _, name := range []string{"none", "snappy", "GZIP", "zstd"} {
			c, err := teehistorian.ParseCompression(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.String()).To(Equal(strings.ToLower(name)), "for %s", name)
		}

		_, err := teehistorian.ParseCompression("lz4")
		Expect(err).To(MatchError(`teehistorian: unknown compression "lz4"`))
	})

	It("should reject bad codecs", func() {
		_, err := teehistorian.NewCompressWriter(new(bytes.Buffer), teehistorian.Compression(9))
		Expect(err).To(MatchError(`teehistorian: bad compression codec 9`))
	})

	It("should fail on corrupt data", func() {
		_, err := teehistorian.Decompress([]byte{0x1f, 0x8b, 0x00})
		Expect(err).To(HaveOccurred())
	})
})
