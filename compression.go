package teehistorian

import (
	"bytes"
	"io"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Compression is the compression codec applied to a whole recording.
type Compression byte

func (c Compression) isValid() bool {
	return c < unknownCompression
}

// Supported compression codecs
const (
	NoCompression Compression = iota
	SnappyCompression
	GzipCompression
	ZstdCompression
	unknownCompression
)

var compressionNames = [...]string{
	NoCompression:     "none",
	SnappyCompression: "snappy",
	GzipCompression:   "gzip",
	ZstdCompression:   "zstd",
}

func (c Compression) String() string {
	if c.isValid() {
		return compressionNames[c]
	}
	return "unknown"
}

// ParseCompression parses a codec name as returned by Compression.String.
func ParseCompression(s string) (Compression, error) {
	for c, name := range compressionNames {
		if strings.EqualFold(s, name) {
			return Compression(c), nil
		}
	}
	return unknownCompression, errors.Errorf("teehistorian: unknown compression %q", s)
}

var (
	snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")
	gzipMagic   = []byte{0x1f, 0x8b}
	zstdMagic   = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// DetectCompression sniffs the codec from the leading magic bytes.
func DetectCompression(data []byte) Compression {
	switch {
	case bytes.HasPrefix(data, snappyMagic):
		return SnappyCompression
	case bytes.HasPrefix(data, gzipMagic):
		return GzipCompression
	case bytes.HasPrefix(data, zstdMagic):
		return ZstdCompression
	}
	return NoCompression
}

// NewCompressWriter wraps w with codec c. The returned writer must be
// closed to flush all data; closing it does not close w.
func NewCompressWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case NoCompression:
		return nopCloseWriter{Writer: w}, nil
	case SnappyCompression:
		return snappy.NewBufferedWriter(w), nil
	case GzipCompression:
		return gzip.NewWriter(w), nil
	case ZstdCompression:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, errors.Wrap(err, "teehistorian: create zstd writer")
		}
		return zw, nil
	}
	return nil, errors.Errorf("teehistorian: bad compression codec %d", c)
}

// Decompress returns the plain recording. Uncompressed data is returned
// unchanged.
func Decompress(data []byte) ([]byte, error) {
	switch c := DetectCompression(data); c {
	case SnappyCompression:
		plain, err := io.ReadAll(snappy.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, errors.Wrap(err, "teehistorian: decompress snappy")
		}
		return plain, nil
	case GzipCompression:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(err, "teehistorian: decompress gzip")
		}
		defer zr.Close()

		plain, err := io.ReadAll(zr)
		if err != nil {
			return nil, errors.Wrap(err, "teehistorian: decompress gzip")
		}
		return plain, nil
	case ZstdCompression:
		zr, err := zstd.NewReader(nil)
		if err != nil {
			return nil, errors.Wrap(err, "teehistorian: create zstd reader")
		}
		defer zr.Close()

		plain, err := zr.DecodeAll(data, nil)
		if err != nil {
			return nil, errors.Wrap(err, "teehistorian: decompress zstd")
		}
		return plain, nil
	}
	return data, nil
}

type nopCloseWriter struct {
	io.Writer
}

func (nopCloseWriter) Close() error { return nil }
