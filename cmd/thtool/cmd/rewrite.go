package cmd

import (
	"bytes"
	"io"

	"github.com/bsm/teehistorian"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newRewriteCmd(a *app) *cobra.Command {
	var compress string
	var verify bool

	cmd := &cobra.Command{
		Use:   "rewrite <in> <out>",
		Short: "Decode and re-encode a recording",
		Long: `Decode a recording and encode it again, optionally with a different
compression. With --verify the re-encoded stream must match the input
byte for byte.

Example:
  thtool rewrite --compress=zstd game.teehistorian game.teehistorian.zst`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec := a.cfg.CompressionCodec()
			if compress != "" {
				var err error
				if codec, err = teehistorian.ParseCompression(compress); err != nil {
					return err
				}
			}
			return a.rewrite(args[0], args[1], codec, verify)
		},
	}

	cmd.Flags().StringVar(&compress, "compress", "", "Output compression: none, snappy, gzip or zstd (default from config)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Fail unless the output matches the input")
	return cmd
}

func (a *app) rewrite(in, out string, codec teehistorian.Compression, verify bool) error {
	data, err := teehistorian.ReadFile(a.fs, in)
	if err != nil {
		return err
	}
	r, err := teehistorian.NewReader(data, a.readerOptions())
	if err != nil {
		return errors.Wrapf(err, "open %s", in)
	}

	w := teehistorian.NewWriter(a.cfg.WriterOptions())
	if err := w.ReplaceHeader(r.Header()); err != nil {
		return err
	}
	for _, f := range a.cfg.WriterOptions().Header {
		if err := w.SetHeader(f.Key, f.Value); err != nil {
			return err
		}
	}

	for {
		c, err := r.ReadChunk()
		if err == io.EOF {
			break
		} else if err != nil {
			return errors.Wrapf(err, "decode %s", in)
		}
		if err := w.Write(c); err != nil {
			return errors.Wrapf(err, "encode chunk #%d", r.ChunkCount())
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	if verify {
		if pos := mismatch(data, w.Bytes()); pos >= 0 {
			return errors.Errorf("output differs from input at offset %d", pos)
		}
	}

	if err := teehistorian.WriteFile(a.fs, out, w, codec); err != nil {
		return err
	}
	level.Info(a.logger).Log("msg", "rewrote recording", "in", in, "out", out, "chunks", w.ChunkCount(), "size", humanize.Bytes(uint64(w.Size())), "compression", codec)
	return nil
}

// mismatch returns the first offset at which a and b differ, -1 if equal.
func mismatch(a, b []byte) int {
	if bytes.Equal(a, b) {
		return -1
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
