package cmd

import (
	"fmt"
	"io"

	"github.com/bsm/teehistorian"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

type dumpRecord struct {
	Offset   int                `json:"offset"`
	Kind     string             `json:"kind"`
	Category string             `json:"category"`
	Chunk    teehistorian.Chunk `json:"chunk"`
}

func newDumpCmd(a *app) *cobra.Command {
	var asJSON bool
	var limit int

	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print all chunks of a recording",
		Long: `Print all chunks of a recording, one per line.

Example:
  thtool dump game.teehistorian
  thtool dump --json game.teehistorian.zst`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := a.open(args[0])
			if err != nil {
				return err
			}
			return dump(cmd.OutOrStdout(), r, asJSON, limit)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON lines")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Stop after n chunks (0 = all)")
	return cmd
}

func dump(out io.Writer, r *teehistorian.Reader, asJSON bool, limit int) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(out)

	for limit < 1 || r.ChunkCount() < limit {
		offset := r.Offset()
		c, err := r.ReadChunk()
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}

		if asJSON {
			if err := enc.Encode(dumpRecord{
				Offset:   offset,
				Kind:     c.Kind().String(),
				Category: c.Kind().Category().String(),
				Chunk:    c,
			}); err != nil {
				return err
			}
			continue
		}

		if _, err := fmt.Fprintf(out, "%8d  %-16s %+v\n", offset, c.Kind(), c); err != nil {
			return err
		}
	}

	if n := r.Trailing(); n != 0 && !asJSON {
		_, err := fmt.Fprintf(out, "%d trailing bytes after eos\n", n)
		return err
	}
	return nil
}
