package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/bsm/teehistorian/internal/stats"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newStatsCmd(a *app) *cobra.Command {
	var prom bool
	var concurrency int

	cmd := &cobra.Command{
		Use:   "stats <file>...",
		Short: "Summarize recordings",
		Long: `Summarize chunk counts and sizes per kind for one or more recordings.
Files are processed concurrently.

Example:
  thtool stats *.teehistorian
  thtool stats --prom *.teehistorian`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			metrics := stats.NewMetrics(reg)

			summaries, err := a.summarize(args, metrics, concurrency)
			if err != nil {
				return err
			}

			if prom {
				return stats.WriteText(cmd.OutOrStdout(), reg)
			}
			for _, s := range summaries {
				if err := printSummary(cmd.OutOrStdout(), s); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&prom, "prom", false, "Print Prometheus text exposition")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", runtime.NumCPU(), "Number of files processed in parallel")
	return cmd
}

func (a *app) summarize(paths []string, metrics *stats.Metrics, concurrency int) ([]*stats.Summary, error) {
	summaries := make([]*stats.Summary, len(paths))

	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			r, size, err := a.open(path)
			if err != nil {
				return err
			}

			s := stats.Summarize(path, size, r)
			if s.Err != nil {
				level.Warn(a.logger).Log("msg", "recording is corrupt", "path", path, "chunks", s.Chunks, "err", s.Err)
			}
			metrics.Observe(s)
			summaries[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func printSummary(w io.Writer, s *stats.Summary) error {
	status := s.End.String()
	if s.Err != nil {
		status = "error: " + s.Err.Error()
	}
	if _, err := fmt.Fprintf(w, "%s: %s, %d chunks, %d clients, %d ticks, %s\n",
		s.Path, humanize.Bytes(uint64(s.Size)), s.Chunks, s.Clients, s.Ticks, status); err != nil {
		return err
	}

	for _, kind := range s.SortedKinds() {
		ks := s.Kinds[kind]
		if _, err := fmt.Fprintf(w, "  %-16s %8d %10s\n", kind, ks.Count, humanize.Bytes(uint64(ks.Bytes))); err != nil {
			return err
		}
	}
	return nil
}
