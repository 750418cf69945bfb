// Package stats summarizes teehistorian recordings and exports the results
// as Prometheus metrics.
package stats

import (
	"io"
	"sort"

	"github.com/bsm/teehistorian"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// KindStats holds the count and encoded size of one chunk kind.
type KindStats struct {
	Count int
	Bytes int
}

// Summary describes a single recording.
type Summary struct {
	Path       string
	Size       int
	HeaderSize int
	Chunks     int
	Ticks      int64 // ticks advanced, explicit and implicit
	Clients    int
	End        teehistorian.End
	Trailing   int
	Kinds      map[teehistorian.Kind]*KindStats
	Err        error
}

// Summarize consumes r and returns the summary. Decode errors are recorded
// in Summary.Err; the chunks before it are still counted.
func Summarize(path string, size int, r *teehistorian.Reader) *Summary {
	s := &Summary{
		Path:       path,
		Size:       size,
		HeaderSize: r.HeaderSize(),
		Kinds:      make(map[teehistorian.Kind]*KindStats),
	}

	clients := make(map[int32]struct{})
	ticks := tickCounter{last: -1}
	for {
		start := r.Offset()
		c, err := r.ReadChunk()
		if err == io.EOF {
			break
		} else if err != nil {
			s.Err = err
			break
		}

		ks, ok := s.Kinds[c.Kind()]
		if !ok {
			ks = new(KindStats)
			s.Kinds[c.Kind()] = ks
		}
		ks.Count++
		ks.Bytes += r.Offset() - start

		ticks.observe(c)
		if c, ok := c.(teehistorian.Join); ok {
			clients[c.ClientID] = struct{}{}
		}
	}
	s.Ticks = ticks.n

	s.Chunks = r.ChunkCount()
	s.Clients = len(clients)
	s.End = r.End()
	s.Trailing = r.Trailing()
	return s
}

// tickCounter reconstructs tick advances. Player data is written in
// ascending client ID order within a tick, so a player record whose client
// ID does not exceed the previous one starts a new tick. A tick skip
// advances by DT+1 and opens the next tick explicitly.
type tickCounter struct {
	n    int64
	last int32
}

func (t *tickCounter) observe(c teehistorian.Chunk) {
	var cid int32
	switch c := c.(type) {
	case teehistorian.TickSkip:
		t.n += int64(c.DT) + 1
		t.last = -1
		return
	case teehistorian.PlayerDiff:
		cid = c.ClientID
	case teehistorian.PlayerNew:
		cid = c.ClientID
	case teehistorian.PlayerOld:
		cid = c.ClientID
	default:
		return
	}

	if cid <= t.last {
		t.n++
	}
	t.last = cid
}

// SortedKinds returns the observed kinds in declaration order.
func (s *Summary) SortedKinds() []teehistorian.Kind {
	kinds := make([]teehistorian.Kind, 0, len(s.Kinds))
	for k := range s.Kinds {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// --------------------------------------------------------------------

// Metrics aggregates summaries across recordings.
type Metrics struct {
	files      prometheus.Counter
	failures   prometheus.Counter
	bytes      prometheus.Counter
	chunks     *prometheus.CounterVec
	chunkBytes *prometheus.CounterVec
	ticks      prometheus.Counter
}

// NewMetrics registers all metrics with r.
func NewMetrics(r prometheus.Registerer) *Metrics {
	return &Metrics{
		files: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "teehistorian_files_total",
			Help: "The number of recordings processed.",
		}),
		failures: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "teehistorian_parse_failures_total",
			Help: "The number of recordings that failed to decode completely.",
		}),
		bytes: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "teehistorian_bytes_total",
			Help: "The total uncompressed size of processed recordings.",
		}),
		chunks: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Name: "teehistorian_chunks_total",
			Help: "The number of decoded chunks.",
		}, []string{"kind", "category"}),
		chunkBytes: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Name: "teehistorian_chunk_bytes_total",
			Help: "The encoded size of decoded chunks.",
		}, []string{"kind"}),
		ticks: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "teehistorian_ticks_total",
			Help: "The number of ticks advanced, including implicit ticks.",
		}),
	}
}

// Observe adds a summary. It is safe for concurrent use.
func (m *Metrics) Observe(s *Summary) {
	m.files.Inc()
	if s.Err != nil {
		m.failures.Inc()
	}
	m.bytes.Add(float64(s.Size))
	m.ticks.Add(float64(s.Ticks))

	for kind, ks := range s.Kinds {
		m.chunks.WithLabelValues(kind.String(), kind.Category().String()).Add(float64(ks.Count))
		m.chunkBytes.WithLabelValues(kind.String()).Add(float64(ks.Bytes))
	}
}

// WriteText writes all metrics gathered by g in the Prometheus text format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
