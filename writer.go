package teehistorian

import (
	"io"
	"sort"
)

// WriterOptions define writer specific options.
type WriterOptions struct {
	// MaxClients is the exclusive upper bound for client IDs.
	// Default: 64.
	MaxClients int

	// Header holds additional default header fields. They are applied
	// on top of the built-in version fields and restored on Reset.
	Header []HeaderField
}

func (o *WriterOptions) norm() *WriterOptions {
	var oo WriterOptions
	if o != nil {
		oo = *o
	}

	if oo.MaxClients < 1 {
		oo.MaxClients = MaxClients
	}
	oo.Header = append([]HeaderField(nil), oo.Header...)

	return &oo
}

func (o *WriterOptions) defaultHeader() *Header {
	h := NewHeader(
		HeaderField{Key: "version", Value: "2"},
		HeaderField{Key: "version_minor", Value: "9"},
	)
	for _, f := range o.Header {
		h.add(f)
	}
	return h
}

// State is the writer's lifecycle state.
type State uint8

// Writer states, in lifecycle order.
const (
	StateHeaderOpen State = iota
	StateWriting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateHeaderOpen:
		return "header-open"
	case StateWriting:
		return "writing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Writer accumulates a teehistorian stream in memory.
//
// The header can be modified until the first chunk is written or output
// is produced. Close appends the terminating Eos chunk.
type Writer struct {
	o *WriterOptions

	header *Header
	frame  []byte // magic, header and terminator, once finalized
	buf    []byte // encoded chunks

	state State
	count int
	last  Kind
}

// NewWriter returns a Writer.
func NewWriter(o *WriterOptions) *Writer {
	o = o.norm()
	return &Writer{
		o:      o,
		header: o.defaultHeader(),
	}
}

// State returns the current lifecycle state.
func (w *Writer) State() State { return w.state }

// Header returns the header value stored under key.
func (w *Writer) Header(key string) (string, bool) { return w.header.Get(key) }

// SetHeader sets a header field. It fails with ErrHeaderLocked once writing
// started.
func (w *Writer) SetHeader(key, value string) error {
	if w.state != StateHeaderOpen {
		return ErrHeaderLocked
	}
	w.header.Set(key, value)
	return nil
}

// ReplaceHeader replaces all header fields with a copy of h.
func (w *Writer) ReplaceHeader(h *Header) error {
	if w.state != StateHeaderOpen {
		return ErrHeaderLocked
	}
	w.header = h.Clone()
	return nil
}

// UpdateHeaders sets multiple header fields. New keys are added in sorted
// order.
func (w *Writer) UpdateHeaders(fields map[string]string) error {
	if w.state != StateHeaderOpen {
		return ErrHeaderLocked
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		w.header.Set(k, fields[k])
	}
	return nil
}

// Write appends a chunk. Invalid chunks are rejected with a
// *ValidationError and leave the writer unchanged.
func (w *Writer) Write(c Chunk) error {
	if w.state == StateClosed {
		return ErrWriterClosed
	}
	if err := w.validate(c); err != nil {
		return err
	}

	n := len(w.buf)
	buf, err := c.appendTo(w.buf)
	if err != nil {
		w.buf = buf[:n]
		return err
	}
	w.buf = buf

	w.finalize()
	w.count++
	w.last = c.Kind()
	return nil
}

// WriteAll appends chunks in order and stops at the first error.
func (w *Writer) WriteAll(chunks ...Chunk) error {
	for _, c := range chunks {
		if err := w.Write(c); err != nil {
			return err
		}
	}
	return nil
}

// Close terminates the stream with an Eos chunk, unless the last chunk
// written was already Eos.
func (w *Writer) Close() error {
	if w.state == StateClosed {
		return ErrWriterClosed
	}

	w.finalize()
	if w.last != KindEos {
		w.buf, _ = Eos{}.appendTo(w.buf)
		w.count++
		w.last = KindEos
	}
	w.state = StateClosed
	return nil
}

// Reset discards all chunks and header changes and reopens the writer.
func (w *Writer) Reset() {
	w.header = w.o.defaultHeader()
	w.frame = nil
	w.buf = w.buf[:0]
	w.state = StateHeaderOpen
	w.count = 0
	w.last = kindNone
}

// Bytes returns a copy of the encoded stream.
func (w *Writer) Bytes() []byte {
	w.finalize()

	out := make([]byte, 0, len(w.frame)+len(w.buf))
	out = append(out, w.frame...)
	return append(out, w.buf...)
}

// WriteTo writes the encoded stream to dst.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	w.finalize()

	n, err := dst.Write(w.frame)
	if err != nil {
		return int64(n), err
	}
	m, err := dst.Write(w.buf)
	return int64(n + m), err
}

// Size returns the length of the encoded stream.
func (w *Writer) Size() int {
	if w.frame != nil {
		return len(w.frame) + len(w.buf)
	}
	return 16 + len(w.header.encode()) + 1 + len(w.buf)
}

// IsEmpty returns true if no chunk was written.
func (w *Writer) IsEmpty() bool { return w.count == 0 }

// ChunkCount returns the number of chunks written, including Eos.
func (w *Writer) ChunkCount() int { return w.count }

func (w *Writer) validate(c Chunk) error {
	if c == nil {
		return newValidationError("nil chunk")
	}
	if cid, ok := ClientIDOf(c); ok && (cid < 0 || int(cid) >= w.o.MaxClients) {
		return newValidationError("%s client id %d out of range [0, %d)", c.Kind(), cid, w.o.MaxClients)
	}
	return nil
}

// finalize serializes the header into the frame once and locks it.
func (w *Writer) finalize() {
	if w.frame != nil {
		return
	}

	js := w.header.encode()
	frame := make([]byte, 0, 16+len(js)+1)
	frame = append(frame, Magic[:]...)
	frame = append(frame, js...)
	w.frame = append(frame, 0)

	if w.state == StateHeaderOpen {
		w.state = StateWriting
	}
}

// --------------------------------------------------------------------

// Record runs fn on a new writer, closes it and writes the stream to sink.
// The writer is closed on every path; nothing is written if fn fails.
func Record(sink io.Writer, o *WriterOptions, fn func(*Writer) error) error {
	w := NewWriter(o)
	defer func() { _ = w.Close() }()

	if err := fn(w); err != nil {
		return err
	}
	if w.state != StateClosed {
		if err := w.Close(); err != nil {
			return err
		}
	}

	_, err := w.WriteTo(sink)
	return err
}
