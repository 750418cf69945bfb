package teehistorian

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
)

// ReaderOptions define reader specific options.
type ReaderOptions struct {
	// Registry seeds the reader's registry. It is cloned, later changes to
	// it do not affect the reader.
	// Default: empty.
	Registry *Registry

	// Logger receives debug messages about degraded extension records.
	// Default: discard.
	Logger log.Logger
}

func (o *ReaderOptions) norm() *ReaderOptions {
	var oo ReaderOptions
	if o != nil {
		oo = *o
	}

	oo.Registry = oo.Registry.Clone()
	if oo.Logger == nil {
		oo.Logger = log.NewNopLogger()
	}

	return &oo
}

// End describes how a stream ended.
type End uint8

// End states.
const (
	// EndNone is reported while the stream has not ended.
	EndNone End = iota
	// EndEos is reported after an Eos chunk was read.
	EndEos
	// EndExhausted is reported when the buffer ran out without an Eos.
	EndExhausted
)

func (e End) String() string {
	switch e {
	case EndEos:
		return "eos"
	case EndExhausted:
		return "exhausted"
	}
	return "none"
}

// Reader decodes chunks from an in-memory teehistorian stream. Readers are
// forward-only; create a new one to parse again.
type Reader struct {
	buf    decbuf
	header *Header
	raw    []byte // raw header JSON
	hsize  int    // offset of the first chunk

	reg    *Registry
	logger log.Logger

	chunk Chunk
	count int
	end   End
	err   error
}

// NewReader validates the stream header of data and returns a Reader
// positioned at the first chunk. data must not be modified while the
// reader is in use.
func NewReader(data []byte, o *ReaderOptions) (*Reader, error) {
	if len(data) == 0 {
		return nil, newValidationError("empty buffer")
	}
	if len(data) < minHeaderSize {
		return nil, newValidationError("buffer too short: %d bytes, want at least %d", len(data), minHeaderSize)
	}
	if !bytes.Equal(data[:16], Magic[:]) {
		return nil, newValidationError("bad magic %x", data[:16])
	}

	n := bytes.IndexByte(data[16:], 0)
	if n < 0 {
		return nil, newValidationError("header is not NUL-terminated")
	}
	raw := data[16 : 16+n]

	header, err := ParseHeader(raw)
	if err != nil {
		return nil, err
	}

	o = o.norm()
	hsize := 16 + n + 1
	return &Reader{
		buf:    decbuf{b: data, pos: hsize},
		header: header,
		raw:    raw,
		hsize:  hsize,
		reg:    o.Registry,
		logger: o.Logger,
	}, nil
}

// RawHeader returns the undecoded header JSON.
func (r *Reader) RawHeader() []byte { return r.raw }

// Header returns a copy of the parsed header.
func (r *Reader) Header() *Header { return r.header.Clone() }

// HeaderSize returns the byte offset of the first chunk.
func (r *Reader) HeaderSize() int { return r.hsize }

// Register adds an extension handler. It applies to chunks read afterwards.
func (r *Reader) Register(id, name string) error { return r.reg.Register(id, name) }

// Offset returns the current cursor position.
func (r *Reader) Offset() int { return r.buf.pos }

// ChunkCount returns the number of successfully decoded chunks.
func (r *Reader) ChunkCount() int { return r.count }

// End reports how the stream ended, EndNone if it has not.
func (r *Reader) End() End { return r.end }

// Trailing returns the number of unread bytes after an Eos chunk.
func (r *Reader) Trailing() int {
	if r.end != EndEos {
		return 0
	}
	return r.buf.remaining()
}

// ReadChunk decodes the next chunk. It returns io.EOF once the stream
// ended. Decode errors are of type *ParseError and are returned again by
// every subsequent call.
func (r *Reader) ReadChunk() (Chunk, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.end != EndNone {
		return nil, io.EOF
	}
	if !r.buf.more() {
		r.end = EndExhausted
		return nil, io.EOF
	}

	start := r.buf.pos
	tag, err := r.buf.int()
	if err != nil {
		return nil, r.fail(start, 0, err)
	}

	c, err := r.decode(start, tag)
	if err != nil {
		return nil, r.fail(start, tag, err)
	}

	r.count++
	if c.Kind() == KindEos {
		r.end = EndEos
	}
	return c, nil
}

// ReadAll reads all remaining chunks.
func (r *Reader) ReadAll() ([]Chunk, error) {
	var chunks []Chunk
	for {
		c, err := r.ReadChunk()
		if err == io.EOF {
			return chunks, nil
		} else if err != nil {
			return chunks, err
		}
		chunks = append(chunks, c)
	}
}

// Next advances the cursor to the next chunk and returns true if
// successful.
func (r *Reader) Next() bool {
	r.chunk, _ = r.ReadChunk()
	return r.chunk != nil
}

// Chunk returns the current chunk.
func (r *Reader) Chunk() Chunk { return r.chunk }

// Err exposes decode errors, if any.
func (r *Reader) Err() error { return r.err }

func (r *Reader) fail(offset int, tag int32, err error) error {
	r.err = &ParseError{Offset: offset, Tag: tag, Err: err}
	return r.err
}

func (r *Reader) decode(start int, tag int32) (Chunk, error) {
	d := &r.buf
	if tag >= 0 {
		c := PlayerDiff{ClientID: tag}
		var err error
		if c.DX, err = d.int(); err != nil {
			return nil, err
		}
		if c.DY, err = d.int(); err != nil {
			return nil, err
		}
		return c, nil
	}

	switch tag {
	case tagEos:
		return Eos{}, nil
	case tagTickSkip:
		dt, err := d.int()
		return TickSkip{DT: dt}, err
	case tagPlayerNew:
		var v [3]int32
		if err := d.ints(v[:]); err != nil {
			return nil, err
		}
		return PlayerNew{ClientID: v[0], X: v[1], Y: v[2]}, nil
	case tagPlayerOld:
		cid, err := d.int()
		return PlayerOld{ClientID: cid}, err
	case tagInputDiff:
		c := InputDiff{}
		var err error
		if c.ClientID, err = d.int(); err != nil {
			return nil, err
		}
		if err = d.ints(c.Input[:]); err != nil {
			return nil, err
		}
		return c, nil
	case tagInputNew:
		c := InputNew{}
		var err error
		if c.ClientID, err = d.int(); err != nil {
			return nil, err
		}
		if err = d.ints(c.Input[:]); err != nil {
			return nil, err
		}
		return c, nil
	case tagNetMessage:
		cid, err := d.int()
		if err != nil {
			return nil, err
		}
		msg, err := d.lenBytes()
		return NetMessage{ClientID: cid, Msg: msg}, err
	case tagJoin:
		cid, err := d.int()
		return Join{ClientID: cid}, err
	case tagDrop:
		cid, err := d.int()
		if err != nil {
			return nil, err
		}
		reason, err := d.str()
		return Drop{ClientID: cid, Reason: reason}, err
	case tagConsoleCommand:
		return decodeConsoleCommand(d)
	case tagEx:
		return r.decodeEx(start)
	}
	return nil, errUnknownTag
}

func decodeConsoleCommand(d *decbuf) (Chunk, error) {
	var v [2]int32
	if err := d.ints(v[:]); err != nil {
		return nil, err
	}
	cmd, err := d.str()
	if err != nil {
		return nil, err
	}
	numArgs, err := d.int()
	if err != nil {
		return nil, err
	}
	if numArgs < 0 {
		return nil, ErrNegativeLength
	}

	c := ConsoleCommand{ClientID: v[0], Flags: v[1], Cmd: cmd}
	for i := int32(0); i < numArgs; i++ {
		arg, err := d.str()
		if err != nil {
			return nil, err
		}
		c.Args = append(c.Args, arg)
	}
	return c, nil
}

func (r *Reader) decodeEx(start int) (Chunk, error) {
	u, err := r.buf.uuid()
	if err != nil {
		return nil, err
	}
	data, err := r.buf.lenBytes()
	if err != nil {
		return nil, err
	}

	if name, ok := r.reg.Lookup(u); ok {
		return CustomChunk{UUID: u, Data: data, HandlerName: name}, nil
	}

	ex, ok := extensions[u]
	if !ok {
		return Unknown{UUID: u, Data: data}, nil
	}

	d := &decbuf{b: data}
	c, err := ex.decode(d)
	if err == nil && d.more() {
		err = errTrailingData
	}
	if err != nil {
		desc := fmt.Sprintf("%s: %v", ex.kind, err)
		level.Debug(r.logger).Log("msg", "degraded extension chunk", "kind", ex.kind, "uuid", u, "offset", start, "err", err)
		return Generic{UUID: u, Data: data, Description: desc}, nil
	}
	return c, nil
}

// --------------------------------------------------------------------

type extension struct {
	kind   Kind
	decode func(*decbuf) (Chunk, error)
}

var extensions = map[uuid.UUID]extension{
	UUIDJoinVer6: {KindJoinVer6, func(d *decbuf) (Chunk, error) {
		cid, err := d.int()
		return JoinVer6{ClientID: cid}, err
	}},
	UUIDJoinVer7: {KindJoinVer7, func(d *decbuf) (Chunk, error) {
		cid, err := d.int()
		return JoinVer7{ClientID: cid}, err
	}},
	UUIDRejoinVer6: {KindRejoinVer6, func(d *decbuf) (Chunk, error) {
		cid, err := d.int()
		return RejoinVer6{ClientID: cid}, err
	}},
	UUIDPlayerReady: {KindPlayerReady, func(d *decbuf) (Chunk, error) {
		cid, err := d.int()
		return PlayerReady{ClientID: cid}, err
	}},
	UUIDPlayerTeam: {KindPlayerTeam, func(d *decbuf) (Chunk, error) {
		var v [2]int32
		err := d.ints(v[:])
		return PlayerTeam{ClientID: v[0], Team: v[1]}, err
	}},
	UUIDPlayerName: {KindPlayerName, func(d *decbuf) (Chunk, error) {
		cid, err := d.int()
		if err != nil {
			return nil, err
		}
		name, err := d.str()
		return PlayerName{ClientID: cid, Name: name}, err
	}},
	UUIDAuthInit: {KindAuthInit, func(d *decbuf) (Chunk, error) {
		cid, lvl, name, err := decodeAuth(d)
		return AuthInit{ClientID: cid, Level: lvl, AuthName: name}, err
	}},
	UUIDAuthLogin: {KindAuthLogin, func(d *decbuf) (Chunk, error) {
		cid, lvl, name, err := decodeAuth(d)
		return AuthLogin{ClientID: cid, Level: lvl, AuthName: name}, err
	}},
	UUIDAuthLogout: {KindAuthLogout, func(d *decbuf) (Chunk, error) {
		cid, err := d.int()
		return AuthLogout{ClientID: cid}, err
	}},
	UUIDDdnetVersionOld: {KindDdnetVersionOld, func(d *decbuf) (Chunk, error) {
		var v [2]int32
		err := d.ints(v[:])
		return DdnetVersionOld{ClientID: v[0], Version: v[1]}, err
	}},
	UUIDDdnetVersion: {KindDdnetVersion, func(d *decbuf) (Chunk, error) {
		var c DdnetVersion
		var err error
		if c.ClientID, err = d.int(); err != nil {
			return nil, err
		}
		if c.ConnectionID, err = d.uuid(); err != nil {
			return nil, err
		}
		if c.Version, err = d.int(); err != nil {
			return nil, err
		}
		c.VersionStr, err = d.str()
		return c, err
	}},
	UUIDTeamSaveSuccess: {KindTeamSaveSuccess, func(d *decbuf) (Chunk, error) {
		team, id, save, err := decodeTeamSave(d)
		return TeamSaveSuccess{Team: team, SaveID: id, Save: save}, err
	}},
	UUIDTeamSaveFailure: {KindTeamSaveFailure, func(d *decbuf) (Chunk, error) {
		team, err := d.int()
		return TeamSaveFailure{Team: team}, err
	}},
	UUIDTeamLoadSuccess: {KindTeamLoadSuccess, func(d *decbuf) (Chunk, error) {
		team, id, save, err := decodeTeamSave(d)
		return TeamLoadSuccess{Team: team, SaveID: id, Save: save}, err
	}},
	UUIDTeamLoadFailure: {KindTeamLoadFailure, func(d *decbuf) (Chunk, error) {
		team, err := d.int()
		return TeamLoadFailure{Team: team}, err
	}},
	UUIDAntiBot: {KindAntiBot, func(d *decbuf) (Chunk, error) {
		data, err := d.bytes(d.remaining())
		return AntiBot{Data: data}, err
	}},
}

func decodeAuth(d *decbuf) (cid, lvl int32, name string, err error) {
	if cid, err = d.int(); err != nil {
		return
	}
	if lvl, err = d.int(); err != nil {
		return
	}
	name, err = d.str()
	return
}

func decodeTeamSave(d *decbuf) (team int32, id uuid.UUID, save string, err error) {
	if team, err = d.int(); err != nil {
		return
	}
	if id, err = d.uuid(); err != nil {
		return
	}
	save, err = d.str()
	return
}
