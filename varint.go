package teehistorian

import (
	"bytes"
	"io"

	"github.com/google/uuid"
)

// MaxVarintLen32 is the maximum number of bytes a packed int32 occupies.
const MaxVarintLen32 = 5

// AppendInt appends v to dst in packed form and returns the extended slice.
//
// The first byte carries an extend bit, a sign bit and 6 data bits, every
// following byte an extend bit and 7 data bits. Negative values are stored
// as their complement.
func AppendInt(dst []byte, v int32) []byte {
	x := uint32(v)
	b := byte(0)
	if v < 0 {
		b = 0x40
		x = ^x
	}
	b |= byte(x & 0x3f)
	x >>= 6

	for x != 0 {
		dst = append(dst, b|0x80)
		b = byte(x & 0x7f)
		x >>= 7
	}
	return append(dst, b)
}

// IntLen returns the number of bytes needed to pack v.
func IntLen(v int32) int {
	x := uint32(v)
	if v < 0 {
		x = ^x
	}
	n := 1
	for x >>= 6; x != 0; x >>= 7 {
		n++
	}
	return n
}

// Int decodes a packed int from src and returns the value and the number of
// bytes read. If n == 0, src was too short. If n < 0, the encoding was
// overlong and -n bytes were consumed.
func Int(src []byte) (v int32, n int) {
	if len(src) == 0 {
		return 0, 0
	}

	b := src[0]
	sign := uint32(b>>6) & 1
	x := uint32(b & 0x3f)
	n = 1

	for shift := uint(6); b&0x80 != 0; shift += 7 {
		if n == MaxVarintLen32 {
			return 0, -n
		}
		if n >= len(src) {
			return 0, 0
		}

		b = src[n]
		n++

		mask := byte(0x7f)
		if n == MaxVarintLen32 {
			mask = 0x0f
		}
		x |= uint32(b&mask) << shift
	}
	return int32(x ^ -sign), n
}

func appendString(dst []byte, s string) []byte {
	dst = append(dst, s...)
	return append(dst, 0)
}

func appendBytes(dst []byte, p []byte) []byte {
	dst = AppendInt(dst, int32(len(p)))
	return append(dst, p...)
}

func appendUUID(dst []byte, u uuid.UUID) []byte {
	return append(dst, u[:]...)
}

// --------------------------------------------------------------------

// decbuf is a forward-only read cursor over a byte slice.
type decbuf struct {
	b   []byte
	pos int
}

func (d *decbuf) remaining() int { return len(d.b) - d.pos }

func (d *decbuf) more() bool { return d.pos < len(d.b) }

func (d *decbuf) int() (int32, error) {
	v, n := Int(d.b[d.pos:])
	if n == 0 {
		d.pos = len(d.b)
		return 0, io.ErrUnexpectedEOF
	} else if n < 0 {
		d.pos -= n
		return 0, ErrVarintOverlong
	}
	d.pos += n
	return v, nil
}

func (d *decbuf) length() (int, error) {
	v, err := d.int()
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, ErrNegativeLength
	}
	if int(v) > d.remaining() {
		return 0, io.ErrUnexpectedEOF
	}
	return int(v), nil
}

// bytes returns a copy of the next n bytes, nil if n is 0.
func (d *decbuf) bytes(n int) ([]byte, error) {
	if n > d.remaining() {
		d.pos = len(d.b)
		return nil, io.ErrUnexpectedEOF
	} else if n == 0 {
		return nil, nil
	}
	p := make([]byte, n)
	copy(p, d.b[d.pos:])
	d.pos += n
	return p, nil
}

func (d *decbuf) lenBytes() ([]byte, error) {
	n, err := d.length()
	if err != nil {
		return nil, err
	}
	return d.bytes(n)
}

func (d *decbuf) uuid() (uuid.UUID, error) {
	var u uuid.UUID
	if d.remaining() < len(u) {
		d.pos = len(d.b)
		return u, io.ErrUnexpectedEOF
	}
	copy(u[:], d.b[d.pos:])
	d.pos += len(u)
	return u, nil
}

func (d *decbuf) str() (string, error) {
	i := bytes.IndexByte(d.b[d.pos:], 0)
	if i < 0 {
		d.pos = len(d.b)
		return "", errUnterminated
	}
	s := string(d.b[d.pos : d.pos+i])
	d.pos += i + 1
	return s, nil
}

func (d *decbuf) ints(dst []int32) error {
	for i := range dst {
		v, err := d.int()
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}
