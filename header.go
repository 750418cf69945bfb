package teehistorian

import (
	"bytes"

	"github.com/buger/jsonparser"
	jsoniter "github.com/json-iterator/go"
)

var jsonConfig = jsoniter.ConfigCompatibleWithStandardLibrary

// HeaderField is a single header entry.
type HeaderField struct {
	Key   string
	Value string
	// Raw marks Value as JSON text to be emitted unquoted. A raw value that
	// is not valid JSON is emitted as a quoted string.
	Raw bool
}

func (f HeaderField) isRaw() bool {
	return f.Raw && validJSON(f.Value)
}

// validJSON reports whether s is a single JSON value. The trailing space
// lets the validator accept a bare number at the end of input.
func validJSON(s string) bool {
	v := make([]byte, 0, len(s)+1)
	v = append(v, s...)
	return jsonConfig.Valid(append(v, ' '))
}

// isCompound reports whether s holds a JSON object or array.
func isCompound(s string) bool {
	v := bytes.TrimSpace([]byte(s))
	if len(v) == 0 || (v[0] != '{' && v[0] != '[') {
		return false
	}
	return validJSON(s)
}

// Header is the ordered key/value JSON object at the start of a stream.
// Keys keep their insertion order.
type Header struct {
	fields []HeaderField
}

// NewHeader creates a header from fields. Later duplicates replace earlier
// values in place. Fields holding a JSON object or array are marked Raw, as
// with Set.
func NewHeader(fields ...HeaderField) *Header {
	h := new(Header)
	for _, f := range fields {
		h.add(f)
	}
	return h
}

// ParseHeader decodes a JSON object.
func ParseHeader(data []byte) (*Header, error) {
	if !jsonConfig.Valid(data) {
		return nil, newValidationError("header is not valid JSON")
	}

	h := new(Header)
	err := jsonparser.ObjectEach(data, func(key, value []byte, typ jsonparser.ValueType, _ int) error {
		k := string(key)
		if typ == jsonparser.String {
			s, err := jsonparser.ParseString(value)
			if err != nil {
				return err
			}
			h.set(HeaderField{Key: k, Value: s})
			return nil
		}
		h.set(HeaderField{Key: k, Value: string(value), Raw: true})
		return nil
	})
	if err != nil {
		return nil, newValidationError("header is not a JSON object: %v", err)
	}
	return h, nil
}

func (h *Header) index(key string) int {
	for i, f := range h.fields {
		if f.Key == key {
			return i
		}
	}
	return -1
}

func (h *Header) add(f HeaderField) {
	if !f.Raw {
		f.Raw = isCompound(f.Value)
	}
	h.set(f)
}

func (h *Header) set(f HeaderField) {
	if i := h.index(f.Key); i >= 0 {
		h.fields[i] = f
		return
	}
	h.fields = append(h.fields, f)
}

// Get returns the value stored under key.
func (h *Header) Get(key string) (string, bool) {
	if i := h.index(key); i >= 0 {
		return h.fields[i].Value, true
	}
	return "", false
}

// Set stores a value. A value holding a valid JSON object or array is
// stored with Raw set and encoded as raw JSON, the same field a reader
// decodes from it.
func (h *Header) Set(key, value string) {
	h.add(HeaderField{Key: key, Value: value})
}

// SetRaw stores raw JSON text under key.
func (h *Header) SetRaw(key, value string) error {
	if !validJSON(value) {
		return newValidationError("header value for %q is not valid JSON", key)
	}
	h.set(HeaderField{Key: key, Value: value, Raw: true})
	return nil
}

// Len returns the number of fields.
func (h *Header) Len() int { return len(h.fields) }

// Keys returns the keys in order.
func (h *Header) Keys() []string {
	keys := make([]string, 0, len(h.fields))
	for _, f := range h.fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// Fields returns a copy of all fields in order.
func (h *Header) Fields() []HeaderField {
	return append([]HeaderField(nil), h.fields...)
}

// Clone returns a deep copy.
func (h *Header) Clone() *Header {
	return &Header{fields: h.Fields()}
}

// MarshalJSON encodes the header as a compact JSON object.
func (h *Header) MarshalJSON() ([]byte, error) {
	return h.encode(), nil
}

func (h *Header) encode() []byte {
	stream := jsonConfig.BorrowStream(nil)
	defer jsonConfig.ReturnStream(stream)

	stream.WriteObjectStart()
	for i, f := range h.fields {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(f.Key)
		if f.isRaw() {
			stream.WriteRaw(f.Value)
		} else {
			stream.WriteString(f.Value)
		}
	}
	stream.WriteObjectEnd()

	return append([]byte(nil), stream.Buffer()...)
}
