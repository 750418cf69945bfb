package teehistorian

import (
	"github.com/google/uuid"
)

// teeworldsNamespace is the namespace used to derive well-known UUIDs.
var teeworldsNamespace = uuid.MustParse("e05ddaaa-c4e6-4cfb-b642-5d48e80c0029")

// CalculateUUID derives the UUID for a chunk or message name, the same way
// DDNet does (MD5, version 3, in the Teeworlds namespace).
func CalculateUUID(name string) uuid.UUID {
	return uuid.NewMD5(teeworldsNamespace, []byte(name))
}

// ParseUUID parses a UUID in canonical 8-4-4-4-12 hex form. Hex digits may
// be upper or lower case. Other forms accepted by uuid.Parse (URN, braces,
// no dashes) are rejected.
func ParseUUID(s string) (uuid.UUID, error) {
	if len(s) != 36 || s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
		return uuid.Nil, newValidationError("invalid uuid %q, want 8-4-4-4-12 hex format", s)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, newValidationError("invalid uuid %q: %v", s, err)
	}
	return u, nil
}

// FormatUUID formats 16 raw bytes as a canonical lower-hex UUID string.
func FormatUUID(p []byte) (string, error) {
	u, err := uuid.FromBytes(p)
	if err != nil {
		return "", newValidationError("invalid uuid bytes: want 16, got %d", len(p))
	}
	return u.String(), nil
}
