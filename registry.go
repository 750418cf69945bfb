package teehistorian

import (
	"sort"

	"github.com/google/uuid"
)

// Registry maps extension UUIDs to handler names. Extensions with a
// registered UUID decode to CustomChunk. The zero value is not usable, use
// NewRegistry.
type Registry struct {
	entries map[uuid.UUID]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[uuid.UUID]string)}
}

// Register adds or replaces an entry. The UUID must be in canonical
// 8-4-4-4-12 form; case is ignored.
func (r *Registry) Register(id, name string) error {
	u, err := ParseUUID(id)
	if err != nil {
		return err
	}
	r.entries[u] = name
	return nil
}

// Lookup returns the handler name registered for id.
func (r *Registry) Lookup(id uuid.UUID) (string, bool) {
	if r == nil {
		return "", false
	}
	name, ok := r.entries[id]
	return name, ok
}

// Registered returns the sorted canonical UUIDs of all entries.
func (r *Registry) Registered() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.entries))
	for u := range r.entries {
		ids = append(ids, u.String())
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Clone returns an independent copy of r.
func (r *Registry) Clone() *Registry {
	c := NewRegistry()
	if r != nil {
		for u, name := range r.entries {
			c.entries[u] = name
		}
	}
	return c
}
