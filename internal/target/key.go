package target

import (
	"cmp"
	"slices"
)

// Key identifies one timeline within one tenant.
type Key struct {
	TenantID   string `json:"tenant_id"`
	TimelineID string `json:"timeline_id"`
}

// NewKey returns the key for the given tenant and timeline.
func NewKey(tenantID, timelineID string) Key {
	return Key{TenantID: tenantID, TimelineID: timelineID}
}

func (k Key) String() string {
	return k.TenantID + "/" + k.TimelineID
}

// Set is a set of keys.
type Set map[Key]struct{}

// NewSet returns a set holding the given keys.
func NewSet(keys ...Key) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts k into the set.
func (s Set) Add(k Key) {
	s[k] = struct{}{}
}

// Has reports whether k is in the set.
func (s Set) Has(k Key) bool {
	_, ok := s[k]
	return ok
}

// Len returns the number of keys in the set.
func (s Set) Len() int {
	return len(s)
}

// Difference returns the keys of s that are not in other.
func (s Set) Difference(other Set) Set {
	out := make(Set)
	for k := range s {
		if !other.Has(k) {
			out.Add(k)
		}
	}
	return out
}

// Keys returns the keys ordered by tenant, then timeline.
func (s Set) Keys() []Key {
	keys := make([]Key, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	SortKeys(keys)
	return keys
}

// SortKeys orders keys by tenant, then timeline.
func SortKeys(keys []Key) {
	slices.SortFunc(keys, func(a, b Key) int {
		return cmp.Or(cmp.Compare(a.TenantID, b.TenantID), cmp.Compare(a.TimelineID, b.TimelineID))
	})
}
