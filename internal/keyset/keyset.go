// Package keyset parses and serializes comma-separated CAN ID filter
// expressions, as typed into the web view's filter box.
package keyset

import (
	"sort"
	"strconv"
	"strings"
)

// Set is a deduplicated collection of CAN IDs.
type Set map[uint32]struct{}

// Parse extracts a Set from a comma-separated list of hexadecimal IDs,
// e.g. "0x123, 456,7ff". Tokens are trimmed and lowercased, an optional
// 0x prefix is stripped, and the remainder is parsed base-16 (CAN IDs are
// conventionally written in hex).
//
// Malformed tokens - empty after trimming, non-hex, out of uint32 range -
// are silently discarded: a partially valid input yields a partial but
// valid set. Empty input yields an empty Set; whether that means "no
// filter" or "match nothing" is the caller's contract, not this package's.
func Parse(raw string) Set {
	set := make(Set)
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		tok = strings.TrimPrefix(tok, "0x")
		if tok == "" {
			continue
		}
		id, err := strconv.ParseUint(tok, 16, 32)
		if err != nil {
			continue
		}
		set[uint32(id)] = struct{}{}
	}
	return set
}

// Format serializes the set as a comma-separated hex list in ascending ID
// order: "0x10,0x123,0x7ff". Parse(Format(s)) recovers s exactly.
func Format(s Set) string {
	ids := s.IDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "0x" + strconv.FormatUint(uint64(id), 16)
	}
	return strings.Join(parts, ",")
}

// Contains reports whether id is in the set.
func (s Set) Contains(id uint32) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the members in ascending order.
func (s Set) IDs() []uint32 {
	ids := make([]uint32, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
