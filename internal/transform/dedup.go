package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"

	"songlake/pkg/records"
)

// DeDup collapses duplicate records by a configured natural key and keeps
// one winner per key.
//
// Policies:
//
//   - "keep-first": keep the earliest occurrence in the batch
//   - "keep-last":  keep the latest occurrence in the batch (default)
//
// The batch order is whatever the readers produced (sorted file-glob
// order, record order within a file). For most dimensions the winner does
// not matter because duplicates carry identical attributes; where it does
// (a user's level changes mid-batch) keep-last is *a* valid winner, not a
// recency guarantee: the input carries no per-record ordering column to
// sort by.
type DeDup struct {
	// Keys are the field names that form the natural key, e.g. ["song_id"].
	Keys []string

	// Policy selects the winner among duplicates.
	Policy string
}

// Apply executes the de-duplication and returns a new slice containing only
// the winning record for each key, ordered by the winner's position in the
// input.
func (d DeDup) Apply(in []records.Record) []records.Record {
	if len(in) == 0 || len(d.Keys) == 0 {
		return in
	}

	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	if policy == "" {
		policy = "keep-last"
	}

	type slot struct {
		rec   records.Record
		index int
	}

	winners := make(map[xxh3.Uint128]slot, len(in))

	for i, r := range in {
		key := d.keyOf(r)
		switch policy {
		case "keep-first":
			if _, exists := winners[key]; !exists {
				winners[key] = slot{rec: r, index: i}
			}
		default: // keep-last
			winners[key] = slot{rec: r, index: i}
		}
	}

	out := make([]records.Record, 0, len(winners))
	slots := make([]slot, 0, len(winners))
	for _, s := range winners {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(a, b int) bool { return slots[a].index < slots[b].index })
	for _, s := range slots {
		out = append(out, s.rec)
	}
	return out
}

// keyOf folds the key fields into a 128-bit hash. Values are rendered
// through a stable textual form with unlikely separators; nil is a
// distinct marker so a null key still groups its duplicates.
func (d DeDup) keyOf(r records.Record) xxh3.Uint128 {
	var b strings.Builder
	for _, k := range d.Keys {
		if b.Len() > 0 {
			b.WriteByte('\x1f')
		}
		switch v := r[k].(type) {
		case nil:
			b.WriteByte('\x00')
		case string:
			b.WriteString(v)
		default:
			fmt.Fprint(&b, v)
		}
	}
	return xxh3.HashString128(b.String())
}
