package star

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"songlake/pkg/records"
)

// songRef is the slice of a persisted song row the join needs.
type songRef struct {
	songID   any
	artistID any
}

// BuildSongplays joins filtered events to the persisted song dimension on
// the song title and produces the fact rows. The join is inner: an event
// whose title matches no song is dropped (a defined business rule, the
// returned count exists so callers can report it). Titles are not unique
// in the catalog, so one event may legitimately fan out to several fact
// rows.
//
// songs must be the rows read back from the written song dimension, not
// the in-memory build; the caller owns that sequencing.
func BuildSongplays(events, songs []records.Record, ids *IDAllocator) (facts []records.Record, dropped int) {
	byTitle := make(map[string][]songRef, len(songs))
	for _, s := range songs {
		title, ok := s.String("title")
		if !ok {
			continue
		}
		k := joinKey(title)
		byTitle[k] = append(byTitle[k], songRef{songID: s["song_id"], artistID: s["artist_id"]})
	}

	for _, e := range events {
		title, ok := e.String("song")
		if !ok {
			dropped++
			continue
		}
		matches := byTitle[joinKey(title)]
		if len(matches) == 0 {
			dropped++
			continue
		}

		ms, hasTS := e.Int64("ts")
		var year, month any
		if hasTS {
			p := Decompose(ms)
			year, month = p.Year, p.Month
		}

		for _, m := range matches {
			facts = append(facts, records.Record{
				"songplay_id": ids.Next(),
				"start_time":  e["ts"],
				"year":        year,
				"month":       month,
				"user_id":     e["userId"],
				"level":       e["level"],
				"song_id":     m.songID,
				"artist_id":   m.artistID,
				"session_id":  e["sessionId"],
				"location":    e["location"],
				"user_agent":  e["userAgent"],
			})
		}
	}
	return facts, dropped
}

// joinKey canonicalizes a title for the equality join. NFC plus space
// trimming removes pure encoding variance between the feeds; case remains
// significant, matching the source behavior.
func joinKey(title string) string {
	return norm.NFC.String(strings.TrimSpace(title))
}
