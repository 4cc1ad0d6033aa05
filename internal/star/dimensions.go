// Package star builds the analytical star schema: four dimension tables
// projected and de-duplicated from the two input feeds, and the songplays
// fact table joined from events against the persisted song dimension.
package star

import (
	"songlake/internal/transform"
	"songlake/pkg/records"
)

// BuildSongs projects the song dimension from conformed catalog records
// and keeps one row per song_id.
func BuildSongs(catalog []records.Record) []records.Record {
	rows := transform.Project(catalog, []transform.Column{
		transform.Col("song_id"),
		transform.Col("title"),
		transform.Col("artist_id"),
		transform.Col("year"),
		transform.Col("duration"),
	})
	return transform.DeDup{Keys: []string{"song_id"}}.Apply(rows)
}

// BuildArtists projects the artist dimension from conformed catalog
// records, renaming the artist_-prefixed source fields to bare names, and
// keeps one row per artist_id. The geo fields stay nullable.
func BuildArtists(catalog []records.Record) []records.Record {
	rows := transform.Project(catalog, []transform.Column{
		transform.Col("artist_id"),
		{From: "artist_name", As: "name"},
		{From: "artist_location", As: "location"},
		{From: "artist_latitude", As: "latitude"},
		{From: "artist_longitude", As: "longitude"},
	})
	return transform.DeDup{Keys: []string{"artist_id"}}.Apply(rows)
}

// BuildUsers projects the user dimension from filtered events and keeps
// one row per user_id. keep-last means level reflects the last record seen
// for that user in batch order, a valid winner rather than a recency rule;
// the events carry no ordering column that would make "most recent" exact.
func BuildUsers(events []records.Record) []records.Record {
	rows := transform.Project(events, []transform.Column{
		{From: "userId", As: "user_id"},
		{From: "firstName", As: "first_name"},
		{From: "lastName", As: "last_name"},
		transform.Col("gender"),
		transform.Col("level"),
	})
	return transform.DeDup{Keys: []string{"user_id"}, Policy: "keep-last"}.Apply(rows)
}

// BuildTime derives the time dimension from filtered events: one row per
// distinct start_time, with the calendar fields computed purely from the
// timestamp. Events without a usable ts are skipped.
func BuildTime(events []records.Record) []records.Record {
	rows := make([]records.Record, 0, len(events))
	for _, e := range events {
		ms, ok := e.Int64("ts")
		if !ok {
			continue
		}
		p := Decompose(ms)
		rows = append(rows, records.Record{
			"start_time": ms,
			"hour":       p.Hour,
			"day":        p.Day,
			"week":       p.Week,
			"month":      p.Month,
			"year":       p.Year,
			"weekday":    p.Weekday,
		})
	}
	return transform.DeDup{Keys: []string{"start_time"}}.Apply(rows)
}
