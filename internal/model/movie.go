package model

import "time"

// Movie is a catalog entry for a film that can be scheduled into
// sessions.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – movie title.
//  DurationMin – running time in minutes.
//  CreatedAt   – creation timestamp.
type Movie struct {
	ID          uint64    // movies.id
	Title       string    // movies.title
	DurationMin uint32    // movies.duration_min
	CreatedAt   time.Time // movies.created_at
}
