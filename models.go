// this file defines the data structures used throughout
package main

import "time"

type Track struct {
	ID          int64     `json:"id" db:"id"`
	Artist      string    `json:"artist" db:"artist"`
	Title       string    `json:"title" db:"title"`
	Album       string    `json:"album" db:"album"`
	Year        *int64    `json:"year" db:"year"`
	AlbumArtURL string    `json:"album_art_url" db:"album_art_url"`
	PlayedAt    time.Time `json:"played_at" db:"played_at"`
	IsCurrent   bool      `json:"is_current" db:"is_current"`
}

// NowPlaying is the current track joined with its aggregate rating counts.
type NowPlaying struct {
	Track
	ThumbsUp   int64 `json:"thumbs_up" db:"thumbs_up"`
	ThumbsDown int64 `json:"thumbs_down" db:"thumbs_down"`
}

// TrackMetadata is the caller-supplied description of a track.
// Artist and title are required, the rest is optional.
type TrackMetadata struct {
	Artist      string `json:"artist"`
	Title       string `json:"title"`
	Album       string `json:"album"`
	Year        *int64 `json:"year"`
	AlbumArtURL string `json:"album_art_url"`
}

type Rating struct {
	ID         int64     `json:"id" db:"id"`
	TrackID    int64     `json:"track_id" db:"track_id"`
	UserID     string    `json:"user_id" db:"user_id"`
	RatingType int       `json:"rating_type" db:"rating_type"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type RatingCounts struct {
	ThumbsUp   int64 `json:"thumbs_up" db:"thumbs_up"`
	ThumbsDown int64 `json:"thumbs_down" db:"thumbs_down"`
}

// RatingStatus reports whether a user has already rated a track.
// RatingType is nil when HasRated is false.
type RatingStatus struct {
	HasRated   bool `json:"has_rated"`
	RatingType *int `json:"rating_type"`
}
