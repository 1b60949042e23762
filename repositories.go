package main

type TrackRepository interface {
	// RotateTo demotes the current track, if any, and inserts a new current
	// track in a single transaction.
	RotateTo(meta TrackMetadata) (*Track, error)
	// CurrentTrack returns the current track with its rating counts, or
	// (nil, nil) when rotation has not started.
	CurrentTrack() (*NowPlaying, error)
	RecentlyPlayed(limit int64) ([]Track, error)
	// BackfillTrack inserts a non-current history row unless a track with the
	// same artist and title already exists.
	BackfillTrack(meta TrackMetadata) error
	TrackExists(id int64) (bool, error)
	Ping() error
	close()
}

type RatingRepository interface {
	// InsertRating stores one rating row. Returns ErrDuplicateRating when the
	// (trackID, userID) pair is already rated and ErrTrackNotFound when the
	// track id does not reference a track.
	InsertRating(trackID int64, userID string, ratingType int) error
	// RatingFor returns the user's rating for a track, or (nil, nil) if the
	// user has not rated it.
	RatingFor(trackID int64, userID string) (*Rating, error)
	CountRatings(trackID int64) (*RatingCounts, error)
	close()
}
