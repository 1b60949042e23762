package main

import (
	"strings"
)

const defaultRecentlyPlayedLimit = 5

type Service interface {
	SetCurrentTrack(meta TrackMetadata) (*Track, error)
	GetCurrentTrack() (*NowPlaying, error)
	GetRecentlyPlayed(limit int64) ([]Track, error)
	BackfillTrack(meta TrackMetadata) error
	SubmitRating(trackID int64, userID string, ratingType int) (*RatingCounts, error)
	GetRatingStatus(trackID int64, userID string) (*RatingStatus, error)
	GetAggregateCounts(trackID int64) (*RatingCounts, error)
	Ping() error
	close()
}

type ServiceImpl struct {
	trackRepo  TrackRepository
	ratingRepo RatingRepository
}

// SetCurrentTrack rotates the station to a new track. Every call inserts a
// fresh track row; deduplicating repeated metadata is the caller's job.
func (s *ServiceImpl) SetCurrentTrack(meta TrackMetadata) (*Track, error) {
	meta.Artist = strings.TrimSpace(meta.Artist)
	meta.Title = strings.TrimSpace(meta.Title)
	if meta.Artist == "" {
		return nil, validationErr("artist is required")
	}
	if meta.Title == "" {
		return nil, validationErr("title is required")
	}
	return s.trackRepo.RotateTo(meta)
}

func (s *ServiceImpl) GetCurrentTrack() (*NowPlaying, error) {
	return s.trackRepo.CurrentTrack()
}

func (s *ServiceImpl) GetRecentlyPlayed(limit int64) ([]Track, error) {
	if limit <= 0 {
		limit = defaultRecentlyPlayedLimit
	}
	return s.trackRepo.RecentlyPlayed(limit)
}

func (s *ServiceImpl) BackfillTrack(meta TrackMetadata) error {
	meta.Artist = strings.TrimSpace(meta.Artist)
	meta.Title = strings.TrimSpace(meta.Title)
	if meta.Artist == "" || meta.Title == "" {
		return validationErr("artist and title are required")
	}
	return s.trackRepo.BackfillTrack(meta)
}

// SubmitRating records one vote and returns the recomputed counts. Duplicate
// submissions for the same (track, user) pair fail with ErrDuplicateRating;
// the unique constraint in storage settles concurrent races.
func (s *ServiceImpl) SubmitRating(trackID int64, userID string, ratingType int) (*RatingCounts, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, validationErr("user_id is required")
	}
	if ratingType != 1 && ratingType != -1 {
		return nil, validationErr("rating_type must be 1 (thumbs up) or -1 (thumbs down)")
	}

	exists, err := s.trackRepo.TrackExists(trackID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrTrackNotFound
	}

	if err := s.ratingRepo.InsertRating(trackID, userID, ratingType); err != nil {
		return nil, err
	}
	return s.ratingRepo.CountRatings(trackID)
}

func (s *ServiceImpl) GetRatingStatus(trackID int64, userID string) (*RatingStatus, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, validationErr("user_id is required")
	}

	exists, err := s.trackRepo.TrackExists(trackID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrTrackNotFound
	}

	rating, err := s.ratingRepo.RatingFor(trackID, userID)
	if err != nil {
		return nil, err
	}
	if rating == nil {
		return &RatingStatus{HasRated: false, RatingType: nil}, nil
	}
	return &RatingStatus{HasRated: true, RatingType: &rating.RatingType}, nil
}

func (s *ServiceImpl) GetAggregateCounts(trackID int64) (*RatingCounts, error) {
	exists, err := s.trackRepo.TrackExists(trackID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrTrackNotFound
	}
	return s.ratingRepo.CountRatings(trackID)
}

func (s *ServiceImpl) Ping() error {
	return s.trackRepo.Ping()
}

func (s *ServiceImpl) close() {
	s.trackRepo.close()
	s.ratingRepo.close()
}
