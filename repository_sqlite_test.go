package main

import (
	"errors"
	"path/filepath"
	"testing"
)

func setupTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(repo.close)
	return repo
}

func mustRotate(t *testing.T, repo *SQLiteRepository, artist, title string) *Track {
	t.Helper()
	track, err := repo.RotateTo(TrackMetadata{Artist: artist, Title: title})
	if err != nil {
		t.Fatalf("RotateTo failed: %v", err)
	}
	return track
}

func TestCurrentTrackEmpty(t *testing.T) {
	repo := setupTestRepo(t)

	np, err := repo.CurrentTrack()
	if err != nil {
		t.Fatalf("CurrentTrack failed: %v", err)
	}
	if np != nil {
		t.Errorf("expected no current track, got %+v", np)
	}
}

func TestRotateToSingleCurrent(t *testing.T) {
	repo := setupTestRepo(t)

	mustRotate(t, repo, "The Beatles", "Come Together")
	mustRotate(t, repo, "Fleetwood Mac", "Dreams")
	last := mustRotate(t, repo, "Prince", "When Doves Cry")

	var currentCount int
	if err := repo.db.Get(&currentCount, `select count(*) from tracks where is_current = 1`); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if currentCount != 1 {
		t.Errorf("expected exactly 1 current track, got %d", currentCount)
	}

	np, err := repo.CurrentTrack()
	if err != nil {
		t.Fatalf("CurrentTrack failed: %v", err)
	}
	if np == nil || np.ID != last.ID {
		t.Errorf("current track is not the most recently rotated one: %+v", np)
	}
	if np.Artist != "Prince" || np.Title != "When Doves Cry" {
		t.Errorf("unexpected current track %s - %s", np.Artist, np.Title)
	}
}

func TestRecentlyPlayedOrderAndExclusion(t *testing.T) {
	repo := setupTestRepo(t)

	mustRotate(t, repo, "Etta James", "I'd Rather Go Blind")
	mustRotate(t, repo, "Queen", "Bohemian Rhapsody")
	current := mustRotate(t, repo, "David Bowie", "Heroes")

	tracks, err := repo.RecentlyPlayed(5)
	if err != nil {
		t.Fatalf("RecentlyPlayed failed: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 history tracks, got %d", len(tracks))
	}
	for _, track := range tracks {
		if track.ID == current.ID {
			t.Errorf("recently played includes the current track")
		}
	}

	// newest first
	if tracks[0].Title != "Bohemian Rhapsody" || tracks[1].Title != "I'd Rather Go Blind" {
		t.Errorf("unexpected order: %s, %s", tracks[0].Title, tracks[1].Title)
	}

	limited, err := repo.RecentlyPlayed(1)
	if err != nil {
		t.Fatalf("RecentlyPlayed failed: %v", err)
	}
	if len(limited) != 1 || limited[0].Title != "Bohemian Rhapsody" {
		t.Errorf("limit not applied, got %d tracks", len(limited))
	}
}

func TestInsertRatingDuplicate(t *testing.T) {
	repo := setupTestRepo(t)
	track := mustRotate(t, repo, "Madonna", "Like a Prayer")

	if err := repo.InsertRating(track.ID, "u1", 1); err != nil {
		t.Fatalf("first rating failed: %v", err)
	}

	err := repo.InsertRating(track.ID, "u1", 1)
	if !errors.Is(err, ErrDuplicateRating) {
		t.Errorf("expected ErrDuplicateRating, got %v", err)
	}

	// the retry value must not matter
	err = repo.InsertRating(track.ID, "u1", -1)
	if !errors.Is(err, ErrDuplicateRating) {
		t.Errorf("expected ErrDuplicateRating on opposite vote, got %v", err)
	}

	var ratingCount int
	if err := repo.db.Get(&ratingCount, `select count(*) from ratings where track_id = ?`, track.ID); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if ratingCount != 1 {
		t.Errorf("expected exactly 1 rating row, got %d", ratingCount)
	}
}

func TestInsertRatingUnknownTrack(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.InsertRating(99999, "u1", 1)
	if !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("expected ErrTrackNotFound, got %v", err)
	}
}

func TestCountRatingsEmpty(t *testing.T) {
	repo := setupTestRepo(t)
	track := mustRotate(t, repo, "Michael Jackson", "Billie Jean")

	counts, err := repo.CountRatings(track.ID)
	if err != nil {
		t.Fatalf("CountRatings failed: %v", err)
	}
	if counts.ThumbsUp != 0 || counts.ThumbsDown != 0 {
		t.Errorf("expected {0, 0}, got {%d, %d}", counts.ThumbsUp, counts.ThumbsDown)
	}
}

func TestRatingForMissing(t *testing.T) {
	repo := setupTestRepo(t)
	track := mustRotate(t, repo, "Stevie Wonder", "Superstition")

	rating, err := repo.RatingFor(track.ID, "nobody")
	if err != nil {
		t.Fatalf("RatingFor failed: %v", err)
	}
	if rating != nil {
		t.Errorf("expected nil rating, got %+v", rating)
	}
}

func TestBackfillTrackIdempotent(t *testing.T) {
	repo := setupTestRepo(t)
	mustRotate(t, repo, "TLC", "Ain't 2 Proud 2 Beg")

	meta := TrackMetadata{Artist: "Whitney Houston", Title: "I Wanna Dance with Somebody"}
	if err := repo.BackfillTrack(meta); err != nil {
		t.Fatalf("BackfillTrack failed: %v", err)
	}
	if err := repo.BackfillTrack(meta); err != nil {
		t.Fatalf("second BackfillTrack failed: %v", err)
	}

	var count int
	if err := repo.db.Get(&count,
		`select count(*) from tracks where artist = ? and title = ?`,
		meta.Artist, meta.Title); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 backfilled row, got %d", count)
	}

	// backfilled tracks join history, not the current slot
	np, err := repo.CurrentTrack()
	if err != nil {
		t.Fatalf("CurrentTrack failed: %v", err)
	}
	if np.Artist != "TLC" {
		t.Errorf("backfill displaced the current track: %+v", np)
	}
}

func TestTrackExists(t *testing.T) {
	repo := setupTestRepo(t)
	track := mustRotate(t, repo, "Mick Jagger", "Just Another Night")

	exists, err := repo.TrackExists(track.ID)
	if err != nil {
		t.Fatalf("TrackExists failed: %v", err)
	}
	if !exists {
		t.Errorf("expected track %d to exist", track.ID)
	}

	exists, err = repo.TrackExists(99999)
	if err != nil {
		t.Fatalf("TrackExists failed: %v", err)
	}
	if exists {
		t.Errorf("expected track 99999 to not exist")
	}
}
