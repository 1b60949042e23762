package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sqlx.DB
}

func NewSQLiteRepository(filePath string) (*SQLiteRepository, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", filePath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	// WAL mode lets readers proceed while a rotation commits.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// make sure the required tables exist
	// if not then create them
	schema := `
	  create table if not exists tracks (
		id integer primary key autoincrement,
		artist text not null,
		title text not null,
		album text,
		year integer,
		album_art_url text,
		played_at timestamp default current_timestamp,
		is_current boolean default 0
	  );
	  create index if not exists idx_tracks_played_at on tracks(played_at);

	  create table if not exists ratings (
		id integer primary key autoincrement,
		track_id integer not null,
		user_id text not null,
		rating_type integer not null,
		created_at timestamp default current_timestamp,
		foreign key (track_id) references tracks (id),
		unique (track_id, user_id)
	  );
	  create index if not exists idx_ratings_track ON ratings(track_id);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Println("connected to sqlite database at", filePath)
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) RotateTo(meta TrackMetadata) (*Track, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`update tracks set is_current = 0 where is_current = 1`); err != nil {
		return nil, err
	}

	playedAt := time.Now().UTC()
	res, err := tx.Exec(`
	  insert into tracks (artist, title, album, year, album_art_url, played_at, is_current)
	  values (?, ?, ?, ?, ?, ?, 1)`,
		meta.Artist, meta.Title, meta.Album, meta.Year, meta.AlbumArtURL, playedAt)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &Track{
		ID:          id,
		Artist:      meta.Artist,
		Title:       meta.Title,
		Album:       meta.Album,
		Year:        meta.Year,
		AlbumArtURL: meta.AlbumArtURL,
		PlayedAt:    playedAt,
		IsCurrent:   true,
	}, nil
}

func (r *SQLiteRepository) CurrentTrack() (*NowPlaying, error) {
	query := `
	  select t.id, t.artist, t.title, coalesce(t.album, '') as album, t.year,
		coalesce(t.album_art_url, '') as album_art_url, t.played_at, t.is_current,
		coalesce((select sum(case when rating_type = 1 then 1 else 0 end)
				  from ratings where track_id = t.id), 0) as thumbs_up,
		coalesce((select sum(case when rating_type = -1 then 1 else 0 end)
				  from ratings where track_id = t.id), 0) as thumbs_down
	  from tracks as t
	  where t.is_current = 1
	  limit 1;`

	np := NowPlaying{}
	err := r.db.Get(&np, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &np, nil
}

func (r *SQLiteRepository) RecentlyPlayed(limit int64) ([]Track, error) {
	query := `
	  select id, artist, title, coalesce(album, '') as album, year,
		coalesce(album_art_url, '') as album_art_url, played_at, is_current
	  from tracks
	  where is_current = 0
	  order by played_at desc, id desc
	  limit ?;`

	tracks := make([]Track, 0)
	if err := r.db.Select(&tracks, query, limit); err != nil {
		return nil, err
	}
	return tracks, nil
}

func (r *SQLiteRepository) BackfillTrack(meta TrackMetadata) error {
	var exists bool
	err := r.db.Get(&exists,
		`select exists(select 1 from tracks where artist = ? and title = ?)`,
		meta.Artist, meta.Title)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = r.db.Exec(`
	  insert into tracks (artist, title, album, year, album_art_url, played_at, is_current)
	  values (?, ?, ?, ?, ?, ?, 0)`,
		meta.Artist, meta.Title, meta.Album, meta.Year, meta.AlbumArtURL, time.Now().UTC())
	return err
}

func (r *SQLiteRepository) TrackExists(id int64) (bool, error) {
	var exists bool
	err := r.db.Get(&exists, `select exists(select 1 from tracks where id = ?)`, id)
	return exists, err
}

func (r *SQLiteRepository) InsertRating(trackID int64, userID string, ratingType int) error {
	_, err := r.db.Exec(`
	  insert into ratings (track_id, user_id, rating_type, created_at)
	  values (?, ?, ?, ?)`,
		trackID, userID, ratingType, time.Now().UTC())

	var serr sqlite3.Error
	if errors.As(err, &serr) {
		switch serr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return ErrDuplicateRating
		case sqlite3.ErrConstraintForeignKey:
			return ErrTrackNotFound
		}
	}
	return err
}

func (r *SQLiteRepository) RatingFor(trackID int64, userID string) (*Rating, error) {
	rating := Rating{}
	err := r.db.Get(&rating, `
	  select id, track_id, user_id, rating_type, created_at
	  from ratings
	  where track_id = ? and user_id = ?`,
		trackID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

func (r *SQLiteRepository) CountRatings(trackID int64) (*RatingCounts, error) {
	counts := RatingCounts{}
	err := r.db.Get(&counts, `
	  select
		coalesce(sum(case when rating_type = 1 then 1 else 0 end), 0) as thumbs_up,
		coalesce(sum(case when rating_type = -1 then 1 else 0 end), 0) as thumbs_down
	  from ratings
	  where track_id = ?`,
		trackID)
	if err != nil {
		return nil, err
	}
	return &counts, nil
}

func (r *SQLiteRepository) Ping() error {
	var one int
	return r.db.Get(&one, `select 1`)
}

func (r *SQLiteRepository) close() {
	r.db.Close()
}
