package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(dbUrl string) (*PostgresRepository, error) {
	db, err := sqlx.Open("postgres", dbUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	// make sure the required tables exist
	// if not then create them
	tracksTable := `
	  create table if not exists tracks (
		id serial primary key,
		artist text not null,
		title text not null,
		album text,
		year integer,
		album_art_url text,
		played_at timestamp default current_timestamp,
		is_current boolean default false
	  );`
	ratingsTable := `
	  create table if not exists ratings (
		id serial primary key,
		track_id integer not null,
		user_id text not null,
		rating_type integer not null,
		created_at timestamp default current_timestamp,
		foreign key (track_id) references tracks (id),
		unique (track_id, user_id)
	  );`
	indexes := `
	  create index if not exists idx_tracks_played_at on tracks(played_at);
	  create index if not exists idx_ratings_track on ratings(track_id);`

	for _, t := range []string{tracksTable, ratingsTable, indexes} {
		if _, err := db.Exec(t); err != nil {
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	}

	log.Println("connected to postgres database")
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) RotateTo(meta TrackMetadata) (*Track, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`update tracks set is_current = false where is_current = true`); err != nil {
		return nil, err
	}

	playedAt := time.Now().UTC()
	var id int64
	err = tx.QueryRow(`
	  insert into tracks (artist, title, album, year, album_art_url, played_at, is_current)
	  values ($1, $2, $3, $4, $5, $6, true)
	  returning id`,
		meta.Artist, meta.Title, meta.Album, meta.Year, meta.AlbumArtURL, playedAt,
	).Scan(&id)
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

func (r *PostgresRepository) CurrentTrack() (*NowPlaying, error) {
	query := `
	  select t.id, t.artist, t.title, coalesce(t.album, '') as album, t.year,
		coalesce(t.album_art_url, '') as album_art_url, t.played_at, t.is_current,
		coalesce((select sum(case when rating_type = 1 then 1 else 0 end)
				  from ratings where track_id = t.id), 0) as thumbs_up,
		coalesce((select sum(case when rating_type = -1 then 1 else 0 end)
				  from ratings where track_id = t.id), 0) as thumbs_down
	  from tracks as t
	  where t.is_current = true
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

func (r *PostgresRepository) RecentlyPlayed(limit int64) ([]Track, error) {
	query := `
	  select id, artist, title, coalesce(album, '') as album, year,
		coalesce(album_art_url, '') as album_art_url, played_at, is_current
	  from tracks
	  where is_current = false
	  order by played_at desc, id desc
	  limit $1;`

	tracks := make([]Track, 0)
	if err := r.db.Select(&tracks, query, limit); err != nil {
		return nil, err
	}
	return tracks, nil
}

func (r *PostgresRepository) BackfillTrack(meta TrackMetadata) error {
	var exists bool
	err := r.db.Get(&exists,
		`select exists(select 1 from tracks where artist = $1 and title = $2)`,
		meta.Artist, meta.Title)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = r.db.Exec(`
	  insert into tracks (artist, title, album, year, album_art_url, played_at, is_current)
	  values ($1, $2, $3, $4, $5, $6, false)`,
		meta.Artist, meta.Title, meta.Album, meta.Year, meta.AlbumArtURL, time.Now().UTC())
	return err
}

func (r *PostgresRepository) TrackExists(id int64) (bool, error) {
	var exists bool
	err := r.db.Get(&exists, `select exists(select 1 from tracks where id = $1)`, id)
	return exists, err
}

func (r *PostgresRepository) InsertRating(trackID int64, userID string, ratingType int) error {
	_, err := r.db.Exec(`
	  insert into ratings (track_id, user_id, rating_type, created_at)
	  values ($1, $2, $3, $4)`,
		trackID, userID, ratingType, time.Now().UTC())

	var perr *pq.Error
	if errors.As(err, &perr) {
		switch perr.Code {
		case "23505": // unique_violation
			return ErrDuplicateRating
		case "23503": // foreign_key_violation
			return ErrTrackNotFound
		}
	}
	return err
}

func (r *PostgresRepository) RatingFor(trackID int64, userID string) (*Rating, error) {
	rating := Rating{}
	err := r.db.Get(&rating, `
	  select id, track_id, user_id, rating_type, created_at
	  from ratings
	  where track_id = $1 and user_id = $2`,
		trackID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

func (r *PostgresRepository) CountRatings(trackID int64) (*RatingCounts, error) {
	counts := RatingCounts{}
	err := r.db.Get(&counts, `
	  select
		coalesce(sum(case when rating_type = 1 then 1 else 0 end), 0) as thumbs_up,
		coalesce(sum(case when rating_type = -1 then 1 else 0 end), 0) as thumbs_down
	  from ratings
	  where track_id = $1`,
		trackID)
	if err != nil {
		return nil, err
	}
	return &counts, nil
}

func (r *PostgresRepository) Ping() error {
	var one int
	return r.db.Get(&one, `select 1`)
}

func (r *PostgresRepository) close() {
	r.db.Close()
}
