package main

import (
	"log"
	"net/url"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatal("failed to load config ", err)
	}

	var (
		trackRepo  TrackRepository
		ratingRepo RatingRepository
	)

	log.Println("database url", cfg.DatabaseURL)
	u, err := url.Parse(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("invalid database url ", err)
	}
	switch u.Scheme {
	case "sqlite":
		sqlitedb, err := NewSQLiteRepository(u.Host + u.Path)
		if err != nil {
			log.Fatal("failed to open sqlite database ", err)
		}
		trackRepo = sqlitedb
		ratingRepo = sqlitedb

	case "postgres":
		pgdb, err := NewPostgresRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("failed to open postgres database ", err)
		}
		trackRepo = pgdb
		ratingRepo = pgdb

	default:
		log.Fatal("unsupported database url ", cfg.DatabaseURL)
	}

	service := &ServiceImpl{
		trackRepo:  trackRepo,
		ratingRepo: ratingRepo,
	}
	defer service.close()

	if cfg.Poller.Enabled {
		poller := NewPoller(service, cfg.Poller)
		go poller.Start()
		defer poller.Shutdown()
	}

	echoRouter := NewHTTPRouter(service, cfg.StreamURLFile)
	log.Fatal(echoRouter.Start(cfg.ListenAddr))
}
