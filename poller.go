// this file deals with tracking the live stream's metadata feed
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const previousArtURL = "https://via.placeholder.com/300x300/231F20/D8F2D5?text=Previous"

// Poller periodically fetches the stream's metadata feed and rotates the
// current track when the feed reports a new one. The feed repeats the same
// track across polls, so the poller is the place where consecutive
// duplicates get suppressed.
type Poller struct {
	service Service
	cfg     PollerConfig
	client  *http.Client
	done    chan struct{}

	lastArtist string
	lastTitle  string
}

func NewPoller(_service Service, cfg PollerConfig) *Poller {
	return &Poller{
		service: _service,
		cfg:     cfg,
		client:  &http.Client{Timeout: 5 * time.Second},
		done:    make(chan struct{}),
	}
}

func (p *Poller) Start() {
	p.seedFromStore()

	ticker := time.NewTicker(time.Duration(p.cfg.IntervalSecs) * time.Second)
	defer ticker.Stop()

	errCount := 0
	if err := p.pollOnce(); err != nil {
		log.Println("metadata poll failed:", err)
		errCount++
	}

	for {
		select {
		case <-p.done:
			log.Println("metadata poller stopped")
			return
		case <-ticker.C:
			if err := p.pollOnce(); err != nil {
				log.Println("metadata poll failed:", err)
				errCount++
				if errCount >= p.cfg.MaxErrors {
					log.Println("too many consecutive metadata errors, stopping poller")
					return
				}
				continue
			}
			errCount = 0
		}
	}
}

func (p *Poller) Shutdown() {
	close(p.done)
}

// seedFromStore primes the duplicate suppression so a restart does not
// re-rotate the track that is already current.
func (p *Poller) seedFromStore() {
	if np, err := p.service.GetCurrentTrack(); err == nil && np != nil {
		p.lastArtist, p.lastTitle = np.Artist, np.Title
	}
}

func (p *Poller) pollOnce() error {
	meta, err := p.fetchMetadata()
	if err != nil {
		return err
	}
	if meta.Artist == "" || meta.Title == "" {
		return fmt.Errorf("metadata feed returned no track")
	}

	if meta.Artist == p.lastArtist && meta.Title == p.lastTitle {
		return nil
	}

	// cache-busting timestamp, the cover art lives at a fixed URL
	coverURL := fmt.Sprintf("%s?t=%d", p.cfg.CoverArtURL, time.Now().Unix())
	track, err := p.service.SetCurrentTrack(TrackMetadata{
		Artist:      meta.Artist,
		Title:       meta.Title,
		Album:       meta.Album,
		Year:        meta.Date.value,
		AlbumArtURL: coverURL,
	})
	if err != nil {
		return err
	}
	p.lastArtist, p.lastTitle = meta.Artist, meta.Title
	log.Println("now playing changed to", track.Artist, "-", track.Title)

	// the feed also carries the last few played tracks; make sure history
	// has them even if this process missed their rotation
	for _, prev := range meta.previous() {
		if err := p.service.BackfillTrack(prev); err != nil {
			log.Println("failed to backfill", prev.Artist, "-", prev.Title, ":", err)
		}
	}
	return nil
}

func (p *Poller) fetchMetadata() (*feedMetadata, error) {
	resp, err := p.client.Get(p.cfg.MetadataURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata feed returned status %d", resp.StatusCode)
	}

	meta := feedMetadata{}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

type feedMetadata struct {
	Artist string   `json:"artist"`
	Title  string   `json:"title"`
	Album  string   `json:"album"`
	Date   feedYear `json:"date"`

	PrevArtist1 string `json:"prev_artist_1"`
	PrevTitle1  string `json:"prev_title_1"`
	PrevArtist2 string `json:"prev_artist_2"`
	PrevTitle2  string `json:"prev_title_2"`
	PrevArtist3 string `json:"prev_artist_3"`
	PrevTitle3  string `json:"prev_title_3"`
	PrevArtist4 string `json:"prev_artist_4"`
	PrevTitle4  string `json:"prev_title_4"`
	PrevArtist5 string `json:"prev_artist_5"`
	PrevTitle5  string `json:"prev_title_5"`
}

func (m *feedMetadata) previous() []TrackMetadata {
	pairs := []struct{ artist, title string }{
		{m.PrevArtist1, m.PrevTitle1},
		{m.PrevArtist2, m.PrevTitle2},
		{m.PrevArtist3, m.PrevTitle3},
		{m.PrevArtist4, m.PrevTitle4},
		{m.PrevArtist5, m.PrevTitle5},
	}

	prev := make([]TrackMetadata, 0, len(pairs))
	for _, p := range pairs {
		if p.artist == "" || p.title == "" {
			continue
		}
		prev = append(prev, TrackMetadata{
			Artist:      p.artist,
			Title:       p.title,
			AlbumArtURL: previousArtURL,
		})
	}
	return prev
}

// feedYear tolerates the feed sending the year as a number, a quoted
// string, or nothing at all.
type feedYear struct {
	value *int64
}

func (y *feedYear) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// year is best-effort metadata, not worth failing the poll
		return nil
	}
	y.value = &n
	return nil
}
