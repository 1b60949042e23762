// rotator simulates live radio by rotating the current track through a
// fixed pool, for development without access to the real metadata feed.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"
)

type trackInfo struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Album  string `json:"album"`
	Year   int    `json:"year"`
}

var trackPool = []trackInfo{
	{"Shandi Sinnamon", "He's A Dream", "Flashdance Soundtrack", 1983},
	{"TLC", "Ain't 2 Proud 2 Beg", "Ooooooohhh... On the TLC Tip", 1992},
	{"The Raconteurs", "Steady, As She Goes", "Broken Boy Soldiers", 2006},
	{"Mick Jagger", "Just Another Night", "She's the Boss", 1985},
	{"Beyoncé", "Irreplaceable", "B'Day", 2006},
	{"Etta James", "I'd Rather Go Blind", "Tell Mama", 1967},
	{"The Beatles", "Come Together", "Abbey Road", 1969},
	{"Fleetwood Mac", "Dreams", "Rumours", 1977},
	{"Prince", "When Doves Cry", "Purple Rain", 1984},
	{"Whitney Houston", "I Wanna Dance with Somebody", "Whitney", 1987},
	{"Queen", "Bohemian Rhapsody", "A Night at the Opera", 1975},
	{"David Bowie", "Heroes", "Heroes", 1977},
	{"Madonna", "Like a Prayer", "Like a Prayer", 1989},
	{"Michael Jackson", "Billie Jean", "Thriller", 1982},
	{"Stevie Wonder", "Superstition", "Talking Book", 1972},
}

func main() {
	var apiURL string
	var intervalSec int
	flag.StringVar(&apiURL, "api", "http://127.0.0.1:3000", "Base URL of the backend API")
	flag.IntVar(&intervalSec, "interval", 180, "Seconds between rotations")
	flag.Parse()

	log.Println("rotating every", intervalSec, "seconds against", apiURL)

	var current trackInfo
	rotate := func() {
		next := trackPool[rand.Intn(len(trackPool))]
		// don't repeat the track that is already playing
		for next == current {
			next = trackPool[rand.Intn(len(trackPool))]
		}

		if err := postTrack(apiURL, next); err != nil {
			log.Println("failed to update track:", err)
			return
		}
		current = next
		log.Println("now playing:", next.Artist, "-", next.Title)
	}

	rotate()
	for range time.Tick(time.Duration(intervalSec) * time.Second) {
		rotate()
	}
}

func postTrack(apiURL string, t trackInfo) error {
	body, err := json.Marshal(t)
	if err != nil {
		return err
	}

	resp, err := http.Post(apiURL+"/api/update-track", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	return nil
}
