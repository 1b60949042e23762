package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFeedServer(t *testing.T, body *string, status *int) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if *status != http.StatusOK {
			w.WriteHeader(*status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(*body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestPoller(t *testing.T, svc Service, feedURL string) *Poller {
	t.Helper()
	return NewPoller(svc, PollerConfig{
		MetadataURL:  feedURL,
		CoverArtURL:  "https://example.com/cover.jpg",
		IntervalSecs: 15,
		MaxErrors:    5,
	})
}

func TestPollOnceRotatesAndBackfills(t *testing.T) {
	svc := newTestService(t)

	body := `{
		"artist": "David Bowie", "title": "Heroes", "album": "Heroes", "date": "1977",
		"prev_artist_1": "Queen", "prev_title_1": "Bohemian Rhapsody",
		"prev_artist_2": "Prince", "prev_title_2": "When Doves Cry"
	}`
	status := http.StatusOK
	ts := newFeedServer(t, &body, &status)

	p := newTestPoller(t, svc, ts.URL)
	require.NoError(t, p.pollOnce())

	np, err := svc.GetCurrentTrack()
	require.NoError(t, err)
	require.NotNil(t, np)
	assert.Equal(t, "David Bowie", np.Artist)
	assert.Equal(t, "Heroes", np.Title)
	require.NotNil(t, np.Year)
	assert.EqualValues(t, 1977, *np.Year)
	assert.Contains(t, np.AlbumArtURL, "https://example.com/cover.jpg?t=")

	recent, err := svc.GetRecentlyPlayed(5)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	titles := []string{recent[0].Title, recent[1].Title}
	assert.Contains(t, titles, "Bohemian Rhapsody")
	assert.Contains(t, titles, "When Doves Cry")
}

func TestPollOnceSuppressesRepeats(t *testing.T) {
	svc := newTestService(t)

	body := `{"artist": "Queen", "title": "Bohemian Rhapsody"}`
	status := http.StatusOK
	ts := newFeedServer(t, &body, &status)

	p := newTestPoller(t, svc, ts.URL)
	require.NoError(t, p.pollOnce())

	first, err := svc.GetCurrentTrack()
	require.NoError(t, err)
	require.NotNil(t, first)

	// same feed payload again: no rotation
	require.NoError(t, p.pollOnce())
	second, err := svc.GetCurrentTrack()
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// a new track rotates again
	body = `{"artist": "Prince", "title": "When Doves Cry"}`
	require.NoError(t, p.pollOnce())
	third, err := svc.GetCurrentTrack()
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
	assert.Equal(t, "Prince", third.Artist)
}

func TestPollerSeedsFromStore(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.SetCurrentTrack(TrackMetadata{Artist: "Queen", Title: "Bohemian Rhapsody"})
	require.NoError(t, err)

	body := `{"artist": "Queen", "title": "Bohemian Rhapsody"}`
	status := http.StatusOK
	ts := newFeedServer(t, &body, &status)

	p := newTestPoller(t, svc, ts.URL)
	p.seedFromStore()

	before, err := svc.GetCurrentTrack()
	require.NoError(t, err)
	require.NoError(t, p.pollOnce())
	after, err := svc.GetCurrentTrack()
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID, "restart must not re-rotate the current track")
}

func TestPollOnceFeedErrors(t *testing.T) {
	svc := newTestService(t)

	body := `{"artist": "Queen", "title": "Bohemian Rhapsody"}`
	status := http.StatusInternalServerError
	ts := newFeedServer(t, &body, &status)

	p := newTestPoller(t, svc, ts.URL)
	assert.Error(t, p.pollOnce())

	status = http.StatusOK
	body = `{"artist": "", "title": ""}`
	assert.Error(t, p.pollOnce())

	body = `not json`
	assert.Error(t, p.pollOnce())
}

func TestFeedYearUnmarshal(t *testing.T) {
	cases := []struct {
		name string
		json string
		want *int64
	}{
		{"number", `{"date": 1977}`, int64Ptr(1977)},
		{"quoted string", `{"date": "1977"}`, int64Ptr(1977)},
		{"empty string", `{"date": ""}`, nil},
		{"null", `{"date": null}`, nil},
		{"absent", `{}`, nil},
		{"garbage", `{"date": "197x"}`, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			meta := feedMetadata{}
			require.NoError(t, json.Unmarshal([]byte(tc.json), &meta))
			if tc.want == nil {
				assert.Nil(t, meta.Date.value)
			} else {
				require.NotNil(t, meta.Date.value)
				assert.Equal(t, *tc.want, *meta.Date.value)
			}
		})
	}
}

func int64Ptr(n int64) *int64 { return &n }
