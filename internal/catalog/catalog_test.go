package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"moodplay/internal/config"
	"moodplay/pkg/models"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fakeJamendo answers the Jamendo tracks endpoint with n tracks, counting
// requests.
func fakeJamendo(t *testing.T, n int, requests *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(requests, 1)
		if r.URL.Query().Get("client_id") == "" {
			t.Error("jamendo request missing client_id")
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[`)
		for i := 0; i < n; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"id":"j%d","name":"Jam %d","artist_name":"Artist","album_name":"Album","duration":185,"audio":"https://cdn/j%d.mp3","audiodownload":"","image":"https://cdn/j%d.jpg"}`, i, i, i, i)
		}
		fmt.Fprint(w, `]}`)
	}))
}

// fakeDeezer answers the Deezer search endpoint with n tracks.
func fakeDeezer(t *testing.T, n int, requests *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(requests, 1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[`)
		for i := 0; i < n; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"id":%d,"title":"Dz %d","preview":"https://cdn/d%d.mp3","artist":{"name":"Artist"},"album":{"title":"Album","cover_medium":"https://cdn/d%d.jpg"},"duration":30}`, i+1, i, i, i)
		}
		fmt.Fprint(w, `]}`)
	}))
}

func newTestService(jamendoURL, deezerURL, clientID string) *Service {
	cfg := &config.CatalogConfig{
		JamendoBaseURL:  jamendoURL,
		JamendoClientID: clientID,
		DeezerBaseURL:   deezerURL,
		RequestTimeout:  5,
		CacheTTLMinutes: 10,
		DefaultLimit:    20,
	}
	return NewService(cfg, testLogger())
}

func TestMoodPlaylist(t *testing.T) {
	t.Run("JamendoPrimary", func(t *testing.T) {
		var jamendoHits, deezerHits int32
		jamendo := fakeJamendo(t, 3, &jamendoHits)
		defer jamendo.Close()
		deezer := fakeDeezer(t, 2, &deezerHits)
		defer deezer.Close()

		svc := newTestService(jamendo.URL, deezer.URL, "test-client")
		defer svc.Stop()

		tracks, err := svc.MoodPlaylist(context.Background(), models.MoodHappy, 0)
		if err != nil {
			t.Fatalf("MoodPlaylist failed: %v", err)
		}
		if len(tracks) != 3 {
			t.Fatalf("expected 3 tracks, got %d", len(tracks))
		}
		if tracks[0].Source != models.SourceJamendo {
			t.Errorf("expected jamendo source, got %s", tracks[0].Source)
		}
		if tracks[0].Duration != "3:05" {
			t.Errorf("duration not formatted: %s", tracks[0].Duration)
		}
		if atomic.LoadInt32(&deezerHits) != 0 {
			t.Error("deezer consulted although jamendo answered")
		}
	})

	t.Run("FallsBackToDeezer", func(t *testing.T) {
		var deezerHits int32
		broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer broken.Close()
		deezer := fakeDeezer(t, 2, &deezerHits)
		defer deezer.Close()

		svc := newTestService(broken.URL, deezer.URL, "test-client")
		defer svc.Stop()

		tracks, err := svc.MoodPlaylist(context.Background(), models.MoodChill, 0)
		if err != nil {
			t.Fatalf("expected deezer fallback, got error: %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 fallback tracks, got %d", len(tracks))
		}
		if tracks[0].Source != models.SourceDeezer {
			t.Errorf("expected deezer source, got %s", tracks[0].Source)
		}
		if tracks[0].Preview == "" {
			t.Error("deezer track missing preview URL")
		}
	})

	t.Run("SkipsJamendoWithoutClientID", func(t *testing.T) {
		var jamendoHits, deezerHits int32
		jamendo := fakeJamendo(t, 3, &jamendoHits)
		defer jamendo.Close()
		deezer := fakeDeezer(t, 1, &deezerHits)
		defer deezer.Close()

		svc := newTestService(jamendo.URL, deezer.URL, "")
		defer svc.Stop()

		if _, err := svc.MoodPlaylist(context.Background(), models.MoodSad, 0); err != nil {
			t.Fatalf("MoodPlaylist failed: %v", err)
		}
		if atomic.LoadInt32(&jamendoHits) != 0 {
			t.Error("jamendo queried without a client id")
		}
	})

	t.Run("BothSourcesEmpty", func(t *testing.T) {
		var hits int32
		jamendo := fakeJamendo(t, 0, &hits)
		defer jamendo.Close()
		deezer := fakeDeezer(t, 0, &hits)
		defer deezer.Close()

		svc := newTestService(jamendo.URL, deezer.URL, "test-client")
		defer svc.Stop()

		_, err := svc.MoodPlaylist(context.Background(), models.MoodFocused, 0)
		if !errors.Is(err, ErrNoTracks) {
			t.Fatalf("expected ErrNoTracks, got %v", err)
		}
	})

	t.Run("UnknownMoodRejected", func(t *testing.T) {
		svc := newTestService("http://unused", "http://unused", "x")
		defer svc.Stop()

		if _, err := svc.MoodPlaylist(context.Background(), "Angry", 0); err == nil {
			t.Fatal("expected error for unknown mood")
		}
	})

	t.Run("SecondCallServedFromCache", func(t *testing.T) {
		var jamendoHits, deezerHits int32
		jamendo := fakeJamendo(t, 3, &jamendoHits)
		defer jamendo.Close()
		deezer := fakeDeezer(t, 2, &deezerHits)
		defer deezer.Close()

		svc := newTestService(jamendo.URL, deezer.URL, "test-client")
		defer svc.Stop()

		for i := 0; i < 3; i++ {
			if _, err := svc.MoodPlaylist(context.Background(), models.MoodHappy, 0); err != nil {
				t.Fatalf("call %d failed: %v", i, err)
			}
		}
		if got := atomic.LoadInt32(&jamendoHits); got != 1 {
			t.Errorf("expected 1 upstream hit, got %d", got)
		}
	})
}

func TestSearch(t *testing.T) {
	t.Run("EmptyQueryReturnsNothing", func(t *testing.T) {
		svc := newTestService("http://unused", "http://unused", "x")
		defer svc.Stop()

		tracks, err := svc.Search(context.Background(), "   ", "", 0)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(tracks) != 0 {
			t.Errorf("expected no results, got %d", len(tracks))
		}
	})

	t.Run("SearchHitsJamendo", func(t *testing.T) {
		var jamendoHits, deezerHits int32
		jamendo := fakeJamendo(t, 2, &jamendoHits)
		defer jamendo.Close()
		deezer := fakeDeezer(t, 1, &deezerHits)
		defer deezer.Close()

		svc := newTestService(jamendo.URL, deezer.URL, "test-client")
		defer svc.Stop()

		tracks, err := svc.Search(context.Background(), "piano", "", 0)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 results, got %d", len(tracks))
		}
	})

	t.Run("SourceRestrictsToDeezer", func(t *testing.T) {
		var jamendoHits, deezerHits int32
		jamendo := fakeJamendo(t, 2, &jamendoHits)
		defer jamendo.Close()
		deezer := fakeDeezer(t, 1, &deezerHits)
		defer deezer.Close()

		svc := newTestService(jamendo.URL, deezer.URL, "test-client")
		defer svc.Stop()

		tracks, err := svc.Search(context.Background(), "piano", models.SourceDeezer, 0)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(tracks) != 1 || tracks[0].Source != models.SourceDeezer {
			t.Fatalf("expected 1 deezer result, got %+v", tracks)
		}
		if atomic.LoadInt32(&jamendoHits) != 0 {
			t.Error("jamendo consulted despite deezer-only search")
		}
	})
}

// capturingJamendo records the query parameters of the last request and
// answers with n tracks.
func capturingJamendo(n int, lastQuery *map[string]string, hits *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		captured := map[string]string{}
		for key, values := range r.URL.Query() {
			captured[key] = values[0]
		}
		*lastQuery = captured

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[`)
		for i := 0; i < n; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"id":"j%d","name":"Jam %d","artist_name":"Artist","album_name":"Album","duration":185,"audio":"https://cdn/j%d.mp3"}`, i, i, i)
		}
		fmt.Fprint(w, `]}`)
	}))
}

func TestRequestLimit(t *testing.T) {
	var lastQuery map[string]string
	var hits int32
	jamendo := capturingJamendo(3, &lastQuery, &hits)
	defer jamendo.Close()

	svc := newTestService(jamendo.URL, "http://unused", "test-client")
	defer svc.Stop()

	t.Run("PassedToUpstream", func(t *testing.T) {
		tracks, err := svc.MoodPlaylist(context.Background(), models.MoodHappy, 3)
		if err != nil {
			t.Fatalf("MoodPlaylist failed: %v", err)
		}
		if len(tracks) != 3 {
			t.Fatalf("expected 3 tracks, got %d", len(tracks))
		}
		if lastQuery["limit"] != "3" {
			t.Errorf("upstream saw limit %q, want 3", lastQuery["limit"])
		}
	})

	t.Run("ZeroMeansConfigDefault", func(t *testing.T) {
		if _, err := svc.Search(context.Background(), "piano", "", 0); err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if lastQuery["limit"] != "20" {
			t.Errorf("upstream saw limit %q, want config default 20", lastQuery["limit"])
		}
	})

	t.Run("ClampedToMaximum", func(t *testing.T) {
		if _, err := svc.Trending(context.Background(), 5000); err != nil {
			t.Fatalf("Trending failed: %v", err)
		}
		if lastQuery["limit"] != "100" {
			t.Errorf("upstream saw limit %q, want 100", lastQuery["limit"])
		}
	})

	t.Run("CachedPerLimit", func(t *testing.T) {
		before := atomic.LoadInt32(&hits)
		for _, limit := range []int{5, 7, 5, 7} {
			if _, err := svc.Genre(context.Background(), "jazz", limit); err != nil {
				t.Fatalf("Genre with limit %d failed: %v", limit, err)
			}
		}
		if got := atomic.LoadInt32(&hits) - before; got != 2 {
			t.Errorf("expected one upstream hit per distinct limit, got %d", got)
		}
	})
}

func TestRecommended(t *testing.T) {
	t.Run("MixesMoods", func(t *testing.T) {
		var lastQuery map[string]string
		var hits int32
		jamendo := capturingJamendo(3, &lastQuery, &hits)
		defer jamendo.Close()

		svc := newTestService(jamendo.URL, "http://unused", "test-client")
		defer svc.Stop()

		tracks, err := svc.Recommended(context.Background(), 9)
		if err != nil {
			t.Fatalf("Recommended failed: %v", err)
		}
		if len(tracks) != 9 {
			t.Fatalf("expected 9 tracks, got %d", len(tracks))
		}
		if got := atomic.LoadInt32(&hits); got != 3 {
			t.Errorf("expected one fetch per mood, got %d", got)
		}
		if lastQuery["limit"] != "3" {
			t.Errorf("per-mood fetch saw limit %q, want 3", lastQuery["limit"])
		}
	})

	t.Run("TrimmedToLimit", func(t *testing.T) {
		var lastQuery map[string]string
		var hits int32
		jamendo := capturingJamendo(4, &lastQuery, &hits)
		defer jamendo.Close()

		svc := newTestService(jamendo.URL, "http://unused", "test-client")
		defer svc.Stop()

		tracks, err := svc.Recommended(context.Background(), 10)
		if err != nil {
			t.Fatalf("Recommended failed: %v", err)
		}
		if len(tracks) != 10 {
			t.Errorf("expected the mix cut to 10 tracks, got %d", len(tracks))
		}
	})

	t.Run("NoSourcesMeansNoTracks", func(t *testing.T) {
		broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer broken.Close()

		svc := newTestService(broken.URL, broken.URL, "")
		defer svc.Stop()

		if _, err := svc.Recommended(context.Background(), 9); !errors.Is(err, ErrNoTracks) {
			t.Fatalf("expected ErrNoTracks, got %v", err)
		}
	})
}

func TestArtistAndAlbumSearch(t *testing.T) {
	var lastQuery string
	deezer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"id":7,"title":"Hit","preview":"https://cdn/7.mp3","artist":{"name":"Daft Punk"},"album":{"title":"Discovery"},"duration":200}]}`)
	}))
	defer deezer.Close()

	svc := newTestService("http://unused", deezer.URL, "")
	defer svc.Stop()

	t.Run("ArtistQualifiedQuery", func(t *testing.T) {
		tracks, err := svc.ArtistTracks(context.Background(), "Daft Punk", 5)
		if err != nil {
			t.Fatalf("ArtistTracks failed: %v", err)
		}
		if len(tracks) != 1 {
			t.Fatalf("expected 1 track, got %d", len(tracks))
		}
		if lastQuery != `artist:"Daft Punk"` {
			t.Errorf("deezer saw query %q", lastQuery)
		}
	})

	t.Run("AlbumQualifiedQuery", func(t *testing.T) {
		if _, err := svc.AlbumTracks(context.Background(), "Discovery", 5); err != nil {
			t.Fatalf("AlbumTracks failed: %v", err)
		}
		if lastQuery != `album:"Discovery"` {
			t.Errorf("deezer saw query %q", lastQuery)
		}
	})

	t.Run("EmptyNameReturnsNothing", func(t *testing.T) {
		tracks, err := svc.ArtistTracks(context.Background(), "  ", 5)
		if err != nil {
			t.Fatalf("ArtistTracks failed: %v", err)
		}
		if len(tracks) != 0 {
			t.Errorf("expected no results, got %d", len(tracks))
		}
	})
}

func TestTracksWithoutAudioAreDropped(t *testing.T) {
	silent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[
			{"id":"ok","name":"Has Audio","artist_name":"A","album_name":"B","duration":60,"audio":"https://cdn/ok.mp3"},
			{"id":"mute","name":"No Audio","artist_name":"A","album_name":"B","duration":60,"audio":"","audiodownload":""}
		]}`)
	}))
	defer silent.Close()

	client := NewJamendoClient(silent.URL, "test-client", http.DefaultClient, testLogger())
	tracks, err := client.Search(context.Background(), "anything", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(tracks) != 1 || tracks[0].ID != "ok" {
		t.Errorf("expected only the playable track, got %+v", tracks)
	}
}
