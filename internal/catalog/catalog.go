// Package catalog aggregates the external music catalogs (Jamendo, Deezer)
// behind a single service with caching and source fallback. Jamendo is the
// primary source since it serves full tracks; Deezer is the fallback and
// only provides 30 second previews.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"moodplay/internal/cache"
	"moodplay/internal/config"
	"moodplay/pkg/models"

	"github.com/sirupsen/logrus"
)

// ErrNoTracks is returned when neither catalog produced any playable tracks
// for a request.
var ErrNoTracks = errors.New("no tracks available")

// maxLimit caps per-request track counts regardless of what the client
// asks for.
const maxLimit = 100

// recommendedMoods are the moods mixed into the daily recommendation
// playlist.
var recommendedMoods = []string{models.MoodHappy, models.MoodChill, models.MoodFocused}

// Service answers track list requests, consulting the cache first and
// falling back from Jamendo to Deezer when the primary source fails or
// returns nothing.
type Service struct {
	jamendo *JamendoClient
	deezer  *DeezerClient
	cache   *cache.TrackListCache
	limit   int
	logger  *logrus.Logger
}

// NewService builds the catalog service from configuration.
func NewService(cfg *config.CatalogConfig, logger *logrus.Logger) *Service {
	httpClient := &http.Client{
		Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
	}

	return &Service{
		jamendo: NewJamendoClient(cfg.JamendoBaseURL, cfg.JamendoClientID, httpClient, logger),
		deezer:  NewDeezerClient(cfg.DeezerBaseURL, httpClient, logger),
		cache:   cache.NewTrackListCache(time.Duration(cfg.CacheTTLMinutes) * time.Minute),
		limit:   cfg.DefaultLimit,
		logger:  logger,
	}
}

// clampLimit normalizes a per-request limit. Zero or negative means the
// configured default.
func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.limit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// MoodPlaylist returns the track list for a mood. Results are cached per
// mood and limit for the configured TTL.
func (s *Service) MoodPlaylist(ctx context.Context, mood string, limit int) ([]models.Track, error) {
	if !models.IsValidMood(mood) {
		return nil, fmt.Errorf("unknown mood: %s", mood)
	}
	limit = s.clampLimit(limit)

	key := fmt.Sprintf("mood:%s:%d", mood, limit)
	if tracks, ok := s.cache.GetTracks(key); ok {
		return tracks, nil
	}

	tracks := s.withFallback(ctx, "mood playlist",
		func(ctx context.Context) ([]models.Track, error) {
			return s.jamendo.TracksForMood(ctx, mood, limit)
		},
		func(ctx context.Context) ([]models.Track, error) {
			return s.deezer.TracksForMood(ctx, mood, limit)
		})
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}

	s.cache.SetTracks(key, tracks)
	return tracks, nil
}

// Recommended builds the cross-mood daily mix: an even share of tracks per
// recommended mood, shuffled together and cut to the limit. The per-mood
// fetches go through the cache; the shuffle does not, so repeated requests
// vary the order.
func (s *Service) Recommended(ctx context.Context, limit int) ([]models.Track, error) {
	limit = s.clampLimit(limit)
	perMood := (limit + len(recommendedMoods) - 1) / len(recommendedMoods)

	var combined []models.Track
	for _, mood := range recommendedMoods {
		tracks, err := s.MoodPlaylist(ctx, mood, perMood)
		if err != nil {
			if !errors.Is(err, ErrNoTracks) {
				s.logger.WithError(err).WithField("mood", mood).Warn("Skipping mood in recommendations")
			}
			continue
		}
		combined = append(combined, tracks...)
	}
	if len(combined) == 0 {
		return nil, ErrNoTracks
	}

	rand.Shuffle(len(combined), func(i, j int) {
		combined[i], combined[j] = combined[j], combined[i]
	})
	if len(combined) > limit {
		combined = combined[:limit]
	}
	return combined, nil
}

// Search performs a free-text search. Source restricts the lookup to one
// catalog ("jamendo" or "deezer"); any other value searches both with the
// usual fallback.
func (s *Service) Search(ctx context.Context, query, source string, limit int) ([]models.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Track{}, nil
	}
	limit = s.clampLimit(limit)

	key := fmt.Sprintf("search:%s:%s:%d", source, strings.ToLower(query), limit)
	if tracks, ok := s.cache.GetTracks(key); ok {
		return tracks, nil
	}

	var tracks []models.Track
	switch source {
	case models.SourceJamendo:
		tracks = s.singleSource(ctx, "search", func(ctx context.Context) ([]models.Track, error) {
			return s.jamendo.Search(ctx, query, limit)
		})
	case models.SourceDeezer:
		tracks = s.singleSource(ctx, "search", func(ctx context.Context) ([]models.Track, error) {
			return s.deezer.Search(ctx, query, limit)
		})
	default:
		tracks = s.withFallback(ctx, "search",
			func(ctx context.Context) ([]models.Track, error) {
				return s.jamendo.Search(ctx, query, limit)
			},
			func(ctx context.Context) ([]models.Track, error) {
				return s.deezer.Search(ctx, query, limit)
			})
	}
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}

	s.cache.SetTracks(key, tracks)
	return tracks, nil
}

// ArtistTracks returns tracks by an artist. Deezer's qualified search is
// the only upstream with an artist filter.
func (s *Service) ArtistTracks(ctx context.Context, artist string, limit int) ([]models.Track, error) {
	artist = strings.TrimSpace(artist)
	if artist == "" {
		return []models.Track{}, nil
	}
	limit = s.clampLimit(limit)

	key := fmt.Sprintf("artist:%s:%d", strings.ToLower(artist), limit)
	if tracks, ok := s.cache.GetTracks(key); ok {
		return tracks, nil
	}

	tracks := s.singleSource(ctx, "artist search", func(ctx context.Context) ([]models.Track, error) {
		return s.deezer.SearchArtist(ctx, artist, limit)
	})
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}

	s.cache.SetTracks(key, tracks)
	return tracks, nil
}

// AlbumTracks returns tracks from a named album via Deezer's qualified
// search.
func (s *Service) AlbumTracks(ctx context.Context, album string, limit int) ([]models.Track, error) {
	album = strings.TrimSpace(album)
	if album == "" {
		return []models.Track{}, nil
	}
	limit = s.clampLimit(limit)

	key := fmt.Sprintf("album:%s:%d", strings.ToLower(album), limit)
	if tracks, ok := s.cache.GetTracks(key); ok {
		return tracks, nil
	}

	tracks := s.singleSource(ctx, "album search", func(ctx context.Context) ([]models.Track, error) {
		return s.deezer.SearchAlbum(ctx, album, limit)
	})
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}

	s.cache.SetTracks(key, tracks)
	return tracks, nil
}

// Trending returns the currently popular tracks.
func (s *Service) Trending(ctx context.Context, limit int) ([]models.Track, error) {
	limit = s.clampLimit(limit)

	key := fmt.Sprintf("trending:%d", limit)
	if tracks, ok := s.cache.GetTracks(key); ok {
		return tracks, nil
	}

	tracks := s.withFallback(ctx, "trending",
		func(ctx context.Context) ([]models.Track, error) {
			return s.jamendo.Trending(ctx, limit)
		},
		func(ctx context.Context) ([]models.Track, error) {
			return s.deezer.Chart(ctx, limit)
		})
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}

	s.cache.SetTracks(key, tracks)
	return tracks, nil
}

// Genre returns tracks for a genre tag such as "rock" or "jazz".
func (s *Service) Genre(ctx context.Context, genre string, limit int) ([]models.Track, error) {
	genre = strings.ToLower(strings.TrimSpace(genre))
	if genre == "" {
		return []models.Track{}, nil
	}
	limit = s.clampLimit(limit)

	key := fmt.Sprintf("genre:%s:%d", genre, limit)
	if tracks, ok := s.cache.GetTracks(key); ok {
		return tracks, nil
	}

	tracks := s.withFallback(ctx, "genre",
		func(ctx context.Context) ([]models.Track, error) {
			return s.jamendo.Search(ctx, genre, limit)
		},
		func(ctx context.Context) ([]models.Track, error) {
			return s.deezer.Search(ctx, genre+" music", limit)
		})
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}

	s.cache.SetTracks(key, tracks)
	return tracks, nil
}

// ClearCache drops all cached catalog responses.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

// Stop releases the cache cleanup goroutine.
func (s *Service) Stop() {
	s.cache.Stop()
}

type fetchFunc func(ctx context.Context) ([]models.Track, error)

// singleSource queries one catalog without fallback.
func (s *Service) singleSource(ctx context.Context, operation string, fetch fetchFunc) []models.Track {
	tracks, err := fetch(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("operation", operation).Warn("Catalog request failed")
		return nil
	}
	return tracks
}

// withFallback tries the primary source, then the fallback. Failures are
// logged at warn level; an empty result from both sources is returned as an
// empty slice for the caller to classify.
func (s *Service) withFallback(ctx context.Context, operation string, primary, fallback fetchFunc) []models.Track {
	if s.jamendo.Enabled() {
		tracks, err := primary(ctx)
		if err != nil {
			s.logger.WithError(err).WithField("operation", operation).Warn("Jamendo request failed, trying Deezer")
		} else if len(tracks) > 0 {
			return tracks
		}
	}

	tracks, err := fallback(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("operation", operation).Warn("Deezer request failed")
		return nil
	}
	return tracks
}
