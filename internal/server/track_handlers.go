package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"moodplay/internal/catalog"
	"moodplay/pkg/models"
)

// limitParam parses the optional limit query parameter. Zero means the
// catalog's configured default.
func limitParam(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

// handleGetMoods lists the fixed mood descriptors.
func (ms *MusicServer) handleGetMoods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{
		"success": true,
		"moods":   models.Moods,
	})
}

// handleMoodPlaylist returns the curated track list for one mood.
func (ms *MusicServer) handleMoodPlaylist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	pathParts := strings.Split(r.URL.Path, "/")
	if len(pathParts) < 5 || pathParts[4] == "" {
		ms.respondWithError(w, r, http.StatusBadRequest, "Mood is required", nil)
		return
	}
	mood := pathParts[4]

	if vErr := ms.validateMood(mood); vErr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*vErr})
		return
	}

	tracks, err := ms.catalog.MoodPlaylist(r.Context(), mood, limitParam(r))
	if err != nil {
		if errors.Is(err, catalog.ErrNoTracks) {
			ms.respondEmptyPlaylist(w, mood)
			return
		}
		ms.respondWithError(w, r, http.StatusBadGateway, "Error fetching mood playlist", err)
		return
	}

	descriptor, _ := models.MoodByName(mood)

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{
		"success": true,
		"mood":    mood,
		"count":   len(tracks),
		"playlist": map[string]interface{}{
			"name":        mood + " Mix",
			"description": descriptor.Description,
			"tracks":      tracks,
		},
	})
}

// respondEmptyPlaylist reports an empty mood playlist as a success with no
// tracks. Upstream outages degrade to an empty state, not an error.
func (ms *MusicServer) respondEmptyPlaylist(w http.ResponseWriter, mood string) {
	descriptor, _ := models.MoodByName(mood)
	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{
		"success": true,
		"mood":    mood,
		"count":   0,
		"playlist": map[string]interface{}{
			"name":        mood + " Mix",
			"description": descriptor.Description,
			"tracks":      []models.Track{},
		},
	})
}

// handleRecommended returns the cross-mood daily mix.
func (ms *MusicServer) handleRecommended(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	tracks, err := ms.catalog.Recommended(r.Context(), limitParam(r))
	if err != nil && !errors.Is(err, catalog.ErrNoTracks) {
		ms.respondWithError(w, r, http.StatusBadGateway, "Error building recommendations", err)
		return
	}
	if tracks == nil {
		tracks = []models.Track{}
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{
		"success": true,
		"count":   len(tracks),
		"playlist": map[string]interface{}{
			"name":        "Your Daily Mix",
			"description": "A personalized mix just for you",
			"tracks":      tracks,
		},
	})
}

// handleSearch performs a free-text catalog search.
func (ms *MusicServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	query := sanitizeInput(r.URL.Query().Get("q"))
	if vErr := ms.validateSearchQuery(query); vErr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*vErr})
		return
	}
	source := strings.ToLower(r.URL.Query().Get("source"))

	tracks, err := ms.catalog.Search(r.Context(), query, source, limitParam(r))
	if err != nil && !errors.Is(err, catalog.ErrNoTracks) {
		ms.respondWithError(w, r, http.StatusBadGateway, "Error searching tracks", err)
		return
	}
	if tracks == nil {
		tracks = []models.Track{}
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{
		"success": true,
		"query":   query,
		"count":   len(tracks),
		"results": tracks,
	})
}

// handleArtistSearch returns tracks by the artist named in the path.
func (ms *MusicServer) handleArtistSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	pathParts := strings.Split(r.URL.Path, "/")
	if len(pathParts) < 5 || pathParts[4] == "" {
		ms.respondWithError(w, r, http.StatusBadRequest, "Artist name is required", nil)
		return
	}
	artist := sanitizeInput(pathParts[4])

	tracks, err := ms.catalog.ArtistTracks(r.Context(), artist, limitParam(r))
	if err != nil && !errors.Is(err, catalog.ErrNoTracks) {
		ms.respondWithError(w, r, http.StatusBadGateway, "Artist search failed", err)
		return
	}
	if tracks == nil {
		tracks = []models.Track{}
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{
		"success": true,
		"artist":  artist,
		"count":   len(tracks),
		"tracks":  tracks,
	})
}

// handleAlbumSearch returns tracks from the album named in the path.
func (ms *MusicServer) handleAlbumSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	pathParts := strings.Split(r.URL.Path, "/")
	if len(pathParts) < 5 || pathParts[4] == "" {
		ms.respondWithError(w, r, http.StatusBadRequest, "Album name is required", nil)
		return
	}
	album := sanitizeInput(pathParts[4])

	tracks, err := ms.catalog.AlbumTracks(r.Context(), album, limitParam(r))
	if err != nil && !errors.Is(err, catalog.ErrNoTracks) {
		ms.respondWithError(w, r, http.StatusBadGateway, "Album search failed", err)
		return
	}
	if tracks == nil {
		tracks = []models.Track{}
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{
		"success": true,
		"album":   album,
		"count":   len(tracks),
		"tracks":  tracks,
	})
}

// handleTrending returns the currently popular tracks.
func (ms *MusicServer) handleTrending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	tracks, err := ms.catalog.Trending(r.Context(), limitParam(r))
	if err != nil && !errors.Is(err, catalog.ErrNoTracks) {
		ms.respondWithError(w, r, http.StatusBadGateway, "Error fetching trending tracks", err)
		return
	}
	if tracks == nil {
		tracks = []models.Track{}
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{
		"success": true,
		"count":   len(tracks),
		"results": tracks,
	})
}

// handleGenre returns tracks for a genre tag.
func (ms *MusicServer) handleGenre(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	pathParts := strings.Split(r.URL.Path, "/")
	if len(pathParts) < 5 || pathParts[4] == "" {
		ms.respondWithError(w, r, http.StatusBadRequest, "Genre is required", nil)
		return
	}
	genre := sanitizeInput(pathParts[4])

	tracks, err := ms.catalog.Genre(r.Context(), genre, limitParam(r))
	if err != nil && !errors.Is(err, catalog.ErrNoTracks) {
		ms.respondWithError(w, r, http.StatusBadGateway, "Error fetching genre tracks", err)
		return
	}
	if tracks == nil {
		tracks = []models.Track{}
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{
		"success": true,
		"genre":   genre,
		"count":   len(tracks),
		"results": tracks,
	})
}
