package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"moodplay/internal/database"
	"moodplay/pkg/models"
)

// handleLikedSongs serves GET (list) and POST (like) on /api/user/liked-songs.
func (ms *MusicServer) handleLikedSongs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ms.handleGetLikedSongs(w, r)
	case http.MethodPost:
		ms.handleLikeSong(w, r)
	default:
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

// handleGetLikedSongs returns the user's liked tracks in like order.
func (ms *MusicServer) handleGetLikedSongs(w http.ResponseWriter, r *http.Request) {
	likedSongs, err := ms.db.GetLikedSongs(requestUserID(r))
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving liked songs", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{"likedSongs": likedSongs})
}

// handleLikeSong appends a track to the liked list. Liking a track that is
// already liked is a client error.
func (ms *MusicServer) handleLikeSong(w http.ResponseWriter, r *http.Request) {
	var track models.Track
	if err := json.NewDecoder(r.Body).Decode(&track); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if vErr := ms.validateTrackBody(&track); vErr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*vErr})
		return
	}

	userID := requestUserID(r)
	if err := ms.db.AddLikedSong(userID, track); err != nil {
		if errors.Is(err, database.ErrAlreadyLiked) {
			ms.respondWithError(w, r, http.StatusBadRequest, "Song already liked", nil)
			return
		}
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error liking song", err)
		return
	}

	likedSongs, err := ms.db.GetLikedSongs(userID)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving liked songs", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{
		"message":    "Song liked",
		"likedSongs": likedSongs,
	})
}

// handleUnlikeSong removes a track from the liked list via
// DELETE /api/user/liked-songs/{trackId}.
func (ms *MusicServer) handleUnlikeSong(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	pathParts := strings.Split(r.URL.Path, "/")
	if len(pathParts) < 5 || pathParts[4] == "" {
		ms.respondWithError(w, r, http.StatusBadRequest, "Track ID is required", nil)
		return
	}
	trackID := pathParts[4]

	userID := requestUserID(r)
	if err := ms.db.RemoveLikedSong(userID, trackID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			ms.respondWithError(w, r, http.StatusNotFound, "Song not in liked list", nil)
			return
		}
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error removing liked song", err)
		return
	}

	likedSongs, err := ms.db.GetLikedSongs(userID)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving liked songs", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{
		"message":    "Song removed from liked list",
		"likedSongs": likedSongs,
	})
}
