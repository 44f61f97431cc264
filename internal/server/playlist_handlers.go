package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"moodplay/internal/database"
	"moodplay/pkg/models"
)

// handleUserPlaylists serves GET (list) and POST (create) on
// /api/user/playlists.
func (ms *MusicServer) handleUserPlaylists(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ms.handleGetPlaylists(w, r)
	case http.MethodPost:
		ms.handleCreatePlaylist(w, r)
	default:
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

// handleGetPlaylists returns the user's playlists with their tracks.
func (ms *MusicServer) handleGetPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := ms.db.GetPlaylists(requestUserID(r))
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving playlists", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{"playlists": playlists})
}

// handleCreatePlaylist creates a new empty playlist.
func (ms *MusicServer) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	req.Name = sanitizeInput(req.Name)
	if vErr := ms.validatePlaylistName(req.Name); vErr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*vErr})
		return
	}

	playlist, err := ms.db.CreatePlaylist(requestUserID(r), req.Name)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error creating playlist", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{"playlist": playlist})
}

// handleGetUserPlaylist returns one playlist by id.
func (ms *MusicServer) handleGetUserPlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := ms.playlistIDFromPath(w, r)
	if !ok {
		return
	}

	playlist, err := ms.db.GetPlaylist(requestUserID(r), playlistID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			ms.respondWithError(w, r, http.StatusNotFound, "Playlist not found", nil)
			return
		}
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving playlist", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{"playlist": playlist})
}

// handleDeletePlaylist deletes a playlist and its tracks.
func (ms *MusicServer) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := ms.playlistIDFromPath(w, r)
	if !ok {
		return
	}

	if err := ms.db.DeletePlaylist(requestUserID(r), playlistID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			ms.respondWithError(w, r, http.StatusNotFound, "Playlist not found", nil)
			return
		}
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error deleting playlist", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]string{"message": "Playlist deleted"})
}

// handleAddTrackToPlaylist appends a track to a playlist. Adding a track
// that is already in the playlist is a client error.
func (ms *MusicServer) handleAddTrackToPlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := ms.playlistIDFromPath(w, r)
	if !ok {
		return
	}

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
	if err := ms.db.AddTrackToPlaylist(userID, playlistID, track); err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			ms.respondWithError(w, r, http.StatusNotFound, "Playlist not found", nil)
		case errors.Is(err, database.ErrDuplicateTrack):
			ms.respondWithError(w, r, http.StatusBadRequest, "Track already in playlist", nil)
		default:
			ms.respondWithError(w, r, http.StatusInternalServerError, "Error adding track to playlist", err)
		}
		return
	}

	ms.respondWithPlaylist(w, r, userID, playlistID)
}

// handleRemoveTrackFromPlaylist removes a track from a playlist via
// DELETE /api/user/playlists/{id}/tracks/{trackId}.
func (ms *MusicServer) handleRemoveTrackFromPlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := ms.playlistIDFromPath(w, r)
	if !ok {
		return
	}

	pathParts := strings.Split(r.URL.Path, "/")
	if len(pathParts) < 7 || pathParts[6] == "" {
		ms.respondWithError(w, r, http.StatusBadRequest, "Track ID is required", nil)
		return
	}
	trackID := pathParts[6]

	userID := requestUserID(r)
	if err := ms.db.RemoveTrackFromPlaylist(userID, playlistID, trackID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			ms.respondWithError(w, r, http.StatusNotFound, "Playlist or track not found", nil)
			return
		}
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error removing track from playlist", err)
		return
	}

	ms.respondWithPlaylist(w, r, userID, playlistID)
}

// playlistIDFromPath extracts the playlist id segment from
// /api/user/playlists/{id}[...].
func (ms *MusicServer) playlistIDFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	pathParts := strings.Split(r.URL.Path, "/")
	if len(pathParts) < 5 || pathParts[4] == "" {
		ms.respondWithError(w, r, http.StatusBadRequest, "Playlist ID is required", nil)
		return "", false
	}
	return pathParts[4], true
}

// respondWithPlaylist reloads and returns the playlist after a mutation.
func (ms *MusicServer) respondWithPlaylist(w http.ResponseWriter, r *http.Request, userID, playlistID string) {
	playlist, err := ms.db.GetPlaylist(userID, playlistID)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving playlist", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{"playlist": playlist})
}
