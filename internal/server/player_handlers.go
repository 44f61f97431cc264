package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"moodplay/internal/catalog"
	"moodplay/internal/player"
	"moodplay/pkg/models"
)

// handlePlayerState returns the full playback session snapshot.
func (ms *MusicServer) handlePlayerState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	ms.respondSnapshot(w)
}

// handlePlayerLoad replaces the playback queue. The body names either a
// mood, in which case the catalog supplies the tracks, or an explicit track
// list (a user playlist, the liked songs view). With autoPlay set the first
// track starts immediately.
func (ms *MusicServer) handlePlayerLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req struct {
		Mood     string         `json:"mood"`
		Name     string         `json:"name"`
		Tracks   []models.Track `json:"tracks"`
		AutoPlay bool           `json:"autoPlay"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	name := req.Name
	tracks := req.Tracks

	if req.Mood != "" {
		if vErr := ms.validateMood(req.Mood); vErr != nil {
			ms.respondWithValidationError(w, r, []ValidationError{*vErr})
			return
		}

		moodTracks, err := ms.catalog.MoodPlaylist(r.Context(), req.Mood, 0)
		if err != nil && !errors.Is(err, catalog.ErrNoTracks) {
			ms.respondWithError(w, r, http.StatusBadGateway, "Error fetching mood playlist", err)
			return
		}
		tracks = moodTracks
		if name == "" {
			name = req.Mood + " Mix"
		}
	}

	ms.session.LoadTracks(name, tracks, req.AutoPlay)
	ms.respondSnapshot(w)
}

// handlePlayerSelect makes a queue track current and starts it. A full
// track body plays a track outside the queue.
func (ms *MusicServer) handlePlayerSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req struct {
		TrackID string        `json:"trackId"`
		Track   *models.Track `json:"track"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	switch {
	case req.TrackID != "":
		if err := ms.session.SelectTrack(req.TrackID); err != nil {
			ms.respondWithError(w, r, http.StatusNotFound, "Track not in queue", nil)
			return
		}
	case req.Track != nil:
		ms.session.PlayTrack(*req.Track)
	default:
		ms.respondWithError(w, r, http.StatusBadRequest, "Track ID or track body required", nil)
		return
	}

	ms.respondSnapshot(w)
}

// handlePlayerNext advances to the next track.
func (ms *MusicServer) handlePlayerNext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	ms.session.Next()
	ms.respondSnapshot(w)
}

// handlePlayerPrevious moves back to the previous track.
func (ms *MusicServer) handlePlayerPrevious(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	ms.session.Previous()
	ms.respondSnapshot(w)
}

// handlePlayerShuffle sets or toggles shuffle.
func (ms *MusicServer) handlePlayerShuffle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Enabled != nil {
		ms.session.SetShuffled(*req.Enabled)
	} else {
		ms.session.ToggleShuffle()
	}

	ms.respondSnapshot(w)
}

// handlePlayerRepeat sets the repeat mode, or cycles it when no mode is
// given.
func (ms *MusicServer) handlePlayerRepeat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req struct {
		Mode *string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Mode != nil {
		ms.session.SetRepeatMode(player.ParseRepeatMode(*req.Mode))
	} else {
		ms.session.CycleRepeatMode()
	}

	ms.respondSnapshot(w)
}

// handlePlayerPlay resumes playback.
func (ms *MusicServer) handlePlayerPlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	ms.session.Play()
	ms.respondSnapshot(w)
}

// handlePlayerPause suspends playback.
func (ms *MusicServer) handlePlayerPause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	ms.session.Pause()
	ms.respondSnapshot(w)
}

// handlePlayerSeek moves the playback position within the current track.
func (ms *MusicServer) handlePlayerSeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req struct {
		Position int `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	ms.session.Seek(req.Position)
	ms.respondSnapshot(w)
}

// handlePlayerVolume sets the session volume.
func (ms *MusicServer) handlePlayerVolume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req struct {
		Volume int `json:"volume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	ms.session.SetVolume(req.Volume)
	ms.respondSnapshot(w)
}

// handlePlayerTick advances playback time by one second.
func (ms *MusicServer) handlePlayerTick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	ms.session.Tick()
	ms.respondSnapshot(w)
}

// handlePlayerEnded applies the track-end transition reported by the
// client's audio element.
func (ms *MusicServer) handlePlayerEnded(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	ms.session.HandleTrackEnd()
	ms.respondSnapshot(w)
}

// handlePlaybackFailed records that the client could not start the audio
// source.
func (ms *MusicServer) handlePlaybackFailed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	ms.session.ReportPlaybackFailure()
	ms.respondSnapshot(w)
}

// handlePlayerLike toggles a track's liked status with optimistic state and
// rollback on persistence failure.
func (ms *MusicServer) handlePlayerLike(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req struct {
		TrackID string `json:"trackId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if req.TrackID == "" {
		ms.respondWithError(w, r, http.StatusBadRequest, "Track ID is required", nil)
		return
	}

	liked, err := ms.session.ToggleLike(ms.db, requestUserID(r), req.TrackID)
	if err != nil {
		switch {
		case errors.Is(err, player.ErrAuthRequired):
			ms.respondWithError(w, r, http.StatusUnauthorized, "Authentication required", nil)
		case errors.Is(err, player.ErrTrackNotFound):
			ms.respondWithError(w, r, http.StatusNotFound, "Track not found", nil)
		default:
			ms.respondWithError(w, r, http.StatusInternalServerError, "Error saving liked status", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{
		"liked": liked,
		"state": ms.session.Snapshot(),
	})
}

// respondSnapshot writes the current session snapshot.
func (ms *MusicServer) respondSnapshot(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.session.Snapshot())
}
