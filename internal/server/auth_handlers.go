package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"moodplay/internal/auth"
	"moodplay/internal/database"
)

// handleSignup registers a new account and returns a token with the user.
func (ms *MusicServer) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	if err := ms.db.Ping(); err != nil {
		ms.respondWithError(w, r, http.StatusServiceUnavailable, "Database connection unavailable", err)
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	req.Email = sanitizeInput(req.Email)
	req.Name = sanitizeInput(req.Name)

	var validationErrors []ValidationError
	if vErr := ms.validateEmail(req.Email); vErr != nil {
		validationErrors = append(validationErrors, *vErr)
	}
	if vErr := ms.validatePassword(req.Password); vErr != nil {
		validationErrors = append(validationErrors, *vErr)
	}
	if len(validationErrors) > 0 {
		ms.respondWithValidationError(w, r, validationErrors)
		return
	}

	if req.Name == "" {
		req.Name = req.Email
	}

	user, token, err := ms.authService.Signup(req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrDuplicateEmail):
			ms.respondWithError(w, r, http.StatusConflict, "Email already registered", nil)
		case errors.Is(err, auth.ErrWeakPassword):
			ms.respondWithError(w, r, http.StatusBadRequest, "Password too short", nil)
		default:
			ms.respondWithError(w, r, http.StatusInternalServerError, "Error creating account", err)
		}
		return
	}

	ms.session.SetUser(user.ID, nil)

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// handleAuthLogin verifies credentials and returns a token with the user.
func (ms *MusicServer) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	if err := ms.db.Ping(); err != nil {
		ms.respondWithError(w, r, http.StatusServiceUnavailable, "Database connection unavailable", err)
		return
	}

	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if credentials.Email == "" || credentials.Password == "" {
		ms.respondWithError(w, r, http.StatusBadRequest, "Email and password required", nil)
		return
	}

	user, token, err := ms.authService.Login(credentials.Email, credentials.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			ms.logger.WithField("email", credentials.Email).Warn("Failed login attempt")
			ms.respondWithError(w, r, http.StatusUnauthorized, "Invalid email or password", nil)
			return
		}
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error logging in", err)
		return
	}

	likedSongs, err := ms.db.GetLikedSongs(user.ID)
	if err != nil {
		ms.logger.WithError(err).WithField("user_id", user.ID).Warn("Could not load liked songs at login")
		likedSongs = nil
	}
	user.LikedSongs = likedSongs
	ms.session.SetUser(user.ID, likedSongs)

	ms.logger.WithField("user_id", user.ID).Info("User logged in successfully")

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// handleAuthLogout clears the playback session's user binding. Tokens are
// stateless, so the client simply discards its copy.
func (ms *MusicServer) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	ms.session.ClearUser()
	ms.logger.WithField("user_id", requestUserID(r)).Info("User logged out")

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]string{"message": "Logged out"})
}

// handleCurrentUser returns the authenticated user with their playlists and
// liked songs.
func (ms *MusicServer) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	userID := requestUserID(r)
	user, err := ms.authService.GetUser(userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			ms.respondWithError(w, r, http.StatusUnauthorized, "Account no longer exists", nil)
			return
		}
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error loading user", err)
		return
	}

	if playlists, err := ms.db.GetPlaylists(userID); err == nil {
		user.Playlists = playlists
	}
	if likedSongs, err := ms.db.GetLikedSongs(userID); err == nil {
		user.LikedSongs = likedSongs
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{"user": user})
}

// handleChangePassword verifies the current password and stores a new one.
func (ms *MusicServer) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if vErr := ms.validatePassword(req.NewPassword); vErr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*vErr})
		return
	}

	err := ms.authService.ChangePassword(requestUserID(r), req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			ms.respondWithError(w, r, http.StatusUnauthorized, "Current password is incorrect", nil)
		case errors.Is(err, auth.ErrWeakPassword):
			ms.respondWithError(w, r, http.StatusBadRequest, "Password too short", nil)
		default:
			ms.respondWithError(w, r, http.StatusInternalServerError, "Error changing password", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]string{"message": "Password changed successfully"})
}

// handleDeleteAccount removes the account after a password confirmation.
func (ms *MusicServer) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	userID := requestUserID(r)
	user, err := ms.authService.GetUser(userID)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error loading user", err)
		return
	}

	if err := ms.authService.DeleteAccount(userID, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			ms.respondWithError(w, r, http.StatusUnauthorized, "Password is incorrect", nil)
			return
		}
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error deleting account", err)
		return
	}

	ms.session.ClearUser()

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{
		"message":     "Account deleted",
		"deletedUser": user,
	})
}
