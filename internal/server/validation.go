package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"moodplay/pkg/models"

	"github.com/sirupsen/logrus"
)

// ValidationError represents a validation error with details
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationResult contains validation results
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// respondJSON writes a JSON response body.
func (ms *MusicServer) respondJSON(w http.ResponseWriter, payload interface{}) {
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		ms.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// respondWithValidationError sends a structured validation error response
func (ms *MusicServer) respondWithValidationError(w http.ResponseWriter, r *http.Request, errors []ValidationError) {
	ms.logger.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"errors": errors,
	}).Warn("Validation failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)

	result := ValidationResult{
		Valid:  false,
		Errors: errors,
	}

	ms.respondJSON(w, result)
}

// respondWithError sends a structured error response
func (ms *MusicServer) respondWithError(w http.ResponseWriter, r *http.Request, statusCode int, message string, err error) {
	logEntry := ms.logger.WithFields(logrus.Fields{
		"method":      r.Method,
		"path":        r.URL.Path,
		"status_code": statusCode,
		"message":     message,
	})

	if err != nil {
		logEntry = logEntry.WithError(err)
	}

	if statusCode >= 500 {
		logEntry.Error("Server error")
	} else {
		logEntry.Warn("Client error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]interface{}{
		"error":   message,
		"code":    statusCode,
		"success": false,
	}

	ms.respondJSON(w, response)
}

// validateEmail performs a light sanity check on an email address.
func (ms *MusicServer) validateEmail(email string) *ValidationError {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{
			Field:   "email",
			Message: "Email is required",
			Code:    "MISSING_EMAIL",
		}
	}

	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return &ValidationError{
			Field:   "email",
			Message: "Email address is not valid",
			Code:    "INVALID_EMAIL_FORMAT",
		}
	}

	if len(email) > 254 {
		return &ValidationError{
			Field:   "email",
			Message: "Email too long (max 254 characters)",
			Code:    "EMAIL_TOO_LONG",
		}
	}

	return nil
}

// validatePassword enforces the configured minimum password length.
func (ms *MusicServer) validatePassword(password string) *ValidationError {
	if password == "" {
		return &ValidationError{
			Field:   "password",
			Message: "Password is required",
			Code:    "MISSING_PASSWORD",
		}
	}

	if len(password) < ms.config.Auth.MinPasswordLength {
		return &ValidationError{
			Field:   "password",
			Message: "Password too short",
			Code:    "PASSWORD_TOO_SHORT",
		}
	}

	return nil
}

// validatePlaylistName validates playlist name
func (ms *MusicServer) validatePlaylistName(name string) *ValidationError {
	if name == "" {
		return &ValidationError{
			Field:   "name",
			Message: "Playlist name is required",
			Code:    "MISSING_PLAYLIST_NAME",
		}
	}

	if len(name) > 255 {
		return &ValidationError{
			Field:   "name",
			Message: "Playlist name too long (max 255 characters)",
			Code:    "PLAYLIST_NAME_TOO_LONG",
		}
	}

	// Check for dangerous characters
	if strings.Contains(name, "\x00") || strings.Contains(name, "\n") || strings.Contains(name, "\r") {
		return &ValidationError{
			Field:   "name",
			Message: "Playlist name contains invalid characters",
			Code:    "INVALID_PLAYLIST_NAME_CHARACTERS",
		}
	}

	return nil
}

// validateSearchQuery validates search query parameters
func (ms *MusicServer) validateSearchQuery(query string) *ValidationError {
	if len(query) > 1000 {
		return &ValidationError{
			Field:   "search",
			Message: "Search query too long (max 1000 characters)",
			Code:    "SEARCH_QUERY_TOO_LONG",
		}
	}

	if strings.Contains(query, "\x00") {
		return &ValidationError{
			Field:   "search",
			Message: "Search query contains invalid characters",
			Code:    "INVALID_SEARCH_CHARACTERS",
		}
	}

	return nil
}

// validateMood checks that a mood name is one of the fixed set.
func (ms *MusicServer) validateMood(mood string) *ValidationError {
	if !models.IsValidMood(mood) {
		return &ValidationError{
			Field:   "mood",
			Message: "Unknown mood",
			Code:    "INVALID_MOOD",
		}
	}
	return nil
}

// validateTrackBody checks the required fields of a track payload.
func (ms *MusicServer) validateTrackBody(track *models.Track) *ValidationError {
	if track.ID == "" {
		return &ValidationError{
			Field:   "id",
			Message: "Track ID is required",
			Code:    "MISSING_TRACK_ID",
		}
	}
	if track.Title == "" {
		return &ValidationError{
			Field:   "title",
			Message: "Track title is required",
			Code:    "MISSING_TRACK_TITLE",
		}
	}
	return nil
}

// sanitizeInput sanitizes user input to prevent injection attacks
func sanitizeInput(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Trim whitespace
	input = strings.TrimSpace(input)

	return input
}
