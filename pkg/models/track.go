package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Track source tags as reported by the catalog adapters.
const (
	SourceJamendo = "jamendo"
	SourceDeezer  = "deezer"
)

// Track represents a normalized catalog track. IDs are only unique within
// one upstream catalog; tracks from different sources may collide.
type Track struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	Album         string `json:"album"`
	Duration      string `json:"duration"` // formatted "M:SS"
	Audio         string `json:"audio,omitempty"`
	Preview       string `json:"preview,omitempty"`
	AudioDownload string `json:"audioDownload,omitempty"`
	Image         string `json:"image,omitempty"`
	Source        string `json:"source,omitempty"`
}

// StreamURL returns the first playable URL in fallback order: full stream,
// preview clip, download URL. Empty string means the track has no audio.
func (t Track) StreamURL() string {
	if t.Audio != "" {
		return t.Audio
	}
	if t.Preview != "" {
		return t.Preview
	}
	return t.AudioDownload
}

// DurationSeconds parses the "M:SS" duration string. Malformed durations
// yield 0 rather than an error; the player treats them as unknown length.
func (t Track) DurationSeconds() int {
	parts := strings.SplitN(t.Duration, ":", 2)
	if len(parts) != 2 {
		return 0
	}
	mins, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	secs, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	return mins*60 + secs
}

// FormatDuration renders a length in seconds as the wire "M:SS" format.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Playlist represents a user-created playlist
type Playlist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Tracks    []Track   `json:"tracks"`
	CreatedAt time.Time `json:"createdAt"`
}

// User represents an account along with its persisted collections
type User struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Playlists  []Playlist `json:"playlists"`
	LikedSongs []Track    `json:"likedSongs"`
	CreatedAt  time.Time  `json:"createdAt"`
}
