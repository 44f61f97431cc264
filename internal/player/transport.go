package player

import (
	"moodplay/pkg/models"
)

// State is the playback transport state.
type State int

const (
	// StateIdle means no track is assigned.
	StateIdle State = iota
	// StateLoaded means a track is assigned but playback has not started.
	StateLoaded
	// StatePlaying means the assigned track is playing.
	StatePlaying
	// StatePaused means playback is suspended at the current position.
	StatePaused
)

// String returns the wire name of the state.
func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "idle"
	}
}

// Transport tracks the mechanics of playing one track: state, elapsed
// position, volume and the auto-play request flag. It knows nothing about
// queue order; the session controller connects the two.
//
// Transport is not safe for concurrent use; the session controller
// serializes access.
type Transport struct {
	state     State
	sourceURL string
	position  int // seconds elapsed in the current track
	duration  int // seconds, parsed from the track's M:SS string
	volume    int // 0-100
	autoPlay  bool
}

// NewTransport returns an idle transport at full volume.
func NewTransport() *Transport {
	return &Transport{volume: 100}
}

// Load assigns a track to the transport, resetting the elapsed position and
// selecting the playable source URL (full audio, then preview, then
// download). Whether playback was running is preserved: a track change
// during playback keeps playing, a change while paused stays paused.
func (t *Transport) Load(track models.Track) {
	wasPlaying := t.state == StatePlaying
	t.sourceURL = track.StreamURL()
	t.position = 0
	t.duration = track.DurationSeconds()
	if t.sourceURL == "" {
		// Nothing playable; keep the track visible but do not pretend to play.
		t.state = StatePaused
		return
	}
	if wasPlaying {
		t.state = StatePlaying
	} else {
		t.state = StateLoaded
	}
}

// Unload returns the transport to idle.
func (t *Transport) Unload() {
	t.state = StateIdle
	t.sourceURL = ""
	t.position = 0
	t.duration = 0
}

// Play starts or resumes playback. Reports whether the state changed; play
// on an idle transport or one without a playable source is refused.
func (t *Transport) Play() bool {
	if t.state == StateIdle || t.sourceURL == "" {
		return false
	}
	t.state = StatePlaying
	return true
}

// Pause suspends playback at the current position.
func (t *Transport) Pause() {
	if t.state == StatePlaying {
		t.state = StatePaused
	}
}

// TogglePlay flips between playing and paused.
func (t *Transport) TogglePlay() {
	if t.state == StatePlaying {
		t.Pause()
	} else {
		t.Play()
	}
}

// MarkPlaybackFailed records that the underlying audio failed to start. The
// transport drops back to paused rather than reporting a playing state it
// cannot honor.
func (t *Transport) MarkPlaybackFailed() {
	if t.state == StatePlaying {
		t.state = StatePaused
	}
}

// RequestAutoPlay arms the one-shot auto-play flag. The next consumer of
// the flag starts playback without a second user action.
func (t *Transport) RequestAutoPlay() {
	t.autoPlay = true
}

// ConsumeAutoPlay reads and clears the auto-play flag. The flag is cleared
// even when the subsequent playback start fails, so it cannot retrigger on
// unrelated state changes.
func (t *Transport) ConsumeAutoPlay() bool {
	requested := t.autoPlay
	t.autoPlay = false
	return requested
}

// AutoPlayPending reports the flag without consuming it.
func (t *Transport) AutoPlayPending() bool {
	return t.autoPlay
}

// Seek moves the elapsed position, clamped to the track duration. Seeking
// with no track loaded is a no-op.
func (t *Transport) Seek(seconds int) {
	if t.state == StateIdle {
		return
	}
	if seconds < 0 {
		seconds = 0
	}
	if t.duration > 0 && seconds > t.duration {
		seconds = t.duration
	}
	t.position = seconds
}

// Restart rewinds the current track to position 0 and resumes playing.
// Used for repeat-one at track end.
func (t *Transport) Restart() {
	if t.state == StateIdle {
		return
	}
	t.position = 0
	t.state = StatePlaying
}

// SetVolume sets the 0-100 volume scalar. Volume is independent of the
// track lifecycle and survives track changes.
func (t *Transport) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	t.volume = volume
}

// Tick advances the elapsed position by one second of playback. Reports
// whether the track has reached its end.
func (t *Transport) Tick() bool {
	if t.state != StatePlaying {
		return false
	}
	t.position++
	return t.duration > 0 && t.position >= t.duration
}

// State returns the transport state.
func (t *Transport) State() State {
	return t.state
}

// Playing reports whether the transport is in the playing state.
func (t *Transport) Playing() bool {
	return t.state == StatePlaying
}

// Position returns elapsed seconds in the current track.
func (t *Transport) Position() int {
	return t.position
}

// Duration returns the current track's length in seconds.
func (t *Transport) Duration() int {
	return t.duration
}

// Volume returns the 0-100 volume scalar.
func (t *Transport) Volume() int {
	return t.volume
}

// SourceURL returns the audio URL selected for the current track.
func (t *Transport) SourceURL() string {
	return t.sourceURL
}
