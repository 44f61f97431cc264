// Package player implements the playback session: the track queue with
// shuffle and repeat semantics, the play/pause/seek transport, and the
// optimistically reconciled liked-songs state. The Session type serializes
// all access, so every operation observes the state left by the previous
// one.
package player

import (
	"sync"

	"moodplay/pkg/models"

	"github.com/sirupsen/logrus"
)

// Snapshot is a read-only view of the session handed to HTTP handlers and
// change listeners.
type Snapshot struct {
	State        string         `json:"state"`
	CurrentTrack *models.Track  `json:"currentTrack"`
	Queue        []models.Track `json:"queue"`
	QueueName    string         `json:"queueName,omitempty"`
	Shuffled     bool           `json:"shuffled"`
	RepeatMode   string         `json:"repeatMode"`
	Position     int            `json:"position"`
	Duration     int            `json:"duration"`
	Volume       int            `json:"volume"`
	SourceURL    string         `json:"sourceUrl,omitempty"`
	LikedSongs   []models.Track `json:"likedSongs"`
}

// Session owns all playback state for one listening session and serializes
// every transition behind a mutex. Child components (queue, transport, like
// state) are never exposed directly; handlers go through Session methods
// and read Snapshots.
type Session struct {
	mu        sync.RWMutex
	queue     *Queue
	transport *Transport
	likes     *LikeState
	queueName string
	userID    string
	logger    *logrus.Logger
	listeners []chan Snapshot
}

// NewSession creates an idle playback session.
func NewSession(logger *logrus.Logger) *Session {
	return &Session{
		queue:     NewQueue(),
		transport: NewTransport(),
		likes:     NewLikeState(),
		logger:    logger,
	}
}

// LoadTracks replaces the queue with a new track set. When autoPlay is set
// the first track is selected and started immediately; otherwise the
// current track keeps playing and the new set is merely browsed.
func (s *Session) LoadTracks(name string, tracks []models.Track, autoPlay bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue.LoadTracks(tracks)
	s.queueName = name

	if autoPlay && len(tracks) > 0 {
		s.queue.SetCurrent(tracks[0])
		s.transport.RequestAutoPlay()
		s.startCurrentLocked()
	}

	s.logger.WithFields(logrus.Fields{
		"queue": name,
		"count": len(tracks),
	}).Info("Loaded track queue")
	s.notifyLocked()
}

// SelectTrack makes the queue entry with the given id current and starts it
// without requiring a separate play action.
func (s *Session) SelectTrack(trackID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.queue.SelectTrack(trackID) {
		return ErrTrackNotFound
	}
	s.transport.RequestAutoPlay()
	s.startCurrentLocked()
	s.notifyLocked()
	return nil
}

// PlayTrack plays a track that need not be in the queue, such as a liked
// song played from the library view.
func (s *Session) PlayTrack(track models.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue.SetCurrent(track)
	s.transport.RequestAutoPlay()
	s.startCurrentLocked()
	s.notifyLocked()
}

// Next advances to the next track per the current shuffle and repeat
// settings. At the end of the queue with repeat off, playback stops.
func (s *Session) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue.Next() {
		s.loadCurrentLocked()
	}
	s.notifyLocked()
}

// Previous moves to the previous track, wrapping from the first to the
// last.
func (s *Session) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue.Previous() {
		s.loadCurrentLocked()
	}
	s.notifyLocked()
}

// SetShuffled turns shuffle on or off.
func (s *Session) SetShuffled(enable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue.SetShuffled(enable)
	s.logger.WithField("shuffled", enable).Debug("Shuffle changed")
	s.notifyLocked()
}

// ToggleShuffle flips shuffle and returns the new setting.
func (s *Session) ToggleShuffle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	enable := !s.queue.Shuffled()
	s.queue.SetShuffled(enable)
	s.notifyLocked()
	return enable
}

// SetRepeatMode sets the repeat mode directly.
func (s *Session) SetRepeatMode(mode RepeatMode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue.SetRepeatMode(mode)
	s.notifyLocked()
}

// CycleRepeatMode advances off -> all -> one -> off and returns the new
// mode.
func (s *Session) CycleRepeatMode() RepeatMode {
	s.mu.Lock()
	defer s.mu.Unlock()

	mode := s.queue.CycleRepeatMode()
	s.notifyLocked()
	return mode
}

// Play resumes or starts playback of the current track.
func (s *Session) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transport.Play()
	s.notifyLocked()
}

// Pause suspends playback.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transport.Pause()
	s.notifyLocked()
}

// TogglePlay flips between playing and paused.
func (s *Session) TogglePlay() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transport.TogglePlay()
	s.notifyLocked()
}

// ReportPlaybackFailure records that the client could not start the audio
// source. The session drops to paused instead of claiming playback.
func (s *Session) ReportPlaybackFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transport.MarkPlaybackFailed()
	s.logger.Warn("Playback failed to start, reverting to paused")
	s.notifyLocked()
}

// Seek moves the playback position within the current track.
func (s *Session) Seek(seconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transport.Seek(seconds)
	s.notifyLocked()
}

// SetVolume sets the session volume.
func (s *Session) SetVolume(volume int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transport.SetVolume(volume)
	s.notifyLocked()
}

// Tick advances playback time by one second and handles the track-end
// transition when the track finishes.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transport.Tick() {
		s.handleTrackEndLocked()
	}
	s.notifyLocked()
}

// HandleTrackEnd applies the end-of-track contract: repeat-one restarts the
// same track, otherwise the queue advances; when it cannot advance the
// session stops at the end of the last track.
func (s *Session) HandleTrackEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handleTrackEndLocked()
	s.notifyLocked()
}

// SetUser binds the session to an authenticated user and loads their
// persisted liked songs. The session holds one user at a time; a later
// signup or login replaces the previous binding and its like state.
func (s *Session) SetUser(userID string, likedSongs []models.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userID = userID
	s.likes.Load(likedSongs)
	s.notifyLocked()
}

// ClearUser unbinds the user and empties the like state.
func (s *Session) ClearUser() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userID = ""
	s.likes.Clear()
	s.notifyLocked()
}

// ToggleLike flips the liked status of a track by id on behalf of an
// authenticated user. The track is resolved from the active queue first,
// then the source tracks, then the liked list, then the current track
// pointer.
func (s *Session) ToggleLike(store LikeStore, userID, trackID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userID == "" {
		return false, ErrAuthRequired
	}
	// A different authenticated caller rebinds the session. Drop the
	// previous user's like state so it cannot leak into the new user's
	// liked list or resolve their toggles.
	if s.userID != userID {
		if s.userID != "" {
			s.likes.Clear()
		}
		s.userID = userID
	}

	track := s.resolveTrackLocked(trackID)
	if track == nil {
		return false, ErrTrackNotFound
	}

	liked, err := s.likes.Toggle(store, userID, *track)
	if err != nil {
		s.logger.WithError(err).WithField("track_id", trackID).Warn("Like toggle rolled back")
		return liked, err
	}

	s.notifyLocked()
	return liked, nil
}

// IsLiked reports the liked status of a track id.
func (s *Session) IsLiked(trackID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.likes.IsLiked(trackID)
}

// LikedSongs returns the liked tracks in like order.
func (s *Session) LikedSongs() []models.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.likes.Tracks()
}

// Snapshot returns a consistent view of the full session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel that receives a snapshot after every state
// change. Slow subscribers miss intermediate snapshots rather than blocking
// the session.
func (s *Session) Subscribe() <-chan Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Snapshot, 8)
	s.listeners = append(s.listeners, ch)
	return ch
}

// resolveTrackLocked finds a track object by id across the in-memory
// collections in preference order.
func (s *Session) resolveTrackLocked(trackID string) *models.Track {
	if track := s.queue.FindTrack(trackID); track != nil {
		return track
	}
	if track := s.likes.FindTrack(trackID); track != nil {
		return track
	}
	if current := s.queue.Current(); current != nil && current.ID == trackID {
		return current
	}
	return nil
}

// startCurrentLocked loads the current track into the transport and, when
// an auto-play request is pending, starts it. The request flag is consumed
// either way so it cannot fire again later.
func (s *Session) startCurrentLocked() {
	current := s.queue.Current()
	if current == nil {
		return
	}
	s.transport.Load(*current)
	if s.transport.ConsumeAutoPlay() {
		if !s.transport.Play() {
			s.logger.WithField("track_id", current.ID).Warn("Track has no playable source")
		}
	}
}

// loadCurrentLocked loads the current track after queue navigation,
// preserving whether playback was running.
func (s *Session) loadCurrentLocked() {
	current := s.queue.Current()
	if current == nil {
		return
	}
	s.transport.Load(*current)
}

func (s *Session) handleTrackEndLocked() {
	if s.queue.RepeatMode() == RepeatOne {
		s.transport.Restart()
		return
	}
	if s.queue.Next() {
		s.loadCurrentLocked()
		s.transport.Play()
		return
	}
	// Queue exhausted with repeat off; stop at the end of the last track.
	s.transport.Pause()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		State:        s.transport.State().String(),
		CurrentTrack: s.queue.Current(),
		Queue:        s.queue.ActiveTracks(),
		QueueName:    s.queueName,
		Shuffled:     s.queue.Shuffled(),
		RepeatMode:   s.queue.RepeatMode().String(),
		Position:     s.transport.Position(),
		Duration:     s.transport.Duration(),
		Volume:       s.transport.Volume(),
		SourceURL:    s.transport.SourceURL(),
		LikedSongs:   s.likes.Tracks(),
	}
}

// notifyLocked fans the current snapshot out to subscribers without
// blocking on any of them.
func (s *Session) notifyLocked() {
	snapshot := s.snapshotLocked()
	for _, ch := range s.listeners {
		select {
		case ch <- snapshot:
		default:
		}
	}
}
