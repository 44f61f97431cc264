package player

import (
	"math/rand"

	"moodplay/pkg/models"
)

// RepeatMode controls navigation behavior at queue boundaries.
type RepeatMode int

const (
	// RepeatOff stops playback after the last track.
	RepeatOff RepeatMode = iota
	// RepeatAll wraps from the last track back to the first.
	RepeatAll
	// RepeatOne restarts the current track instead of advancing.
	RepeatOne
)

// String returns the wire name of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "off"
	}
}

// ParseRepeatMode converts a wire name back into a RepeatMode. Unknown
// names map to RepeatOff.
func ParseRepeatMode(name string) RepeatMode {
	switch name {
	case "all":
		return RepeatAll
	case "one":
		return RepeatOne
	default:
		return RepeatOff
	}
}

// Queue owns the ordered sequence of tracks eligible for playback, the
// shuffle and repeat settings, and the current track pointer. Navigation is
// id based: the current index is recomputed on every call by id lookup, so
// the active order can be replaced (by shuffling) mid-playback without
// invalidating the pointer.
//
// Queue is not safe for concurrent use; the session controller serializes
// access.
type Queue struct {
	sourceTracks  []models.Track
	originalOrder []models.Track
	activeQueue   []models.Track
	current       *models.Track
	shuffled      bool
	repeatMode    RepeatMode
}

// NewQueue returns an empty queue with repeat off.
func NewQueue() *Queue {
	return &Queue{}
}

// LoadTracks replaces the queue contents with a copy of tracks and restores
// natural order. The current track pointer and repeat mode deliberately
// survive a reload; callers that want to start the new set pick the first
// track themselves.
func (q *Queue) LoadTracks(tracks []models.Track) {
	q.sourceTracks = copyTracks(tracks)
	q.originalOrder = copyTracks(tracks)
	q.activeQueue = copyTracks(tracks)
	q.shuffled = false
}

// SetShuffled enables or disables shuffle. Enabling produces a uniformly
// random permutation of the source tracks with the current track, when one
// is set, pinned to position 0 so it keeps playing uninterrupted. Disabling
// restores the exact load-time order.
func (q *Queue) SetShuffled(enable bool) {
	if enable {
		if q.current != nil {
			rest := make([]models.Track, 0, len(q.sourceTracks))
			for _, t := range q.sourceTracks {
				if t.ID != q.current.ID {
					rest = append(rest, t)
				}
			}
			shuffleTracks(rest)
			q.activeQueue = append([]models.Track{*q.current}, rest...)
		} else {
			q.activeQueue = copyTracks(q.sourceTracks)
			shuffleTracks(q.activeQueue)
		}
	} else {
		q.activeQueue = copyTracks(q.originalOrder)
	}
	q.shuffled = enable
}

// SetRepeatMode sets the repeat mode without touching queue order.
func (q *Queue) SetRepeatMode(mode RepeatMode) {
	q.repeatMode = mode
}

// CycleRepeatMode advances off -> all -> one -> off and returns the new mode.
func (q *Queue) CycleRepeatMode() RepeatMode {
	switch q.repeatMode {
	case RepeatOff:
		q.repeatMode = RepeatAll
	case RepeatAll:
		q.repeatMode = RepeatOne
	default:
		q.repeatMode = RepeatOff
	}
	return q.repeatMode
}

// Next advances the current track pointer. It reports whether the pointer
// changed so the transport knows if a new track needs loading.
//
// With an empty queue or repeat-one it does nothing. With no current track
// it selects the first. Otherwise it advances by one, wrapping with repeat
// all and stopping at the last track with repeat off. A current track that
// is no longer in the queue resolves to index -1, so the next track is the
// first.
func (q *Queue) Next() bool {
	if len(q.activeQueue) == 0 {
		return false
	}
	if q.current == nil {
		q.setCurrent(q.activeQueue[0])
		return true
	}
	if q.repeatMode == RepeatOne {
		return false
	}

	index := q.indexOf(q.current.ID)
	if q.repeatMode == RepeatOff && index == len(q.activeQueue)-1 {
		return false
	}
	next := (index + 1) % len(q.activeQueue)
	q.setCurrent(q.activeQueue[next])
	return true
}

// Previous moves the current track pointer back by one, wrapping from the
// first track to the last regardless of repeat mode. Reports whether the
// pointer changed.
func (q *Queue) Previous() bool {
	if len(q.activeQueue) == 0 {
		return false
	}
	if q.current == nil {
		q.setCurrent(q.activeQueue[0])
		return true
	}

	index := q.indexOf(q.current.ID)
	prev := index - 1
	if index <= 0 {
		prev = len(q.activeQueue) - 1
	}
	q.setCurrent(q.activeQueue[prev])
	return true
}

// SelectTrack sets the current track pointer to the queue entry with the
// given id. Reports whether the id was found.
func (q *Queue) SelectTrack(trackID string) bool {
	for _, t := range q.activeQueue {
		if t.ID == trackID {
			q.setCurrent(t)
			return true
		}
	}
	return false
}

// SetCurrent points the queue at an explicit track, which need not be a
// queue member (a liked song played directly, for example).
func (q *Queue) SetCurrent(track models.Track) {
	q.setCurrent(track)
}

// ClearCurrent drops the current track pointer.
func (q *Queue) ClearCurrent() {
	q.current = nil
}

// Current returns a copy of the current track, or nil when idle.
func (q *Queue) Current() *models.Track {
	if q.current == nil {
		return nil
	}
	track := *q.current
	return &track
}

// ActiveTracks returns a copy of the active play order.
func (q *Queue) ActiveTracks() []models.Track {
	return copyTracks(q.activeQueue)
}

// SourceTracks returns a copy of the tracks as loaded.
func (q *Queue) SourceTracks() []models.Track {
	return copyTracks(q.sourceTracks)
}

// Shuffled reports whether shuffle is on.
func (q *Queue) Shuffled() bool {
	return q.shuffled
}

// RepeatMode returns the current repeat mode.
func (q *Queue) RepeatMode() RepeatMode {
	return q.repeatMode
}

// Len returns the number of tracks in the active queue.
func (q *Queue) Len() int {
	return len(q.activeQueue)
}

// FindTrack looks up a track by id across the active queue, then the source
// tracks.
func (q *Queue) FindTrack(trackID string) *models.Track {
	for _, t := range q.activeQueue {
		if t.ID == trackID {
			track := t
			return &track
		}
	}
	for _, t := range q.sourceTracks {
		if t.ID == trackID {
			track := t
			return &track
		}
	}
	return nil
}

func (q *Queue) setCurrent(track models.Track) {
	q.current = &track
}

// indexOf returns the active-queue index of a track id, or -1 when absent.
func (q *Queue) indexOf(trackID string) int {
	for i, t := range q.activeQueue {
		if t.ID == trackID {
			return i
		}
	}
	return -1
}

func copyTracks(tracks []models.Track) []models.Track {
	out := make([]models.Track, len(tracks))
	copy(out, tracks)
	return out
}

// shuffleTracks permutes tracks in place with Fisher-Yates.
func shuffleTracks(tracks []models.Track) {
	for i := len(tracks) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		tracks[i], tracks[j] = tracks[j], tracks[i]
	}
}
