package player

import (
	"errors"

	"moodplay/internal/database"
	"moodplay/pkg/models"
)

// ErrAuthRequired is returned when an unauthenticated session attempts a
// like toggle.
var ErrAuthRequired = errors.New("authentication required")

// ErrTrackNotFound is returned when a like toggle names a track id that no
// in-memory collection holds.
var ErrTrackNotFound = errors.New("track not found")

// LikeStore persists like mutations. *database.Database satisfies it.
type LikeStore interface {
	AddLikedSong(userID string, track models.Track) error
	RemoveLikedSong(userID, trackID string) error
}

// LikeState holds the liked track ids and the liked track list in like
// order. The two stay in bijection: every id has exactly one track object
// and vice versa.
//
// Mutations are optimistic: the local state flips before the persistence
// call and is reverted exactly if that call fails.
//
// LikeState is not safe for concurrent use; the session controller
// serializes access.
type LikeState struct {
	likedIDs    map[string]struct{}
	likedTracks []models.Track
}

// NewLikeState returns an empty like state.
func NewLikeState() *LikeState {
	return &LikeState{
		likedIDs:    make(map[string]struct{}),
		likedTracks: []models.Track{},
	}
}

// Load replaces the like state from persisted storage, typically on login.
func (ls *LikeState) Load(tracks []models.Track) {
	ls.likedIDs = make(map[string]struct{}, len(tracks))
	ls.likedTracks = make([]models.Track, 0, len(tracks))
	for _, t := range tracks {
		if _, seen := ls.likedIDs[t.ID]; seen {
			continue
		}
		ls.likedIDs[t.ID] = struct{}{}
		ls.likedTracks = append(ls.likedTracks, t)
	}
}

// Clear empties the like state, typically on logout.
func (ls *LikeState) Clear() {
	ls.likedIDs = make(map[string]struct{})
	ls.likedTracks = []models.Track{}
}

// IsLiked reports membership of a track id.
func (ls *LikeState) IsLiked(trackID string) bool {
	_, ok := ls.likedIDs[trackID]
	return ok
}

// Tracks returns a copy of the liked tracks in like order.
func (ls *LikeState) Tracks() []models.Track {
	out := make([]models.Track, len(ls.likedTracks))
	copy(out, ls.likedTracks)
	return out
}

// Count returns the number of liked tracks.
func (ls *LikeState) Count() int {
	return len(ls.likedTracks)
}

// FindTrack returns the liked track with the given id, or nil.
func (ls *LikeState) FindTrack(trackID string) *models.Track {
	for _, t := range ls.likedTracks {
		if t.ID == trackID {
			track := t
			return &track
		}
	}
	return nil
}

// Toggle flips a track's liked status optimistically and persists the
// change through store. On persistence failure the local state is reverted
// to its pre-toggle value. A conflict answer from the store (already liked,
// or already removed) means storage agrees with the optimistic state, so no
// rollback happens. Returns the resulting liked status.
func (ls *LikeState) Toggle(store LikeStore, userID string, track models.Track) (bool, error) {
	if userID == "" {
		return ls.IsLiked(track.ID), ErrAuthRequired
	}

	wasLiked := ls.IsLiked(track.ID)
	prevTracks := ls.Tracks()

	// Optimistic flip before the persistence call.
	if wasLiked {
		ls.remove(track.ID)
	} else {
		ls.add(track)
	}

	var err error
	if wasLiked {
		err = store.RemoveLikedSong(userID, track.ID)
	} else {
		err = store.AddLikedSong(userID, track)
	}

	if err != nil {
		if errors.Is(err, database.ErrAlreadyLiked) || errors.Is(err, database.ErrNotFound) {
			// Storage already matches the optimistic state.
			return !wasLiked, nil
		}
		// Revert to the exact pre-toggle state, like order included.
		ls.Load(prevTracks)
		return wasLiked, err
	}

	return !wasLiked, nil
}

func (ls *LikeState) add(track models.Track) {
	if ls.IsLiked(track.ID) {
		return
	}
	ls.likedIDs[track.ID] = struct{}{}
	ls.likedTracks = append(ls.likedTracks, track)
}

func (ls *LikeState) remove(trackID string) {
	delete(ls.likedIDs, trackID)
	for i, t := range ls.likedTracks {
		if t.ID == trackID {
			ls.likedTracks = append(ls.likedTracks[:i], ls.likedTracks[i+1:]...)
			return
		}
	}
}
