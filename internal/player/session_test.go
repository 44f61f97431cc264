package player

import (
	"errors"
	"io"
	"testing"

	"moodplay/pkg/models"

	"github.com/sirupsen/logrus"
)

func newTestSession() *Session {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewSession(logger)
}

func TestSessionLoadTracks(t *testing.T) {
	t.Run("BrowseDoesNotTouchCurrent", func(t *testing.T) {
		s := newTestSession()
		first := makeTracks(3)
		s.LoadTracks("Happy Mix", first, true)

		playing := s.Snapshot().CurrentTrack
		if playing == nil {
			t.Fatal("auto-play load selected no track")
		}

		s.LoadTracks("Chill Mix", makeTracks(5), false)
		snap := s.Snapshot()
		if snap.CurrentTrack == nil || snap.CurrentTrack.ID != playing.ID {
			t.Error("browsing a new queue replaced the current track")
		}
		if snap.QueueName != "Chill Mix" {
			t.Errorf("expected queue name to update, got %q", snap.QueueName)
		}
	})

	t.Run("AutoPlayStartsFirstTrack", func(t *testing.T) {
		s := newTestSession()
		s.LoadTracks("Happy Mix", makeTracks(3), true)

		snap := s.Snapshot()
		if snap.CurrentTrack == nil || snap.CurrentTrack.ID != "t1" {
			t.Fatalf("expected t1 current, got %v", snap.CurrentTrack)
		}
		if snap.State != "playing" {
			t.Errorf("expected playing state, got %s", snap.State)
		}
	})
}

func TestSessionTrackEnd(t *testing.T) {
	t.Run("RepeatOneRestartsSameTrack", func(t *testing.T) {
		s := newTestSession()
		s.LoadTracks("Mix", makeTracks(3), true)
		s.SetRepeatMode(RepeatOne)
		s.Seek(100)

		s.HandleTrackEnd()
		snap := s.Snapshot()
		if snap.CurrentTrack.ID != "t1" {
			t.Fatalf("repeat one advanced to %s", snap.CurrentTrack.ID)
		}
		if snap.Position != 0 {
			t.Errorf("repeat one did not rewind, position %d", snap.Position)
		}
		if snap.State != "playing" {
			t.Errorf("repeat one stopped playback, state %s", snap.State)
		}
	})

	t.Run("AdvancesAndKeepsPlaying", func(t *testing.T) {
		s := newTestSession()
		s.LoadTracks("Mix", makeTracks(3), true)

		s.HandleTrackEnd()
		snap := s.Snapshot()
		if snap.CurrentTrack.ID != "t2" {
			t.Fatalf("expected advance to t2, got %s", snap.CurrentTrack.ID)
		}
		if snap.State != "playing" {
			t.Errorf("expected playing after advance, got %s", snap.State)
		}
	})

	t.Run("StopsAtQueueEndWithRepeatOff", func(t *testing.T) {
		s := newTestSession()
		tracks := makeTracks(3)
		s.LoadTracks("Mix", tracks, true)
		if err := s.SelectTrack("t3"); err != nil {
			t.Fatalf("select failed: %v", err)
		}

		s.HandleTrackEnd()
		snap := s.Snapshot()
		if snap.CurrentTrack.ID != "t3" {
			t.Fatalf("queue end advanced to %s", snap.CurrentTrack.ID)
		}
		if snap.State == "playing" {
			t.Error("expected playback stopped at queue end")
		}
	})

	t.Run("TickDrivesTrackEnd", func(t *testing.T) {
		s := newTestSession()
		tracks := []models.Track{
			{ID: "s1", Title: "Short", Duration: "0:02", Audio: "url"},
			{ID: "s2", Title: "Next", Duration: "3:00", Audio: "url"},
		}
		s.LoadTracks("Mix", tracks, true)

		s.Tick()
		s.Tick()
		snap := s.Snapshot()
		if snap.CurrentTrack.ID != "s2" {
			t.Fatalf("expected tick-driven advance to s2, got %s", snap.CurrentTrack.ID)
		}
	})
}

func TestSessionToggleLike(t *testing.T) {
	t.Run("ResolvesFromQueue", func(t *testing.T) {
		s := newTestSession()
		tracks := makeTracks(3)
		s.LoadTracks("Mix", tracks, false)
		store := &fakeLikeStore{}

		liked, err := s.ToggleLike(store, "user-1", "t2")
		if err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
		if !liked || !s.IsLiked("t2") {
			t.Error("expected t2 liked")
		}
		if len(store.added) != 1 || store.added[0] != "t2" {
			t.Errorf("store saw %v", store.added)
		}
	})

	t.Run("ResolvesFromLikedList", func(t *testing.T) {
		s := newTestSession()
		liked := makeTracks(2)
		s.SetUser("user-1", liked)
		store := &fakeLikeStore{}

		// t1 is only in the liked list; unliking must still resolve it.
		nowLiked, err := s.ToggleLike(store, "user-1", "t1")
		if err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
		if nowLiked || s.IsLiked("t1") {
			t.Error("expected t1 unliked")
		}
	})

	t.Run("ResolvesCurrentTrackOutsideQueue", func(t *testing.T) {
		s := newTestSession()
		s.SetUser("user-1", nil)
		s.PlayTrack(models.Track{ID: "solo", Title: "Single", Duration: "2:00", Audio: "url"})
		store := &fakeLikeStore{}

		liked, err := s.ToggleLike(store, "user-1", "solo")
		if err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
		if !liked {
			t.Error("expected current track likeable")
		}
	})

	t.Run("UnknownTrackIsRejected", func(t *testing.T) {
		s := newTestSession()
		s.SetUser("user-1", nil)
		store := &fakeLikeStore{}

		_, err := s.ToggleLike(store, "user-1", "nope")
		if !errors.Is(err, ErrTrackNotFound) {
			t.Fatalf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("UnauthenticatedIsRejected", func(t *testing.T) {
		s := newTestSession()
		s.LoadTracks("Mix", makeTracks(1), false)
		store := &fakeLikeStore{}

		_, err := s.ToggleLike(store, "", "t1")
		if !errors.Is(err, ErrAuthRequired) {
			t.Fatalf("expected ErrAuthRequired, got %v", err)
		}
	})
}

func TestSessionSubscribe(t *testing.T) {
	s := newTestSession()
	ch := s.Subscribe()

	s.LoadTracks("Mix", makeTracks(2), false)

	select {
	case snap := <-ch:
		if len(snap.Queue) != 2 {
			t.Errorf("snapshot queue has %d tracks", len(snap.Queue))
		}
	default:
		t.Fatal("no snapshot delivered to subscriber")
	}
}

func TestSessionShuffleAndVolume(t *testing.T) {
	s := newTestSession()
	s.LoadTracks("Mix", makeTracks(10), true)

	if !s.ToggleShuffle() {
		t.Fatal("expected shuffle on")
	}
	snap := s.Snapshot()
	if !snap.Shuffled {
		t.Error("snapshot does not report shuffle")
	}
	if snap.Queue[0].ID != "t1" {
		t.Errorf("playing track not pinned after shuffle, got %s", snap.Queue[0].ID)
	}

	s.SetVolume(40)
	s.Next()
	if got := s.Snapshot().Volume; got != 40 {
		t.Errorf("volume lost across navigation: %d", got)
	}
}

func TestToggleLikeRebindsUser(t *testing.T) {
	s := newTestSession()
	s.LoadTracks("Mix", makeTracks(3), false)
	store := &fakeLikeStore{}

	if _, err := s.ToggleLike(store, "user-a", "t1"); err != nil {
		t.Fatalf("first user's toggle failed: %v", err)
	}
	if !s.IsLiked("t1") {
		t.Fatal("first user's like not applied")
	}

	liked, err := s.ToggleLike(store, "user-b", "t2")
	if err != nil {
		t.Fatalf("second user's toggle failed: %v", err)
	}
	if !liked {
		t.Error("second user's toggle should like the track")
	}
	if s.IsLiked("t1") {
		t.Error("previous user's like survived the rebind")
	}

	songs := s.LikedSongs()
	if len(songs) != 1 || songs[0].ID != "t2" {
		t.Errorf("expected only t2 liked after rebind, got %v", idsOf(songs))
	}

	// Same user again keeps their own state.
	if _, err := s.ToggleLike(store, "user-b", "t3"); err != nil {
		t.Fatalf("repeat toggle failed: %v", err)
	}
	if got := len(s.LikedSongs()); got != 2 {
		t.Errorf("expected 2 liked tracks for the same user, got %d", got)
	}
}
