package database

import (
	"errors"
	"path/filepath"
	"testing"

	"moodplay/pkg/models"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testTrack(id string) models.Track {
	return models.Track{
		ID:       id,
		Title:    "Song " + id,
		Artist:   "Artist",
		Album:    "Album",
		Duration: "3:12",
		Audio:    "https://example.com/" + id + ".mp3",
		Source:   models.SourceJamendo,
	}
}

func TestUsers(t *testing.T) {
	db := newTestDatabase(t)

	t.Run("CreateAndGetUser", func(t *testing.T) {
		user, err := db.CreateUser("alice@example.com", "hash", "Alice")
		if err != nil {
			t.Fatalf("Failed to create user: %v", err)
		}
		if user.ID == "" {
			t.Fatal("Expected generated user ID")
		}

		byEmail, err := db.GetUserByEmail("alice@example.com")
		if err != nil {
			t.Fatalf("Failed to get user by email: %v", err)
		}
		if byEmail.ID != user.ID || byEmail.Name != "Alice" {
			t.Errorf("Unexpected user record: %+v", byEmail)
		}

		byID, err := db.GetUserByID(user.ID)
		if err != nil {
			t.Fatalf("Failed to get user by ID: %v", err)
		}
		if byID.Email != "alice@example.com" {
			t.Errorf("Expected email alice@example.com, got %s", byID.Email)
		}
	})

	t.Run("DuplicateEmailRejected", func(t *testing.T) {
		_, err := db.CreateUser("alice@example.com", "hash2", "Other Alice")
		if !errors.Is(err, ErrDuplicateEmail) {
			t.Fatalf("Expected ErrDuplicateEmail, got %v", err)
		}
	})

	t.Run("UnknownUserNotFound", func(t *testing.T) {
		if _, err := db.GetUserByEmail("nobody@example.com"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		if _, err := db.GetUserByID("missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdatePassword", func(t *testing.T) {
		user, _ := db.GetUserByEmail("alice@example.com")
		if err := db.UpdatePassword(user.ID, "newhash"); err != nil {
			t.Fatalf("Failed to update password: %v", err)
		}

		updated, _ := db.GetUserByID(user.ID)
		if updated.PasswordHash != "newhash" {
			t.Error("Password hash not updated")
		}

		if err := db.UpdatePassword("missing", "x"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound for missing user, got %v", err)
		}
	})

	t.Run("DeleteUserCascades", func(t *testing.T) {
		user, err := db.CreateUser("bob@example.com", "hash", "Bob")
		if err != nil {
			t.Fatalf("Failed to create user: %v", err)
		}
		if err := db.AddLikedSong(user.ID, testTrack("cascade1")); err != nil {
			t.Fatalf("Failed to like song: %v", err)
		}

		if err := db.DeleteUser(user.ID); err != nil {
			t.Fatalf("Failed to delete user: %v", err)
		}
		if _, err := db.GetUserByID(user.ID); !errors.Is(err, ErrNotFound) {
			t.Error("User still present after delete")
		}

		liked, err := db.GetLikedSongs(user.ID)
		if err != nil {
			t.Fatalf("Failed to query liked songs: %v", err)
		}
		if len(liked) != 0 {
			t.Errorf("Liked songs survived user delete: %d", len(liked))
		}
	})
}

func TestLikedSongs(t *testing.T) {
	db := newTestDatabase(t)
	user, err := db.CreateUser("carol@example.com", "hash", "Carol")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	t.Run("LikeOrderPreserved", func(t *testing.T) {
		for _, id := range []string{"a", "b", "c"} {
			if err := db.AddLikedSong(user.ID, testTrack(id)); err != nil {
				t.Fatalf("Failed to like %s: %v", id, err)
			}
		}

		liked, err := db.GetLikedSongs(user.ID)
		if err != nil {
			t.Fatalf("Failed to get liked songs: %v", err)
		}
		if len(liked) != 3 {
			t.Fatalf("Expected 3 liked songs, got %d", len(liked))
		}
		for i, want := range []string{"a", "b", "c"} {
			if liked[i].ID != want {
				t.Errorf("Position %d: expected %s, got %s", i, want, liked[i].ID)
			}
		}
		if liked[0].Title != "Song a" || liked[0].Duration != "3:12" {
			t.Errorf("Track fields not round-tripped: %+v", liked[0])
		}
	})

	t.Run("DuplicateLikeRejected", func(t *testing.T) {
		err := db.AddLikedSong(user.ID, testTrack("a"))
		if !errors.Is(err, ErrAlreadyLiked) {
			t.Fatalf("Expected ErrAlreadyLiked, got %v", err)
		}
	})

	t.Run("RemoveLikedSong", func(t *testing.T) {
		if err := db.RemoveLikedSong(user.ID, "b"); err != nil {
			t.Fatalf("Failed to remove liked song: %v", err)
		}

		liked, _ := db.GetLikedSongs(user.ID)
		if len(liked) != 2 || liked[0].ID != "a" || liked[1].ID != "c" {
			t.Errorf("Unexpected liked list after removal: %+v", liked)
		}

		if err := db.RemoveLikedSong(user.ID, "b"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound for repeat removal, got %v", err)
		}
	})
}

func TestPlaylists(t *testing.T) {
	db := newTestDatabase(t)
	user, err := db.CreateUser("dave@example.com", "hash", "Dave")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	playlist, err := db.CreatePlaylist(user.ID, "Road Trip")
	if err != nil {
		t.Fatalf("Failed to create playlist: %v", err)
	}

	t.Run("GetPlaylists", func(t *testing.T) {
		playlists, err := db.GetPlaylists(user.ID)
		if err != nil {
			t.Fatalf("Failed to get playlists: %v", err)
		}
		if len(playlists) != 1 || playlists[0].Name != "Road Trip" {
			t.Fatalf("Unexpected playlists: %+v", playlists)
		}
		if playlists[0].Tracks == nil {
			t.Error("Expected empty track slice, got nil")
		}
	})

	t.Run("AddAndRemoveTracks", func(t *testing.T) {
		for _, id := range []string{"x", "y"} {
			if err := db.AddTrackToPlaylist(user.ID, playlist.ID, testTrack(id)); err != nil {
				t.Fatalf("Failed to add track %s: %v", id, err)
			}
		}

		if err := db.AddTrackToPlaylist(user.ID, playlist.ID, testTrack("x")); !errors.Is(err, ErrDuplicateTrack) {
			t.Fatalf("Expected ErrDuplicateTrack, got %v", err)
		}

		got, err := db.GetPlaylist(user.ID, playlist.ID)
		if err != nil {
			t.Fatalf("Failed to get playlist: %v", err)
		}
		if len(got.Tracks) != 2 || got.Tracks[0].ID != "x" {
			t.Errorf("Unexpected playlist tracks: %+v", got.Tracks)
		}

		if err := db.RemoveTrackFromPlaylist(user.ID, playlist.ID, "x"); err != nil {
			t.Fatalf("Failed to remove track: %v", err)
		}
		got, _ = db.GetPlaylist(user.ID, playlist.ID)
		if len(got.Tracks) != 1 || got.Tracks[0].ID != "y" {
			t.Errorf("Unexpected playlist tracks after removal: %+v", got.Tracks)
		}
	})

	t.Run("OwnershipEnforced", func(t *testing.T) {
		other, err := db.CreateUser("eve@example.com", "hash", "Eve")
		if err != nil {
			t.Fatalf("Failed to create user: %v", err)
		}

		if _, err := db.GetPlaylist(other.ID, playlist.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound for foreign playlist, got %v", err)
		}
		if err := db.AddTrackToPlaylist(other.ID, playlist.ID, testTrack("z")); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound for foreign playlist mutation, got %v", err)
		}
		if err := db.DeletePlaylist(other.ID, playlist.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound for foreign playlist delete, got %v", err)
		}
	})

	t.Run("DeletePlaylist", func(t *testing.T) {
		if err := db.DeletePlaylist(user.ID, playlist.ID); err != nil {
			t.Fatalf("Failed to delete playlist: %v", err)
		}
		if _, err := db.GetPlaylist(user.ID, playlist.ID); !errors.Is(err, ErrNotFound) {
			t.Error("Playlist still present after delete")
		}
	})
}
