package cache

import (
	"testing"
	"time"

	"moodplay/pkg/models"
)

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache(0)

	t.Run("SetAndGet", func(t *testing.T) {
		cache.Set("key", "value", time.Minute)

		value, found := cache.Get("key")
		if !found {
			t.Fatal("Expected to find cached value")
		}
		if value != "value" {
			t.Errorf("Expected 'value', got %v", value)
		}
	})

	t.Run("Expiration", func(t *testing.T) {
		cache.Set("shortlived", "x", 10*time.Millisecond)
		time.Sleep(20 * time.Millisecond)

		if _, found := cache.Get("shortlived"); found {
			t.Error("Expected expired item to be gone")
		}
	})

	t.Run("ZeroTTLNeverExpires", func(t *testing.T) {
		cache.Set("forever", "y", 0)
		time.Sleep(10 * time.Millisecond)

		if _, found := cache.Get("forever"); !found {
			t.Error("Zero TTL item expired")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		cache.Set("doomed", "z", time.Minute)
		cache.Delete("doomed")

		if _, found := cache.Get("doomed"); found {
			t.Error("Deleted item still present")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		cache.Set("a", 1, time.Minute)
		cache.Set("b", 2, time.Minute)
		cache.Clear()

		if cache.ItemCount() != 0 {
			t.Errorf("Expected empty cache, got %d items", cache.ItemCount())
		}
	})
}

func TestTrackListCache(t *testing.T) {
	tc := NewTrackListCache(time.Minute)
	defer tc.Stop()

	tracks := []models.Track{
		{ID: "1", Title: "One", Duration: "1:00"},
		{ID: "2", Title: "Two", Duration: "2:00"},
	}

	tc.SetTracks("mood:Happy", tracks)

	got, found := tc.GetTracks("mood:Happy")
	if !found {
		t.Fatal("Expected cached track list")
	}
	if len(got) != 2 || got[0].ID != "1" {
		t.Errorf("Unexpected cached tracks: %+v", got)
	}

	if _, found := tc.GetTracks("mood:Sad"); found {
		t.Error("Found tracks for uncached key")
	}

	tc.Clear()
	if _, found := tc.GetTracks("mood:Happy"); found {
		t.Error("Cache not cleared")
	}
}
