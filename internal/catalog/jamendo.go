package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"

	"moodplay/pkg/models"

	"github.com/sirupsen/logrus"
)

// jamendoMoodTags maps a mood name to the Jamendo fuzzy tag used to select
// tracks matching that mood.
var jamendoMoodTags = map[string]string{
	models.MoodHappy:   "energetic",
	models.MoodSad:     "sad",
	models.MoodChill:   "chill",
	models.MoodFocused: "classical",
}

// JamendoClient queries the Jamendo track API.
type JamendoClient struct {
	baseURL  string
	clientID string
	client   *http.Client
	logger   *logrus.Logger
}

// NewJamendoClient creates a Jamendo API client. An empty clientID disables
// the client; callers should check Enabled() before use.
func NewJamendoClient(baseURL, clientID string, httpClient *http.Client, logger *logrus.Logger) *JamendoClient {
	return &JamendoClient{
		baseURL:  baseURL,
		clientID: clientID,
		client:   httpClient,
		logger:   logger,
	}
}

// Enabled reports whether the client has an API key configured.
func (j *JamendoClient) Enabled() bool {
	return j.clientID != ""
}

type jamendoTrack struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ArtistName    string `json:"artist_name"`
	AlbumName     string `json:"album_name"`
	Duration      int    `json:"duration"`
	Audio         string `json:"audio"`
	AudioDownload string `json:"audiodownload"`
	Image         string `json:"image"`
}

type jamendoResponse struct {
	Results []jamendoTrack `json:"results"`
}

// TracksForMood fetches tracks tagged for a mood. The mood must be one of
// the fixed mood names.
func (j *JamendoClient) TracksForMood(ctx context.Context, mood string, limit int) ([]models.Track, error) {
	tag, ok := jamendoMoodTags[mood]
	if !ok {
		return nil, fmt.Errorf("unknown mood: %s", mood)
	}

	params := url.Values{}
	params.Set("fuzzytags", tag)
	params.Set("order", "popularity_total")
	// Random offset so repeated requests for a mood rotate through the
	// popular tracks instead of always returning the same page.
	params.Set("offset", strconv.Itoa(rand.Intn(5)*limit))
	return j.fetch(ctx, params, limit)
}

// Search performs a free-text search across track names and artists.
func (j *JamendoClient) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	params := url.Values{}
	params.Set("search", query)
	return j.fetch(ctx, params, limit)
}

// Trending returns the currently most popular tracks.
func (j *JamendoClient) Trending(ctx context.Context, limit int) ([]models.Track, error) {
	params := url.Values{}
	params.Set("order", "popularity_week")
	return j.fetch(ctx, params, limit)
}

func (j *JamendoClient) fetch(ctx context.Context, params url.Values, limit int) ([]models.Track, error) {
	params.Set("client_id", j.clientID)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("include", "musicinfo")
	params.Set("audioformat", "mp32")

	endpoint := j.baseURL + "/tracks/?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build jamendo request: %w", err)
	}

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jamendo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jamendo returned status %d", resp.StatusCode)
	}

	var body jamendoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode jamendo response: %w", err)
	}

	tracks := make([]models.Track, 0, len(body.Results))
	for _, t := range body.Results {
		if t.Audio == "" && t.AudioDownload == "" {
			continue
		}
		tracks = append(tracks, models.Track{
			ID:            t.ID,
			Title:         t.Name,
			Artist:        t.ArtistName,
			Album:         t.AlbumName,
			Duration:      models.FormatDuration(t.Duration),
			Audio:         t.Audio,
			AudioDownload: t.AudioDownload,
			Image:         t.Image,
			Source:        models.SourceJamendo,
		})
	}

	j.logger.WithField("count", len(tracks)).Debug("Fetched tracks from Jamendo")
	return tracks, nil
}
