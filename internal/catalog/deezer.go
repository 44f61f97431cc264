package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"moodplay/pkg/models"

	"github.com/sirupsen/logrus"
)

// deezerMoodQueries maps a mood name to the search phrase used against the
// Deezer API when Jamendo yields nothing.
var deezerMoodQueries = map[string]string{
	models.MoodHappy:   "happy upbeat pop",
	models.MoodSad:     "sad emotional ballad",
	models.MoodChill:   "chill lofi ambient",
	models.MoodFocused: "instrumental focus classical",
}

// DeezerClient queries the Deezer public search API. Deezer only exposes
// 30 second previews, so its tracks carry a preview URL rather than a full
// audio URL.
type DeezerClient struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

// NewDeezerClient creates a Deezer API client. No API key is required.
func NewDeezerClient(baseURL string, httpClient *http.Client, logger *logrus.Logger) *DeezerClient {
	return &DeezerClient{
		baseURL: baseURL,
		client:  httpClient,
		logger:  logger,
	}
}

type deezerTrack struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Preview string `json:"preview"`
	Artist  struct {
		Name string `json:"name"`
	} `json:"artist"`
	Album struct {
		Title  string `json:"title"`
		Cover  string `json:"cover_medium"`
		CoverL string `json:"cover_big"`
	} `json:"album"`
	Duration int `json:"duration"`
}

type deezerResponse struct {
	Data []deezerTrack `json:"data"`
}

// TracksForMood searches Deezer using the mood's canned search phrase.
func (d *DeezerClient) TracksForMood(ctx context.Context, mood string, limit int) ([]models.Track, error) {
	query, ok := deezerMoodQueries[mood]
	if !ok {
		return nil, fmt.Errorf("unknown mood: %s", mood)
	}
	return d.Search(ctx, query, limit)
}

// Search performs a free-text track search.
func (d *DeezerClient) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	return d.fetch(ctx, "/search?"+params.Encode())
}

// SearchArtist searches for tracks by an artist using Deezer's qualified
// query syntax.
func (d *DeezerClient) SearchArtist(ctx context.Context, artist string, limit int) ([]models.Track, error) {
	return d.Search(ctx, fmt.Sprintf("artist:%q", artist), limit)
}

// SearchAlbum searches for tracks from a named album.
func (d *DeezerClient) SearchAlbum(ctx context.Context, album string, limit int) ([]models.Track, error) {
	return d.Search(ctx, fmt.Sprintf("album:%q", album), limit)
}

// Chart returns Deezer's global track chart.
func (d *DeezerClient) Chart(ctx context.Context, limit int) ([]models.Track, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	return d.fetch(ctx, "/chart/0/tracks?"+params.Encode())
}

func (d *DeezerClient) fetch(ctx context.Context, path string) ([]models.Track, error) {
	endpoint := d.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build deezer request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deezer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deezer returned status %d", resp.StatusCode)
	}

	var body deezerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode deezer response: %w", err)
	}

	tracks := make([]models.Track, 0, len(body.Data))
	for _, t := range body.Data {
		if t.Preview == "" {
			continue
		}
		image := t.Album.CoverL
		if image == "" {
			image = t.Album.Cover
		}
		tracks = append(tracks, models.Track{
			ID:       strconv.FormatInt(t.ID, 10),
			Title:    t.Title,
			Artist:   t.Artist.Name,
			Album:    t.Album.Title,
			Duration: models.FormatDuration(t.Duration),
			Preview:  t.Preview,
			Image:    image,
			Source:   models.SourceDeezer,
		})
	}

	d.logger.WithField("count", len(tracks)).Debug("Fetched tracks from Deezer")
	return tracks, nil
}
