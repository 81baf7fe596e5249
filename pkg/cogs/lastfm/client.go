package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	// Cover art arrives as JPEG or PNG, occasionally GIF.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

const defaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

// Album is one entry from user.getTopAlbums.
type Album struct {
	Name   string `json:"name"`
	Artist struct {
		Name string `json:"name"`
	} `json:"artist"`
	Image []AlbumImage `json:"image"`
}

// AlbumImage is one size variant of the cover art.
type AlbumImage struct {
	Size string `json:"size"`
	URL  string `json:"#text"`
}

// Client talks to the Last.fm web service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
}

// NewClient builds a client with the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		userAgent:  "uniyx-lastfm-cog/1.0",
	}
}

// TopAlbums fetches the user's top albums for an API period value such
// as "7day" or "overall".
func (c *Client) TopAlbums(ctx context.Context, username, period string, limit int) ([]Album, error) {
	params := url.Values{}
	params.Set("method", "user.gettopalbums")
	params.Set("user", username)
	params.Set("period", period)
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("HTTP %d from Last.fm: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Error     int    `json:"error"`
		Message   string `json:"message"`
		TopAlbums struct {
			Album json.RawMessage `json:"album"`
		} `json:"topalbums"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode Last.fm response: %w", err)
	}
	if payload.Error != 0 {
		return nil, fmt.Errorf("Last.fm API error %d: %s", payload.Error, payload.Message)
	}
	if len(payload.TopAlbums.Album) == 0 {
		return nil, nil
	}

	// A single result comes back as an object rather than an array.
	var albums []Album
	if err := json.Unmarshal(payload.TopAlbums.Album, &albums); err != nil {
		var single Album
		if err := json.Unmarshal(payload.TopAlbums.Album, &single); err != nil {
			return nil, fmt.Errorf("failed to decode albums: %w", err)
		}
		albums = []Album{single}
	}
	return albums, nil
}

// FetchImage downloads and decodes cover art. Any failure yields nil so
// the caller can drop in a placeholder tile.
func (c *Client) FetchImage(ctx context.Context, rawURL string) image.Image {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil
	}
	return img
}

// pickImageURL chooses the best cover URL: extralarge, then large, then
// medium, then any non-empty variant.
func pickImageURL(album Album) string {
	bySize := make(map[string]string, len(album.Image))
	for _, im := range album.Image {
		if im.URL != "" {
			bySize[im.Size] = im.URL
		}
	}
	for _, wanted := range []string{"extralarge", "large", "medium"} {
		if u := bySize[wanted]; u != "" {
			return u
		}
	}
	for _, im := range album.Image {
		if im.URL != "" {
			return im.URL
		}
	}
	return ""
}
