package lrclib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"lrckit-api/logcolors"

	log "github.com/sirupsen/logrus"
)

const (
	maxResponseBytes = 8 << 20
	retryDelay       = 2 * time.Second
)

// Record is one entry of the /search response
type Record struct {
	ID           int64   `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"` // seconds
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// DurationMs returns the record duration in milliseconds
func (r Record) DurationMs() int {
	return int(r.Duration * 1000)
}

// Client queries the lrclib.net API
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	UserAgent  string
	RetryDelay time.Duration
}

// NewClient returns a client for baseURL, e.g. "https://lrclib.net/api"
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		BaseURL:    baseURL,
		UserAgent:  userAgent,
		RetryDelay: retryDelay,
	}
}

// Search calls GET {base}/search. A network-level failure is retried once.
func (c *Client) Search(ctx context.Context, track, artist, album string) ([]Record, error) {
	records, err := c.search(ctx, track, artist, album)
	if err == nil || !isTransient(err) {
		return records, err
	}

	log.Warnf("%s [LRCLIB] Transient error, retrying: %v", logcolors.LogWarning, err)

	select {
	case <-ctx.Done():
		return nil, err
	case <-time.After(c.RetryDelay):
	}
	return c.search(ctx, track, artist, album)
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func (c *Client) search(ctx context.Context, track, artist, album string) ([]Record, error) {
	params := url.Values{}
	params.Set("track_name", track)
	if artist != "" {
		params.Set("artist_name", artist)
	}
	if album != "" {
		params.Set("album_name", album)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	log.Debugf("%s [LRCLIB] GET %s", logcolors.LogHTTP, req.URL.Redacted())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return records, nil
}
