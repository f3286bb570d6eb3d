package kugou

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"lrckit-api/logcolors"

	log "github.com/sirupsen/logrus"
)

const (
	defaultLyricsSearchURL   = "https://krcs.kugou.com/search"
	defaultLyricsDownloadURL = "https://krcs.kugou.com/download"
	defaultSongSearchURL     = "http://msearchcdn.kugou.com/api/v3/search/song"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// upstream responses are small JSON envelopes
	maxResponseBytes = 4 << 20
)

// Client talks to the three Kugou endpoints
type Client struct {
	HTTPClient        *http.Client
	SongSearchURL     string
	LyricsSearchURL   string
	LyricsDownloadURL string
}

// NewClient returns a client pointed at the public Kugou endpoints
func NewClient(timeout time.Duration) *Client {
	return &Client{
		HTTPClient:        &http.Client{Timeout: timeout},
		SongSearchURL:     defaultSongSearchURL,
		LyricsSearchURL:   defaultLyricsSearchURL,
		LyricsDownloadURL: defaultLyricsDownloadURL,
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func keyword(song, artist string) string {
	if artist == "" {
		return song
	}
	return song + " " + artist
}

// SearchSongs finds tracks; their hashes are needed by SearchLyrics
func (c *Client) SearchSongs(ctx context.Context, song, artist string, pageSize int) ([]SongInfo, error) {
	if pageSize <= 0 {
		pageSize = 10
	}

	params := url.Values{}
	params.Set("keyword", keyword(song, artist))
	params.Set("pagesize", strconv.Itoa(pageSize))
	params.Set("page", "1")
	params.Set("plat", "0")
	params.Set("version", "9108")

	var resp songSearchResponse
	if err := c.getJSON(ctx, c.SongSearchURL, params, &resp); err != nil {
		return nil, err
	}

	if resp.Status != 1 {
		return nil, fmt.Errorf("API error: status %d, errcode %d", resp.Status, resp.ErrCode)
	}

	return resp.Data.Info, nil
}

// SearchLyrics lists lyric candidates for a song hash
func (c *Client) SearchLyrics(ctx context.Context, song, artist string, durationMs int, hash string) ([]LyricsCandidate, error) {
	params := url.Values{}
	params.Set("ver", "1")
	params.Set("man", "yes")
	params.Set("client", "mobi")
	params.Set("keyword", keyword(song, artist))
	if durationMs > 0 {
		params.Set("duration", strconv.Itoa(durationMs))
	}
	if hash != "" {
		params.Set("hash", hash)
	}

	log.Debugf("%s [Kugou] Searching lyrics: %s", logcolors.LogSearch, params.Get("keyword"))

	var resp searchResponse
	if err := c.getJSON(ctx, c.LyricsSearchURL, params, &resp); err != nil {
		return nil, err
	}

	if resp.Status != 200 {
		return nil, fmt.Errorf("API error: %s (code: %d)", resp.ErrMsg, resp.ErrCode)
	}

	return resp.Candidates, nil
}

// DownloadLyrics fetches and decodes the LRC text of one candidate
func (c *Client) DownloadLyrics(ctx context.Context, id, accessKey string) (string, error) {
	params := url.Values{}
	params.Set("ver", "1")
	params.Set("client", "pc")
	params.Set("id", id)
	params.Set("accesskey", accessKey)
	params.Set("fmt", "lrc")

	log.Debugf("%s [Kugou] Downloading lyrics ID: %s", logcolors.LogLyrics, id)

	var resp downloadResponse
	if err := c.getJSON(ctx, c.LyricsDownloadURL, params, &resp); err != nil {
		return "", err
	}

	if resp.Status != 200 {
		return "", fmt.Errorf("API error: %s (code: %d)", resp.Info, resp.ErrorCode)
	}

	if resp.Content == "" {
		return "", fmt.Errorf("lyrics content is empty")
	}

	content, err := DecodeBase64Content(resp.Content)
	if err != nil {
		return "", fmt.Errorf("failed to decode lyrics content: %w", err)
	}
	return content, nil
}
