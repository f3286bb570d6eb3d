package providers

import (
	"errors"

	"lrckit-api/lrc"
)

// ErrNotFound marks a lookup that completed but found no usable lyrics.
// It is wrapped by ProviderError and is safe to cache negatively.
var ErrNotFound = errors.New("lyrics not found")

// LyricsResult is the standardized result from any lyrics provider
type LyricsResult struct {
	// RawLyrics is the LRC text as received, after provider cleanup
	RawLyrics string `json:"rawLyrics,omitempty"`

	// Document is RawLyrics parsed into a timeline
	Document lrc.RichDocument `json:"document"`

	// TrackDurationMs is the duration of the matched track in milliseconds
	TrackDurationMs int `json:"trackDurationMs,omitempty"`

	// Score is the match confidence (0.0 to 1.0)
	Score float64 `json:"score,omitempty"`

	Provider string `json:"provider"`

	// Language is a detected or reported ISO code (e.g., "en", "zh")
	Language string `json:"language,omitempty"`

	IsRTL bool `json:"isRtlLanguage,omitempty"`

	// Instrumental is set when the track is known to have no vocals
	Instrumental bool `json:"instrumental,omitempty"`
}

// ProviderError represents an error from a provider with additional context
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Provider + ": " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError
func NewProviderError(provider, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Message: message, Err: err}
}

// NewNotFoundError creates a ProviderError wrapping ErrNotFound
func NewNotFoundError(provider, message string) *ProviderError {
	return &ProviderError{Provider: provider, Message: message, Err: ErrNotFound}
}

// IsNotFound reports whether err is a permanent "no lyrics" outcome
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
