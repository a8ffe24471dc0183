// Package transcribe turns finalized voice recordings into text.
package transcribe

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// ErrNoAudio is returned when a request carries neither inline audio nor a storage key.
var ErrNoAudio = errors.New("audioBase64 or storageKey required")

// Request is a finalized recording. Either AudioBase64 or StorageKey is set.
type Request struct {
	AudioBase64  string `json:"audioBase64,omitempty"`
	StorageKey   string `json:"storageKey,omitempty"`
	MimeType     string `json:"mimeType,omitempty"`
	LanguageCode string `json:"languageCode,omitempty"`
}

// Transcriber produces a transcript for a recording.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (string, error)
}

// Encoding names a Speech-to-Text audio encoding.
type Encoding string

const (
	EncodingLinear16 Encoding = "LINEAR16"
	EncodingFLAC     Encoding = "FLAC"
	EncodingWebMOpus Encoding = "WEBM_OPUS"
	EncodingOggOpus  Encoding = "OGG_OPUS"
)

// EncodingForMime picks the recognizer encoding for a recorder MIME type.
func EncodingForMime(mimeType string) Encoding {
	mt := strings.ToLower(mimeType)
	switch {
	case strings.Contains(mt, "ogg"):
		return EncodingOggOpus
	case strings.Contains(mt, "webm"), strings.Contains(mt, "opus"):
		return EncodingWebMOpus
	case strings.Contains(mt, "wav"):
		return EncodingLinear16
	case strings.Contains(mt, "flac"):
		return EncodingFLAC
	default:
		return EncodingLinear16
	}
}

// SampleRateFor returns the rate that must be declared for enc, or 0 when
// the recognizer reads it from the file header.
func SampleRateFor(enc Encoding) int {
	if enc == EncodingWebMOpus || enc == EncodingOggOpus {
		return 48000
	}
	return 0
}

var dataURLPrefix = regexp.MustCompile(`^data:.*?;base64,`)

// StripDataURL removes a "data:<mime>;base64," prefix if present.
func StripDataURL(s string) string {
	return dataURLPrefix.ReplaceAllString(s, "")
}
