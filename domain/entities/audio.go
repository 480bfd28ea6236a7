package entities

import (
	"path/filepath"
	"strings"
	"time"
)

// Encoding identifies the container/codec of an audio asset
type Encoding string

const (
	EncodingWAV Encoding = "wav"
	EncodingMP3 Encoding = "mp3"
	EncodingM4A Encoding = "m4a"
)

// Extension returns the file extension for the encoding, with the leading dot
func (e Encoding) Extension() string {
	return "." + string(e)
}

// MIMEType returns the content type used when serving the encoding
func (e Encoding) MIMEType() string {
	switch e {
	case EncodingWAV:
		return "audio/wav"
	case EncodingMP3:
		return "audio/mpeg"
	case EncodingM4A:
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}

// EncodingFromPath derives the encoding from a file extension
func EncodingFromPath(path string) Encoding {
	return Encoding(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

// AudioAsset references audio content, either on disk, in memory, or both.
// Stages never mutate an asset; they produce a new one.
type AudioAsset struct {
	Path          string        `json:"path,omitempty"`
	Data          []byte        `json:"-"`
	Encoding      Encoding      `json:"encoding"`
	SampleRate    int           `json:"sample_rate,omitempty"`
	Channels      int           `json:"channels,omitempty"`
	BitsPerSample int           `json:"bits_per_sample,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// InMemory reports whether the asset carries its bytes
func (a AudioAsset) InMemory() bool {
	return len(a.Data) > 0
}

// WithPath returns a copy of the asset pointing at path
func (a AudioAsset) WithPath(path string) AudioAsset {
	a.Path = path
	return a
}
