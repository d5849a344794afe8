package domain

import "strings"

// Format is the requested output kind
type Format string

const (
	FormatVideo Format = "video"
	FormatAudio Format = "audio"
)

// Content types emitted for each format
const (
	ContentTypeVideo = "video/mp4"
	ContentTypeAudio = "audio/mpeg"
)

// ParseFormat normalizes a raw format value. Anything other than exactly
// "audio" (surrounding spaces aside) falls back to video.
func ParseFormat(raw string) Format {
	if strings.TrimSpace(raw) == string(FormatAudio) {
		return FormatAudio
	}
	return FormatVideo
}

// Extension returns the file extension (without dot) for the format
func (f Format) Extension() string {
	if f == FormatAudio {
		return "mp3"
	}
	return "mp4"
}

// ContentType returns the response content type for the format
func (f Format) ContentType() string {
	if f == FormatAudio {
		return ContentTypeAudio
	}
	return ContentTypeVideo
}

// IsAudio reports whether an audio-only variant was requested
func (f Format) IsAudio() bool {
	return f == FormatAudio
}

// DownloadRequest is a single client request to relay media
type DownloadRequest struct {
	URL     string
	Format  Format
	Quality string // Preferred maximum video height, e.g. "720p"; empty means highest
}

// NewDownloadRequest builds a normalized request. The URL is trimmed of
// surrounding whitespace and an unknown format becomes video.
func NewDownloadRequest(url, format, quality string) (DownloadRequest, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return DownloadRequest{}, NewValidationError(ErrURLRequired)
	}

	return DownloadRequest{
		URL:     url,
		Format:  ParseFormat(format),
		Quality: strings.TrimSpace(quality),
	}, nil
}
