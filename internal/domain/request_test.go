package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatAudio, ParseFormat("audio"))
	assert.Equal(t, FormatAudio, ParseFormat(" audio "))
	assert.Equal(t, FormatVideo, ParseFormat("Audio"))
	assert.Equal(t, FormatVideo, ParseFormat("AUDIO"))
	assert.Equal(t, FormatVideo, ParseFormat("video"))
	assert.Equal(t, FormatVideo, ParseFormat(""))
	assert.Equal(t, FormatVideo, ParseFormat("flac"))
}

func TestFormat_ExtensionAndContentType(t *testing.T) {
	assert.Equal(t, "mp3", FormatAudio.Extension())
	assert.Equal(t, "audio/mpeg", FormatAudio.ContentType())
	assert.Equal(t, "mp4", FormatVideo.Extension())
	assert.Equal(t, "video/mp4", FormatVideo.ContentType())
	assert.True(t, FormatAudio.IsAudio())
	assert.False(t, FormatVideo.IsAudio())
}

func TestNewDownloadRequest(t *testing.T) {
	req, err := NewDownloadRequest("  https://youtu.be/abc123 ", "audio", " 720p ")
	require.NoError(t, err)

	assert.Equal(t, "https://youtu.be/abc123", req.URL)
	assert.Equal(t, FormatAudio, req.Format)
	assert.Equal(t, "720p", req.Quality)
}

func TestNewDownloadRequest_DefaultsToVideo(t *testing.T) {
	req, err := NewDownloadRequest("https://youtu.be/abc123", "", "")
	require.NoError(t, err)
	assert.Equal(t, FormatVideo, req.Format)
}

func TestNewDownloadRequest_MissingURL(t *testing.T) {
	for _, url := range []string{"", "   ", "\t\n"} {
		_, err := NewDownloadRequest(url, "video", "")
		require.Error(t, err)

		var mediaErr *MediaError
		require.True(t, errors.As(err, &mediaErr))
		assert.Equal(t, KindValidation, mediaErr.Kind)
		assert.Equal(t, "URL is required", mediaErr.Message)
		assert.ErrorIs(t, err, ErrURLRequired)
	}
}
