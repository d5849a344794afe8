package infrastructure

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/media-relay-go/internal/domain"
)

const testVideoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

type fakeYouTubeClient struct {
	video     *youtube.Video
	videoErr  error
	streamErr error

	metadataCalls int
	streamCalls   int
	streamFormat  *youtube.Format
	streamCtx     context.Context
}

func (c *fakeYouTubeClient) GetVideoContext(ctx context.Context, url string) (*youtube.Video, error) {
	c.metadataCalls++
	if c.videoErr != nil {
		return nil, c.videoErr
	}
	return c.video, nil
}

func (c *fakeYouTubeClient) GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error) {
	c.streamCalls++
	c.streamFormat = format
	c.streamCtx = ctx
	if c.streamErr != nil {
		return nil, 0, c.streamErr
	}
	return io.NopCloser(strings.NewReader("media-bytes")), format.ContentLength, nil
}

func testFormats() youtube.FormatList {
	return youtube.FormatList{
		{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, QualityLabel: "360p", Width: 640, Height: 360, AudioChannels: 2, Bitrate: 500000, ContentLength: 1000},
		{ItagNo: 22, MimeType: `video/mp4; codecs="avc1.64001F, mp4a.40.2"`, QualityLabel: "720p", Width: 1280, Height: 720, AudioChannels: 2, Bitrate: 1500000, ContentLength: 2000},
		{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, QualityLabel: "1080p", Width: 1920, Height: 1080, Bitrate: 4000000},
		{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, AudioChannels: 2, Bitrate: 130000, AverageBitrate: 128000, ContentLength: 300},
		{ItagNo: 251, MimeType: `audio/webm; codecs="opus"`, AudioChannels: 2, Bitrate: 160000, AverageBitrate: 150000, ContentLength: 400},
	}
}

func TestYouTubeResolver_InvalidURLMakesNoNetworkCall(t *testing.T) {
	client := &fakeYouTubeClient{}
	resolver := newYouTubeResolver(client, time.Second, nil)

	_, err := resolver.Resolve(context.Background(), "https://youtu.be/abc", domain.FormatVideo, "")
	require.Error(t, err)

	status, msg := domain.StatusAndMessage(err)
	assert.Equal(t, 400, status)
	assert.Equal(t, domain.MsgInvalidYouTubeURL, msg)
	assert.ErrorIs(t, err, domain.ErrInvalidURL)
	assert.Zero(t, client.metadataCalls)
}

func TestYouTubeResolver_ResolveVideo(t *testing.T) {
	client := &fakeYouTubeClient{video: &youtube.Video{ID: "dQw4w9WgXcQ", Title: "Never Gonna Give You Up", Formats: testFormats()}}
	resolver := newYouTubeResolver(client, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	media, err := resolver.Resolve(ctx, testVideoURL, domain.FormatVideo, "")
	require.NoError(t, err)
	defer media.Close()

	assert.Equal(t, 22, client.streamFormat.ItagNo)
	assert.Equal(t, "Never Gonna Give You Up.mp4", media.FileName)
	assert.Equal(t, domain.ContentTypeVideo, media.ContentType)
	assert.Equal(t, int64(2000), media.Size)
	assert.Equal(t, domain.PlatformYouTube, media.Platform)

	// Stream must not inherit the metadata deadline
	_, hasDeadline := client.streamCtx.Deadline()
	assert.False(t, hasDeadline)

	data, err := io.ReadAll(media.Source)
	require.NoError(t, err)
	assert.Equal(t, "media-bytes", string(data))
}

func TestYouTubeResolver_ResolveAudio(t *testing.T) {
	client := &fakeYouTubeClient{video: &youtube.Video{ID: "dQw4w9WgXcQ", Title: "Song", Formats: testFormats()}}
	resolver := newYouTubeResolver(client, time.Second, nil)

	media, err := resolver.Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ", domain.FormatAudio, "720p")
	require.NoError(t, err)
	defer media.Close()

	assert.Equal(t, 251, client.streamFormat.ItagNo)
	assert.Equal(t, "Song.mp3", media.FileName)
	assert.Equal(t, domain.ContentTypeAudio, media.ContentType)
}

func TestYouTubeResolver_MetadataFailures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"private", youtube.ErrVideoPrivate, 400, domain.MsgVideoUnavailable},
		{"login required", youtube.ErrLoginRequired, 400, domain.MsgVideoUnavailable},
		{"playability", &youtube.ErrPlayabiltyStatus{Status: "ERROR", Reason: "Video unavailable"}, 400, domain.MsgVideoUnavailable},
		{"network", errors.New("connection reset"), 500, domain.MsgDownloadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeYouTubeClient{videoErr: tt.err}
			resolver := newYouTubeResolver(client, time.Second, nil)

			_, err := resolver.Resolve(context.Background(), testVideoURL, domain.FormatVideo, "")
			require.Error(t, err)

			status, msg := domain.StatusAndMessage(err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, msg)
			assert.ErrorIs(t, err, domain.ErrMetadataFetchFailed)
			assert.Zero(t, client.streamCalls)
		})
	}
}

func TestYouTubeResolver_StreamFailure(t *testing.T) {
	client := &fakeYouTubeClient{
		video:     &youtube.Video{ID: "dQw4w9WgXcQ", Title: "t", Formats: testFormats()},
		streamErr: errors.New("403 forbidden"),
	}
	resolver := newYouTubeResolver(client, time.Second, nil)

	_, err := resolver.Resolve(context.Background(), testVideoURL, domain.FormatVideo, "")
	require.Error(t, err)
	assert.Equal(t, domain.KindUpstreamFetch, domain.KindOf(err))
}

func TestYouTubeResolver_NoMuxedFormat(t *testing.T) {
	videoOnly := youtube.FormatList{
		{ItagNo: 137, MimeType: "video/mp4", Width: 1920, Height: 1080},
	}
	client := &fakeYouTubeClient{video: &youtube.Video{ID: "dQw4w9WgXcQ", Title: "t", Formats: videoOnly}}
	resolver := newYouTubeResolver(client, time.Second, nil)

	_, err := resolver.Resolve(context.Background(), testVideoURL, domain.FormatVideo, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoMatchingFormat)
	assert.Equal(t, domain.KindResolutionNotFound, domain.KindOf(err))
	assert.Zero(t, client.streamCalls)
}

func TestSelectFormat(t *testing.T) {
	tests := []struct {
		name      string
		format    domain.Format
		maxHeight int
		wantItag  int
	}{
		{"highest muxed video", domain.FormatVideo, 0, 22},
		{"capped at 480", domain.FormatVideo, 480, 18},
		{"exact cap", domain.FormatVideo, 720, 22},
		{"below every format picks smallest", domain.FormatVideo, 144, 18},
		{"audio highest bitrate", domain.FormatAudio, 0, 251},
		{"audio ignores height", domain.FormatAudio, 360, 251},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectFormat(testFormats(), tt.format, tt.maxHeight)
			require.NoError(t, err)
			assert.Equal(t, tt.wantItag, got.ItagNo)
		})
	}
}

func TestSelectFormat_NeverVideoOnly(t *testing.T) {
	formats := youtube.FormatList{
		{ItagNo: 137, MimeType: "video/mp4", Width: 1920, Height: 1080, Bitrate: 4000000},
		{ItagNo: 18, MimeType: "video/mp4", Width: 640, Height: 360, AudioChannels: 2, Bitrate: 500000},
	}

	got, err := selectFormat(formats, domain.FormatVideo, 0)
	require.NoError(t, err)
	assert.Equal(t, 18, got.ItagNo)
}

func TestSelectFormat_NoAudio(t *testing.T) {
	formats := youtube.FormatList{
		{ItagNo: 18, MimeType: "video/mp4", Width: 640, Height: 360, AudioChannels: 2},
	}

	_, err := selectFormat(formats, domain.FormatAudio, 0)
	assert.ErrorIs(t, err, domain.ErrNoMatchingFormat)
}

func TestSelectFormat_FiltersByMimeType(t *testing.T) {
	formats := youtube.FormatList{
		// Muxed stream with its dimensions missing from the manifest
		{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, AudioChannels: 2, Bitrate: 900000},
		{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, AudioChannels: 2, AverageBitrate: 128000},
		{ItagNo: 22, MimeType: `video/mp4; codecs="avc1.64001F, mp4a.40.2"`, Width: 1280, Height: 720, AudioChannels: 2},
	}

	audio, err := selectFormat(formats, domain.FormatAudio, 0)
	require.NoError(t, err)
	assert.Equal(t, 140, audio.ItagNo)

	video, err := selectFormat(formats, domain.FormatVideo, 0)
	require.NoError(t, err)
	assert.Equal(t, 22, video.ItagNo)
}

func TestParseVideoHeight(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"best", 0, false},
		{"highest", 0, false},
		{"720p", 720, false},
		{"1080P", 1080, false},
		{"480", 480, false},
		{"hd", 0, true},
		{"-1p", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseVideoHeight(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildFileName(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		format domain.Format
		want   string
	}{
		{"plain", "My Video", domain.FormatVideo, "My Video.mp4"},
		{"audio", "My Video", domain.FormatAudio, "My Video.mp3"},
		{"separators", "AC/DC: Back in Black", domain.FormatVideo, "AC_DC_ Back in Black.mp4"},
		{"control chars", "line\nbreak\ttab", domain.FormatVideo, "linebreaktab.mp4"},
		{"unicode kept", "Café – 日本語", domain.FormatVideo, "Café – 日本語.mp4"},
		{"empty title uses id", "", domain.FormatVideo, "dQw4w9WgXcQ.mp4"},
		{"dots only", "...", domain.FormatAudio, "dQw4w9WgXcQ.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildFileName(tt.title, "dQw4w9WgXcQ", tt.format))
		})
	}
}
