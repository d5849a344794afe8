package infrastructure

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/media-relay-go/internal/domain"
	"github.com/yourusername/media-relay-go/internal/observability"
)

// stubFetcher serves canned page text
type stubFetcher struct {
	page string
	err  error

	textCalls   int
	streamCalls int
}

func (f *stubFetcher) FetchText(ctx context.Context, url string) (string, error) {
	f.textCalls++
	return f.page, f.err
}

func (f *stubFetcher) FetchStream(ctx context.Context, url string) (*domain.RemoteStream, error) {
	f.streamCalls++
	return nil, errors.New("not implemented")
}

func TestInstagramExtractor(t *testing.T) {
	tests := []struct {
		name   string
		page   string
		want   string
		wantOK bool
	}{
		{
			name:   "escaped json url",
			page:   `<script>{"video_url":"https:\/\/scontent.cdninstagram.com\/v\/t50.mp4?efg=abc&oh=1"}</script>`,
			want:   "https://scontent.cdninstagram.com/v/t50.mp4?efg=abc&oh=1",
			wantOK: true,
		},
		{
			name:   "spaced key",
			page:   `{"video_url" : "https://cdn.example/v.mp4"}`,
			want:   "https://cdn.example/v.mp4",
			wantOK: true,
		},
		{
			name:   "opengraph fallback",
			page:   `<html><head><meta property="og:video" content="https://cdn.example/og.mp4"></head></html>`,
			want:   "https://cdn.example/og.mp4",
			wantOK: true,
		},
		{
			name:   "no media",
			page:   `<html><head><title>Login</title></head></html>`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := NewInstagramExtractor(&stubFetcher{page: tt.page}, time.Second, nil, nil)

			got, ok := extractor.Extract(context.Background(), "https://www.instagram.com/p/abc/")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTwitterExtractor(t *testing.T) {
	tests := []struct {
		name   string
		page   string
		want   string
		wantOK bool
	}{
		{
			name:   "plain link",
			page:   `<video src="https://video.twimg.com/ext_tw_video/1/pu/vid/720x1280/a.mp4?tag=12"></video>`,
			want:   "https://video.twimg.com/ext_tw_video/1/pu/vid/720x1280/a.mp4?tag=12",
			wantOK: true,
		},
		{
			name:   "json escaped link",
			page:   `{"url":"https:\/\/video.twimg.com\/amplify_video\/2\/vid\/a.mp4"}`,
			want:   "https://video.twimg.com/amplify_video/2/vid/a.mp4",
			wantOK: true,
		},
		{
			name:   "twitter player stream meta",
			page:   `<meta name="twitter:player:stream" content="https://pbs.example.com/b/stream">`,
			want:   "https://pbs.example.com/b/stream",
			wantOK: true,
		},
		{
			name:   "playlist only",
			page:   `<a href="https://video.twimg.com/a.m3u8">`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := NewTwitterExtractor(&stubFetcher{page: tt.page}, time.Second, nil, nil)

			got, ok := extractor.Extract(context.Background(), "https://x.com/user/status/1")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPageExtractor_MissReasons(t *testing.T) {
	metrics := observability.New()

	failing := NewInstagramExtractor(&stubFetcher{err: errors.New("dial tcp: timeout")}, time.Second, metrics, nil)
	_, ok := failing.Extract(context.Background(), "https://www.instagram.com/p/abc/")
	require.False(t, ok)

	empty := NewInstagramExtractor(&stubFetcher{page: "<html></html>"}, time.Second, metrics, nil)
	_, ok = empty.Extract(context.Background(), "https://www.instagram.com/p/abc/")
	require.False(t, ok)
	_, ok = empty.Extract(context.Background(), "https://www.instagram.com/p/abc/")
	require.False(t, ok)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ExtractionMisses.WithLabelValues("instagram", ReasonFetchFailed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ExtractionMisses.WithLabelValues("instagram", ReasonPatternNotFound)))
}

func TestPageExtractor_Platform(t *testing.T) {
	assert.Equal(t, domain.PlatformInstagram, NewInstagramExtractor(&stubFetcher{}, 0, nil, nil).Platform())
	assert.Equal(t, domain.PlatformTwitter, NewTwitterExtractor(&stubFetcher{}, 0, nil, nil).Platform())
}

func TestUnescapeMediaURL(t *testing.T) {
	assert.Equal(t, "https://a/b?x=1&y=2", unescapeMediaURL(`https:\/\/a\/b?x=1&y=2`))
	// Invalid JSON escape falls back to stripping backslashes
	assert.Equal(t, "https://a/b.mp4x", unescapeMediaURL(`https:\/\/a\/b.mp4\x`))
}
