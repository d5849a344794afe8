package infrastructure

import (
	"regexp"
	"time"

	"github.com/yourusername/media-relay-go/internal/domain"
	"github.com/yourusername/media-relay-go/internal/observability"
	"go.uber.org/zap"
)

// twitterVideoPattern matches a direct CDN mp4 link, with or without JSON-escaped slashes
var twitterVideoPattern = regexp.MustCompile(`https:\\?/\\?/video\.twimg\.com\\?/[^"'\s<>]*?\.mp4(?:\?[^"'\s<>\\]*)?`)

// NewTwitterExtractor creates the Twitter/X page extractor
func NewTwitterExtractor(fetcher domain.Fetcher, timeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *PageExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageExtractor{
		platform: domain.PlatformTwitter,
		pattern:  twitterVideoPattern,
		fetcher:  fetcher,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger,
	}
}
