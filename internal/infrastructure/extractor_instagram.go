package infrastructure

import (
	"regexp"
	"time"

	"github.com/yourusername/media-relay-go/internal/domain"
	"github.com/yourusername/media-relay-go/internal/observability"
	"go.uber.org/zap"
)

// instagramVideoPattern matches the escaped video URL Instagram embeds in its page JSON
var instagramVideoPattern = regexp.MustCompile(`"video_url"\s*:\s*"((?:[^"\\]|\\.)+)"`)

// NewInstagramExtractor creates the Instagram page extractor
func NewInstagramExtractor(fetcher domain.Fetcher, timeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *PageExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageExtractor{
		platform: domain.PlatformInstagram,
		pattern:  instagramVideoPattern,
		fetcher:  fetcher,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger,
	}
}
