package infrastructure

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/yourusername/media-relay-go/internal/domain"
	"github.com/yourusername/media-relay-go/internal/observability"
	"go.uber.org/zap"
)

// Reasons reported when an extractor comes back empty
const (
	ReasonFetchFailed     = "fetch_failed"
	ReasonPatternNotFound = "pattern_not_found"
)

// openGraphVideoSelectors are tried in order when the platform pattern misses
var openGraphVideoSelectors = []string{
	`meta[property="og:video:secure_url"]`,
	`meta[property="og:video:url"]`,
	`meta[property="og:video"]`,
	`meta[name="twitter:player:stream"]`,
}

var backslashEscape = regexp.MustCompile(`\\(.)`)

// PageExtractor scrapes one platform's page markup for an embedded media URL.
// Each platform gets its own instance so a stale pattern only breaks that platform.
type PageExtractor struct {
	platform domain.Platform
	pattern  *regexp.Regexp // First submatch, or whole match when there is none
	fetcher  domain.Fetcher
	timeout  time.Duration
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// Platform returns the platform this extractor handles
func (e *PageExtractor) Platform() domain.Platform {
	return e.platform
}

// Extract fetches pageURL and searches it for a direct media URL.
// Fetch and parse failures are logged and reported as ok=false.
func (e *PageExtractor) Extract(ctx context.Context, pageURL string) (string, bool) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	html, err := e.fetcher.FetchText(ctx, pageURL)
	if err != nil {
		e.miss(pageURL, ReasonFetchFailed, zap.Error(err))
		return "", false
	}

	if mediaURL, ok := e.matchPattern(html); ok {
		e.logger.Info("Media URL extracted",
			zap.String("platform", e.platform.String()),
			zap.String("page_url", pageURL),
			zap.String("source", "pattern"))
		return mediaURL, true
	}

	if mediaURL, ok := findOpenGraphVideo(html); ok {
		e.logger.Info("Media URL extracted",
			zap.String("platform", e.platform.String()),
			zap.String("page_url", pageURL),
			zap.String("source", "opengraph"))
		return mediaURL, true
	}

	e.miss(pageURL, ReasonPatternNotFound)
	return "", false
}

func (e *PageExtractor) matchPattern(html string) (string, bool) {
	match := e.pattern.FindStringSubmatch(html)
	if match == nil {
		return "", false
	}

	raw := match[0]
	if len(match) > 1 {
		raw = match[1]
	}

	mediaURL := unescapeMediaURL(raw)
	return mediaURL, mediaURL != ""
}

func (e *PageExtractor) miss(pageURL, reason string, fields ...zap.Field) {
	e.metrics.ObserveExtractionMiss(e.platform.String(), reason)
	e.logger.Warn("Media URL not extracted",
		append([]zap.Field{
			zap.String("platform", e.platform.String()),
			zap.String("page_url", pageURL),
			zap.String("reason", reason),
		}, fields...)...)
}

// unescapeMediaURL decodes JSON string escapes such as \/ and \u0026,
// falling back to stripping backslashes
func unescapeMediaURL(raw string) string {
	var decoded string
	if err := json.Unmarshal([]byte(`"`+raw+`"`), &decoded); err == nil {
		return decoded
	}
	return backslashEscape.ReplaceAllString(raw, "$1")
}

// findOpenGraphVideo looks for an absolute video URL in the page's meta tags
func findOpenGraphVideo(html string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	for _, selector := range openGraphVideoSelectors {
		content, exists := doc.Find(selector).First().Attr("content")
		content = strings.TrimSpace(content)
		if exists && (strings.HasPrefix(content, "https://") || strings.HasPrefix(content, "http://")) {
			return content, true
		}
	}

	return "", false
}
