package app

import (
	"context"
	"fmt"

	"github.com/yourusername/media-relay-go/internal/domain"
	"github.com/yourusername/media-relay-go/internal/observability"
	"go.uber.org/zap"
)

// Dispatch outcomes reported to metrics
const (
	OutcomeResolved = "resolved"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// ReasonHostNotAllowed is the extraction miss reason for media outside the host policy
const ReasonHostNotAllowed = "host_not_allowed"

// platformHandler resolves one classified request into a media stream
type platformHandler func(ctx context.Context, req domain.DownloadRequest) (*domain.ResolvedMedia, error)

// Dispatcher classifies a request and routes it to the matching resolution strategy
type Dispatcher struct {
	resolver   domain.NativeResolver
	extractors map[domain.Platform]domain.Extractor
	fetcher    domain.Fetcher
	policy     domain.MediaHostPolicy
	handlers   map[domain.Platform]platformHandler
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(
	resolver domain.NativeResolver,
	extractors []domain.Extractor,
	fetcher domain.Fetcher,
	policy domain.MediaHostPolicy,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Dispatcher{
		resolver:   resolver,
		extractors: make(map[domain.Platform]domain.Extractor, len(extractors)),
		fetcher:    fetcher,
		policy:     policy,
		metrics:    metrics,
		logger:     logger,
	}
	for _, extractor := range extractors {
		d.extractors[extractor.Platform()] = extractor
	}

	d.handlers = map[domain.Platform]platformHandler{
		domain.PlatformYouTube:          d.resolveNative,
		domain.PlatformInstagram:        d.relay(domain.PlatformInstagram),
		domain.PlatformTwitter:          d.relay(domain.PlatformTwitter),
		domain.PlatformFacebookOrTikTok: d.reject(domain.PlatformFacebookOrTikTok),
	}

	return d
}

// Handle resolves req into a media stream. The caller owns the returned
// media and must close it.
func (d *Dispatcher) Handle(ctx context.Context, req domain.DownloadRequest) (*domain.ResolvedMedia, error) {
	if req.URL == "" {
		return nil, domain.NewValidationError(domain.ErrURLRequired)
	}

	platform := domain.Classify(req.URL)

	handler, ok := d.handlers[platform]
	if !ok {
		handler = d.reject(domain.PlatformUnsupported)
	}

	d.logger.Info("Dispatching download",
		zap.String("url", req.URL),
		zap.String("platform", platform.String()),
		zap.String("format", string(req.Format)))

	media, err := handler(ctx, req)
	if err != nil {
		outcome := OutcomeFailed
		if domain.KindOf(err) == domain.KindUnsupportedPlatform {
			outcome = OutcomeRejected
		}
		d.metrics.ObserveDispatch(platform.String(), outcome)

		d.logger.Warn("Download not resolved",
			zap.String("url", req.URL),
			zap.String("platform", platform.String()),
			zap.String("kind", string(domain.KindOf(err))),
			zap.Error(err))
		return nil, err
	}

	d.metrics.ObserveDispatch(platform.String(), OutcomeResolved)
	return media, nil
}

func (d *Dispatcher) resolveNative(ctx context.Context, req domain.DownloadRequest) (*domain.ResolvedMedia, error) {
	if d.resolver == nil {
		return nil, domain.NewUnsupportedError(domain.PlatformUnsupported)
	}
	return d.resolver.Resolve(ctx, req.URL, req.Format, req.Quality)
}

// relay scrapes the platform page for a direct media URL and opens it
func (d *Dispatcher) relay(platform domain.Platform) platformHandler {
	return func(ctx context.Context, req domain.DownloadRequest) (*domain.ResolvedMedia, error) {
		extractor, ok := d.extractors[platform]
		if !ok {
			return nil, domain.NewUnsupportedError(domain.PlatformUnsupported)
		}

		mediaURL, found := extractor.Extract(ctx, req.URL)
		if !found || mediaURL == "" {
			return nil, domain.NewNotFoundError(platform, nil)
		}

		if err := d.policy.Check(mediaURL); err != nil {
			d.metrics.ObserveExtractionMiss(platform.String(), ReasonHostNotAllowed)
			d.logger.Warn("Refusing to relay media outside allowed hosts",
				zap.String("url", req.URL),
				zap.String("media_url", mediaURL),
				zap.Error(err))
			return nil, domain.NewNotFoundError(platform, err)
		}

		stream, err := d.fetcher.FetchStream(ctx, mediaURL)
		if err != nil {
			return nil, domain.NewUpstreamError(fmt.Errorf("failed to open %s media: %w", platform, err))
		}

		size := stream.ContentLength
		if size < 0 {
			size = domain.UnknownSize
		}

		return &domain.ResolvedMedia{
			Source:      stream.Body,
			FileName:    fmt.Sprintf("%s_media.%s", platform, req.Format.Extension()),
			ContentType: req.Format.ContentType(),
			Size:        size,
			Platform:    platform,
		}, nil
	}
}

func (d *Dispatcher) reject(platform domain.Platform) platformHandler {
	return func(context.Context, domain.DownloadRequest) (*domain.ResolvedMedia, error) {
		return nil, domain.NewUnsupportedError(platform)
	}
}
