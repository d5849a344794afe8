package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/kkdai/youtube/v2"
	"github.com/yourusername/media-relay-go/internal/domain"
	"go.uber.org/zap"
)

// youtubeClient is the subset of youtube.Client the resolver needs
type youtubeClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// YouTubeResolver resolves YouTube URLs through github.com/kkdai/youtube
type YouTubeResolver struct {
	client          youtubeClient
	metadataTimeout time.Duration
	logger          *zap.Logger
}

// NewYouTubeResolver creates a resolver backed by a default youtube.Client
func NewYouTubeResolver(metadataTimeout time.Duration, logger *zap.Logger) *YouTubeResolver {
	return newYouTubeResolver(&youtube.Client{}, metadataTimeout, logger)
}

func newYouTubeResolver(client youtubeClient, metadataTimeout time.Duration, logger *zap.Logger) *YouTubeResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YouTubeResolver{
		client:          client,
		metadataTimeout: metadataTimeout,
		logger:          logger,
	}
}

// Resolve validates url, fetches the video metadata and opens a stream for
// the best format matching the requested kind
func (r *YouTubeResolver) Resolve(ctx context.Context, url string, format domain.Format, quality string) (*domain.ResolvedMedia, error) {
	videoID, err := youtube.ExtractVideoID(url)
	if err != nil {
		return nil, domain.NewValidationError(fmt.Errorf("%w: %v", domain.ErrInvalidURL, err))
	}

	video, err := r.fetchVideo(ctx, url)
	if err != nil {
		return nil, err
	}

	selected, err := selectFormat(video.Formats, format, r.parseQuality(quality))
	if err != nil {
		return nil, &domain.MediaError{
			Kind:    domain.KindResolutionNotFound,
			Message: domain.MsgNoMatchingFormat,
			Err:     err,
		}
	}

	r.logger.Info("YouTube format selected",
		zap.String("video_id", videoID),
		zap.String("format", string(format)),
		zap.Int("itag", selected.ItagNo),
		zap.String("mime_type", selected.MimeType),
		zap.String("quality_label", selected.QualityLabel),
		zap.Int("bitrate", bitrateOf(selected)))

	// The stream outlives the metadata deadline, so it is bound to ctx itself
	stream, size, err := r.client.GetStreamContext(ctx, video, selected)
	if err != nil {
		return nil, domain.NewUpstreamError(fmt.Errorf("failed to open stream for %s: %w", videoID, err))
	}
	if size <= 0 {
		size = domain.UnknownSize
	}

	return &domain.ResolvedMedia{
		Source:      stream,
		FileName:    buildFileName(video.Title, videoID, format),
		ContentType: format.ContentType(),
		Size:        size,
		Platform:    domain.PlatformYouTube,
	}, nil
}

func (r *YouTubeResolver) fetchVideo(ctx context.Context, url string) (*youtube.Video, error) {
	if r.metadataTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.metadataTimeout)
		defer cancel()
	}

	video, err := r.client.GetVideoContext(ctx, url)
	if err != nil {
		wrapped := fmt.Errorf("%w: %w", domain.ErrMetadataFetchFailed, err)
		if isUnavailable(err) {
			return nil, &domain.MediaError{
				Kind:    domain.KindResolutionNotFound,
				Message: domain.MsgVideoUnavailable,
				Err:     wrapped,
			}
		}
		return nil, domain.NewUpstreamError(wrapped)
	}

	return video, nil
}

// parseQuality turns "720p" into a target height. Unparseable values fall back to highest.
func (r *YouTubeResolver) parseQuality(quality string) int {
	height, err := parseVideoHeight(quality)
	if err != nil {
		r.logger.Warn("Ignoring invalid quality", zap.String("quality", quality), zap.Error(err))
		return 0
	}
	return height
}

// isUnavailable reports whether the library refused the video for access reasons
func isUnavailable(err error) bool {
	if errors.Is(err, youtube.ErrVideoPrivate) ||
		errors.Is(err, youtube.ErrLoginRequired) ||
		errors.Is(err, youtube.ErrNotPlayableInEmbed) {
		return true
	}

	var statusPtr *youtube.ErrPlayabiltyStatus
	if errors.As(err, &statusPtr) {
		return true
	}
	var status youtube.ErrPlayabiltyStatus
	return errors.As(err, &status)
}

func parseVideoHeight(quality string) (int, error) {
	q := strings.TrimSpace(strings.ToLower(quality))
	switch q {
	case "", "best", "highest":
		return 0, nil
	}

	height, err := strconv.Atoi(strings.TrimSuffix(q, "p"))
	if err != nil || height <= 0 {
		return 0, fmt.Errorf("invalid quality value %q (expected like 720p)", quality)
	}
	return height, nil
}

// selectFormat picks the audio-only format with the highest bitrate, or the
// muxed audio+video format with the greatest height not above maxHeight.
// maxHeight 0 means no limit. Video-only formats are never chosen.
func selectFormat(formats youtube.FormatList, format domain.Format, maxHeight int) (*youtube.Format, error) {
	withAudio := formats.WithAudioChannels()

	if format.IsAudio() {
		candidates := withAudio.Type("audio/")
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w: no audio-only formats available", domain.ErrNoMatchingFormat)
		}
		return pickAudioFormat(candidates), nil
	}

	candidates := withAudio.Type("video/").Select(func(f youtube.Format) bool {
		return f.Width > 0 && f.Height > 0
	})
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no progressive (audio+video) formats available", domain.ErrNoMatchingFormat)
	}
	return pickVideoFormat(candidates, maxHeight), nil
}

func pickAudioFormat(candidates youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range candidates {
		f := &candidates[i]
		if best == nil || bitrateOf(f) > bitrateOf(best) ||
			(bitrateOf(f) == bitrateOf(best) && isMP4(f) && !isMP4(best)) {
			best = f
		}
	}
	return best
}

func pickVideoFormat(candidates youtube.FormatList, maxHeight int) *youtube.Format {
	var best *youtube.Format
	for i := range candidates {
		f := &candidates[i]
		if maxHeight > 0 && f.Height > maxHeight {
			continue
		}
		if best == nil || betterVideo(f, best) {
			best = f
		}
	}
	if best != nil {
		return best
	}

	// Nothing at or under the limit: take the smallest above it
	for i := range candidates {
		f := &candidates[i]
		if best == nil || f.Height < best.Height ||
			(f.Height == best.Height && bitrateOf(f) > bitrateOf(best)) {
			best = f
		}
	}
	return best
}

func betterVideo(a, b *youtube.Format) bool {
	if a.Height != b.Height {
		return a.Height > b.Height
	}
	if bitrateOf(a) != bitrateOf(b) {
		return bitrateOf(a) > bitrateOf(b)
	}
	return isMP4(a) && !isMP4(b)
}

func bitrateOf(f *youtube.Format) int {
	if f.AverageBitrate > 0 {
		return f.AverageBitrate
	}
	return f.Bitrate
}

func isMP4(f *youtube.Format) bool {
	return strings.Contains(f.MimeType, "mp4")
}

var fileNameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	"\x00", "",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// buildFileName derives "<title>.<ext>" from the video title. The result is
// not percent-encoded; the streamer does that when writing the header.
func buildFileName(title, videoID string, format domain.Format) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, title)
	name = strings.TrimSpace(fileNameReplacer.Replace(name))
	name = strings.Trim(name, ".")

	if name == "" {
		name = videoID
	}
	if name == "" {
		name = "youtube_media"
	}

	return name + "." + format.Extension()
}
