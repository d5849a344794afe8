package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/media-relay-go/api/middleware"
	"github.com/yourusername/media-relay-go/internal/domain"
	"go.uber.org/zap"
)

// MsgInvalidRequestBody is returned when the JSON body cannot be decoded
const MsgInvalidRequestBody = "invalid request body"

// Dispatcher resolves a download request into a media stream
type Dispatcher interface {
	Handle(ctx context.Context, req domain.DownloadRequest) (*domain.ResolvedMedia, error)
}

// DownloadHandler handles media download requests
type DownloadHandler struct {
	dispatcher   Dispatcher
	streamer     *Streamer
	relayTimeout time.Duration
	logger       *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(dispatcher Dispatcher, streamer *Streamer, relayTimeout time.Duration, logger *zap.Logger) *DownloadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DownloadHandler{
		dispatcher:   dispatcher,
		streamer:     streamer,
		relayTimeout: relayTimeout,
		logger:       logger,
	}
}

// DownloadRequest represents a request to relay media
type DownloadRequest struct {
	URL     string `json:"url"`
	Format  string `json:"format,omitempty"`
	Quality string `json:"quality,omitempty"`
}

// Download handles POST /download
func (h *DownloadHandler) Download(c *gin.Context) {
	var body DownloadRequest
	// An empty body falls through to the missing URL error
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Debug("Rejected request body",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": MsgInvalidRequestBody})
		return
	}

	req, err := domain.NewDownloadRequest(body.URL, body.Format, body.Quality)
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	if h.relayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.relayTimeout)
		defer cancel()
	}

	media, err := h.dispatcher.Handle(ctx, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	written, err := h.streamer.Stream(c.Writer, media)
	if err == nil {
		return
	}

	if !c.Writer.Written() {
		header := c.Writer.Header()
		header.Del("Content-Disposition")
		header.Del("Content-Length")
		h.respondError(c, err)
		return
	}

	h.logger.Warn("Relay aborted after headers were sent",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("url", req.URL),
		zap.String("platform", media.Platform.String()),
		zap.Int64("bytes", written),
		zap.Bool("client_gone", c.Request.Context().Err() != nil),
		zap.Error(err))
	panic(http.ErrAbortHandler)
}

// respondError maps err to a JSON error response
func (h *DownloadHandler) respondError(c *gin.Context, err error) {
	status, msg := domain.StatusAndMessage(err)

	fields := []zap.Field{
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Int("status", status),
		zap.String("kind", string(domain.KindOf(err))),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Download failed", fields...)
	} else {
		h.logger.Info("Download rejected", fields...)
	}

	_ = c.Error(err)
	c.JSON(status, gin.H{"error": msg})
}
