package handlers

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/yourusername/media-relay-go/internal/domain"
	"github.com/yourusername/media-relay-go/internal/observability"
	"go.uber.org/zap"
)

// relayBufferSize is the chunk size used between origin and client
const relayBufferSize = 32 * 1024

// Streamer writes a ResolvedMedia to an HTTP response
type Streamer struct {
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewStreamer creates a new streamer
func NewStreamer(metrics *observability.Metrics, logger *zap.Logger) *Streamer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Streamer{metrics: metrics, logger: logger}
}

// Stream relays media to w and always closes it. The first chunk is read
// before any header is written, so an origin that fails immediately yields
// an error while the response is still untouched. Errors after that point
// are returned as stream_transfer errors with headers already sent.
func (s *Streamer) Stream(w http.ResponseWriter, media *domain.ResolvedMedia) (int64, error) {
	defer media.Close()

	if media.Source == nil {
		return 0, domain.NewUpstreamError(errors.New("resolved media has no source"))
	}

	src := bufio.NewReaderSize(media.Source, relayBufferSize)
	if _, err := src.Peek(1); err != nil && err != io.EOF {
		return 0, domain.NewUpstreamError(fmt.Errorf("failed to read first chunk: %w", err))
	}

	h := w.Header()
	h.Set("Content-Disposition", ContentDisposition(media.FileName))
	h.Set("Content-Type", media.ContentType)
	if media.Size >= 0 {
		h.Set("Content-Length", strconv.FormatInt(media.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	done := s.metrics.RelayStarted(media.Platform.String())

	written, err := src.WriteTo(newFlushWriter(w))
	if err != nil {
		done(written, true)
		return written, domain.NewTransferError(err)
	}

	done(written, false)

	s.logger.Debug("Relay finished",
		zap.String("platform", media.Platform.String()),
		zap.String("file_name", media.FileName),
		zap.Int64("bytes", written))

	return written, nil
}

// flushWriter pushes every chunk to the client as soon as it is written
type flushWriter struct {
	w       io.Writer
	flusher http.Flusher
}

func newFlushWriter(w http.ResponseWriter) io.Writer {
	flusher, _ := w.(http.Flusher)
	return &flushWriter{w: w, flusher: flusher}
}

func (fw *flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if err == nil && fw.flusher != nil {
		fw.flusher.Flush()
	}
	return n, err
}

// ContentDisposition builds an attachment header with an RFC 5987 encoded filename
func ContentDisposition(fileName string) string {
	return "attachment; filename*=UTF-8''" + encodeFileName(fileName)
}

// encodeFileName percent-encodes everything outside the RFC 5987 attr-char set
func encodeFileName(name string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(name) * 3)
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '!', '#', '$', '&', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}
