package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failure for status mapping and diagnostics
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindUnsupportedPlatform ErrorKind = "unsupported_platform"
	KindResolutionNotFound  ErrorKind = "resolution_not_found"
	KindUpstreamFetch       ErrorKind = "upstream_fetch"
	KindStreamTransfer      ErrorKind = "stream_transfer"
)

// Client-facing messages
const (
	MsgURLRequired         = "URL is required"
	MsgInvalidYouTubeURL   = "Invalid YouTube URL"
	MsgPlatformUnsupported = "platform not supported"
	MsgAuthRequired        = "platform requires authentication and is not supported"
	MsgVideoUnavailable    = "video unavailable"
	MsgNoMatchingFormat    = "no downloadable format available"
	MsgDownloadFailed      = "Download failed"
	MsgInternalError       = "internal server error"
)

var (
	ErrURLRequired         = errors.New("url is required")
	ErrInvalidURL          = errors.New("invalid url")
	ErrPlatformUnsupported = errors.New("platform not supported")
	ErrAuthRequired        = errors.New("platform requires authentication")
	ErrMetadataFetchFailed = errors.New("metadata fetch failed")
	ErrMediaNotFound       = errors.New("media not found")
	ErrNoMatchingFormat    = errors.New("no matching format")
	ErrUpstreamStatus      = errors.New("unexpected upstream status")
)

// MediaError is the typed error returned by every resolution path.
// Message is safe to show to clients; Err carries the detail for logs.
type MediaError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *MediaError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *MediaError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to an HTTP status
func (e *MediaError) StatusCode() int {
	switch e.Kind {
	case KindValidation, KindUnsupportedPlatform, KindResolutionNotFound:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError wraps err as a user-correctable input error
func NewValidationError(err error) *MediaError {
	msg := err.Error()
	switch {
	case errors.Is(err, ErrURLRequired):
		msg = MsgURLRequired
	case errors.Is(err, ErrInvalidURL):
		msg = MsgInvalidYouTubeURL
	}
	return &MediaError{Kind: KindValidation, Message: msg, Err: err}
}

// NewUnsupportedError builds the fixed rejection for a platform
func NewUnsupportedError(platform Platform) *MediaError {
	if platform == PlatformFacebookOrTikTok {
		return &MediaError{Kind: KindUnsupportedPlatform, Message: MsgAuthRequired, Err: ErrAuthRequired}
	}
	return &MediaError{Kind: KindUnsupportedPlatform, Message: MsgPlatformUnsupported, Err: ErrPlatformUnsupported}
}

// NewNotFoundError reports that no media could be located for a platform
func NewNotFoundError(platform Platform, err error) *MediaError {
	if err == nil {
		err = ErrMediaNotFound
	}
	return &MediaError{
		Kind:    KindResolutionNotFound,
		Message: fmt.Sprintf("%s media not found", platform.DisplayName()),
		Err:     err,
	}
}

// NewUpstreamError reports a transport failure reaching the origin
func NewUpstreamError(err error) *MediaError {
	return &MediaError{Kind: KindUpstreamFetch, Message: MsgDownloadFailed, Err: err}
}

// NewTransferError reports a failure after the response has begun
func NewTransferError(err error) *MediaError {
	return &MediaError{Kind: KindStreamTransfer, Message: MsgDownloadFailed, Err: err}
}

// StatusAndMessage resolves the HTTP status and client message for any error
func StatusAndMessage(err error) (int, string) {
	var mediaErr *MediaError
	if errors.As(err, &mediaErr) {
		return mediaErr.StatusCode(), mediaErr.Message
	}
	return http.StatusInternalServerError, MsgInternalError
}

// KindOf returns the error kind, or an empty kind for untyped errors
func KindOf(err error) ErrorKind {
	var mediaErr *MediaError
	if errors.As(err, &mediaErr) {
		return mediaErr.Kind
	}
	return ""
}
