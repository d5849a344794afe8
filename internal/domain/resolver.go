package domain

import "context"

// Fetcher issues outbound GET requests. It has no platform knowledge.
type Fetcher interface {
	// FetchText returns the response body as text, for HTML pages
	FetchText(ctx context.Context, url string) (string, error)

	// FetchStream opens the response body as a stream; the caller closes it
	FetchStream(ctx context.Context, url string) (*RemoteStream, error)
}

// Extractor finds the direct media URL embedded in a platform page.
// It never fails: ok is false when the media could not be located.
type Extractor interface {
	// Platform returns the platform this extractor handles
	Platform() Platform

	// Extract scrapes pageURL for a direct media URL
	Extract(ctx context.Context, pageURL string) (mediaURL string, ok bool)
}

// NativeResolver resolves media through a first-class metadata library
type NativeResolver interface {
	// Resolve validates url, fetches metadata and opens a stream for the
	// best variant of the requested format
	Resolve(ctx context.Context, url string, format Format, quality string) (*ResolvedMedia, error)
}
