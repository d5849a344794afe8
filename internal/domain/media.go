package domain

import "io"

// UnknownSize marks a ResolvedMedia whose length the origin did not report
const UnknownSize int64 = -1

// ResolvedMedia is the uniform result of every resolution strategy.
// The receiver owns Source and must close it.
type ResolvedMedia struct {
	Source      io.ReadCloser
	FileName    string
	ContentType string
	Size        int64
	Platform    Platform
}

// Close releases the underlying stream
func (m *ResolvedMedia) Close() error {
	if m == nil || m.Source == nil {
		return nil
	}
	return m.Source.Close()
}

// RemoteStream is a byte stream opened by the fetcher
type RemoteStream struct {
	Body          io.ReadCloser
	ContentLength int64
	ContentType   string
}
