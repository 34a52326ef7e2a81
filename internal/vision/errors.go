package vision

import "errors"

var (
	// ErrNoStream indicates the camera index has no configured stream URL.
	ErrNoStream = errors.New("no stream configured for camera index")

	// ErrStreamClosed indicates the source was closed or the remote end
	// ended the stream.
	ErrStreamClosed = errors.New("stream closed")

	// ErrBadCascade indicates the cascade file could not be loaded or
	// parsed.
	ErrBadCascade = errors.New("invalid cascade file")
)
