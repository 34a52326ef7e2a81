package vision

import (
	"fmt"
	"image/jpeg"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/iotzy/iotzy-bridge/internal/infrastructure/config"
)

// mjpegSource reads frames from an MJPEG-over-HTTP camera stream
// (multipart/x-mixed-replace, one JPEG per part).
type mjpegSource struct {
	resp        *http.Response
	parts       *multipart.Reader
	readTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// NewMJPEGOpener returns an Opener that resolves camera indexes against
// the configured stream URL list.
func NewMJPEGOpener(cfg config.CameraConfig) Opener {
	client := &http.Client{
		Transport: &http.Transport{
			ResponseHeaderTimeout: cfg.GetReadTimeout(),
		},
	}

	return func(index int) (Source, error) {
		if index < 0 || index >= len(cfg.Streams) {
			return nil, fmt.Errorf("%w: index %d, %d stream(s) configured",
				ErrNoStream, index, len(cfg.Streams))
		}
		return openMJPEG(client, cfg.Streams[index], cfg.GetReadTimeout())
	}
}

// defaultReadTimeout applies when the config leaves read_timeout unset.
const defaultReadTimeout = 10 * time.Second

func openMJPEG(client *http.Client, url string, readTimeout time.Duration) (*mjpegSource, error) {
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("opening stream %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("opening stream %s: status %d", url, resp.StatusCode)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		resp.Body.Close()
		return nil, fmt.Errorf("stream %s: unexpected content type %q",
			url, resp.Header.Get("Content-Type"))
	}

	return &mjpegSource{
		resp:        resp,
		parts:       multipart.NewReader(resp.Body, params["boundary"]),
		readTimeout: readTimeout,
	}, nil
}

// ReadFrame reads and decodes the next JPEG part. A stall longer than
// the read timeout tears down the connection, surfacing as a read error
// so the caller reopens the stream.
func (s *mjpegSource) ReadFrame() (*Frame, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStreamClosed
	}
	s.mu.Unlock()

	watchdog := time.AfterFunc(s.readTimeout, func() { s.Close() })
	defer watchdog.Stop()

	part, err := s.parts.NextPart()
	if err != nil {
		return nil, fmt.Errorf("reading stream part: %w", err)
	}
	defer part.Close()

	img, err := jpeg.Decode(part)
	if err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}
	return FrameFromImage(img), nil
}

// Close releases the underlying HTTP connection. Safe to call more
// than once.
func (s *mjpegSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.resp.Body.Close()
}
