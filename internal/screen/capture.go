// internal/screen/capture.go
package screen

import (
	"bytes"
	"fmt"
	"image/png"
	"path/filepath"

	"github.com/kbinani/screenshot"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Capturer writes a current screen image to a file and returns its path.
type Capturer interface {
	Capture() (string, error)
}

// DisplayCapturer grabs the primary display via the OS capture APIs and
// stores the frame as PNG in a run-scoped directory.
type DisplayCapturer struct {
	fs     afero.Fs
	dir    string
	logger *zap.Logger
}

// NewDisplayCapturer builds a capturer writing into dir on the given
// filesystem.
func NewDisplayCapturer(fs afero.Fs, dir string, logger *zap.Logger) *DisplayCapturer {
	return &DisplayCapturer{
		fs:     fs,
		dir:    dir,
		logger: logger.Named("screen.capture"),
	}
}

// Statically assert the interface.
var _ Capturer = (*DisplayCapturer)(nil)

// Capture grabs the primary display and writes it to screenshot.png inside
// the capture directory, overwriting the previous frame. The frame lives only
// long enough to be encoded; each iteration replaces it.
func (c *DisplayCapturer) Capture() (string, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return "", fmt.Errorf("no active display to capture")
	}

	bounds := screenshot.GetDisplayBounds(0)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return "", fmt.Errorf("failed to capture display: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode captured frame: %w", err)
	}

	if err := c.fs.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	path := filepath.Join(c.dir, "screenshot.png")
	if err := afero.WriteFile(c.fs, path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}

	c.logger.Debug("Captured display",
		zap.Int("width", bounds.Dx()),
		zap.Int("height", bounds.Dy()),
		zap.String("path", path),
	)
	return path, nil
}
