// internal/screen/encoder.go

// Package screen captures the display and prepares screenshots for the model:
// capture writes a PNG, the encoder downsamples and recompresses it into a
// base64 JPEG bounded for the token budget.
package screen

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/draw"
	"image/jpeg"

	// Screenshot sources produce PNG; GIF shows up from odd capture tools.
	_ "image/gif"
	_ "image/png"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"

	"github.com/hackparv/operator-cli/internal/config"
)

// Encoder turns a screenshot file into a bounded, base64-encoded JPEG.
type Encoder struct {
	fs      afero.Fs
	logger  *zap.Logger
	maxW    int
	maxH    int
	quality int
}

// NewEncoder builds an Encoder over the given filesystem.
func NewEncoder(fs afero.Fs, cfg config.ScreenConfig, logger *zap.Logger) *Encoder {
	return &Encoder{
		fs:      fs,
		logger:  logger.Named("screen.encoder"),
		maxW:    cfg.MaxWidth,
		maxH:    cfg.MaxHeight,
		quality: cfg.JPEGQuality,
	}
}

// Encode reads the image at path, resizes it so neither dimension exceeds the
// configured maximum (aspect preserved, Catmull-Rom resampling), flattens any
// alpha channel onto white, re-encodes as JPEG at the configured quality, and
// returns the base64 of the result. Any failure inside that pipeline falls
// back to base64 of the original file bytes unmodified; only an unreadable
// file is an error. The input file is never written.
func (e *Encoder) Encode(path string) (string, error) {
	raw, err := afero.ReadFile(e.fs, path)
	if err != nil {
		return "", err
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		e.logger.Warn("Screenshot decode failed, falling back to raw bytes", zap.String("path", path), zap.Error(err))
		return base64.StdEncoding.EncodeToString(raw), nil
	}

	img = e.bound(img)

	// JPEG has no alpha; composite onto an opaque white background. This also
	// normalizes paletted images to plain RGB.
	flat := image.NewRGBA(img.Bounds())
	draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, img.Bounds().Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: e.quality}); err != nil {
		e.logger.Warn("JPEG re-encode failed, falling back to raw bytes", zap.String("format", format), zap.Error(err))
		return base64.StdEncoding.EncodeToString(raw), nil
	}

	e.logger.Debug("Screenshot encoded",
		zap.String("format", format),
		zap.Int("raw_bytes", len(raw)),
		zap.Int("jpeg_bytes", buf.Len()),
		zap.Int("width", flat.Bounds().Dx()),
		zap.Int("height", flat.Bounds().Dy()),
	)
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// bound scales the image down to fit within maxW x maxH, preserving aspect
// ratio. Images already inside the bounds are returned untouched.
func (e *Encoder) bound(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= e.maxW && h <= e.maxH {
		return img
	}

	scaleW := float64(e.maxW) / float64(w)
	scaleH := float64(e.maxH) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}

	dstW := int(float64(w) * scale)
	dstH := int(float64(h) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}
