// Package imageproc turns uploaded raster files into the single JPEG form the
// vision endpoint accepts: decoded, flattened onto an opaque background so no
// alpha or palette survives, optionally downscaled, and re-encoded.
package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultMaxEdge bounds the longest side sent upstream.
	DefaultMaxEdge = 2048

	// DefaultQuality is the JPEG quality used for re-encoding.
	DefaultQuality = 90
)

// ErrInvalidImage is returned when an upload cannot be decoded as a raster image.
var ErrInvalidImage = errors.New("invalid image")

// AllowedExtensions is the upload allow-list.
var AllowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff"}

// IsAllowed reports whether filename carries an allow-listed extension.
func IsAllowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, a := range AllowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

// Options controls re-encoding. Zero values fall back to the defaults.
type Options struct {
	MaxEdge int
	Quality int
}

// Normalized is the result of Normalize.
type Normalized struct {
	Data         []byte
	MIMEType     string
	SourceFormat string
	Width        int
	Height       int
}

// Normalize decodes r, flattens it to opaque RGB and re-encodes it as JPEG.
// Any decode failure is wrapped with ErrInvalidImage.
func Normalize(r io.Reader, opts Options) (*Normalized, error) {
	if opts.MaxEdge <= 0 {
		opts.MaxEdge = DefaultMaxEdge
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}

	src, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	b := src.Bounds()
	if b.Dx() > opts.MaxEdge || b.Dy() > opts.MaxEdge {
		log.Debug().
			Int("width", b.Dx()).
			Int("height", b.Dy()).
			Int("max_edge", opts.MaxEdge).
			Msg("Downscaling image before upload")
		src = resize.Thumbnail(uint(opts.MaxEdge), uint(opts.MaxEdge), src, resize.Lanczos3)
	}

	flat := flatten(src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	fb := flat.Bounds()
	return &Normalized{
		Data:         buf.Bytes(),
		MIMEType:     "image/jpeg",
		SourceFormat: format,
		Width:        fb.Dx(),
		Height:       fb.Dy(),
	}, nil
}

// flatten composites src over white into a fresh RGBA canvas, dropping
// transparency and palette indirection.
func flatten(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}
