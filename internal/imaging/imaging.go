// internal/imaging/imaging.go
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/nfnt/resize"
	"go.uber.org/zap"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Options bound what the processor accepts and produces
type Options struct {
	// MaxWidth and MaxHeight cap the output dimensions in pixels
	MaxWidth  int
	MaxHeight int
	// MaxBytes caps the encoded input size. Zero means no limit.
	MaxBytes int
	// AllowUpscale permits fitting to enlarge images smaller than the target
	AllowUpscale bool
}

// PrepareSpec describes one conversion request
type PrepareSpec struct {
	// TargetWidth and TargetHeight bound the fit box in pixels. Zero falls
	// back to the processor's maximums.
	TargetWidth  int
	TargetHeight int
	// Rotate is applied before fitting, in degrees. Only quarter turns are
	// supported.
	Rotate int
}

// Processor converts uploaded images into printer-ready monochrome-friendly
// PNG payloads
type Processor struct {
	opts   Options
	logger *zap.Logger
}

// NewProcessor creates a processor
func NewProcessor(opts Options, logger *zap.Logger) *Processor {
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = 832
	}
	if opts.MaxHeight <= 0 {
		opts.MaxHeight = 1200
	}
	return &Processor{
		opts:   opts,
		logger: logger.With(zap.String("component", "imaging")),
	}
}

// Decode parses an encoded image. PNG, JPEG, GIF, BMP, TIFF and WebP are
// accepted.
func (p *Processor) Decode(data []byte) (image.Image, string, error) {
	if p.opts.MaxBytes > 0 && len(data) > p.opts.MaxBytes {
		return nil, "", fmt.Errorf("image too large: %d bytes exceeds limit of %d", len(data), p.opts.MaxBytes)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// Rotate turns the image by a quarter-turn multiple
func (p *Processor) Rotate(img image.Image, degrees int) (image.Image, error) {
	degrees = ((degrees % 360) + 360) % 360
	switch degrees {
	case 0:
		return img, nil
	case 90, 180, 270:
	default:
		return nil, fmt.Errorf("unsupported rotation: %d degrees", degrees)
	}

	src := img.Bounds()
	var dst *image.NRGBA
	if degrees == 180 {
		dst = image.NewNRGBA(image.Rect(0, 0, src.Dx(), src.Dy()))
	} else {
		dst = image.NewNRGBA(image.Rect(0, 0, src.Dy(), src.Dx()))
	}

	for y := src.Min.Y; y < src.Max.Y; y++ {
		for x := src.Min.X; x < src.Max.X; x++ {
			sx, sy := x-src.Min.X, y-src.Min.Y
			switch degrees {
			case 90:
				dst.Set(src.Dy()-1-sy, sx, img.At(x, y))
			case 180:
				dst.Set(src.Dx()-1-sx, src.Dy()-1-sy, img.At(x, y))
			case 270:
				dst.Set(sy, src.Dx()-1-sx, img.At(x, y))
			}
		}
	}
	return dst, nil
}

// Fit scales the image to fill the box while preserving aspect ratio. It
// never enlarges unless the processor allows upscaling.
func (p *Processor) Fit(img image.Image, maxWidth, maxHeight int) image.Image {
	if maxWidth <= 0 || maxWidth > p.opts.MaxWidth {
		maxWidth = p.opts.MaxWidth
	}
	if maxHeight <= 0 || maxHeight > p.opts.MaxHeight {
		maxHeight = p.opts.MaxHeight
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxWidth && h <= maxHeight && !p.opts.AllowUpscale {
		return img
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := min(scaleW, scaleH)
	if scale >= 1 && !p.opts.AllowUpscale {
		return img
	}

	newW := max(1, int(float64(w)*scale))
	newH := max(1, int(float64(h)*scale))
	return resize.Resize(uint(newW), uint(newH), img, resize.Lanczos3)
}

// Prepare runs the full pipeline: decode, rotate, fit, re-encode as PNG.
// The returned dimensions are measured after rotation and fitting.
func (p *Processor) Prepare(data []byte, spec PrepareSpec) ([]byte, int, int, error) {
	img, format, err := p.Decode(data)
	if err != nil {
		return nil, 0, 0, err
	}

	if spec.Rotate != 0 {
		img, err = p.Rotate(img, spec.Rotate)
		if err != nil {
			return nil, 0, 0, err
		}
	}

	img = p.Fit(img, spec.TargetWidth, spec.TargetHeight)
	bounds := img.Bounds()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode PNG: %w", err)
	}

	p.logger.Debug("Image prepared",
		zap.String("source_format", format),
		zap.Int("width", bounds.Dx()),
		zap.Int("height", bounds.Dy()),
		zap.Int("bytes", buf.Len()),
	)
	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}
