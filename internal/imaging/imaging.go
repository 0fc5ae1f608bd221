// Package imaging downsizes photos before they are stored.
//
// The policy is best effort: images within the size limit are kept byte for
// byte, larger ones are resampled and re-encoded as JPEG, and anything that
// cannot be decoded (corrupt data, HEIC/HEIF) is kept as-is. The outcome is
// always reported so callers can tell the three paths apart.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	// Decoders for the formats the classification table admits.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"golang.org/x/image/draw"
)

// Outcome tells which path Transform took.
type Outcome string

const (
	// OutcomeTransformed means the image was resampled and re-encoded.
	OutcomeTransformed Outcome = "transformed"
	// OutcomeUnchanged means the image fit the limit and the input bytes were kept.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeDecodeFailed means the bytes were not a decodable image and were kept.
	OutcomeDecodeFailed Outcome = "decode_failed"
)

// Defaults applied when Options fields are zero.
const (
	DefaultMaxDimension = 2048
	DefaultQuality      = 0.8
	// DefaultMaxPixels bounds width×height before a full decode.
	DefaultMaxPixels = 100_000_000
)

// ErrTooManyPixels is reported when the declared dimensions exceed MaxPixels.
var ErrTooManyPixels = errors.New("image dimensions exceed pixel limit")

// Options controls the transform.
type Options struct {
	// MaxDimension is the largest width or height kept, in pixels.
	MaxDimension int
	// Quality is the JPEG quality on a 0–1 scale.
	Quality float64
	// MaxPixels is the largest width×height that is fully decoded.
	MaxPixels int64
}

// Result carries the bytes to store and what happened to them.
type Result struct {
	Data    []byte
	Outcome Outcome
	// Format is the decoder name ("jpeg", "png", ...); empty on decode failure.
	Format string
	// Width and Height are the dimensions of Data; zero on decode failure.
	Width  int
	Height int
	// Err holds the decode error when Outcome is OutcomeDecodeFailed.
	Err error
}

// ScaledSize returns the dimensions that fit w×h inside max×max with the
// aspect ratio preserved. Sizes already inside the box are returned unchanged.
func ScaledSize(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}
	if w >= h {
		return max, clampMin(int(math.Round(float64(h) * float64(max) / float64(w))))
	}
	return clampMin(int(math.Round(float64(w) * float64(max) / float64(h)))), max
}

// Transform applies the downscale policy to data. It never fails; decode
// problems are reported through Result.Outcome and Result.Err.
func Transform(data []byte, opts Options) Result {
	opts = opts.withDefaults()

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Result{Data: data, Outcome: OutcomeDecodeFailed, Err: err}
	}

	if int64(cfg.Width)*int64(cfg.Height) > opts.MaxPixels {
		err := fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
		return Result{Data: data, Outcome: OutcomeDecodeFailed, Err: err}
	}

	w, h := ScaledSize(cfg.Width, cfg.Height, opts.MaxDimension)
	if w == cfg.Width && h == cfg.Height {
		return Result{Data: data, Outcome: OutcomeUnchanged, Format: format, Width: w, Height: h}
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{Data: data, Outcome: OutcomeDecodeFailed, Err: err}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality(opts.Quality)}); err != nil {
		return Result{Data: data, Outcome: OutcomeDecodeFailed, Err: fmt.Errorf("encode jpeg: %w", err)}
	}

	return Result{Data: buf.Bytes(), Outcome: OutcomeTransformed, Format: "jpeg", Width: w, Height: h}
}

func (o Options) withDefaults() Options {
	if o.MaxDimension <= 0 {
		o.MaxDimension = DefaultMaxDimension
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = DefaultMaxPixels
	}
	if o.Quality <= 0 || o.Quality > 1 {
		o.Quality = DefaultQuality
	}
	return o
}

// jpegQuality maps 0–1 onto the encoder's 1–100 range.
func jpegQuality(q float64) int {
	v := int(math.Round(q * 100))
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampMin(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
