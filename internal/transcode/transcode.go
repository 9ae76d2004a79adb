// Package transcode resizes source images to exact platform dimensions using
// a cover fit: the image is scaled to fully cover the target box and cropped
// on the overflowing dimension. The crop window is anchored on the most
// visually salient region so subjects survive sharp aspect-ratio changes
// (square source to a 9:16 story, for example).
package transcode

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	_ "image/gif"

	"github.com/chai2010/webp"
	"github.com/muesli/smartcrop"
	"github.com/muesli/smartcrop/nfnt"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/webp"
)

// Supported output formats.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// Crop anchor positions.
const (
	PositionAttention = "attention"
	PositionCenter    = "center"
)

// DefaultQuality is used when the requested quality is out of range.
const DefaultQuality = 85

// Options selects the target dimensions, output encoding, and crop anchor
// for one resize.
type Options struct {
	Width    int
	Height   int
	Format   string // jpeg, png, or webp
	Quality  int    // 1-100
	Position string // attention (default) or center
}

// Output is one re-encoded image.
type Output struct {
	Data     []byte
	MIMEType string
}

// DecodeError reports an undecodable source image. It marks a data problem
// local to one item; callers skip the item and continue.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode image: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// ConfigError reports a caller bug such as an unsupported output format.
// It is fatal: callers must reject the whole run before processing starts.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

// CheckFormat validates an output format before any processing starts.
func CheckFormat(format string) error {
	switch format {
	case FormatJPEG, FormatPNG, FormatWebP:
		return nil
	}
	return &ConfigError{Msg: fmt.Sprintf("unsupported output format %q (want jpeg, png, or webp)", format)}
}

// Extension returns the output file extension for a supported format.
func Extension(format string) string {
	switch format {
	case FormatPNG:
		return "png"
	case FormatWebP:
		return "webp"
	default:
		return "jpg"
	}
}

// Resize decodes src, crops and scales it to exactly opts.Width x opts.Height
// with a cover fit, and re-encodes it in the requested format.
func Resize(src []byte, opts Options) (*Output, error) {
	if err := CheckFormat(opts.Format); err != nil {
		return nil, err
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, &ConfigError{Msg: fmt.Sprintf("invalid target dimensions %dx%d", opts.Width, opts.Height)}
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	window := coverWindow(img, opts.Width, opts.Height, opts.Position)

	dst := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, window, draw.Src, nil)

	data, mimeType, err := encode(dst, opts.Format, opts.Quality)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", opts.Format, err)
	}

	log.Debug().
		Int("width", opts.Width).
		Int("height", opts.Height).
		Str("format", opts.Format).
		Int("input_size", len(src)).
		Int("output_size", len(data)).
		Msg("Resize complete")

	return &Output{Data: data, MIMEType: mimeType}, nil
}

// coverWindow picks the source rectangle to crop. With attention positioning
// the window is anchored on the region of highest saliency; otherwise, or
// when saliency detection fails, it is centered.
func coverWindow(img image.Image, width, height int, position string) image.Rectangle {
	if position == "" || position == PositionAttention {
		analyzer := smartcrop.NewAnalyzer(nfnt.NewDefaultResizer())
		window, err := analyzer.FindBestCrop(img, width, height)
		if err == nil && !window.Empty() {
			return window
		}
		if err != nil {
			log.Debug().Err(err).Msg("Saliency crop failed, falling back to center crop")
		}
	}
	return centerWindow(img.Bounds(), width, height)
}

// centerWindow computes a centered crop rectangle with the target aspect
// ratio, as large as the source allows.
func centerWindow(b image.Rectangle, width, height int) image.Rectangle {
	srcW, srcH := b.Dx(), b.Dy()
	scale := math.Max(float64(width)/float64(srcW), float64(height)/float64(srcH))
	cropW := int(math.Round(float64(width) / scale))
	cropH := int(math.Round(float64(height) / scale))
	if cropW > srcW {
		cropW = srcW
	}
	if cropH > srcH {
		cropH = srcH
	}
	x0 := b.Min.X + (srcW-cropW)/2
	y0 := b.Min.Y + (srcH-cropH)/2
	return image.Rect(x0, y0, x0+cropW, y0+cropH)
}

func encode(img image.Image, format string, quality int) ([]byte, string, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}

	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	case FormatPNG:
		// PNG is lossless; quality selects the compression trade-off.
		level := png.DefaultCompression
		if quality < 50 {
			level = png.BestCompression
		}
		enc := &png.Encoder{CompressionLevel: level}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/png", nil
	case FormatWebP:
		if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/webp", nil
	}
	return nil, "", &ConfigError{Msg: fmt.Sprintf("unsupported output format %q", format)}
}
