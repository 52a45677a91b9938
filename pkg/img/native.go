package img

import (
	"bytes"
	"errors"
	"image"
	"image/gif"
	"io"

	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"

	_ "github.com/biessek/golang-ico" // ICO decoder
	_ "golang.org/x/image/bmp"        // BMP decoder
	_ "golang.org/x/image/tiff"       // TIFF decoder
	_ "golang.org/x/image/webp"       // WEBP decoder
)

// MaxPixels is the largest image, in pixels, the native codec accepts.
const MaxPixels = 30000000

// ErrTooBig is returned when an image has more than MaxPixels pixels.
var ErrTooBig = errors.New("image is too big")

func init() {
	Register("native", NewNativeCodec(90))
}

// NativeCodec is the Codec implementation using Go native
// image tools.
type NativeCodec struct {
	quality int
}

// NewNativeCodec returns a Codec encoding JPEG images with the
// given quality.
func NewNativeCodec(quality int) *NativeCodec {
	if quality < 1 || quality > 100 {
		quality = 90
	}
	return &NativeCodec{quality: quality}
}

// Quality returns the JPEG quality.
func (c *NativeCodec) Quality() int {
	return c.quality
}

// Decode implements Codec. The image orientation is fixed using the
// EXIF data, when present.
func (c *NativeCodec) Decode(r io.Reader) (image.Image, string, error) {
	// We need to grab the format first, hence this two pass thing
	var b bytes.Buffer
	tee := io.TeeReader(r, &b)
	cfg, format, err := image.DecodeConfig(tee)
	if err != nil {
		return nil, "", err
	}

	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, "", ErrTooBig
	}

	m, err := imaging.Decode(io.MultiReader(&b, r), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", err
	}

	return m, format, nil
}

// Encode implements Codec. It fallbacks to jpeg encoding.
func (c *NativeCodec) Encode(w io.Writer, m image.Image, format string) error {
	var enc imgio.Encoder
	switch format {
	case "png":
		enc = imgio.PNGEncoder()
	case "bmp":
		enc = imgio.BMPEncoder()
	case "gif":
		enc = func(w io.Writer, m image.Image) error {
			return gif.Encode(w, m, &gif.Options{NumColors: 256})
		}
	default:
		enc = imgio.JPEGEncoder(c.quality)
	}

	return enc(w, m)
}
