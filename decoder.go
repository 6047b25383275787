package bitmap

import (
	"bufio"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoder turns an image source into an RGBA32 pixmap. Decode blocks
// until the image is fully decoded.
type Decoder interface {
	Decode(ctx context.Context, path string) (*Pixmap, error)
}

// DecoderFunc adapts a function to the Decoder interface
type DecoderFunc func(ctx context.Context, path string) (*Pixmap, error)

// Decode calls f(ctx, path)
func (f DecoderFunc) Decode(ctx context.Context, path string) (*Pixmap, error) {
	return f(ctx, path)
}

// ImageDecoder decodes png, jpeg, gif, bmp, tiff and webp files with the
// Go image decoders.
type ImageDecoder struct{}

// Decode implements Decoder
func (ImageDecoder) Decode(ctx context.Context, path string) (*Pixmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, format, err := image.Decode(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	Logger().WithField("format", format).Debugf("Decoded %s", path)
	return PixmapFromImage(img), nil
}
