package sdlgl

import (
	"context"
	"sync"

	"github.com/rmcsoft/bitmap"
	"github.com/veandco/go-sdl2/img"
	"github.com/veandco/go-sdl2/sdl"
)

var imgInitOnce sync.Once

// ImageDecoder decodes images with SDL_image
type ImageDecoder struct{}

// Decode implements bitmap.Decoder
func (ImageDecoder) Decode(ctx context.Context, path string) (*bitmap.Pixmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	imgInitOnce.Do(func() {
		img.Init(img.INIT_JPG | img.INIT_PNG | img.INIT_WEBP)
	})

	image, err := img.Load(path)
	if err != nil {
		return nil, err
	}
	defer image.Free()

	// ABGR8888 is a packed format; on little-endian hosts its bytes are R, G, B, A.
	convertedImage, err := image.ConvertFormat(sdl.PIXELFORMAT_ABGR8888, 0)
	if err != nil {
		return nil, err
	}
	defer convertedImage.Free()

	pixmap := bitmap.Pixmap{
		Data:        make([]byte, len(convertedImage.Pixels())),
		Width:       int(convertedImage.W),
		Height:      int(convertedImage.H),
		BytePerLine: int(convertedImage.Pitch),
		PixFormat:   bitmap.RGBA32,
	}
	copy(pixmap.Data, convertedImage.Pixels())
	return &pixmap, nil
}
