package bitmap

import (
	"image"

	"github.com/anthonynsimon/bild/clone"
)

// Pixmap contains a collection of pixels
type Pixmap struct {
	Data        []byte
	Width       int
	Height      int
	BytePerLine int
	PixFormat   PixelFormat
}

// NewPixmap creates a zeroed RGBA32 pixmap without row padding
func NewPixmap(width int, height int) *Pixmap {
	return &Pixmap{
		Data:        make([]byte, PixmapSize(width, height)),
		Width:       width,
		Height:      height,
		BytePerLine: width * GetPixelSize(RGBA32),
		PixFormat:   RGBA32,
	}
}

// PixmapSize returns the size in bytes of a tight RGBA32 pixmap
func PixmapSize(width int, height int) int {
	return width * height * GetPixelSize(RGBA32)
}

// PixmapFromImage converts a decoded image into a tight RGBA32 pixmap
func PixmapFromImage(img image.Image) *Pixmap {
	// Pix of an *image.RGBA starts at Rect.Min, so any origin works as
	// long as rows are not padded.
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != rgba.Rect.Dx()*4 {
		rgba = clone.AsRGBA(img)
	}

	return &Pixmap{
		Data:        rgba.Pix[:rgba.Stride*rgba.Rect.Dy()],
		Width:       rgba.Rect.Dx(),
		Height:      rgba.Rect.Dy(),
		BytePerLine: rgba.Stride,
		PixFormat:   RGBA32,
	}
}

// RGBA wraps the pixmap data as an image without copying.
// Only RGBA32 pixmaps can be wrapped.
func (pixmap *Pixmap) RGBA() *image.RGBA {
	if pixmap.PixFormat != RGBA32 {
		return nil
	}

	return &image.RGBA{
		Pix:    pixmap.Data,
		Stride: pixmap.BytePerLine,
		Rect:   image.Rect(0, 0, pixmap.Width, pixmap.Height),
	}
}

// Tight returns the pixel rows without padding, copying only when needed
func (pixmap *Pixmap) Tight() []byte {
	rowSize := pixmap.Width * GetPixelSize(pixmap.PixFormat)
	if pixmap.BytePerLine == rowSize {
		return pixmap.Data[:rowSize*pixmap.Height]
	}

	data := make([]byte, 0, rowSize*pixmap.Height)
	for rowNum := 0; rowNum < pixmap.Height; rowNum++ {
		offset := rowNum * pixmap.BytePerLine
		data = append(data, pixmap.Data[offset:offset+rowSize]...)
	}
	return data
}
