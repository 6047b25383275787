package bitmap

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/transform"
)

// FitMode selects how a source image is mapped onto the target box
type FitMode uint8

const (
	// FitCropFill scales the image to cover the target box, then crops the center
	FitCropFill FitMode = iota
	// FitReserved1 is reserved and currently renders as FitCropFill
	FitReserved1
	// FitReserved2 is reserved and currently renders as FitCropFill
	FitReserved2
)

// Resolve returns the fit mode actually applied. Only cropFill is
// implemented; every other value falls back to it.
func (f FitMode) Resolve() FitMode {
	return FitCropFill
}

func (f FitMode) String() string {
	switch f {
	case FitCropFill:
		return "cropFill"
	case FitReserved1, FitReserved2:
		return fmt.Sprintf("reserved(%d)", uint8(f))
	default:
		return fmt.Sprintf("unknown(%d)", uint8(f))
	}
}

// CoverScale returns the uniform scale that makes a srcWidth x srcHeight
// image cover a width x height box, and the scaled size.
func CoverScale(srcWidth, srcHeight, width, height int) (scale float64, scaled image.Point) {
	scale = math.Max(float64(width)/float64(srcWidth), float64(height)/float64(srcHeight))
	scaled = image.Point{
		X: int(math.Round(float64(srcWidth) * scale)),
		Y: int(math.Round(float64(srcHeight) * scale)),
	}
	return scale, scaled
}

// CropRect returns the region of the scaled image kept by cropFill.
// Offsets use truncating integer division, so odd differences leave the
// extra pixel on the right/bottom.
func CropRect(srcWidth, srcHeight, width, height int) image.Rectangle {
	_, scaled := CoverScale(srcWidth, srcHeight, width, height)
	x := (scaled.X - width) / 2
	y := (scaled.Y - height) / 2
	return image.Rect(x, y, x+width, y+height)
}

// ResizeCrop applies cropFill: the pixmap is scaled to cover width x height
// and the centre width x height region is returned.
func ResizeCrop(pixmap *Pixmap, width int, height int, filter transform.ResampleFilter) (*Pixmap, error) {
	if pixmap == nil || pixmap.Width <= 0 || pixmap.Height <= 0 {
		return nil, fmt.Errorf("%w: empty source pixmap", ErrBadArgument)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid target size %dx%d", ErrBadArgument, width, height)
	}

	src := pixmap.RGBA()
	if src == nil {
		return nil, fmt.Errorf("%w: pixmap format %v", ErrBadArgument, pixmap.PixFormat)
	}

	_, scaled := CoverScale(pixmap.Width, pixmap.Height, width, height)
	var resized *image.RGBA
	if scaled.X == pixmap.Width && scaled.Y == pixmap.Height {
		resized = src
	} else {
		resized = transform.Resize(src, scaled.X, scaled.Y, filter)
	}

	rect := CropRect(pixmap.Width, pixmap.Height, width, height).Add(resized.Rect.Min)
	if rect == resized.Rect {
		return PixmapFromImage(resized), nil
	}
	return PixmapFromImage(transform.Crop(resized, rect)), nil
}
