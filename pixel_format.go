package bitmap

// PixelFormat is an enumeration of pixel formats
type PixelFormat int

const (
	// RGBA32 is 32-bit RGBA format, one byte per channel in R, G, B, A order
	RGBA32 PixelFormat = iota
	// RGB16 is 16-bit RGB format (5-6-5)
	RGB16
	// XRGB32 is 32-bit RGB format (0xffRRGGBB)
	XRGB32
)

// GetPixelSize returns the number of bytes per pixel
func GetPixelSize(pixFormat PixelFormat) int {
	switch pixFormat {
	case RGB16:
		return 2
	default:
		return 4
	}
}

// GetPixelDepth returns the colour depth in bits
func GetPixelDepth(pixFormat PixelFormat) int {
	switch pixFormat {
	case RGB16:
		return 16
	case XRGB32:
		return 24
	default:
		return 32
	}
}

func (f PixelFormat) String() string {
	switch f {
	case RGBA32:
		return "RGBA32"
	case RGB16:
		return "RGB16"
	case XRGB32:
		return "XRGB32"
	default:
		return "Unknown"
	}
}
