package bitmap

import (
	"fmt"
	"io"
	"os"
)

// WritePixelCache saves the pixmap rows verbatim, without any header.
// The file is created or truncated.
func WritePixelCache(fileName string, pixmap *Pixmap) error {
	if pixmap == nil {
		return fmt.Errorf("WritePixelCache %s: nil pixmap", fileName)
	}

	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write(pixmap.Tight())
	if err != nil {
		return err
	}

	return file.Sync()
}

// ReadPixelCache loads a raw RGBA32 pixmap of the given size.
// The file carries no dimensions, so they must match the ones used when
// the cache was written. A file shorter than width*height*4 bytes yields
// ErrShortCache; extra trailing bytes are ignored.
func ReadPixelCache(fileName string, width int, height int) (*Pixmap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid cache size %dx%d", ErrBadArgument, width, height)
	}

	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	pixmap := NewPixmap(width, height)
	n, err := io.ReadFull(file, pixmap.Data)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("%w: %s has %d of %d bytes", ErrShortCache, fileName, n, len(pixmap.Data))
	}
	if err != nil {
		return nil, err
	}

	return pixmap, nil
}
