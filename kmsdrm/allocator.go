// Package kmsdrm presents software-rendered surfaces on a display through
// KMS/DRM dumb buffers, without a window system.
package kmsdrm

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/rmcsoft/bitmap"
	drm "github.com/rmcsoft/godrm"
	"github.com/rmcsoft/godrm/mode"
)

// Allocator hands out surfaces scanned out on the first connected display
// of a DRM card. Pair it with bitmap.NewSoftwareDriver.
type Allocator struct {
	card      *os.File
	modeset   mode.Modeset
	pixFormat bitmap.PixelFormat

	mutex    sync.Mutex
	lastID   int64
	surfaces map[*Surface]int64
}

// NewAllocator opens /dev/dri/card<cardNum>. pixFormat is the scan-out
// format: bitmap.XRGB32 or bitmap.RGB16.
func NewAllocator(cardNum int, pixFormat bitmap.PixelFormat) (*Allocator, error) {
	if pixFormat != bitmap.XRGB32 && pixFormat != bitmap.RGB16 {
		return nil, fmt.Errorf("unsupported scan-out format %v", pixFormat)
	}

	card, err := drm.OpenCard(cardNum)
	if err != nil {
		return nil, err
	}

	if !drm.HasDumbBuffer(card) {
		card.Close()
		return nil, fmt.Errorf("drm device %v does not support dumb buffers", cardNum)
	}

	simpleMSet, err := mode.NewSimpleModeset(card)
	if err != nil {
		card.Close()
		return nil, err
	}

	if len(simpleMSet.Modesets) == 0 {
		card.Close()
		return nil, errors.New("Modesets is empty")
	}

	return &Allocator{
		card:      card,
		modeset:   simpleMSet.Modesets[0],
		pixFormat: pixFormat,
		surfaces:  make(map[*Surface]int64),
	}, nil
}

// DisplaySize returns the resolution of the display mode in use
func (a *Allocator) DisplaySize() image.Point {
	return image.Pt(int(a.modeset.Width), int(a.modeset.Height))
}

// Allocate implements bitmap.SurfaceAllocator. Frames larger than the
// display are clipped.
func (a *Allocator) Allocate(width, height int) (bitmap.Surface, int64, error) {
	if width <= 0 || height <= 0 {
		return nil, 0, fmt.Errorf("invalid surface size %dx%d", width, height)
	}

	surface := &Surface{
		allocator: a,
		size:      image.Pt(width, height),
	}
	for i := 0; i < 2; i++ {
		fb, err := a.createFramebuffer()
		if err != nil {
			surface.destroy()
			return nil, 0, err
		}
		surface.framebuffers = append(surface.framebuffers, fb)
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.lastID++
	a.surfaces[surface] = a.lastID
	return surface, a.lastID, nil
}

// Release implements bitmap.SurfaceAllocator
func (a *Allocator) Release(surface bitmap.Surface) error {
	s, ok := surface.(*Surface)
	if !ok || s.allocator != a {
		return errors.New("surface was not allocated by this kmsdrm allocator")
	}

	a.mutex.Lock()
	delete(a.surfaces, s)
	a.mutex.Unlock()

	s.destroy()
	return nil
}

// Close releases every surface and closes the card
func (a *Allocator) Close() error {
	a.mutex.Lock()
	surfaces := a.surfaces
	a.surfaces = make(map[*Surface]int64)
	a.mutex.Unlock()

	for s := range surfaces {
		s.destroy()
	}
	return a.card.Close()
}
