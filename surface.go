package bitmap

import (
	"errors"
	"image"
	"sync"
)

// Surface is a platform drawable that frames are presented into
type Surface interface {
	Size() image.Point
}

// Presenter is implemented by surfaces that receive finished frames from a
// software driver.
type Presenter interface {
	Present(frame *image.RGBA) error
}

// SurfaceAllocator hands out surfaces together with their stable ids
type SurfaceAllocator interface {
	Allocate(width, height int) (Surface, int64, error)
	Release(surface Surface) error
}

// MemorySurface keeps the last presented frame in memory
type MemorySurface struct {
	mutex    sync.Mutex
	size     image.Point
	frame    *image.RGBA
	presents int
	released bool
}

// Size implements Surface
func (s *MemorySurface) Size() image.Point {
	return s.size
}

// Present implements Presenter. The frame is copied.
func (s *MemorySurface) Present(frame *image.RGBA) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.released {
		return errors.New("MemorySurface is released")
	}

	if s.frame == nil || s.frame.Rect != frame.Rect {
		s.frame = image.NewRGBA(frame.Rect)
	}
	copy(s.frame.Pix, frame.Pix)
	s.presents++
	return nil
}

// Frame returns a copy of the last presented frame, or nil
func (s *MemorySurface) Frame() *image.RGBA {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.frame == nil {
		return nil
	}
	frame := image.NewRGBA(s.frame.Rect)
	copy(frame.Pix, s.frame.Pix)
	return frame
}

// Presents returns how many frames were presented
func (s *MemorySurface) Presents() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.presents
}

// Released reports whether the surface went back to its allocator
func (s *MemorySurface) Released() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.released
}

// MemoryAllocator allocates MemorySurfaces with ids starting at 1
type MemoryAllocator struct {
	mutex    sync.Mutex
	lastID   int64
	surfaces map[int64]*MemorySurface
}

// NewMemoryAllocator creates MemoryAllocator
func NewMemoryAllocator() *MemoryAllocator {
	return &MemoryAllocator{
		surfaces: make(map[int64]*MemorySurface),
	}
}

// Allocate implements SurfaceAllocator
func (a *MemoryAllocator) Allocate(width, height int) (Surface, int64, error) {
	if width <= 0 || height <= 0 {
		return nil, 0, errors.New("MemoryAllocator: invalid surface size")
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.lastID++
	surface := &MemorySurface{size: image.Pt(width, height)}
	a.surfaces[a.lastID] = surface
	return surface, a.lastID, nil
}

// Release implements SurfaceAllocator
func (a *MemoryAllocator) Release(surface Surface) error {
	memSurface, ok := surface.(*MemorySurface)
	if !ok {
		return errors.New("MemoryAllocator: foreign surface")
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	for id, s := range a.surfaces {
		if s == memSurface {
			delete(a.surfaces, id)
		}
	}

	memSurface.mutex.Lock()
	memSurface.released = true
	memSurface.mutex.Unlock()
	return nil
}

// Surface returns the live surface with the given id
func (a *MemoryAllocator) Surface(id int64) (*MemorySurface, bool) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	s, ok := a.surfaces[id]
	return s, ok
}

// Live returns the number of allocated, unreleased surfaces
func (a *MemoryAllocator) Live() int {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return len(a.surfaces)
}
