package sdlgl

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/rmcsoft/bitmap"
)

// Surface describes the window a session renders into. The window itself is
// created by the driver on the session's thread.
type Surface struct {
	Title  string
	Width  int
	Height int
	// Flags are extra SDL window flags, e.g. sdl.WINDOW_HIDDEN
	Flags uint32
}

// Size implements bitmap.Surface
func (s *Surface) Size() image.Point {
	return image.Pt(s.Width, s.Height)
}

// Allocator hands out window surfaces with ids starting at 1
type Allocator struct {
	Flags uint32

	mutex  sync.Mutex
	lastID int64
	live   map[*Surface]int64
}

// NewAllocator creates Allocator. flags are added to every window.
func NewAllocator(flags uint32) *Allocator {
	return &Allocator{
		Flags: flags,
		live:  make(map[*Surface]int64),
	}
}

// Allocate implements bitmap.SurfaceAllocator
func (a *Allocator) Allocate(width, height int) (bitmap.Surface, int64, error) {
	if width <= 0 || height <= 0 {
		return nil, 0, fmt.Errorf("invalid window size %dx%d", width, height)
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.lastID++
	surface := &Surface{
		Title:  fmt.Sprintf("bitmap %d", a.lastID),
		Width:  width,
		Height: height,
		Flags:  a.Flags,
	}
	a.live[surface] = a.lastID
	return surface, a.lastID, nil
}

// Release implements bitmap.SurfaceAllocator
func (a *Allocator) Release(surface bitmap.Surface) error {
	s, ok := surface.(*Surface)
	if !ok {
		return errors.New("surface was not allocated by sdlgl")
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()
	delete(a.live, s)
	return nil
}
