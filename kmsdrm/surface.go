package kmsdrm

import (
	"encoding/binary"
	"errors"
	"image"
	"sync"
	"syscall"

	"github.com/rmcsoft/bitmap"
	"github.com/rmcsoft/godrm/mode"
)

type framebuffer struct {
	handle uint32
	id     uint32
	buf    []byte

	width       int
	height      int
	bytePerLine int
}

// Surface is a pair of dumb framebuffers flipped on every Present
type Surface struct {
	allocator *Allocator
	size      image.Point

	mutex               sync.Mutex
	framebuffers        []*framebuffer
	frontFrameBufferNum int
}

// Size implements bitmap.Surface
func (s *Surface) Size() image.Point {
	return s.size
}

// Present implements bitmap.Presenter: the frame is converted to the
// scan-out format into the back framebuffer, which is then shown.
func (s *Surface) Present(frame *image.RGBA) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(s.framebuffers) == 0 {
		return errors.New("kmsdrm surface is released")
	}

	a := s.allocator
	fb := s.framebuffers[s.frontFrameBufferNum]
	writeFrame(fb, frame, a.pixFormat)

	err := mode.SetCrtc(a.card, a.modeset.Crtc, fb.id,
		0, 0, &a.modeset.Conn, 1, &a.modeset.Mode)

	s.frontFrameBufferNum = (s.frontFrameBufferNum + 1) % len(s.framebuffers)
	return err
}

func writeFrame(fb *framebuffer, frame *image.RGBA, pixFormat bitmap.PixelFormat) {
	width := frame.Rect.Dx()
	if width > fb.width {
		width = fb.width
	}
	height := frame.Rect.Dy()
	if height > fb.height {
		height = fb.height
	}

	pixSize := bitmap.GetPixelSize(pixFormat)
	for y := 0; y < height; y++ {
		src := frame.Pix[y*frame.Stride:]
		dst := fb.buf[y*fb.bytePerLine:]
		for x := 0; x < width; x++ {
			r, g, b := src[x*4], src[x*4+1], src[x*4+2]
			out := dst[x*pixSize:]
			switch pixFormat {
			case bitmap.RGB16:
				pix := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
				binary.LittleEndian.PutUint16(out, pix)
			default:
				pix := 0xFF000000 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
				binary.LittleEndian.PutUint32(out, pix)
			}
		}
	}
}

func (a *Allocator) createFramebuffer() (*framebuffer, error) {

	fb := &framebuffer{}
	var err error

	defer func() {
		if err != nil {
			a.destroyFramebuffer(fb)
		}
	}()

	width := a.modeset.Width
	height := a.modeset.Height
	bpp := bitmap.GetPixelSize(a.pixFormat) * 8
	depth := bitmap.GetPixelDepth(a.pixFormat)

	fbInfo, err := mode.CreateFB(a.card, uint16(width), uint16(height), uint32(bpp))
	if err != nil {
		return nil, err
	}

	fb.handle = fbInfo.Handle
	fb.id, err = mode.AddFB(a.card, uint16(width), uint16(height),
		uint8(depth), uint8(bpp), fbInfo.Pitch, fb.handle)
	if err != nil {
		return nil, err
	}

	offset, err := mode.MapDumb(a.card, fb.handle)
	if err != nil {
		return nil, err
	}

	fb.buf, err = syscall.Mmap(int(a.card.Fd()), int64(offset), int(fbInfo.Size),
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return nil, err
	}

	fb.width = int(width)
	fb.height = int(height)
	fb.bytePerLine = int(fbInfo.Pitch)
	return fb, err
}

func (a *Allocator) destroyFramebuffer(fb *framebuffer) {
	if fb != nil && a.card != nil {
		if fb.buf != nil {
			syscall.Munmap(fb.buf)
			fb.buf = nil
		}

		if fb.id != 0 {
			mode.RmFB(a.card, fb.id)
			fb.id = 0
		}

		if fb.handle != 0 {
			mode.DestroyDumb(a.card, fb.handle)
			fb.handle = 0
		}
	}
}

func (s *Surface) destroy() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, fb := range s.framebuffers {
		s.allocator.destroyFramebuffer(fb)
	}
	s.framebuffers = nil
}
