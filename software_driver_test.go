package bitmap

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initSoftwareContext(t *testing.T, width, height int) (*GraphicsContext, *MemorySurface) {
	t.Helper()
	surface := newMemorySurface(t, width, height)
	gc := NewGraphicsContext(NewSoftwareDriver(), nil)
	require.NoError(t, gc.Init(surface))
	t.Cleanup(func() { gc.Dispose() })
	return gc, surface
}

func TestSoftwareDriverIdentity(t *testing.T) {
	gc, surface := initSoftwareContext(t, 5, 3)

	pixmap := NewPixmap(5, 3)
	for i := range pixmap.Data {
		pixmap.Data[i] = byte(i)
	}
	require.NoError(t, gc.UploadAndPresent(pixmap))

	frame := surface.Frame()
	require.NotNil(t, frame)
	assert.Equal(t, image.Rect(0, 0, 5, 3), frame.Rect)
	assert.Equal(t, pixmap.Data, frame.Pix, "row 0 of the texture is the top of the surface")
}

func TestSoftwareDriverScalesTexture(t *testing.T) {
	gc, surface := initSoftwareContext(t, 4, 4)

	texture := NewPixmap(2, 2)
	img := texture.RGBA()
	img.SetRGBA(0, 0, red)
	img.SetRGBA(1, 0, green)
	img.SetRGBA(0, 1, blue)
	img.SetRGBA(1, 1, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
	require.NoError(t, gc.UploadAndPresent(texture))

	frame := surface.Frame()
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, img.RGBAAt(x/2, y/2), frame.RGBAAt(x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestSoftwareDriverRedrawsLastTexture(t *testing.T) {
	gc, surface := initSoftwareContext(t, 3, 3)

	require.NoError(t, gc.UploadAndPresent(nil))
	assertSolid(t, surface.Frame(), color.RGBA{A: 0xFF})

	require.NoError(t, gc.UploadAndPresent(solidPixmap(3, 3, blue)))
	require.NoError(t, gc.UploadAndPresent(nil))
	assertSolid(t, surface.Frame(), blue)
	assert.Equal(t, 3, surface.Presents())
}

func TestSoftwareDriverConfig(t *testing.T) {
	driver := NewSoftwareDriver()
	assert.Error(t, driver.ChooseConfig(DefaultConfigSpec), "display must be open first")

	require.NoError(t, driver.OpenDisplay())
	spec := DefaultConfigSpec
	spec.StencilSize = 8
	assert.Error(t, driver.ChooseConfig(spec))
	spec = DefaultConfigSpec
	spec.RedSize = 5
	assert.Error(t, driver.ChooseConfig(spec))

	require.NoError(t, driver.ChooseConfig(DefaultConfigSpec))
	assert.Error(t, driver.CreateContext(3))
	require.NoError(t, driver.CreateContext(ClientVersion))
}

type sizeOnlySurface struct{}

func (sizeOnlySurface) Size() image.Point { return image.Pt(2, 2) }

func TestSoftwareDriverNeedsPresenter(t *testing.T) {
	gc := NewGraphicsContext(NewSoftwareDriver(), nil)
	err := gc.Init(sizeOnlySurface{})
	assert.ErrorIs(t, err, ErrContextInit)
	assert.Contains(t, err.Error(), "create window surface")
}

func TestSoftwareDriverRejectsForeignFormat(t *testing.T) {
	gc, _ := initSoftwareContext(t, 2, 2)
	rgb16 := &Pixmap{Data: make([]byte, 8), Width: 2, Height: 2, BytePerLine: 4, PixFormat: RGB16}
	assert.Error(t, gc.UploadAndPresent(rgb16))
}

func TestMemoryAllocator(t *testing.T) {
	allocator := NewMemoryAllocator()

	first, id1, err := allocator.Allocate(3, 2)
	require.NoError(t, err)
	_, id2, err := allocator.Allocate(1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)
	assert.Equal(t, image.Pt(3, 2), first.Size())
	assert.Equal(t, 2, allocator.Live())

	_, _, err = allocator.Allocate(0, 1)
	assert.Error(t, err)

	require.NoError(t, allocator.Release(first))
	assert.True(t, first.(*MemorySurface).Released())
	_, ok := allocator.Surface(id1)
	assert.False(t, ok)
	assert.Equal(t, 1, allocator.Live())

	assert.Error(t, first.(*MemorySurface).Present(image.NewRGBA(image.Rect(0, 0, 3, 2))))
	assert.Error(t, allocator.Release(sizeOnlySurface{}))
}
