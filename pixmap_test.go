package bitmap

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPixelFormat(t *testing.T) {
	assert.Equal(t, 4, GetPixelSize(RGBA32))
	assert.Equal(t, 4, GetPixelSize(XRGB32))
	assert.Equal(t, 2, GetPixelSize(RGB16))
	assert.Equal(t, 24, GetPixelDepth(XRGB32))
	assert.Equal(t, 16, GetPixelDepth(RGB16))
}

func TestPixmapFromImage(t *testing.T) {
	nrgba := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	nrgba.SetNRGBA(2, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 0xFF})

	pixmap := PixmapFromImage(nrgba)
	assert.Equal(t, 3, pixmap.Width)
	assert.Equal(t, 2, pixmap.Height)
	assert.Equal(t, 12, pixmap.BytePerLine)
	assert.Equal(t, RGBA32, pixmap.PixFormat)
	assert.Len(t, pixmap.Data, PixmapSize(3, 2))
	assert.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 0xFF}, pixmap.RGBA().RGBAAt(2, 1))
}

func TestPixmapFromShiftedImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 20, 12, 21))
	img.SetRGBA(11, 20, green)

	pixmap := PixmapFromImage(img)
	assert.Equal(t, 2, pixmap.Width)
	assert.Equal(t, 1, pixmap.Height)
	assert.Equal(t, green, pixmap.RGBA().RGBAAt(1, 0))
}

func TestPixmapTight(t *testing.T) {
	padded := &Pixmap{
		Data:        []byte{1, 2, 3, 4, 0, 0, 5, 6, 7, 8, 0, 0},
		Width:       1,
		Height:      2,
		BytePerLine: 6,
		PixFormat:   RGBA32,
	}
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, padded.Tight())

	tight := NewPixmap(2, 2)
	assert.Len(t, tight.Tight(), 16)
}

func TestPixelCacheRoundTrip(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "img.bitmap")
	pixmap := PixmapFromImage(splitImage(4, 3))

	require.NoError(t, WritePixelCache(fileName, pixmap))

	info, err := os.Stat(fileName)
	require.NoError(t, err)
	assert.EqualValues(t, 4*3*4, info.Size(), "cache has no header")

	loaded, err := ReadPixelCache(fileName, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, pixmap.Data, loaded.Data)
	assert.Equal(t, 16, loaded.BytePerLine)
}

func TestPixelCacheOverwrites(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "img.bitmap")
	require.NoError(t, WritePixelCache(fileName, solidPixmap(4, 4, red)))
	require.NoError(t, WritePixelCache(fileName, solidPixmap(2, 2, blue)))

	info, err := os.Stat(fileName)
	require.NoError(t, err)
	assert.EqualValues(t, 16, info.Size())
}

func TestPixelCacheShortRead(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "img.bitmap")
	require.NoError(t, WritePixelCache(fileName, solidPixmap(3, 2, red)))

	_, err := ReadPixelCache(fileName, 3, 3)
	assert.ErrorIs(t, err, ErrShortCache)

	require.NoError(t, os.WriteFile(fileName, nil, 0644))
	_, err = ReadPixelCache(fileName, 1, 1)
	assert.ErrorIs(t, err, ErrShortCache)
}

func TestPixelCacheLongerFile(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "img.bitmap")
	require.NoError(t, WritePixelCache(fileName, solidPixmap(2, 2, red)))

	pixmap, err := ReadPixelCache(fileName, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0, 0, 0xFF, 0xFF, 0, 0, 0xFF}, pixmap.Data)
}

func TestPixelCacheMissing(t *testing.T) {
	_, err := ReadPixelCache(filepath.Join(t.TempDir(), "none.bitmap"), 2, 2)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = ReadPixelCache("unused", 0, 2)
	assert.ErrorIs(t, err, ErrBadArgument)

	assert.Error(t, WritePixelCache(filepath.Join(t.TempDir(), "nil.bitmap"), nil))
	assert.Error(t, WritePixelCache(filepath.Join(t.TempDir(), "no", "dir.bitmap"), NewPixmap(1, 1)))
}
