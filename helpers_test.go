package bitmap

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	red   = color.RGBA{R: 0xFF, A: 0xFF}
	green = color.RGBA{G: 0xFF, A: 0xFF}
	blue  = color.RGBA{B: 0xFF, A: 0xFF}

	image4x4 = image.Pt(4, 4)
)

func solidPixmap(width, height int, c color.RGBA) *Pixmap {
	pixmap := NewPixmap(width, height)
	for i := 0; i < len(pixmap.Data); i += 4 {
		pixmap.Data[i+0] = c.R
		pixmap.Data[i+1] = c.G
		pixmap.Data[i+2] = c.B
		pixmap.Data[i+3] = c.A
	}
	return pixmap
}

// splitImage is left half red, right half blue
func splitImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 {
				img.SetRGBA(x, y, red)
			} else {
				img.SetRGBA(x, y, blue)
			}
		}
	}
	return img
}

func writePNG(t *testing.T, dir string, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, png.Encode(file, img))
	return path
}

func pixelAt(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}

func assertSolid(t *testing.T, img *image.RGBA, c color.RGBA) {
	t.Helper()
	require.NotNil(t, img)
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			if got := img.RGBAAt(x, y); got != c {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, c)
			}
		}
	}
}

// colorDecoder produces solid pixmaps named by path: red, green or blue.
// Any other path fails to decode.
func colorDecoder(size image.Point) Decoder {
	return DecoderFunc(func(ctx context.Context, path string) (*Pixmap, error) {
		switch path {
		case "red":
			return solidPixmap(size.X, size.Y, red), nil
		case "green":
			return solidPixmap(size.X, size.Y, green), nil
		case "blue":
			return solidPixmap(size.X, size.Y, blue), nil
		default:
			return nil, fmt.Errorf("no image %q", path)
		}
	})
}

// eventLog records what happened across goroutines, in order
type eventLog struct {
	mutex  sync.Mutex
	events []string
}

func (l *eventLog) add(format string, args ...interface{}) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

func (l *eventLog) get() []string {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return append([]string(nil), l.events...)
}

// recordingAllocator logs releases into an eventLog
type recordingAllocator struct {
	*MemoryAllocator
	log *eventLog
}

func (a *recordingAllocator) Release(surface Surface) error {
	a.log.add("release")
	return a.MemoryAllocator.Release(surface)
}

// recordingDriver wraps the software driver, records the calls that can
// fail and fails the one named by failAt.
type recordingDriver struct {
	Driver

	mutex  sync.Mutex
	calls  []string
	failAt string
	// zeroLink makes LinkProgram return a zero handle without an error
	zeroLink bool
}

func newRecordingDriver(failAt string) *recordingDriver {
	return &recordingDriver{
		Driver: NewSoftwareDriver(),
		failAt: failAt,
	}
}

func (d *recordingDriver) record(name string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.calls = append(d.calls, name)
	if name == d.failAt {
		return errors.New(name + " failed")
	}
	return nil
}

func (d *recordingDriver) Calls() []string {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *recordingDriver) Reset() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.calls = nil
}

func (d *recordingDriver) OpenDisplay() error {
	if err := d.record("OpenDisplay"); err != nil {
		return err
	}
	return d.Driver.OpenDisplay()
}

func (d *recordingDriver) ChooseConfig(spec ConfigSpec) error {
	if err := d.record("ChooseConfig"); err != nil {
		return err
	}
	return d.Driver.ChooseConfig(spec)
}

func (d *recordingDriver) CreateContext(clientVersion int) error {
	if err := d.record("CreateContext"); err != nil {
		return err
	}
	return d.Driver.CreateContext(clientVersion)
}

func (d *recordingDriver) CreateWindowSurface(surface Surface) error {
	if err := d.record("CreateWindowSurface"); err != nil {
		return err
	}
	return d.Driver.CreateWindowSurface(surface)
}

func (d *recordingDriver) MakeCurrent() error {
	if err := d.record("MakeCurrent"); err != nil {
		return err
	}
	return d.Driver.MakeCurrent()
}

func (d *recordingDriver) CompileShader(kind ShaderKind, source string) (uint32, error) {
	if err := d.record("CompileShader"); err != nil {
		return 0, err
	}
	return d.Driver.CompileShader(kind, source)
}

func (d *recordingDriver) LinkProgram(vertexShader, fragmentShader uint32) (uint32, error) {
	if err := d.record("LinkProgram"); err != nil {
		return 0, err
	}
	if d.zeroLink {
		return 0, nil
	}
	return d.Driver.LinkProgram(vertexShader, fragmentShader)
}

func (d *recordingDriver) BindQuad(program uint32, vertices, texCoords []float32, coordsPerVertex int) error {
	if err := d.record("BindQuad"); err != nil {
		return err
	}
	return d.Driver.BindQuad(program, vertices, texCoords, coordsPerVertex)
}

func (d *recordingDriver) CreateTexture() error {
	if err := d.record("CreateTexture"); err != nil {
		return err
	}
	return d.Driver.CreateTexture()
}

func (d *recordingDriver) TexImage2D(pixmap *Pixmap) error {
	if err := d.record("TexImage2D"); err != nil {
		return err
	}
	return d.Driver.TexImage2D(pixmap)
}

func (d *recordingDriver) SwapBuffers() error {
	if err := d.record("SwapBuffers"); err != nil {
		return err
	}
	return d.Driver.SwapBuffers()
}

func (d *recordingDriver) WaitGL() error {
	if err := d.record("WaitGL"); err != nil {
		return err
	}
	return d.Driver.WaitGL()
}

func (d *recordingDriver) ReleaseCurrent() error {
	if err := d.record("ReleaseCurrent"); err != nil {
		return err
	}
	return d.Driver.ReleaseCurrent()
}

func (d *recordingDriver) DestroySurface() error {
	if err := d.record("DestroySurface"); err != nil {
		return err
	}
	return d.Driver.DestroySurface()
}

func (d *recordingDriver) DestroyContext() error {
	if err := d.record("DestroyContext"); err != nil {
		return err
	}
	return d.Driver.DestroyContext()
}

func (d *recordingDriver) Terminate() error {
	if err := d.record("Terminate"); err != nil {
		return err
	}
	return d.Driver.Terminate()
}

func awaitResult(t *testing.T, ch <-chan RenderResult) RenderResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for render result")
		return RenderResult{}
	}
}
