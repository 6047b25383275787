// Package sdlgl renders surfaces into SDL2 windows through an OpenGL ES 2
// context.
package sdlgl

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-gl/gl/v3.1/gles2"
	"github.com/rmcsoft/bitmap"
	"github.com/veandco/go-sdl2/sdl"
)

var (
	mutexSdl    = sync.Mutex{}
	sdlRefCount = 0
)

func initSdl() error {
	mutexSdl.Lock()
	defer mutexSdl.Unlock()

	if sdlRefCount == 0 {
		if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
			return err
		}
	}
	sdlRefCount++
	return nil
}

func quitSdl() {
	mutexSdl.Lock()
	defer mutexSdl.Unlock()

	sdlRefCount--
	if sdlRefCount == 0 {
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
	}
}

type sdlDriver struct {
	displayOpen   bool
	config        *bitmap.ConfigSpec
	clientVersion int

	window    *sdl.Window
	glContext sdl.GLContext
	glLoaded  bool

	buffers [2]uint32
	texture uint32
}

// NewDriver creates a bitmap.Driver backed by SDL2 and GLES 2. Surfaces
// given to it must come from this package's Allocator.
func NewDriver() bitmap.Driver {
	return &sdlDriver{}
}

func (d *sdlDriver) OpenDisplay() error {
	if err := initSdl(); err != nil {
		return err
	}
	d.displayOpen = true
	return nil
}

func (d *sdlDriver) ChooseConfig(spec bitmap.ConfigSpec) error {
	if !d.displayOpen {
		return errors.New("display is not initialized")
	}
	d.config = &spec
	return nil
}

func (d *sdlDriver) CreateContext(clientVersion int) error {
	if d.config == nil {
		return errors.New("no config chosen")
	}
	d.clientVersion = clientVersion
	return nil
}

// CreateWindowSurface creates the window and its GL context together: SDL
// takes the framebuffer configuration from global attributes at window
// creation and needs a window to create a context.
func (d *sdlDriver) CreateWindowSurface(surface bitmap.Surface) error {
	s, ok := surface.(*Surface)
	if !ok {
		return errors.New("surface was not allocated by sdlgl")
	}

	mutexSdl.Lock()
	defer mutexSdl.Unlock()

	if err := setGLAttributes(*d.config, d.clientVersion); err != nil {
		return fmt.Errorf("no matching config: %v", err)
	}

	window, err := sdl.CreateWindow(s.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(s.Width), int32(s.Height), sdl.WINDOW_OPENGL|s.Flags)
	if err != nil {
		return err
	}

	glContext, err := window.GLCreateContext()
	if err != nil {
		window.Destroy()
		return err
	}

	d.window = window
	d.glContext = glContext
	return nil
}

func setGLAttributes(spec bitmap.ConfigSpec, clientVersion int) error {
	attributes := []struct {
		attr  sdl.GLattr
		value int
	}{
		{sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_ES},
		{sdl.GL_CONTEXT_MAJOR_VERSION, clientVersion},
		{sdl.GL_CONTEXT_MINOR_VERSION, 0},
		{sdl.GL_RED_SIZE, spec.RedSize},
		{sdl.GL_GREEN_SIZE, spec.GreenSize},
		{sdl.GL_BLUE_SIZE, spec.BlueSize},
		{sdl.GL_ALPHA_SIZE, spec.AlphaSize},
		{sdl.GL_DEPTH_SIZE, spec.DepthSize},
		{sdl.GL_STENCIL_SIZE, spec.StencilSize},
		{sdl.GL_MULTISAMPLEBUFFERS, spec.SampleBuffers},
		{sdl.GL_MULTISAMPLESAMPLES, spec.Samples},
		{sdl.GL_DOUBLEBUFFER, 1},
	}
	for _, a := range attributes {
		if err := sdl.GLSetAttribute(a.attr, a.value); err != nil {
			return err
		}
	}
	return nil
}

func (d *sdlDriver) MakeCurrent() error {
	if d.window == nil {
		return errors.New("no window surface")
	}
	if err := d.window.GLMakeCurrent(d.glContext); err != nil {
		return err
	}
	if !d.glLoaded {
		if err := gles2.Init(); err != nil {
			return err
		}
		d.glLoaded = true
	}
	return nil
}

var glShaderTypes = map[bitmap.ShaderKind]uint32{
	bitmap.VertexShader:   gles2.VERTEX_SHADER,
	bitmap.FragmentShader: gles2.FRAGMENT_SHADER,
}

func (d *sdlDriver) CompileShader(kind bitmap.ShaderKind, source string) (uint32, error) {
	shader := gles2.CreateShader(glShaderTypes[kind])
	if shader == 0 {
		return 0, errors.New("glCreateShader failed")
	}

	csources, free := gles2.Strs(source + "\x00")
	gles2.ShaderSource(shader, 1, csources, nil)
	free()
	gles2.CompileShader(shader)

	var status int32
	gles2.GetShaderiv(shader, gles2.COMPILE_STATUS, &status)
	if status == gles2.FALSE {
		var logLength int32
		gles2.GetShaderiv(shader, gles2.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gles2.GetShaderInfoLog(shader, logLength, nil, gles2.Str(msg))
		gles2.DeleteShader(shader)
		return 0, fmt.Errorf("failed to compile %v shader: %v", kind, strings.TrimRight(msg, "\x00"))
	}
	return shader, nil
}

func (d *sdlDriver) LinkProgram(vertexShader, fragmentShader uint32) (uint32, error) {
	program := gles2.CreateProgram()
	if program == 0 {
		return 0, errors.New("glCreateProgram failed")
	}

	gles2.AttachShader(program, vertexShader)
	gles2.AttachShader(program, fragmentShader)
	gles2.LinkProgram(program)

	var status int32
	gles2.GetProgramiv(program, gles2.LINK_STATUS, &status)
	if status != gles2.TRUE {
		gles2.DeleteProgram(program)
		return 0, errors.New("failed to link program")
	}
	return program, nil
}

func (d *sdlDriver) BindQuad(program uint32, vertices, texCoords []float32, coordsPerVertex int) error {
	gles2.GenBuffers(2, &d.buffers[0])

	attributes := []struct {
		name string
		data []float32
	}{
		{bitmap.PositionAttrib, vertices},
		{bitmap.TexCoordAttrib, texCoords},
	}
	for i, a := range attributes {
		location := gles2.GetAttribLocation(program, gles2.Str(a.name+"\x00"))
		if location < 0 {
			return fmt.Errorf("attribute %s not found", a.name)
		}

		gles2.BindBuffer(gles2.ARRAY_BUFFER, d.buffers[i])
		gles2.BufferData(gles2.ARRAY_BUFFER, len(a.data)*4, gles2.Ptr(a.data), gles2.STATIC_DRAW)
		gles2.EnableVertexAttribArray(uint32(location))
		gles2.VertexAttribPointer(uint32(location), int32(coordsPerVertex), gles2.FLOAT, false,
			int32(coordsPerVertex*4), gles2.PtrOffset(0))
	}
	return nil
}

// CreateTexture clamps to the edge: GLES 2 cannot repeat non power of two textures.
func (d *sdlDriver) CreateTexture() error {
	gles2.GenTextures(1, &d.texture)
	if d.texture == 0 {
		return errors.New("glGenTextures failed")
	}
	gles2.BindTexture(gles2.TEXTURE_2D, d.texture)
	gles2.TexParameteri(gles2.TEXTURE_2D, gles2.TEXTURE_WRAP_S, gles2.CLAMP_TO_EDGE)
	gles2.TexParameteri(gles2.TEXTURE_2D, gles2.TEXTURE_WRAP_T, gles2.CLAMP_TO_EDGE)
	gles2.TexParameteri(gles2.TEXTURE_2D, gles2.TEXTURE_MIN_FILTER, gles2.LINEAR)
	gles2.TexParameteri(gles2.TEXTURE_2D, gles2.TEXTURE_MAG_FILTER, gles2.LINEAR)
	return nil
}

func (d *sdlDriver) ClearColor(r, g, b, a float32) {
	gles2.ClearColor(r, g, b, a)
}

func (d *sdlDriver) Clear() {
	gles2.Clear(gles2.COLOR_BUFFER_BIT | gles2.DEPTH_BUFFER_BIT)
}

func (d *sdlDriver) UseProgram(program uint32) {
	gles2.UseProgram(program)
}

func (d *sdlDriver) TexImage2D(pixmap *bitmap.Pixmap) error {
	if pixmap.PixFormat != bitmap.RGBA32 {
		return fmt.Errorf("unsupported texture format %v", pixmap.PixFormat)
	}
	data := pixmap.Tight()
	gles2.TexImage2D(gles2.TEXTURE_2D, 0, gles2.RGBA, int32(pixmap.Width), int32(pixmap.Height), 0,
		gles2.RGBA, gles2.UNSIGNED_BYTE, gles2.Ptr(data))
	return nil
}

func (d *sdlDriver) DrawTriangleStrip(vertexCount int) {
	gles2.DrawArrays(gles2.TRIANGLE_STRIP, 0, int32(vertexCount))
}

func (d *sdlDriver) SwapBuffers() error {
	if d.window == nil {
		return errors.New("no window surface")
	}
	d.window.GLSwap()
	return nil
}

func (d *sdlDriver) WaitGL() error {
	gles2.Finish()
	return nil
}

func (d *sdlDriver) ReleaseCurrent() error {
	return d.window.GLMakeCurrent(nil)
}

func (d *sdlDriver) DestroySurface() error {
	if d.window == nil {
		return nil
	}
	err := d.window.Destroy()
	d.window = nil
	return err
}

func (d *sdlDriver) DestroyContext() error {
	if d.glContext != nil {
		sdl.GLDeleteContext(d.glContext)
		d.glContext = nil
	}
	return nil
}

func (d *sdlDriver) Terminate() error {
	if d.displayOpen {
		quitSdl()
		d.displayOpen = false
	}
	return nil
}
