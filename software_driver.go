package bitmap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
)

type softwareShader struct {
	kind ShaderKind
}

// softwareDriver renders on the CPU into an RGBA back buffer and hands it
// to the surface's Presenter on swap.
type softwareDriver struct {
	displayOpen bool
	config      *ConfigSpec
	hasContext  bool
	presenter   Presenter
	back        *image.RGBA
	isCurrent   bool

	shaders     map[uint32]softwareShader
	programs    map[uint32]bool
	lastHandle  uint32
	usedProgram uint32

	vertices        []float32
	texCoords       []float32
	coordsPerVertex int

	hasTexture bool
	texture    *Pixmap
	clearColor color.RGBA
}

// NewSoftwareDriver creates a Driver that needs no GPU. Surfaces given to
// it must implement Presenter.
func NewSoftwareDriver() Driver {
	return &softwareDriver{
		shaders:  make(map[uint32]softwareShader),
		programs: make(map[uint32]bool),
	}
}

func (d *softwareDriver) nextHandle() uint32 {
	d.lastHandle++
	return d.lastHandle
}

func (d *softwareDriver) OpenDisplay() error {
	d.displayOpen = true
	return nil
}

func (d *softwareDriver) ChooseConfig(spec ConfigSpec) error {
	if !d.displayOpen {
		return errors.New("display is not initialized")
	}
	for _, size := range []int{spec.RedSize, spec.GreenSize, spec.BlueSize, spec.AlphaSize} {
		if size != 8 {
			return errors.New("no matching config: only 8-bit channels are supported")
		}
	}
	if spec.StencilSize != 0 {
		return errors.New("no matching config: stencil buffers are not supported")
	}
	d.config = &spec
	return nil
}

func (d *softwareDriver) CreateContext(clientVersion int) error {
	if d.config == nil {
		return errors.New("no config chosen")
	}
	if clientVersion != ClientVersion {
		return fmt.Errorf("unsupported client version %d", clientVersion)
	}
	d.hasContext = true
	return nil
}

func (d *softwareDriver) CreateWindowSurface(surface Surface) error {
	presenter, ok := surface.(Presenter)
	if !ok {
		return errors.New("surface cannot present software frames")
	}
	size := surface.Size()
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("invalid surface size %v", size)
	}
	d.presenter = presenter
	d.back = image.NewRGBA(image.Rectangle{Max: size})
	return nil
}

func (d *softwareDriver) MakeCurrent() error {
	if !d.hasContext || d.back == nil {
		return errors.New("context or surface missing")
	}
	d.isCurrent = true
	return nil
}

func (d *softwareDriver) CompileShader(kind ShaderKind, source string) (uint32, error) {
	if !d.isCurrent {
		return 0, errors.New("no current context")
	}

	var required []string
	switch kind {
	case VertexShader:
		required = []string{PositionAttrib, TexCoordAttrib, "gl_Position"}
	case FragmentShader:
		required = []string{"gl_FragColor"}
	}
	for _, name := range required {
		if !strings.Contains(source, name) {
			return 0, fmt.Errorf("%v shader does not use %s", kind, name)
		}
	}

	handle := d.nextHandle()
	d.shaders[handle] = softwareShader{kind: kind}
	return handle, nil
}

func (d *softwareDriver) LinkProgram(vertexShader, fragmentShader uint32) (uint32, error) {
	vs, ok := d.shaders[vertexShader]
	if !ok || vs.kind != VertexShader {
		return 0, errors.New("invalid vertex shader")
	}
	fs, ok := d.shaders[fragmentShader]
	if !ok || fs.kind != FragmentShader {
		return 0, errors.New("invalid fragment shader")
	}

	handle := d.nextHandle()
	d.programs[handle] = true
	return handle, nil
}

func (d *softwareDriver) BindQuad(program uint32, vertices, texCoords []float32, coordsPerVertex int) error {
	if !d.programs[program] {
		return errors.New("invalid program")
	}
	if coordsPerVertex < 2 || len(vertices) != 4*coordsPerVertex || len(texCoords) != len(vertices) {
		return errors.New("quad buffers must hold 4 vertices")
	}
	d.vertices = append([]float32(nil), vertices...)
	d.texCoords = append([]float32(nil), texCoords...)
	d.coordsPerVertex = coordsPerVertex
	return nil
}

func (d *softwareDriver) CreateTexture() error {
	if !d.isCurrent {
		return errors.New("no current context")
	}
	d.hasTexture = true
	return nil
}

func (d *softwareDriver) ClearColor(r, g, b, a float32) {
	d.clearColor = color.RGBA{
		R: uint8(clamp01(r) * 255),
		G: uint8(clamp01(g) * 255),
		B: uint8(clamp01(b) * 255),
		A: uint8(clamp01(a) * 255),
	}
}

func (d *softwareDriver) Clear() {
	if d.back == nil {
		return
	}
	c := d.clearColor
	for i := 0; i < len(d.back.Pix); i += 4 {
		d.back.Pix[i+0] = c.R
		d.back.Pix[i+1] = c.G
		d.back.Pix[i+2] = c.B
		d.back.Pix[i+3] = c.A
	}
}

func (d *softwareDriver) UseProgram(program uint32) {
	if d.programs[program] {
		d.usedProgram = program
	}
}

func (d *softwareDriver) TexImage2D(pixmap *Pixmap) error {
	if !d.hasTexture {
		return errors.New("no texture bound")
	}
	if pixmap.PixFormat != RGBA32 {
		return fmt.Errorf("unsupported texture format %v", pixmap.PixFormat)
	}
	if pixmap.Width <= 0 || pixmap.Height <= 0 {
		return errors.New("empty texture image")
	}

	d.texture = &Pixmap{
		Data:        append([]byte(nil), pixmap.Tight()...),
		Width:       pixmap.Width,
		Height:      pixmap.Height,
		BytePerLine: pixmap.Width * GetPixelSize(RGBA32),
		PixFormat:   RGBA32,
	}
	return nil
}

// DrawTriangleStrip rasterizes the bound quad. The strip order is
// bottom-left, bottom-right, top-left, top-right, and texture coordinates
// are interpolated bilinearly across it with nearest sampling. Without a
// texture image the quad samples opaque black, as an incomplete GL texture does.
func (d *softwareDriver) DrawTriangleStrip(vertexCount int) {
	if d.back == nil || d.usedProgram == 0 || vertexCount < 4 || d.vertices == nil {
		return
	}

	n := d.coordsPerVertex
	x0, x1 := float64(d.vertices[0]), float64(d.vertices[n])
	y0, y2 := float64(d.vertices[1]), float64(d.vertices[2*n+1])
	if x1 == x0 || y2 == y0 {
		return
	}

	width, height := d.back.Rect.Dx(), d.back.Rect.Dy()
	for y := 0; y < height; y++ {
		ndcY := 1 - 2*(float64(y)+0.5)/float64(height)
		v := (ndcY - y0) / (y2 - y0)
		if v < 0 || v > 1 {
			continue
		}
		for x := 0; x < width; x++ {
			ndcX := 2*(float64(x)+0.5)/float64(width) - 1
			u := (ndcX - x0) / (x1 - x0)
			if u < 0 || u > 1 {
				continue
			}

			s, t := d.texCoordAt(u, v)
			offset := y*d.back.Stride + x*4
			copy(d.back.Pix[offset:offset+4], d.sample(s, t))
		}
	}
}

func (d *softwareDriver) texCoordAt(u, v float64) (float64, float64) {
	n := d.coordsPerVertex
	tc := func(vertex, coord int) float64 {
		return float64(d.texCoords[vertex*n+coord])
	}
	lerp := func(a, b, k float64) float64 {
		return a + (b-a)*k
	}

	bottomS, bottomT := lerp(tc(0, 0), tc(1, 0), u), lerp(tc(0, 1), tc(1, 1), u)
	topS, topT := lerp(tc(2, 0), tc(3, 0), u), lerp(tc(2, 1), tc(3, 1), u)
	return lerp(bottomS, topS, v), lerp(bottomT, topT, v)
}

var opaqueBlack = []byte{0, 0, 0, 0xFF}

func (d *softwareDriver) sample(s, t float64) []byte {
	if d.texture == nil {
		return opaqueBlack
	}
	tx := clampIndex(int(s*float64(d.texture.Width)), d.texture.Width)
	ty := clampIndex(int(t*float64(d.texture.Height)), d.texture.Height)
	offset := ty*d.texture.BytePerLine + tx*4
	return d.texture.Data[offset : offset+4]
}

func (d *softwareDriver) SwapBuffers() error {
	if !d.isCurrent {
		return errors.New("no current context")
	}
	return d.presenter.Present(d.back)
}

func (d *softwareDriver) WaitGL() error {
	return nil
}

func (d *softwareDriver) ReleaseCurrent() error {
	d.isCurrent = false
	return nil
}

func (d *softwareDriver) DestroySurface() error {
	d.presenter = nil
	d.back = nil
	return nil
}

func (d *softwareDriver) DestroyContext() error {
	d.hasContext = false
	d.hasTexture = false
	d.texture = nil
	d.shaders = make(map[uint32]softwareShader)
	d.programs = make(map[uint32]bool)
	d.usedProgram = 0
	return nil
}

func (d *softwareDriver) Terminate() error {
	d.displayOpen = false
	d.config = nil
	return nil
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
