package bitmap

// ShaderKind is the pipeline stage a shader is compiled for
type ShaderKind int

const (
	// VertexShader stage
	VertexShader ShaderKind = iota
	// FragmentShader stage
	FragmentShader
)

func (k ShaderKind) String() string {
	if k == VertexShader {
		return "vertex"
	}
	return "fragment"
}

// ConfigSpec lists the framebuffer configuration a context requires
type ConfigSpec struct {
	RedSize       int
	GreenSize     int
	BlueSize      int
	AlphaSize     int
	DepthSize     int
	StencilSize   int
	SampleBuffers int
	Samples       int
}

// DefaultConfigSpec is RGBA8888 with a 16-bit depth buffer, no stencil and 4x multisampling
var DefaultConfigSpec = ConfigSpec{
	RedSize:       8,
	GreenSize:     8,
	BlueSize:      8,
	AlphaSize:     8,
	DepthSize:     16,
	StencilSize:   0,
	SampleBuffers: 1,
	Samples:       4,
}

// ClientVersion is the GLES major version requested for every context
const ClientVersion = 2

// Attribute names the shaders must declare
const (
	PositionAttrib = "av_Position"
	TexCoordAttrib = "af_Position"
)

// CoordsPerVertex is the number of floats per vertex in the quad buffers
const CoordsPerVertex = 3

// QuadVertices spans the whole viewport as a triangle strip
var QuadVertices = []float32{
	-1, -1, 0,
	1, -1, 0,
	-1, 1, 0,
	1, 1, 0,
}

// QuadTexCoords maps the quad onto a texture whose first row is the top of
// the image, so t runs top to bottom.
var QuadTexCoords = []float32{
	0, 1, 0,
	1, 1, 0,
	0, 0, 0,
	1, 0, 0,
}

// QuadVertexCount is the number of vertices drawn per frame
var QuadVertexCount = len(QuadVertices) / CoordsPerVertex

// Driver is the interface definition for the graphics API behind one
// GraphicsContext: an EGL-style binding plus the GLES 2 calls the render
// cycle needs. A Driver instance serves exactly one context and every call
// is made from the goroutine that owns that context.
type Driver interface {
	// OpenDisplay acquires and initializes the display connection
	OpenDisplay() error
	ChooseConfig(spec ConfigSpec) error
	CreateContext(clientVersion int) error
	// CreateWindowSurface binds a drawable to the output surface
	CreateWindowSurface(surface Surface) error
	MakeCurrent() error

	// CompileShader returns the shader handle, never 0 on success
	CompileShader(kind ShaderKind, source string) (uint32, error)
	// LinkProgram returns the program handle, never 0 on success
	LinkProgram(vertexShader, fragmentShader uint32) (uint32, error)
	// BindQuad uploads the two attribute buffers and enables them for program
	BindQuad(program uint32, vertices, texCoords []float32, coordsPerVertex int) error
	// CreateTexture creates and binds the 2D texture frames are uploaded to
	CreateTexture() error
	ClearColor(r, g, b, a float32)
	Clear()
	UseProgram(program uint32)

	// TexImage2D replaces the whole bound texture image
	TexImage2D(pixmap *Pixmap) error
	DrawTriangleStrip(vertexCount int)
	SwapBuffers() error

	WaitGL() error
	ReleaseCurrent() error
	DestroySurface() error
	DestroyContext() error
	Terminate() error
}

// DriverFactory creates the Driver for a new context
type DriverFactory func() Driver
