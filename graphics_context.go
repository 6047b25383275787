package bitmap

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ContextState is the lifecycle state of a GraphicsContext
type ContextState int

const (
	// ContextUninitialized is the state before Init
	ContextUninitialized ContextState = iota
	// ContextReady means display, config, context and surface are bound
	ContextReady
	// ContextProgramReady means the quad program is linked
	ContextProgramReady
	// ContextTextureReady means the context can upload and present frames
	ContextTextureReady
	// ContextDisposed is the terminal state after Dispose
	ContextDisposed
	// ContextFailed means Init aborted; the context never renders
	ContextFailed
)

func (s ContextState) String() string {
	switch s {
	case ContextUninitialized:
		return "Uninitialized"
	case ContextReady:
		return "ContextReady"
	case ContextProgramReady:
		return "ProgramReady"
	case ContextTextureReady:
		return "TextureReady"
	case ContextDisposed:
		return "Disposed"
	case ContextFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// GraphicsContext owns one graphics API context bound to one output
// surface, the quad program and the texture frames are drawn from.
// It is not safe for concurrent use: every method must be called from the
// goroutine (locked OS thread) that called Init.
type GraphicsContext struct {
	driver  Driver
	shaders ShaderSource
	state   ContextState

	displayOpen    bool
	contextCreated bool
	surfaceCreated bool
	current        bool

	program uint32
}

// NewGraphicsContext creates an uninitialized GraphicsContext
func NewGraphicsContext(driver Driver, shaders ShaderSource) *GraphicsContext {
	if shaders == nil {
		shaders = EmbeddedShaders{}
	}
	return &GraphicsContext{
		driver:  driver,
		shaders: shaders,
		state:   ContextUninitialized,
	}
}

// State returns the lifecycle state
func (c *GraphicsContext) State() ContextState {
	return c.state
}

// Init brings the context up on the calling thread. Every step is fatal:
// the first failure leaves the context in ContextFailed.
func (c *GraphicsContext) Init(surface Surface) error {
	if c.state != ContextUninitialized {
		return fmt.Errorf("%w: context is %v", ErrContextInit, c.state)
	}

	if err := c.initContext(surface); err != nil {
		c.state = ContextFailed
		return err
	}
	c.state = ContextReady

	if err := c.initProgram(); err != nil {
		c.state = ContextFailed
		return err
	}
	c.state = ContextProgramReady

	if err := c.initTexture(); err != nil {
		c.state = ContextFailed
		return err
	}
	c.state = ContextTextureReady
	return nil
}

func initError(step string, err error) error {
	if err == nil {
		err = errors.New("driver returned a zero handle")
	}
	return fmt.Errorf("%w: %s: %v", ErrContextInit, step, err)
}

func (c *GraphicsContext) initContext(surface Surface) error {
	if err := c.driver.OpenDisplay(); err != nil {
		return initError("open display", err)
	}
	c.displayOpen = true

	if err := c.driver.ChooseConfig(DefaultConfigSpec); err != nil {
		return initError("choose config", err)
	}

	if err := c.driver.CreateContext(ClientVersion); err != nil {
		return initError("create context", err)
	}
	c.contextCreated = true

	if surface == nil {
		return initError("create window surface", errors.New("no output surface"))
	}
	if err := c.driver.CreateWindowSurface(surface); err != nil {
		return initError("create window surface", err)
	}
	c.surfaceCreated = true

	if err := c.driver.MakeCurrent(); err != nil {
		return initError("make current", err)
	}
	c.current = true
	return nil
}

func (c *GraphicsContext) initProgram() error {
	vertexSource, err := c.shaders.VertexSource()
	if err != nil {
		return initError("read vertex shader", err)
	}
	fragmentSource, err := c.shaders.FragmentSource()
	if err != nil {
		return initError("read fragment shader", err)
	}

	vertexShader, err := c.driver.CompileShader(VertexShader, vertexSource)
	if err != nil || vertexShader == 0 {
		return initError("compile vertex shader", err)
	}
	fragmentShader, err := c.driver.CompileShader(FragmentShader, fragmentSource)
	if err != nil || fragmentShader == 0 {
		return initError("compile fragment shader", err)
	}

	program, err := c.driver.LinkProgram(vertexShader, fragmentShader)
	if err != nil || program == 0 {
		return initError("link program", err)
	}
	c.program = program
	return nil
}

func (c *GraphicsContext) initTexture() error {
	if err := c.driver.BindQuad(c.program, QuadVertices, QuadTexCoords, CoordsPerVertex); err != nil {
		return initError("bind quad", err)
	}
	if err := c.driver.CreateTexture(); err != nil {
		return initError("create texture", err)
	}

	c.driver.ClearColor(0, 0, 0, 1)
	c.driver.Clear()
	c.driver.UseProgram(c.program)
	return nil
}

// UploadAndPresent replaces the texture with pixmap when it is not nil,
// draws the quad and presents. A nil pixmap redraws the previous texture.
func (c *GraphicsContext) UploadAndPresent(pixmap *Pixmap) error {
	if c.state != ContextTextureReady {
		return fmt.Errorf("GraphicsContext is %v", c.state)
	}

	if pixmap != nil {
		if err := c.driver.TexImage2D(pixmap); err != nil {
			return err
		}
	}
	c.driver.DrawTriangleStrip(QuadVertexCount)
	return c.driver.SwapBuffers()
}

// Dispose waits for pending GPU work and tears down what Init created, in
// reverse order. Errors of the individual steps are combined.
func (c *GraphicsContext) Dispose() error {
	if c.state == ContextDisposed {
		return nil
	}

	var err error
	if c.current {
		err = multierr.Append(err, c.driver.WaitGL())
		err = multierr.Append(err, c.driver.ReleaseCurrent())
		c.current = false
	}
	if c.surfaceCreated {
		err = multierr.Append(err, c.driver.DestroySurface())
		c.surfaceCreated = false
	}
	if c.contextCreated {
		err = multierr.Append(err, c.driver.DestroyContext())
		c.contextCreated = false
	}
	if c.displayOpen {
		err = multierr.Append(err, c.driver.Terminate())
		c.displayOpen = false
	}

	c.state = ContextDisposed
	return err
}
