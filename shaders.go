package bitmap

import (
	"embed"
	"os"
)

//go:embed shaders/*.glsl
var shaderFS embed.FS

// ShaderSource provides the vertex and fragment shader sources of the quad program
type ShaderSource interface {
	VertexSource() (string, error)
	FragmentSource() (string, error)
}

// EmbeddedShaders are the shaders bundled with the package
type EmbeddedShaders struct{}

// VertexSource implements ShaderSource
func (EmbeddedShaders) VertexSource() (string, error) {
	data, err := shaderFS.ReadFile("shaders/vertex_shader.glsl")
	return string(data), err
}

// FragmentSource implements ShaderSource
func (EmbeddedShaders) FragmentSource() (string, error) {
	data, err := shaderFS.ReadFile("shaders/fragment_shader.glsl")
	return string(data), err
}

// FileShaders loads shader sources from disk. An empty path falls back to
// the embedded shader.
type FileShaders struct {
	Vertex   string
	Fragment string
}

// VertexSource implements ShaderSource
func (s FileShaders) VertexSource() (string, error) {
	if s.Vertex == "" {
		return EmbeddedShaders{}.VertexSource()
	}
	data, err := os.ReadFile(s.Vertex)
	return string(data), err
}

// FragmentSource implements ShaderSource
func (s FileShaders) FragmentSource() (string, error) {
	if s.Fragment == "" {
		return EmbeddedShaders{}.FragmentSource()
	}
	data, err := os.ReadFile(s.Fragment)
	return string(data), err
}
