// Package server exposes the plugin method channel over HTTP
package server

import (
	"bytes"
	"image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rmcsoft/bitmap"
)

// Server maps HTTP requests to plugin method calls
type Server struct {
	plugin  *bitmap.Plugin
	timeout time.Duration
	frames  *bitmap.MemoryAllocator
}

// New creates Server. frames may be nil; when set, the frames presented on
// its surfaces can be fetched as PNG.
func New(plugin *bitmap.Plugin, timeout time.Duration, frames *bitmap.MemoryAllocator) *Server {
	return &Server{
		plugin:  plugin,
		timeout: timeout,
		frames:  frames,
	}
}

// Router builds the gin engine
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	router.POST("/"+bitmap.MethodRender, s.call(bitmap.MethodRender))
	router.POST("/"+bitmap.MethodDisposeList, s.call(bitmap.MethodDisposeList))
	router.POST("/call", s.methodCall)

	if s.frames != nil {
		router.GET("/surfaces/:id/frame.png", s.frame)
	}
	return router
}

func (s *Server) call(method string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var args map[string]interface{}
		if err := c.ShouldBindJSON(&args); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.dispatch(c, bitmap.MethodCall{Method: method, Arguments: args})
	}
}

func (s *Server) methodCall(c *gin.Context) {
	var call bitmap.MethodCall
	if err := c.ShouldBindJSON(&call); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.dispatch(c, call)
}

func (s *Server) dispatch(c *gin.Context, call bitmap.MethodCall) {
	result := bitmap.NewChanResult()
	s.plugin.OnMethodCall(call, result)

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case reply := <-result:
		switch {
		case reply.NotImplemented:
			c.JSON(http.StatusNotImplemented, gin.H{"error": "method not implemented: " + call.Method})
		case reply.Err != nil:
			c.JSON(statusOf(reply.Err.Code), gin.H{"error": reply.Err})
		default:
			c.JSON(http.StatusOK, gin.H{"result": reply.Value})
		}
	case <-timer.C:
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "method call timed out"})
	case <-c.Request.Context().Done():
		c.Status(499)
	}
}

func statusOf(code string) int {
	switch code {
	case bitmap.CodeBadArgs:
		return http.StatusBadRequest
	case bitmap.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) frame(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	surface, ok := s.frames.Surface(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such surface"})
		return
	}
	frame := surface.Frame()
	if frame == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
