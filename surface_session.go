package bitmap

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// RenderResult is delivered once a render request finished
type RenderResult struct {
	SurfaceID int64
	Err       error
}

// ReplyFunc receives the result of a render request
type ReplyFunc func(RenderResult)

// SessionConfig holds what every SurfaceSession is built from
type SessionConfig struct {
	Allocator SurfaceAllocator
	Driver    DriverFactory
	Pipeline  *ImagePipeline
	// Shaders defaults to EmbeddedShaders
	Shaders ShaderSource
	// Control receives render replies; nil replies on the worker goroutine
	Control Poster
}

// SurfaceSession owns one surface, the worker goroutine bound to it and the
// graphics context living on that goroutine. Renders and the final dispose
// run on the worker strictly in submission order.
type SurfaceSession struct {
	id        int64
	surface   Surface
	allocator SurfaceAllocator
	pipeline  *ImagePipeline
	control   Poster
	looper    *Looper
	log       *logrus.Entry

	// owned by the worker goroutine
	graphics *GraphicsContext
	last     *Pixmap

	mutex    sync.Mutex
	initErr  error
	disposed bool
	ready    chan struct{}
}

// NewSurfaceSession creates a session for an allocated surface and queues
// the graphics context initialization as the first task of its worker.
func NewSurfaceSession(id int64, surface Surface, config SessionConfig) *SurfaceSession {
	s := &SurfaceSession{
		id:        id,
		surface:   surface,
		allocator: config.Allocator,
		pipeline:  config.Pipeline,
		control:   config.Control,
		looper:    NewLooper(fmt.Sprintf("Render-%d", id), true),
		graphics:  NewGraphicsContext(config.Driver(), config.Shaders),
		ready:     make(chan struct{}),
		log: Logger().WithFields(logrus.Fields{
			"surface": id,
			"session": uuid.NewString(),
		}),
	}

	s.looper.Post(s.init)
	return s
}

// ID returns the surface id
func (s *SurfaceSession) ID() int64 {
	return s.id
}

// Ready is closed once the graphics context initialization has run,
// whether it succeeded or not.
func (s *SurfaceSession) Ready() <-chan struct{} {
	return s.ready
}

// Err returns the initialization error that put the session in its
// permanent failure state, or nil.
func (s *SurfaceSession) Err() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.initErr
}

func (s *SurfaceSession) init() {
	defer close(s.ready)

	if err := s.graphics.Init(s.surface); err != nil {
		s.mutex.Lock()
		s.initErr = err
		s.mutex.Unlock()
		s.log.WithError(err).Error("Graphics context initialization failed, session is unusable")
		return
	}
	s.log.Info("Graphics context ready")
}

// Render queues req behind every previously submitted request. reply is
// called with the surface id once the frame was presented. It returns false
// when the session no longer accepts work.
func (s *SurfaceSession) Render(req RenderRequest, reply ReplyFunc) bool {
	posted := s.looper.Post(func() {
		s.deliver(reply, s.render(req))
	})
	if !posted {
		s.log.Debug("Render dropped, session is disposed")
	}
	return posted
}

func (s *SurfaceSession) render(req RenderRequest) RenderResult {
	if err := s.Err(); err != nil {
		return RenderResult{
			SurfaceID: s.id,
			Err:       fmt.Errorf("%w: surface %d: %v", ErrSessionFailed, s.id, err),
		}
	}

	pixmap := s.pipeline.Produce(context.Background(), req)
	if pixmap != nil {
		s.last = pixmap
	}

	if err := s.graphics.UploadAndPresent(pixmap); err != nil {
		s.log.WithError(err).Warn("Present failed")
	} else {
		s.log.WithField("uploaded", pixmap != nil).Debug("Frame presented")
	}
	return RenderResult{SurfaceID: s.id}
}

func (s *SurfaceSession) deliver(reply ReplyFunc, result RenderResult) {
	if reply == nil {
		return
	}
	if s.control != nil && s.control.Post(func() { reply(result) }) {
		return
	}
	reply(result)
}

// Dispose queues the context teardown behind every pending render, waits
// for the worker to drain and exit, then releases the surface. It never
// interrupts a render in flight. Calling it again is a no-op.
func (s *SurfaceSession) Dispose() error {
	s.mutex.Lock()
	if s.disposed {
		s.mutex.Unlock()
		return nil
	}
	s.disposed = true
	s.mutex.Unlock()

	var disposeErr error
	s.looper.Post(func() {
		disposeErr = s.graphics.Dispose()
		s.last = nil
	})
	s.looper.QuitSafely()
	s.looper.Join()

	err := multierr.Append(disposeErr, s.allocator.Release(s.surface))
	if err != nil {
		s.log.WithError(err).Warn("Session disposed with errors")
	} else {
		s.log.Info("Session disposed")
	}
	return err
}
