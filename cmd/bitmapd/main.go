package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/anthonynsimon/bild/transform"
	"github.com/gin-gonic/gin"
	"github.com/jessevdk/go-flags"
	"github.com/rmcsoft/bitmap"
	"github.com/rmcsoft/bitmap/internal/config"
	"github.com/rmcsoft/bitmap/internal/server"
	"github.com/rmcsoft/bitmap/kmsdrm"
	"github.com/rmcsoft/bitmap/sdlgl"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
)

type options struct {
	Config string `short:"c" long:"config" description:"YAML configuration file"`
	Listen string `short:"l" long:"listen" description:"Listen address, overrides server.listen"`
	Driver string `short:"d" long:"driver" description:"Render driver, overrides render.driver" choice:"software" choice:"sdl" choice:"kmsdrm"`
}

func parseCmd() options {
	var opts options
	var cmdParser = flags.NewParser(&opts, flags.Default)

	if _, err := cmdParser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		} else {
			os.Exit(1)
		}
	}

	return opts
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	switch cfg.Format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	log.SetOutput(os.Stdout)
	return log
}

// backend is what a render driver choice resolves to
type backend struct {
	config bitmap.SessionConfig
	frames *bitmap.MemoryAllocator
	close  func() error
}

func newBackend(cfg config.RenderConfig) (*backend, error) {
	filter := transform.NearestNeighbor
	if cfg.Filter == "linear" {
		filter = transform.Linear
	}

	var decoder bitmap.Decoder = bitmap.ImageDecoder{}
	if cfg.Decoder == "sdl" {
		decoder = sdlgl.ImageDecoder{}
	}

	b := &backend{
		config: bitmap.SessionConfig{
			Pipeline: bitmap.NewImagePipeline(decoder, bitmap.WithResampleFilter(filter)),
			Shaders: bitmap.FileShaders{
				Vertex:   cfg.VertexShader,
				Fragment: cfg.FragmentShader,
			},
		},
		close: func() error { return nil },
	}

	switch cfg.Driver {
	case "software":
		b.frames = bitmap.NewMemoryAllocator()
		b.config.Allocator = b.frames
		b.config.Driver = bitmap.NewSoftwareDriver

	case "sdl":
		var windowFlags uint32
		if cfg.HiddenWindows {
			windowFlags = sdl.WINDOW_HIDDEN
		}
		b.config.Allocator = sdlgl.NewAllocator(windowFlags)
		b.config.Driver = sdlgl.NewDriver

	case "kmsdrm":
		pixFormat := bitmap.XRGB32
		if cfg.DRMFormat == "rgb16" {
			pixFormat = bitmap.RGB16
		}
		allocator, err := kmsdrm.NewAllocator(cfg.DRMCard, pixFormat)
		if err != nil {
			return nil, fmt.Errorf("kmsdrm: %w", err)
		}
		b.config.Allocator = allocator
		b.config.Driver = bitmap.NewSoftwareDriver
		b.close = allocator.Close

	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
	return b, nil
}

func main() {
	opts := parseCmd()

	cfg, err := config.Load(opts.Config)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}
	if opts.Driver != "" {
		cfg.Render.Driver = opts.Driver
	}

	log := newLogger(cfg.Log)
	bitmap.SetLogger(log)

	b, err := newBackend(cfg.Render)
	if err != nil {
		log.Fatalf("Failed to create render backend: %v", err)
	}

	plugin := bitmap.NewPlugin(b.config)

	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr:    cfg.Server.Listen,
		Handler: server.New(plugin, cfg.Server.RequestTimeout, b.frames).Router(),
	}

	go func() {
		log.WithField("driver", cfg.Render.Driver).Infof("Listening on %s", cfg.Server.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	if err := httpServer.Close(); err != nil {
		log.WithError(err).Error("Server close failed")
	}
	if err := plugin.Close(); err != nil {
		log.WithError(err).Error("Sessions disposed with errors")
	}
	if err := b.close(); err != nil {
		log.WithError(err).Error("Backend close failed")
	}
}
