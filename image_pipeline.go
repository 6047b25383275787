package bitmap

import (
	"context"

	"github.com/anthonynsimon/bild/transform"
	"github.com/sirupsen/logrus"
)

// RenderRequest describes one frame to show on a surface
type RenderRequest struct {
	// Path is the image source handed to the decoder
	Path string
	// Width and Height are the target size in pixels
	Width  int
	Height int
	Fit    FitMode
	// CachePath is the raw pixel cache file for this image at this size
	CachePath string
	// UseCache reads CachePath instead of decoding Path
	UseCache bool
}

// ImagePipeline produces the pixmap for a render request, either from the
// pixel cache or by decoding and crop-filling the source.
type ImagePipeline struct {
	decoder Decoder
	filter  transform.ResampleFilter
}

// PipelineOption configures an ImagePipeline
type PipelineOption func(*ImagePipeline)

// WithResampleFilter sets the filter used when scaling decoded images
func WithResampleFilter(filter transform.ResampleFilter) PipelineOption {
	return func(p *ImagePipeline) {
		p.filter = filter
	}
}

// NewImagePipeline creates an ImagePipeline. Scaling defaults to nearest
// neighbour.
func NewImagePipeline(decoder Decoder, opts ...PipelineOption) *ImagePipeline {
	p := &ImagePipeline{
		decoder: decoder,
		filter:  transform.NearestNeighbor,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Produce returns the pixmap for req, or nil when none is available.
// Failures are logged and never returned: a nil pixmap means the previous
// frame stays on screen.
func (p *ImagePipeline) Produce(ctx context.Context, req RenderRequest) *Pixmap {
	log := Logger().WithFields(logrus.Fields{
		"path":  req.Path,
		"cache": req.CachePath,
	})

	if req.UseCache {
		pixmap, err := ReadPixelCache(req.CachePath, req.Width, req.Height)
		if err != nil {
			log.WithError(err).Warn("Pixel cache read failed")
			return nil
		}
		log.Debug("Pixel cache hit")
		return pixmap
	}

	decoded, err := p.decoder.Decode(ctx, req.Path)
	if err != nil {
		log.WithError(err).Warn("Decode failed")
		return nil
	}

	var pixmap *Pixmap
	switch req.Fit.Resolve() {
	case FitCropFill:
		pixmap, err = ResizeCrop(decoded, req.Width, req.Height, p.filter)
	}
	if err != nil {
		log.WithError(err).Warn("Fit transform failed")
		return nil
	}

	if req.CachePath == "" {
		log.Debug("No cache path, skipping pixel cache write")
		return pixmap
	}
	if err := WritePixelCache(req.CachePath, pixmap); err != nil {
		log.WithError(err).Warn("Pixel cache write failed")
	}
	return pixmap
}
