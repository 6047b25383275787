package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/rmcsoft/bitmap"
	"github.com/sirupsen/logrus"
)

type options struct {
	InputDir  string `short:"i" long:"input-dir"  description:"The input directory" required:"true"`
	OutputDir string `short:"o" long:"output-dir" description:"The output directory" required:"true"`
	Width     int    `short:"W" long:"width"      description:"Target width" required:"true"`
	Height    int    `short:"H" long:"height"     description:"Target height" required:"true"`
	Fit       uint8  `short:"f" long:"fit"        description:"Fit mode" default:"0"`
	Verbose   bool   `short:"v" long:"verbose"    description:"Log every step"`
}

var imagePatterns = []string{"*.png", "*.jpg", "*.jpeg", "*.gif", "*.bmp", "*.tiff", "*.webp"}

func isImage(name string) bool {
	name = strings.ToLower(name)
	for _, pattern := range imagePatterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func images(opts options) chan string {
	ch := make(chan string, 512)
	go func() {
		defer close(ch)

		walkFn := func(path string, info os.FileInfo, err error) error {
			if err == nil && !info.IsDir() && isImage(info.Name()) {
				ch <- path
			}
			return err
		}

		err := filepath.Walk(opts.InputDir, walkFn)
		if err != nil {
			panic(err)
		}
	}()
	return ch
}

func parseCmd() options {
	var opts options
	var cmdParser = flags.NewParser(&opts, flags.Default)
	var err error

	if _, err = cmdParser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		} else {
			os.Exit(1)
		}
	}

	if opts.Width <= 0 || opts.Height <= 0 {
		fmt.Fprintf(os.Stderr, "invalid size %dx%d\n", opts.Width, opts.Height)
		os.Exit(1)
	}

	if opts.InputDir, err = filepath.Abs(opts.InputDir); err != nil {
		panic(err)
	}

	if opts.OutputDir, err = filepath.Abs(opts.OutputDir); err != nil {
		panic(err)
	}

	return opts
}

// cachePath mirrors the input tree: a/b.png becomes a/b_<w>x<h>.bitmap
func cachePath(opts *options, inputImageFile string) string {
	relInputPath, err := filepath.Rel(opts.InputDir, inputImageFile)
	if err != nil {
		panic(err)
	}

	outputImageDir := filepath.Join(opts.OutputDir, filepath.Dir(relInputPath))
	if err = os.MkdirAll(outputImageDir, 0755); err != nil {
		panic(err)
	}

	base := strings.TrimSuffix(filepath.Base(relInputPath), filepath.Ext(relInputPath))
	return filepath.Join(outputImageDir, fmt.Sprintf("%s_%dx%d.bitmap", base, opts.Width, opts.Height))
}

func main() {
	opts := parseCmd()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if opts.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	bitmap.SetLogger(log)

	pipeline := bitmap.NewImagePipeline(bitmap.ImageDecoder{})

	var written, failed int
	var cacheSize int64
	for imageFile := range images(opts) {
		fmt.Printf("Image %s\n", imageFile)

		req := bitmap.RenderRequest{
			Path:      imageFile,
			Width:     opts.Width,
			Height:    opts.Height,
			Fit:       bitmap.FitMode(opts.Fit),
			CachePath: cachePath(&opts, imageFile),
		}
		pixmap := pipeline.Produce(context.Background(), req)
		if pixmap == nil {
			failed++
			continue
		}
		written++
		cacheSize += int64(bitmap.PixmapSize(pixmap.Width, pixmap.Height))
	}

	fmt.Printf("---------------------------\n")
	fmt.Printf("written=%v\n", written)
	fmt.Printf("failed=%v\n", failed)
	fmt.Printf("cacheSize=%vMiB\n", cacheSize/1024/1024)
	if failed > 0 {
		os.Exit(1)
	}
}
