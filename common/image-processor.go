package common

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/url"
	"path"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	"github.com/spf13/afero"
	_ "golang.org/x/image/webp"
)

const (
	// DerivedExt is the extension of every compressed derivative
	DerivedExt = ".webp"
	// DefaultExt is used when the source URL carries no extension
	DefaultExt = ".png"
	// DefaultQuality is the lossy WebP quality used for derivatives
	DefaultQuality = 80
)

// Size is a resize target. Images are scaled to cover it and the
// overflow is cropped around the center.
type Size struct {
	Width  int
	Height int
}

// ProcessOptions tweaks a single Process call
type ProcessOptions struct {
	Resize *Size
}

// Processor writes original images and their WebP derivatives
type Processor struct {
	fs      afero.Fs
	quality int
}

// NewProcessor creates a processor writing through fs
func NewProcessor(fs afero.Fs, quality int) *Processor {
	if quality <= 0 {
		quality = DefaultQuality
	}
	return &Processor{fs: fs, quality: quality}
}

// Result lists the files written by Process
type Result struct {
	OriginalPath string
	DerivedPath  string
}

// Process stores buf verbatim as dir/base<ext>, where ext comes from
// sourceURL, and a WebP derivative as dir/base.webp.
func (p *Processor) Process(buf []byte, sourceURL, dir, base string, opts ProcessOptions) (Result, error) {
	res := Result{
		OriginalPath: filepath.Join(dir, base+ExtFromURL(sourceURL)),
		DerivedPath:  filepath.Join(dir, base+DerivedExt),
	}

	if err := afero.WriteFile(p.fs, res.OriginalPath, buf, 0644); err != nil {
		return res, fmt.Errorf("failed to write original: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(buf))
	if err != nil {
		return res, fmt.Errorf("failed to decode image: %w", err)
	}

	if opts.Resize != nil {
		img = imaging.Fill(img, opts.Resize.Width, opts.Resize.Height, imaging.Center, imaging.Lanczos)
	}

	if err := p.writeWebP(img, res.DerivedPath); err != nil {
		return res, err
	}

	return res, nil
}

// Derive encodes the image at srcPath into a WebP file at dstPath
func (p *Processor) Derive(srcPath, dstPath string) error {
	f, err := p.fs.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer f.Close()

	img, err := imaging.Decode(f)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", srcPath, err)
	}

	return p.writeWebP(img, dstPath)
}

func (p *Processor) writeWebP(img image.Image, dstPath string) error {
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(p.quality))
	if err != nil {
		return fmt.Errorf("failed to build webp options: %w", err)
	}

	var buf bytes.Buffer
	// the encoder only takes RGBA/NRGBA
	if err := webp.Encode(&buf, imaging.Clone(img), options); err != nil {
		return fmt.Errorf("failed to encode webp: %w", err)
	}

	if err := afero.WriteFile(p.fs, dstPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write webp: %w", err)
	}

	return nil
}

// Dimensions reads width and height from the image header only
func Dimensions(r io.Reader) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// ExtFromURL returns the extension of the URL path, query excluded.
// A path without one yields DefaultExt.
func ExtFromURL(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}

	ext := path.Ext(p)
	if ext == "" || ext == "." {
		return DefaultExt
	}
	return ext
}
