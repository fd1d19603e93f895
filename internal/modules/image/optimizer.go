// Package image prepares uploaded sketches for the generation API: it
// bounds their size and recompresses them as JPEG.
package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/reusedev/sketch-relay/tools"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxEdge = 1024
	DefaultQuality = 85
	MimeJPEG       = "image/jpeg"
)

var ErrProcessing = errors.New("image processing failed")

type Optimizer struct {
	MaxEdge int
	Quality int
}

func NewOptimizer(maxEdge, quality int) *Optimizer {
	if maxEdge <= 0 {
		maxEdge = DefaultMaxEdge
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Optimizer{MaxEdge: maxEdge, Quality: quality}
}

// Optimize decodes data, drops any alpha channel, shrinks the image so its
// longer edge is at most MaxEdge and re-encodes it as JPEG.
func (o *Optimizer) Optimize(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrProcessing, err)
	}
	return o.encode(img)
}

func (o *Optimizer) encode(img image.Image) ([]byte, error) {
	if hasAlphaOrPalette(img) {
		img = dropAlpha(img)
	}
	b := img.Bounds()
	if width, height, ok := TargetSize(b.Dx(), b.Dy(), o.MaxEdge); ok {
		img = imaging.Resize(img, width, height, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(o.Quality)); err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrProcessing, err)
	}
	return buf.Bytes(), nil
}

// OptimizeToDataURL runs Optimize and wraps the result as a JPEG data URL.
func (o *Optimizer) OptimizeToDataURL(data []byte) (string, error) {
	optimized, err := o.Optimize(data)
	if err != nil {
		return "", err
	}
	return DataURL(optimized), nil
}

func DataURL(jpeg []byte) string {
	return tools.DataURL(MimeJPEG, jpeg)
}

// TargetSize returns the aspect-preserving size whose longer edge is maxEdge.
// ok is false when the image already fits.
func TargetSize(width, height, maxEdge int) (int, int, bool) {
	if max(width, height) <= maxEdge {
		return width, height, false
	}
	if width > height {
		return maxEdge, max(1, int(float64(height)*(float64(maxEdge)/float64(width)))), true
	}
	return max(1, int(float64(width)*(float64(maxEdge)/float64(height)))), maxEdge, true
}

func hasAlphaOrPalette(img image.Image) bool {
	if _, ok := img.(*image.Paletted); ok {
		return true
	}
	o, ok := img.(interface{ Opaque() bool })
	return !ok || !o.Opaque()
}

// dropAlpha keeps the straight (non-premultiplied) color of every pixel and
// forces it opaque. Transparent areas keep whatever color they carried.
func dropAlpha(img image.Image) image.Image {
	if m, ok := img.(*image.NYCbCrA); ok {
		return &m.YCbCr
	}
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
