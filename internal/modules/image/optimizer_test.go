package image

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func solidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	return img
}

func TestTargetSize(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
		wantResized  bool
	}{
		{"within bounds", 800, 600, 800, 600, false},
		{"exact bound", 1024, 1024, 1024, 1024, false},
		{"landscape", 4000, 3000, 1024, 768, true},
		{"portrait", 1500, 3000, 512, 1024, true},
		{"square", 2048, 2048, 1024, 1024, true},
		{"truncates", 3000, 1999, 1024, 682, true},
		{"extreme strip keeps one pixel", 100000, 10, 1024, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, resized := TargetSize(tt.w, tt.h, 1024)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
			assert.Equal(t, tt.wantResized, resized)
		})
	}
}

func TestOptimizeResizesLargeImages(t *testing.T) {
	o := NewOptimizer(1024, 85)
	for _, size := range [][2]int{{2048, 1536}, {1200, 1300}, {1025, 10}, {333, 2000}} {
		w, h := size[0], size[1]
		out, err := o.Optimize(encodePNG(t, solidNRGBA(w, h, color.NRGBA{R: 200, G: 150, B: 50, A: 255})))
		require.NoError(t, err)

		b := decodeJPEG(t, out).Bounds()
		assert.Equal(t, 1024, max(b.Dx(), b.Dy()), "%dx%d", w, h)
		// aspect ratio within one pixel of rounding
		if w > h {
			assert.InDelta(t, float64(h)*1024/float64(w), float64(b.Dy()), 1)
		} else {
			assert.InDelta(t, float64(w)*1024/float64(h), float64(b.Dx()), 1)
		}
	}
}

func TestOptimizeKeepsSmallImages(t *testing.T) {
	o := NewOptimizer(1024, 85)
	out, err := o.Optimize(encodePNG(t, solidNRGBA(640, 1024, color.NRGBA{R: 10, G: 20, B: 30, A: 255})))
	require.NoError(t, err)
	b := decodeJPEG(t, out).Bounds()
	assert.Equal(t, 640, b.Dx())
	assert.Equal(t, 1024, b.Dy())
}

func TestOptimizeAcceptsAlphaAndPalette(t *testing.T) {
	o := NewOptimizer(1024, 85)

	t.Run("rgba png", func(t *testing.T) {
		out, err := o.Optimize(encodePNG(t, solidNRGBA(32, 32, color.NRGBA{R: 255, A: 0})))
		require.NoError(t, err)
		// alpha is dropped, the stored color survives
		r, g, b, _ := decodeJPEG(t, out).At(16, 16).RGBA()
		assert.Greater(t, r>>8, uint32(200))
		assert.Less(t, g>>8, uint32(60))
		assert.Less(t, b>>8, uint32(60))
	})

	t.Run("paletted gif", func(t *testing.T) {
		img := image.NewPaletted(image.Rect(0, 0, 40, 20), palette.Plan9)
		var buf bytes.Buffer
		require.NoError(t, gif.Encode(&buf, img, nil))
		out, err := o.Optimize(buf.Bytes())
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 40, 20), decodeJPEG(t, out).Bounds())
	})

	t.Run("ycbcr with alpha", func(t *testing.T) {
		// lossy webp with an alpha plane decodes to NYCbCrA
		img := image.NewNYCbCrA(image.Rect(0, 0, 32, 32), image.YCbCrSubsampleRatio444)
		y, cb, cr := color.RGBToYCbCr(255, 0, 0)
		for i := range img.Y {
			img.Y[i], img.Cb[i], img.Cr[i] = y, cb, cr
			img.A[i] = uint8(i % 2 * 64)
		}
		require.True(t, hasAlphaOrPalette(img))

		flat := dropAlpha(img)
		_, _, _, a := flat.At(3, 3).RGBA()
		assert.Equal(t, uint32(0xffff), a)

		out, err := o.encode(img)
		require.NoError(t, err)
		r, g, b, _ := decodeJPEG(t, out).At(16, 16).RGBA()
		assert.Greater(t, r>>8, uint32(200))
		assert.Less(t, g>>8, uint32(60))
		assert.Less(t, b>>8, uint32(60))
	})

	t.Run("opaque inputs pass through", func(t *testing.T) {
		assert.False(t, hasAlphaOrPalette(image.NewYCbCr(image.Rect(0, 0, 4, 4), image.YCbCrSubsampleRatio420)))
		assert.False(t, hasAlphaOrPalette(image.NewGray(image.Rect(0, 0, 4, 4))))
		assert.False(t, hasAlphaOrPalette(solidNRGBA(4, 4, color.NRGBA{G: 255, A: 255})))
	})

	t.Run("jpeg", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, jpeg.Encode(&buf, solidNRGBA(50, 50, color.NRGBA{G: 255, A: 255}), nil))
		out, err := o.Optimize(buf.Bytes())
		require.NoError(t, err)
		decodeJPEG(t, out)
	})
}

func TestOptimizeRejectsGarbage(t *testing.T) {
	_, err := NewOptimizer(1024, 85).Optimize([]byte("definitely not an image"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProcessing))
}

func TestOptimizeToDataURL(t *testing.T) {
	url, err := NewOptimizer(0, 0).OptimizeToDataURL(encodePNG(t, solidNRGBA(8, 8, color.NRGBA{B: 255, A: 255})))
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(url, "data:image/jpeg;base64,"))
	payload, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	decodeJPEG(t, payload)
}
