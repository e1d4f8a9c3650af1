package photo

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) *bytes.Buffer {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestDeriver_ShrinksLongSide(t *testing.T) {
	d := NewDeriver(800, 82)

	var out bytes.Buffer
	require.NoError(t, d.Derive(encodePNG(t, 1600, 1200), &out))

	thumb := decodeJPEG(t, out.Bytes())
	assert.Equal(t, 800, thumb.Bounds().Dx())
	assert.Equal(t, 600, thumb.Bounds().Dy())
}

func TestDeriver_PortraitOrientation(t *testing.T) {
	d := NewDeriver(800, 82)

	var out bytes.Buffer
	require.NoError(t, d.Derive(encodePNG(t, 600, 2400), &out))

	thumb := decodeJPEG(t, out.Bytes())
	assert.Equal(t, 200, thumb.Bounds().Dx())
	assert.Equal(t, 800, thumb.Bounds().Dy())
}

func TestDeriver_DoesNotUpscale(t *testing.T) {
	d := NewDeriver(800, 82)

	var out bytes.Buffer
	require.NoError(t, d.Derive(encodePNG(t, 120, 90), &out))

	thumb := decodeJPEG(t, out.Bytes())
	assert.Equal(t, 120, thumb.Bounds().Dx())
	assert.Equal(t, 90, thumb.Bounds().Dy())
}

func TestDeriver_RejectsNonImage(t *testing.T) {
	d := NewDeriver(800, 82)

	var out bytes.Buffer
	err := d.Derive(strings.NewReader("definitely not an image"), &out)
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		maxSide       int
		wantW, wantH  int
	}{
		{"landscape", 1600, 1200, 800, 800, 600},
		{"portrait", 1200, 1600, 800, 600, 800},
		{"square", 2000, 2000, 800, 800, 800},
		{"already small", 400, 300, 800, 400, 300},
		{"extreme aspect ratio", 8000, 10, 800, 800, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitWithin(tt.width, tt.height, tt.maxSide)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}
