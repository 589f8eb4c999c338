package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestResizeToWidth(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 100))

	t.Run("keeps aspect ratio", func(t *testing.T) {
		out := ResizeToWidth(src, 50)
		assert.Equal(t, 50, out.Bounds().Dx())
		assert.Equal(t, 25, out.Bounds().Dy())
	})

	t.Run("upscales", func(t *testing.T) {
		out := ResizeToWidth(src, 400)
		assert.Equal(t, 400, out.Bounds().Dx())
		assert.Equal(t, 200, out.Bounds().Dy())
	})

	t.Run("invalid width returns source", func(t *testing.T) {
		assert.Same(t, src, ResizeToWidth(src, 0))
	})
}

func TestProcessForDownload(t *testing.T) {
	data := testPNG(t, 64, 32)

	t.Run("jpeg by default", func(t *testing.T) {
		out, mime, err := ProcessForDownload(data, 16, "")
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", mime)

		img, err := jpeg.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 16, img.Bounds().Dx())
		assert.Equal(t, 8, img.Bounds().Dy())
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, _, err := ProcessForDownload(data, 16, "gif")
		assert.Error(t, err)
	})

	t.Run("not an image", func(t *testing.T) {
		_, _, err := ProcessForDownload([]byte("hello"), 16, "jpeg")
		assert.Error(t, err)
	})
}

func TestDetectMimeType(t *testing.T) {
	mime, err := DetectMimeType(testPNG(t, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	_, err = DetectMimeType([]byte("plain text"))
	assert.Error(t, err)
}
