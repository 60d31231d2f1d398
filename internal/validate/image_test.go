package validate

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/HugoSmits86/nativewebp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-backend/internal/apperr"
)

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 90, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, w, h int) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(w, h)))
	return bytes.NewReader(buf.Bytes())
}

func TestIconImageSize(t *testing.T) {
	tests := []struct {
		w, h    int
		wantErr bool
	}{
		{1, 1, false},
		{70, 70, false},
		{70, 10, false},
		{71, 70, true},
		{70, 71, true},
		{200, 200, true},
	}
	for _, tt := range tests {
		err := IconImageSize(encodePNG(t, tt.w, tt.h))
		if tt.wantErr {
			require.Error(t, err, "%dx%d", tt.w, tt.h)
			assert.True(t, apperr.IsValidation(err))
			assert.Contains(t, err.Error(), "size you uploaded")
		} else {
			assert.NoError(t, err, "%dx%d", tt.w, tt.h)
		}
	}
}

func TestIconImageSizeReportsDimensions(t *testing.T) {
	err := IconImageSize(encodePNG(t, 120, 80))
	require.Error(t, err)
	assert.Equal(t, "Icon image should be less than or equal to 70x70 pixels - size you uploaded : 120x80.", err.Error())
}

func TestIconImageSizeOtherFormats(t *testing.T) {
	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, solid(90, 40), nil))
	assert.Error(t, IconImageSize(bytes.NewReader(jpg.Bytes())))

	var gf bytes.Buffer
	require.NoError(t, gif.Encode(&gf, solid(32, 32), nil))
	assert.NoError(t, IconImageSize(bytes.NewReader(gf.Bytes())))

	var wp bytes.Buffer
	require.NoError(t, nativewebp.Encode(&wp, solid(100, 100), &nativewebp.Options{}))
	err := IconImageSize(bytes.NewReader(wp.Bytes()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "100x100")
}

func TestIconImageSizeNilAndGarbage(t *testing.T) {
	assert.NoError(t, IconImageSize(nil))

	err := IconImageSize(strings.NewReader("not an image"))
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestImage(t *testing.T) {
	assert.NoError(t, Image(nil))
	assert.NoError(t, Image(encodePNG(t, 500, 120)))
	assert.Error(t, Image(strings.NewReader("GIF89 but not really")))
}

func TestImageFileExtension(t *testing.T) {
	valid := []string{"a.jpg", "a.jpeg", "a.png", "a.gif", "A.JPG", "photo.Png", "dir/b.GIF", "x.tar.jpeg"}
	for _, name := range valid {
		assert.NoError(t, ImageFileExtension(name), name)
	}

	invalid := []string{"a.webp", "a.bmp", "a", "a.", "a.jpg.exe", "png", "a.svg"}
	for _, name := range invalid {
		err := ImageFileExtension(name)
		require.Error(t, err, name)
		assert.True(t, apperr.IsValidation(err))
		assert.Equal(t, "Unsupported file extension. Only .jpg, .jpeg, .png, .gif are allowed.", err.Error())
	}
}
