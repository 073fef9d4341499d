package photo

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"theme-mapper/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLoadAndResize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sea.png")
	writePNG(t, path, 120, 80, color.RGBA{R: 10, G: 120, B: 200, A: 255})

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "png", p.Format)
	assert.Equal(t, image.Rect(0, 0, 120, 80), p.Image.Bounds())

	for _, interp := range []Interpolation{InterpNearest, InterpBilinear, InterpCatmullRom} {
		small := Resize(p.Image, 50, interp)
		assert.Equal(t, image.Rect(0, 0, 50, 50), small.Bounds(), interp.String())
		c := small.RGBAAt(25, 25)
		assert.Equal(t, color.RGBA{R: 10, G: 120, B: 200, A: 255}, c, interp.String())
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.png"))
	var missing *domain.MissingFileError
	assert.True(t, errors.As(err, &missing))
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
	var missing *domain.MissingFileError
	assert.False(t, errors.As(err, &missing))
}

func TestListSortsAndFilters(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.JPG", "notes.txt", "c.tiff"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o755))

	paths, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.JPG"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "c.tiff"),
	}, paths)

	_, err = List(filepath.Join(dir, "missing"))
	var missing *domain.MissingFileError
	assert.True(t, errors.As(err, &missing))
}

func TestParseInterpolation(t *testing.T) {
	i, err := ParseInterpolation("CatmullRom")
	require.NoError(t, err)
	assert.Equal(t, InterpCatmullRom, i)

	_, err = ParseInterpolation("lanczos")
	assert.Error(t, err)
}

func TestLoadBMP(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	path := filepath.Join(t.TempDir(), "dot.bmp")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, bmp.Encode(f, img))
	require.NoError(t, f.Close())

	require.True(t, IsSupportedFormat(path))
	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bmp", p.Format)
	assert.Equal(t, 4, p.Image.Bounds().Dx())
	r, _, _, _ := p.Image.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}
