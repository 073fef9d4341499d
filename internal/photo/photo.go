// Package photo provides photo loading, listing, and resizing.
package photo

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"theme-mapper/internal/domain"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Interpolation selects the resampling kernel used by Resize.
type Interpolation int

const (
	InterpNearest Interpolation = iota
	InterpBilinear
	InterpCatmullRom
)

func (i Interpolation) String() string {
	switch i {
	case InterpNearest:
		return "nearest"
	case InterpBilinear:
		return "bilinear"
	case InterpCatmullRom:
		return "catmullrom"
	default:
		return "unknown"
	}
}

// ParseInterpolation maps a configuration name to an Interpolation.
func ParseInterpolation(s string) (Interpolation, error) {
	switch strings.ToLower(s) {
	case "nearest":
		return InterpNearest, nil
	case "bilinear":
		return InterpBilinear, nil
	case "catmullrom", "bicubic":
		return InterpCatmullRom, nil
	}
	return 0, fmt.Errorf("unknown interpolation %q", s)
}

func (i Interpolation) scaler() draw.Scaler {
	switch i {
	case InterpBilinear:
		return draw.BiLinear
	case InterpCatmullRom:
		return draw.CatmullRom
	default:
		return draw.NearestNeighbor
	}
}

// Photo is a decoded image file.
type Photo struct {
	Path   string
	Format string
	Image  image.Image
}

// Load decodes the image at path.
func Load(path string) (*Photo, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.MissingFileError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	return &Photo{Path: path, Format: format, Image: img}, nil
}

// Resize scales img to a size x size RGBA image. Alpha is dropped against
// black, matching a plain RGB conversion.
func Resize(img image.Image, size int, interp Interpolation) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	interp.scaler().Scale(dst, dst.Rect, img, img.Bounds(), draw.Src, nil)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 255
	}
	return dst
}

// List returns the supported image files directly inside dir, sorted by name.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.MissingFileError{Path: dir, Err: err}
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedFormat(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp", ".webp"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
