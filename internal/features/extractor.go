package features

import (
	"fmt"
	"image"

	"theme-mapper/internal/photo"

	"gocv.io/x/gocv"
)

// Extractor turns photos into fixed-length feature vectors.
type Extractor struct {
	params Params
}

// NewExtractor validates params and returns an Extractor.
func NewExtractor(params Params) (*Extractor, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{params: params}, nil
}

// Params returns the extraction parameters.
func (e *Extractor) Params() Params {
	return e.params
}

// ExtractFile loads and describes the photo at path.
func (e *Extractor) ExtractFile(path string) ([]float64, error) {
	p, err := photo.Load(path)
	if err != nil {
		return nil, err
	}
	vec, err := e.Extract(p.Image)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vec, nil
}

// Extract resizes img and returns its pixel values (row-major, R G B per
// pixel, 0-255) followed by its HOG descriptor.
func (e *Extractor) Extract(img image.Image) ([]float64, error) {
	size := e.params.ImageSize
	small := photo.Resize(img, size, e.params.Interpolation)

	vec := make([]float64, 0, e.params.VectorLen())
	for y := 0; y < size; y++ {
		row := small.Pix[y*small.Stride : y*small.Stride+size*4]
		for x := 0; x < size; x++ {
			vec = append(vec, float64(row[x*4]), float64(row[x*4+1]), float64(row[x*4+2]))
		}
	}

	bgr, err := ImageToMat(small)
	if err != nil {
		return nil, err
	}
	defer bgr.Close()

	field, err := gradients(bgr)
	if err != nil {
		return nil, err
	}
	vec = append(vec, e.params.HOG.describe(field)...)
	return vec, nil
}

// ImageToMat converts an RGBA image to a gocv.Mat in BGR format.
func ImageToMat(img *image.RGBA) (gocv.Mat, error) {
	b := img.Bounds()
	rgba, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, img.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("wrap image: %w", err)
	}
	defer rgba.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)
	return bgr, nil
}

// gradients computes grayscale central-difference gradients of a BGR image.
func gradients(bgr gocv.Mat) (gradientField, error) {
	if bgr.Empty() {
		return gradientField{}, fmt.Errorf("empty image")
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)

	gray32 := gocv.NewMat()
	defer gray32.Close()
	gray.ConvertTo(&gray32, gocv.MatTypeCV32F)

	gx := gocv.NewMat()
	defer gx.Close()
	gy := gocv.NewMat()
	defer gy.Close()
	gocv.Sobel(gray32, &gx, gocv.MatTypeCV32F, 1, 0, 1, 1, 0, gocv.BorderReplicate)
	gocv.Sobel(gray32, &gy, gocv.MatTypeCV32F, 0, 1, 1, 1, 0, gocv.BorderReplicate)

	mag := gocv.NewMat()
	defer mag.Close()
	angle := gocv.NewMat()
	defer angle.Close()
	gocv.CartToPolar(gx, gy, &mag, &angle, true)

	w, h := mag.Cols(), mag.Rows()
	field := gradientField{
		W:     w,
		H:     h,
		Mag:   make([]float64, w*h),
		Angle: make([]float64, w*h),
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			field.Mag[y*w+x] = float64(mag.GetFloatAt(y, x))
			field.Angle[y*w+x] = float64(angle.GetFloatAt(y, x))
		}
	}
	return field, nil
}
