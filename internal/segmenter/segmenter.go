// Package segmenter runs the automatic cell and spheroid detection
// pipeline: threshold the micrograph, extract contours with their hole
// hierarchy, and turn them into editable polygons.
package segmenter

import (
	"fmt"
	"image"
	"time"

	"cellseg/internal/segmentation"
	"cellseg/pkg/geometry"

	"gocv.io/x/gocv"
)

// Options configures the detection pipeline.
type Options struct {
	// BlurKernel is the Gaussian blur kernel edge; 0 disables blurring.
	BlurKernel int
	// MorphIterations is the close/open cleanup strength.
	MorphIterations int
	// MinArea drops contours smaller than this many square pixels.
	MinArea float64
	// SimplifyTolerance decimates detected outlines; 0 keeps every point.
	SimplifyTolerance float64
	// InvertThreshold forces dark-objects-on-light treatment. When false
	// the polarity is chosen from the foreground ratio.
	InvertThreshold bool
}

// DefaultOptions returns the pipeline settings used by the application.
func DefaultOptions() Options {
	return Options{
		BlurKernel:        5,
		MorphIterations:   2,
		MinArea:           100,
		SimplifyTolerance: 1.5,
	}
}

// Segment runs the full pipeline on a BGR image matrix.
func Segment(img gocv.Mat, opts Options) (*segmentation.Data, error) {
	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	mask := binarize(img, opts)
	defer mask.Close()

	cleaned := cleanupMask(mask, opts.MorphIterations)
	defer cleaned.Close()

	contours, hierarchy := extractContours(cleaned)

	polys, err := segmentation.FromContours(contours, hierarchy)
	if err != nil {
		return nil, err
	}
	polys = PostProcess(polys, PostOptions{
		MinArea:           opts.MinArea,
		SimplifyTolerance: opts.SimplifyTolerance,
	})

	return &segmentation.Data{
		Polygons:    polys,
		ImageWidth:  img.Cols(),
		ImageHeight: img.Rows(),
		Metadata: segmentation.Metadata{
			Source:    "auto",
			Timestamp: time.Now(),
		},
	}, nil
}

// SegmentImage converts a Go image and runs Segment on it.
func SegmentImage(src image.Image, opts Options) (*segmentation.Data, error) {
	mat, err := ImageToMat(src)
	if err != nil {
		return nil, err
	}
	defer mat.Close()
	return Segment(mat, opts)
}

// binarize produces a foreground mask via Otsu thresholding. Microscopy
// objects are usually darker than the illuminated background, so when the
// thresholded foreground covers most of the frame the polarity is flipped.
func binarize(img gocv.Mat, opts Options) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	if opts.BlurKernel > 1 {
		k := opts.BlurKernel | 1 // kernel must be odd
		gocv.GaussianBlur(gray, &gray, image.Point{k, k}, 0, 0, gocv.BorderDefault)
	}

	mask := gocv.NewMat()
	gocv.Threshold(gray, &mask, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	invert := opts.InvertThreshold
	if !invert {
		white := gocv.CountNonZero(mask)
		total := mask.Rows() * mask.Cols()
		invert = float64(white)/float64(total) > 0.5
	}
	if invert {
		gocv.BitwiseNot(mask, &mask)
	}
	return mask
}

// cleanupMask applies morphological close then open to seal small gaps and
// drop speckle noise.
func cleanupMask(mask gocv.Mat, iterations int) gocv.Mat {
	cleaned := mask.Clone()
	if iterations <= 0 {
		return cleaned
	}

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{3, 3})
	defer kernel.Close()

	for i := 0; i < iterations; i++ {
		gocv.MorphologyEx(cleaned, &cleaned, gocv.MorphClose, kernel)
	}
	for i := 0; i < iterations; i++ {
		gocv.MorphologyEx(cleaned, &cleaned, gocv.MorphOpen, kernel)
	}
	return cleaned
}

// extractContours pulls the two-level contour hierarchy from a binary mask.
// RetrievalCCOMP keeps exactly outer boundaries and their direct holes,
// which maps onto external and internal polygons.
func extractContours(mask gocv.Mat) ([][]geometry.Point2D, [][4]int) {
	hier := gocv.NewMat()
	defer hier.Close()

	found := gocv.FindContoursWithParams(mask, &hier, gocv.RetrievalCComp, gocv.ChainApproxSimple)
	defer found.Close()

	n := found.Size()
	contours := make([][]geometry.Point2D, 0, n)
	hierarchy := make([][4]int, 0, n)

	for i := 0; i < n; i++ {
		pv := found.At(i)
		ring := make([]geometry.Point2D, pv.Size())
		for j := 0; j < pv.Size(); j++ {
			pt := pv.At(j)
			ring[j] = geometry.Point2D{X: float64(pt.X), Y: float64(pt.Y)}
		}
		contours = append(contours, ring)

		var h [4]int
		if !hier.Empty() && hier.Cols() > i {
			vec := hier.GetVeciAt(0, i)
			for k := 0; k < 4 && k < len(vec); k++ {
				h[k] = int(vec[k])
			}
		} else {
			h = [4]int{-1, -1, -1, -1}
		}
		hierarchy = append(hierarchy, h)
	}
	return contours, hierarchy
}

// ImageToMat converts a Go image.Image to a gocv.Mat in BGR format.
func ImageToMat(img image.Image) (gocv.Mat, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return gocv.Mat{}, fmt.Errorf("empty image bounds %v", bounds)
	}

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}
	return mat, nil
}
