package segmenter

import (
	"fmt"
	"image"
	"regexp"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

// ScaleChars restricts OCR to what scale-bar annotations contain. Lowercase
// is kept for the unit suffix.
const ScaleChars = "0123456789.umnµ "

// Calibrator reads the burned-in scale bar of a micrograph to recover the
// physical size of a pixel.
type Calibrator struct {
	client *gosseract.Client
}

// NewCalibrator creates a calibrator backed by a Tesseract client.
func NewCalibrator() (*Calibrator, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("set OCR language: %w", err)
	}

	// Scale labels are not dictionary words; keep Tesseract from
	// correcting "100 µm" into something else.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	return &Calibrator{client: client}, nil
}

// Close releases OCR resources.
func (c *Calibrator) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// MicronsPerPixel locates the scale bar in an image, reads its label, and
// returns microns per pixel. Scale bars sit in the bottom strip of exported
// microscope images.
func (c *Calibrator) MicronsPerPixel(img gocv.Mat) (float64, error) {
	if img.Empty() {
		return 0, fmt.Errorf("empty image")
	}

	h, w := img.Rows(), img.Cols()
	stripTop := h * 3 / 4
	strip := img.Region(image.Rect(0, stripTop, w, h))
	defer strip.Close()

	barLen, err := findBarLength(strip)
	if err != nil {
		return 0, err
	}

	text, err := c.readLabel(strip)
	if err != nil {
		return 0, err
	}
	microns, err := ParseScaleLabel(text)
	if err != nil {
		return 0, err
	}

	return microns / barLen, nil
}

// findBarLength thresholds the bottom strip and looks for the widest thin
// horizontal blob, the drawn bar itself.
func findBarLength(strip gocv.Mat) (float64, error) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(strip, &gray, gocv.ColorBGRToGray)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	best := 0.0
	for i := 0; i < contours.Size(); i++ {
		r := gocv.BoundingRect(contours.At(i))
		width, height := float64(r.Dx()), float64(r.Dy())
		// A bar is much wider than tall.
		if height > 0 && width/height >= 5 && width > best {
			best = width
		}
	}
	if best == 0 {
		return 0, fmt.Errorf("no scale bar found")
	}
	return best, nil
}

// readLabel runs OCR over the strip, upscaled and binarized the same way
// component labels are prepared.
func (c *Calibrator) readLabel(strip gocv.Mat) (string, error) {
	processed := prepareLabel(strip)
	defer processed.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	if err != nil {
		return "", fmt.Errorf("encode label region: %w", err)
	}
	defer buf.Close()

	if err := c.client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return "", fmt.Errorf("set page mode: %w", err)
	}
	if err := c.client.SetWhitelist(ScaleChars); err != nil {
		return "", fmt.Errorf("set whitelist: %w", err)
	}
	if err := c.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("set OCR image: %w", err)
	}

	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func prepareLabel(strip gocv.Mat) gocv.Mat {
	h, w := strip.Rows(), strip.Cols()

	var scaled gocv.Mat
	if minDim := min(h, w); minDim < 150 {
		scale := 150.0 / float64(minDim)
		scaled = gocv.NewMat()
		gocv.Resize(strip, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
	} else {
		scaled = strip.Clone()
	}

	gray := gocv.NewMat()
	gocv.CvtColor(scaled, &gray, gocv.ColorBGRToGray)
	scaled.Close()

	binary := gocv.NewMat()
	gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	gray.Close()

	// OCR expects dark text on a light background.
	white := gocv.CountNonZero(binary)
	if float64(white)/float64(binary.Rows()*binary.Cols()) > 0.5 {
		gocv.BitwiseNot(binary, &binary)
	}

	result := gocv.NewMat()
	gocv.CvtColor(binary, &result, gocv.ColorGrayToBGR)
	binary.Close()
	return result
}

var scaleLabelRe = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*(µm|um|nm|mm)`)

// ParseScaleLabel extracts the physical length from a scale bar label such
// as "100 µm", "50um" or "0.5 mm", returned in microns.
func ParseScaleLabel(text string) (float64, error) {
	m := scaleLabelRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0, fmt.Errorf("no scale length in %q", text)
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("bad scale value %q: %w", m[1], err)
	}

	switch m[2] {
	case "nm":
		value /= 1000
	case "mm":
		value *= 1000
	}
	if value <= 0 {
		return 0, fmt.Errorf("non-positive scale length in %q", text)
	}
	return value, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
