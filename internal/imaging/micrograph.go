// Package imaging provides micrograph loading, pixel-size metadata, and
// display helpers.
package imaging

import (
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// Micrograph is a loaded microscopy image plus its calibration.
type Micrograph struct {
	Path  string
	Image image.Image

	// MicronsPerPixel is the physical pixel size. Zero means uncalibrated;
	// metrics then stay in pixel units.
	MicronsPerPixel float64
}

// Load decodes a micrograph from disk. TIFF resolution metadata, when
// present, seeds the calibration.
func Load(path string) (*Micrograph, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	m := &Micrograph{Path: path, Image: img}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".tiff" || ext == ".tif" {
		if mpp, err := extractTIFFPixelSize(path); err == nil {
			m.MicronsPerPixel = mpp
		}
	}
	return m, nil
}

// Width returns the image width in pixels.
func (m *Micrograph) Width() int {
	if m.Image == nil {
		return 0
	}
	return m.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (m *Micrograph) Height() int {
	if m.Image == nil {
		return 0
	}
	return m.Image.Bounds().Dy()
}

// Calibrated reports whether a physical pixel size is known.
func (m *Micrograph) Calibrated() bool {
	return m != nil && m.MicronsPerPixel > 0
}

// Thumbnail returns the image scaled to fit within maxDim on its longer
// edge. Images already small enough are returned as-is.
func (m *Micrograph) Thumbnail(maxDim int) image.Image {
	if m.Image == nil || maxDim <= 0 {
		return m.Image
	}
	w, h := m.Width(), m.Height()
	longer := w
	if h > longer {
		longer = h
	}
	if longer <= maxDim {
		return m.Image
	}

	scale := float64(maxDim) / float64(longer)
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), m.Image, m.Image.Bounds(), xdraw.Over, nil)
	return dst
}

// MicronsFromResolution converts a TIFF resolution value into microns per
// pixel. Unit 2 is pixels per inch, unit 3 pixels per centimeter.
func MicronsFromResolution(pixelsPerUnit float64, unit uint16) float64 {
	if pixelsPerUnit <= 0 {
		return 0
	}
	switch unit {
	case 3:
		return 10000.0 / pixelsPerUnit
	default:
		return 25400.0 / pixelsPerUnit
	}
}

// extractTIFFPixelSize reads the resolution tags straight from the TIFF IFD.
// The stdlib decoder drops them, so the header is walked by hand.
func extractTIFFPixelSize(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	header := make([]byte, 8)
	if _, err := file.Read(header); err != nil {
		return 0, err
	}

	var byteOrder binary.ByteOrder
	switch {
	case header[0] == 'I' && header[1] == 'I':
		byteOrder = binary.LittleEndian
	case header[0] == 'M' && header[1] == 'M':
		byteOrder = binary.BigEndian
	default:
		return 0, fmt.Errorf("not a valid TIFF file")
	}

	ifdOffset := byteOrder.Uint32(header[4:8])
	if _, err := file.Seek(int64(ifdOffset), 0); err != nil {
		return 0, err
	}

	var numEntries uint16
	if err := binary.Read(file, byteOrder, &numEntries); err != nil {
		return 0, err
	}

	var xRes, yRes float64
	var resUnit uint16 = 2

	for i := uint16(0); i < numEntries; i++ {
		entry := make([]byte, 12)
		if _, err := file.Read(entry); err != nil {
			return 0, err
		}

		tag := byteOrder.Uint16(entry[0:2])
		fieldType := byteOrder.Uint16(entry[2:4])
		valueOffset := byteOrder.Uint32(entry[8:12])

		switch tag {
		case 282: // XResolution
			if fieldType == 5 {
				xRes = readTIFFRational(file, int64(valueOffset), byteOrder)
			}
		case 283: // YResolution
			if fieldType == 5 {
				yRes = readTIFFRational(file, int64(valueOffset), byteOrder)
			}
		case 296: // ResolutionUnit
			if fieldType == 3 {
				resUnit = uint16(valueOffset)
			}
		}
	}

	res := xRes
	if res == 0 {
		res = yRes
	}
	mpp := MicronsFromResolution(res, resUnit)
	if mpp == 0 {
		return 0, fmt.Errorf("no usable resolution tags")
	}
	return mpp, nil
}

func readTIFFRational(file *os.File, offset int64, byteOrder binary.ByteOrder) float64 {
	currentPos, _ := file.Seek(0, 1)
	defer file.Seek(currentPos, 0)

	file.Seek(offset, 0)
	var num, denom uint32
	binary.Read(file, byteOrder, &num)
	binary.Read(file, byteOrder, &denom)

	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

// SupportedFormats returns the accepted image file extensions.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks whether the path has a supported extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
