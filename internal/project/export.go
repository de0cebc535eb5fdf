package project

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"cellseg/internal/segmentation"
)

// ExportMetricsCSV writes per-polygon shape metrics as a CSV file, one row
// per external polygon plus a header.
func ExportMetricsCSV(path string, metrics []segmentation.PolygonMetrics) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create CSV: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"id", "area", "perimeter", "circularity", "equivalent_diameter",
		"feret_max", "feret_min", "aspect_ratio", "hole_count",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, m := range metrics {
		row := []string{
			m.ID,
			formatFloat(m.Area),
			formatFloat(m.Perimeter),
			formatFloat(m.Circularity),
			formatFloat(m.EquivalentDiameter),
			formatFloat(m.FeretMax),
			formatFloat(m.FeretMin),
			formatFloat(m.AspectRatio),
			strconv.Itoa(m.HoleCount),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// ExportMetricsPDF writes a one-page measurement report: image name,
// calibration, the aggregate summary, and a per-polygon table.
func ExportMetricsPDF(path, imageName string, micronsPerPixel float64, metrics []segmentation.PolygonMetrics) error {
	summary := segmentation.Summarize(metrics)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Segmentation Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Segmentation Report")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Image: %s", imageName))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04")))
	pdf.Ln(6)
	unit := "px"
	if micronsPerPixel > 0 {
		unit = "um"
		pdf.Cell(0, 6, fmt.Sprintf("Calibration: %.4f um/px", micronsPerPixel))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 7, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 5, fmt.Sprintf("Objects: %d", summary.Count))
	pdf.Ln(5)
	pdf.Cell(0, 5, fmt.Sprintf("Total area: %.1f %s2", summary.TotalArea, unit))
	pdf.Ln(5)
	pdf.Cell(0, 5, fmt.Sprintf("Mean area: %.1f %s2 (median %.1f, stddev %.1f)",
		summary.MeanArea, unit, summary.MedianArea, summary.StdDevArea))
	pdf.Ln(5)
	pdf.Cell(0, 5, fmt.Sprintf("Mean circularity: %.3f", summary.MeanCirc))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 9)
	cols := []struct {
		title string
		width float64
	}{
		{"ID", 38}, {"Area", 24}, {"Perim", 22}, {"Circ", 16},
		{"EqDiam", 20}, {"FeretMax", 22}, {"FeretMin", 22}, {"Holes", 14},
	}
	for _, c := range cols {
		pdf.CellFormat(c.width, 6, c.title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, m := range metrics {
		vals := []string{
			m.ID,
			fmt.Sprintf("%.1f", m.Area),
			fmt.Sprintf("%.1f", m.Perimeter),
			fmt.Sprintf("%.3f", m.Circularity),
			fmt.Sprintf("%.1f", m.EquivalentDiameter),
			fmt.Sprintf("%.1f", m.FeretMax),
			fmt.Sprintf("%.1f", m.FeretMin),
			strconv.Itoa(m.HoleCount),
		}
		for i, v := range vals {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(cols[i].width, 5, v, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.OutputFileAndClose(path)
}

// ExportSegmentationJSON writes the polygon data as standalone JSON for use
// outside the application.
func ExportSegmentationJSON(path string, d *segmentation.Data) error {
	data, err := segmentation.Encode(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
