package panels

import (
	"fmt"

	"cellseg/internal/app"
	"cellseg/internal/segmentation"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// metricsColumns defines the table header, in display order.
var metricsColumns = []string{"#", "Area", "Perim", "Circ", "Diam", "AR"}

// MetricsPanel shows per-polygon shape metrics and a summary block.
// Values recompute whenever the segmentation or the calibration changes.
type MetricsPanel struct {
	state *app.State
	box   fyne.CanvasObject

	summaryLabel *widget.Label
	unitLabel    *widget.Label
	table        *widget.Table

	metrics []segmentation.PolygonMetrics
}

// NewMetricsPanel creates the metrics panel.
func NewMetricsPanel(state *app.State) *MetricsPanel {
	mp := &MetricsPanel{state: state}

	mp.summaryLabel = widget.NewLabel("No segmentation")
	mp.unitLabel = widget.NewLabel("units: px")

	mp.table = widget.NewTable(
		func() (int, int) {
			return len(mp.metrics) + 1, len(metricsColumns)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("0000.000")
		},
		func(cell widget.TableCellID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			if cell.Row == 0 {
				label.TextStyle = fyne.TextStyle{Bold: true}
				label.SetText(metricsColumns[cell.Col])
				return
			}
			label.TextStyle = fyne.TextStyle{}
			label.SetText(mp.cellText(cell.Row-1, cell.Col))
		},
	)
	mp.table.SetColumnWidth(0, 36)

	mp.box = container.NewBorder(
		container.NewVBox(mp.summaryLabel, mp.unitLabel),
		nil, nil, nil,
		mp.table,
	)

	state.On(app.EventSegmentationComplete, func(interface{}) { mp.recompute() })
	state.On(app.EventSegmentationEdited, func(interface{}) { mp.recompute() })
	state.On(app.EventCalibrationChanged, func(interface{}) { mp.recompute() })

	return mp
}

// Container returns the panel content.
func (mp *MetricsPanel) Container() fyne.CanvasObject {
	return mp.box
}

func (mp *MetricsPanel) cellText(row, col int) string {
	if row < 0 || row >= len(mp.metrics) {
		return ""
	}
	m := mp.metrics[row]
	switch col {
	case 0:
		return fmt.Sprintf("%d", row+1)
	case 1:
		return fmt.Sprintf("%.1f", m.Area)
	case 2:
		return fmt.Sprintf("%.1f", m.Perimeter)
	case 3:
		return fmt.Sprintf("%.3f", m.Circularity)
	case 4:
		return fmt.Sprintf("%.1f", m.EquivalentDiameter)
	case 5:
		return fmt.Sprintf("%.2f", m.AspectRatio)
	}
	return ""
}

// recompute rebuilds the metric rows and the summary block.
func (mp *MetricsPanel) recompute() {
	d := mp.state.Segmentation()
	if d == nil || len(d.Polygons) == 0 {
		mp.metrics = nil
		mp.summaryLabel.SetText("No segmentation")
		mp.table.Refresh()
		return
	}

	mpp := mp.state.MicronsPerPixel
	mp.metrics = segmentation.ComputeMetrics(d, mpp)

	if mpp > 0 {
		mp.unitLabel.SetText(fmt.Sprintf("units: µm (%.4f µm/px)", mpp))
	} else {
		mp.unitLabel.SetText("units: px")
	}

	summary := segmentation.Summarize(mp.metrics)
	mp.summaryLabel.SetText(fmt.Sprintf(
		"n=%d  total %.0f\nmean %.1f ± %.1f\nmedian %.1f  circ %.3f",
		summary.Count, summary.TotalArea,
		summary.MeanArea, summary.StdDevArea,
		summary.MedianArea, summary.MeanCirc,
	))
	mp.table.Refresh()
}
