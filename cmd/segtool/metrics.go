package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cellseg/internal/project"
	"cellseg/internal/segmentation"
)

var metricsFlags struct {
	micronsPerPixel float64
	csvPath         string
}

var metricsCmd = &cobra.Command{
	Use:   "metrics [segmentation.json]",
	Short: "Compute shape metrics for a segmentation",
	Long:  "Compute area, perimeter, circularity, Feret diameters, and aspect ratio for every polygon, plus population summary statistics.",
	Args:  cobra.ExactArgs(1),
	Run:   runMetrics,
}

func init() {
	metricsCmd.Flags().Float64Var(&metricsFlags.micronsPerPixel, "microns-per-pixel", 0, "calibration; overrides the value stored in the file")
	metricsCmd.Flags().StringVar(&metricsFlags.csvPath, "csv", "", "write metrics as CSV to this path instead of printing")
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading segmentation: %v\n", err)
		os.Exit(1)
	}
	d, err := segmentation.Parse(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing segmentation: %v\n", err)
		os.Exit(1)
	}

	mpp := metricsFlags.micronsPerPixel
	if mpp <= 0 {
		mpp = d.Metadata.MicronsPerPixel
	}

	metrics := segmentation.ComputeMetrics(d, mpp)

	if metricsFlags.csvPath != "" {
		if err := project.ExportMetricsCSV(metricsFlags.csvPath, metrics); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d rows to %s\n", len(metrics), metricsFlags.csvPath)
		return
	}

	unit := "px"
	if mpp > 0 {
		unit = "µm"
	}

	fmt.Println("Polygon Metrics")
	fmt.Println("===============")
	fmt.Printf("%-4s %12s %12s %8s %10s %8s\n", "#", "Area ("+unit+"²)", "Perim ("+unit+")", "Circ", "EqDiam", "AR")
	for i, m := range metrics {
		fmt.Printf("%-4d %12.2f %12.2f %8.3f %10.2f %8.2f\n",
			i+1, m.Area, m.Perimeter, m.Circularity, m.EquivalentDiameter, m.AspectRatio)
	}

	summary := segmentation.Summarize(metrics)
	fmt.Println("\nSummary:")
	fmt.Printf("  Count: %d\n", summary.Count)
	fmt.Printf("  Total area: %.2f %s²\n", summary.TotalArea, unit)
	fmt.Printf("  Mean area: %.2f ± %.2f %s²\n", summary.MeanArea, summary.StdDevArea, unit)
	fmt.Printf("  Median area: %.2f %s²\n", summary.MedianArea, unit)
	fmt.Printf("  Mean circularity: %.3f\n", summary.MeanCirc)
}
