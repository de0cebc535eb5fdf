// segtool is the batch companion to the cellseg editor: it segments
// micrographs, computes shape metrics, and calibrates images without
// opening the GUI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cellseg/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "segtool",
	Short:   "Batch segmentation and measurement of microscopy images",
	Long:    "segtool runs the cellseg segmentation pipeline from the command line:\nautomatic contour detection, scale-bar calibration, polygon simplification,\nand per-cell shape metrics, for single images or whole directories.",
	Version: version.Version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
