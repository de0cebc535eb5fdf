package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cellseg/internal/imaging"
	"cellseg/internal/segmenter"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate [image]",
	Short: "Determine the physical pixel size of a micrograph",
	Long:  "Report the microns-per-pixel calibration from TIFF resolution metadata when present, otherwise by detecting and reading the burned-in scale bar.",
	Args:  cobra.ExactArgs(1),
	Run:   runCalibrate,
}

func init() {
	rootCmd.AddCommand(calibrateCmd)
}

func runCalibrate(cmd *cobra.Command, args []string) {
	path := args[0]

	m, err := imaging.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading image: %v\n", err)
		os.Exit(1)
	}

	if m.Calibrated() {
		fmt.Printf("%s: %.6f µm/px (image metadata)\n", path, m.MicronsPerPixel)
		return
	}

	cal, err := segmenter.NewCalibrator()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting OCR: %v\n", err)
		os.Exit(1)
	}
	defer cal.Close()

	mat, err := segmenter.ImageToMat(m.Image)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error converting image: %v\n", err)
		os.Exit(1)
	}
	defer mat.Close()

	mpp, err := cal.MicronsPerPixel(mat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading scale bar: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s: %.6f µm/px (scale bar)\n", path, mpp)
}
