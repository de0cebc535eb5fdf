package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cellseg/internal/imaging"
	"cellseg/internal/segmentation"
	"cellseg/internal/segmenter"
)

var segmentFlags struct {
	minArea   float64
	blur      int
	morph     int
	tolerance float64
	invert    bool
	outDir    string
}

var segmentCmd = &cobra.Command{
	Use:   "segment [image...]",
	Short: "Automatically segment one or more micrographs",
	Long:  "Run threshold-based contour detection on each image and write the resulting polygons to <image>_segmentation.json.",
	Args:  cobra.MinimumNArgs(1),
	Run:   runSegment,
}

func init() {
	defaults := segmenter.DefaultOptions()
	segmentCmd.Flags().Float64Var(&segmentFlags.minArea, "min-area", defaults.MinArea, "minimum polygon area in px²")
	segmentCmd.Flags().IntVar(&segmentFlags.blur, "blur", defaults.BlurKernel, "Gaussian blur kernel size")
	segmentCmd.Flags().IntVar(&segmentFlags.morph, "morph", defaults.MorphIterations, "morphological cleanup iterations")
	segmentCmd.Flags().Float64Var(&segmentFlags.tolerance, "tolerance", defaults.SimplifyTolerance, "contour simplification tolerance in px")
	segmentCmd.Flags().BoolVar(&segmentFlags.invert, "invert", false, "invert the threshold polarity")
	segmentCmd.Flags().StringVar(&segmentFlags.outDir, "out-dir", "", "write segmentation files here instead of next to the images")
	rootCmd.AddCommand(segmentCmd)
}

func runSegment(cmd *cobra.Command, args []string) {
	opts := segmenter.Options{
		MinArea:           segmentFlags.minArea,
		BlurKernel:        segmentFlags.blur,
		MorphIterations:   segmentFlags.morph,
		SimplifyTolerance: segmentFlags.tolerance,
		InvertThreshold:   segmentFlags.invert,
	}

	failures := 0
	for _, path := range args {
		if err := segmentOne(path, opts); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failures++
		}
	}
	if failures > 0 {
		os.Exit(1)
	}
}

func segmentOne(path string, opts segmenter.Options) error {
	if !imaging.IsSupportedFormat(path) {
		return fmt.Errorf("unsupported image format %q", filepath.Ext(path))
	}

	m, err := imaging.Load(path)
	if err != nil {
		return err
	}

	result, err := segmenter.SegmentImage(m.Image, opts)
	if err != nil {
		return err
	}
	result.Metadata.MicronsPerPixel = m.MicronsPerPixel

	out := segmentationPath(path)
	data, err := segmentation.Encode(result)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return err
	}

	fmt.Printf("%s: %d polygons -> %s\n", path, len(result.Polygons), out)
	return nil
}

// segmentationPath derives the output path for an image, honoring --out-dir.
func segmentationPath(imagePath string) string {
	base := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	name := base + "_segmentation.json"
	if segmentFlags.outDir != "" {
		return filepath.Join(segmentFlags.outDir, name)
	}
	return filepath.Join(filepath.Dir(imagePath), name)
}
