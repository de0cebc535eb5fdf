package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cellseg/internal/segmentation"
)

var simplifyFlags struct {
	tolerance float64
	output    string
}

var simplifyCmd = &cobra.Command{
	Use:   "simplify [segmentation.json]",
	Short: "Reduce polygon point counts with Douglas-Peucker decimation",
	Args:  cobra.ExactArgs(1),
	Run:   runSimplify,
}

func init() {
	simplifyCmd.Flags().Float64Var(&simplifyFlags.tolerance, "tolerance", 2.0, "maximum deviation in px")
	simplifyCmd.Flags().StringVarP(&simplifyFlags.output, "output", "o", "", "output path (default: overwrite input)")
	rootCmd.AddCommand(simplifyCmd)
}

func runSimplify(cmd *cobra.Command, args []string) {
	path := args[0]

	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading segmentation: %v\n", err)
		os.Exit(1)
	}
	d, err := segmentation.Parse(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing segmentation: %v\n", err)
		os.Exit(1)
	}

	before, after := 0, 0
	for i, poly := range d.Polygons {
		before += len(poly.Points)
		simplified, err := segmentation.Simplify(poly, simplifyFlags.tolerance)
		if err != nil {
			// Polygons that collapse below three points keep their
			// original shape.
			after += len(poly.Points)
			continue
		}
		d.Polygons[i] = simplified
		after += len(simplified.Points)
	}

	out := simplifyFlags.output
	if out == "" {
		out = path
	}
	data, err := segmentation.Encode(d)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding segmentation: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing segmentation: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%d polygons: %d -> %d points (%s)\n", len(d.Polygons), before, after, out)
}
