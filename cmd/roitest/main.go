// Command roitest runs auto ROI detection on a plate sequence and prints
// the detected anchors and region.
package main

import (
	"flag"
	"fmt"
	"os"

	"wallcal/internal/imaging"
	"wallcal/internal/roi"
	"wallcal/internal/separation"
	"wallcal/internal/sequence"
	"wallcal/pkg/geometry"
)

func main() {
	folder := flag.String("sequence", "", "Path to the plate image sequence folder")
	plateGamut := flag.String("plate-gamut", string(imaging.SpaceACES), "Colour space of the plates")
	referenceGamut := flag.String("reference-gamut", string(imaging.SpaceACES), "Reference colour space for analysis")
	numGreyPatches := flag.Int("grey-patches", 30, "Grey step count of the EOTF ramp")
	flag.Parse()

	if *folder == "" {
		fmt.Println("Usage: roitest -sequence <folder> [-plate-gamut ACES2065-1] [-grey-patches 30]")
		os.Exit(1)
	}

	seq, err := sequence.Load(*folder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load sequence: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded sequence: frames %d-%d\n", seq.StartFrame(), seq.EndFrame())

	identifier := &separation.Identifier{
		Seq:            seq,
		ROI:            geometry.ROI{},
		PlateGamut:     imaging.Space(*plateGamut),
		ReferenceGamut: imaging.Space(*referenceGamut),
		WallName:       *folder,
	}

	fmt.Println("\nIdentifying separation...")
	sep, err := identifier.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Identification failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Separation: %d frames per patch\n", sep.Separation())

	fmt.Println("\nDetecting ROI anchors...")
	detector := roi.New(seq, sep, *numGreyPatches,
		imaging.Space(*plateGamut), imaging.Space(*referenceGamut))
	results, err := detector.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Detection failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nAnchors:\n")
	fmt.Printf("  %-6s (%4d, %4d)  score %.4f\n", "red", results.Red.Point.X, results.Red.Point.Y, results.Red.Score)
	fmt.Printf("  %-6s (%4d, %4d)  score %.4f\n", "green", results.Green.Point.X, results.Green.Point.Y, results.Green.Score)
	fmt.Printf("  %-6s (%4d, %4d)  score %.4f\n", "blue", results.Blue.Point.X, results.Blue.Point.Y, results.Blue.Score)
	fmt.Printf("  %-6s (%4d, %4d)  score %.4f\n", "white", results.White.Point.X, results.White.Point.Y, results.White.Score)

	region := results.ROI()
	fmt.Printf("\nROI: left=%d right=%d top=%d bottom=%d (%dx%d)\n",
		region.Left, region.Right, region.Top, region.Bottom, region.Width(), region.Height())
}
