// Command septest runs separation identification on a plate sequence and
// prints the detected anchors.
package main

import (
	"flag"
	"fmt"
	"os"

	"wallcal/internal/imaging"
	"wallcal/internal/separation"
	"wallcal/internal/sequence"
	"wallcal/pkg/geometry"
)

func main() {
	folder := flag.String("sequence", "", "Path to the plate image sequence folder")
	plateGamut := flag.String("plate-gamut", string(imaging.SpaceACES), "Colour space of the plates")
	referenceGamut := flag.String("reference-gamut", string(imaging.SpaceACES), "Reference colour space for analysis")
	left := flag.Int("left", 0, "ROI left edge (0 0 0 0 scans the full frame)")
	right := flag.Int("right", 0, "ROI right edge")
	top := flag.Int("top", 0, "ROI top edge")
	bottom := flag.Int("bottom", 0, "ROI bottom edge")
	flag.Parse()

	if *folder == "" {
		fmt.Println("Usage: septest -sequence <folder> [-plate-gamut ACES2065-1] [-left N -right N -top N -bottom N]")
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
		ROI:            geometry.NewROI(*left, *right, *top, *bottom),
		PlateGamut:     imaging.Space(*plateGamut),
		ReferenceGamut: imaging.Space(*referenceGamut),
		WallName:       *folder,
	}

	fmt.Println("\nIdentifying separation...")
	results, err := identifier.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Identification failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nAnchor patches:\n")
	fmt.Printf("  %-12s frame %d\n", "first red", results.FirstRed.Num)
	fmt.Printf("  %-12s frame %d\n", "first green", results.FirstGreen.Num)
	fmt.Printf("  %-12s frame %d\n", "first blue", results.FirstBlue.Num)
	fmt.Printf("  %-12s frame %d\n", "first grey", results.FirstGrey.Num)
	fmt.Printf("  %-12s frame %d\n", "second red", results.SecondRed.Num)
	fmt.Printf("\nSeparation: %d frames per patch\n", results.Separation())
}
