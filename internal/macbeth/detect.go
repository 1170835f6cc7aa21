// Package macbeth detects a 24-swatch colour checker chart in a captured
// frame and samples the average colour of each swatch.
package macbeth

import (
	"image"
	"math"
	"sort"

	"gocv.io/x/gocv"

	"wallcal/internal/imaging"
)

// Chart geometry of a standard colour checker.
const (
	SwatchCount = 24
	GridColumns = 6
	GridRows    = 4
)

// Detection tuning. The chart is segmented on an adaptively thresholded
// 8-bit render; candidate swatches must be convex quads of similar area.
const (
	blockSizeDivisor  = 10   // adaptive threshold block size as a fraction of the short edge
	minAreaDivisor    = 1500 // minimum swatch area as a fraction of the image area
	polyEpsilonFactor = 0.05 // ApproxPolyDP epsilon as a fraction of arc length
	cellSampleScale   = 0.3  // fraction of a grid cell sampled for its colour
	minCandidates     = 6    // fewest quads from which a grid can still be fitted
)

// DetectSwatches locates the colour checker in the image and returns the 24
// swatch colours in chart order, row-major from the top-left. It returns nil
// when no chart can be found; individual swatches whose grid cell falls
// outside the image are NaN.
func DetectSwatches(img *imaging.Image) []imaging.RGB {
	if img.Width < GridColumns || img.Height < GridRows {
		return nil
	}

	mat8 := renderMat8U(img)
	defer mat8.Close()

	quads := findSwatchQuads(mat8)
	if len(quads) < minCandidates {
		return nil
	}

	grid := fitGrid(quads)
	return sampleGrid(img, grid)
}

// renderMat8U produces the 8-bit single channel render the segmentation
// runs on. Input pixels are log-encoded, so a plain linear scale keeps the
// swatch steps distinguishable.
func renderMat8U(img *imaging.Image) gocv.Mat {
	mat := gocv.NewMatWithSize(img.Height, img.Width, gocv.MatTypeCV8U)

	maxVal := 0.0
	for i := 0; i < len(img.Pix); i++ {
		if img.Pix[i] > maxVal {
			maxVal = img.Pix[i]
		}
	}
	if maxVal <= 0 {
		maxVal = 1
	}

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			pixel := img.At(x, y)
			luma := (pixel[0] + pixel[1] + pixel[2]) / 3.0
			v := luma / maxVal
			if v < 0 {
				v = 0
			}
			mat.SetUCharAt(y, x, uint8(v*255.0+0.5))
		}
	}
	return mat
}

// findSwatchQuads segments candidate swatches: blur, adaptive threshold,
// contours, convex four-sided approximations of similar area.
func findSwatchQuads(mat8 gocv.Mat) []image.Rectangle {
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(mat8, &blurred, image.Point{X: 5, Y: 5}, 0, 0, gocv.BorderDefault)

	short := mat8.Rows()
	if mat8.Cols() < short {
		short = mat8.Cols()
	}
	blockSize := short / blockSizeDivisor
	if blockSize%2 == 0 {
		blockSize++
	}
	if blockSize < 3 {
		blockSize = 3
	}

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.AdaptiveThreshold(blurred, &binary, 255, gocv.AdaptiveThresholdMean, gocv.ThresholdBinary, blockSize, 0)

	contours := gocv.FindContours(binary, gocv.RetrievalList, gocv.ChainApproxSimple)
	defer contours.Close()

	minArea := float64(mat8.Rows()*mat8.Cols()) / minAreaDivisor

	var rects []image.Rectangle
	var areas []float64
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area < minArea {
			continue
		}

		epsilon := polyEpsilonFactor * gocv.ArcLength(contour, true)
		approx := gocv.ApproxPolyDP(contour, epsilon, true)
		if approx.Size() != 4 || !gocv.IsContourConvex(approx) {
			approx.Close()
			continue
		}

		rects = append(rects, gocv.BoundingRect(approx))
		areas = append(areas, area)
		approx.Close()
	}
	if len(rects) == 0 {
		return nil
	}

	// Keep only quads within a factor of two of the median area; the chart
	// swatches are uniform, everything else is background clutter.
	sorted := make([]float64, len(areas))
	copy(sorted, areas)
	sort.Float64s(sorted)
	median := sorted[len(sorted)/2]

	var filtered []image.Rectangle
	for i, rect := range rects {
		if areas[i] >= median*0.5 && areas[i] <= median*2.0 {
			filtered = append(filtered, rect)
		}
	}
	return filtered
}

// fitGrid derives the full 6x4 swatch grid from the bounding box of the
// detected swatch centres, padded by half the average swatch extent.
func fitGrid(quads []image.Rectangle) image.Rectangle {
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	sumW, sumH := 0.0, 0.0

	for _, q := range quads {
		cx := float64(q.Min.X+q.Max.X) / 2
		cy := float64(q.Min.Y+q.Max.Y) / 2
		minX = math.Min(minX, cx)
		minY = math.Min(minY, cy)
		maxX = math.Max(maxX, cx)
		maxY = math.Max(maxY, cy)
		sumW += float64(q.Dx())
		sumH += float64(q.Dy())
	}

	halfW := sumW / float64(len(quads)) / 2
	halfH := sumH / float64(len(quads)) / 2

	return image.Rect(
		int(minX-halfW), int(minY-halfH),
		int(maxX+halfW), int(maxY+halfH),
	)
}

// sampleGrid averages the centre region of each grid cell from the source
// float image. Cells outside the image yield NaN; the caller decides how to
// handle partial charts.
func sampleGrid(img *imaging.Image, grid image.Rectangle) []imaging.RGB {
	swatches := make([]imaging.RGB, 0, SwatchCount)
	nan := math.NaN()

	cellW := float64(grid.Dx()) / GridColumns
	cellH := float64(grid.Dy()) / GridRows

	for row := 0; row < GridRows; row++ {
		for col := 0; col < GridColumns; col++ {
			cx := float64(grid.Min.X) + (float64(col)+0.5)*cellW
			cy := float64(grid.Min.Y) + (float64(row)+0.5)*cellH
			halfW := cellW * cellSampleScale / 2
			halfH := cellH * cellSampleScale / 2

			x0, x1 := int(cx-halfW), int(cx+halfW)
			y0, y1 := int(cy-halfH), int(cy+halfH)
			if x0 < 0 || y0 < 0 || x1 >= img.Width || y1 >= img.Height || x1 < x0 || y1 < y0 {
				swatches = append(swatches, imaging.RGB{nan, nan, nan})
				continue
			}

			var sum imaging.RGB
			count := 0
			for y := y0; y <= y1; y++ {
				for x := x0; x <= x1; x++ {
					sum = sum.Add(img.At(x, y))
					count++
				}
			}
			swatches = append(swatches, sum.Scale(1.0/float64(count)))
		}
	}
	return swatches
}
