// Package imaging provides the floating-point image buffer and colour math
// used by the calibration analysis pipeline. All pixel data is linear RGB
// unless a colour space with a transfer function (ACEScct) is named
// explicitly.
package imaging

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"wallcal/pkg/geometry"
)

// RGB is a single colour sample, one value per channel.
type RGB [3]float64

// Add returns the component-wise sum of two samples.
func (c RGB) Add(other RGB) RGB {
	return RGB{c[0] + other[0], c[1] + other[1], c[2] + other[2]}
}

// Scale returns the sample scaled by a factor.
func (c RGB) Scale(factor float64) RGB {
	return RGB{c[0] * factor, c[1] * factor, c[2] * factor}
}

// HasNaN reports whether any channel is NaN.
func (c RGB) HasNaN() bool {
	return math.IsNaN(c[0]) || math.IsNaN(c[1]) || math.IsNaN(c[2])
}

// Distance returns the Euclidean distance between two samples in the
// working colour space.
func Distance(a, b RGB) float64 {
	dr := a[0] - b[0]
	dg := a[1] - b[1]
	db := a[2] - b[2]
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// Image is a width x height three-channel floating point pixel buffer.
// Pixels are stored row-major, three floats per pixel.
type Image struct {
	Width  int
	Height int
	Pix    []float64
}

// NewImage allocates a zeroed image of the given dimensions.
func NewImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height*3),
	}
}

// NewSolidImage allocates an image with every pixel set to the given colour.
func NewSolidImage(width, height int, colour RGB) *Image {
	img := NewImage(width, height)
	for i := 0; i < len(img.Pix); i += 3 {
		img.Pix[i] = colour[0]
		img.Pix[i+1] = colour[1]
		img.Pix[i+2] = colour[2]
	}
	return img
}

// At returns the colour of the pixel at (x, y).
func (img *Image) At(x, y int) RGB {
	i := (y*img.Width + x) * 3
	return RGB{img.Pix[i], img.Pix[i+1], img.Pix[i+2]}
}

// Set writes the colour of the pixel at (x, y).
func (img *Image) Set(x, y int, colour RGB) {
	i := (y*img.Width + x) * 3
	img.Pix[i] = colour[0]
	img.Pix[i+1] = colour[1]
	img.Pix[i+2] = colour[2]
}

// Clone returns a deep copy of the image.
func (img *Image) Clone() *Image {
	out := &Image{Width: img.Width, Height: img.Height, Pix: make([]float64, len(img.Pix))}
	copy(out.Pix, img.Pix)
	return out
}

// ExtractROI returns a copy of the sub-region of the image. An empty ROI
// yields a copy of the whole image. The ROI is clamped to the image bounds.
func (img *Image) ExtractROI(roi geometry.ROI) *Image {
	if roi.Empty() {
		return img.Clone()
	}
	roi = roi.Clamp(img.Width, img.Height)
	out := NewImage(roi.Width(), roi.Height())
	for y := 0; y < out.Height; y++ {
		srcStart := ((roi.Top+y)*img.Width + roi.Left) * 3
		dstStart := y * out.Width * 3
		copy(out.Pix[dstStart:dstStart+out.Width*3], img.Pix[srcStart:srcStart+out.Width*3])
	}
	return out
}

// MeanColour returns the arithmetic mean of every pixel in the image.
func (img *Image) MeanColour() RGB {
	var sum RGB
	count := img.Width * img.Height
	if count == 0 {
		return sum
	}
	for i := 0; i < len(img.Pix); i += 3 {
		sum[0] += img.Pix[i]
		sum[1] += img.Pix[i+1]
		sum[2] += img.Pix[i+2]
	}
	return sum.Scale(1.0 / float64(count))
}

// ClippedMeanColour returns the per-channel mean after discarding values
// further than sigma standard deviations from the channel mean. Used when
// sampling flat patches so dead pixels and sensor noise do not skew the
// result.
func (img *Image) ClippedMeanColour(sigma float64) RGB {
	var out RGB
	for ch := 0; ch < 3; ch++ {
		out[ch] = img.clippedChannelMean(ch, sigma)
	}
	return out
}

func (img *Image) clippedChannelMean(channel int, sigma float64) float64 {
	count := img.Width * img.Height
	if count == 0 {
		return 0
	}
	values := make([]float64, 0, count)
	for i := channel; i < len(img.Pix); i += 3 {
		values = append(values, img.Pix[i])
	}

	mean, std := stat.MeanStdDev(values, nil)
	if count < 2 || std == 0 || math.IsNaN(std) {
		return mean
	}

	lower := mean - sigma*std
	upper := mean + sigma*std
	var sum float64
	var kept int
	for _, v := range values {
		if v >= lower && v <= upper {
			sum += v
			kept++
		}
	}
	if kept == 0 {
		return mean
	}
	return sum / float64(kept)
}
