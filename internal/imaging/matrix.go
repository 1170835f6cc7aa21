package imaging

import (
	"gonum.org/v1/gonum/mat"
)

// WhiteBalanceMatrix derives a diagonal matrix from the mean colour of an
// image of a neutral reference, scaling the red and blue channels onto the
// green channel. Applying it to the source image neutralises the capture's
// white point.
func WhiteBalanceMatrix(img *Image) *mat.Dense {
	mean := img.MeanColour()

	rScale, bScale := 1.0, 1.0
	if mean[0] > 0 {
		rScale = mean[1] / mean[0]
	}
	if mean[2] > 0 {
		bScale = mean[1] / mean[2]
	}

	return mat.NewDense(3, 3, []float64{
		rScale, 0, 0,
		0, 1, 0,
		0, 0, bScale,
	})
}

// ApplyMatrix returns a copy of the image with every pixel multiplied by the
// given 3x3 matrix.
func ApplyMatrix(img *Image, m *mat.Dense) *Image {
	out := img.Clone()
	applyMatrixInPlace(out, m)
	return out
}

// ApplyMatrixToSample multiplies a single colour sample by a 3x3 matrix.
func ApplyMatrixToSample(colour RGB, m *mat.Dense) RGB {
	return mulColour(m, colour)
}

// InvertMatrix returns the inverse of a 3x3 matrix.
func InvertMatrix(m *mat.Dense) (*mat.Dense, error) {
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return nil, err
	}
	return &inv, nil
}

func mulColour(m *mat.Dense, c RGB) RGB {
	return RGB{
		m.At(0, 0)*c[0] + m.At(0, 1)*c[1] + m.At(0, 2)*c[2],
		m.At(1, 0)*c[0] + m.At(1, 1)*c[1] + m.At(1, 2)*c[2],
		m.At(2, 0)*c[0] + m.At(2, 1)*c[1] + m.At(2, 2)*c[2],
	}
}

func applyMatrixInPlace(img *Image, m *mat.Dense) {
	for i := 0; i < len(img.Pix); i += 3 {
		c := mulColour(m, RGB{img.Pix[i], img.Pix[i+1], img.Pix[i+2]})
		img.Pix[i] = c[0]
		img.Pix[i+1] = c[1]
		img.Pix[i+2] = c[2]
	}
}
