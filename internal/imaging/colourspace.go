package imaging

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Space names a working colour space. Gamut conversions are matrix based;
// ACEScct additionally carries a log transfer function.
type Space string

const (
	SpaceACES    Space = "ACES2065-1"
	SpaceACEScct Space = "ACEScct"
	SpaceRec709  Space = "Rec.709"
	SpaceRec2020 Space = "Rec.2020"
	SpaceP3D65   Space = "P3-D65"
)

// chromaticities holds the CIE xy coordinates defining an RGB gamut.
type chromaticities struct {
	rx, ry float64
	gx, gy float64
	bx, by float64
	wx, wy float64
}

var gamuts = map[Space]chromaticities{
	SpaceACES:    {0.7347, 0.2653, 0.0000, 1.0000, 0.0001, -0.0770, 0.32168, 0.33767},
	SpaceACEScct: {0.7130, 0.2930, 0.1650, 0.8300, 0.1280, 0.0440, 0.32168, 0.33767},
	SpaceRec709:  {0.6400, 0.3300, 0.3000, 0.6000, 0.1500, 0.0600, 0.3127, 0.3290},
	SpaceRec2020: {0.7080, 0.2920, 0.1700, 0.7970, 0.1310, 0.0460, 0.3127, 0.3290},
	SpaceP3D65:   {0.6800, 0.3200, 0.2650, 0.6900, 0.1500, 0.0600, 0.3127, 0.3290},
}

// rgbToXYZ derives the RGB to CIE XYZ matrix for a gamut by solving for the
// channel scales that reproduce the white point.
func rgbToXYZ(c chromaticities) (*mat.Dense, error) {
	xyzOf := func(x, y float64) (float64, float64, float64) {
		return x / y, 1.0, (1.0 - x - y) / y
	}
	rX, rY, rZ := xyzOf(c.rx, c.ry)
	gX, gY, gZ := xyzOf(c.gx, c.gy)
	bX, bY, bZ := xyzOf(c.bx, c.by)
	wX, wY, wZ := xyzOf(c.wx, c.wy)

	primaries := mat.NewDense(3, 3, []float64{
		rX, gX, bX,
		rY, gY, bY,
		rZ, gZ, bZ,
	})
	white := mat.NewVecDense(3, []float64{wX, wY, wZ})

	var scales mat.VecDense
	if err := scales.SolveVec(primaries, white); err != nil {
		return nil, fmt.Errorf("degenerate primaries: %w", err)
	}

	out := mat.NewDense(3, 3, nil)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			out.Set(row, col, primaries.At(row, col)*scales.AtVec(col))
		}
	}
	return out, nil
}

// ConversionMatrix returns the 3x3 matrix mapping linear RGB in src gamut to
// linear RGB in dst gamut. No chromatic adaptation is applied between
// differing white points.
func ConversionMatrix(src, dst Space) (*mat.Dense, error) {
	srcGamut, ok := gamuts[src]
	if !ok {
		return nil, fmt.Errorf("unknown colour space %q", src)
	}
	dstGamut, ok := gamuts[dst]
	if !ok {
		return nil, fmt.Errorf("unknown colour space %q", dst)
	}

	srcToXYZ, err := rgbToXYZ(srcGamut)
	if err != nil {
		return nil, err
	}
	dstToXYZ, err := rgbToXYZ(dstGamut)
	if err != nil {
		return nil, err
	}

	xyzToDst, err := InvertMatrix(dstToXYZ)
	if err != nil {
		return nil, fmt.Errorf("invert %q to XYZ: %w", dst, err)
	}

	out := mat.NewDense(3, 3, nil)
	out.Mul(xyzToDst, srcToXYZ)
	return out, nil
}

// ACEScct log encoding constants.
const (
	cctCut    = 0.0078125
	cctSlope  = 10.5402377416545
	cctOffset = 0.0729055341958355
	cctBreak  = 0.155251141552511
)

func acesCctEncode(x float64) float64 {
	if x <= cctCut {
		return cctSlope*x + cctOffset
	}
	return (math.Log2(x) + 9.72) / 17.52
}

func acesCctDecode(v float64) float64 {
	if v <= cctBreak {
		return (v - cctOffset) / cctSlope
	}
	return math.Exp2(v*17.52 - 9.72)
}

// Convert returns a copy of the image converted from the src colour space to
// dst. Identical spaces yield an unchanged copy so repeated conversions are
// bit-stable.
func Convert(img *Image, src, dst Space) (*Image, error) {
	if src == dst {
		return img.Clone(), nil
	}

	out := img.Clone()
	if src == SpaceACEScct {
		applyTransfer(out, acesCctDecode)
	}

	m, err := ConversionMatrix(src, dst)
	if err != nil {
		return nil, err
	}
	applyMatrixInPlace(out, m)

	if dst == SpaceACEScct {
		applyTransfer(out, acesCctEncode)
	}
	return out, nil
}

// ConvertSample converts a single colour sample between spaces.
func ConvertSample(colour RGB, src, dst Space) (RGB, error) {
	if src == dst {
		return colour, nil
	}
	if src == SpaceACEScct {
		colour = RGB{acesCctDecode(colour[0]), acesCctDecode(colour[1]), acesCctDecode(colour[2])}
	}
	m, err := ConversionMatrix(src, dst)
	if err != nil {
		return RGB{}, err
	}
	colour = mulColour(m, colour)
	if dst == SpaceACEScct {
		colour = RGB{acesCctEncode(colour[0]), acesCctEncode(colour[1]), acesCctEncode(colour[2])}
	}
	return colour, nil
}

func applyTransfer(img *Image, fn func(float64) float64) {
	for i := range img.Pix {
		img.Pix[i] = fn(img.Pix[i])
	}
}
