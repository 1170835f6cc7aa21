package imaging

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"wallcal/pkg/geometry"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestConvertSampleRoundTrip(t *testing.T) {
	original := RGB{0.4, 0.25, 0.1}

	converted, err := ConvertSample(original, SpaceACES, SpaceRec709)
	if err != nil {
		t.Fatalf("convert to Rec.709 failed: %v", err)
	}
	back, err := ConvertSample(converted, SpaceRec709, SpaceACES)
	if err != nil {
		t.Fatalf("convert back failed: %v", err)
	}

	for ch := 0; ch < 3; ch++ {
		if !almostEqual(back[ch], original[ch], 1e-9) {
			t.Errorf("channel %d: got %v, want %v", ch, back[ch], original[ch])
		}
	}
}

func TestConvertSameSpaceIsIdentity(t *testing.T) {
	img := NewSolidImage(4, 4, RGB{0.3, 0.6, 0.9})

	out, err := Convert(img, SpaceACES, SpaceACES)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	for i := range img.Pix {
		if out.Pix[i] != img.Pix[i] {
			t.Fatalf("pixel %d changed: got %v, want %v", i, out.Pix[i], img.Pix[i])
		}
	}
	out.Pix[0] = 99
	if img.Pix[0] == 99 {
		t.Error("conversion aliased the source image buffer")
	}
}

func TestACEScctRoundTrip(t *testing.T) {
	// One value below the linear cut, one above.
	for _, x := range []float64{0.001, 0.18, 1.0, 4.0} {
		if got := acesCctDecode(acesCctEncode(x)); !almostEqual(got, x, 1e-9) {
			t.Errorf("round trip of %v: got %v", x, got)
		}
	}
}

func TestACEScctMidGrey(t *testing.T) {
	// 18% grey encodes to ~0.4135 in ACEScct.
	if got := acesCctEncode(0.18); !almostEqual(got, 0.4135884, 1e-4) {
		t.Errorf("encode(0.18) = %v, want ~0.4135884", got)
	}
}

func TestWhiteBalanceNeutralises(t *testing.T) {
	img := NewSolidImage(8, 8, RGB{0.5, 0.4, 0.2})

	m := WhiteBalanceMatrix(img)
	balanced := ApplyMatrix(img, m)

	mean := balanced.MeanColour()
	if !almostEqual(mean[0], mean[1], 1e-9) || !almostEqual(mean[2], mean[1], 1e-9) {
		t.Errorf("balanced mean is not neutral: %v", mean)
	}
	if !almostEqual(mean[1], 0.4, 1e-9) {
		t.Errorf("green channel moved: got %v, want 0.4", mean[1])
	}
}

func TestWhiteBalanceZeroChannels(t *testing.T) {
	img := NewSolidImage(4, 4, RGB{0, 0.5, 0})

	m := WhiteBalanceMatrix(img)
	if m.At(0, 0) != 1 || m.At(2, 2) != 1 {
		t.Errorf("zero channels should leave scale at 1, got r=%v b=%v", m.At(0, 0), m.At(2, 2))
	}
}

func TestClippedMeanRejectsOutlier(t *testing.T) {
	img := NewSolidImage(10, 10, RGB{0.5, 0.5, 0.5})
	img.Set(0, 0, RGB{100, 0.5, 0.5})

	mean := img.ClippedMeanColour(3)
	if !almostEqual(mean[0], 0.5, 1e-9) {
		t.Errorf("outlier not rejected: red mean %v, want 0.5", mean[0])
	}
}

func TestClippedMeanUniformImage(t *testing.T) {
	img := NewSolidImage(6, 6, RGB{0.25, 0.5, 0.75})

	mean := img.ClippedMeanColour(3)
	want := RGB{0.25, 0.5, 0.75}
	for ch := 0; ch < 3; ch++ {
		if !almostEqual(mean[ch], want[ch], 1e-12) {
			t.Errorf("channel %d: got %v, want %v", ch, mean[ch], want[ch])
		}
	}
}

func TestExtractROI(t *testing.T) {
	img := NewImage(10, 10)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, RGB{float64(x), float64(y), 0})
		}
	}

	sub := img.ExtractROI(geometry.NewROI(2, 5, 3, 6))
	if sub.Width != 4 || sub.Height != 4 {
		t.Fatalf("got %dx%d, want 4x4", sub.Width, sub.Height)
	}
	if got := sub.At(0, 0); got[0] != 2 || got[1] != 3 {
		t.Errorf("top-left pixel is %v, want (2, 3, 0)", got)
	}
	if got := sub.At(3, 3); got[0] != 5 || got[1] != 6 {
		t.Errorf("bottom-right pixel is %v, want (5, 6, 0)", got)
	}
}

func TestExtractEmptyROIClonesWholeImage(t *testing.T) {
	img := NewSolidImage(5, 4, RGB{0.1, 0.2, 0.3})

	sub := img.ExtractROI(geometry.ROI{})
	if sub.Width != 5 || sub.Height != 4 {
		t.Fatalf("got %dx%d, want 5x4", sub.Width, sub.Height)
	}
	sub.Set(0, 0, RGB{9, 9, 9})
	if got := img.At(0, 0); got[0] == 9 {
		t.Error("extract aliased the source image buffer")
	}
}

func TestExtractInvertedROIDoesNotPanic(t *testing.T) {
	img := NewSolidImage(64, 64, RGB{0.5, 0.5, 0.5})

	// Swapped bounds from a hand-edited project file must not allocate a
	// negative-sized buffer.
	sub := img.ExtractROI(geometry.NewROI(50, 10, 0, 63))
	if sub.Width != 64 || sub.Height != 64 {
		t.Fatalf("got %dx%d, want the whole 64x64 image", sub.Width, sub.Height)
	}
}

func TestInvertMatrixRoundTrip(t *testing.T) {
	m, err := ConversionMatrix(SpaceACES, SpaceRec709)
	if err != nil {
		t.Fatalf("conversion matrix failed: %v", err)
	}
	inv, err := InvertMatrix(m)
	if err != nil {
		t.Fatalf("invert failed: %v", err)
	}

	colour := RGB{0.4, 0.25, 0.1}
	back := ApplyMatrixToSample(ApplyMatrixToSample(colour, m), inv)
	for ch := 0; ch < 3; ch++ {
		if !almostEqual(back[ch], colour[ch], 1e-9) {
			t.Errorf("channel %d: got %v, want %v", ch, back[ch], colour[ch])
		}
	}
}

func TestInvertMatrixSingular(t *testing.T) {
	m := mat.NewDense(3, 3, []float64{
		1, 2, 3,
		2, 4, 6,
		0, 0, 0,
	})
	if _, err := InvertMatrix(m); err == nil {
		t.Fatal("expected an error for a singular matrix")
	}
}

func TestPQRoundTrip(t *testing.T) {
	for _, nits := range []float64{0.1, 1, 100, 1000, 10000} {
		if got := PQToNits(NitsToPQ(nits)); !almostEqual(got, nits, nits*1e-9) {
			t.Errorf("round trip of %v nits: got %v", nits, got)
		}
	}
}

func TestGreySignals(t *testing.T) {
	signals := GreySignals(1000, 30)
	if len(signals) != 31 {
		t.Fatalf("got %d signals, want 31", len(signals))
	}
	if signals[0] != 0 {
		t.Errorf("first signal is %v, want 0", signals[0])
	}
	// The top of the ramp is the target peak, in units of 100 nits.
	if !almostEqual(signals[30], 10, 1e-6) {
		t.Errorf("last signal is %v, want 10", signals[30])
	}
	for i := 1; i < len(signals); i++ {
		if signals[i] <= signals[i-1] {
			t.Fatalf("signals not strictly increasing at %d: %v <= %v", i, signals[i], signals[i-1])
		}
	}
}

func TestDistance(t *testing.T) {
	if got := Distance(RGB{0, 0, 0}, RGB{1, 2, 2}); !almostEqual(got, 3, 1e-12) {
		t.Errorf("got %v, want 3", got)
	}
	if got := Distance(RGB{0.5, 0.5, 0.5}, RGB{0.5, 0.5, 0.5}); got != 0 {
		t.Errorf("got %v, want 0", got)
	}
}
