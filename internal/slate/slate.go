// Package slate reads the wall identification text burnt into the slate
// patch of a calibration sequence. Verification is advisory: a mismatch
// means the operator may have pointed the wrong plate at a wall, but OCR on
// photographed footage is never authoritative.
package slate

import (
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"

	"wallcal/internal/imaging"
)

// slateChars is the character set of slate burn-ins: wall names plus the
// sequence metadata line.
const slateChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_-. :"

// Reader performs OCR on slate frames.
type Reader struct {
	client *gosseract.Client
}

// NewReader creates a slate reader.
func NewReader() (*Reader, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Wall names are not dictionary words; keep Tesseract from correcting
	// them into ones.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	return &Reader{client: client}, nil
}

// Close releases OCR resources.
func (r *Reader) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ReadText recognises all text on a slate frame.
func (r *Reader) ReadText(img *imaging.Image) (string, error) {
	mat := renderForOCR(img)
	defer mat.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return "", fmt.Errorf("failed to encode slate render: %w", err)
	}
	defer buf.Close()

	if err := r.client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		return "", fmt.Errorf("failed to set PSM: %w", err)
	}
	if err := r.client.SetWhitelist(slateChars); err != nil {
		return "", fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := r.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := r.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.Join(strings.Fields(text), " "), nil
}

// VerifyWallName reports whether the given wall name appears in the slate
// text. Matching is case-insensitive and tolerant of OCR splitting the name
// across whitespace.
func (r *Reader) VerifyWallName(img *imaging.Image, wallName string) (bool, string, error) {
	text, err := r.ReadText(img)
	if err != nil {
		return false, "", err
	}

	haystack := strings.ToLower(strings.Join(strings.Fields(text), ""))
	needle := strings.ToLower(strings.Join(strings.Fields(wallName), ""))
	if needle == "" {
		return false, text, nil
	}
	return strings.Contains(haystack, needle), text, nil
}

// renderForOCR converts the float image to the high-contrast 8-bit render
// Tesseract works best on: grayscale, Otsu threshold, dark text on light
// background.
func renderForOCR(img *imaging.Image) gocv.Mat {
	gray := gocv.NewMatWithSize(img.Height, img.Width, gocv.MatTypeCV8U)

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
			gray.SetUCharAt(y, x, uint8(v*255.0+0.5))
		}
	}

	// Upscale small slates so the burn-in text reaches a height Tesseract
	// can segment.
	if minDim := min(img.Width, img.Height); minDim > 0 && minDim < 300 {
		scale := 300.0 / float64(minDim)
		scaled := gocv.NewMat()
		gocv.Resize(gray, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
		gray.Close()
		gray = scaled
	}

	binary := gocv.NewMat()
	gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	gray.Close()

	// Slate text renders light on a dark patch; Tesseract expects the
	// opposite.
	whiteCount := gocv.CountNonZero(binary)
	if float64(whiteCount) < float64(binary.Rows()*binary.Cols())*0.5 {
		gocv.BitwiseNot(binary, &binary)
	}
	return binary
}
