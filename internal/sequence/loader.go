package sequence

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	_ "golang.org/x/image/tiff"

	"wallcal/internal/imaging"
)

// Sequence is the read-only view of a loaded image sequence consumed by the
// analysis pipeline. Frames are addressed by their absolute frame number.
type Sequence interface {
	GetFrame(num int) (*Frame, error)
	StartFrame() int
	EndFrame() int
}

// FrameRangeError reports a request for a frame outside the sequence bounds.
type FrameRangeError struct {
	Frame int
	Start int
	End   int
}

func (e *FrameRangeError) Error() string {
	return fmt.Sprintf("frame %d out of range %d-%d", e.Frame, e.Start, e.End)
}

// warmFrameCount is how many frames are loaded eagerly when a sequence is
// opened; separation identification always starts at the head of the
// sequence.
const warmFrameCount = 50

// Loader reads an on-disk image sequence named in the form
// name.<frame>.<ext> and caches decoded frames.
type Loader struct {
	folder   string
	baseName string
	fileType string
	padding  int
	start    int
	end      int

	mu    sync.Mutex
	cache map[int]*Frame
}

var supportedExtensions = map[string]bool{
	".tif":  true,
	".tiff": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// frameNumberPattern matches the digits between the final two dots of a
// sequence file name.
var frameNumberPattern = regexp.MustCompile(`\.(\d+)\.\w+$`)

// DetectPadding returns the digit count of the frame number embedded in a
// sequence file name, or 0 when no frame number is present.
func DetectPadding(filename string) int {
	m := frameNumberPattern.FindStringSubmatch(filename)
	if m == nil {
		return 0
	}
	return len(m[1])
}

// Load opens the image sequence contained in folder. All files must share a
// single supported extension; frame bounds are derived from the numeric
// parts of the file names and the head of the sequence is cached eagerly.
func Load(folder string) (*Loader, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("read sequence folder: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		files = append(files, entry.Name())
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("sequence folder %s contains no files", folder)
	}
	sort.Strings(files)

	extensions := map[string]bool{}
	for _, f := range files {
		extensions[strings.ToLower(filepath.Ext(f))] = true
	}
	if len(extensions) > 1 {
		return nil, fmt.Errorf("more than one file extension found in sequence folder %s", folder)
	}
	for ext := range extensions {
		if !supportedExtensions[ext] {
			return nil, fmt.Errorf("file extension %s not supported", ext)
		}
	}

	// The base name is everything before the frame number, taken from the
	// first numbered file so dots in the shot name survive.
	var first string
	var firstLoc []int
	for _, f := range files {
		if loc := frameNumberPattern.FindStringIndex(f); loc != nil {
			first, firstLoc = f, loc
			break
		}
	}
	if first == "" {
		return nil, fmt.Errorf("no numbered frames found in %s", folder)
	}

	l := &Loader{
		folder:   folder,
		baseName: first[:firstLoc[0]],
		fileType: strings.ToLower(filepath.Ext(first)),
		padding:  DetectPadding(first),
		cache:    map[int]*Frame{},
	}

	start, end := 0, 0
	found := false
	for _, f := range files {
		m := frameNumberPattern.FindStringSubmatch(f)
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if !found || num < start {
			start = num
		}
		if !found || num > end {
			end = num
		}
		found = true
	}
	if !found {
		return nil, fmt.Errorf("no numbered frames found in %s", folder)
	}
	l.start, l.end = start, end

	l.warmCache()
	return l, nil
}

// StartFrame returns the first frame number of the sequence.
func (l *Loader) StartFrame() int { return l.start }

// EndFrame returns the last frame number of the sequence.
func (l *Loader) EndFrame() int { return l.end }

// GetFrame returns the frame with the given number, loading and caching it
// on first access.
func (l *Loader) GetFrame(num int) (*Frame, error) {
	if num < l.start || num > l.end {
		return nil, &FrameRangeError{Frame: num, Start: l.start, End: l.end}
	}

	l.mu.Lock()
	frame, ok := l.cache[num]
	l.mu.Unlock()
	if ok {
		return frame, nil
	}

	frame, err := l.loadFrame(num)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[num] = frame
	l.mu.Unlock()
	return frame, nil
}

// warmCache loads the head of the sequence concurrently. Load errors are
// ignored here; the frames are retried with a proper error on first access.
func (l *Loader) warmCache() {
	last := l.start + warmFrameCount - 1
	if last > l.end {
		last = l.end
	}

	var wg sync.WaitGroup
	for num := l.start; num <= last; num++ {
		wg.Add(1)
		go func(num int) {
			defer wg.Done()
			frame, err := l.loadFrame(num)
			if err != nil {
				return
			}
			l.mu.Lock()
			l.cache[num] = frame
			l.mu.Unlock()
		}(num)
	}
	wg.Wait()
}

func (l *Loader) loadFrame(num int) (*Frame, error) {
	name := fmt.Sprintf("%s.%0*d%s", l.baseName, l.padding, num, l.fileType)
	path := filepath.Join(l.folder, name)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame %d: %w", num, err)
	}
	defer f.Close()

	decoded, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode frame %d: %w", num, err)
	}

	return &Frame{
		Num:      num,
		FileName: name,
		Image:    fromStdImage(decoded),
	}, nil
}

// fromStdImage converts a decoded image to the float pixel buffer used by
// the analysis, normalising 16-bit channel values to [0, 1].
func fromStdImage(src image.Image) *imaging.Image {
	bounds := src.Bounds()
	out := imaging.NewImage(bounds.Dx(), bounds.Dy())
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			out.Set(x, y, imaging.RGB{
				float64(r) / 65535.0,
				float64(g) / 65535.0,
				float64(b) / 65535.0,
			})
		}
	}
	return out
}
