package sequence

// Memory is an in-memory Sequence backed by pre-built frames, keyed by frame
// number. It backs synthetic sequences in tests and tools that generate
// frames rather than read them from disk.
type Memory struct {
	frames map[int]*Frame
	start  int
	end    int
}

// NewMemory creates an empty in-memory sequence.
func NewMemory() *Memory {
	return &Memory{frames: map[int]*Frame{}}
}

// AddFrame inserts a frame, extending the sequence bounds to include it.
func (m *Memory) AddFrame(frame *Frame) {
	if len(m.frames) == 0 || frame.Num < m.start {
		m.start = frame.Num
	}
	if len(m.frames) == 0 || frame.Num > m.end {
		m.end = frame.Num
	}
	m.frames[frame.Num] = frame
}

// StartFrame returns the first frame number of the sequence.
func (m *Memory) StartFrame() int { return m.start }

// EndFrame returns the last frame number of the sequence.
func (m *Memory) EndFrame() int { return m.end }

// GetFrame returns the frame with the given number.
func (m *Memory) GetFrame(num int) (*Frame, error) {
	frame, ok := m.frames[num]
	if !ok {
		return nil, &FrameRangeError{Frame: num, Start: m.start, End: m.end}
	}
	return frame, nil
}
