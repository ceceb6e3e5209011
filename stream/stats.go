package stream

import (
	"time"

	"github.com/gammazero/deque"
)

// Stats keeps the render times of the last frames to report the frame rate
// actually reached on the panel.
type Stats struct {
	window int
	stamps deque.Deque[time.Time]
	total  uint64
}

func NewStats(window int) *Stats {
	s := &Stats{window: window}
	s.stamps.SetBaseCap(window)
	return s
}

// Observe records a rendered frame.
func (s *Stats) Observe(at time.Time) {
	if s.stamps.Len() == s.window {
		s.stamps.PopFront()
	}
	s.stamps.PushBack(at)
	s.total++
}

// FPS is the frame rate over the current window, 0 until two frames were seen.
func (s *Stats) FPS() float64 {
	if s.stamps.Len() < 2 {
		return 0
	}
	span := s.stamps.Back().Sub(s.stamps.Front())
	if span <= 0 {
		return 0
	}
	return float64(s.stamps.Len()-1) / span.Seconds()
}

// Total is the number of frames rendered since the program started.
func (s *Stats) Total() uint64 {
	return s.total
}

// Reset forgets the window, e.g. when a new movie starts.
func (s *Stats) Reset() {
	s.stamps.Clear()
}
