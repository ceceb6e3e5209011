package platform

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"lautenbacher.net/gomovie/stream"
	"lautenbacher.net/gomovie/util"
)

// simulatedButton is pressed from the keyboard. A terminal only reports key
// presses, so the button is released again after hold.
type simulatedButton struct {
	held  atomic.Bool
	hold  time.Duration
	mu    sync.Mutex
	timer *time.Timer
}

func newSimulatedButton(hold time.Duration) *simulatedButton {
	return &simulatedButton{hold: hold}
}

func (b *simulatedButton) press() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.held.Store(true)
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.hold, func() { b.held.Store(false) })
}

func (b *simulatedButton) IsActive() bool {
	return b.held.Load()
}

func (b *simulatedButton) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.held.Store(false)
}

// frameMirror is the Display of the simulation. It copies every frame into
// its own buffer, so the player's frame buffer is free again as soon as
// DrawFrame returns, and signals the TUI that a new frame is there.
type frameMirror struct {
	mu     sync.Mutex
	width  int
	height int
	pixels []byte
	count  uint64
	frames *util.AtomicEvent[uint64]
}

func newFrameMirror(width, height int) *frameMirror {
	return &frameMirror{
		width:  width,
		height: height,
		pixels: make([]byte, width*height*2),
		frames: util.NewAtomicEvent[uint64](),
	}
}

func (m *frameMirror) DrawFrame(pixels []byte, width int) error {
	if width != m.width || len(pixels) != len(m.pixels) {
		return fmt.Errorf("frame of %d bytes and width %d does not fit a %dx%d panel", len(pixels), width, m.width, m.height)
	}
	m.mu.Lock()
	copy(m.pixels, pixels)
	m.count++
	count := m.count
	m.mu.Unlock()
	m.frames.Send(count)
	return nil
}

// cell is one terminal cell showing two vertically stacked pixels.
type cell struct {
	top    [3]uint8
	bottom [3]uint8
}

// sample scales the mirrored frame down into a cols x rows grid of cells,
// keeping the aspect ratio, and calls fn for every cell. It returns the
// grid actually used.
func (m *frameMirror) sample(cols, rows int, fn func(x, y int, c cell)) (int, int) {
	if cols <= 0 || rows <= 0 {
		return 0, 0
	}
	scale := max(1, float64(m.width)/float64(cols), float64(m.height)/float64(2*rows))
	usedCols := min(cols, int(float64(m.width)/scale))
	usedRows := min(rows, int(float64(m.height)/scale)/2)

	m.mu.Lock()
	defer m.mu.Unlock()
	for y := 0; y < usedRows; y++ {
		top := min(int(float64(2*y)*scale), m.height-1) * m.width
		bottom := min(int(float64(2*y+1)*scale), m.height-1) * m.width
		for x := 0; x < usedCols; x++ {
			px := min(int(float64(x)*scale), m.width-1)
			var c cell
			c.top[0], c.top[1], c.top[2] = stream.RGB565(m.pixels, top+px)
			c.bottom[0], c.bottom[1], c.bottom[2] = stream.RGB565(m.pixels, bottom+px)
			fn(x, y, c)
		}
	}
	return usedCols, usedRows
}
