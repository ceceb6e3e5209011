package platform

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	c "lautenbacher.net/gomovie/config"
	"lautenbacher.net/gomovie/input"
	"lautenbacher.net/gomovie/logging"
	"lautenbacher.net/gomovie/media"
	"lautenbacher.net/gomovie/stream"
)

// redrawInterval limits how often the frame pane is repainted; the
// terminal cannot keep up with the panel's frame rate.
const redrawInterval = 40 * time.Millisecond

type TUIPlatform struct {
	*AbstractPlatform
	tviewapp     *tview.Application
	intro        *tview.TextView
	framePane    *tview.Box
	logView      *tview.TextView
	ossignalChan chan os.Signal
	mirror       *frameMirror
	button       *simulatedButton
	logFlushOnce sync.Once
	stopChan     chan struct{}
	redrawWg     sync.WaitGroup

	statusMu sync.Mutex
	status   string
}

func NewTUIPlatform(conf *c.Config, ossignalchan chan os.Signal) *TUIPlatform {
	return &TUIPlatform{
		AbstractPlatform: newAbstractPlatform(conf),
		ossignalChan:     ossignalchan,
		mirror:           newFrameMirror(conf.Display.Width, conf.Display.Height),
		button:           newSimulatedButton(conf.Button.SimulatedPress),
		stopChan:         make(chan struct{}),
		status:           "scanning...",
	}
}

func (s *TUIPlatform) Start() error {
	s.initSimulationTUI()

	s.redrawWg.Add(1)
	go s.redrawDriver()
	return nil
}

func (s *TUIPlatform) Stop() {
	close(s.stopChan)
	s.redrawWg.Wait()
	s.button.stop()

	logging.BufferOutput()
	if s.tviewapp != nil {
		s.tviewapp.Stop()
	}
}

func (s *TUIPlatform) Display() stream.Display {
	return s.mirror
}

func (s *TUIPlatform) Button() input.DigitalInput {
	return s.button
}

// MovieStarted shows the movie now playing in the intro pane.
func (s *TUIPlatform) MovieStarted(entry media.Entry, index, total int) {
	s.statusMu.Lock()
	s.status = fmt.Sprintf("%s [%d/%d]", entry.Name, index+1, total)
	s.statusMu.Unlock()
	s.tviewapp.QueueUpdateDraw(func() {
		s.intro.SetText(s.getIntroText())
	})
}

func (s *TUIPlatform) getIntroText() string {
	s.statusMu.Lock()
	status := s.status
	s.statusMu.Unlock()

	line1 := fmt.Sprintf("Now playing: [#ffff00]%s[white]", status)
	line2 := "Hit [blue]space[-] to press the button"
	line3 := "Hit [#ff0000]q[-] to exit, [#ff0000]r[-] to reload, [#ff0000]Up/Down[-] to scroll logs"
	return fmt.Sprintf("%s\n%s\n%s", line1, line2, line3)
}

func (s *TUIPlatform) initSimulationTUI() {
	s.tviewapp = tview.NewApplication()

	// --- Intro Pane ---
	s.intro = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	s.intro.SetText(s.getIntroText())
	s.intro.SetBorder(true).SetTitle(" GOMOVIE Simulation ").SetTitleColor(tcell.ColorLightBlue)
	s.intro.SetBackgroundColor(tcell.NewRGBColor(20, 20, 20))

	// --- Frame Pane ---
	s.framePane = tview.NewBox()
	s.framePane.SetBorder(true).SetTitle(fmt.Sprintf(" Panel %dx%d ", s.config.Display.Width, s.config.Display.Height))
	s.framePane.SetBackgroundColor(tcell.ColorBlack)
	s.framePane.SetDrawFunc(s.drawFrame)

	// --- Log Pane ---
	s.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() {
			s.logView.ScrollToEnd()
			s.tviewapp.Draw()
		})
	s.logView.SetBorder(true).SetTitle(" Logs ").SetTitleColor(tcell.ColorLightBlue)
	s.logView.SetBackgroundColor(tcell.NewRGBColor(40, 40, 40))

	// --- Layout ---
	body := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(s.framePane, 0, 1, false).
		AddItem(s.logView, 0, 2, true)
	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(s.intro, 5, 0, false).
		AddItem(body, 0, 1, true)

	// --- Flush logs after first draw ---
	s.tviewapp.SetAfterDrawFunc(func(screen tcell.Screen) {
		s.logFlushOnce.Do(func() {
			logging.SetOutput(tview.ANSIWriter(s.logView))
			s.setReady()
		})
	})

	s.tviewapp.SetInputCapture(s.handleKey)

	go func() {
		if err := s.tviewapp.SetRoot(layout, true).Run(); err != nil {
			slog.Error("Error running TUI", "error", err)
			s.signal(os.Interrupt)
		}
	}()
}

func (s *TUIPlatform) handleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyCtrlC:
		s.signal(os.Interrupt)
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case ' ':
			slog.Debug("Simulated button press")
			s.button.press()
			return nil
		case 'q', 'Q':
			s.signal(os.Interrupt)
			return nil
		case 'r', 'R':
			s.signal(syscall.SIGHUP)
			return nil
		}
	case tcell.KeyUp:
		row, col := s.logView.GetScrollOffset()
		s.logView.ScrollTo(row-1, col)
		return nil
	case tcell.KeyDown:
		row, col := s.logView.GetScrollOffset()
		s.logView.ScrollTo(row+1, col)
		return nil
	}
	return event
}

// signal drops sig when one is already pending.
func (s *TUIPlatform) signal(sig os.Signal) {
	select {
	case s.ossignalChan <- sig:
	default:
	}
}

// redrawDriver repaints the frame pane when the player delivered a new
// frame, at most once per redrawInterval.
func (s *TUIPlatform) redrawDriver() {
	defer s.redrawWg.Done()
	ticker := time.NewTicker(redrawInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopChan:
			slog.Info("Ending redraw go-routine...")
			return
		case <-ticker.C:
			if _, fresh := s.mirror.frames.Consume(); fresh {
				s.tviewapp.Draw()
			}
		}
	}
}

// drawFrame paints the mirrored frame with half blocks: the foreground is
// the upper pixel, the background the lower one.
func (s *TUIPlatform) drawFrame(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	// inside the border
	ix, iy, iw, ih := x+1, y+1, width-2, height-2
	s.mirror.sample(iw, ih, func(cx, cy int, c cell) {
		style := tcell.StyleDefault.
			Foreground(tcell.NewRGBColor(int32(c.top[0]), int32(c.top[1]), int32(c.top[2]))).
			Background(tcell.NewRGBColor(int32(c.bottom[0]), int32(c.bottom[1]), int32(c.bottom[2])))
		screen.SetContent(ix+cx, iy+cy, '▀', nil, style)
	})
	return ix, iy, iw, ih
}
