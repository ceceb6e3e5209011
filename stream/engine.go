package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"lautenbacher.net/gomovie/input"
)

var (
	ErrRead       = errors.New("movie read failed")
	ErrShortChunk = errors.New("short frame chunk")
)

// Display shows one complete frame. DrawFrame blocks until the transfer is
// done and must not keep a reference to pixels.
type Display interface {
	DrawFrame(pixels []byte, width int) error
}

// EdgeSampler is sampled once after each rendered frame.
type EdgeSampler interface {
	Sample() input.Edge
}

// Reason tells why the engine stopped playing a movie.
type Reason int

const (
	ReasonEndOfFile Reason = iota
	ReasonShortChunk
	ReasonReadError
	ReasonAdvanceRequested
	// ReasonStopped means the context was cancelled.
	ReasonStopped
)

func (r Reason) String() string {
	switch r {
	case ReasonEndOfFile:
		return "end of file"
	case ReasonShortChunk:
		return "short chunk"
	case ReasonReadError:
		return "read error"
	case ReasonAdvanceRequested:
		return "advance requested"
	case ReasonStopped:
		return "stopped"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Result of one pass over a movie.
type Result struct {
	Reason Reason
	// Frames rendered during this pass.
	Frames int
	// Short is the size of the trailing partial chunk for ReasonShortChunk.
	Short int
	Err   error
}

type Options struct {
	Width      int
	FrameDelay time.Duration
}

// Engine streams the frames of one open movie to the display.
type Engine struct {
	display Display
	button  EdgeSampler
	sleeper Sleeper
	stats   *Stats
	opts    Options
}

func NewEngine(display Display, button EdgeSampler, sleeper Sleeper, stats *Stats, opts Options) *Engine {
	return &Engine{
		display: display,
		button:  button,
		sleeper: sleeper,
		stats:   stats,
		opts:    opts,
	}
}

// Run reads whole frames from r into buf and renders each one until the
// movie ends, turns out to be truncated, fails to read, the button is
// pressed or ctx is cancelled. Partial frames are never rendered.
func (e *Engine) Run(ctx context.Context, r io.Reader, buf FrameBuffer, log *slog.Logger) Result {
	var res Result
	for {
		if err := ctx.Err(); err != nil {
			res.Reason, res.Err = ReasonStopped, err
			return res
		}

		n, err := io.ReadFull(r, buf)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			res.Reason = ReasonEndOfFile
			return res
		case errors.Is(err, io.ErrUnexpectedEOF):
			res.Reason, res.Short = ReasonShortChunk, n
			res.Err = fmt.Errorf("%w: %d of %d bytes", ErrShortChunk, n, len(buf))
			return res
		default:
			res.Reason = ReasonReadError
			res.Err = fmt.Errorf("%w: %w", ErrRead, err)
			return res
		}

		if err := e.display.DrawFrame(buf, e.opts.Width); err != nil {
			log.Warn("Drawing frame failed", "frame", res.Frames, "error", err)
		}
		res.Frames++
		if e.stats != nil {
			e.stats.Observe(time.Now())
		}

		advance := false
		switch e.button.Sample() {
		case input.EdgeRising:
			log.Info("Button pressed")
			advance = true
		case input.EdgeFalling:
			log.Info("Button released")
		}

		if err := e.sleeper.Sleep(ctx, e.opts.FrameDelay); err != nil {
			res.Reason, res.Err = ReasonStopped, err
			return res
		}
		if advance {
			res.Reason = ReasonAdvanceRequested
			return res
		}
	}
}
