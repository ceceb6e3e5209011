package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	c "lautenbacher.net/gomovie/config"
	"lautenbacher.net/gomovie/input"
	"lautenbacher.net/gomovie/media"
	"lautenbacher.net/gomovie/stream"
)

var ErrFileOpen = errors.New("cannot open movie")

// VolumeOpener mounts or locates the media directory.
type VolumeOpener func() (media.Directory, error)

// Observer is told about every movie the controller starts.
type Observer interface {
	MovieStarted(entry media.Entry, index, total int)
}

// Controller plays the movies of the media directory one after the other,
// forever. It owns the playlist position and the frame buffer.
type Controller struct {
	conf       *c.Config
	openVolume VolumeOpener
	display    stream.Display
	button     *input.EdgeDetector
	sleeper    stream.Sleeper
	stats      *stream.Stats
	engine     *stream.Engine
	buf        stream.FrameBuffer
	observer   Observer

	dir      media.Directory
	playlist *media.Playlist
}

type Option func(*Controller)

// WithObserver registers o to be told about movie changes.
func WithObserver(o Observer) Option {
	return func(ctl *Controller) { ctl.observer = o }
}

// WithSleeper replaces the timer based sleeper used for pacing and idling.
func WithSleeper(s stream.Sleeper) Option {
	return func(ctl *Controller) { ctl.sleeper = s }
}

func New(conf *c.Config, openVolume VolumeOpener, display stream.Display, button input.DigitalInput, opts ...Option) *Controller {
	ctl := &Controller{
		conf:       conf,
		openVolume: openVolume,
		display:    display,
		button:     input.NewEdgeDetector(button),
		stats:      stream.NewStats(conf.Playback.StatsWindow),
		buf:        stream.NewFrameBuffer(conf.Display.FrameSize()),
	}
	for _, opt := range opts {
		opt(ctl)
	}
	if ctl.sleeper == nil {
		ctl.sleeper = stream.NewTimerSleeper()
	}
	ctl.engine = stream.NewEngine(ctl.display, ctl.button, ctl.sleeper, ctl.stats, stream.Options{
		Width:      conf.Display.Width,
		FrameDelay: conf.Playback.FrameDelay,
	})
	return ctl
}

// Run scans the media directory and plays until ctx is cancelled. Setup
// failures put the controller into the idle state instead of returning.
// The returned error is always the context's.
func (ctl *Controller) Run(ctx context.Context) error {
	dir, err := ctl.openVolume()
	if err != nil {
		return ctl.halt(ctx, err)
	}
	playlist, err := media.BuildPlaylist(dir, media.ScanOptions{
		Extension:    ctl.conf.Media.Extension,
		HiddenPrefix: ctl.conf.Media.HiddenPrefix,
		MinSize:      int64(len(ctl.buf)),
		Exclude:      ctl.conf.Media.Exclude,
	})
	if err != nil {
		return ctl.halt(ctx, err)
	}
	ctl.dir, ctl.playlist = dir, playlist
	playlist.SelectInitial(ctl.conf.Media.PreferredPrefix)
	slog.Info("Playing movie", "movie", playlist.Current().Name,
		"width", ctl.conf.Display.Width, "height", ctl.conf.Display.Height)

	openFailures := 0
	for {
		_, err := ctl.Step(ctx)
		switch {
		case err == nil:
			openFailures = 0
		case errors.Is(err, ErrFileOpen):
			if ctl.conf.Playback.OpenFailure == c.OpenFailureHalt {
				return ctl.halt(ctx, err)
			}
			openFailures++
			if openFailures >= playlist.Len() {
				// nothing opens, e.g. the card was pulled
				openFailures = 0
				if err := ctl.sleeper.Sleep(ctx, ctl.conf.Playback.IdleDelay); err != nil {
					return err
				}
			}
		default:
			return err
		}
	}
}

// Step plays the movie at the current position once and moves the
// position according to how the pass ended: a button press or a broken
// movie moves on, a clean end of file replays the same movie. The file is
// closed on every path.
func (ctl *Controller) Step(ctx context.Context) (stream.Result, error) {
	index := ctl.playlist.Index()
	entry := ctl.playlist.Current()

	file, err := ctl.dir.Open(entry.Name)
	if err != nil {
		level := slog.LevelError
		if ctl.conf.Playback.OpenFailure == c.OpenFailureHalt {
			// reported once by halt
			level = slog.LevelDebug
		}
		slog.Log(ctx, level, "Opening movie failed", "movie", entry.Name, "index", index, "error", err)
		if ctl.conf.Playback.OpenFailure == c.OpenFailureSkip {
			ctl.advance()
		}
		return stream.Result{}, fmt.Errorf("%w %s: %w", ErrFileOpen, entry.Name, err)
	}

	s := newSession(entry, file, index)
	defer s.close()

	if ctl.observer != nil {
		ctl.observer.MovieStarted(entry, index, ctl.playlist.Len())
	}
	ctl.stats.Reset()
	s.log.Debug("Movie opened")

	res := ctl.engine.Run(ctx, s.file, ctl.buf, s.log)
	switch res.Reason {
	case stream.ReasonEndOfFile:
		s.log.Debug("Movie finished, replaying", "frames", res.Frames, "fps", ctl.stats.FPS())
	case stream.ReasonAdvanceRequested:
		s.log.Info("Movie skipped by button", "frames", res.Frames, "fps", ctl.stats.FPS())
		ctl.advance()
	case stream.ReasonShortChunk:
		s.log.Info("Short/invalid frame chunk, skipping movie", "bytes", res.Short, "frames", res.Frames)
		ctl.advance()
	case stream.ReasonReadError:
		s.log.Error("Read error, skipping movie", "error", res.Err, "frames", res.Frames)
		ctl.advance()
	case stream.ReasonStopped:
		s.log.Info("Playback stopped", "frames", res.Frames)
		return res, res.Err
	}
	return res, nil
}

func (ctl *Controller) advance() {
	next := ctl.playlist.Advance()
	slog.Info("Next movie", "movie", next.Name, "index", ctl.playlist.Index(), "framesTotal", ctl.stats.Total())
}

func (ctl *Controller) halt(ctx context.Context, err error) error {
	slog.Error("Playback halted, nothing more to do until restart", "error", err)
	return Idle(ctx, ctl.sleeper, ctl.conf.Playback.IdleDelay)
}

// Idle is the terminal state: it sleeps in steps of delay and does nothing
// else until ctx is cancelled.
func Idle(ctx context.Context, sleeper stream.Sleeper, delay time.Duration) error {
	for {
		if err := sleeper.Sleep(ctx, delay); err != nil {
			return err
		}
	}
}
