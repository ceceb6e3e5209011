package logging

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	c "lautenbacher.net/gomovie/config"
)

// teeWriter holds log output back until a target is attached (the TUI
// log pane only exists after the first draw) and copies everything to an
// optional log file.
type teeWriter struct {
	mu        sync.Mutex
	pending   bytes.Buffer
	target    io.Writer
	file      *os.File
	buffering bool
}

func (w *teeWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	switch {
	case w.buffering:
		w.pending.Write(p)
	case w.target != nil:
		if _, err := w.target.Write(p); err != nil {
			firstErr = err
		}
	}

	if w.file != nil {
		if _, err := w.file.Write(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return len(p), firstErr
}

var writer = &teeWriter{}

// ParseLevel maps the level names used in the config file to slog levels.
// Unknown names fall back to INFO.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init installs the default slog logger. With bufferOutput set, nothing is
// written until SetOutput is called; otherwise output goes to stderr.
func Init(conf c.LogConfig, bufferOutput bool) error {
	w := &teeWriter{buffering: bufferOutput}
	if !bufferOutput {
		w.target = os.Stderr
	}

	if conf.File != "" {
		file, err := os.OpenFile(conf.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", conf.File, err)
		}
		w.file = file
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(conf.Level)}

	var handler slog.Handler
	if strings.ToLower(conf.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	writer = w
	slog.SetDefault(slog.New(handler))
	return nil
}

// SetOutput flushes everything buffered so far to newTarget and switches to
// live output.
func SetOutput(newTarget io.Writer) error {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	if writer.pending.Len() > 0 {
		if _, err := newTarget.Write(writer.pending.Bytes()); err != nil {
			return err
		}
		writer.pending.Reset()
	}
	writer.target = newTarget
	writer.buffering = false
	return nil
}

// BufferOutput detaches the current target and buffers from now on.
func BufferOutput() {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	writer.target = nil
	writer.buffering = true
}

// Close writes out anything still buffered and closes the log file. Without
// a file and a target the buffer goes to stderr so shutdown messages of the
// TUI mode are not lost.
func Close() error {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	var firstErr error
	if writer.file != nil {
		if err := writer.file.Close(); err != nil {
			firstErr = err
		}
		writer.file = nil
	}
	if writer.pending.Len() > 0 && (writer.target == nil || writer.buffering) {
		if _, err := os.Stderr.Write(writer.pending.Bytes()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	writer.pending.Reset()
	return firstErr
}
