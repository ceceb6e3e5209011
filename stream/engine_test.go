package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lautenbacher.net/gomovie/input"
)

const (
	testWidth     = 4
	testHeight    = 2
	testFrameSize = testWidth * testHeight * 2
)

type recordingDisplay struct {
	frames [][]byte
	err    error
}

func (d *recordingDisplay) DrawFrame(pixels []byte, width int) error {
	if width != testWidth {
		panic("unexpected width")
	}
	d.frames = append(d.frames, bytes.Clone(pixels))
	return d.err
}

type scriptedEdges struct {
	edges   []input.Edge
	samples int
}

func (s *scriptedEdges) Sample() input.Edge {
	i := s.samples
	s.samples++
	if i < len(s.edges) {
		return s.edges[i]
	}
	return input.EdgeNone
}

type countingSleeper struct {
	sleeps []time.Duration
}

func (s *countingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.sleeps = append(s.sleeps, d)
	return ctx.Err()
}

// failingReader delivers data and then fails.
type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func frames(n int, extra int) []byte {
	data := make([]byte, n*testFrameSize+extra)
	for i := range data {
		data[i] = byte(i)
	}
	return data
}

func newTestEngine(edges ...input.Edge) (*Engine, *recordingDisplay, *scriptedEdges, *countingSleeper) {
	display := &recordingDisplay{}
	button := &scriptedEdges{edges: edges}
	sleeper := &countingSleeper{}
	e := NewEngine(display, button, sleeper, NewStats(8), Options{Width: testWidth, FrameDelay: 3 * time.Millisecond})
	return e, display, button, sleeper
}

func TestEngine_FullFramePassThrough(t *testing.T) {
	e, display, button, sleeper := newTestEngine()
	data := frames(1, 0)

	res := e.Run(context.Background(), bytes.NewReader(data), NewFrameBuffer(testFrameSize), slog.Default())

	assert.Equal(t, ReasonEndOfFile, res.Reason)
	assert.NoError(t, res.Err)
	assert.Equal(t, 1, res.Frames)
	require.Len(t, display.frames, 1, "exactly one render for one full frame")
	assert.Equal(t, data, display.frames[0], "frame bytes must be rendered unmodified")
	assert.Equal(t, 1, button.samples, "the button is sampled once per rendered frame")
	assert.Equal(t, []time.Duration{3 * time.Millisecond}, sleeper.sleeps, "every frame is paced")
}

func TestEngine_EndOfFile(t *testing.T) {
	e, display, _, _ := newTestEngine()

	res := e.Run(context.Background(), bytes.NewReader(frames(3, 0)), NewFrameBuffer(testFrameSize), slog.Default())

	assert.Equal(t, ReasonEndOfFile, res.Reason)
	assert.Equal(t, 3, res.Frames)
	assert.Len(t, display.frames, 3)
}

func TestEngine_ShortChunkIsNotRendered(t *testing.T) {
	for _, extra := range []int{1, testFrameSize / 2, testFrameSize - 1} {
		e, display, _, _ := newTestEngine()

		res := e.Run(context.Background(), bytes.NewReader(frames(2, extra)), NewFrameBuffer(testFrameSize), slog.Default())

		assert.Equal(t, ReasonShortChunk, res.Reason)
		assert.ErrorIs(t, res.Err, ErrShortChunk)
		assert.Equal(t, extra, res.Short)
		assert.Equal(t, 2, res.Frames)
		assert.Len(t, display.frames, 2, "the partial chunk must not be rendered")
	}
}

func TestEngine_ReadError(t *testing.T) {
	e, display, _, _ := newTestEngine()
	boom := errors.New("card removed")
	r := &failingReader{data: frames(1, 0), err: boom}

	res := e.Run(context.Background(), r, NewFrameBuffer(testFrameSize), slog.Default())

	assert.Equal(t, ReasonReadError, res.Reason)
	assert.ErrorIs(t, res.Err, ErrRead)
	assert.ErrorIs(t, res.Err, boom)
	assert.Len(t, display.frames, 1)
}

func TestEngine_RisingEdgeAdvancesAfterRender(t *testing.T) {
	e, display, button, sleeper := newTestEngine(input.EdgeNone, input.EdgeRising)

	res := e.Run(context.Background(), bytes.NewReader(frames(5, 0)), NewFrameBuffer(testFrameSize), slog.Default())

	assert.Equal(t, ReasonAdvanceRequested, res.Reason)
	assert.Equal(t, 2, res.Frames)
	assert.Len(t, display.frames, 2, "the frame before the press is rendered, no more frames are read")
	assert.Equal(t, 2, button.samples)
	assert.Len(t, sleeper.sleeps, 2, "the pacing delay also follows the frame that saw the press")
}

func TestEngine_FallingEdgeKeepsPlaying(t *testing.T) {
	e, display, _, _ := newTestEngine(input.EdgeFalling, input.EdgeFalling)

	res := e.Run(context.Background(), bytes.NewReader(frames(3, 0)), NewFrameBuffer(testFrameSize), slog.Default())

	assert.Equal(t, ReasonEndOfFile, res.Reason)
	assert.Len(t, display.frames, 3)
}

func TestEngine_DrawErrorIsNotFatal(t *testing.T) {
	e, display, _, _ := newTestEngine()
	display.err = errors.New("spi busy")

	res := e.Run(context.Background(), bytes.NewReader(frames(2, 0)), NewFrameBuffer(testFrameSize), slog.Default())

	assert.Equal(t, ReasonEndOfFile, res.Reason)
	assert.Equal(t, 2, res.Frames)
}

func TestEngine_Stopped(t *testing.T) {
	e, display, _, _ := newTestEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := e.Run(ctx, bytes.NewReader(frames(2, 0)), NewFrameBuffer(testFrameSize), slog.Default())

	assert.Equal(t, ReasonStopped, res.Reason)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Empty(t, display.frames)
}

func TestEngine_ReusesBuffer(t *testing.T) {
	e, _, _, _ := newTestEngine()
	buf := NewFrameBuffer(testFrameSize)
	data := frames(2, 0)

	e.Run(context.Background(), bytes.NewReader(data), buf, slog.Default())

	assert.Equal(t, data[testFrameSize:], []byte(buf), "the buffer holds the last frame read")
}

type discardDisplay struct{}

func (discardDisplay) DrawFrame(pixels []byte, width int) error { return nil }

type releasedButton struct{}

func (releasedButton) IsActive() bool { return false }

func TestEngine_NoAllocPerFrame(t *testing.T) {
	e := NewEngine(discardDisplay{}, input.NewEdgeDetector(releasedButton{}), NewTimerSleeper(), NewStats(120),
		Options{Width: testWidth, FrameDelay: time.Nanosecond})
	buf := NewFrameBuffer(testFrameSize)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	allocsFor := func(n int) float64 {
		data := frames(n, 0)
		r := bytes.NewReader(data)
		return testing.AllocsPerRun(20, func() {
			r.Reset(data)
			if res := e.Run(ctx, r, buf, log); res.Frames != n {
				t.Fatalf("played %d frames, want %d", res.Frames, n)
			}
		})
	}

	one := allocsFor(1)
	many := allocsFor(200)
	assert.Zero(t, one, "a single frame must not allocate")
	assert.Zero(t, many, "allocations must not grow with the number of frames")
}

func TestReason_String(t *testing.T) {
	assert.Equal(t, "end of file", ReasonEndOfFile.String())
	assert.Equal(t, "advance requested", ReasonAdvanceRequested.String())
	assert.Equal(t, "Reason(42)", Reason(42).String())
}

var _ io.Reader = (*failingReader)(nil)
