package input

// DigitalInput is a single push-button or switch. Implementations apply the
// configured polarity, so IsActive is true while the button is held.
type DigitalInput interface {
	IsActive() bool
}

// Edge is a transition of a DigitalInput between two samples.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
)

func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	default:
		return "none"
	}
}

// EdgeDetector derives press and release events from the level of an
// input. There is no debounce timer: the caller samples once per rendered
// frame, so the frame period is the debounce interval.
//
// An EdgeDetector is not safe for concurrent use.
type EdgeDetector struct {
	in       DigitalInput
	previous bool
}

func NewEdgeDetector(in DigitalInput) *EdgeDetector {
	return &EdgeDetector{in: in}
}

// Sample reads the input once, remembers the level and reports the
// transition against the previous sample.
func (d *EdgeDetector) Sample() Edge {
	level := d.in.IsActive()
	was := d.previous
	d.previous = level
	switch {
	case level && !was:
		return EdgeRising
	case !level && was:
		return EdgeFalling
	default:
		return EdgeNone
	}
}
