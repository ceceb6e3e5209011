package platform

import (
	"lautenbacher.net/gomovie/input"
	"lautenbacher.net/gomovie/stream"
)

// Platform abstracts the real panel and button away from the terminal
// simulation.
type Platform interface {
	// Start initialises the platform (GPIO/SPI and the panel, or the TUI).
	Start() error

	// Stop releases all platform resources.
	Stop()

	// Ready is closed once Display and Button can be used.
	Ready() <-chan bool

	// Display shows frames on the panel.
	Display() stream.Display

	// Button is the push-button that switches movies.
	Button() input.DigitalInput
}
