package platform

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/stianeikeland/go-rpio/v4"

	c "lautenbacher.net/gomovie/config"
	"lautenbacher.net/gomovie/input"
	"lautenbacher.net/gomovie/stream"
)

// RaspberryPiPlatform drives an ST7789 panel on SPI0 and reads the button
// from a GPIO pin.
type RaspberryPiPlatform struct {
	*AbstractPlatform
	panel     *st7789
	button    *rpioButton
	dc        rpio.Pin
	reset     rpio.Pin
	backlight rpio.Pin
	spiOpen   bool
}

func NewRaspberryPiPlatform(conf *c.Config) *RaspberryPiPlatform {
	return &RaspberryPiPlatform{
		AbstractPlatform: newAbstractPlatform(conf),
	}
}

func (s *RaspberryPiPlatform) Start() error {
	d := s.config.Display

	slog.Info("Initialise GPIO and Spi...")
	if err := rpio.Open(); err != nil {
		return fmt.Errorf("failed to open rpio: %w", err)
	}
	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		rpio.Close()
		return fmt.Errorf("failed to begin spi: %w", err)
	}
	s.spiOpen = true
	rpio.SpiSpeed(d.SPIFrequency)
	rpio.SpiChipSelect(0)
	rpio.SpiMode(0, 0)

	s.dc = outputPin(d.DCPin, rpio.Low)
	s.reset = outputPin(d.ResetPin, rpio.High)
	s.backlight = outputPin(d.BacklightPin, rpio.Low)

	btn := rpio.Pin(s.config.Button.Pin)
	btn.Input()
	if s.config.Button.ActiveLow {
		btn.PullUp()
	} else {
		btn.PullDown()
	}
	s.button = &rpioButton{pin: btn, activeLow: s.config.Button.ActiveLow}

	// hardware reset before the controller accepts commands
	s.reset.Low()
	time.Sleep(10 * time.Millisecond)
	s.reset.High()
	time.Sleep(120 * time.Millisecond)

	bus := &rpioBus{dc: s.dc, chunk: d.SPIChunk}
	s.panel = newST7789(bus, d.Width, d.Height, d.OffsetX, d.OffsetY)
	s.panel.init(d.Invert, time.Sleep)
	s.backlight.High()

	slog.Info("Panel ready", "width", d.Width, "height", d.Height, "spiHz", d.SPIFrequency)
	s.setReady()
	return nil
}

func (s *RaspberryPiPlatform) Stop() {
	if s.spiOpen {
		s.backlight.Low()
		rpio.SpiEnd(rpio.Spi0)
		s.spiOpen = false
		if err := rpio.Close(); err != nil {
			slog.Error("Error closing rpio", "error", err)
		}
	}
}

func (s *RaspberryPiPlatform) Display() stream.Display {
	return s.panel
}

func (s *RaspberryPiPlatform) Button() input.DigitalInput {
	return s.button
}

func outputPin(number int, initial rpio.State) rpio.Pin {
	pin := rpio.Pin(number)
	pin.Output()
	pin.Write(initial)
	return pin
}

// rpioBus is the SPI side of the panel. Data is sent in chunks of at most
// chunk bytes. The exchange overwrites data with what was read back, so
// callers rebuild their buffers before every write.
type rpioBus struct {
	dc    rpio.Pin
	chunk int
}

func (b *rpioBus) writeCommand(cmd byte) {
	b.dc.Low()
	rpio.SpiTransmit(cmd)
}

func (b *rpioBus) writeData(data []byte) {
	b.dc.High()
	for len(data) > 0 {
		n := min(len(data), b.chunk)
		rpio.SpiExchange(data[:n])
		data = data[n:]
	}
}

type rpioButton struct {
	pin       rpio.Pin
	activeLow bool
}

func (b *rpioButton) IsActive() bool {
	return levelActive(b.pin.Read() == rpio.High, b.activeLow)
}

// levelActive applies the button polarity to a pin level.
func levelActive(high, activeLow bool) bool {
	return high != activeLow
}
