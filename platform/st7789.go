package platform

import (
	"fmt"
	"time"
)

// ST7789 command set, the subset needed for 16 bit full-frame writes.
const (
	st7789SWRESET = 0x01
	st7789SLPOUT  = 0x11
	st7789NORON   = 0x13
	st7789INVOFF  = 0x20
	st7789INVON   = 0x21
	st7789DISPON  = 0x29
	st7789CASET   = 0x2A
	st7789RASET   = 0x2B
	st7789RAMWR   = 0x2C
	st7789MADCTL  = 0x36
	st7789COLMOD  = 0x3A

	colmod16bit = 0x55
	madctlRGB   = 0x00
)

// panelBus moves command and data bytes to the controller. writeCommand
// drives DC low, writeData drives it high.
type panelBus interface {
	writeCommand(cmd byte)
	writeData(data []byte)
}

// st7789 writes full frames to an ST7789 panel. Frames come in little
// endian RGB565 while the panel wants the high byte first, so each frame
// is swapped into tx, which is allocated once.
type st7789 struct {
	bus     panelBus
	width   int
	height  int
	offsetX int
	offsetY int
	tx      []byte
	params  []byte
}

func newST7789(bus panelBus, width, height, offsetX, offsetY int) *st7789 {
	return &st7789{
		bus:     bus,
		width:   width,
		height:  height,
		offsetX: offsetX,
		offsetY: offsetY,
		tx:      make([]byte, width*height*2),
		params:  make([]byte, 4),
	}
}

// init runs the power-up sequence. The hardware reset has to be done by
// the caller before.
func (d *st7789) init(invert bool, sleep func(time.Duration)) {
	d.bus.writeCommand(st7789SWRESET)
	sleep(150 * time.Millisecond)
	d.bus.writeCommand(st7789SLPOUT)
	sleep(10 * time.Millisecond)
	d.command(st7789COLMOD, colmod16bit)
	d.command(st7789MADCTL, madctlRGB)
	if invert {
		d.bus.writeCommand(st7789INVON)
	} else {
		d.bus.writeCommand(st7789INVOFF)
	}
	d.bus.writeCommand(st7789NORON)
	sleep(10 * time.Millisecond)
	d.bus.writeCommand(st7789DISPON)
	sleep(10 * time.Millisecond)
	d.blank()
}

// blank fills the panel with black so nothing random shows once the
// backlight is on.
func (d *st7789) blank() {
	clear(d.tx)
	d.writeTx()
}

func (d *st7789) writeTx() {
	d.window(d.offsetX, d.offsetY, d.offsetX+d.width-1, d.offsetY+d.height-1)
	d.bus.writeCommand(st7789RAMWR)
	d.bus.writeData(d.tx)
}

func (d *st7789) command(cmd byte, params ...byte) {
	d.bus.writeCommand(cmd)
	if len(params) > 0 {
		d.bus.writeData(params)
	}
}

// window sets the RAM area written by the next RAMWR, inclusive bounds.
func (d *st7789) window(x0, y0, x1, y1 int) {
	d.bus.writeCommand(st7789CASET)
	d.params[0], d.params[1], d.params[2], d.params[3] = byte(x0>>8), byte(x0), byte(x1>>8), byte(x1)
	d.bus.writeData(d.params)
	d.bus.writeCommand(st7789RASET)
	d.params[0], d.params[1], d.params[2], d.params[3] = byte(y0>>8), byte(y0), byte(y1>>8), byte(y1)
	d.bus.writeData(d.params)
}

func (d *st7789) DrawFrame(pixels []byte, width int) error {
	if width != d.width || len(pixels) != len(d.tx) {
		return fmt.Errorf("frame of %d bytes and width %d does not fit a %dx%d panel", len(pixels), width, d.width, d.height)
	}
	for i := 0; i < len(pixels); i += 2 {
		d.tx[i], d.tx[i+1] = pixels[i+1], pixels[i]
	}
	d.writeTx()
	return nil
}
