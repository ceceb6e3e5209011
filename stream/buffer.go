package stream

// FrameBuffer holds exactly one raw frame. It is allocated once and then
// passed by the player to the read and to the render of every frame in
// turn; the two never hold it at the same time.
type FrameBuffer []byte

func NewFrameBuffer(frameSize int) FrameBuffer {
	return make(FrameBuffer, frameSize)
}

// RGB565 returns the 8 bit colour components of pixel i of a little endian
// RGB565 raster.
func RGB565(pixels []byte, i int) (r, g, b uint8) {
	v := uint16(pixels[2*i]) | uint16(pixels[2*i+1])<<8
	r = uint8(v>>11) << 3
	g = uint8(v>>5&0x3f) << 2
	b = uint8(v&0x1f) << 3
	return r | r>>5, g | g>>6, b | b>>5
}
