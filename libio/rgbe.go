package libio

import "github.com/chewxy/math32"

// RGBE packs an RGB float tuple into four bytes with a shared exponent.
// The alpha channel of 4-component tuples is dropped on encode and
// restored as 1.0 on decode.

// EncodeRgbeChunk encodes len(src)/components texels into dst, which must
// hold 4 bytes per texel. It returns the number of bytes written.
func EncodeRgbeChunk(components int, src []float32, dst []byte) int {
	count := len(src) / components
	for i := 0; i < count; i++ {
		r := src[i*components+0]
		g := src[i*components+1]
		b := src[i*components+2]

		max := math32.Max(r, math32.Max(g, b))
		if max < 1e-32 {
			dst[i*4+0] = 0
			dst[i*4+1] = 0
			dst[i*4+2] = 0
			dst[i*4+3] = 0
			continue
		}

		frac, exp := math32.Frexp(max)
		scale := frac * 256.0 / max

		dst[i*4+0] = uint8(r * scale)
		dst[i*4+1] = uint8(g * scale)
		dst[i*4+2] = uint8(b * scale)
		dst[i*4+3] = uint8(exp + 128)
	}
	return count * 4
}

// DecodeRgbeChunk decodes len(data)/4 texels into dst, which must hold
// components floats per texel. It returns the number of floats written.
func DecodeRgbeChunk(components int, data []byte, dst []float32) int {
	count := len(data) / 4
	for i := 0; i < count; i++ {
		e := data[i*4+3]
		if e == 0 {
			dst[i*components+0] = 0
			dst[i*components+1] = 0
			dst[i*components+2] = 0
		} else {
			scale := math32.Ldexp(1, int(e)-(128+8))
			dst[i*components+0] = float32(data[i*4+0]) * scale
			dst[i*components+1] = float32(data[i*4+1]) * scale
			dst[i*components+2] = float32(data[i*4+2]) * scale
		}
		if components == 4 {
			dst[i*components+3] = 1
		}
	}
	return count * components
}
