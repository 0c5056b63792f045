package libio_test

import (
	"testing"

	"envgen/libio"

	"github.com/chewxy/math32"
)

func TestRgbeRoundTrip(t *testing.T) {
	src := []float32{
		1, 0.5, 0.25,
		100, 50, 25,
		0.001, 0.002, 0.003,
		0, 0, 0,
		3000, 0, 1,
	}

	enc := make([]byte, len(src)/3*4)
	if n := libio.EncodeRgbeChunk(3, src, enc); n != len(enc) {
		t.Fatalf("encoded %d bytes, want %d", n, len(enc))
	}
	dec := make([]float32, len(src))
	if n := libio.DecodeRgbeChunk(3, enc, dec); n != len(dec) {
		t.Fatalf("decoded %d floats, want %d", n, len(dec))
	}

	for i := 0; i < len(src); i += 3 {
		max := math32.Max(src[i], math32.Max(src[i+1], src[i+2]))
		tol := math32.Max(max/128, 1e-4)
		for c := 0; c < 3; c++ {
			if math32.Abs(src[i+c]-dec[i+c]) > tol {
				t.Errorf("texel %d channel %d: %f != %f (tol %f)", i/3, c, dec[i+c], src[i+c], tol)
			}
		}
	}
}

func TestRgbeZeroTexel(t *testing.T) {
	enc := make([]byte, 4)
	libio.EncodeRgbeChunk(3, []float32{0, 0, 0}, enc)
	for i, b := range enc {
		if b != 0 {
			t.Errorf("byte %d of a black texel should be 0, got %d", i, b)
		}
	}

	dec := make([]float32, 3)
	libio.DecodeRgbeChunk(3, enc, dec)
	for c, v := range dec {
		if v != 0 {
			t.Errorf("channel %d should decode to 0, got %f", c, v)
		}
	}
}

func TestRgbeAlphaHandling(t *testing.T) {
	enc := make([]byte, 4)
	libio.EncodeRgbeChunk(4, []float32{1, 0.5, 0.25, 0.7}, enc)

	dec := make([]float32, 4)
	libio.DecodeRgbeChunk(4, enc, dec)
	if dec[3] != 1 {
		t.Errorf("alpha should be restored as 1, got %f", dec[3])
	}
}
