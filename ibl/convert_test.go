package ibl_test

import (
	"errors"
	"strings"
	"testing"

	"envgen/ibl"
	"envgen/libio"

	"github.com/chewxy/math32"
)

func TestDetectLayout(t *testing.T) {
	cases := []struct {
		w, h   int
		layout ibl.Layout
		ok     bool
	}{
		{512, 256, ibl.LayoutEquirect, true},
		{500, 250, ibl.LayoutEquirect, true},
		{1024, 768, ibl.LayoutCrossHorizontal, true},
		{768, 1024, ibl.LayoutCrossVertical, true},
		{64, 48, ibl.LayoutCrossHorizontal, true},
		{300, 200, 0, false},
		{256, 256, 0, false},
		{100, 75, 0, false}, // 4:3 but long edge not a power of two
	}

	for _, c := range cases {
		layout, err := ibl.DetectLayout(c.w, c.h)
		if c.ok && err != nil {
			t.Errorf("%dx%d: unexpected error %v", c.w, c.h, err)
		} else if c.ok && layout != c.layout {
			t.Errorf("%dx%d: layout %d, want %d", c.w, c.h, layout, c.layout)
		} else if !c.ok {
			if err == nil {
				t.Errorf("%dx%d: expected an error", c.w, c.h)
			} else if !errors.Is(err, ibl.ErrUnsupportedFormat) {
				t.Errorf("%dx%d: error %v should wrap ErrUnsupportedFormat", c.w, c.h, err)
			} else if !strings.Contains(err.Error(), "300x200") && c.w == 300 {
				t.Errorf("%dx%d: error %q should name the dimensions", c.w, c.h, err)
			}
		}
	}
}

// gradientEquirect builds a smooth 2:1 test panorama.
func gradientEquirect(w, h int) *libio.FloatImage {
	pix := make([]float32, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			pix[i+0] = float32(x) / float32(w)
			pix[i+1] = float32(y) / float32(h)
			pix[i+2] = 0.25
		}
	}
	return libio.NewFloatImage(pix, 3, w, h)
}

func TestConvertEquirect(t *testing.T) {
	img := gradientEquirect(128, 64)

	cm, err := ibl.Convert(img, 64)
	if err != nil {
		t.Fatal(err)
	}
	if cm.Dim != 64 {
		t.Errorf("requested size 64, got %d", cm.Dim)
	}

	for face := 0; face < 6; face++ {
		for _, p := range [][2]int{{0, 0}, {63, 63}, {17, 42}} {
			r, g, b := cm.At(face, p[0], p[1])
			if r < 0 || r > 1 || g < 0 || g > 1 || math32.Abs(b-0.25) > 1e-3 {
				t.Fatalf("face %d texel %v out of expected range: (%f, %f, %f)", face, p, r, g, b)
			}
		}
	}
}

func TestConvertEquirectDefaultSize(t *testing.T) {
	cm, err := ibl.Convert(gradientEquirect(64, 32), 0)
	if err != nil {
		t.Fatal(err)
	}
	if cm.Dim != ibl.DefaultEquirectSize {
		t.Errorf("default size should be %d, got %d", ibl.DefaultEquirectSize, cm.Dim)
	}
}

func TestConvertRejectsChannelCount(t *testing.T) {
	img := libio.NewFloatImage(make([]float32, 128*64*4), 4, 128, 64)
	_, err := ibl.Convert(img, 0)
	if !errors.Is(err, ibl.ErrUnsupportedFormat) {
		t.Errorf("4-channel input should be rejected, got %v", err)
	}
}

func TestConvertSanitizesInput(t *testing.T) {
	img := gradientEquirect(64, 32)
	img.Pix[0] = math32.NaN()
	img.Pix[1] = math32.Inf(1)
	img.Pix[2] = math32.Inf(-1)
	img.Pix[100] = -5

	cm, err := ibl.Convert(img, 16)
	if err != nil {
		t.Fatal(err)
	}
	for face := 0; face < 6; face++ {
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				r, g, b := cm.At(face, x, y)
				for _, v := range []float32{r, g, b} {
					if math32.IsNaN(v) || math32.IsInf(v, 0) || v < 0 {
						t.Fatalf("face %d texel (%d,%d) not sanitized: %f", face, x, y, v)
					}
				}
			}
		}
	}
}

// indexedCross builds a cross image whose face cells hold unique values.
func indexedCross(dim int, horizontal bool) *libio.FloatImage {
	w, h := 4*dim, 3*dim
	if !horizontal {
		w, h = 3*dim, 4*dim
	}
	pix := make([]float32, w*h*3)
	img := libio.NewFloatImage(pix, 3, w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.Index(x, y)
			pix[i+0] = float32(x) + 0.5
			pix[i+1] = float32(y) + 0.5
			pix[i+2] = float32(x*y%97) / 97
		}
	}
	return img
}

func TestCrossRoundTrip(t *testing.T) {
	for _, horizontal := range []bool{true, false} {
		const dim = 16
		src := indexedCross(dim, horizontal)

		cm, err := ibl.FromCross(src)
		if err != nil {
			t.Fatal(err)
		}
		if cm.Dim != dim {
			t.Fatalf("cross face size should be %d, got %d", dim, cm.Dim)
		}

		back := ibl.ToCross(cm, horizontal)

		cells := [6][2]int{{2, 1}, {0, 1}, {1, 0}, {1, 2}, {1, 1}, {3, 1}}
		if !horizontal {
			cells[5] = [2]int{1, 3}
		}
		for face := 0; face < 6; face++ {
			for y := 0; y < dim; y++ {
				for x := 0; x < dim; x++ {
					sx, sy := cells[face][0]*dim+x, cells[face][1]*dim+y
					si := src.Index(sx, sy)
					bi := back.Index(sx, sy)
					for c := 0; c < 3; c++ {
						if src.Pix[si+c] != back.Pix[bi+c] {
							t.Fatalf("horizontal=%v face %d texel (%d,%d) channel %d: %f != %f",
								horizontal, face, x, y, c, src.Pix[si+c], back.Pix[bi+c])
						}
					}
				}
			}
		}
	}
}

func TestMirrorInvolution(t *testing.T) {
	const dim = 16
	cm, err := ibl.NewCubemap(dim)
	if err != nil {
		t.Fatal(err)
	}
	for face := 0; face < 6; face++ {
		data := make([]float32, dim*dim*3)
		for i := range data {
			data[i] = float32(face*dim*dim*3+i) * 0.001
		}
		cm.SetFaceData(ibl.CubemapFace(face), data)
	}
	cm.MakeSeamless()

	m1, err := ibl.Mirror(cm)
	if err != nil {
		t.Fatal(err)
	}
	m2, err := ibl.Mirror(m1)
	if err != nil {
		t.Fatal(err)
	}

	mirrored := false
	for face := 0; face < 6; face++ {
		orig := cm.FaceData(ibl.CubemapFace(face))
		once := m1.FaceData(ibl.CubemapFace(face))
		twice := m2.FaceData(ibl.CubemapFace(face))
		for i := range orig {
			if orig[i] != twice[i] {
				t.Fatalf("face %d index %d: mirror(mirror(x)) %f != %f", face, i, twice[i], orig[i])
			}
			if orig[i] != once[i] {
				mirrored = true
			}
		}
	}
	if !mirrored {
		t.Error("a single mirror should change the face contents")
	}
}

func TestGenerateUVGrid(t *testing.T) {
	cm, err := ibl.GenerateUVGrid(32, 4)
	if err != nil {
		t.Fatal(err)
	}
	r, g, b := cm.At(0, 0, 0)
	if r != 1 || g != 1 || b != 1 {
		t.Errorf("grid line texel should be white, got (%f, %f, %f)", r, g, b)
	}
	r0, _, _ := cm.At(0, 2, 2)
	r1, _, _ := cm.At(1, 2, 2)
	if r0 == r1 {
		t.Error("faces should have distinct base colors")
	}
}
