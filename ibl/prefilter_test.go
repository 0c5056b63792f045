package ibl_test

import (
	"errors"
	"testing"

	"envgen/ibl"

	"github.com/chewxy/math32"
)

func TestPrefilterIdentityAtZeroRoughness(t *testing.T) {
	base := gradientCubemap(t, 32)
	chain, err := ibl.BuildMipChain(base)
	if err != nil {
		t.Fatal(err)
	}

	out, err := ibl.PrefilterRoughness(chain, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if out.Dim != base.Dim {
		t.Fatalf("output size %d, want %d", out.Dim, base.Dim)
	}

	for face := 0; face < 6; face++ {
		for y := 0; y < out.Dim; y++ {
			for x := 0; x < out.Dim; x++ {
				r0, g0, b0 := base.At(face, x, y)
				r1, g1, b1 := out.At(face, x, y)
				if math32.Abs(r0-r1) > 1e-3 || math32.Abs(g0-g1) > 1e-3 || math32.Abs(b0-b1) > 1e-3 {
					t.Fatalf("face %d texel (%d,%d): (%f,%f,%f) != (%f,%f,%f)",
						face, x, y, r1, g1, b1, r0, g0, b0)
				}
			}
		}
	}
}

func TestPrefilterNonNegativeFinite(t *testing.T) {
	base := gradientCubemap(t, 16)
	chain, err := ibl.BuildMipChain(base)
	if err != nil {
		t.Fatal(err)
	}

	for _, roughness := range []float32{0, 0.05, 0.25, 0.5, 0.75, 1} {
		for _, samples := range []int{1, 16, 1024} {
			out, err := ibl.PrefilterRoughness(chain, roughness, 8, samples)
			if err != nil {
				t.Fatalf("roughness %f samples %d: %v", roughness, samples, err)
			}
			for face := 0; face < 6; face++ {
				for _, v := range out.FaceData(ibl.CubemapFace(face)) {
					if math32.IsNaN(v) || math32.IsInf(v, 0) || v < 0 {
						t.Fatalf("roughness %f samples %d face %d: bad texel value %f",
							roughness, samples, face, v)
					}
				}
			}
		}
	}
}

func TestPrefilterConstantPreserved(t *testing.T) {
	base := constantCubemap(t, 16, 0.25, 0.5, 0.75)
	chain, err := ibl.BuildMipChain(base)
	if err != nil {
		t.Fatal(err)
	}

	out, err := ibl.PrefilterRoughness(chain, 0.5, 0, 256)
	if err != nil {
		t.Fatal(err)
	}
	for face := 0; face < 6; face++ {
		for y := 0; y < out.Dim; y++ {
			for x := 0; x < out.Dim; x++ {
				r, g, b := out.At(face, x, y)
				if math32.Abs(r-0.25) > 0.01 || math32.Abs(g-0.5) > 0.01 || math32.Abs(b-0.75) > 0.01 {
					t.Fatalf("face %d texel (%d,%d): (%f,%f,%f) should stay constant", face, x, y, r, g, b)
				}
			}
		}
	}
}

func TestPrefilterSizeOverride(t *testing.T) {
	base := gradientCubemap(t, 16)
	chain, err := ibl.BuildMipChain(base)
	if err != nil {
		t.Fatal(err)
	}
	out, err := ibl.PrefilterRoughness(chain, 0.3, 8, 64)
	if err != nil {
		t.Fatal(err)
	}
	if out.Dim != 8 {
		t.Errorf("output size %d, want 8", out.Dim)
	}
}

func TestPrefilterRejectsBadParameters(t *testing.T) {
	base := gradientCubemap(t, 8)
	chain, err := ibl.BuildMipChain(base)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ibl.PrefilterRoughness(chain, -0.1, 0, 0); !errors.Is(err, ibl.ErrInvalidParameter) {
		t.Errorf("roughness -0.1 should be rejected, got %v", err)
	}
	if _, err := ibl.PrefilterRoughness(chain, 1.5, 0, 0); !errors.Is(err, ibl.ErrInvalidParameter) {
		t.Errorf("roughness 1.5 should be rejected, got %v", err)
	}
	if _, err := ibl.PrefilterRoughness(chain, 0.5, 24, 0); !errors.Is(err, ibl.ErrInvalidParameter) {
		t.Errorf("non-power-of-two size should be rejected, got %v", err)
	}
	if _, err := ibl.PrefilterRoughness(nil, 0.5, 0, 0); !errors.Is(err, ibl.ErrInvalidParameter) {
		t.Errorf("empty chain should be rejected, got %v", err)
	}
}

func TestImportanceSampleGGXHemisphere(t *testing.T) {
	seq := ibl.GenerateHammersleySequence(256)
	for _, a := range []float32{0.1, 0.5, 1} {
		for _, s := range seq {
			x, y, z := ibl.ImportanceSampleGGX(s[0], s[1], a)
			if z < 0 {
				t.Fatalf("alpha %f: sample (%f,%f,%f) below the hemisphere", a, x, y, z)
			}
			l := x*x + y*y + z*z
			if math32.Abs(l-1) > 1e-4 {
				t.Fatalf("alpha %f: sample length² %f, want 1", a, l)
			}
		}
	}
}

func TestHammersleySequenceRange(t *testing.T) {
	seq := ibl.GenerateHammersleySequence(128)
	if len(seq) != 128 {
		t.Fatalf("got %d samples, want 128", len(seq))
	}
	for i, s := range seq {
		if s[0] < 0 || s[0] >= 1 || s[1] < 0 || s[1] >= 1 {
			t.Errorf("sample %d out of [0,1): %v", i, s)
		}
	}
}
