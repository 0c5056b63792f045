package ibl_test

import (
	"testing"

	"envgen/ibl"

	"github.com/chewxy/math32"
)

func constantCubemap(t *testing.T, dim int, r, g, b float32) *ibl.Cubemap {
	t.Helper()
	cm, err := ibl.NewCubemap(dim)
	if err != nil {
		t.Fatal(err)
	}
	for face := 0; face < 6; face++ {
		for y := 0; y < dim; y++ {
			for x := 0; x < dim; x++ {
				cm.Set(face, x, y, r, g, b)
			}
		}
	}
	cm.MakeSeamless()
	return cm
}

func TestMipChainLevelCount(t *testing.T) {
	for _, dim := range []int{1, 2, 32, 128} {
		base := constantCubemap(t, dim, 1, 1, 1)
		chain, err := ibl.BuildMipChain(base)
		if err != nil {
			t.Fatal(err)
		}
		want := ibl.NumMipLevels(dim)
		if len(chain) != want {
			t.Fatalf("base %d: %d levels, want %d", dim, len(chain), want)
		}
		size := dim
		for k, cm := range chain {
			if cm.Dim != size {
				t.Errorf("base %d level %d: size %d, want %d", dim, k, cm.Dim, size)
			}
			size /= 2
		}
		if chain[len(chain)-1].Dim != 1 {
			t.Errorf("base %d: chain should terminate at size 1", dim)
		}
	}
}

func TestMipChainConstant(t *testing.T) {
	base := constantCubemap(t, 16, 0.25, 0.5, 0.75)
	chain, err := ibl.BuildMipChain(base)
	if err != nil {
		t.Fatal(err)
	}
	for k, cm := range chain {
		for face := 0; face < 6; face++ {
			for y := 0; y < cm.Dim; y++ {
				for x := 0; x < cm.Dim; x++ {
					r, g, b := cm.At(face, x, y)
					if r != 0.25 || g != 0.5 || b != 0.75 {
						t.Fatalf("level %d face %d texel (%d,%d): (%f,%f,%f)", k, face, x, y, r, g, b)
					}
				}
			}
		}
	}
}

func TestMipChainDeterministic(t *testing.T) {
	base := gradientCubemap(t, 32)
	chain1, err := ibl.BuildMipChain(base)
	if err != nil {
		t.Fatal(err)
	}
	chain2, err := ibl.BuildMipChain(base)
	if err != nil {
		t.Fatal(err)
	}
	for k := range chain1 {
		for face := 0; face < 6; face++ {
			a := chain1[k].FaceData(ibl.CubemapFace(face))
			b := chain2[k].FaceData(ibl.CubemapFace(face))
			for i := range a {
				if a[i] != b[i] {
					t.Fatalf("level %d face %d index %d: %f != %f", k, face, i, a[i], b[i])
				}
			}
		}
	}
}

func TestMipChainPreservesMean(t *testing.T) {
	base := gradientCubemap(t, 16)
	chain, err := ibl.BuildMipChain(base)
	if err != nil {
		t.Fatal(err)
	}

	mean := func(cm *ibl.Cubemap) float32 {
		var sum float64
		for face := 0; face < 6; face++ {
			for _, v := range cm.FaceData(ibl.CubemapFace(face)) {
				sum += float64(v)
			}
		}
		return float32(sum / float64(6*cm.Dim*cm.Dim*3))
	}

	m0 := mean(chain[0])
	for k, cm := range chain {
		if diff := math32.Abs(mean(cm) - m0); diff > 1e-4 {
			t.Errorf("level %d: mean drifted by %f", k, diff)
		}
	}
}
