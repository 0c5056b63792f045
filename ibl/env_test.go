package ibl_test

import (
	"bytes"
	"testing"

	"envgen/ibl"

	"github.com/chewxy/math32"
)

func encodeDecodeChain(t *testing.T, chain []*ibl.Cubemap, opts ...ibl.EncodeOption) []*ibl.Cubemap {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := ibl.EncodeEnv(buf, chain, opts...); err != nil {
		t.Fatal(err)
	}
	out, err := ibl.DecodeEnv(buf)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func assertChainClose(t *testing.T, want, got []*ibl.Cubemap) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("decoded %d levels, want %d", len(got), len(want))
	}
	for lvl := range want {
		if got[lvl].Dim != want[lvl].Dim {
			t.Fatalf("level %d size %d, want %d", lvl, got[lvl].Dim, want[lvl].Dim)
		}
		for face := 0; face < 6; face++ {
			a := want[lvl].FaceData(ibl.CubemapFace(face))
			b := got[lvl].FaceData(ibl.CubemapFace(face))
			for i := 0; i < len(a); i += 3 {
				// shared exponent quantization, tolerance scales with
				// the largest component of the texel
				max := math32.Max(a[i], math32.Max(a[i+1], a[i+2]))
				tol := math32.Max(max/128, 1e-4)
				for c := 0; c < 3; c++ {
					if math32.Abs(a[i+c]-b[i+c]) > tol {
						t.Fatalf("level %d face %d index %d: %f != %f (tol %f)",
							lvl, face, i+c, b[i+c], a[i+c], tol)
					}
				}
			}
		}
	}
}

func TestEnvRoundTrip(t *testing.T) {
	base := gradientCubemap(t, 16)
	chain, err := ibl.BuildMipChain(base)
	if err != nil {
		t.Fatal(err)
	}

	assertChainClose(t, chain, encodeDecodeChain(t, chain))
}

func TestEnvRoundTripCompressed(t *testing.T) {
	base := gradientCubemap(t, 16)
	chain, err := ibl.BuildMipChain(base)
	if err != nil {
		t.Fatal(err)
	}

	for _, level := range []int{0, 1, 9} {
		assertChainClose(t, chain, encodeDecodeChain(t, chain, ibl.OptCompress(level)))
	}
}

func TestEnvRoundTripSingleLevel(t *testing.T) {
	cm := gradientCubemap(t, 8)
	assertChainClose(t, []*ibl.Cubemap{cm}, encodeDecodeChain(t, []*ibl.Cubemap{cm}))
}

func TestEncodeEnvRejectsBadChain(t *testing.T) {
	a := gradientCubemap(t, 16)
	b := gradientCubemap(t, 16)

	buf := &bytes.Buffer{}
	if err := ibl.EncodeEnv(buf, nil); err == nil {
		t.Error("empty level list should be rejected")
	}
	if err := ibl.EncodeEnv(buf, []*ibl.Cubemap{a, b}); err == nil {
		t.Error("levels that do not halve should be rejected")
	}
}

func TestDecodeEnvRejectsCorruptHeader(t *testing.T) {
	cm := gradientCubemap(t, 8)
	buf := &bytes.Buffer{}
	if err := ibl.EncodeEnv(buf, []*ibl.Cubemap{cm}); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()
	raw[0] ^= 0xff

	if _, err := ibl.DecodeEnv(bytes.NewReader(raw)); err == nil {
		t.Error("corrupt magic number should be rejected")
	}
}

func TestDecodeEnvRejectsTruncated(t *testing.T) {
	cm := gradientCubemap(t, 8)
	buf := &bytes.Buffer{}
	if err := ibl.EncodeEnv(buf, []*ibl.Cubemap{cm}); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()

	if _, err := ibl.DecodeEnv(bytes.NewReader(raw[:len(raw)-16])); err == nil {
		t.Error("truncated payload should be rejected")
	}
}

func TestExtractFaces(t *testing.T) {
	cm := gradientCubemap(t, 8)
	faces := ibl.ExtractFaces(cm)
	for face := 0; face < 6; face++ {
		img := faces[face]
		if img.Width != 8 || img.Height != 8 || img.Channels != 3 {
			t.Fatalf("face %d image is %dx%dx%d", face, img.Width, img.Height, img.Channels)
		}
		want := cm.FaceData(ibl.CubemapFace(face))
		for i, v := range img.Pix {
			if v != want[i] {
				t.Fatalf("face %d index %d: %f != %f", face, i, v, want[i])
			}
		}
	}
}

func TestFaceName(t *testing.T) {
	names := []string{"px", "nx", "py", "ny", "pz", "nz"}
	for face, want := range names {
		if got := ibl.FaceName(ibl.CubemapFace(face)); got != want {
			t.Errorf("face %d name %q, want %q", face, got, want)
		}
	}
}
