package ibl

import (
	"fmt"

	"envgen/libio"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Cubemap is a non-owning view of six square faces inside one backing
// FloatImage. Each face occupies a (dim+2)x(dim+2) region with a one
// texel gutter ring around the dim x dim interior; the regions are
// stacked vertically. MakeSeamless fills the gutters from the adjacent
// faces so that bilinear taps crossing a face edge read the values a
// continuous spherical parametrization would give.
type Cubemap struct {
	Dim     int
	backing *libio.FloatImage
	faces   [6]faceOrigin
}

type faceOrigin struct {
	x0, y0 int
}

// NewCubemap allocates backing storage for a cubemap with the given face
// edge length, which must be a power of two.
func NewCubemap(dim int) (*Cubemap, error) {
	if !isPow2(dim) {
		return nil, fmt.Errorf("%w: size %d is not a power of two", ErrInvalidParameter, dim)
	}
	pad := dim + 2
	img := libio.NewFloatImage(make([]float32, pad*pad*6*3), 3, pad, pad*6)
	return WrapCubemap(img, dim)
}

// WrapCubemap builds a view over an existing backing image laid out as
// six vertically stacked gutter-padded face regions. The view borrows
// the image; it never frees or reallocates it.
func WrapCubemap(img *libio.FloatImage, dim int) (*Cubemap, error) {
	if !isPow2(dim) {
		return nil, fmt.Errorf("%w: size %d is not a power of two", ErrInvalidParameter, dim)
	}
	pad := dim + 2
	if img.Channels != 3 || img.Width != pad || img.Height != pad*6 {
		return nil, fmt.Errorf("%w: backing image %dx%dx%d does not fit a padded cubemap of size %d",
			ErrInvalidParameter, img.Width, img.Height, img.Channels, dim)
	}
	cm := &Cubemap{Dim: dim, backing: img}
	for f := 0; f < 6; f++ {
		cm.faces[f] = faceOrigin{x0: 1, y0: f*pad + 1}
	}
	return cm, nil
}

// Backing returns the borrowed backing image.
func (cm *Cubemap) Backing() *libio.FloatImage {
	return cm.backing
}

// index addresses texel (x, y) of a face; x and y may be -1 or Dim to
// address the gutter ring.
func (cm *Cubemap) index(face, x, y int) int {
	o := cm.faces[face]
	return cm.backing.Index(o.x0+x, o.y0+y)
}

func (cm *Cubemap) At(face, x, y int) (r, g, b float32) {
	i := cm.index(face, x, y)
	pix := cm.backing.Pix
	return pix[i], pix[i+1], pix[i+2]
}

func (cm *Cubemap) Set(face, x, y int, r, g, b float32) {
	i := cm.index(face, x, y)
	pix := cm.backing.Pix
	pix[i] = r
	pix[i+1] = g
	pix[i+2] = b
}

// FaceData copies the interior of one face into a fresh row-major RGB
// slice of Dim*Dim texels.
func (cm *Cubemap) FaceData(face CubemapFace) []float32 {
	d := cm.Dim
	out := make([]float32, d*d*3)
	for y := 0; y < d; y++ {
		i := cm.index(int(face), 0, y)
		copy(out[y*d*3:(y+1)*d*3], cm.backing.Pix[i:i+d*3])
	}
	return out
}

// SetFaceData copies a row-major RGB slice of Dim*Dim texels into the
// interior of one face. The gutters stay untouched; run MakeSeamless
// after the last face write.
func (cm *Cubemap) SetFaceData(face CubemapFace, data []float32) {
	d := cm.Dim
	for y := 0; y < d; y++ {
		i := cm.index(int(face), 0, y)
		copy(cm.backing.Pix[i:i+d*3], data[y*d*3:(y+1)*d*3])
	}
}

// nearestTexel resolves a direction to the face and texel it pierces.
func (cm *Cubemap) nearestTexel(rx, ry, rz float32) (face, x, y int) {
	face, u, v := resolveFace(rx, ry, rz)
	d := cm.Dim
	x = int(u * float32(d))
	y = int(v * float32(d))
	if x < 0 {
		x = 0
	} else if x >= d {
		x = d - 1
	}
	if y < 0 {
		y = 0
	} else if y >= d {
		y = d - 1
	}
	return face, x, y
}

// Sample returns the bilinearly filtered radiance in the given direction.
// Taps that step past a face edge land in the gutter ring, so sampling
// is continuous across faces once MakeSeamless has run.
func (cm *Cubemap) Sample(rx, ry, rz float32) (r, g, b float32) {
	face, u, v := resolveFace(rx, ry, rz)
	return cm.sampleFaceBilinear(face, u, v)
}

// SampleVec is Sample for a vector direction.
func (cm *Cubemap) SampleVec(dir mgl32.Vec3) (r, g, b float32) {
	return cm.Sample(dir[0], dir[1], dir[2])
}

func (cm *Cubemap) sampleFaceBilinear(face int, u, v float32) (r, g, b float32) {
	d := float32(cm.Dim)
	// -0.5 to adjust for the pixel center offset
	pu := u*d - 0.5
	pv := v*d - 0.5
	ufloor, ufrac := math32.Modf(pu)
	vfloor, vfrac := math32.Modf(pv)
	x0, y0 := int(ufloor), int(vfloor)
	if pu < 0 {
		x0, ufrac = x0-1, ufrac+1
	}
	if pv < 0 {
		y0, vfrac = y0-1, vfrac+1
	}
	// the gutter ring keeps x0..x0+1 in bounds for u,v in [0,1]
	if x0 < -1 {
		x0, ufrac = -1, 0
	} else if x0 > cm.Dim-1 {
		x0, ufrac = cm.Dim-1, 1
	}
	if y0 < -1 {
		y0, vfrac = -1, 0
	} else if y0 > cm.Dim-1 {
		y0, vfrac = cm.Dim-1, 1
	}

	r00, g00, b00 := cm.At(face, x0, y0)
	r10, g10, b10 := cm.At(face, x0+1, y0)
	r01, g01, b01 := cm.At(face, x0, y0+1)
	r11, g11, b11 := cm.At(face, x0+1, y0+1)

	rh0 := r00*(1.0-ufrac) + r10*ufrac
	gh0 := g00*(1.0-ufrac) + g10*ufrac
	bh0 := b00*(1.0-ufrac) + b10*ufrac

	rh1 := r01*(1.0-ufrac) + r11*ufrac
	gh1 := g01*(1.0-ufrac) + g11*ufrac
	bh1 := b01*(1.0-ufrac) + b11*ufrac

	r = rh0*(1.0-vfrac) + rh1*vfrac
	g = gh0*(1.0-vfrac) + gh1*vfrac
	b = bh0*(1.0-vfrac) + bh1*vfrac
	return
}

// MakeSeamless fills each face's gutter ring from the adjacent faces.
// Edge gutters copy the neighbor texel the gutter direction pierces;
// the three texels meeting at a cube corner are averaged.
func (cm *Cubemap) MakeSeamless() {
	d := cm.Dim
	for face := 0; face < 6; face++ {
		for x := 0; x < d; x++ {
			cm.fixBorderTexel(face, x, -1)
			cm.fixBorderTexel(face, x, d)
		}
		for y := 0; y < d; y++ {
			cm.fixBorderTexel(face, -1, y)
			cm.fixBorderTexel(face, d, y)
		}
	}
	for face := 0; face < 6; face++ {
		cm.fixCornerTexel(face, -1, -1, 0, 0)
		cm.fixCornerTexel(face, d, -1, d-1, 0)
		cm.fixCornerTexel(face, -1, d, 0, d-1)
		cm.fixCornerTexel(face, d, d, d-1, d-1)
	}
}

func (cm *Cubemap) fixBorderTexel(face, x, y int) {
	dx, dy, dz := texelDirection(face, x, y, cm.Dim)
	nf, nx, ny := cm.nearestTexel(dx, dy, dz)
	r, g, b := cm.At(nf, nx, ny)
	cm.Set(face, x, y, r, g, b)
}

func (cm *Cubemap) fixCornerTexel(face, gx, gy, ix, iy int) {
	r0, g0, b0 := cm.At(face, ix, gy)
	r1, g1, b1 := cm.At(face, gx, iy)
	r2, g2, b2 := cm.At(face, ix, iy)
	cm.Set(face, gx, gy, (r0+r1+r2)/3, (g0+g1+g2)/3, (b0+b1+b2)/3)
}
