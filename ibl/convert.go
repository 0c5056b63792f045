package ibl

import (
	"fmt"

	"envgen/libio"

	"github.com/chewxy/math32"
)

// DefaultEquirectSize is the face edge length used when converting an
// equirectangular image without an explicit size override.
const DefaultEquirectSize = 256

// maxTexelValue is the sanitization bound applied before conversion,
// the largest finite half float.
const maxTexelValue = 65504.0

type Layout int

const (
	LayoutEquirect = Layout(iota)
	LayoutCrossHorizontal
	LayoutCrossVertical
)

// DetectLayout determines the projection of an input image from its
// dimensions. Crosses need a power-of-two long edge and a 4:3 or 3:4
// aspect; equirectangular needs 2:1.
func DetectLayout(width, height int) (Layout, error) {
	switch {
	case isPow2(width) && width*3 == height*4:
		return LayoutCrossHorizontal, nil
	case isPow2(height) && height*3 == width*4:
		return LayoutCrossVertical, nil
	case width == 2*height:
		return LayoutEquirect, nil
	}
	return 0, fmt.Errorf("%w: aspect ratio %dx%d not supported (want 2:1 equirectangular, 4:3 or 3:4 cross)",
		ErrUnsupportedFormat, width, height)
}

// Convert sanitizes an input image, detects its projection and builds a
// seamless cubemap from it. size only applies to equirectangular input
// and defaults to DefaultEquirectSize; cross input dictates its own face
// size. The image must have exactly 3 channels.
func Convert(img *libio.FloatImage, size int) (*Cubemap, error) {
	if img.Channels != 3 {
		return nil, fmt.Errorf("%w: input must be RGB (3 channels), image has %d",
			ErrUnsupportedFormat, img.Channels)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return nil, fmt.Errorf("%w: image has zero size %dx%d",
			ErrUnsupportedFormat, img.Width, img.Height)
	}

	layout, err := DetectLayout(img.Width, img.Height)
	if err != nil {
		return nil, err
	}

	img.Sanitize(0, maxTexelValue)

	switch layout {
	case LayoutCrossHorizontal, LayoutCrossVertical:
		return FromCross(img)
	default:
		return FromEquirect(img, size)
	}
}

// FromEquirect resamples a 2:1 longitude/latitude image into a cubemap
// of the given face edge length (default DefaultEquirectSize).
func FromEquirect(img *libio.FloatImage, size int) (*Cubemap, error) {
	if size == 0 {
		size = DefaultEquirectSize
	}
	cm, err := NewCubemap(size)
	if err != nil {
		return nil, err
	}

	parallelFor(6*size, func(job int) {
		face, y := job/size, job%size
		for x := 0; x < size; x++ {
			rx, ry, rz := normalize(texelDirection(face, x, y, size))
			u, v := sphericalUV(rx, ry, rz)
			r, g, b := sampleEquirectBilinear(img, u, v)
			cm.Set(face, x, y, r, g, b)
		}
	})

	cm.MakeSeamless()
	return cm, nil
}

// 1/(2pi), 1/pi
var invAtan = [2]float32{0.15915494309, 0.31830988618}

func sphericalUV(rx, ry, rz float32) (u, v float32) {
	u = math32.Atan2(rz, rx)*invAtan[0] + 0.5
	v = 0.5 - math32.Asin(ry)*invAtan[1]
	return u, v
}

// sampleEquirectBilinear filters the lat/long image with horizontal
// wrap-around so the longitude seam stays continuous; latitude clamps
// at the poles.
func sampleEquirectBilinear(img *libio.FloatImage, u, v float32) (r, g, b float32) {
	w, h := img.Width, img.Height
	// -0.5 to adjust for the pixel center offset
	pu := u*float32(w) - 0.5
	pv := v*float32(h) - 0.5

	ufloor, ufrac := math32.Modf(pu)
	vfloor, vfrac := math32.Modf(pv)
	x0, y0 := int(ufloor), int(vfloor)
	if pu < 0 {
		x0, ufrac = x0-1, ufrac+1
	}
	if pv < 0 {
		y0, vfrac = y0-1, vfrac+1
	}

	x1 := x0 + 1
	y1 := y0 + 1
	x0 = ((x0 % w) + w) % w
	x1 = ((x1 % w) + w) % w
	if y0 < 0 {
		y0 = 0
	}
	if y1 > h-1 {
		y1 = h - 1
	}

	pix := img.Pix
	o00 := img.Index(x0, y0)
	o10 := img.Index(x1, y0)
	o01 := img.Index(x0, y1)
	o11 := img.Index(x1, y1)

	rh0 := pix[o00+0]*(1.0-ufrac) + pix[o10+0]*ufrac
	gh0 := pix[o00+1]*(1.0-ufrac) + pix[o10+1]*ufrac
	bh0 := pix[o00+2]*(1.0-ufrac) + pix[o10+2]*ufrac

	rh1 := pix[o01+0]*(1.0-ufrac) + pix[o11+0]*ufrac
	gh1 := pix[o01+1]*(1.0-ufrac) + pix[o11+1]*ufrac
	bh1 := pix[o01+2]*(1.0-ufrac) + pix[o11+2]*ufrac

	r = rh0*(1.0-vfrac) + rh1*vfrac
	g = gh0*(1.0-vfrac) + gh1*vfrac
	b = bh0*(1.0-vfrac) + bh1*vfrac
	return
}

// crossCells holds the cell column/row of each face in a cross image,
// indexed by CubemapFace. The vertical cross shares the layout except
// that -Z moves to cell (1,3), rotated by 180 degrees.
var crossCellsHorizontal = [6][2]int{{2, 1}, {0, 1}, {1, 0}, {1, 2}, {1, 1}, {3, 1}}
var crossCellsVertical = [6][2]int{{2, 1}, {0, 1}, {1, 0}, {1, 2}, {1, 1}, {1, 3}}

// FromCross interprets a 4:3 or 3:4 image as six face cells arranged in
// a cross and copies them into a seamless cubemap with edge length
// max(width, height)/4.
func FromCross(img *libio.FloatImage) (*Cubemap, error) {
	w, h := img.Width, img.Height
	horizontal := w > h
	dim := w
	if h > dim {
		dim = h
	}
	dim /= 4

	cm, err := NewCubemap(dim)
	if err != nil {
		return nil, err
	}

	cells := crossCellsHorizontal
	if !horizontal {
		cells = crossCellsVertical
	}

	for face := 0; face < 6; face++ {
		cx := cells[face][0] * dim
		cy := cells[face][1] * dim
		flip := !horizontal && CubemapFace(face) == CubemapNegativeZ
		for y := 0; y < dim; y++ {
			for x := 0; x < dim; x++ {
				sx, sy := cx+x, cy+y
				if flip {
					sx, sy = cx+dim-1-x, cy+dim-1-y
				}
				i := img.Index(sx, sy)
				cm.Set(face, x, y, img.Pix[i], img.Pix[i+1], img.Pix[i+2])
			}
		}
	}

	cm.MakeSeamless()
	return cm, nil
}

// ToCross writes the six faces of a cubemap back into a cross image of
// the given orientation, the exact inverse of FromCross.
func ToCross(cm *Cubemap, horizontal bool) *libio.FloatImage {
	dim := cm.Dim
	w, h := 4*dim, 3*dim
	cells := crossCellsHorizontal
	if !horizontal {
		w, h = 3*dim, 4*dim
		cells = crossCellsVertical
	}
	img := libio.NewFloatImage(make([]float32, w*h*3), 3, w, h)

	for face := 0; face < 6; face++ {
		cx := cells[face][0] * dim
		cy := cells[face][1] * dim
		flip := !horizontal && CubemapFace(face) == CubemapNegativeZ
		for y := 0; y < dim; y++ {
			for x := 0; x < dim; x++ {
				dx, dy := cx+x, cy+y
				if flip {
					dx, dy = cx+dim-1-x, cy+dim-1-y
				}
				r, g, b := cm.At(face, x, y)
				i := img.Index(dx, dy)
				img.Pix[i], img.Pix[i+1], img.Pix[i+2] = r, g, b
			}
		}
	}
	return img
}

// Mirror builds a new cubemap whose texels are looked up at the
// x-negated direction of the source, the reflection authoring
// convention. Texel centers map onto texel centers, so applying Mirror
// twice reproduces the source exactly.
func Mirror(src *Cubemap) (*Cubemap, error) {
	out, err := NewCubemap(src.Dim)
	if err != nil {
		return nil, err
	}
	dim := src.Dim

	parallelFor(6*dim, func(job int) {
		face, y := job/dim, job%dim
		for x := 0; x < dim; x++ {
			dx, dy, dz := texelDirection(face, x, y, dim)
			sf, sx, sy := src.nearestTexel(-dx, dy, dz)
			r, g, b := src.At(sf, sx, sy)
			out.Set(face, x, y, r, g, b)
		}
	})

	out.MakeSeamless()
	return out, nil
}

// GenerateUVGrid fills a new cubemap with a procedural debug pattern,
// a per-face base color with grid lines every dim/cells texels.
func GenerateUVGrid(dim, cells int) (*Cubemap, error) {
	cm, err := NewCubemap(dim)
	if err != nil {
		return nil, err
	}
	if cells < 1 {
		cells = 1
	}
	step := dim / cells
	if step < 1 {
		step = 1
	}

	faceColors := [6][3]float32{
		{1.0, 0.2, 0.2},
		{0.2, 1.0, 1.0},
		{0.2, 1.0, 0.2},
		{1.0, 0.2, 1.0},
		{0.2, 0.2, 1.0},
		{1.0, 1.0, 0.2},
	}

	for face := 0; face < 6; face++ {
		c := faceColors[face]
		for y := 0; y < dim; y++ {
			for x := 0; x < dim; x++ {
				if x%step == 0 || y%step == 0 || x == dim-1 || y == dim-1 {
					cm.Set(face, x, y, 1, 1, 1)
				} else {
					cm.Set(face, x, y, c[0], c[1], c[2])
				}
			}
		}
	}

	cm.MakeSeamless()
	return cm, nil
}
