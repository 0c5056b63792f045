package ibl

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Face layout and axis conventions follow the OpenGL cubemap:
// https://www.khronos.org/opengl/wiki_opengl/images/CubeMapAxes.png

// resolveFace maps a direction to the face it pierces and the [0,1]
// face-local uv of the intersection.
// Based on: https://www.gamedev.net/forums/topic/687535-implementing-a-cube-map-lookup-function/5337472/
func resolveFace(rx, ry, rz float32) (face int, u, v float32) {
	ax := math32.Abs(rx)
	ay := math32.Abs(ry)
	az := math32.Abs(rz)

	// this normalizes the uvs
	var uvfac float32

	if ax >= ay && ax >= az {
		if rx >= 0 {
			face = int(CubemapPositiveX)
			u = -rz
		} else {
			face = int(CubemapNegativeX)
			u = rz
		}
		uvfac = 0.5 / ax
		v = -ry
	} else if ay >= ax && ay >= az {
		if ry >= 0 {
			face = int(CubemapPositiveY)
			v = rz
		} else {
			face = int(CubemapNegativeY)
			v = -rz
		}
		uvfac = 0.5 / ay
		u = rx
	} else {
		if rz >= 0 {
			face = int(CubemapPositiveZ)
			u = rx
		} else {
			face = int(CubemapNegativeZ)
			u = -rx
		}
		uvfac = 0.5 / az
		v = -ry
	}

	u = u*uvfac + 0.5
	v = v*uvfac + 0.5

	return
}

// faceCoordsToDirection is the inverse of resolveFace for face-plane
// coordinates s,t in [-1,1]. The result is not normalized.
func faceCoordsToDirection(face int, s, t float32) (x, y, z float32) {
	switch CubemapFace(face) {
	case CubemapPositiveX:
		return 1, -t, -s
	case CubemapNegativeX:
		return -1, -t, s
	case CubemapPositiveY:
		return s, 1, t
	case CubemapNegativeY:
		return s, -1, -t
	case CubemapPositiveZ:
		return s, -t, 1
	default:
		return -s, -t, -1
	}
}

// texelDirection returns the unnormalized direction through the center of
// texel (x, y) on a face with edge length dim. Out-of-range coordinates
// are valid and address gutter texels past the face edge.
func texelDirection(face, x, y, dim int) (float32, float32, float32) {
	// (2x+1)/dim - 1 is the face-plane coordinate of the texel center
	s := (2.0*float32(x)+1.0)/float32(dim) - 1.0
	t := (2.0*float32(y)+1.0)/float32(dim) - 1.0
	return faceCoordsToDirection(face, s, t)
}

// FaceDirection returns the unit direction through the center of texel
// (x, y) on the given face of a cubemap with edge length dim.
func FaceDirection(face CubemapFace, x, y, dim int) mgl32.Vec3 {
	dx, dy, dz := texelDirection(int(face), x, y, dim)
	return mgl32.Vec3{dx, dy, dz}.Normalize()
}

func areaElement(s, t float32) float32 {
	return math32.Atan2(s*t, math32.Sqrt(s*s+t*t+1))
}

// TexelSolidAngle returns the solid angle subtended by texel (x, y) of a
// face with edge length dim. Texels near face corners subtend less than
// texels at the face center; the six faces together sum to 4*pi.
func TexelSolidAngle(x, y, dim int) float32 {
	s0 := 2.0*float32(x)/float32(dim) - 1.0
	t0 := 2.0*float32(y)/float32(dim) - 1.0
	s1 := 2.0*float32(x+1)/float32(dim) - 1.0
	t1 := 2.0*float32(y+1)/float32(dim) - 1.0
	return areaElement(s0, t0) - areaElement(s0, t1) - areaElement(s1, t0) + areaElement(s1, t1)
}

func normalize(x, y, z float32) (float32, float32, float32) {
	len := math32.Sqrt(x*x + y*y + z*z)
	return x / len, y / len, z / len
}

func cross(ax, ay, az, bx, by, bz float32) (float32, float32, float32) {
	x := ay*bz - az*by
	y := az*bx - ax*bz
	z := ax*by - ay*bx
	return x, y, z
}

func dot(ax, ay, az, bx, by, bz float32) float32 {
	return ax*bx + ay*by + az*bz
}

func transform(vx, vy, vz, xx, xy, xz, yx, yy, yz, zx, zy, zz float32) (float32, float32, float32) {
	x := (vx * xx) + (vy * yx) + (vz * zx)
	y := (vx * xy) + (vy * yy) + (vz * zy)
	z := (vx * xz) + (vy * yz) + (vz * zz)
	return x, y, z
}
