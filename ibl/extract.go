package ibl

import "envgen/libio"

// FaceName returns the fixed file naming of a face: px, nx, py, ny, pz, nz.
func FaceName(face CubemapFace) string {
	return face.String()
}

// ExtractFaces copies the six faces of a cubemap into independent
// images in the fixed +X, -X, +Y, -Y, +Z, -Z order. Pure data layout;
// no filtering.
func ExtractFaces(cm *Cubemap) [6]*libio.FloatImage {
	var out [6]*libio.FloatImage
	for face := 0; face < 6; face++ {
		out[face] = libio.NewFloatImage(cm.FaceData(CubemapFace(face)), 3, cm.Dim, cm.Dim)
	}
	return out
}
