package ibl

import "errors"

const MagicNumberIBLENV = 0x78b85411

type CubemapFace int

const (
	CubemapPositiveX = CubemapFace(iota)
	CubemapNegativeX
	CubemapPositiveY
	CubemapNegativeY
	CubemapPositiveZ
	CubemapNegativeZ
)

var faceNames = [6]string{"px", "nx", "py", "ny", "pz", "nz"}

func (f CubemapFace) String() string {
	if f < 0 || f > 5 {
		return "??"
	}
	return faceNames[f]
}

type EnvVersion uint32

const (
	EnvVersion1_002_000 = EnvVersion(1_002_000)
)

type EnvCompression uint32

const (
	EnvCompressionNone = EnvCompression(iota)
	EnvCompressionLZ4Fast
	EnvCompressionLZ4
)

type EnvHeader struct {
	Check       uint32
	Version     EnvVersion
	Compression EnvCompression
	Size        uint32
	Levels      uint32
}

// Boundary errors. Stages past the boundary assume validated input.
var (
	// ErrUnsupportedFormat reports an input image the converter cannot
	// interpret, wrong channel count or unrecognized aspect ratio.
	ErrUnsupportedFormat = errors.New("unsupported input format")
	// ErrInvalidParameter reports an out-of-range configuration value,
	// such as a non-power-of-two size or a roughness outside [0,1].
	ErrInvalidParameter = errors.New("invalid parameter")
)

func isPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}
