package ibl

import (
	"encoding/binary"
	"fmt"
	"io"

	"envgen/libio"

	"github.com/pierrec/lz4/v4"
)

// DecodeEnv reads a cubemap level sequence from the container format.
// Every level is rebuilt as a seamless cubemap.
func DecodeEnv(r io.Reader) (levels []*Cubemap, err error) {
	var br *libio.BinaryReader
	var ok bool

	if br, ok = r.(*libio.BinaryReader); !ok {
		br = &libio.BinaryReader{
			Src:   r,
			Order: binary.LittleEndian,
		}

		defer func() {
			if br.Err != nil {
				if err == nil {
					err = br.Err
				} else {
					err = fmt.Errorf("%v: %w", err, br.Err)
				}
			}
		}()
	}

	header := EnvHeader{}
	if !br.ReadRef(&header) {
		return nil, fmt.Errorf("expected env header; byte 0x%08x", br.LastIndex)
	}

	if header.Check != MagicNumberIBLENV {
		return nil, fmt.Errorf("env header is corrupt; byte 0x%08x", br.LastIndex)
	}

	if header.Version != EnvVersion1_002_000 {
		return nil, fmt.Errorf("env version %d unsupported; byte 0x%08x", header.Version, br.LastIndex)
	}

	if !isPow2(int(header.Size)) || header.Levels == 0 {
		return nil, fmt.Errorf("env header invalid, size %d levels %d; byte 0x%08x",
			header.Size, header.Levels, br.LastIndex)
	}

	pixr := br.Src
	if header.Compression == EnvCompressionLZ4 || header.Compression == EnvCompressionLZ4Fast {
		pixr = lz4.NewReader(br.Src)
	} else if header.Compression != EnvCompressionNone {
		return nil, fmt.Errorf("env compression id %d unsupported; byte 0x%08x", header.Compression, br.LastIndex)
	}

	size := int(header.Size)
	levels = make([]*Cubemap, 0, header.Levels)
	for lvl := 0; lvl < int(header.Levels); lvl++ {
		if size < 1 {
			return nil, fmt.Errorf("env level %d would have zero size", lvl)
		}
		cm, err := NewCubemap(size)
		if err != nil {
			return nil, err
		}

		buf := make([]byte, size*size*4)
		data := make([]float32, size*size*3)
		for face := 0; face < 6; face++ {
			if _, err := io.ReadFull(pixr, buf); err != nil {
				return nil, fmt.Errorf("expected %d encoded pixels for level %d face %d: %w",
					size*size, lvl, face, err)
			}
			libio.DecodeRgbeChunk(3, buf, data)
			cm.SetFaceData(CubemapFace(face), data)
		}
		cm.MakeSeamless()

		levels = append(levels, cm)
		size /= 2
	}

	return levels, nil
}
