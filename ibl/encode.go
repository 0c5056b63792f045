package ibl

import (
	"encoding/binary"
	"fmt"
	"io"

	"envgen/libio"

	"github.com/pierrec/lz4/v4"
)

type EncodeContext struct {
	Compression EnvCompression
	Writer      io.Writer
}

type EncodeOption func(ctx *EncodeContext) error

// OptCompress enables lz4 payload compression, level 0 fast up to 9.
// Negative levels leave the payload uncompressed.
func OptCompress(level int) EncodeOption {
	levels := []lz4.CompressionLevel{lz4.Fast, lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4, lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9}
	if level < 0 {
		return nil
	}

	if level >= len(levels) {
		level = len(levels) - 1
	}

	return func(ctx *EncodeContext) error {
		if ctx.Compression != EnvCompressionNone {
			return fmt.Errorf("compression already configured")
		}
		lzw := lz4.NewWriter(ctx.Writer)
		lzw.Apply(lz4.CompressionLevelOption(levels[level]))
		if level == 0 {
			ctx.Compression = EnvCompressionLZ4Fast
		} else {
			ctx.Compression = EnvCompressionLZ4
		}
		ctx.Writer = lzw
		return nil
	}
}

// EncodeEnv writes a cubemap level sequence to the container format.
// Level k must have half the edge length of level k-1; the payload is
// the RGBE-encoded interior of every face, levels in order, faces in
// +X to -Z order.
func EncodeEnv(w io.Writer, levels []*Cubemap, options ...EncodeOption) (err error) {
	if len(levels) == 0 {
		return fmt.Errorf("%w: no levels to encode", ErrInvalidParameter)
	}
	size := levels[0].Dim
	for i, cm := range levels[1:] {
		if cm.Dim*2 != levels[i].Dim {
			return fmt.Errorf("%w: level %d size %d does not halve level %d size %d",
				ErrInvalidParameter, i+1, cm.Dim, i, levels[i].Dim)
		}
	}

	var bw *libio.BinaryWriter
	var ok bool

	if bw, ok = w.(*libio.BinaryWriter); !ok {
		bw = &libio.BinaryWriter{
			Dst:   w,
			Order: binary.LittleEndian,
		}

		defer func() {
			if bw.Err != nil {
				if err == nil {
					err = bw.Err
				} else {
					err = fmt.Errorf("%v: %w", err, bw.Err)
				}
			}
		}()
	}

	ctx := EncodeContext{
		Writer: bw.Dst,
	}

	for _, opt := range options {
		if opt != nil {
			err = opt(&ctx)
			if err != nil {
				return err
			}
		}
	}

	header := EnvHeader{
		Check:       MagicNumberIBLENV,
		Version:     EnvVersion1_002_000,
		Compression: ctx.Compression,
		Size:        uint32(size),
		Levels:      uint32(len(levels)),
	}
	if !bw.WriteRef(&header) {
		return fmt.Errorf("could not write env header: %w", bw.Err)
	}

	for _, cm := range levels {
		buf := make([]byte, cm.Dim*cm.Dim*4)
		for face := 0; face < 6; face++ {
			data := cm.FaceData(CubemapFace(face))
			n := libio.EncodeRgbeChunk(3, data, buf)
			if _, err := ctx.Writer.Write(buf[:n]); err != nil {
				return fmt.Errorf("could not write env encoded pixels: %w", err)
			}
		}
	}

	if closer, ok := (ctx.Writer).(io.WriteCloser); ok {
		err = closer.Close()
		if err != nil {
			return err
		}
	}

	return nil
}
