package libio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/chewxy/math32"
	"github.com/pierrec/lz4/v4"
)

func EncodeFloatImage(w io.Writer, img *FloatImage, compression FloatImageCompression) (err error) {
	var bw *BinaryWriter
	var ok bool

	if bw, ok = w.(*BinaryWriter); !ok {
		bw = &BinaryWriter{
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

	header := FloatImageHeader{
		Check:       MagicNumberF32,
		Version:     F32Version1_001_000,
		Width:       uint32(img.Width),
		Height:      uint32(img.Height),
		Channels:    uint8(img.Channels),
		Compression: compression,
	}

	if !bw.WriteRef(header) {
		return fmt.Errorf("could not write f32 header: %w", bw.Err)
	}

	switch compression {
	case FloatImageCompressionNone:
		if !bw.WriteRef(img.Pix) {
			return fmt.Errorf("could not write f32 pixels: %w", bw.Err)
		}
	case FloatImageCompressionFixedPoint16Lz4:
		var data []byte
		data, err = compressFixedPoint16(img.Channels, img.Count(), img.Pix)
		if err != nil {
			return fmt.Errorf("could not compress f32 pixels: %w", err)
		}
		buf := bytes.NewBuffer(nil)
		lzw := lz4.NewWriter(buf)
		lzw.Apply(lz4.CompressionLevelOption(lz4.Fast))
		if _, err = lzw.Write(data); err != nil {
			return fmt.Errorf("could not compress f32 pixels: %w", err)
		}
		if err = lzw.Close(); err != nil {
			return fmt.Errorf("could not compress f32 pixels: %w", err)
		}
		if !bw.WriteBytes(buf.Bytes()) {
			return fmt.Errorf("could not write f32 encoded pixels: %w", bw.Err)
		}
	default:
		return fmt.Errorf("f32 compression id %d unsupported", compression)
	}

	return nil
}

func compressFixedPoint16(channels int, count int, pix []float32) ([]byte, error) {
	rangeBytes := 4 * 2 * channels
	dataBytes := count * channels * 2
	buf := bytes.NewBuffer(make([]byte, 0, rangeBytes+dataBytes))
	bw := &BinaryWriter{Order: binary.LittleEndian, Dst: buf}
	for ch := 0; ch < channels; ch++ {
		compressChannelFixedPoint16(channels, count, pix, bw, ch)
		if bw.Err != nil {
			return nil, bw.Err
		}
	}
	return buf.Bytes(), nil
}

func compressChannelFixedPoint16(channels, count int, pix []float32, bw *BinaryWriter, ch int) {
	var min, max float32 = math32.Inf(1), math32.Inf(-1)

	for i := 0; i < count; i++ {
		v := pix[i*channels+ch]
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	bw.WriteUInt32(math32.Float32bits(min))
	bw.WriteUInt32(math32.Float32bits(max))

	r := max - min
	if r == 0 {
		// constant channel, avoid 0/0
		r = 1
	}
	for i := 0; i < count; i++ {
		flt := pix[i*channels+ch]
		fix := uint16(((flt - min) / r) * 0xffff)
		bw.WriteUInt16(fix)
	}
}
