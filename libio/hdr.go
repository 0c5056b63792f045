package libio

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Radiance picture format (.hdr), 32-bit_rle_rgbe flavor. Only the
// standard "-Y h +X w" orientation is supported.

func DecodeRadianceHdr(r io.Reader) (*FloatImage, error) {
	br := bufio.NewReader(r)

	magic, err := readHdrLine(br)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(magic, "#?") {
		return nil, fmt.Errorf("not a radiance picture")
	}

	format := ""
	for {
		line, err := readHdrLine(br)
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "FORMAT=") {
			format = strings.TrimPrefix(line, "FORMAT=")
		}
	}
	if format != "32-bit_rle_rgbe" {
		return nil, fmt.Errorf("radiance format %q unsupported", format)
	}

	var w, h int
	res, err := readHdrLine(br)
	if err != nil {
		return nil, err
	}
	if n, err := fmt.Sscanf(res, "-Y %d +X %d", &h, &w); n != 2 || err != nil {
		return nil, fmt.Errorf("radiance resolution %q unsupported", res)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("radiance image has zero size %dx%d", w, h)
	}

	pix := make([]float32, w*h*3)
	scan := make([]byte, w*4)
	for y := 0; y < h; y++ {
		if err := readHdrScanline(br, scan, w); err != nil {
			return nil, fmt.Errorf("scanline %d: %w", y, err)
		}
		DecodeRgbeChunk(3, scan, pix[y*w*3:(y+1)*w*3])
	}

	return NewFloatImage(pix, 3, w, h), nil
}

func readHdrLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func readHdrScanline(br *bufio.Reader, scan []byte, w int) error {
	head := scan[:4]
	if _, err := io.ReadFull(br, head); err != nil {
		return err
	}

	if head[0] == 2 && head[1] == 2 && int(head[2])<<8|int(head[3]) == w && w >= 8 && w < 32768 {
		// adaptive RLE, one run-length stream per component
		for c := 0; c < 4; c++ {
			x := 0
			for x < w {
				n, err := br.ReadByte()
				if err != nil {
					return err
				}
				if n > 128 {
					v, err := br.ReadByte()
					if err != nil {
						return err
					}
					run := int(n) - 128
					if x+run > w {
						return fmt.Errorf("rle run overflows scanline")
					}
					for i := 0; i < run; i++ {
						scan[(x+i)*4+c] = v
					}
					x += run
				} else {
					if x+int(n) > w {
						return fmt.Errorf("rle literal overflows scanline")
					}
					for i := 0; i < int(n); i++ {
						v, err := br.ReadByte()
						if err != nil {
							return err
						}
						scan[(x+i)*4+c] = v
					}
					x += int(n)
				}
			}
		}
		return nil
	}

	// flat scanline, the first texel is already in head
	_, err := io.ReadFull(br, scan[4:])
	return err
}

func EncodeRadianceHdr(w io.Writer, img *FloatImage) error {
	if img.Channels != 3 {
		return fmt.Errorf("radiance output requires 3 channels, image has %d", img.Channels)
	}

	if _, err := fmt.Fprintf(w, "#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y %d +X %d\n", img.Height, img.Width); err != nil {
		return err
	}

	scan := make([]byte, img.Width*4)
	for y := 0; y < img.Height; y++ {
		row := img.Pix[y*img.Width*3 : (y+1)*img.Width*3]
		n := EncodeRgbeChunk(3, row, scan)
		if _, err := w.Write(scan[:n]); err != nil {
			return err
		}
	}
	return nil
}
