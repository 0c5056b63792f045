package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"envgen/ibl"
	"envgen/libio"
)

type extractArgs struct {
	commonArgs
	size    size
	blur    float64
	samples int
}

func createExtractCommand() *command {
	args := extractArgs{
		commonArgs: commonArgs{
			ext: ".hdr",
		},
		size: size{
			unit:    unitPercent,
			percent: 25,
		},
		samples: ibl.DefaultSampleCount,
	}

	flags := flag.NewFlagSet("extract", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)
	registerSizeFlag(flags, &args.size)
	flags.Float64Var(&args.blur, "blur", args.blur, "pre-blur with the given perceptual roughness before extracting")
	flags.IntVar(&args.samples, "samples", args.samples, "number of importance samples per texel for the pre-blur")

	return &command{
		Name: "extract",
		Help: "extract the six cubemap faces into separate images",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 || args.blur < 0 || args.blur > 1 || args.samples < 1 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			runExtract(args, gatherInputFiles(self.Flags.Args()))
		},
		Flags: flags,
	}
}

func runExtract(args extractArgs, inputFiles []string) {
	success := 0
	start := time.Now()
	for i, p := range inputFiles {
		if !cargs.quiet {
			fmt.Printf("Processing file %d/%d %q ...\n", i+1, len(inputFiles), filepath.ToSlash(filepath.Clean(p)))
		}
		err := extractFile(args, p)
		softerr(err)
		if err == nil {
			success++
		}
	}
	if !cargs.quiet {
		took := float32(time.Since(start).Milliseconds()) / 1000
		fmt.Printf("Extracted %d/%d files in %.3f seconds\n", success, len(inputFiles), took)
	}
}

func extractFile(args extractArgs, p string) error {
	levels, err := loadLevels(p, args.size)
	if err != nil {
		return err
	}

	if args.blur > 0 {
		// the blur flag is perceptual roughness, the filter wants linear
		linear := float32(args.blur * args.blur)
		chain, err := ibl.BuildMipChain(levels[0])
		if err != nil {
			return err
		}
		blurred, err := ibl.PrefilterRoughness(chain, linear, 0, args.samples)
		if err != nil {
			return err
		}
		levels = []*ibl.Cubemap{blurred}
	}

	base := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
	for lvl, env := range levels {
		prefix := base + cargs.suffix
		if len(levels) > 1 {
			prefix = fmt.Sprintf("%s_m%d", prefix, lvl)
		}
		for face, img := range ibl.ExtractFaces(env) {
			name := fmt.Sprintf("%s_%s%s", prefix, ibl.FaceName(ibl.CubemapFace(face)), cargs.ext)
			outFilename := filepath.Join(cargs.out, name)
			if !cargs.quiet {
				fmt.Printf("Writing %q ...\n", filepath.ToSlash(filepath.Clean(outFilename)))
			}
			if err := writeFaceImage(outFilename, img); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeFaceImage(outFilename string, img *libio.FloatImage) error {
	outFile, err := os.OpenFile(outFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer close(outFile)

	switch strings.ToLower(filepath.Ext(outFilename)) {
	case ".hdr":
		err = libio.EncodeRadianceHdr(outFile, img)
	case ".f32":
		compression := libio.FloatImageCompressionNone
		if cargs.compress > 0 {
			compression = libio.FloatImageCompressionFixedPoint16Lz4
		}
		err = libio.EncodeFloatImage(outFile, img, compression)
	case ".png":
		err = png.Encode(outFile, img.ToIntImage(2.2, 1).ToRGBA())
	default:
		err = fmt.Errorf("output extension %q unsupported", filepath.Ext(outFilename))
	}

	if err != nil {
		outFile.Close()
		os.Remove(outFilename)
		return err
	}
	return nil
}
