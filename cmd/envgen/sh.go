package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"envgen/ibl"
	"envgen/libio"
)

type shArgs struct {
	commonArgs
	size       size
	bands      int
	irradiance bool
	shader     bool
}

func createShCommand() *command {
	args := shArgs{
		commonArgs: commonArgs{
			ext:    ".txt",
			suffix: "_sh",
		},
		size: size{
			unit:    unitPercent,
			percent: 25,
		},
		bands: 3,
	}

	flags := flag.NewFlagSet("sh", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)
	registerSizeFlag(flags, &args.size)
	flags.IntVar(&args.bands, "bands", args.bands, "the number of spherical harmonics bands")
	flags.BoolVar(&args.irradiance, "irradiance", args.irradiance, "convolve the coefficients with the cosine lobe")
	flags.BoolVar(&args.shader, "shader", args.shader, "scale the irradiance coefficients for direct shader evaluation")

	return &command{
		Name: "sh",
		Help: "project an environment onto spherical harmonics",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 || args.bands < 1 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			runSh(args, gatherInputFiles(self.Flags.Args()))
		},
		Flags: flags,
	}
}

func runSh(args shArgs, inputFiles []string) {
	ext := cargs.suffix + cargs.ext

	success := 0
	start := time.Now()
	for i, p := range inputFiles {
		if !cargs.quiet {
			fmt.Printf("Processing file %d/%d %q ...\n", i+1, len(inputFiles), filepath.ToSlash(filepath.Clean(p)))
		}
		err := shFile(args, p, ext)
		softerr(err)
		if err == nil {
			success++
		}
	}
	if !cargs.quiet {
		took := float32(time.Since(start).Milliseconds()) / 1000
		fmt.Printf("Projected %d/%d files in %.3f seconds\n", success, len(inputFiles), took)
	}
}

func shFile(args shArgs, p string, ext string) error {
	env, err := loadCubemap(p, args.size)
	if err != nil {
		return err
	}

	if !cargs.quiet {
		fmt.Printf("Projecting onto %d bands ...\n", args.bands)
	}

	sh, err := ibl.ProjectSH(env, args.bands)
	if err != nil {
		return err
	}
	if args.irradiance || args.shader {
		sh = ibl.ConvolveIrradiance(sh)
	}
	if args.shader {
		sh = ibl.ScaleForShader(sh)
	}

	outFilename := outputFilename(p, ext)
	if !cargs.quiet {
		fmt.Printf("Writing %q ...\n", filepath.ToSlash(filepath.Clean(outFilename)))
	}

	outFile, err := os.OpenFile(outFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer close(outFile)

	if strings.EqualFold(cargs.ext, ".f32") {
		err = writeShBinary(outFile, sh)
	} else {
		err = writeShText(outFile, sh)
	}
	if err != nil {
		outFile.Close()
		os.Remove(outFilename)
		return err
	}
	return nil
}

// writeShText writes one coefficient per line, bands in l-major order.
func writeShText(w io.Writer, sh ibl.SHCoefficients) error {
	bw := bufio.NewWriter(w)
	i := 0
	for l := 0; l < sh.Bands(); l++ {
		for m := -l; m <= l; m++ {
			c := sh[i]
			fmt.Fprintf(bw, "(%12.6f, %12.6f, %12.6f); // L%d%d\n", c[0], c[1], c[2], l, m)
			i++
		}
	}
	return bw.Flush()
}

// writeShBinary stores the coefficients as a 1-row f32 image.
func writeShBinary(w io.Writer, sh ibl.SHCoefficients) error {
	pix := make([]float32, len(sh)*3)
	for i, c := range sh {
		pix[i*3+0] = c[0]
		pix[i*3+1] = c[1]
		pix[i*3+2] = c[2]
	}
	img := libio.NewFloatImage(pix, 3, len(sh), 1)

	compression := libio.FloatImageCompressionNone
	if cargs.compress > 0 {
		compression = libio.FloatImageCompressionFixedPoint16Lz4
	}
	return libio.EncodeFloatImage(w, img, compression)
}
