package main

import (
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"envgen/ibl"
)

type prefilterArgs struct {
	commonArgs
	size    size
	samples int
	levels  int
}

func createPrefilterCommand() *command {
	args := prefilterArgs{
		commonArgs: commonArgs{
			ext:    ".iblenv",
			suffix: "_specular",
		},
		size: size{
			unit:  unitPixel,
			pixel: 128,
		},
		samples: ibl.DefaultSampleCount,
		levels:  5,
	}

	flags := flag.NewFlagSet("prefilter", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)
	registerSizeFlag(flags, &args.size)
	flags.IntVar(&args.samples, "samples", args.samples, "number of importance samples per texel")
	flags.IntVar(&args.levels, "levels", args.levels, "the number of roughness levels")

	return &command{
		Name: "prefilter",
		Help: "create a prefiltered specular reflection map",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 || args.compress < 0 || args.compress > 10 ||
				args.samples < 1 || args.levels < 1 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			runPrefilter(args, gatherInputFiles(self.Flags.Args()))
		},
		Flags: flags,
	}
}

func runPrefilter(args prefilterArgs, inputFiles []string) {
	ext := cargs.suffix + cargs.ext

	success := 0
	start := time.Now()
	for i, p := range inputFiles {
		if !cargs.quiet {
			fmt.Printf("Processing file %d/%d %q ...\n", i+1, len(inputFiles), filepath.ToSlash(filepath.Clean(p)))
		}
		err := prefilterFile(args, p, ext)
		softerr(err)
		if err == nil {
			success++
		}
	}
	if !cargs.quiet {
		took := float32(time.Since(start).Milliseconds()) / 1000
		fmt.Printf("Prefiltered %d/%d files in %.3f seconds\n", success, len(inputFiles), took)
	}
}

// prefilterRoughnessSeries filters one level per roughness step. Level k
// holds perceptual roughness k/(levels-1) at half the previous level's
// resolution, the layout shaders expect for a trilinear roughness lookup.
func prefilterRoughnessSeries(base *ibl.Cubemap, size, levels, samples int) ([]*ibl.Cubemap, error) {
	chain, err := ibl.BuildMipChain(base)
	if err != nil {
		return nil, err
	}

	out := make([]*ibl.Cubemap, 0, levels)
	for lvl := 0; lvl < levels && size>>lvl >= 1; lvl++ {
		var perceptual float32
		if levels > 1 {
			perceptual = float32(lvl) / float32(levels-1)
		}
		linear := perceptual * perceptual

		cm, err := ibl.PrefilterRoughness(chain, linear, size>>lvl, samples)
		if err != nil {
			return nil, err
		}
		out = append(out, cm)
	}
	return out, nil
}

func prefilterFile(args prefilterArgs, p string, ext string) error {
	base, err := loadCubemap(p, args.size)
	if err != nil {
		return err
	}

	size := args.size.Calc(base.Dim)
	if size == 0 {
		size = base.Dim
	}
	if !cargs.quiet {
		fmt.Printf("Prefiltering to %dx%dx%d cubemap ...\n", size, size, args.levels)
	}

	series, err := prefilterRoughnessSeries(base, size, args.levels, args.samples)
	if err != nil {
		return err
	}

	outFilename := outputFilename(p, ext)
	if !cargs.quiet {
		fmt.Printf("Writing %q ...\n", filepath.ToSlash(filepath.Clean(outFilename)))
	}

	return writeEnvFile(outFilename, series)
}
