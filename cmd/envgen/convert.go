package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"envgen/ibl"
	"envgen/libio"
)

type convertArgs struct {
	commonArgs
	size   size
	mirror bool
	grid   int
}

func createConvertCommand() *command {

	args := convertArgs{
		commonArgs: commonArgs{
			ext: ".iblenv",
		},
		size: size{
			unit:    unitPercent,
			percent: 25,
		},
	}

	flags := flag.NewFlagSet("convert", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)
	registerSizeFlag(flags, &args.size)
	flags.BoolVar(&args.mirror, "mirror", args.mirror, "mirror the environment along the x axis")
	flags.IntVar(&args.grid, "grid", args.grid, "generate a debug uv grid with n cells per face instead of reading input")

	return &command{
		Name: "convert",
		Help: "convert radiance hdr panoramas or crosses to ibl environments",
		Run: func(self *command) {
			if (self.Flags.NArg() < 1 && args.grid <= 0) || args.compress < 0 || args.compress > 10 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			if args.grid > 0 {
				runGenerateGrid(args)
				return
			}
			runConvert(args, gatherInputFiles(self.Flags.Args()))
		},
		Flags: flags,
	}
}

func runConvert(args convertArgs, inputFiles []string) {
	ext := cargs.suffix + cargs.ext

	success := 0
	start := time.Now()
	for i, p := range inputFiles {
		if !cargs.quiet {
			fmt.Printf("Processing file %d/%d %q ...\n", i+1, len(inputFiles), filepath.ToSlash(filepath.Clean(p)))
		}
		err := convertFile(args, p, ext)
		softerr(err)
		if err == nil {
			success++
		}
	}
	if !cargs.quiet {
		took := float32(time.Since(start).Milliseconds()) / 1000
		fmt.Printf("Converted %d/%d files in %.3f seconds\n", success, len(inputFiles), took)
	}
}

func convertFile(args convertArgs, p string, ext string) error {
	inFile, err := os.Open(p)
	if err != nil {
		return err
	}
	defer close(inFile)

	hdr, err := libio.DecodeRadianceHdr(inFile)
	if err != nil {
		return err
	}

	if hdr.Width == 0 || hdr.Height == 0 {
		return fmt.Errorf("image has zero size %dx%d", hdr.Width, hdr.Height)
	}

	size := args.size.Calc(hdr.Width)
	if !cargs.quiet {
		fmt.Printf("Converting to %dx%d cubemap ...\n", size, size)
	}

	env, err := ibl.Convert(hdr, size)
	if err != nil {
		return err
	}

	if args.mirror {
		env, err = ibl.Mirror(env)
		if err != nil {
			return err
		}
	}

	outFilename := outputFilename(p, ext)
	if !cargs.quiet {
		fmt.Printf("Writing %q ...\n", filepath.ToSlash(filepath.Clean(outFilename)))
	}

	return writeEnvFile(outFilename, []*ibl.Cubemap{env})
}

func runGenerateGrid(args convertArgs) {
	dim := args.size.Calc(0)
	if dim == 0 {
		dim = 256
	}

	env, err := ibl.GenerateUVGrid(dim, args.grid)
	harderr(err)

	if args.mirror {
		env, err = ibl.Mirror(env)
		harderr(err)
	}

	outFilename := filepath.Join(cargs.out, "uvgrid"+cargs.suffix+cargs.ext)
	if !cargs.quiet {
		fmt.Printf("Writing %q ...\n", filepath.ToSlash(filepath.Clean(outFilename)))
	}
	harderr(writeEnvFile(outFilename, []*ibl.Cubemap{env}))
}
