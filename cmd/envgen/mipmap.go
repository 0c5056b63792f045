package main

import (
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"envgen/ibl"
)

type mipmapArgs struct {
	commonArgs
	size size
}

func createMipmapCommand() *command {
	args := mipmapArgs{
		commonArgs: commonArgs{
			ext:    ".iblenv",
			suffix: "_mip",
		},
		size: size{
			unit:    unitPercent,
			percent: 25,
		},
	}

	flags := flag.NewFlagSet("mipmap", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)
	registerSizeFlag(flags, &args.size)

	return &command{
		Name: "mipmap",
		Help: "build the full mip pyramid of an environment",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 || args.compress < 0 || args.compress > 10 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			runMipmap(args, gatherInputFiles(self.Flags.Args()))
		},
		Flags: flags,
	}
}

func runMipmap(args mipmapArgs, inputFiles []string) {
	ext := cargs.suffix + cargs.ext

	success := 0
	start := time.Now()
	for i, p := range inputFiles {
		if !cargs.quiet {
			fmt.Printf("Processing file %d/%d %q ...\n", i+1, len(inputFiles), filepath.ToSlash(filepath.Clean(p)))
		}
		err := mipmapFile(args, p, ext)
		softerr(err)
		if err == nil {
			success++
		}
	}
	if !cargs.quiet {
		took := float32(time.Since(start).Milliseconds()) / 1000
		fmt.Printf("Mipmapped %d/%d files in %.3f seconds\n", success, len(inputFiles), took)
	}
}

func mipmapFile(args mipmapArgs, p string, ext string) error {
	base, err := loadCubemap(p, args.size)
	if err != nil {
		return err
	}

	if !cargs.quiet {
		fmt.Printf("Building %d levels from %dx%d ...\n", ibl.NumMipLevels(base.Dim), base.Dim, base.Dim)
	}

	chain, err := ibl.BuildMipChain(base)
	if err != nil {
		return err
	}

	outFilename := outputFilename(p, ext)
	if !cargs.quiet {
		fmt.Printf("Writing %q ...\n", filepath.ToSlash(filepath.Clean(outFilename)))
	}

	return writeEnvFile(outFilename, chain)
}
