package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"envgen/ibl"
)

// deploy defaults, matching what a renderer consumes directly:
// shader-ready sh coefficients, skybox faces and a roughness series in
// numbered directories.
const (
	deployBands     = 3
	deployLevels    = 5
	deploySamples   = 1024
	deployMaxFilter = 128
)

type deployArgs struct {
	commonArgs
	size size
}

func createDeployCommand() *command {
	args := deployArgs{
		commonArgs: commonArgs{
			ext: ".hdr",
		},
		size: size{
			unit:    unitPercent,
			percent: 25,
		},
	}

	flags := flag.NewFlagSet("deploy", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)
	registerSizeFlag(flags, &args.size)

	return &command{
		Name: "deploy",
		Help: "produce a complete ibl directory: sh.txt, faces and roughness levels",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			runDeploy(args, gatherInputFiles(self.Flags.Args()))
		},
		Flags: flags,
	}
}

func runDeploy(args deployArgs, inputFiles []string) {
	success := 0
	start := time.Now()
	for i, p := range inputFiles {
		if !cargs.quiet {
			fmt.Printf("Processing file %d/%d %q ...\n", i+1, len(inputFiles), filepath.ToSlash(filepath.Clean(p)))
		}
		err := deployFile(args, p)
		softerr(err)
		if err == nil {
			success++
		}
	}
	if !cargs.quiet {
		took := float32(time.Since(start).Milliseconds()) / 1000
		fmt.Printf("Deployed %d/%d files in %.3f seconds\n", success, len(inputFiles), took)
	}
}

func deployFile(args deployArgs, p string) error {
	env, err := loadCubemap(p, args.size)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
	dir := filepath.Join(cargs.out, base)
	if err := os.MkdirAll(dir, 0777); err != nil {
		return err
	}

	sh, err := ibl.ProjectSH(env, deployBands)
	if err != nil {
		return err
	}
	sh = ibl.ScaleForShader(ibl.ConvolveIrradiance(sh))

	shOut, err := os.OpenFile(filepath.Join(dir, "sh.txt"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	err = writeShText(shOut, sh)
	shOut.Close()
	if err != nil {
		return err
	}

	faces := ibl.ExtractFaces(env)
	for face, img := range faces {
		name := ibl.FaceName(ibl.CubemapFace(face)) + cargs.ext
		if err := writeFaceImage(filepath.Join(dir, name), img); err != nil {
			return err
		}
	}

	size := env.Dim
	if size > deployMaxFilter {
		size = deployMaxFilter
	}
	series, err := prefilterRoughnessSeries(env, size, deployLevels, deploySamples)
	if err != nil {
		return err
	}

	for lvl, cm := range series {
		lvlDir := filepath.Join(dir, strconv.Itoa(lvl))
		if err := os.MkdirAll(lvlDir, 0777); err != nil {
			return err
		}
		for face, img := range ibl.ExtractFaces(cm) {
			name := ibl.FaceName(ibl.CubemapFace(face)) + cargs.ext
			if err := writeFaceImage(filepath.Join(lvlDir, name), img); err != nil {
				return err
			}
		}
	}

	if !cargs.quiet {
		fmt.Printf("Wrote %q ...\n", filepath.ToSlash(filepath.Clean(dir)))
	}
	return nil
}
