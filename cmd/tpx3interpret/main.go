// Command tpx3interpret decodes a Timepix3 raw-word container into a
// sorted hit table, per the pipeline implemented in this repository.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/GasDet-Bonn/tpx3-interpretation/container"
	"github.com/GasDet-Bonn/tpx3-interpretation/pipeline"
	"github.com/GasDet-Bonn/tpx3-interpretation/runconfig"
)

func main() {
	app := cli.NewApp()
	app.Name = "tpx3interpret"
	app.Usage = "decode a Timepix3 raw-word container into a sorted hit table"
	app.ArgsUsage = "<input.h5> <output.h5>"
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "workers",
			Value: 4,
			Usage: "number of chunks decoded concurrently",
		},
		cli.BoolFlag{
			Name:  "quiet",
			Usage: "suppress progress output",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		if exitErr, ok := err.(cli.ExitCoder); ok {
			os.Exit(exitErr.ExitCode())
		}
		color.Red("%+v", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.NewExitError("expected exactly two arguments: <input.h5> <output.h5>", 1)
	}
	inputPath := c.Args().Get(0)
	outputPath := c.Args().Get(1)
	if !strings.HasSuffix(inputPath, ".h5") {
		return cli.NewExitError(fmt.Sprintf("input path %q must end in .h5", inputPath), 1)
	}
	if !strings.HasSuffix(outputPath, ".h5") {
		return cli.NewExitError(fmt.Sprintf("output path %q must end in .h5", outputPath), 1)
	}

	quiet := c.Bool("quiet")
	workers := c.Int("workers")
	if workers < 1 {
		color.Red("warning: workers=%d is invalid, falling back to 1", workers)
		workers = 1
	}

	in, err := container.OpenFileContainer(inputPath)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("%+v", errors.Wrap(err, "opening input container")), 1)
	}

	cfg, err := runconfig.Load(in)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("%+v", errors.Wrap(err, "loading run configuration")), 1)
	}

	metas, err := in.Chunks()
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("%+v", errors.Wrap(err, "reading chunk metadata")), 1)
	}

	reporter := &pipeline.ProgressReporter{Interval: 2 * time.Second, Quiet: quiet}
	progress := reporter.Start(len(metas))

	rows, stats, err := pipeline.Run(in, metas, cfg, workers, progress)
	reporter.Stop()
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("%+v", errors.Wrap(err, "running decode pipeline")), 1)
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("%+v", errors.Wrap(err, "creating output file")), 1)
	}
	defer outFile.Close()

	writer := container.NewCompressedWriter(outFile)
	if err := writer.WriteHits(rows); err != nil {
		return cli.NewExitError(fmt.Sprintf("%+v", errors.Wrap(err, "writing hit table")), 1)
	}
	if err := writer.CopyConfiguration(in); err != nil {
		return cli.NewExitError(fmt.Sprintf("%+v", errors.Wrap(err, "copying configuration")), 1)
	}

	if !quiet {
		pipeline.ReportFinal(stats)
	}
	return nil
}
