package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/tessellate-io/flume/capture"
	"github.com/tessellate-io/flume/cli/render"
)

// InspectCommand returns the inspect command for capture files.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Inspect a session capture file",
		ArgsUsage: "<capture file>",
		Flags:     ReadOnlyFlags(),
		Action:    inspectAction,
	}
}

func inspectAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("exactly one capture file is required", 1)
	}

	rec, err := capture.Read(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return r.RenderTUI("inspect_capture", rec)
	}
	return r.Render(rec)
}
