package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/tessellate-io/flume/cli/render"
	"github.com/tessellate-io/flume/ipc"
)

// DecodeCommand returns the decode command. It decodes a raw stream
// dump (the exact bytes a listener accumulated) without running a
// worker, which makes wire problems reproducible offline.
func DecodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode a raw result stream dump into payloads",
		ArgsUsage: "<stream file>",
		Flags:     ReadOnlyFlags(),
		Action:    decodeAction,
	}
}

func decodeAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for decode command", 1)
	}
	if c.NArg() != 1 {
		return cli.Exit("exactly one stream file is required", 1)
	}

	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("read stream file: %w", err)
	}

	payloads, err := ipc.DecodeStream(string(data))
	if err != nil {
		return cli.Exit(fmt.Sprintf("decode failed: %v", err), 1)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(payloads)
}
