// Command streamurl generates authenticated live-stream URLs and serves the
// web form backend.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cmd := &cobra.Command{
		Use:           "streamurl",
		Short:         "Authenticated live-stream URL generator",
		Long:          "streamurl builds txSecret/txTime authenticated publish and playback URLs and serves the web form backend.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetArgs(args)

	cmd.AddCommand(serveCommand())
	cmd.AddCommand(generateCommand())
	cmd.AddCommand(verifyCommand())
	cmd.AddCommand(tokenCommand())
	cmd.AddCommand(historyCommand())

	return cmd.ExecuteContext(ctx)
}
