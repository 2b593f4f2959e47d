// Command pecunia is the CLI for the two-tier finance quote cache.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rshade/pecunia/internal/cli"
	"github.com/rshade/pecunia/internal/config"
	"github.com/rshade/pecunia/pkg/version"
)

func run(ctx context.Context, args []string) error {
	root := cli.NewRootCmd(version.String())
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()

	if err != nil {
		logger := config.GetLogger()
		logger.Debug().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
