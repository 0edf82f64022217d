package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/CyanogenMod/android-frameworks-compile-slang/cli"
)

// Version information, set by goreleaser via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	c := cli.New()
	c.SetVersion(version, commit, date)
	err := c.Run(ctx, os.Args)
	stop()

	if err != nil {
		// the summary already names the failures
		if !errors.Is(err, cli.ErrTestsFailed) {
			fmt.Fprintf(os.Stderr, "%s: %v\n", cli.AppName, err)
		}
		os.Exit(1)
	}
}
