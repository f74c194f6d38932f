package main

import (
	"context"
	"errors"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"

	"github.com/matzehuels/lightbox/internal/cli"
	"github.com/matzehuels/lightbox/pkg/buildinfo"
)

func main() {
	root := cli.New(os.Stderr, cli.LogInfo).RootCommand()

	// fang renders errors and help, and cancels the context on SIGINT/SIGTERM.
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(buildinfo.Short()),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		os.Exit(1)
	}
}
