package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
)

var (
	GitCommit string
	GitTag    string
	BuildTime string
)

func main() {
	version := GitTag
	if version == "" {
		version = "dev"
	}
	if err := fang.Execute(
		context.Background(),
		NewRootCmd(),
		fang.WithVersion(version),
		fang.WithCommit(GitCommit),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}
