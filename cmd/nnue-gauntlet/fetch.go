package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jordiqui/nnue-gauntlet/pkg/fetch"
)

func runFetchCommand(args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	outputDir := fs.String("output-dir", ".", "directory where downloaded networks are stored")
	force := fs.Bool("force", false, "overwrite existing files instead of skipping them")
	list := fs.Bool("list", false, "list the known networks and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *list {
		for _, name := range fetch.Names() {
			fmt.Println(name)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := fetch.NewClient(*outputDir, *force, os.Stdout, os.Stderr)
	return client.Fetch(ctx, fs.Args())
}
