package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"texture-index/cmd/texidx/cmd"
)

func main() {
	// Cancel in-flight work on interrupt so open batches commit and the
	// database closes cleanly
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	if err := cmd.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
