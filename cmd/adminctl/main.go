package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"minbar/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "adminctl:", err)
		stop()
		os.Exit(1)
	}
}
