package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomat0w0/bid-anti-corruption/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.NewRootCmd().ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}
