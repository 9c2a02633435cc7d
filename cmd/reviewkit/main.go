package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"reviewkit/internal/cli"
	"reviewkit/internal/output"
)

// Set by release ldflags.
var version = "dev"

func main() {
	// .env is optional; REVIEWKIT_* variables may come from it.
	_ = godotenv.Load()

	output.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
