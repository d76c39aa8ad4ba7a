package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Terminal commands keep the default signal handling, so Ctrl-C at a prompt
	// ends the program. Only the bot shuts down gracefully.
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "vocabdrill: %v\n", err)
		os.Exit(1)
	}
}

// shutdownContext is canceled by the first SIGINT or SIGTERM. The handler is
// released then, so a second signal kills the process.
func shutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}
