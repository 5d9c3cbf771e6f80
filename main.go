// greetlog - a listener that greets TCP or TLS clients and logs their data.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"greetlog/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "greetlog: %v\n", err)
		os.Exit(1)
	}
}
