// ftpdrive is an interactive passive-mode FTP client that moves files
// between a local storage directory and a server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ftpdrive/ftp/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()
	// The first signal cancels ctx; a second one gets the default
	// behaviour and kills a session stuck on the network.
	context.AfterFunc(ctx, stop)

	if err := cli.Execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "ftpdrive: %v\n", err)
		os.Exit(1)
	}
}
