// Command rsotrack loads a resident space object dataset and runs the
// tracker's analyses against it.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/signalsfoundry/rso-tracker/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		logging.NewFromEnv().Error(ctx, "rsotrack failed", logging.Err(err))
		stop()
		os.Exit(1)
	}
}
