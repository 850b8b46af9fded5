package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/pressroom-backend/internal/app"
	"github.com/yungbote/pressroom-backend/internal/temporalx/temporalworker"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init worker: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if a.Temporal == nil {
		a.Log.Error("TEMPORAL_ADDRESS is required for the worker")
		os.Exit(2)
	}

	runner, err := temporalworker.NewRunner(a.Log, a.Temporal, a.Activities)
	if err != nil {
		a.Log.Error("worker init failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := runner.Start(ctx); err != nil {
		a.Log.Error("worker start failed", "error", err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	a.Log.Info("shutting down worker")
}
