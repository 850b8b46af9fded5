package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/pressroom-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if a.Temporal != nil {
		if err := a.EnsureSchedules(context.Background()); err != nil {
			a.Log.Warn("monitor schedule setup failed", "error", err)
		}
	}

	a.Log.Info("Gateway listening", "port", a.Cfg.Port)
	if err := a.Run(); err != nil {
		a.Log.Error("server failed", "error", err)
		os.Exit(1)
	}
}
