package main

import (
	"context"
	"log/slog"

	"nauta-sdk/cmd/nauta-cli/cmd"
	"nauta-sdk/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)

	ctx := context.Background()
	instance, err := telemetry.SetupFromEnv(ctx, "nauta-cli")
	if err != nil {
		slog.Warn("failed to setup telemetry", "err", err)
	}
	defer instance.Shutdown(ctx)

	cmd.Execute()
}
