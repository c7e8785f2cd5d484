package main

import (
	"context"
	"os"

	"github.com/farxc/entidades-sync/internal/env"
	"github.com/farxc/entidades-sync/internal/logger"
)

func main() {
	const component = "Main"
	appLogger := logger.New(logger.LevelInfo, os.Stderr)

	if err := env.Load(".env"); err != nil {
		appLogger.Fatal(component, "Failed to load .env: error=%v", err)
	}

	app := &application{appLogger: appLogger}
	if err := app.rootCommand().ExecuteContext(context.Background()); err != nil {
		appLogger.Fatal(component, "Command failed: error=%v", err)
	}
}
