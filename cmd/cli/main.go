package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/albertomaydayjhondoe/porterias/internal/app"
	"github.com/albertomaydayjhondoe/porterias/internal/buildinfo"
	"github.com/albertomaydayjhondoe/porterias/internal/cli"
	"github.com/albertomaydayjhondoe/porterias/internal/config"
	"github.com/albertomaydayjhondoe/porterias/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	if err := run(); err != nil {
		log.Fatalf("%v", err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	cli.NewApp(svc, os.Stdin, os.Stdout).Run(ctx)
	return nil
}
