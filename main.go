package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"framewise/app/config"
	"framewise/app/server"
	"framewise/app/service/agenttools"
	"framewise/app/service/engine"
	"framewise/app/service/nlu"
	"framewise/app/service/queue"
	"framewise/app/service/session"
	"framewise/app/service/transcript"
	"framewise/app/util/mylog"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, session.New)
	do.Provide(di, nlu.New)
	do.Provide(di, queue.New)
	do.Provide(di, transcript.New)
	do.Provide(di, engine.New)
	do.Provide(di, agenttools.New)
	do.Provide(di, server.New)

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	group, groupCtx := errgroup.WithContext(appCtx)

	group.Go(func() error {
		do.MustInvoke[*session.Service](di).RunSweeper(groupCtx)
		return nil
	})

	group.Go(func() error {
		do.MustInvoke[*engine.Service](di).Run(groupCtx)
		return nil
	})

	group.Go(func() error {
		return do.MustInvoke[*server.Service](di).Run(groupCtx)
	})

	if cfg.MCP.Enabled {
		group.Go(func() error {
			return do.MustInvoke[*agenttools.Service](di).ServeStdio()
		})
	}

	if err = group.Wait(); err != nil {
		log.Fatalf("service failed: %v", err)
	}
}
