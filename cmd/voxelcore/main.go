// Command voxelcore runs the world subsystem standalone: it assembles the
// block catalog, generation pipeline, persistence and world from a TOML
// configuration, drives the tick loop at 20 Hz and attaches the debug
// console to stdin.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/voidreach/voxelcore/server/config"
	"github.com/voidreach/voxelcore/server/console"
	"github.com/voidreach/voxelcore/server/world"
	"github.com/voidreach/voxelcore/server/world/block"
	"github.com/voidreach/voxelcore/server/world/generator"
	"github.com/voidreach/voxelcore/server/world/scheduler"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(log)

	conf, err := config.Load("config.toml")
	if err != nil {
		log.Error("loading config", "err", err)
		os.Exit(1)
	}

	registry := block.DefaultCatalog(log)
	pipeline := generator.NewPipeline(generator.Config{
		Seed:     conf.World.Seed,
		SeaLevel: conf.World.SeaLevel,
	}, registry, log)

	var provider world.Provider = world.NopProvider{}
	if conf.World.SavePath != "" {
		p, err := world.OpenLevelDB(conf.World.SavePath)
		if err != nil {
			log.Error("opening world save, continuing without persistence", "err", err)
		} else {
			provider = p
		}
	}

	var metrics *scheduler.Metrics
	if conf.Scheduler.Metrics {
		metrics = scheduler.NewMetrics()
	}

	w := world.Config{
		Log:              log,
		Registry:         registry,
		Generator:        pipeline,
		Provider:         provider,
		Seed:             conf.World.Seed,
		ViewDistance:     conf.World.ViewDistance,
		UnloadDistance:   conf.World.UnloadDistance,
		Workers:          conf.Workers.Count,
		WorkerQueueSize:  conf.Workers.QueueSize,
		LiquidIntervalMs: conf.Liquid.UpdateIntervalMs,
		Scheduler: scheduler.Config{
			BudgetRatio:    conf.Scheduler.BudgetRatio,
			AdaptationRate: conf.Scheduler.AdaptationRate,
			MinBudget:      time.Duration(conf.Scheduler.MinBudgetMs * float64(time.Millisecond)),
			MaxBudget:      time.Duration(conf.Scheduler.MaxBudgetMs * float64(time.Millisecond)),
			Metrics:        metrics,
		},
	}.New()

	if meta, err := provider.LoadMetadata(); err == nil && len(meta.PlayerPos) == 3 {
		w.SetPlayerPosition(mgl64.Vec3{meta.PlayerPos[0], meta.PlayerPos[1], meta.PlayerPos[2]})
	} else if err != nil && !errors.Is(err, world.ErrNotFound) {
		log.Warn("loading world metadata", "err", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go console.New(w, registry, log).Run(ctx)

	log.Info("world running", "seed", conf.World.Seed, "view", conf.World.ViewDistance)
	w.RunLoop(ctx, 20)

	if err := w.Close(); err != nil {
		log.Error("closing world", "err", err)
	}
}
