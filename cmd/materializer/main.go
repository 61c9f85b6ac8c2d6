package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"ActivityScheduler/internal/cache"
	"ActivityScheduler/internal/config"
	"ActivityScheduler/internal/db"
	"ActivityScheduler/internal/materializer"
	"ActivityScheduler/internal/repo"
	"ActivityScheduler/internal/repo/memory"
	"ActivityScheduler/internal/service"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var (
		plans        repo.PlanRepo
		participants repo.ParticipantRepo
		activities   repo.ActivityRepo
	)

	switch cfg.StorageMode {
	case "memory":
		plans = memory.NewPlanRepo()
		participants = memory.NewParticipantRepo()
		activities = memory.NewActivityRepo()
	default:
		pool, err := db.Init(initCtx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("postgres init failed: %v", err)
		}
		defer pool.Close()

		if err := db.EnsureSchema(initCtx, pool); err != nil {
			log.Fatalf("ensure schema failed: %v", err)
		}

		plans = repo.NewPGPlanRepo(pool)
		participants = repo.NewPGParticipantRepo(pool)
		activities = repo.NewPGActivityRepo(pool)
	}

	rdb, err := cache.Connect(initCtx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis init failed: %v", err)
	}
	defer rdb.Close()

	activitySvc := service.NewActivityService(plans, participants, activities, rdb)

	m := materializer.New(ctx, activitySvc, participants, rdb, cfg.MaterializeInterval, cfg.MaterializeDays)
	defer m.Stop()
	m.Start()
}
