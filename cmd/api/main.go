package main

import (
	"context"
	"log"
	"time"

	"ActivityScheduler/internal/cache"
	"ActivityScheduler/internal/config"
	"ActivityScheduler/internal/db"
	"ActivityScheduler/internal/http/handler"
	"ActivityScheduler/internal/repo"
	"ActivityScheduler/internal/repo/memory"
	"ActivityScheduler/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		pool         *pgxpool.Pool
		plans        repo.PlanRepo
		participants repo.ParticipantRepo
		activities   repo.ActivityRepo
		schemas      repo.SchemaRepo
	)

	switch cfg.StorageMode {
	case "memory":
		plans = memory.NewPlanRepo()
		participants = memory.NewParticipantRepo()
		activities = memory.NewActivityRepo()
		schemas = memory.NewSchemaRepo()
	default:
		var err error
		pool, err = db.Init(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("postgres init failed: %v", err)
		}
		defer pool.Close()

		if err := db.EnsureSchema(ctx, pool); err != nil {
			log.Fatalf("ensure schema failed: %v", err)
		}

		plans = repo.NewPGPlanRepo(pool)
		participants = repo.NewPGParticipantRepo(pool)
		activities = repo.NewPGActivityRepo(pool)
		schemas = repo.NewPGSchemaRepo(pool)
	}

	rdb, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis init failed: %v", err)
	}
	defer rdb.Close()

	planSvc := service.NewPlanService(plans)
	participantSvc := service.NewParticipantService(participants)
	activitySvc := service.NewActivityService(plans, participants, activities, rdb)
	historySvc := service.NewHistoryService(activities)
	schemaSvc := service.NewSchemaService(schemas)

	engine := handler.NewRouter(handler.Handlers{
		Health:       handler.NewHealthHandler(pool, rdb),
		Metrics:      handler.NewMetricsHandler(rdb),
		Plans:        handler.NewPlanHandler(planSvc),
		Activities:   handler.NewActivityHandler(activitySvc, historySvc),
		Participants: handler.NewParticipantHandler(participantSvc),
		Schemas:      handler.NewSchemaHandler(schemaSvc),
	}, []byte(cfg.JWTSecret))

	log.Printf("starting api server on :%s", cfg.HTTPPort)
	if err := engine.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
