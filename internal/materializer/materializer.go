// Package materializer pre-generates upcoming scheduled activities in the
// background, so a participant's first view query of the day reads instead of
// writes. Each pass walks every enrolled participant; per-participant errors
// are logged and skipped, they never stop the pass.
package materializer

import (
	"context"
	"log"
	"time"

	"ActivityScheduler/internal/cache"
	"ActivityScheduler/internal/repo"
	"ActivityScheduler/internal/sched"
	"ActivityScheduler/internal/service"

	"github.com/redis/go-redis/v9"
)

type Materializer struct {
	activities   *service.ActivityService
	participants repo.ParticipantRepo
	rdb          *redis.Client
	ticker       *time.Ticker
	interval     time.Duration
	daysAhead    int
	ctx          context.Context
	cancel       context.CancelFunc
}

func New(ctx context.Context, activities *service.ActivityService, participants repo.ParticipantRepo, rdb *redis.Client, interval time.Duration, daysAhead int) *Materializer {
	cctx, cancel := context.WithCancel(ctx)
	return &Materializer{
		activities:   activities,
		participants: participants,
		rdb:          rdb,
		ticker:       time.NewTicker(interval),
		interval:     interval,
		daysAhead:    daysAhead,
		ctx:          cctx,
		cancel:       cancel,
	}
}

// Start runs until Stop or context cancellation.
func (m *Materializer) Start() {
	log.Printf("materializer started with interval=%s daysAhead=%d", m.interval, m.daysAhead)
	for {
		select {
		case <-m.ctx.Done():
			log.Println("materializer stopped")
			return
		case <-m.ticker.C:
			if err := m.tickOnce(m.ctx); err != nil {
				log.Printf("materializer tick failed: %v", err)
			}
		}
	}
}

func (m *Materializer) Stop() {
	m.cancel()
	m.ticker.Stop()
}

func (m *Materializer) tickOnce(ctx context.Context) error {
	participants, err := m.participants.List(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	w := sched.Window{Start: now, End: now.AddDate(0, 0, m.daysAhead)}

	totalGenerated := 0
	for _, p := range participants {
		n, err := m.activities.MaterializeWindow(ctx, p.ID, w)
		if err != nil {
			log.Printf("materialize for participant %s failed: %v", p.ID, err)
			continue
		}
		totalGenerated += n
	}

	if m.rdb != nil {
		_ = cache.IncrCounter(ctx, m.rdb, "materializer", "ticks")
		_ = m.rdb.IncrBy(ctx, cache.CounterKey("materializer", "generated"), int64(totalGenerated)).Err()
		_ = cache.RecordLastRun(ctx, m.rdb, "materializer", map[string]any{
			"time":              now.Format(time.RFC3339),
			"participant_count": len(participants),
			"generated_count":   totalGenerated,
		})
	}

	log.Printf("materializer tick: participants=%d generated=%d", len(participants), totalGenerated)
	return nil
}
