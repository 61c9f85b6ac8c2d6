package materializer

import (
	"context"
	"testing"
	"time"

	"ActivityScheduler/internal/cache"
	"ActivityScheduler/internal/domain"
	"ActivityScheduler/internal/repo/memory"
	"ActivityScheduler/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickMaterializesEveryParticipant(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	plans := memory.NewPlanRepo()
	participants := memory.NewParticipantRepo()
	activities := memory.NewActivityRepo()
	ctx := context.Background()

	enrolled := time.Now().UTC().AddDate(0, 0, -7)
	for _, id := range []string{"user-1", "user-2"} {
		require.NoError(t, participants.Create(ctx, &domain.Participant{
			ID:         id,
			Roles:      []domain.Role{domain.RoleParticipant},
			EnrolledAt: enrolled,
		}))
	}
	plan := domain.SchedulePlan{
		GUID:  uuid.New(),
		Label: "daily check-in",
		Strategy: domain.Strategy{
			Type: domain.StrategyTypeSimple,
			Schedule: &domain.Schedule{
				Label:    "daily",
				Type:     domain.ScheduleTypeRecurring,
				Interval: domain.Period{Days: 1},
				Times:    []string{"08:00"},
				Activities: []domain.Activity{{
					GUID:  uuid.New(),
					Label: "check-in",
					Task:  &domain.TaskReference{Identifier: "task:BBB"},
				}},
			},
		},
		CreatedAt: enrolled,
	}
	require.NoError(t, plan.Validate())
	require.NoError(t, plans.Create(ctx, &plan))

	svc := service.NewActivityService(plans, participants, activities, rdb)
	m := New(ctx, svc, participants, rdb, time.Minute, 4)
	defer m.Stop()

	require.NoError(t, m.tickOnce(ctx))

	for _, id := range []string{"user-1", "user-2"} {
		now := time.Now().UTC()
		window, err := activities.ListWindow(ctx, id, now.AddDate(0, 0, -1), now.AddDate(0, 0, 5))
		require.NoError(t, err)
		assert.NotEmpty(t, window, "instances persisted for %s", id)
	}

	ticks, err := rdb.Get(ctx, cache.CounterKey("materializer", "ticks")).Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(1), ticks)

	generated, err := rdb.Get(ctx, cache.CounterKey("materializer", "generated")).Int64()
	require.NoError(t, err)
	assert.Greater(t, generated, int64(0))

	last, err := rdb.HGetAll(ctx, cache.CounterKey("materializer", "last")).Result()
	require.NoError(t, err)
	assert.Equal(t, "2", last["participant_count"])

	// A second pass finds everything already materialized: the tick counter
	// moves, the generated counter does not.
	require.NoError(t, m.tickOnce(ctx))
	ticks, err = rdb.Get(ctx, cache.CounterKey("materializer", "ticks")).Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(2), ticks)

	after, err := rdb.Get(ctx, cache.CounterKey("materializer", "generated")).Int64()
	require.NoError(t, err)
	assert.Equal(t, generated, after, "pre-existing instances are not re-counted")
}
