package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ActivityScheduler/internal/domain"
	"ActivityScheduler/internal/repo/memory"
	"ActivityScheduler/internal/sched"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testEnrollment = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	testNow        = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
)

type testEnv struct {
	plans        *memory.PlanRepo
	participants *memory.ParticipantRepo
	activities   *memory.ActivityRepo
	rdb          *redis.Client
	mr           *miniredis.Miniredis
	svc          *ActivityService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	env := &testEnv{
		plans:        memory.NewPlanRepo(),
		participants: memory.NewParticipantRepo(),
		activities:   memory.NewActivityRepo(),
		rdb:          rdb,
		mr:           mr,
	}
	env.svc = NewActivityService(env.plans, env.participants, env.activities, rdb)
	env.svc.Now = func() time.Time { return testNow }

	require.NoError(t, env.participants.Create(context.Background(), &domain.Participant{
		ID:         "user-1",
		Roles:      []domain.Role{domain.RoleParticipant},
		EnrolledAt: testEnrollment,
	}))
	return env
}

func (e *testEnv) addDailyPlan(t *testing.T) domain.SchedulePlan {
	t.Helper()
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
		CreatedAt: testEnrollment,
	}
	require.NoError(t, plan.Validate())
	require.NoError(t, e.plans.Create(context.Background(), &plan))
	return plan
}

func TestGetScheduledActivitiesMaterializesWindow(t *testing.T) {
	env := newTestEnv(t)
	env.addDailyPlan(t)
	ctx := context.Background()

	view, err := env.svc.GetScheduledActivities(ctx, "user-1", "+00:00", 3, nil)
	require.NoError(t, err)
	require.Len(t, view, 3)
	for i, a := range view {
		want := time.Date(2024, time.June, 2+i, 8, 0, 0, 0, time.UTC)
		assert.True(t, want.Equal(a.ScheduledOn), "instance %d at %s", i, a.ScheduledOn)
		assert.Equal(t, "user-1", a.ParticipantID)
		assert.NotEqual(t, uuid.Nil, a.GUID)
	}
}

func TestMaterializationIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.addDailyPlan(t)
	ctx := context.Background()

	first, err := env.svc.GetScheduledActivities(ctx, "user-1", "+00:00", 3, nil)
	require.NoError(t, err)

	// Drop the cache so the second call re-expands against the store.
	env.mr.FlushAll()

	second, err := env.svc.GetScheduledActivities(ctx, "user-1", "+00:00", 3, nil)
	require.NoError(t, err)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].GUID, second[i].GUID, "re-expansion reuses stored instances")
	}
}

func TestMinimumPerScheduleFloor(t *testing.T) {
	env := newTestEnv(t)
	env.addDailyPlan(t)
	ctx := context.Background()

	for _, minimum := range []int{0, 2, 5} {
		env.mr.FlushAll()
		m := minimum
		view, err := env.svc.GetScheduledActivities(ctx, "user-1", "+00:00", 3, &m)
		require.NoError(t, err)
		// Three occurrences fit the window; larger floors extend past it.
		want := 3
		if minimum > want {
			want = minimum
		}
		assert.Len(t, view, want, "minimum=%d", minimum)
	}
}

func TestUpdateLifecycleAndViewShapes(t *testing.T) {
	env := newTestEnv(t)
	env.addDailyPlan(t)
	ctx := context.Background()

	view, err := env.svc.GetScheduledActivities(ctx, "user-1", "+00:00", 3, nil)
	require.NoError(t, err)
	require.Len(t, view, 3)

	started := testNow
	finished := testNow.Add(10 * time.Minute)
	clientData := json.RawMessage(`{"completed_steps":12}`)
	err = env.svc.UpdateActivities(ctx, "user-1", []domain.ActivityUpdate{{
		GUID:       view[0].GUID,
		StartedOn:  &started,
		FinishedOn: &finished,
		ClientData: clientData,
	}})
	require.NoError(t, err)

	// The v3 view drops the finished instance.
	view, err = env.svc.GetScheduledActivities(ctx, "user-1", "+00:00", 3, nil)
	require.NoError(t, err)
	assert.Len(t, view, 2)

	// The v4 date-range view keeps it, state intact.
	ranged, err := env.svc.GetScheduledActivitiesByDateRange(ctx, "user-1", testNow, testNow.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, ranged, 3)
	got := ranged[0]
	require.NotNil(t, got.FinishedOn)
	assert.True(t, finished.Equal(*got.FinishedOn))
	assert.JSONEq(t, string(clientData), string(got.ClientData))
	assert.Equal(t, domain.StatusFinished, got.Status(testNow.Add(time.Hour)))
}

func TestUpdateRequiresInstanceGUID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := testNow
	err := env.svc.UpdateActivities(ctx, "user-1", []domain.ActivityUpdate{{StartedOn: &now}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateUnknownInstance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := testNow
	err := env.svc.UpdateActivities(ctx, "user-1", []domain.ActivityUpdate{{GUID: uuid.New(), StartedOn: &now}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestViewCacheInvalidationOnUpdate(t *testing.T) {
	env := newTestEnv(t)
	env.addDailyPlan(t)
	ctx := context.Background()

	view, err := env.svc.GetScheduledActivities(ctx, "user-1", "+00:00", 3, nil)
	require.NoError(t, err)
	require.Len(t, view, 3)

	// Served from cache: a repo-level change is not yet visible.
	finished := testNow
	require.NoError(t, env.activities.Update(ctx, "user-1", domain.ActivityUpdate{
		GUID:       view[0].GUID,
		FinishedOn: &finished,
	}))
	cached, err := env.svc.GetScheduledActivities(ctx, "user-1", "+00:00", 3, nil)
	require.NoError(t, err)
	assert.Len(t, cached, 3)

	// An update through the service drops every cached view.
	require.NoError(t, env.svc.UpdateActivities(ctx, "user-1", []domain.ActivityUpdate{{
		GUID:      view[1].GUID,
		StartedOn: &finished,
	}}))
	fresh, err := env.svc.GetScheduledActivities(ctx, "user-1", "+00:00", 3, nil)
	require.NoError(t, err)
	assert.Len(t, fresh, 2, "finished instance no longer served")
}

func TestTimezoneOffsetRezonesView(t *testing.T) {
	env := newTestEnv(t)
	env.addDailyPlan(t)
	ctx := context.Background()

	view, err := env.svc.GetScheduledActivities(ctx, "user-1", "-07:00", 3, nil)
	require.NoError(t, err)
	require.NotEmpty(t, view)
	_, offset := view[0].ScheduledOn.Zone()
	assert.Equal(t, -7*60*60, offset)
}

func TestBadTimezoneOffsetRejected(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.GetScheduledActivities(context.Background(), "user-1", "utc", 3, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUnknownParticipantRejected(t *testing.T) {
	env := newTestEnv(t)
	env.addDailyPlan(t)
	_, err := env.svc.GetScheduledActivities(context.Background(), "ghost", "+00:00", 3, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDateRangeValidation(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.GetScheduledActivitiesByDateRange(context.Background(), "user-1", testNow, testNow.Add(-time.Hour))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMaterializeWindowCountsNewInstancesOnly(t *testing.T) {
	env := newTestEnv(t)
	env.addDailyPlan(t)
	ctx := context.Background()

	w := sched.Window{Start: testNow, End: testNow.AddDate(0, 0, 3)}
	n, err := env.svc.MaterializeWindow(ctx, "user-1", w)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Everything already exists, so a second pass writes nothing.
	n, err = env.svc.MaterializeWindow(ctx, "user-1", w)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStartedInstanceSurvivesPastScheduledTime(t *testing.T) {
	env := newTestEnv(t)
	env.addDailyPlan(t)
	ctx := context.Background()

	view, err := env.svc.GetScheduledActivities(ctx, "user-1", "+00:00", 3, nil)
	require.NoError(t, err)
	require.Len(t, view, 3)

	// Start the June 2 08:00 instance, leave the June 3 one untouched.
	started := view[0].ScheduledOn.Add(5 * time.Minute)
	require.NoError(t, env.svc.UpdateActivities(ctx, "user-1", []domain.ActivityUpdate{{
		GUID:      view[0].GUID,
		StartedOn: &started,
	}}))

	// Two days later both scheduled times have passed.
	env.svc.Now = func() time.Time { return testNow.AddDate(0, 0, 2) }
	env.mr.FlushAll()

	later, err := env.svc.GetScheduledActivities(ctx, "user-1", "+00:00", 3, nil)
	require.NoError(t, err)
	byGUID := map[uuid.UUID]domain.ScheduledActivity{}
	for _, a := range later {
		byGUID[a.GUID] = a
	}
	got, ok := byGUID[view[0].GUID]
	require.True(t, ok, "started instance stays in the current view until finished")
	assert.Equal(t, domain.StatusStarted, got.Status(env.svc.Now()))
	_, ok = byGUID[view[1].GUID]
	assert.True(t, ok, "pending unexpired instance stays too")

	// Finishing is what removes it.
	finished := env.svc.Now()
	require.NoError(t, env.svc.UpdateActivities(ctx, "user-1", []domain.ActivityUpdate{{
		GUID:       view[0].GUID,
		FinishedOn: &finished,
	}}))
	later, err = env.svc.GetScheduledActivities(ctx, "user-1", "+00:00", 3, nil)
	require.NoError(t, err)
	for _, a := range later {
		assert.NotEqual(t, view[0].GUID, a.GUID)
	}
}

func TestExpiredBacklogInstanceLeavesCurrentView(t *testing.T) {
	env := newTestEnv(t)
	plan := domain.SchedulePlan{
		GUID:  uuid.New(),
		Label: "expiring check-in",
		Strategy: domain.Strategy{
			Type: domain.StrategyTypeSimple,
			Schedule: &domain.Schedule{
				Label:    "daily",
				Type:     domain.ScheduleTypeRecurring,
				Interval: domain.Period{Days: 1},
				Expires:  domain.Period{Hours: 2},
				Times:    []string{"08:00"},
				Activities: []domain.Activity{{
					GUID:  uuid.New(),
					Label: "check-in",
					Task:  &domain.TaskReference{Identifier: "task:BBB"},
				}},
			},
		},
		CreatedAt: testEnrollment,
	}
	require.NoError(t, plan.Validate())
	ctx := context.Background()
	require.NoError(t, env.plans.Create(ctx, &plan))

	view, err := env.svc.GetScheduledActivities(ctx, "user-1", "+00:00", 3, nil)
	require.NoError(t, err)
	require.Len(t, view, 3)
	expiredGUID := view[0].GUID

	// The June 2 instance expired at 10:00; by noon it is gone for good.
	env.svc.Now = func() time.Time { return testNow.AddDate(0, 0, 1) }
	env.mr.FlushAll()

	later, err := env.svc.GetScheduledActivities(ctx, "user-1", "+00:00", 3, nil)
	require.NoError(t, err)
	for _, a := range later {
		assert.NotEqual(t, expiredGUID, a.GUID, "expired instance is filtered out of the backlog")
	}
}

func TestDateRangeCacheDistinguishesOffsets(t *testing.T) {
	env := newTestEnv(t)
	env.addDailyPlan(t)
	ctx := context.Background()

	start := testNow
	end := testNow.AddDate(0, 0, 3)
	utcView, err := env.svc.GetScheduledActivitiesByDateRange(ctx, "user-1", start, end)
	require.NoError(t, err)
	require.NotEmpty(t, utcView)

	// Same instants, different offset: must not replay the UTC entry.
	zone := time.FixedZone("UTC-07:00", -7*60*60)
	localView, err := env.svc.GetScheduledActivitiesByDateRange(ctx, "user-1", start.In(zone), end.In(zone))
	require.NoError(t, err)
	require.NotEmpty(t, localView)
	_, offset := localView[0].ScheduledOn.Zone()
	assert.Equal(t, -7*60*60, offset)
}
