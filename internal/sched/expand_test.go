package sched

import (
	"fmt"
	"testing"
	"time"

	"ActivityScheduler/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	enrollment = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	noon       = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
)

func simplePlan(s domain.Schedule) domain.SchedulePlan {
	return domain.SchedulePlan{
		GUID:     uuid.New(),
		Label:    "plan",
		Strategy: domain.Strategy{Type: domain.StrategyTypeSimple, Schedule: &s},
	}
}

func task(id string) domain.Activity {
	return domain.Activity{GUID: uuid.New(), Label: id, Task: &domain.TaskReference{Identifier: id}}
}

func TestExpandOnceSchedule(t *testing.T) {
	plan := simplePlan(domain.Schedule{
		Label:      "enrollment",
		Type:       domain.ScheduleTypeOnce,
		Times:      []string{"13:00"},
		Activities: []domain.Activity{task("task:AAA")},
	})
	w := Window{Start: noon, End: noon.AddDate(0, 0, 3)}

	occs := ExpandWithMinimum(plan, "user-1", enrollment, w, 5)
	require.Len(t, occs, 1, "a once schedule never repeats, whatever the minimum")
	assert.Equal(t, time.Date(2024, time.June, 1, 13, 0, 0, 0, time.UTC), occs[0].ScheduledOn)
	assert.Equal(t, "task:AAA", occs[0].Activity.Task.Identifier)
}

func TestExpandOnceOutsideWindow(t *testing.T) {
	plan := simplePlan(domain.Schedule{
		Label:      "enrollment",
		Type:       domain.ScheduleTypeOnce,
		Activities: []domain.Activity{task("task:AAA")},
	})
	// The once occurrence lands at the enrollment instant, before the window.
	w := Window{Start: noon, End: noon.AddDate(0, 0, 3)}
	assert.Empty(t, Expand(plan, "user-1", enrollment, w))
}

func dailySchedule() domain.Schedule {
	return domain.Schedule{
		Label:      "daily",
		Type:       domain.ScheduleTypeRecurring,
		Interval:   domain.Period{Days: 1},
		Times:      []string{"08:00"},
		Activities: []domain.Activity{task("task:BBB")},
	}
}

func TestExpandDailyInterval(t *testing.T) {
	plan := simplePlan(dailySchedule())
	w := Window{Start: noon, End: noon.AddDate(0, 0, 3)}

	occs := Expand(plan, "user-1", enrollment, w)
	require.Len(t, occs, 3)
	for i, occ := range occs {
		want := time.Date(2024, time.June, 2+i, 8, 0, 0, 0, time.UTC)
		assert.Equal(t, want, occ.ScheduledOn)
	}
}

func TestExpandMinimumFloorOnEmptyWindow(t *testing.T) {
	plan := simplePlan(dailySchedule())
	// A window that no 08:00 occurrence can fall inside.
	w := Window{
		Start: time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC),
	}

	for _, minimum := range []int{0, 2, 5} {
		occs := ExpandWithMinimum(plan, "user-1", enrollment, w, minimum)
		require.Len(t, occs, minimum, "minimum=%d", minimum)
		for _, occ := range occs {
			assert.True(t, occ.ScheduledOn.After(w.End), "floor occurrences extend past the window")
		}
	}
}

func TestExpandMinimumDoesNotTruncateWindow(t *testing.T) {
	plan := simplePlan(dailySchedule())
	w := Window{Start: noon, End: noon.AddDate(0, 0, 3)}

	// Three in-window occurrences already satisfy a floor of one.
	occs := ExpandWithMinimum(plan, "user-1", enrollment, w, 1)
	assert.Len(t, occs, 3)
}

func TestExpandCronTrigger(t *testing.T) {
	s := dailySchedule()
	s.Interval = domain.Period{}
	s.Times = nil
	s.CronTrigger = "0 0 8 * * *"
	plan := simplePlan(s)
	w := Window{Start: noon, End: noon.AddDate(0, 0, 3)}

	occs := ExpandWithMinimum(plan, "user-1", enrollment, w, 1)
	require.Len(t, occs, 3)
	for i, occ := range occs {
		want := time.Date(2024, time.June, 2+i, 8, 0, 0, 0, time.UTC)
		assert.Equal(t, want, occ.ScheduledOn)
	}
}

func TestExpandSetsExpiry(t *testing.T) {
	s := dailySchedule()
	s.Expires = domain.Period{Days: 1}
	plan := simplePlan(s)
	w := Window{Start: noon, End: noon.AddDate(0, 0, 2)}

	occs := Expand(plan, "user-1", enrollment, w)
	require.NotEmpty(t, occs)
	for _, occ := range occs {
		require.NotNil(t, occ.ExpiresOn)
		assert.Equal(t, occ.ScheduledOn.AddDate(0, 0, 1), *occ.ExpiresOn)
	}
}

func TestExpandDelayShiftsAnchor(t *testing.T) {
	plan := simplePlan(domain.Schedule{
		Label:      "delayed",
		Type:       domain.ScheduleTypeOnce,
		Delay:      domain.Period{Days: 2},
		Times:      []string{"08:00"},
		Activities: []domain.Activity{task("task:AAA")},
	})
	w := Window{Start: noon, End: noon.AddDate(0, 0, 7)}

	occs := Expand(plan, "user-1", enrollment, w)
	require.Len(t, occs, 1)
	assert.Equal(t, time.Date(2024, time.June, 3, 8, 0, 0, 0, time.UTC), occs[0].ScheduledOn)
}

func TestExpandMultipleTimesPerDaySorted(t *testing.T) {
	s := dailySchedule()
	s.Times = []string{"20:00", "08:00"}
	plan := simplePlan(s)
	w := Window{Start: noon, End: noon.AddDate(0, 0, 2)}

	occs := Expand(plan, "user-1", enrollment, w)
	require.NotEmpty(t, occs)
	for i := 1; i < len(occs); i++ {
		assert.False(t, occs[i].ScheduledOn.Before(occs[i-1].ScheduledOn), "occurrences are ordered")
	}
	// June 1 20:00 is in window even though 08:00 was not.
	assert.Equal(t, time.Date(2024, time.June, 1, 20, 0, 0, 0, time.UTC), occs[0].ScheduledOn)
}

func abPlan() domain.SchedulePlan {
	armA := dailySchedule()
	armA.Label = "arm A"
	armB := domain.Schedule{
		Label:      "arm B",
		Type:       domain.ScheduleTypeOnce,
		Times:      []string{"13:00"},
		Activities: []domain.Activity{task("task:CCC")},
	}
	return domain.SchedulePlan{
		GUID:  uuid.New(),
		Label: "ab plan",
		Strategy: domain.Strategy{
			Type: domain.StrategyTypeABTest,
			Groups: []domain.ScheduleGroup{
				{Percentage: 50, Schedule: armA},
				{Percentage: 50, Schedule: armB},
			},
		},
	}
}

func TestABTestAssignmentIsDeterministic(t *testing.T) {
	plan := abPlan()
	w := Window{Start: noon, End: noon.AddDate(0, 0, 3)}

	first := Expand(plan, "user-1", enrollment, w)
	for i := 0; i < 10; i++ {
		again := Expand(plan, "user-1", enrollment, w)
		assert.Equal(t, first, again)
	}
}

func TestABTestSplitsParticipants(t *testing.T) {
	plan := abPlan()
	w := Window{Start: noon, End: noon.AddDate(0, 0, 3)}

	arms := map[string]int{}
	for i := 0; i < 60; i++ {
		occs := Expand(plan, fmt.Sprintf("user-%d", i), enrollment, w)
		require.NotEmpty(t, occs)
		arms[occs[0].Activity.Task.Identifier]++
	}
	assert.Greater(t, arms["task:BBB"], 0, "some participants land in arm A")
	assert.Greater(t, arms["task:CCC"], 0, "some participants land in arm B")
}

func TestExpandProducesEveryActivityPerBoundary(t *testing.T) {
	s := dailySchedule()
	s.Activities = []domain.Activity{task("task:BBB"), task("task:DDD")}
	plan := simplePlan(s)
	w := Window{Start: noon, End: noon.AddDate(0, 0, 2)}

	occs := Expand(plan, "user-1", enrollment, w)
	byTask := map[string]int{}
	for _, occ := range occs {
		byTask[occ.Activity.Task.Identifier]++
	}
	assert.Equal(t, byTask["task:BBB"], byTask["task:DDD"])
	assert.Greater(t, byTask["task:BBB"], 0)
}
