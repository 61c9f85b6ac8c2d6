// Package sched expands schedule plans into concrete occurrence timestamps.
// Expansion is pure: persistence and deduplication against already
// materialized instances belong to the service layer.
package sched

import (
	"hash/fnv"
	"sort"
	"time"

	"ActivityScheduler/internal/domain"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Occurrence is one candidate (activity, timestamp) pair produced from a
// plan. The triple (PlanGUID, Activity.GUID, ScheduledOn) identifies it.
type Occurrence struct {
	PlanGUID    uuid.UUID
	Activity    domain.Activity
	ScheduledOn time.Time
	ExpiresOn   *time.Time
}

// Window is a half-open query interval [Start, End). Occurrence clock times
// are computed in Start's location.
type Window struct {
	Start time.Time
	End   time.Time
}

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Hard cap on recurrence boundaries per schedule, mirroring the catch-up cap
// in the materializer loop. A window can never legitimately need more.
const maxBoundaries = 1000

// Expand materializes a plan over a window in date-range mode: only
// occurrences strictly inside the window are produced.
func Expand(plan domain.SchedulePlan, participantID string, anchor time.Time, w Window) []Occurrence {
	return expand(plan, participantID, anchor, w, 0, false)
}

// ExpandWithMinimum materializes a plan in days-ahead mode: recurring
// schedules with fewer than minimum occurrences inside the window keep
// generating past the window end until exactly minimum exist. A minimum of
// zero suppresses out-of-window recurrences entirely.
func ExpandWithMinimum(plan domain.SchedulePlan, participantID string, anchor time.Time, w Window, minimum int) []Occurrence {
	return expand(plan, participantID, anchor, w, minimum, true)
}

func expand(plan domain.SchedulePlan, participantID string, anchor time.Time, w Window, minimum int, useMinimum bool) []Occurrence {
	var out []Occurrence
	for _, s := range selectSchedules(plan, participantID) {
		times := boundaryTimes(s, anchor, w, minimum, useMinimum)
		for _, t := range times {
			for _, act := range s.Activities {
				occ := Occurrence{
					PlanGUID:    plan.GUID,
					Activity:    act,
					ScheduledOn: t,
				}
				if !s.Expires.IsZero() {
					exp := s.Expires.AddTo(t)
					occ.ExpiresOn = &exp
				}
				out = append(out, occ)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledOn.Equal(out[j].ScheduledOn) {
			return out[i].ScheduledOn.Before(out[j].ScheduledOn)
		}
		return out[i].Activity.GUID.String() < out[j].Activity.GUID.String()
	})
	return out
}

// selectSchedules resolves the plan's strategy for one participant. A simple
// strategy yields its single schedule; an A/B test assigns the participant to
// exactly one weighted group, deterministically across calls.
func selectSchedules(plan domain.SchedulePlan, participantID string) []domain.Schedule {
	switch plan.Strategy.Type {
	case domain.StrategyTypeSimple:
		if plan.Strategy.Schedule != nil {
			return []domain.Schedule{*plan.Strategy.Schedule}
		}
	case domain.StrategyTypeABTest:
		if len(plan.Strategy.Groups) == 0 {
			return nil
		}
		bucket := assignBucket(participantID, plan.GUID)
		cumulative := 0
		for _, g := range plan.Strategy.Groups {
			cumulative += g.Percentage
			if bucket < cumulative {
				return []domain.Schedule{g.Schedule}
			}
		}
		// Weights sum to 100 by validation; last group absorbs rounding.
		return []domain.Schedule{plan.Strategy.Groups[len(plan.Strategy.Groups)-1].Schedule}
	}
	return nil
}

// assignBucket maps (participant, plan) onto [0,100) stably.
func assignBucket(participantID string, planGUID uuid.UUID) int {
	h := fnv.New32a()
	h.Write([]byte(participantID))
	h.Write([]byte(planGUID.String()))
	return int(h.Sum32() % 100)
}

// boundaryTimes computes the occurrence timestamps for one schedule.
func boundaryTimes(s domain.Schedule, anchor time.Time, w Window, minimum int, useMinimum bool) []time.Time {
	loc := w.Start.Location()
	base := s.Delay.AddTo(anchor)

	if s.Type == domain.ScheduleTypeOnce {
		var out []time.Time
		for _, t := range onceTimes(base, s.Times, loc) {
			if inWindow(t, w) {
				out = append(out, t)
			}
		}
		return out
	}

	if s.CronTrigger != "" {
		return cronTimes(s.CronTrigger, base, w, minimum, useMinimum)
	}
	return intervalTimes(s, base, w, minimum, useMinimum, loc)
}

func onceTimes(base time.Time, times []string, loc *time.Location) []time.Time {
	if len(times) == 0 {
		return []time.Time{base}
	}
	out := make([]time.Time, 0, len(times))
	for _, tod := range times {
		out = append(out, atTimeOfDay(base, tod, loc))
	}
	return out
}

func cronTimes(expr string, from time.Time, w Window, minimum int, useMinimum bool) []time.Time {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		// Rejected at plan creation; an invalid trigger here expands to nothing.
		return nil
	}
	if from.Before(w.Start) {
		from = w.Start
	}
	var out []time.Time
	t := from
	for i := 0; i < maxBoundaries; i++ {
		t = sched.Next(t)
		if t.IsZero() {
			break
		}
		if !t.Before(w.End) {
			// Past the window: only the minimum floor keeps us going.
			if !useMinimum || len(out) >= minimum {
				break
			}
		}
		out = append(out, t)
	}
	return out
}

func intervalTimes(s domain.Schedule, base time.Time, w Window, minimum int, useMinimum bool, loc *time.Location) []time.Time {
	var out []time.Time
	boundary := base
	for i := 0; i < maxBoundaries; i++ {
		if !boundary.Before(w.End) && (!useMinimum || len(out) >= minimum) {
			break
		}
		for _, tod := range s.Times {
			t := atTimeOfDay(boundary, tod, loc)
			if t.Before(w.Start) {
				continue
			}
			if inWindow(t, w) || (useMinimum && len(out) < minimum) {
				out = append(out, t)
			}
		}
		boundary = s.Interval.AddTo(boundary)
	}
	return out
}

func inWindow(t time.Time, w Window) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// atTimeOfDay pins a boundary date to a configured "HH:MM" clock time.
func atTimeOfDay(day time.Time, tod string, loc *time.Location) time.Time {
	clock, err := domain.ParseTimeOfDay(tod)
	if err != nil {
		return day
	}
	local := day.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), clock.Hour, clock.Minute, 0, 0, loc)
}
