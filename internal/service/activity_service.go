package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"ActivityScheduler/internal/cache"
	"ActivityScheduler/internal/domain"
	"ActivityScheduler/internal/repo"
	"ActivityScheduler/internal/sched"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// defaultMinimumPerSchedule applies when a v3 query leaves the floor unset:
// every recurring schedule contributes at least its next occurrence.
const defaultMinimumPerSchedule = 1

type ActivityService struct {
	plans        repo.PlanRepo
	participants repo.ParticipantRepo
	activities   repo.ActivityRepo
	rdb          *redis.Client

	// Now is the clock; tests pin it.
	Now func() time.Time
}

// NewActivityService wires the generator and state store. rdb may be nil, in
// which case view caching is skipped.
func NewActivityService(plans repo.PlanRepo, participants repo.ParticipantRepo, activities repo.ActivityRepo, rdb *redis.Client) *ActivityService {
	return &ActivityService{
		plans:        plans,
		participants: participants,
		activities:   activities,
		rdb:          rdb,
		Now:          time.Now,
	}
}

// GetScheduledActivities serves the days-ahead (v3) current view: occurrences
// over [now, now+daysAhead] in the caller's timezone offset, with the
// per-schedule minimum floor applied to recurring schedules, plus the
// persisted backlog of earlier instances. An instance leaves this view only by
// finishing or expiring, never by its scheduled time passing.
func (s *ActivityService) GetScheduledActivities(ctx context.Context, participantID, tzOffset string, daysAhead int, minimumPerSchedule *int) ([]domain.ScheduledActivity, error) {
	loc, err := parseOffset(tzOffset)
	if err != nil {
		return nil, err
	}
	if daysAhead <= 0 {
		return nil, fmt.Errorf("%w: daysAhead must be positive", domain.ErrValidation)
	}
	minimum := defaultMinimumPerSchedule
	if minimumPerSchedule != nil {
		if *minimumPerSchedule < 0 {
			return nil, fmt.Errorf("%w: minimumPerSchedule must not be negative", domain.ErrValidation)
		}
		minimum = *minimumPerSchedule
	}

	sig := fmt.Sprintf("v3|%s|%d|%d", tzOffset, daysAhead, minimum)
	if view, ok := s.cachedView(ctx, participantID, sig); ok {
		return view, nil
	}

	now := s.Now().In(loc)
	w := sched.Window{Start: now, End: now.AddDate(0, 0, daysAhead)}
	all, _, err := s.materializeWindow(ctx, participantID, w, minimum, true)
	if err != nil {
		return nil, err
	}

	// Merge the backlog: instances scheduled before the window that are still
	// pending or started. The status filter below drops the expired ones.
	past, err := s.activities.ListWindow(ctx, participantID, time.Time{}, now)
	if err != nil {
		return nil, err
	}
	all = append(past, all...)

	view := all[:0]
	for _, a := range all {
		switch a.Status(now) {
		case domain.StatusFinished, domain.StatusExpired:
		default:
			view = append(view, a)
		}
	}
	rezone(view, loc)
	s.putView(ctx, participantID, sig, view)
	return view, nil
}

// GetScheduledActivitiesByDateRange serves the v4 shape: every instance with
// scheduledOn inside [start, end), regardless of lifecycle state. The
// minimum floor does not apply here.
func (s *ActivityService) GetScheduledActivitiesByDateRange(ctx context.Context, participantID string, start, end time.Time) ([]domain.ScheduledActivity, error) {
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return nil, fmt.Errorf("%w: startTime must precede endTime", domain.ErrValidation)
	}

	// The location is part of the signature: the same instants requested in a
	// different offset must not replay a view rezoned for another caller.
	sig := fmt.Sprintf("v4|%d|%d|%s", start.UnixNano(), end.UnixNano(), start.Location())
	if view, ok := s.cachedView(ctx, participantID, sig); ok {
		return view, nil
	}

	w := sched.Window{Start: start, End: end}
	view, _, err := s.materializeWindow(ctx, participantID, w, 0, false)
	if err != nil {
		return nil, err
	}
	rezone(view, start.Location())
	s.putView(ctx, participantID, sig, view)
	return view, nil
}

// UpdateActivities applies partial state changes by instance GUID. Merge
// only: absent fields keep their stored values. Any cached views of the
// participant are invalidated.
func (s *ActivityService) UpdateActivities(ctx context.Context, participantID string, updates []domain.ActivityUpdate) error {
	for _, u := range updates {
		if u.GUID == uuid.Nil {
			return fmt.Errorf("%w: activity update requires a guid", domain.ErrValidation)
		}
		if u.StartedOn == nil && u.FinishedOn == nil && u.ClientData == nil {
			continue
		}
		if err := s.activities.Update(ctx, participantID, u); err != nil {
			return err
		}
	}
	if s.rdb != nil {
		if err := cache.InvalidateViews(ctx, s.rdb, participantID); err != nil {
			log.Printf("invalidate views for %s failed: %v", participantID, err)
		}
	}
	return nil
}

// MaterializeWindow exposes generation for the background materializer. It
// reports how many instances were newly persisted; pre-existing ones are not
// counted.
func (s *ActivityService) MaterializeWindow(ctx context.Context, participantID string, w sched.Window) (int, error) {
	_, created, err := s.materializeWindow(ctx, participantID, w, defaultMinimumPerSchedule, true)
	return created, err
}

// materializeWindow expands every plan over the window, persists occurrences
// that do not exist yet and returns the full instance set for the window,
// existing state preserved, along with the count of freshly written rows.
func (s *ActivityService) materializeWindow(ctx context.Context, participantID string, w sched.Window, minimum int, useMinimum bool) ([]domain.ScheduledActivity, int, error) {
	participant, err := s.participants.Get(ctx, participantID)
	if err != nil {
		return nil, 0, err
	}
	planList, err := s.plans.List(ctx)
	if err != nil {
		return nil, 0, err
	}

	var out []domain.ScheduledActivity
	created := 0
	for _, plan := range planList {
		var occs []sched.Occurrence
		if useMinimum {
			occs = sched.ExpandWithMinimum(plan, participantID, participant.EnrolledAt, w, minimum)
		} else {
			occs = sched.Expand(plan, participantID, participant.EnrolledAt, w)
		}
		for _, occ := range occs {
			inst, wasNew, err := s.materializeOne(ctx, participantID, occ)
			if err != nil {
				return nil, 0, err
			}
			if wasNew {
				created++
			}
			out = append(out, *inst)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledOn.Equal(out[j].ScheduledOn) {
			return out[i].ScheduledOn.Before(out[j].ScheduledOn)
		}
		return out[i].GUID.String() < out[j].GUID.String()
	})
	return out, created, nil
}

// materializeOne persists an occurrence unless an instance already exists for
// its (plan, activity, scheduledOn) key, and returns the surviving instance
// plus whether this call wrote it.
func (s *ActivityService) materializeOne(ctx context.Context, participantID string, occ sched.Occurrence) (*domain.ScheduledActivity, bool, error) {
	existing, err := s.activities.FindByKey(ctx, participantID, occ.PlanGUID, occ.Activity.GUID, occ.ScheduledOn)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	inst := domain.ScheduledActivity{
		GUID:             uuid.New(),
		SchedulePlanGUID: occ.PlanGUID,
		ParticipantID:    participantID,
		Activity:         occ.Activity,
		ScheduledOn:      occ.ScheduledOn,
		ExpiresOn:        occ.ExpiresOn,
	}
	created, err := s.activities.InsertIfAbsent(ctx, &inst)
	if err != nil {
		return nil, false, err
	}
	if created {
		return &inst, true, nil
	}
	// Lost a race with a concurrent materialization of the same occurrence.
	existing, err = s.activities.FindByKey(ctx, participantID, occ.PlanGUID, occ.Activity.GUID, occ.ScheduledOn)
	return existing, false, err
}

func (s *ActivityService) cachedView(ctx context.Context, participantID, sig string) ([]domain.ScheduledActivity, bool) {
	if s.rdb == nil {
		return nil, false
	}
	view, ok, err := cache.GetView(ctx, s.rdb, participantID, sig)
	if err != nil {
		log.Printf("view cache read for %s failed: %v", participantID, err)
		return nil, false
	}
	return view, ok
}

func (s *ActivityService) putView(ctx context.Context, participantID, sig string, view []domain.ScheduledActivity) {
	if s.rdb == nil {
		return
	}
	if err := cache.PutView(ctx, s.rdb, participantID, sig, view, cache.DefaultViewTTL); err != nil {
		log.Printf("view cache write for %s failed: %v", participantID, err)
	}
}

// rezone reports instance timestamps in the caller's requested offset.
func rezone(list []domain.ScheduledActivity, loc *time.Location) {
	for i := range list {
		list[i].ScheduledOn = list[i].ScheduledOn.In(loc)
		if list[i].ExpiresOn != nil {
			t := list[i].ExpiresOn.In(loc)
			list[i].ExpiresOn = &t
		}
	}
}

// parseOffset turns a "+HH:MM" UTC offset into a fixed location.
func parseOffset(s string) (*time.Location, error) {
	if s == "" {
		return time.UTC, nil
	}
	t, err := time.Parse("-07:00", s)
	if err != nil {
		return nil, fmt.Errorf("%w: bad timezone offset %q", domain.ErrValidation, s)
	}
	_, offset := t.Zone()
	return time.FixedZone("UTC"+s, offset), nil
}
