package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ActivityScheduler/internal/domain"
	"ActivityScheduler/internal/repo"

	"github.com/google/uuid"
)

type ActivityRepo struct {
	mu        sync.RWMutex
	instances map[uuid.UUID]domain.ScheduledActivity
	byKey     map[string]uuid.UUID
}

func NewActivityRepo() *ActivityRepo {
	return &ActivityRepo{
		instances: make(map[uuid.UUID]domain.ScheduledActivity),
		byKey:     make(map[string]uuid.UUID),
	}
}

func instanceKey(a *domain.ScheduledActivity) string {
	return fmt.Sprintf("%s|%s|%s|%d",
		a.ParticipantID, a.SchedulePlanGUID, a.Activity.GUID, a.ScheduledOn.UnixNano())
}

func (r *ActivityRepo) InsertIfAbsent(_ context.Context, a *domain.ScheduledActivity) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := instanceKey(a)
	if _, ok := r.byKey[key]; ok {
		return false, nil
	}
	r.instances[a.GUID] = *a
	r.byKey[key] = a.GUID
	return true, nil
}

func (r *ActivityRepo) Get(_ context.Context, guid uuid.UUID) (*domain.ScheduledActivity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.instances[guid]
	if !ok {
		return nil, fmt.Errorf("%w: scheduled activity %s", domain.ErrNotFound, guid)
	}
	return &a, nil
}

func (r *ActivityRepo) FindByKey(_ context.Context, participantID string, planGUID, activityGUID uuid.UUID, scheduledOn time.Time) (*domain.ScheduledActivity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	probe := domain.ScheduledActivity{
		ParticipantID:    participantID,
		SchedulePlanGUID: planGUID,
		Activity:         domain.Activity{GUID: activityGUID},
		ScheduledOn:      scheduledOn,
	}
	guid, ok := r.byKey[instanceKey(&probe)]
	if !ok {
		return nil, fmt.Errorf("%w: scheduled activity", domain.ErrNotFound)
	}
	a := r.instances[guid]
	return &a, nil
}

func (r *ActivityRepo) ListWindow(_ context.Context, participantID string, start, end time.Time) ([]domain.ScheduledActivity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.ScheduledActivity
	for _, a := range r.instances {
		if a.ParticipantID != participantID {
			continue
		}
		if a.ScheduledOn.Before(start) || !a.ScheduledOn.Before(end) {
			continue
		}
		out = append(out, a)
	}
	sortInstances(out)
	return out, nil
}

func (r *ActivityRepo) Update(_ context.Context, participantID string, u domain.ActivityUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.instances[u.GUID]
	if !ok || a.ParticipantID != participantID {
		return fmt.Errorf("%w: scheduled activity %s", domain.ErrNotFound, u.GUID)
	}
	if u.StartedOn != nil {
		a.StartedOn = u.StartedOn
	}
	if u.FinishedOn != nil {
		a.FinishedOn = u.FinishedOn
	}
	if u.ClientData != nil {
		a.ClientData = append([]byte(nil), u.ClientData...)
	}
	r.instances[u.GUID] = a
	return nil
}

func (r *ActivityRepo) History(_ context.Context, page repo.HistoryPage) ([]domain.ScheduledActivity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.ScheduledActivity
	for _, a := range r.instances {
		if a.ParticipantID != page.ParticipantID {
			continue
		}
		if a.ScheduledOn.Before(page.ScheduledOnStart) || a.ScheduledOn.After(page.ScheduledOnEnd) {
			continue
		}
		if page.ActivityGUID != nil && a.Activity.GUID != *page.ActivityGUID {
			continue
		}
		if page.TaskIdentifier != nil && a.TaskIdentifier() != *page.TaskIdentifier {
			continue
		}
		out = append(out, a)
	}
	sortInstances(out)
	if page.AfterScheduledOn != nil && page.AfterGUID != nil {
		idx := 0
		for i, a := range out {
			if a.ScheduledOn.After(*page.AfterScheduledOn) ||
				(a.ScheduledOn.Equal(*page.AfterScheduledOn) && a.GUID.String() > page.AfterGUID.String()) {
				idx = i
				break
			}
			idx = i + 1
		}
		out = out[idx:]
	}
	if page.Limit > 0 && len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, nil
}

func sortInstances(list []domain.ScheduledActivity) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].ScheduledOn.Equal(list[j].ScheduledOn) {
			return list[i].ScheduledOn.Before(list[j].ScheduledOn)
		}
		return list[i].GUID.String() < list[j].GUID.String()
	})
}
