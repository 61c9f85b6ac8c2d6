// Package memory holds in-memory implementations of the repo interfaces,
// guarded by RWMutex. They back the "memory" storage mode and every
// store-dependent test.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ActivityScheduler/internal/domain"

	"github.com/google/uuid"
)

type PlanRepo struct {
	mu    sync.RWMutex
	plans map[uuid.UUID]domain.SchedulePlan
}

func NewPlanRepo() *PlanRepo {
	return &PlanRepo{plans: make(map[uuid.UUID]domain.SchedulePlan)}
}

func (r *PlanRepo) Create(_ context.Context, plan *domain.SchedulePlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[plan.GUID] = *plan
	return nil
}

func (r *PlanRepo) Get(_ context.Context, guid uuid.UUID) (*domain.SchedulePlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plans[guid]
	if !ok {
		return nil, fmt.Errorf("%w: schedule plan %s", domain.ErrNotFound, guid)
	}
	return &p, nil
}

func (r *PlanRepo) List(_ context.Context) ([]domain.SchedulePlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.SchedulePlan, 0, len(r.plans))
	for _, p := range r.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].GUID.String() < out[j].GUID.String()
	})
	return out, nil
}

func (r *PlanRepo) Delete(_ context.Context, guid uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[guid]; !ok {
		return fmt.Errorf("%w: schedule plan %s", domain.ErrNotFound, guid)
	}
	delete(r.plans, guid)
	return nil
}

type ParticipantRepo struct {
	mu           sync.RWMutex
	participants map[string]domain.Participant
}

func NewParticipantRepo() *ParticipantRepo {
	return &ParticipantRepo{participants: make(map[string]domain.Participant)}
}

func (r *ParticipantRepo) Create(_ context.Context, p *domain.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants[p.ID] = *p
	return nil
}

func (r *ParticipantRepo) Get(_ context.Context, id string) (*domain.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[id]
	if !ok {
		return nil, fmt.Errorf("%w: participant %s", domain.ErrNotFound, id)
	}
	return &p, nil
}

func (r *ParticipantRepo) List(_ context.Context) ([]domain.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EnrolledAt.Equal(out[j].EnrolledAt) {
			return out[i].EnrolledAt.Before(out[j].EnrolledAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
