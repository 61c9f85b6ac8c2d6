package service

import (
	"context"
	"fmt"
	"time"

	"ActivityScheduler/internal/domain"
	"ActivityScheduler/internal/repo"
)

type ParticipantService struct {
	participants repo.ParticipantRepo
}

func NewParticipantService(participants repo.ParticipantRepo) *ParticipantService {
	return &ParticipantService{participants: participants}
}

// Enroll registers a participant. The enrollment timestamp anchors all of
// their schedule expansion, so it is pinned here, once.
func (s *ParticipantService) Enroll(ctx context.Context, p domain.Participant) (*domain.Participant, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("%w: participant id is required", domain.ErrValidation)
	}
	if _, err := s.participants.Get(ctx, p.ID); err == nil {
		return nil, fmt.Errorf("%w: participant %s already enrolled", domain.ErrValidation, p.ID)
	}
	if p.EnrolledAt.IsZero() {
		p.EnrolledAt = time.Now().UTC()
	}
	if len(p.Roles) == 0 {
		p.Roles = []domain.Role{domain.RoleParticipant}
	}
	if err := s.participants.Create(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ParticipantService) Get(ctx context.Context, id string) (*domain.Participant, error) {
	return s.participants.Get(ctx, id)
}

func (s *ParticipantService) List(ctx context.Context) ([]domain.Participant, error) {
	return s.participants.List(ctx)
}
