package service

import (
	"context"
	"time"

	"ActivityScheduler/internal/domain"
	"ActivityScheduler/internal/repo"

	"github.com/google/uuid"
)

type PlanService struct {
	plans repo.PlanRepo
}

func NewPlanService(plans repo.PlanRepo) *PlanService {
	return &PlanService{plans: plans}
}

// CreatePlan validates the plan, assigns the plan and activity-template
// GUIDs and persists it. Returns the stored representation.
func (s *PlanService) CreatePlan(ctx context.Context, plan domain.SchedulePlan) (*domain.SchedulePlan, error) {
	plan.GUID = uuid.New()
	plan.CreatedAt = time.Now().UTC()
	assignActivityGUIDs(&plan.Strategy)
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if err := s.plans.Create(ctx, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *PlanService) GetPlan(ctx context.Context, guid uuid.UUID) (*domain.SchedulePlan, error) {
	return s.plans.Get(ctx, guid)
}

func (s *PlanService) ListPlans(ctx context.Context) ([]domain.SchedulePlan, error) {
	return s.plans.List(ctx)
}

// DeletePlan removes the plan definition. Instances already materialized
// from it are left alone; history stays intact.
func (s *PlanService) DeletePlan(ctx context.Context, guid uuid.UUID) error {
	return s.plans.Delete(ctx, guid)
}

func assignActivityGUIDs(strategy *domain.Strategy) {
	if strategy.Schedule != nil {
		assignScheduleGUIDs(strategy.Schedule)
	}
	for i := range strategy.Groups {
		assignScheduleGUIDs(&strategy.Groups[i].Schedule)
	}
}

func assignScheduleGUIDs(s *domain.Schedule) {
	for i := range s.Activities {
		if s.Activities[i].GUID == uuid.Nil {
			s.Activities[i].GUID = uuid.New()
		}
	}
}
