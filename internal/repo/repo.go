// Package repo holds the durable stores. Interfaces at the top, the pgx
// implementations alongside, and an in-memory implementation (used by tests
// and the "memory" storage mode) under repo/memory.
package repo

import (
	"context"
	"time"

	"ActivityScheduler/internal/domain"

	"github.com/google/uuid"
)

type PlanRepo interface {
	Create(ctx context.Context, plan *domain.SchedulePlan) error
	Get(ctx context.Context, guid uuid.UUID) (*domain.SchedulePlan, error)
	List(ctx context.Context) ([]domain.SchedulePlan, error)
	Delete(ctx context.Context, guid uuid.UUID) error
}

type ParticipantRepo interface {
	Create(ctx context.Context, p *domain.Participant) error
	Get(ctx context.Context, id string) (*domain.Participant, error)
	List(ctx context.Context) ([]domain.Participant, error)
}

// HistoryPage selects a slice of a participant's instance history. Exactly
// one of ActivityGUID or TaskIdentifier is set. AfterScheduledOn/AfterGUID
// resume past the cursor position; Limit bounds the returned rows.
type HistoryPage struct {
	ParticipantID    string
	ActivityGUID     *uuid.UUID
	TaskIdentifier   *string
	ScheduledOnStart time.Time
	ScheduledOnEnd   time.Time
	AfterScheduledOn *time.Time
	AfterGUID        *uuid.UUID
	Limit            int
}

type ActivityRepo interface {
	// InsertIfAbsent persists a freshly generated instance unless one already
	// exists for the same (participant, plan, activity, scheduledOn). It
	// reports whether a row was written, making regeneration idempotent.
	InsertIfAbsent(ctx context.Context, a *domain.ScheduledActivity) (bool, error)
	Get(ctx context.Context, guid uuid.UUID) (*domain.ScheduledActivity, error)
	// FindByKey looks an instance up by its natural identity.
	FindByKey(ctx context.Context, participantID string, planGUID, activityGUID uuid.UUID, scheduledOn time.Time) (*domain.ScheduledActivity, error)
	// ListWindow returns a participant's instances with scheduledOn inside
	// [start, end), ordered by scheduledOn then guid.
	ListWindow(ctx context.Context, participantID string, start, end time.Time) ([]domain.ScheduledActivity, error)
	// Update merges a partial state change into an instance by GUID.
	Update(ctx context.Context, participantID string, u domain.ActivityUpdate) error
	History(ctx context.Context, page HistoryPage) ([]domain.ScheduledActivity, error)
}

type SchemaRepo interface {
	// Insert writes one revision row. A row already present at
	// (schemaID, revision) fails with domain.ErrConcurrentModification;
	// this is the compare-and-swap two racing revision creates contend on.
	Insert(ctx context.Context, s *domain.UploadSchema) error
	MaxRevision(ctx context.Context, schemaID string) (int, error)
	GetRevision(ctx context.Context, schemaID string, revision int) (*domain.UploadSchema, error)
	ListRevisions(ctx context.Context, schemaID string) ([]domain.UploadSchema, error)
	// ListMostRecent returns the highest surviving revision of every schema ID.
	ListMostRecent(ctx context.Context) ([]domain.UploadSchema, error)
	DeleteRevision(ctx context.Context, schemaID string, revision int) error
	DeleteAllRevisions(ctx context.Context, schemaID string) error
}
