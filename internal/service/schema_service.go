package service

import (
	"context"
	"fmt"

	"ActivityScheduler/internal/domain"
	"ActivityScheduler/internal/repo"
)

type SchemaService struct {
	schemas repo.SchemaRepo
}

func NewSchemaService(schemas repo.SchemaRepo) *SchemaService {
	return &SchemaService{schemas: schemas}
}

// CreateOrUpdateSchema appends a new revision under the schema ID.
//
// An unrevisioned submission always appends: revision 1 when the ID is new,
// current max + 1 otherwise. An explicit revision must equal the current max
// (it names the revision the edit was based on), and when a version token is
// supplied it must match that revision's stored token; any mismatch fails
// with ConcurrentModification and the caller re-fetches and retries. The
// revision insert itself is compare-and-swap, so two racing appends of the
// same next revision resolve to exactly one winner.
func (s *SchemaService) CreateOrUpdateSchema(ctx context.Context, submitted domain.UploadSchema) (*domain.UploadSchema, error) {
	if err := validateSchema(&submitted); err != nil {
		return nil, err
	}

	max, err := s.schemas.MaxRevision(ctx, submitted.SchemaID)
	if err != nil {
		return nil, err
	}
	if submitted.Revision != 0 {
		if submitted.Revision != max {
			return nil, fmt.Errorf("%w: upload schema %s is at revision %d, not %d",
				domain.ErrConcurrentModification, submitted.SchemaID, max, submitted.Revision)
		}
		if submitted.Version != nil {
			stored, err := s.schemas.GetRevision(ctx, submitted.SchemaID, submitted.Revision)
			if err != nil {
				return nil, err
			}
			if stored.Version == nil || *stored.Version != *submitted.Version {
				return nil, fmt.Errorf("%w: stale version token for upload schema %s revision %d",
					domain.ErrConcurrentModification, submitted.SchemaID, submitted.Revision)
			}
		}
	}

	next := submitted
	next.Revision = max + 1
	token := int64(1)
	next.Version = &token
	if err := s.schemas.Insert(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// GetSchemaRevisions returns every revision of the ID, ascending. NotFound
// when none survive.
func (s *SchemaService) GetSchemaRevisions(ctx context.Context, schemaID string) ([]domain.UploadSchema, error) {
	revs, err := s.schemas.ListRevisions(ctx, schemaID)
	if err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		return nil, fmt.Errorf("%w: upload schema %s", domain.ErrNotFound, schemaID)
	}
	return revs, nil
}

// GetMostRecentSchema recomputes the surviving maximum, so deleting the top
// revision exposes its predecessor.
func (s *SchemaService) GetMostRecentSchema(ctx context.Context, schemaID string) (*domain.UploadSchema, error) {
	max, err := s.schemas.MaxRevision(ctx, schemaID)
	if err != nil {
		return nil, err
	}
	if max == 0 {
		return nil, fmt.Errorf("%w: upload schema %s", domain.ErrNotFound, schemaID)
	}
	return s.schemas.GetRevision(ctx, schemaID, max)
}

// ListSchemas returns the most recent revision of every schema ID. Deleted
// IDs never reappear here.
func (s *SchemaService) ListSchemas(ctx context.Context) ([]domain.UploadSchema, error) {
	return s.schemas.ListMostRecent(ctx)
}

func (s *SchemaService) DeleteSchemaRevision(ctx context.Context, schemaID string, revision int) error {
	return s.schemas.DeleteRevision(ctx, schemaID, revision)
}

func (s *SchemaService) DeleteSchemaAllRevisions(ctx context.Context, schemaID string) error {
	return s.schemas.DeleteAllRevisions(ctx, schemaID)
}

func validateSchema(s *domain.UploadSchema) error {
	if s.SchemaID == "" {
		return fmt.Errorf("%w: schema id is required", domain.ErrValidation)
	}
	if s.Name == "" {
		return fmt.Errorf("%w: schema name is required", domain.ErrValidation)
	}
	if s.SchemaType == "" {
		return fmt.Errorf("%w: schema type is required", domain.ErrValidation)
	}
	if s.Revision < 0 {
		return fmt.Errorf("%w: revision must not be negative", domain.ErrValidation)
	}
	if len(s.FieldDefinitions) == 0 {
		return fmt.Errorf("%w: at least one field definition is required", domain.ErrValidation)
	}
	for _, f := range s.FieldDefinitions {
		if f.Name == "" {
			return fmt.Errorf("%w: field definitions require a name", domain.ErrValidation)
		}
		if f.Type == "" {
			return fmt.Errorf("%w: field %q requires a type", domain.ErrValidation, f.Name)
		}
	}
	return nil
}
