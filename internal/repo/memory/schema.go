package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ActivityScheduler/internal/domain"
)

type SchemaRepo struct {
	mu        sync.Mutex
	revisions map[string]map[int]domain.UploadSchema
}

func NewSchemaRepo() *SchemaRepo {
	return &SchemaRepo{revisions: make(map[string]map[int]domain.UploadSchema)}
}

func (r *SchemaRepo) Insert(_ context.Context, s *domain.UploadSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	revs := r.revisions[s.SchemaID]
	if revs == nil {
		revs = make(map[int]domain.UploadSchema)
		r.revisions[s.SchemaID] = revs
	}
	if _, taken := revs[s.Revision]; taken {
		return fmt.Errorf("%w: upload schema %s revision %d", domain.ErrConcurrentModification, s.SchemaID, s.Revision)
	}
	revs[s.Revision] = *s
	return nil
}

func (r *SchemaRepo) MaxRevision(_ context.Context, schemaID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for rev := range r.revisions[schemaID] {
		if rev > max {
			max = rev
		}
	}
	return max, nil
}

func (r *SchemaRepo) GetRevision(_ context.Context, schemaID string, revision int) (*domain.UploadSchema, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.revisions[schemaID][revision]
	if !ok {
		return nil, fmt.Errorf("%w: upload schema %s revision %d", domain.ErrNotFound, schemaID, revision)
	}
	return &s, nil
}

func (r *SchemaRepo) ListRevisions(_ context.Context, schemaID string) ([]domain.UploadSchema, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	revs := r.revisions[schemaID]
	out := make([]domain.UploadSchema, 0, len(revs))
	for _, s := range revs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Revision < out[j].Revision })
	return out, nil
}

func (r *SchemaRepo) ListMostRecent(_ context.Context) ([]domain.UploadSchema, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.UploadSchema
	for _, revs := range r.revisions {
		var latest *domain.UploadSchema
		for _, s := range revs {
			s := s
			if latest == nil || s.Revision > latest.Revision {
				latest = &s
			}
		}
		if latest != nil {
			out = append(out, *latest)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SchemaID < out[j].SchemaID })
	return out, nil
}

func (r *SchemaRepo) DeleteRevision(_ context.Context, schemaID string, revision int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	revs := r.revisions[schemaID]
	if _, ok := revs[revision]; !ok {
		return fmt.Errorf("%w: upload schema %s revision %d", domain.ErrNotFound, schemaID, revision)
	}
	delete(revs, revision)
	if len(revs) == 0 {
		delete(r.revisions, schemaID)
	}
	return nil
}

func (r *SchemaRepo) DeleteAllRevisions(_ context.Context, schemaID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.revisions[schemaID]) == 0 {
		return fmt.Errorf("%w: upload schema %s", domain.ErrNotFound, schemaID)
	}
	delete(r.revisions, schemaID)
	return nil
}
