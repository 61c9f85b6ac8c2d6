package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ActivityScheduler/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGSchemaRepo struct {
	db *pgxpool.Pool
}

func NewPGSchemaRepo(db *pgxpool.Pool) *PGSchemaRepo {
	return &PGSchemaRepo{db: db}
}

const schemaColumns = `schema_id, revision, version, name, schema_type, survey_guid,
	survey_created_on, field_definitions`

func (r *PGSchemaRepo) Insert(ctx context.Context, s *domain.UploadSchema) error {
	fields, err := json.Marshal(s.FieldDefinitions)
	if err != nil {
		return err
	}
	// The primary key on (schema_id, revision) is the CAS: of two racing
	// inserts of the same next revision, exactly one row lands.
	tag, err := r.db.Exec(ctx, `
		INSERT INTO upload_schemas
			(schema_id, revision, version, name, schema_type, survey_guid, survey_created_on, field_definitions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (schema_id, revision) DO NOTHING
	`, s.SchemaID, s.Revision, s.Version, s.Name, s.SchemaType, s.SurveyGUID, s.SurveyCreatedOn, fields)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: upload schema %s revision %d", domain.ErrConcurrentModification, s.SchemaID, s.Revision)
	}
	return nil
}

func (r *PGSchemaRepo) MaxRevision(ctx context.Context, schemaID string) (int, error) {
	var max int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(revision), 0) FROM upload_schemas WHERE schema_id = $1
	`, schemaID).Scan(&max)
	return max, err
}

func (r *PGSchemaRepo) GetRevision(ctx context.Context, schemaID string, revision int) (*domain.UploadSchema, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+schemaColumns+`
		FROM upload_schemas
		WHERE schema_id = $1 AND revision = $2
	`, schemaID, revision)
	return scanSchema(row)
}

func (r *PGSchemaRepo) ListRevisions(ctx context.Context, schemaID string) ([]domain.UploadSchema, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+schemaColumns+`
		FROM upload_schemas
		WHERE schema_id = $1
		ORDER BY revision
	`, schemaID)
	if err != nil {
		return nil, err
	}
	return collectSchemas(rows)
}

func (r *PGSchemaRepo) ListMostRecent(ctx context.Context) ([]domain.UploadSchema, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT ON (schema_id) `+schemaColumns+`
		FROM upload_schemas
		ORDER BY schema_id, revision DESC
	`)
	if err != nil {
		return nil, err
	}
	return collectSchemas(rows)
}

func (r *PGSchemaRepo) DeleteRevision(ctx context.Context, schemaID string, revision int) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM upload_schemas WHERE schema_id = $1 AND revision = $2
	`, schemaID, revision)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: upload schema %s revision %d", domain.ErrNotFound, schemaID, revision)
	}
	return nil
}

func (r *PGSchemaRepo) DeleteAllRevisions(ctx context.Context, schemaID string) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM upload_schemas WHERE schema_id = $1
	`, schemaID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: upload schema %s", domain.ErrNotFound, schemaID)
	}
	return nil
}

func collectSchemas(rows pgx.Rows) ([]domain.UploadSchema, error) {
	defer rows.Close()
	var res []domain.UploadSchema
	for rows.Next() {
		s, err := scanSchema(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *s)
	}
	return res, rows.Err()
}

func scanSchema(row pgx.Row) (*domain.UploadSchema, error) {
	var s domain.UploadSchema
	var fields []byte
	if err := row.Scan(
		&s.SchemaID, &s.Revision, &s.Version, &s.Name, &s.SchemaType,
		&s.SurveyGUID, &s.SurveyCreatedOn, &fields,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: upload schema", domain.ErrNotFound)
		}
		return nil, err
	}
	if err := json.Unmarshal(fields, &s.FieldDefinitions); err != nil {
		return nil, err
	}
	return &s, nil
}
