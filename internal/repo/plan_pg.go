package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ActivityScheduler/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGPlanRepo struct {
	db *pgxpool.Pool
}

func NewPGPlanRepo(db *pgxpool.Pool) *PGPlanRepo {
	return &PGPlanRepo{db: db}
}

func (r *PGPlanRepo) Create(ctx context.Context, plan *domain.SchedulePlan) error {
	strategy, err := json.Marshal(plan.Strategy)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO schedule_plans (guid, label, strategy, created_at)
		VALUES ($1, $2, $3, $4)
	`, plan.GUID, plan.Label, strategy, plan.CreatedAt)
	return err
}

func (r *PGPlanRepo) Get(ctx context.Context, guid uuid.UUID) (*domain.SchedulePlan, error) {
	row := r.db.QueryRow(ctx, `
		SELECT guid, label, strategy, created_at
		FROM schedule_plans
		WHERE guid = $1
	`, guid)
	return scanPlan(row)
}

func (r *PGPlanRepo) List(ctx context.Context) ([]domain.SchedulePlan, error) {
	rows, err := r.db.Query(ctx, `
		SELECT guid, label, strategy, created_at
		FROM schedule_plans
		ORDER BY created_at, guid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.SchedulePlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *p)
	}
	return res, rows.Err()
}

func (r *PGPlanRepo) Delete(ctx context.Context, guid uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM schedule_plans WHERE guid = $1`, guid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: schedule plan %s", domain.ErrNotFound, guid)
	}
	return nil
}

func scanPlan(row pgx.Row) (*domain.SchedulePlan, error) {
	var p domain.SchedulePlan
	var strategy []byte
	if err := row.Scan(&p.GUID, &p.Label, &strategy, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: schedule plan", domain.ErrNotFound)
		}
		return nil, err
	}
	if err := json.Unmarshal(strategy, &p.Strategy); err != nil {
		return nil, err
	}
	return &p, nil
}
