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

type PGParticipantRepo struct {
	db *pgxpool.Pool
}

func NewPGParticipantRepo(db *pgxpool.Pool) *PGParticipantRepo {
	return &PGParticipantRepo{db: db}
}

func (r *PGParticipantRepo) Create(ctx context.Context, p *domain.Participant) error {
	roles, err := json.Marshal(p.Roles)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO participants (id, email, roles, enrolled_at)
		VALUES ($1, $2, $3, $4)
	`, p.ID, p.Email, roles, p.EnrolledAt)
	return err
}

func (r *PGParticipantRepo) Get(ctx context.Context, id string) (*domain.Participant, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, email, roles, enrolled_at
		FROM participants
		WHERE id = $1
	`, id)
	return scanParticipant(row)
}

func (r *PGParticipantRepo) List(ctx context.Context) ([]domain.Participant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, email, roles, enrolled_at
		FROM participants
		ORDER BY enrolled_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *p)
	}
	return res, rows.Err()
}

func scanParticipant(row pgx.Row) (*domain.Participant, error) {
	var p domain.Participant
	var roles []byte
	if err := row.Scan(&p.ID, &p.Email, &roles, &p.EnrolledAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: participant", domain.ErrNotFound)
		}
		return nil, err
	}
	if err := json.Unmarshal(roles, &p.Roles); err != nil {
		return nil, err
	}
	return &p, nil
}
