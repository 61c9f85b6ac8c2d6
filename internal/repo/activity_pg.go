package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ActivityScheduler/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGActivityRepo struct {
	db *pgxpool.Pool
}

func NewPGActivityRepo(db *pgxpool.Pool) *PGActivityRepo {
	return &PGActivityRepo{db: db}
}

const activityColumns = `guid, schedule_plan_guid, participant_id, activity, scheduled_on,
	expires_on, started_on, finished_on, client_data`

func (r *PGActivityRepo) InsertIfAbsent(ctx context.Context, a *domain.ScheduledActivity) (bool, error) {
	activity, err := json.Marshal(a.Activity)
	if err != nil {
		return false, err
	}
	taskID := a.TaskIdentifier()
	tag, err := r.db.Exec(ctx, `
		INSERT INTO scheduled_activities
			(guid, schedule_plan_guid, participant_id, activity, activity_guid, task_identifier,
			 scheduled_on, expires_on, started_on, finished_on, client_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (participant_id, schedule_plan_guid, activity_guid, scheduled_on) DO NOTHING
	`, a.GUID, a.SchedulePlanGUID, a.ParticipantID, activity, a.Activity.GUID, taskID,
		a.ScheduledOn, a.ExpiresOn, a.StartedOn, a.FinishedOn, a.ClientData)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGActivityRepo) Get(ctx context.Context, guid uuid.UUID) (*domain.ScheduledActivity, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+activityColumns+`
		FROM scheduled_activities
		WHERE guid = $1
	`, guid)
	return scanActivity(row)
}

func (r *PGActivityRepo) FindByKey(ctx context.Context, participantID string, planGUID, activityGUID uuid.UUID, scheduledOn time.Time) (*domain.ScheduledActivity, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+activityColumns+`
		FROM scheduled_activities
		WHERE participant_id = $1 AND schedule_plan_guid = $2 AND activity_guid = $3 AND scheduled_on = $4
	`, participantID, planGUID, activityGUID, scheduledOn)
	return scanActivity(row)
}

func (r *PGActivityRepo) ListWindow(ctx context.Context, participantID string, start, end time.Time) ([]domain.ScheduledActivity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+activityColumns+`
		FROM scheduled_activities
		WHERE participant_id = $1 AND scheduled_on >= $2 AND scheduled_on < $3
		ORDER BY scheduled_on, guid
	`, participantID, start, end)
	if err != nil {
		return nil, err
	}
	return collectActivities(rows)
}

func (r *PGActivityRepo) Update(ctx context.Context, participantID string, u domain.ActivityUpdate) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE scheduled_activities
		SET started_on  = COALESCE($3, started_on),
		    finished_on = COALESCE($4, finished_on),
		    client_data = COALESCE($5, client_data)
		WHERE guid = $1 AND participant_id = $2
	`, u.GUID, participantID, u.StartedOn, u.FinishedOn, u.ClientData)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: scheduled activity %s", domain.ErrNotFound, u.GUID)
	}
	return nil
}

func (r *PGActivityRepo) History(ctx context.Context, page HistoryPage) ([]domain.ScheduledActivity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM scheduled_activities
		WHERE participant_id = $1 AND scheduled_on >= $2 AND scheduled_on <= $3`
	args := []any{page.ParticipantID, page.ScheduledOnStart, page.ScheduledOnEnd}

	if page.ActivityGUID != nil {
		args = append(args, *page.ActivityGUID)
		query += fmt.Sprintf(" AND activity_guid = $%d", len(args))
	}
	if page.TaskIdentifier != nil {
		args = append(args, *page.TaskIdentifier)
		query += fmt.Sprintf(" AND task_identifier = $%d", len(args))
	}
	if page.AfterScheduledOn != nil && page.AfterGUID != nil {
		args = append(args, *page.AfterScheduledOn, *page.AfterGUID)
		query += fmt.Sprintf(" AND (scheduled_on, guid) > ($%d, $%d)", len(args)-1, len(args))
	}
	query += " ORDER BY scheduled_on, guid"
	if page.Limit > 0 {
		args = append(args, page.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectActivities(rows)
}

func collectActivities(rows pgx.Rows) ([]domain.ScheduledActivity, error) {
	defer rows.Close()
	var res []domain.ScheduledActivity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *a)
	}
	return res, rows.Err()
}

func scanActivity(row pgx.Row) (*domain.ScheduledActivity, error) {
	var a domain.ScheduledActivity
	var activity []byte
	if err := row.Scan(
		&a.GUID, &a.SchedulePlanGUID, &a.ParticipantID, &activity, &a.ScheduledOn,
		&a.ExpiresOn, &a.StartedOn, &a.FinishedOn, &a.ClientData,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: scheduled activity", domain.ErrNotFound)
		}
		return nil, err
	}
	if err := json.Unmarshal(activity, &a.Activity); err != nil {
		return nil, err
	}
	return &a, nil
}
