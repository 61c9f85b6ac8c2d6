package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"ActivityScheduler/internal/domain"
	"ActivityScheduler/internal/repo"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
	// defaultHistoryWindow backfills an unset start time.
	defaultHistoryWindow = 14 * 24 * time.Hour
)

type HistoryService struct {
	activities repo.ActivityRepo

	Now func() time.Time
}

func NewHistoryService(activities repo.ActivityRepo) *HistoryService {
	return &HistoryService{activities: activities, Now: time.Now}
}

// HistoryQuery selects a participant's instance history either by activity
// template GUID or by task identifier.
type HistoryQuery struct {
	ParticipantID  string
	ActivityGUID   *uuid.UUID
	TaskIdentifier *string
	Start          time.Time
	End            time.Time
	OffsetKey      string
	PageSize       int
}

// RequestParams echoes the parameters actually used to answer a query, so
// callers can observe server-applied defaults.
type RequestParams struct {
	ScheduledOnStart time.Time `json:"scheduled_on_start"`
	ScheduledOnEnd   time.Time `json:"scheduled_on_end"`
	PageSize         int       `json:"page_size"`
	OffsetKey        string    `json:"offset_key,omitempty"`
}

// HistoryResult is one forward-cursor page. NextPageOffsetKey is empty on
// the final page.
type HistoryResult struct {
	Items             []domain.ScheduledActivity `json:"items"`
	NextPageOffsetKey string                     `json:"next_page_offset_key,omitempty"`
	HasNext           bool                       `json:"has_next"`
	RequestParams     RequestParams              `json:"request_params"`
}

// GetHistory returns instances with scheduledOn in [start, end], ordered by
// scheduledOn then GUID. Following NextPageOffsetKey across calls yields the
// exact disjoint union of the result set. An empty window is an empty page,
// not an error.
func (s *HistoryService) GetHistory(ctx context.Context, q HistoryQuery) (*HistoryResult, error) {
	if (q.ActivityGUID == nil) == (q.TaskIdentifier == nil) {
		return nil, fmt.Errorf("%w: exactly one of activity guid or task identifier is required", domain.ErrValidation)
	}
	if q.End.IsZero() {
		q.End = s.Now()
	}
	if q.Start.IsZero() {
		q.Start = q.End.Add(-defaultHistoryWindow)
	}
	if q.End.Before(q.Start) {
		return nil, fmt.Errorf("%w: end time precedes start time", domain.ErrValidation)
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	page := repo.HistoryPage{
		ParticipantID:    q.ParticipantID,
		ActivityGUID:     q.ActivityGUID,
		TaskIdentifier:   q.TaskIdentifier,
		ScheduledOnStart: q.Start,
		ScheduledOnEnd:   q.End,
		Limit:            q.PageSize + 1,
	}
	if q.OffsetKey != "" {
		after, afterGUID, err := decodeOffsetKey(q.OffsetKey)
		if err != nil {
			return nil, err
		}
		page.AfterScheduledOn = &after
		page.AfterGUID = &afterGUID
	}

	items, err := s.activities.History(ctx, page)
	if err != nil {
		return nil, err
	}

	res := &HistoryResult{
		RequestParams: RequestParams{
			ScheduledOnStart: q.Start,
			ScheduledOnEnd:   q.End,
			PageSize:         q.PageSize,
			OffsetKey:        q.OffsetKey,
		},
	}
	if len(items) > q.PageSize {
		items = items[:q.PageSize]
		last := items[len(items)-1]
		res.HasNext = true
		res.NextPageOffsetKey = encodeOffsetKey(last.ScheduledOn, last.GUID)
	}
	res.Items = items
	return res, nil
}

// Offset keys are opaque to callers: (lastScheduledOn, lastGUID) base64
// encoded, so rows inserted or removed between pages cannot shift an
// in-flight pagination sequence.
func encodeOffsetKey(scheduledOn time.Time, guid uuid.UUID) string {
	raw := scheduledOn.UTC().Format(time.RFC3339Nano) + "|" + guid.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeOffsetKey(key string) (time.Time, uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(key)
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("%w: bad offset key", domain.ErrValidation)
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, uuid.Nil, fmt.Errorf("%w: bad offset key", domain.ErrValidation)
	}
	t, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("%w: bad offset key", domain.ErrValidation)
	}
	guid, err := uuid.Parse(parts[1])
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("%w: bad offset key", domain.ErrValidation)
	}
	return t, guid, nil
}
