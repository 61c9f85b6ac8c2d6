package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ScheduleStatus string

const (
	StatusScheduled ScheduleStatus = "scheduled"
	StatusStarted   ScheduleStatus = "started"
	StatusFinished  ScheduleStatus = "finished"
	StatusExpired   ScheduleStatus = "expired"
)

// ScheduledActivity is one materialized instance of an activity template at a
// concrete time for one participant. Instances are never physically deleted;
// finished and expired ones stay visible to history queries.
type ScheduledActivity struct {
	GUID             uuid.UUID       `json:"guid"`
	SchedulePlanGUID uuid.UUID       `json:"schedule_plan_guid"`
	ParticipantID    string          `json:"participant_id"`
	Activity         Activity        `json:"activity"`
	ScheduledOn      time.Time       `json:"scheduled_on"`
	ExpiresOn        *time.Time      `json:"expires_on,omitempty"`
	StartedOn        *time.Time      `json:"started_on,omitempty"`
	FinishedOn       *time.Time      `json:"finished_on,omitempty"`
	ClientData       json.RawMessage `json:"client_data,omitempty"`
}

// Status derives the lifecycle state from the stored timestamps. It is never
// persisted, so stored state and reported status cannot diverge.
func (a *ScheduledActivity) Status(now time.Time) ScheduleStatus {
	switch {
	case a.FinishedOn != nil:
		return StatusFinished
	case a.StartedOn != nil:
		return StatusStarted
	case a.ExpiresOn != nil && now.After(*a.ExpiresOn):
		return StatusExpired
	default:
		return StatusScheduled
	}
}

// TaskIdentifier returns the referenced task id, or "" for survey activities.
func (a *ScheduledActivity) TaskIdentifier() string {
	if a.Activity.Task == nil {
		return ""
	}
	return a.Activity.Task.Identifier
}

// ActivityUpdate is a partial, merge-only state change keyed by instance
// GUID. Nil fields leave the stored value untouched.
type ActivityUpdate struct {
	GUID       uuid.UUID       `json:"guid"`
	StartedOn  *time.Time      `json:"started_on,omitempty"`
	FinishedOn *time.Time      `json:"finished_on,omitempty"`
	ClientData json.RawMessage `json:"client_data,omitempty"`
}
