package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

type ScheduleType string

const (
	ScheduleTypeOnce      ScheduleType = "once"
	ScheduleTypeRecurring ScheduleType = "recurring"
)

type ActivityType string

const (
	ActivityTypeTask   ActivityType = "task"
	ActivityTypeSurvey ActivityType = "survey"
)

type StrategyType string

const (
	StrategyTypeSimple StrategyType = "simple"
	StrategyTypeABTest StrategyType = "ab_test"
)

type TaskReference struct {
	Identifier string `json:"identifier"`
}

type SurveyReference struct {
	GUID      string     `json:"guid"`
	CreatedOn *time.Time `json:"created_on,omitempty"`
}

// Activity is an immutable template attached to a schedule. The GUID is
// assigned when the owning plan is created; every materialized instance of
// the template carries it, which is what history-by-activity queries key on.
type Activity struct {
	GUID   uuid.UUID        `json:"guid"`
	Label  string           `json:"label"`
	Task   *TaskReference   `json:"task,omitempty"`
	Survey *SurveyReference `json:"survey,omitempty"`
}

func (a Activity) Type() ActivityType {
	if a.Survey != nil {
		return ActivityTypeSurvey
	}
	return ActivityTypeTask
}

// Schedule describes when a plan's activities occur. Recurrence is driven
// either by interval+times or by a cron trigger, never both.
type Schedule struct {
	Label       string       `json:"label"`
	Type        ScheduleType `json:"schedule_type"`
	Delay       Period       `json:"delay,omitempty"`
	Interval    Period       `json:"interval,omitempty"`
	Expires     Period       `json:"expires,omitempty"`
	CronTrigger string       `json:"cron_trigger,omitempty"`
	Times       []string     `json:"times,omitempty"`
	Activities  []Activity   `json:"activities"`
}

// ScheduleGroup is one arm of an A/B test strategy.
type ScheduleGroup struct {
	Percentage int      `json:"percentage"`
	Schedule   Schedule `json:"schedule"`
}

// Strategy is a tagged variant: exactly one of Schedule (simple) or Groups
// (ab_test) is populated, selected by Type.
type Strategy struct {
	Type     StrategyType    `json:"type"`
	Schedule *Schedule       `json:"schedule,omitempty"`
	Groups   []ScheduleGroup `json:"groups,omitempty"`
}

// Schedules returns every schedule the strategy can produce.
func (s Strategy) Schedules() []Schedule {
	switch s.Type {
	case StrategyTypeSimple:
		if s.Schedule != nil {
			return []Schedule{*s.Schedule}
		}
	case StrategyTypeABTest:
		out := make([]Schedule, 0, len(s.Groups))
		for _, g := range s.Groups {
			out = append(out, g.Schedule)
		}
		return out
	}
	return nil
}

type SchedulePlan struct {
	GUID      uuid.UUID `json:"guid"`
	Label     string    `json:"label"`
	Strategy  Strategy  `json:"strategy"`
	CreatedAt time.Time `json:"created_at"`
}

// cronParser matches the field set the materialization loop parses with:
// seconds through day-of-week, '?' allowed.
var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate reports configuration errors at plan-creation time so the
// generator never sees a malformed schedule.
func (p *SchedulePlan) Validate() error {
	if p.Label == "" {
		return fmt.Errorf("%w: plan label is required", ErrValidation)
	}
	switch p.Strategy.Type {
	case StrategyTypeSimple:
		if p.Strategy.Schedule == nil {
			return fmt.Errorf("%w: simple strategy requires a schedule", ErrValidation)
		}
		if len(p.Strategy.Groups) > 0 {
			return fmt.Errorf("%w: simple strategy must not carry groups", ErrValidation)
		}
		return validateSchedule(*p.Strategy.Schedule)
	case StrategyTypeABTest:
		if p.Strategy.Schedule != nil {
			return fmt.Errorf("%w: ab_test strategy must not carry a bare schedule", ErrValidation)
		}
		if len(p.Strategy.Groups) == 0 {
			return fmt.Errorf("%w: ab_test strategy requires groups", ErrValidation)
		}
		total := 0
		for _, g := range p.Strategy.Groups {
			if g.Percentage <= 0 {
				return fmt.Errorf("%w: group percentage must be positive", ErrValidation)
			}
			total += g.Percentage
			if err := validateSchedule(g.Schedule); err != nil {
				return err
			}
		}
		if total != 100 {
			return fmt.Errorf("%w: group percentages must sum to 100, got %d", ErrValidation, total)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown strategy type %q", ErrValidation, p.Strategy.Type)
	}
}

func validateSchedule(s Schedule) error {
	switch s.Type {
	case ScheduleTypeOnce:
		if !s.Interval.IsZero() {
			return fmt.Errorf("%w: once schedule %q must not set an interval", ErrValidation, s.Label)
		}
	case ScheduleTypeRecurring:
		if s.CronTrigger != "" {
			if !s.Interval.IsZero() {
				return fmt.Errorf("%w: recurring schedule %q must use interval or cron, not both", ErrValidation, s.Label)
			}
			if _, err := cronParser.Parse(s.CronTrigger); err != nil {
				return fmt.Errorf("%w: bad cron trigger %q: %v", ErrValidation, s.CronTrigger, err)
			}
		} else {
			if s.Interval.IsZero() {
				return fmt.Errorf("%w: recurring schedule %q requires an interval", ErrValidation, s.Label)
			}
			if len(s.Times) == 0 {
				return fmt.Errorf("%w: recurring schedule %q requires at least one time of day", ErrValidation, s.Label)
			}
		}
	default:
		return fmt.Errorf("%w: unknown schedule type %q", ErrValidation, s.Type)
	}
	if len(s.Activities) == 0 {
		return fmt.Errorf("%w: schedule %q requires at least one activity", ErrValidation, s.Label)
	}
	for _, a := range s.Activities {
		if a.Task == nil && a.Survey == nil {
			return fmt.Errorf("%w: activity %q needs a task or survey reference", ErrValidation, a.Label)
		}
		if a.Task != nil && a.Task.Identifier == "" {
			return fmt.Errorf("%w: activity %q has an empty task identifier", ErrValidation, a.Label)
		}
	}
	for _, tod := range s.Times {
		if _, err := ParseTimeOfDay(tod); err != nil {
			return err
		}
	}
	return nil
}

// ParseTimeOfDay validates an "HH:MM" entry and returns its clock parts.
func ParseTimeOfDay(s string) (struct{ Hour, Minute int }, error) {
	var out struct{ Hour, Minute int }
	t, err := time.Parse("15:04", s)
	if err != nil {
		return out, fmt.Errorf("%w: bad time of day %q", ErrValidation, s)
	}
	out.Hour, out.Minute = t.Hour(), t.Minute()
	return out, nil
}
