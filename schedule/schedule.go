package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/xraph/trigger"
	"github.com/xraph/trigger/event"
	"github.com/xraph/trigger/job"
	"github.com/xraph/trigger/runio"
)

// Type is the kind of a schedule.
type Type string

const (
	TypeCron     Type = "cron"
	TypeInterval Type = "interval"
)

// Interval bounds accepted by the backend.
const (
	MinInterval = time.Minute
	MaxInterval = 30 * 24 * time.Hour
)

// cronParser supports standard 5-field cron and descriptors like "@every 30s".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// Options carries the type-specific settings of a schedule.
type Options struct {
	Cron    string `json:"cron,omitempty"`
	Seconds int    `json:"seconds,omitempty"`
}

// Metadata is a schedule as registered with the backend.
type Metadata struct {
	Type    Type    `json:"type"`
	Options Options `json:"options"`
}

// Cron returns cron schedule metadata.
func Cron(expr string) Metadata {
	return Metadata{Type: TypeCron, Options: Options{Cron: expr}}
}

// Interval returns interval schedule metadata, truncated to whole seconds.
func Interval(d time.Duration) Metadata {
	return Metadata{Type: TypeInterval, Options: Options{Seconds: int(d / time.Second)}}
}

// Validate reports whether the backend would accept m.
func (m Metadata) Validate() error {
	switch m.Type {
	case TypeCron:
		if _, err := cronParser.Parse(m.Options.Cron); err != nil {
			return fmt.Errorf("%w: cron %q: %w", trigger.ErrInvalidSchedule, m.Options.Cron, err)
		}
	case TypeInterval:
		d := time.Duration(m.Options.Seconds) * time.Second
		if d < MinInterval || d > MaxInterval {
			return fmt.Errorf("%w: interval %ds outside [%s, %s]", trigger.ErrInvalidSchedule, m.Options.Seconds, MinInterval, MaxInterval)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", trigger.ErrInvalidSchedule, m.Type)
	}
	return nil
}

// Next returns the first firing time of m after from.
func (m Metadata) Next(from time.Time) (time.Time, error) {
	if err := m.Validate(); err != nil {
		return time.Time{}, err
	}
	if m.Type == TypeInterval {
		return from.Add(time.Duration(m.Options.Seconds) * time.Second), nil
	}
	s, err := cronParser.Parse(m.Options.Cron)
	if err != nil {
		return time.Time{}, err
	}
	return s.Next(from), nil
}

// ScheduledEventName is the event the backend sends when a schedule fires.
const ScheduledEventName = "trigger.scheduled"

// ScheduledPayload is the payload of a scheduled event.
type ScheduledPayload struct {
	Timestamp     time.Time       `json:"ts"`
	LastTimestamp *time.Time      `json:"lastTimestamp,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

// ScheduledEvent returns the specification of the scheduled event.
func ScheduledEvent() *event.Specification {
	s := event.NewSpecification[ScheduledPayload](ScheduledEventName, "trigger.dev", nil)
	s.Title = "Schedule"
	s.Icon = "schedule-interval"
	return s
}

// DynamicSchedule is a schedule whose concrete registrations are created
// at runtime, one per registration key.
type DynamicSchedule struct {
	ID string
}

// NewDynamicSchedule creates a dynamic schedule.
func NewDynamicSchedule(id string) *DynamicSchedule {
	return &DynamicSchedule{ID: id}
}

// Trigger returns the event trigger for jobs run by this schedule.
func (s *DynamicSchedule) Trigger() *job.EventTrigger {
	return job.NewEventTrigger(ScheduledEvent(), nil)
}

// Register validates m and registers it under key as a task of the
// calling run.
func (s *DynamicSchedule) Register(ctx context.Context, rio *runio.IO, key string, m Metadata) (json.RawMessage, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return rio.RegisterSchedule(ctx, "register-schedule-"+key, s.ID, key, m)
}

// Unregister removes the registration key.
func (s *DynamicSchedule) Unregister(ctx context.Context, rio *runio.IO, key string) error {
	return rio.UnregisterSchedule(ctx, "unregister-schedule-"+key, s.ID, key)
}
