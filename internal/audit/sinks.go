package audit

import (
	"context"
	"strconv"

	"github.com/example/bizpanel/internal/domain/event"
	"github.com/example/bizpanel/internal/infrastructure/store"
)

const (
	AggregateType       = "Activity"
	EventActivityLogged = "ActivityLogged"
)

type activityAppender interface {
	Append(ctx context.Context, e store.ActivityEntry) error
}

// SQLSink writes to the activity_log table with its own statement, outside
// any sale transaction.
type SQLSink struct {
	store activityAppender
}

func NewSQLSink(activity activityAppender) *SQLSink {
	return &SQLSink{store: activity}
}

func (s *SQLSink) Record(ctx context.Context, e Event) error {
	return s.store.Append(ctx, store.ActivityEntry{
		UserID:    e.ActorID,
		Action:    e.Action,
		Detail:    e.Detail,
		Severity:  string(e.Severity),
		CreatedAt: e.At,
	})
}

type publisher interface {
	Publish(ctx context.Context, key string, payload any) error
}

// KafkaSink publishes events to the audit topic keyed by actor.
type KafkaSink struct {
	producer publisher
}

func NewKafkaSink(producer publisher) *KafkaSink {
	return &KafkaSink{producer: producer}
}

func (s *KafkaSink) Record(ctx context.Context, e Event) error {
	key := strconv.FormatInt(e.ActorID, 10)
	env, err := event.New(AggregateType, key, EventActivityLogged, e, e.At)
	if err != nil {
		return err
	}
	return s.producer.Publish(ctx, key, env)
}
