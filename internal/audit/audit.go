// Package audit records who did what in the panel. Recording is best
// effort: a failing sink is logged and never fails the caller.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Severity string

const (
	SeverityNormal Severity = "normal"
	SeverityError  Severity = "error"
)

const (
	ActionSaleCreated = "Sale created"
	ActionSaleFailed  = "Error creating sale"
)

// Event is one audit log entry. ActorID is the acting user, or 0 when the
// actor is unknown.
type Event struct {
	ID       string    `json:"id" dynamodbav:"id"`
	ActorID  int64     `json:"actor_id" dynamodbav:"actor_id"`
	Action   string    `json:"action" dynamodbav:"action"`
	Detail   string    `json:"detail" dynamodbav:"detail"`
	Severity Severity  `json:"severity" dynamodbav:"severity"`
	At       time.Time `json:"at" dynamodbav:"-"`
}

// Sink persists audit events somewhere.
type Sink interface {
	Record(ctx context.Context, e Event) error
}

// Recorder stamps events and hands them to a sink, swallowing failures.
type Recorder struct {
	sink    Sink
	timeout time.Duration
	now     func() time.Time
}

func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink, timeout: 5 * time.Second, now: time.Now}
}

// Record writes one event. The write is detached from caller cancellation
// so an aborted request still leaves its trail.
func (r *Recorder) Record(ctx context.Context, actor int64, action, detail string, severity Severity) {
	if r == nil || r.sink == nil {
		return
	}
	e := Event{
		ID:       uuid.New().String(),
		ActorID:  actor,
		Action:   action,
		Detail:   detail,
		Severity: severity,
		At:       r.now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	if err := r.sink.Record(ctx, e); err != nil {
		log.Printf("[Audit] Failed to record %q for user %d: %v", action, actor, err)
	}
}

// SaleCreatedDetail formats the detail line for a committed sale.
func SaleCreatedDetail(saleID, clientID, employeeID int64, total decimal.Decimal) string {
	return fmt.Sprintf("Sale ID: %d, Client ID: %d, Employee ID: %d, Total: %s",
		saleID, clientID, employeeID, total.StringFixed(2))
}

// SaleFailedDetail formats the detail line for a rejected sale.
func SaleFailedDetail(err error) string {
	return "Error: " + err.Error()
}

// Fanout records to every sink and joins their errors.
type Fanout []Sink

func (f Fanout) Record(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range f {
		if err := s.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes events to the process log. It is the fallback when no
// other sink is configured.
type LogSink struct{}

func (LogSink) Record(_ context.Context, e Event) error {
	log.Printf("[Audit] user=%d severity=%s action=%q detail=%q", e.ActorID, e.Severity, e.Action, e.Detail)
	return nil
}
