package sale

import (
	"context"
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/example/bizpanel/internal/domain/event"
	"github.com/example/bizpanel/internal/domain/inventory"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/example/bizpanel/internal/domain/sale"

	DefaultTxTimeout = 10 * time.Second
)

// Store opens units of work against the sale and inventory tables.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one atomic unit of work. ReadStock must lock the product row (or
// otherwise serialize writers) until Commit or Rollback. Rollback after
// Commit, or a second Rollback, must be a no-op.
type Tx interface {
	// ReadStock returns inventory.ErrProductNotFound for unknown products.
	ReadStock(ctx context.Context, productID ProductID) (int, error)
	// DecrementStock returns an *inventory.InsufficientStockError instead of
	// letting stock go negative.
	DecrementStock(ctx context.Context, productID ProductID, quantity int) error
	InsertSale(ctx context.Context, s *Sale) (SaleID, error)
	InsertSaleLine(ctx context.Context, line SaleLine) error
	Commit() error
	Rollback() error
}

// EventPublisher delivers committed sale events to the bus.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Option func(*Service)

// WithTxTimeout bounds every unit of work. Expiry rolls the sale back.
func WithTxTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.txTimeout = d
		}
	}
}

// WithClock replaces the wall clock used for sale timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.clock = newMonotonicClock(now) }
}

func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// Service is the only writer of sales, sale lines and product stock.
type Service struct {
	store     Store
	publisher EventPublisher
	txTimeout time.Duration
	clock     *monotonicClock
	tracer    trace.Tracer
	recorded  metric.Int64Counter
	failed    metric.Int64Counter
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		txTimeout: DefaultTxTimeout,
		clock:     newMonotonicClock(time.Now),
		tracer:    otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}

	meter := otel.Meter(instrumentationName)
	var err error
	if s.recorded, err = meter.Int64Counter("sales.recorded",
		metric.WithDescription("Sales committed")); err != nil {
		s.recorded = noop.Int64Counter{}
	}
	if s.failed, err = meter.Int64Counter("sales.failed",
		metric.WithDescription("Sale attempts rolled back, by reason")); err != nil {
		s.failed = noop.Int64Counter{}
	}
	return s
}

// RecordSale persists cart as a sale sold by seller: header, lines and
// stock decrements commit together or not at all. The unit of work ignores
// caller cancellation and is bounded by the service timeout instead.
func (s *Service) RecordSale(ctx context.Context, cart Cart, seller EmployeeID) (SaleID, error) {
	if cart.Len() == 0 {
		return 0, &ValidationError{Line: -1, Err: ErrEmptyCart}
	}
	if cart.Buyer() <= 0 {
		return 0, &ValidationError{Line: -1, Field: "client_id", Err: ErrMissingClient}
	}
	if seller <= 0 {
		return 0, ErrUnknownEmployee
	}

	ctx, span := s.tracer.Start(ctx, "sale.record", trace.WithAttributes(
		attribute.Int64("sale.client_id", int64(cart.Buyer())),
		attribute.Int64("sale.employee_id", int64(seller)),
		attribute.Int("sale.lines", cart.Len()),
	))
	defer span.End()

	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.txTimeout)
	defer cancel()

	recorded, err := s.record(txCtx, cart, seller)
	if err != nil {
		reason := failureReason(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		s.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
		return 0, err
	}

	span.SetAttributes(
		attribute.Int64("sale.id", int64(recorded.ID)),
		attribute.String("sale.total", recorded.Total.StringFixed(2)),
	)
	s.recorded.Add(ctx, 1)
	s.publish(ctx, recorded)

	return recorded.ID, nil
}

func (s *Service) record(ctx context.Context, cart Cart, seller EmployeeID) (_ *Sale, err error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, &StorageError{Op: "begin", Err: err}
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("[Sales] Rollback failed: %v (cause: %v)", rbErr, err)
		}
	}()

	// Lock every product up front, lowest id first.
	ledger := inventory.NewLedger()
	for _, productID := range cart.ProductIDs() {
		onHand, err := tx.ReadStock(ctx, productID)
		if err != nil {
			return nil, s.classify(cart, productID, "read stock", err)
		}
		ledger.Load(inventory.Level{ProductID: int64(productID), OnHand: onHand})
	}

	for _, line := range cart.lines {
		if err := ledger.Take(int64(line.ProductID), line.Quantity); err != nil {
			return nil, err
		}
	}

	sale := newSale(cart, seller, s.clock.Now())
	id, err := tx.InsertSale(ctx, sale)
	if err != nil {
		return nil, &StorageError{Op: "insert sale", Err: err}
	}
	sale.ID = id

	for i := range sale.Lines {
		sale.Lines[i].SaleID = id
		line := sale.Lines[i]
		if err := tx.InsertSaleLine(ctx, line); err != nil {
			return nil, &StorageError{Op: "insert sale line", Err: err}
		}
		if err := tx.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			return nil, s.classify(cart, line.ProductID, "decrement stock", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, &StorageError{Op: "commit", Err: err}
	}
	committed = true
	return sale, nil
}

// classify keeps business outcomes typed and wraps everything else as a
// storage failure.
func (s *Service) classify(cart Cart, productID ProductID, op string, err error) error {
	var stockErr *inventory.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return stockErr
	case errors.Is(err, inventory.ErrProductNotFound):
		line := -1
		for i, l := range cart.lines {
			if l.ProductID == productID {
				line = i
				break
			}
		}
		return &ValidationError{Line: line, Field: "product_id", Value: strconv.FormatInt(int64(productID), 10), Err: ErrUnknownProduct}
	default:
		return &StorageError{Op: op, Err: err}
	}
}

func (s *Service) publish(ctx context.Context, recorded *Sale) {
	if s.publisher == nil {
		return
	}
	key := strconv.FormatInt(int64(recorded.ID), 10)
	env, err := event.New(AggregateType, key, EventSaleRecorded, saleRecorded(recorded), recorded.SoldAt)
	if err != nil {
		log.Printf("[Sales] Failed to build %s event for sale %d: %v", EventSaleRecorded, recorded.ID, err)
		return
	}
	if err := s.publisher.Publish(ctx, key, env); err != nil {
		log.Printf("[Sales] Failed to publish %s for sale %d: %v", EventSaleRecorded, recorded.ID, err)
	}
}

func failureReason(err error) string {
	var (
		validationErr *ValidationError
		storageErr    *StorageError
	)
	switch {
	case errors.As(err, &validationErr):
		return "validation"
	case errors.Is(err, inventory.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.As(err, &storageErr):
		return "storage"
	default:
		return "unknown"
	}
}

// monotonicClock never hands out a timestamp earlier than the previous one.
type monotonicClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func newMonotonicClock(now func() time.Time) *monotonicClock {
	return &monotonicClock{now: now}
}

func (c *monotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
