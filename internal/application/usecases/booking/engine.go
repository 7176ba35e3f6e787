package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"hotel/internal/domain/bookings"
	"hotel/internal/domain/inventory"
)

var tracer = otel.Tracer("hotel/booking")

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type BookingsRepo interface {
	InsertIfAbsent(ctx context.Context, booking bookings.Booking) error
	Get(ctx context.Context, id uuid.UUID) (bookings.Booking, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (bookings.Booking, error)
	Replace(ctx context.Context, booking bookings.Booking) error
	DeleteIfExists(ctx context.Context, id uuid.UUID) (bookings.Booking, error)
}

type IndexRepo interface {
	Upsert(ctx context.Context, entry bookings.IndexEntry) error
	Refresh(ctx context.Context, entry bookings.IndexEntry) error
	List(ctx context.Context) ([]bookings.IndexEntry, error)
}

// Ledger holds the nightly inventory counters. Reserve must check and increment in one
// atomic step and fail with bookings.ErrOverbooked when the result would exceed capacity.
type Ledger interface {
	Reserve(ctx context.Context, key inventory.Key, amount, capacity int) (inventory.Record, error)
	Release(ctx context.Context, key inventory.Key, amount int) (inventory.Record, error)
	Records(ctx context.Context, from, to bookings.Date) ([]inventory.Record, error)
}

//go:generate mockgen -destination=mocks/mock_event_publisher.go -package=mocks hotel/internal/application/usecases/booking EventPublisher
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

//go:generate mockgen -destination=mocks/mock_id_generator.go -package=mocks hotel/internal/application/usecases/booking IDGenerator
type IDGenerator interface {
	NewID(idempotencyKey string) uuid.UUID
}

type Config struct {
	Catalog             bookings.Catalog
	MaxTransactionItems int
	// RetryAttempts bounds how often a commit is retried after a serialization failure.
	RetryAttempts int
}

type Engine struct {
	catalog bookings.Catalog
	guard   SizeGuard
	retries int

	trManager TxManager
	bookings  BookingsRepo
	index     IndexRepo
	ledger    Ledger
	publisher EventPublisher
	ids       IDGenerator

	now func() time.Time
}

func NewEngine(
	config Config,
	trManager TxManager,
	bookingsRepo BookingsRepo,
	indexRepo IndexRepo,
	ledger Ledger,
	publisher EventPublisher,
	ids IDGenerator,
) *Engine {
	retries := config.RetryAttempts
	if retries < 1 {
		retries = 1
	}

	return &Engine{
		catalog:   config.Catalog,
		guard:     SizeGuard{Limit: config.MaxTransactionItems},
		retries:   retries,
		trManager: trManager,
		bookings:  bookingsRepo,
		index:     indexRepo,
		ledger:    ledger,
		publisher: publisher,
		ids:       ids,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (e *Engine) Catalog() bookings.Catalog {
	return e.catalog
}

// commit runs fn as one atomic unit and retries it as a whole on serialization failures.
func (e *Engine) commit(ctx context.Context, fn func(ctx context.Context) error) error {
	err := WithRetry(e.retries, func(ctx context.Context) error {
		return e.trManager.Do(ctx, fn)
	})(ctx)

	return classify(err)
}

// apply runs ledger ops in order and stops at the first failed reservation.
func (e *Engine) apply(ctx context.Context, ops []inventory.Op) error {
	for _, op := range ops {
		if op.IsReserve() {
			_, err := e.ledger.Reserve(ctx, op.Key, op.Amount, e.catalog.Capacity(op.RoomType))
			if err != nil {
				return overbooked(err)
			}

			continue
		}

		if _, err := e.ledger.Release(ctx, op.Key, -op.Amount); err != nil {
			return err
		}
	}

	return nil
}

// plan validates a request and returns its stay and room plan.
func (e *Engine) plan(req bookings.Request) (bookings.Stay, bookings.RoomPlan, error) {
	stay, err := bookings.ExpandStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return bookings.Stay{}, bookings.RoomPlan{}, err
	}

	plan, err := e.catalog.Aggregate(req.Rooms, req.Guests)
	if err != nil {
		return bookings.Stay{}, bookings.RoomPlan{}, err
	}

	return stay, plan, nil
}

func newBooking(req bookings.Request, stay bookings.Stay, plan bookings.RoomPlan, createdAt time.Time) bookings.Booking {
	rooms := make([]bookings.RoomType, len(req.Rooms))
	copy(rooms, req.Rooms)

	return bookings.Booking{
		ID:            req.ID,
		CreatedAt:     createdAt,
		Guests:        req.Guests,
		RoomTypes:     rooms,
		CheckIn:       stay.CheckIn,
		CheckOut:      stay.CheckOut,
		Nights:        stay.NightCount(),
		PerNightTotal: plan.PerNightTotal,
		TotalPrice:    plan.PerNightTotal.Mul(decimalFromInt(stay.NightCount())),
		Customer:      req.Customer,
	}
}

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
