package booking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel/internal/application/usecases/booking"
	"hotel/internal/application/usecases/booking/mocks"
	"hotel/internal/domain/bookings"
	"hotel/internal/domain/inventory"
	"hotel/internal/idempotency"
	"hotel/internal/repository/memory"
)

type fixture struct {
	engine    *booking.Engine
	bookings  *memory.BookingsRepo
	index     *memory.IndexRepo
	ledger    *memory.InventoryRepo
	publisher *mocks.MockEventPublisher
}

func newFixture(t *testing.T, catalog bookings.Catalog, ids booking.IDGenerator) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockEventPublisher(ctrl)

	if ids == nil {
		idGenerator := mocks.NewMockIDGenerator(ctrl)
		idGenerator.EXPECT().
			NewID(gomock.Any()).
			DoAndReturn(func(string) uuid.UUID { return uuid.New() }).
			AnyTimes()
		ids = idGenerator
	}

	db := memory.New()
	f := &fixture{
		bookings:  memory.NewBookingsRepo(db),
		index:     memory.NewIndexRepo(db),
		ledger:    memory.NewInventoryRepo(db),
		publisher: publisher,
	}

	f.engine = booking.NewEngine(
		booking.Config{Catalog: catalog, MaxTransactionItems: 25, RetryAttempts: 3},
		db,
		f.bookings,
		f.index,
		f.ledger,
		publisher,
		ids,
	)

	return f
}

func (f *fixture) publishesAnything() {
	f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func (f *fixture) booked(t *testing.T, roomType bookings.RoomType, night bookings.Date) int {
	t.Helper()

	record, ok := f.ledger.Get(context.Background(), inventory.Key{RoomType: roomType, Night: night})
	if !ok {
		return 0
	}

	assert.LessOrEqual(t, record.Booked, record.Capacity)
	return record.Booked
}

func day(d int) bookings.Date {
	return bookings.NewDate(2024, time.January, d)
}

func request(guests int, checkIn, checkOut string, rooms ...bookings.RoomType) bookings.Request {
	return bookings.Request{
		Guests:   guests,
		Rooms:    rooms,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Customer: bookings.Customer{Name: "Ada Lovelace", Email: "ada@example.com"},
	}
}

func TestCreateBookingTwoSinglesForTwoNights(t *testing.T) {
	f := newFixture(t, bookings.DefaultCatalog(), nil)
	f.publisher.EXPECT().
		Publish(gomock.Any(), gomock.AssignableToTypeOf(bookings.BookingMade_v1{})).
		Return(nil)

	ctx := context.Background()

	confirmation, err := f.engine.CreateBooking(ctx, request(2, "2024-01-10", "2024-01-12", bookings.Single, bookings.Single))
	require.NoError(t, err)

	assert.Equal(t, 2, confirmation.Nights)
	assert.True(t, decimal.NewFromInt(1000).Equal(confirmation.PerNightTotal))
	assert.True(t, decimal.NewFromInt(2000).Equal(confirmation.TotalPrice))
	assert.Equal(t, day(10), confirmation.CheckIn)
	assert.Equal(t, day(12), confirmation.CheckOut)

	assert.Equal(t, 2, f.booked(t, bookings.Single, day(10)))
	assert.Equal(t, 2, f.booked(t, bookings.Single, day(11)))
	assert.Equal(t, 0, f.booked(t, bookings.Single, day(12)))

	require.Len(t, confirmation.Confirmation.Items, 1)
	item := confirmation.Confirmation.Items[0]
	assert.Equal(t, "single × 2", item.Label)
	assert.True(t, decimal.NewFromInt(500).Equal(item.UnitPrice))
	assert.True(t, decimal.NewFromInt(2000).Equal(item.Subtotal))
	assert.Equal(t, bookings.Currency, confirmation.Confirmation.Currency)

	entries, err := f.index.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, confirmation.ID, entries[0].BookingID)
}

func TestCreateBookingRejectsOverbookedNight(t *testing.T) {
	f := newFixture(t, bookings.DefaultCatalog(), nil)
	f.publishesAnything()

	ctx := context.Background()

	eightSingles := make([]bookings.RoomType, 8)
	for i := range eightSingles {
		eightSingles[i] = bookings.Single
	}
	full, err := f.engine.CreateBooking(ctx, request(8, "2024-01-11", "2024-01-12", eightSingles...))
	require.NoError(t, err)
	require.Equal(t, 8, f.booked(t, bookings.Single, day(11)))

	_, err = f.engine.CreateBooking(ctx, request(1, "2024-01-10", "2024-01-12", bookings.Single))
	require.Error(t, err)
	assert.ErrorIs(t, err, bookings.ErrOverbooked)
	assert.NotContains(t, err.Error(), "2024-01-11")

	var overbookedErr *bookings.OverbookedError
	require.ErrorAs(t, err, &overbookedErr)
	assert.Contains(t, overbookedErr.Diagnostics(), "single#2024-01-11")

	// the reservation for the first night was rolled back
	assert.Equal(t, 0, f.booked(t, bookings.Single, day(10)))
	assert.Equal(t, 8, f.booked(t, bookings.Single, day(11)))

	entries, err := f.index.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, full.ID, entries[0].BookingID)
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t, bookings.DefaultCatalog(), nil)
	f.publishesAnything()

	ctx := context.Background()

	created, err := f.engine.CreateBooking(ctx, request(3, "2024-01-10", "2024-01-12", bookings.Single, bookings.Double))
	require.NoError(t, err)

	cancelled, err := f.engine.CancelBooking(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Booking, cancelled)

	for _, night := range []bookings.Date{day(10), day(11)} {
		assert.Equal(t, 0, f.booked(t, bookings.Single, night))
		assert.Equal(t, 0, f.booked(t, bookings.Double, night))
	}

	_, err = f.engine.CancelBooking(ctx, created.ID)
	assert.ErrorIs(t, err, bookings.ErrBookingNotFound)

	_, err = f.engine.GetBooking(ctx, created.ID)
	assert.ErrorIs(t, err, bookings.ErrBookingNotFound)
}

func TestCreateBookingLastRoomGoesToExactlyOneRequest(t *testing.T) {
	catalog := bookings.NewCatalog(map[bookings.RoomType]int{
		bookings.Single: 8,
		bookings.Double: 8,
		bookings.Suite:  1,
	}, bookings.DefaultMaxRoomsPerBooking)

	f := newFixture(t, catalog, nil)
	f.publishesAnything()

	const workers = 16

	var (
		wg         sync.WaitGroup
		start      = make(chan struct{})
		mu         sync.Mutex
		succeeded  int
		overbooked int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			_, err := f.engine.CreateBooking(context.Background(), request(3, "2024-01-10", "2024-01-11", bookings.Suite))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, bookings.ErrOverbooked):
				overbooked++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, overbooked)
	assert.Equal(t, 1, f.booked(t, bookings.Suite, day(10)))

	summaries, err := f.engine.ListBookings(context.Background())
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestCreateBookingFailedCommitLeavesNoTrace(t *testing.T) {
	f := newFixture(t, bookings.DefaultCatalog(), nil)
	f.publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		Return(errors.New("connection reset by peer"))

	ctx := context.Background()
	id := uuid.New()

	req := request(2, "2024-01-10", "2024-01-12", bookings.Double)
	req.ID = id

	_, err := f.engine.CreateBooking(ctx, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, bookings.ErrStoreUnavailable)

	_, err = f.bookings.Get(ctx, id)
	assert.ErrorIs(t, err, bookings.ErrBookingNotFound)

	entries, err := f.index.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, touched := f.ledger.Get(ctx, inventory.Key{RoomType: bookings.Double, Night: day(10)})
	assert.False(t, touched)
}

func TestCreateBookingTransactionSizeBoundary(t *testing.T) {
	f := newFixture(t, bookings.DefaultCatalog(), nil)
	f.publishesAnything()

	ctx := context.Background()

	// 23 nights x 1 room type + 2 = 25
	confirmation, err := f.engine.CreateBooking(ctx, request(1, "2024-01-01", "2024-01-24", bookings.Single))
	require.NoError(t, err)
	assert.Equal(t, 23, confirmation.Nights)

	// 24 nights x 1 room type + 2 = 26
	_, err = f.engine.CreateBooking(ctx, request(1, "2024-02-01", "2024-02-25", bookings.Single))
	require.Error(t, err)
	assert.ErrorIs(t, err, bookings.ErrBookingTooLarge)

	var tooLarge *bookings.BookingTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, 26, tooLarge.Operations)
	assert.Equal(t, 25, tooLarge.Limit)

	_, touched := f.ledger.Get(ctx, inventory.Key{RoomType: bookings.Single, Night: bookings.NewDate(2024, time.February, 1)})
	assert.False(t, touched)

	// 12 nights x 2 room types + 2 = 26
	_, err = f.engine.CreateBooking(ctx, request(3, "2024-03-01", "2024-03-13", bookings.Single, bookings.Double))
	assert.ErrorIs(t, err, bookings.ErrBookingTooLarge)
}

func TestCreateBookingValidation(t *testing.T) {
	testCases := []struct {
		name string
		req  bookings.Request
		kind error
	}{
		{
			name: "unknown room type",
			req:  request(1, "2024-01-10", "2024-01-11", bookings.RoomType("penthouse")),
			kind: bookings.ErrUnknownRoomType,
		},
		{
			name: "not a calendar date",
			req:  request(1, "2024-02-30", "2024-03-02", bookings.Single),
			kind: bookings.ErrInvalidDate,
		},
		{
			name: "loose date format",
			req:  request(1, "2024-1-10", "2024-01-12", bookings.Single),
			kind: bookings.ErrInvalidDate,
		},
		{
			name: "check-out before check-in",
			req:  request(1, "2024-01-12", "2024-01-10", bookings.Single),
			kind: bookings.ErrInvalidRange,
		},
		{
			name: "zero nights",
			req:  request(1, "2024-01-12", "2024-01-12", bookings.Single),
			kind: bookings.ErrInvalidRange,
		},
		{
			name: "not enough beds",
			req:  request(4, "2024-01-10", "2024-01-11", bookings.Single, bookings.Double),
			kind: bookings.ErrNotEnoughBeds,
		},
		{
			name: "too many rooms",
			req:  request(21, "2024-01-10", "2024-01-11", make21Singles()...),
			kind: bookings.ErrTooManyRooms,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, bookings.DefaultCatalog(), nil)

			_, err := f.engine.CreateBooking(context.Background(), tc.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, bookings.ErrValidation)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
}

func make21Singles() []bookings.RoomType {
	rooms := make([]bookings.RoomType, 21)
	for i := range rooms {
		rooms[i] = bookings.Single
	}
	return rooms
}

func TestCreateBookingSurplusBedsAreAllowed(t *testing.T) {
	f := newFixture(t, bookings.DefaultCatalog(), nil)
	f.publishesAnything()

	confirmation, err := f.engine.CreateBooking(context.Background(), request(1, "2024-01-10", "2024-01-11", bookings.Suite))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1500).Equal(confirmation.TotalPrice))
}

func TestGetBookingRoundTrip(t *testing.T) {
	f := newFixture(t, bookings.DefaultCatalog(), nil)
	f.publishesAnything()

	ctx := context.Background()

	created, err := f.engine.CreateBooking(ctx, request(6, "2024-01-10", "2024-01-15", bookings.Suite, bookings.Double, bookings.Single))
	require.NoError(t, err)

	stored, err := f.engine.GetBooking(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, 5, stored.Nights)
	assert.True(t, decimal.NewFromInt(3000).Equal(stored.PerNightTotal))
	assert.True(t, stored.PerNightTotal.Mul(decimal.NewFromInt(int64(stored.Nights))).Equal(stored.TotalPrice))
	assert.Equal(t, created.Customer, stored.Customer)
}

func TestCreateBookingReplayedIdempotencyKey(t *testing.T) {
	f := newFixture(t, bookings.DefaultCatalog(), booking.UUIDGenerator{})
	f.publisher.EXPECT().
		Publish(gomock.Any(), gomock.AssignableToTypeOf(bookings.BookingMade_v1{})).
		Return(nil).
		Times(1)

	ctx := idempotency.WithKey(context.Background(), "checkout-42")
	req := request(2, "2024-01-10", "2024-01-12", bookings.Double)

	first, err := f.engine.CreateBooking(ctx, req)
	require.NoError(t, err)

	second, err := f.engine.CreateBooking(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Confirmation, second.Confirmation)
	assert.Equal(t, 1, f.booked(t, bookings.Double, day(10)))

	entries, err := f.index.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCreateBookingIdempotencyKeyReusedAfterCancel(t *testing.T) {
	f := newFixture(t, bookings.DefaultCatalog(), booking.UUIDGenerator{})
	f.publishesAnything()

	ctx := idempotency.WithKey(context.Background(), "checkout-42")

	first, err := f.engine.CreateBooking(ctx, request(2, "2024-01-10", "2024-01-12", bookings.Double))
	require.NoError(t, err)

	_, err = f.engine.CancelBooking(ctx, first.ID)
	require.NoError(t, err)

	second, err := f.engine.CreateBooking(ctx, request(3, "2024-01-11", "2024-01-13", bookings.Single, bookings.Double))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	summaries, err := f.engine.ListBookings(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, second.ID, summaries[0].ID)
	assert.Equal(t, 3, summaries[0].Guests)

	assert.Equal(t, 0, f.booked(t, bookings.Double, day(10)))
	assert.Equal(t, 1, f.booked(t, bookings.Double, day(11)))
}

func TestCreateBookingDuplicateIDWithoutIdempotencyKey(t *testing.T) {
	f := newFixture(t, bookings.DefaultCatalog(), nil)
	f.publishesAnything()

	ctx := context.Background()

	req := request(1, "2024-01-10", "2024-01-11", bookings.Single)
	req.ID = uuid.New()

	_, err := f.engine.CreateBooking(ctx, req)
	require.NoError(t, err)

	_, err = f.engine.CreateBooking(ctx, req)
	assert.ErrorIs(t, err, bookings.ErrDuplicateBooking)
	assert.Equal(t, 1, f.booked(t, bookings.Single, day(10)))
}

func TestAmendBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("moves the ledger with the dates", func(t *testing.T) {
		f := newFixture(t, bookings.DefaultCatalog(), nil)
		f.publishesAnything()

		created, err := f.engine.CreateBooking(ctx, request(2, "2024-01-10", "2024-01-12", bookings.Double))
		require.NoError(t, err)

		amended, err := f.engine.AmendBooking(ctx, created.ID, bookings.Amendment{
			CheckIn:  pointer.ToString("2024-01-11"),
			CheckOut: pointer.ToString("2024-01-14"),
		})
		require.NoError(t, err)

		assert.Equal(t, 3, amended.Nights)
		assert.True(t, decimal.NewFromInt(3000).Equal(amended.TotalPrice))
		assert.Equal(t, created.CreatedAt, amended.CreatedAt)
		require.NotNil(t, amended.UpdatedAt)

		assert.Equal(t, 0, f.booked(t, bookings.Double, day(10)))
		assert.Equal(t, 1, f.booked(t, bookings.Double, day(11)))
		assert.Equal(t, 1, f.booked(t, bookings.Double, day(12)))
		assert.Equal(t, 1, f.booked(t, bookings.Double, day(13)))

		entries, err := f.index.List(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, day(11), entries[0].CheckIn)
		assert.True(t, decimal.NewFromInt(3000).Equal(entries[0].TotalPrice))
	})

	t.Run("swaps room types", func(t *testing.T) {
		f := newFixture(t, bookings.DefaultCatalog(), nil)
		f.publishesAnything()

		created, err := f.engine.CreateBooking(ctx, request(2, "2024-01-10", "2024-01-11", bookings.Single, bookings.Single))
		require.NoError(t, err)

		amended, err := f.engine.AmendBooking(ctx, created.ID, bookings.Amendment{
			Rooms: []bookings.RoomType{bookings.Double},
		})
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(1000).Equal(amended.TotalPrice))

		assert.Equal(t, 0, f.booked(t, bookings.Single, day(10)))
		assert.Equal(t, 1, f.booked(t, bookings.Double, day(10)))
	})

	t.Run("rejects an amendment that overbooks and keeps the booking", func(t *testing.T) {
		catalog := bookings.NewCatalog(map[bookings.RoomType]int{
			bookings.Single: 8,
			bookings.Double: 8,
			bookings.Suite:  1,
		}, bookings.DefaultMaxRoomsPerBooking)

		f := newFixture(t, catalog, nil)
		f.publishesAnything()

		_, err := f.engine.CreateBooking(ctx, request(3, "2024-01-12", "2024-01-13", bookings.Suite))
		require.NoError(t, err)

		created, err := f.engine.CreateBooking(ctx, request(2, "2024-01-10", "2024-01-12", bookings.Double))
		require.NoError(t, err)

		_, err = f.engine.AmendBooking(ctx, created.ID, bookings.Amendment{
			Rooms:    []bookings.RoomType{bookings.Suite},
			CheckOut: pointer.ToString("2024-01-13"),
		})
		assert.ErrorIs(t, err, bookings.ErrOverbooked)

		stored, err := f.engine.GetBooking(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Booking, stored)
		assert.Equal(t, 1, f.booked(t, bookings.Double, day(10)))
		assert.Equal(t, 1, f.booked(t, bookings.Double, day(11)))
		assert.Equal(t, 0, f.booked(t, bookings.Suite, day(10)))
	})

	t.Run("re-validates the merged booking", func(t *testing.T) {
		f := newFixture(t, bookings.DefaultCatalog(), nil)
		f.publishesAnything()

		created, err := f.engine.CreateBooking(ctx, request(2, "2024-01-10", "2024-01-11", bookings.Double))
		require.NoError(t, err)

		_, err = f.engine.AmendBooking(ctx, created.ID, bookings.Amendment{Guests: pointer.ToInt(3)})
		assert.ErrorIs(t, err, bookings.ErrNotEnoughBeds)
	})

	t.Run("empty amendment", func(t *testing.T) {
		f := newFixture(t, bookings.DefaultCatalog(), nil)

		_, err := f.engine.AmendBooking(ctx, uuid.New(), bookings.Amendment{})
		assert.ErrorIs(t, err, bookings.ErrValidation)
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newFixture(t, bookings.DefaultCatalog(), nil)

		_, err := f.engine.AmendBooking(ctx, uuid.New(), bookings.Amendment{Guests: pointer.ToInt(1)})
		assert.ErrorIs(t, err, bookings.ErrBookingNotFound)
	})
}

func TestListBookings(t *testing.T) {
	f := newFixture(t, bookings.DefaultCatalog(), nil)
	f.publishesAnything()

	ctx := context.Background()

	first, err := f.engine.CreateBooking(ctx, request(2, "2024-01-10", "2024-01-11", bookings.Double))
	require.NoError(t, err)
	second, err := f.engine.CreateBooking(ctx, request(1, "2024-01-10", "2024-01-11", bookings.Double))
	require.NoError(t, err)
	third, err := f.engine.CreateBooking(ctx, request(1, "2024-01-10", "2024-01-11", bookings.Single))
	require.NoError(t, err)

	_, err = f.engine.CancelBooking(ctx, second.ID)
	require.NoError(t, err)

	summaries, err := f.engine.ListBookings(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, first.ID, summaries[0].ID)
	assert.Equal(t, 2, summaries[0].TotalCapacity)
	assert.True(t, summaries[0].CapacityMatchesGuests)

	assert.Equal(t, third.ID, summaries[1].ID)
	assert.True(t, summaries[1].CapacityMatchesGuests)
}

func TestAvailability(t *testing.T) {
	f := newFixture(t, bookings.DefaultCatalog(), nil)
	f.publishesAnything()

	ctx := context.Background()

	_, err := f.engine.CreateBooking(ctx, request(4, "2024-01-10", "2024-01-11", bookings.Double, bookings.Double))
	require.NoError(t, err)

	records, err := f.engine.Availability(ctx, "2024-01-10", "2024-01-12")
	require.NoError(t, err)
	require.Len(t, records, 6)

	byKey := make(map[inventory.Key]inventory.Record)
	for _, record := range records {
		byKey[record.Key()] = record
	}

	double := byKey[inventory.Key{RoomType: bookings.Double, Night: day(10)}]
	assert.Equal(t, 2, double.Booked)
	assert.Equal(t, 6, double.Available())

	suite := byKey[inventory.Key{RoomType: bookings.Suite, Night: day(11)}]
	assert.Equal(t, 0, suite.Booked)
	assert.Equal(t, 4, suite.Capacity)

	_, err = f.engine.Availability(ctx, "2024-01-12", "2024-01-10")
	assert.ErrorIs(t, err, bookings.ErrInvalidRange)
}
