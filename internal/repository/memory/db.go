package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"hotel/internal/domain/bookings"
	"hotel/internal/domain/inventory"
)

type transaction struct {
	rollbackActions []func()
	afterCommit     []func()
}

// DB keeps bookings, the index and the inventory ledger in process memory.
// A transaction holds the lock from start to commit, so transactions are serialized.
type DB struct {
	mu        sync.Mutex
	bookings  map[uuid.UUID]bookings.Booking
	index     []bookings.IndexEntry
	inventory map[inventory.Key]inventory.Record
}

func New() *DB {
	return &DB{
		bookings:  make(map[uuid.UUID]bookings.Booking),
		inventory: make(map[inventory.Key]inventory.Record),
	}
}

// Do runs fn in a transaction. Writes made by fn are undone when fn returns an error or panics.
// Nested calls join the outer transaction.
func (db *DB) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := transactionFromContext(ctx); ok {
		return fn(ctx)
	}

	trx := &transaction{}

	db.mu.Lock()
	committed := false
	defer func() {
		if !committed {
			trx.rollback()
		}
		db.mu.Unlock()

		if committed {
			for _, action := range trx.afterCommit {
				action()
			}
		}
	}()

	if err = fn(withTransaction(ctx, trx)); err != nil {
		return err
	}

	committed = true
	return nil
}

// AfterCommit schedules action to run once the transaction in ctx commits.
// Without a transaction the action runs immediately.
func (db *DB) AfterCommit(ctx context.Context, action func()) {
	trx, ok := transactionFromContext(ctx)
	if !ok {
		action()
		return
	}

	trx.afterCommit = append(trx.afterCommit, action)
}

func (t *transaction) rollback() {
	for i := len(t.rollbackActions) - 1; i >= 0; i-- {
		t.rollbackActions[i]()
	}
	t.rollbackActions = nil
}

func (t *transaction) onRollback(action func()) {
	t.rollbackActions = append(t.rollbackActions, action)
}

// write runs fn inside the transaction from ctx, or in its own one when there is none.
func (db *DB) write(ctx context.Context, fn func(trx *transaction) error) error {
	if trx, ok := transactionFromContext(ctx); ok {
		return fn(trx)
	}

	return db.Do(ctx, func(ctx context.Context) error {
		trx, _ := transactionFromContext(ctx)
		return fn(trx)
	})
}

func (db *DB) read(ctx context.Context, fn func()) {
	if _, ok := transactionFromContext(ctx); ok {
		fn()
		return
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	fn()
}

func (db *DB) Ping(context.Context) error {
	return nil
}
