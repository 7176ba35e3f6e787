package repository

import (
	"context"
	"database/sql"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2"
	trmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/avito-tech/go-transaction-manager/trm/v2/settings"
	"github.com/jmoiron/sqlx"
)

// TxManager runs the commit unit in one PostgreSQL transaction. Reservations rely on row
// locks taken by conditional upserts, so READ COMMITTED is enough.
type TxManager struct {
	manager  *trmanager.Manager
	settings trm.Settings
}

func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{
		manager: trmanager.Must(trmsqlx.NewDefaultFactory(db)),
		settings: trmsql.MustSettings(
			settings.Must(settings.WithCancelable(true)),
			trmsql.WithTxOptions(&sql.TxOptions{Isolation: sql.LevelReadCommitted}),
		),
	}
}

func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.manager.DoWithSettings(ctx, m.settings, fn)
}
