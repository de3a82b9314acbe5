package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"evcharge-backend/pkg/database"
)

// postgresTransactionManager implements TransactionManager
type postgresTransactionManager struct {
	db database.TxBeginner
}

func NewPostgresTransactionManager(db database.TxBeginner) TransactionManager {
	return &postgresTransactionManager{db: db}
}

func (m *postgresTransactionManager) WithinTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return database.WithTransaction(ctx, m.db, fn)
}
