package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"evcharge-backend/internal/domains/wallet/model"
	"evcharge-backend/pkg/database"
)

type postgresWalletRepository struct {
	db database.DBTX
}

func NewPostgresWalletRepository(db database.DBTX) WalletRepository {
	return &postgresWalletRepository{db: db}
}

func scanWallet(row pgx.Row) (*model.Wallet, error) {
	w := &model.Wallet{}
	if err := row.Scan(&w.UserID, &w.Balance, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrWalletNotFound
		}
		return nil, err
	}
	return w, nil
}

func (r *postgresWalletRepository) Get(ctx context.Context, userID uuid.UUID) (*model.Wallet, error) {
	query := `SELECT user_id, balance, updated_at FROM wallets WHERE user_id = $1`
	return scanWallet(r.db.QueryRow(ctx, query, userID))
}

func (r *postgresWalletRepository) GetForUpdateTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*model.Wallet, error) {
	query := `SELECT user_id, balance, updated_at FROM wallets WHERE user_id = $1 FOR UPDATE`
	return scanWallet(tx.QueryRow(ctx, query, userID))
}

func (r *postgresWalletRepository) CreditTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	query := `
		INSERT INTO wallets (user_id, balance, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET balance = wallets.balance + EXCLUDED.balance, updated_at = NOW()
		RETURNING balance
	`

	var balance decimal.Decimal
	if err := tx.QueryRow(ctx, query, userID, amount).Scan(&balance); err != nil {
		if database.IsForeignKeyViolation(err) {
			return decimal.Zero, model.ErrUserNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to credit wallet: %w", err)
	}
	return balance, nil
}

func (r *postgresWalletRepository) DebitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	// balance >= $2 giữ CHECK (balance >= 0) không bao giờ bị vi phạm
	query := `
		UPDATE wallets
		SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2
		RETURNING balance
	`

	var balance decimal.Decimal
	err := tx.QueryRow(ctx, query, userID, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, model.ErrInsufficientBalance
		}
		return decimal.Zero, fmt.Errorf("failed to debit wallet: %w", err)
	}
	return balance, nil
}

func (r *postgresWalletRepository) InsertTransactionTx(ctx context.Context, tx pgx.Tx, txn *model.Transaction) error {
	query := `
		INSERT INTO wallet_transactions (user_id, type, amount, balance_after, reference)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := tx.QueryRow(ctx, query, txn.UserID, txn.Type, txn.Amount, txn.BalanceAfter, txn.Reference).
		Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return model.ErrDuplicateReference
		}
		return fmt.Errorf("failed to insert wallet transaction: %w", err)
	}
	return nil
}

func (r *postgresWalletRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]model.Transaction, error) {
	query := `
		SELECT id, user_id, type, amount, balance_after, reference, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet transactions: %w", err)
	}
	defer rows.Close()

	txns := make([]model.Transaction, 0)
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.BalanceAfter, &t.Reference, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
