package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evcharge-backend/internal/domains/payment/model"
)

var attemptCols = []string{
	"id", "txn_ref", "invoice_id", "amount", "state", "response_code",
	"client_ip", "order_info", "created_at", "updated_at",
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestAttemptRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	attempt := &model.PaymentAttempt{
		ID:        uuid.New(),
		TxnRef:    "INV-0001-20261014102900-ab12",
		InvoiceID: uuid.New(),
		Amount:    decimal.NewFromInt(500000),
		State:     model.AttemptStateCreated,
		ClientIP:  "127.0.0.1",
		OrderInfo: "Thanh toan hoa don INV-0001",
		CreatedAt: now,
	}

	t.Run("inserts attempt", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery("INSERT INTO payment_attempts").
			WithArgs(attempt.ID, attempt.TxnRef, attempt.InvoiceID, attempt.Amount, attempt.State,
				attempt.ClientIP, attempt.OrderInfo, attempt.CreatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(now))

		err := NewAttemptRepository(mock).Create(ctx, attempt)
		require.NoError(t, err)
		assert.Equal(t, now, attempt.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate txn_ref", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery("INSERT INTO payment_attempts").
			WithArgs(attempt.ID, attempt.TxnRef, attempt.InvoiceID, attempt.Amount, attempt.State,
				attempt.ClientIP, attempt.OrderInfo, attempt.CreatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "payment_attempts_txn_ref_key"})

		err := NewAttemptRepository(mock).Create(ctx, attempt)
		assert.ErrorIs(t, err, model.ErrDuplicateTxnRef)
	})
}

func TestAttemptRepository_GetByTxnRef(t *testing.T) {
	ctx := context.Background()
	id, invoiceID := uuid.New(), uuid.New()
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery("SELECT (.+) FROM payment_attempts WHERE txn_ref").
			WithArgs("INV-1").
			WillReturnRows(pgxmock.NewRows(attemptCols).AddRow(
				id, "INV-1", invoiceID, decimal.NewFromInt(500000), model.AttemptStateAwaitingCallback,
				(*string)(nil), "127.0.0.1", "Thanh toan", now, now,
			))

		a, err := NewAttemptRepository(mock).GetByTxnRef(ctx, "INV-1")
		require.NoError(t, err)
		assert.Equal(t, id, a.ID)
		assert.Equal(t, invoiceID, a.InvoiceID)
		assert.True(t, a.Amount.Equal(decimal.NewFromInt(500000)))
		assert.Nil(t, a.ResponseCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery("SELECT (.+) FROM payment_attempts WHERE txn_ref").
			WithArgs("missing").
			WillReturnError(pgx.ErrNoRows)

		_, err := NewAttemptRepository(mock).GetByTxnRef(ctx, "missing")
		assert.ErrorIs(t, err, model.ErrAttemptNotFound)
	})
}

func TestAttemptRepository_ConditionalUpdates(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("mark failure only from awaiting_callback", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec("UPDATE payment_attempts SET state = 'verified_failure'").
			WithArgs("INV-1", "24").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec("UPDATE payment_attempts SET state = 'verified_failure'").
			WithArgs("INV-1", "24").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := NewAttemptRepository(mock)
		changed, err := repo.MarkFailure(ctx, "INV-1", "24")
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = repo.MarkFailure(ctx, "INV-1", "24")
		require.NoError(t, err)
		assert.False(t, changed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mark expired", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec("UPDATE payment_attempts SET state = 'expired'").
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		changed, err := NewAttemptRepository(mock).MarkExpired(ctx, id)
		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("mark awaiting requires created", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec("UPDATE payment_attempts SET state = 'awaiting_callback'").
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := NewAttemptRepository(mock).MarkAwaiting(ctx, id)
		assert.ErrorIs(t, err, model.ErrAttemptNotFound)
	})

	t.Run("mark success inside tx", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE payment_attempts SET state = 'verified_success'").
			WithArgs("INV-1", "00").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		err := NewPostgresTransactionManager(mock).WithinTx(ctx, func(tx pgx.Tx) error {
			return NewAttemptRepository(mock).MarkSuccessTx(ctx, tx, "INV-1", "00")
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAttemptRepository_ListStale(t *testing.T) {
	ctx := context.Background()
	cutoff := time.Now().Add(-15 * time.Minute)
	created := cutoff.Add(-time.Minute)

	mock := newMock(t)
	mock.ExpectQuery("FROM payment_attempts WHERE state = 'awaiting_callback' AND created_at <").
		WithArgs(cutoff, 100).
		WillReturnRows(pgxmock.NewRows(attemptCols).
			AddRow(uuid.New(), "INV-1", uuid.New(), decimal.NewFromInt(1000), model.AttemptStateAwaitingCallback,
				(*string)(nil), "127.0.0.1", "a", created, created).
			AddRow(uuid.New(), "INV-2", uuid.New(), decimal.NewFromInt(2000), model.AttemptStateAwaitingCallback,
				(*string)(nil), "127.0.0.1", "b", created, created))

	attempts, err := NewAttemptRepository(mock).ListStale(ctx, cutoff, 100)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, "INV-1", attempts[0].TxnRef)
	assert.Equal(t, "INV-2", attempts[1].TxnRef)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepository_CountRecentForInvoice(t *testing.T) {
	ctx := context.Background()
	invoiceID := uuid.New()
	since := time.Now().Add(-15 * time.Minute)

	mock := newMock(t)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(invoiceID, since).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	n, err := NewAttemptRepository(mock).CountRecentForInvoice(ctx, invoiceID, since)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRecordRepository_InsertTx(t *testing.T) {
	ctx := context.Background()
	record := &model.PaymentRecord{
		ID:        uuid.New(),
		TxnRef:    "INV-1",
		InvoiceID: uuid.New(),
		Method:    model.MethodVNPay,
		Amount:    decimal.NewFromInt(500000),
	}
	recordArgs := []interface{}{
		record.ID, record.TxnRef, record.InvoiceID, record.Method, record.Amount,
		pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
	}

	t.Run("first insert wins", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO payment_records").
			WithArgs(recordArgs...).
			WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		mock.ExpectCommit()

		err := NewPostgresTransactionManager(mock).WithinTx(ctx, func(tx pgx.Tx) error {
			return NewRecordRepository(mock).InsertTx(ctx, tx, record)
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	duplicates := []struct {
		constraint string
		want       error
	}{
		{"payment_records_txn_ref_key", model.ErrDuplicateRecord},
		{"payment_records_invoice_id_key", model.ErrInvoiceSettled},
	}
	for _, tt := range duplicates {
		t.Run("duplicate "+tt.constraint, func(t *testing.T) {
			mock := newMock(t)
			mock.ExpectBegin()
			mock.ExpectQuery("INSERT INTO payment_records").
				WithArgs(recordArgs...).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})
			mock.ExpectRollback()

			err := NewPostgresTransactionManager(mock).WithinTx(ctx, func(tx pgx.Tx) error {
				return NewRecordRepository(mock).InsertTx(ctx, tx, record)
			})
			assert.ErrorIs(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRecordRepository_ListBetween(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	mock := newMock(t)
	mock.ExpectQuery("FROM payment_records pr JOIN invoices").
		WithArgs(from, to).
		WillReturnRows(pgxmock.NewRows([]string{
			"txn_ref", "code", "method", "amount", "gateway_transaction_no", "bank_code", "pay_date", "created_at",
		}).AddRow("INV-1", "INV-0001", model.MethodVNPay, decimal.NewFromInt(500000), "14226112", "NCB", "20261014103000", from))

	rows, err := NewRecordRepository(mock).ListBetween(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "INV-0001", rows[0].InvoiceCode)
	assert.Equal(t, "NCB", rows[0].BankCode)
}

func TestCallbackLogRepository_Create(t *testing.T) {
	ctx := context.Background()
	txnRef := "INV-1"

	mock := newMock(t)
	mock.ExpectExec("INSERT INTO payment_callback_logs").
		WithArgs(pgxmock.AnyArg(), model.SourceIPN, &txnRef, pgxmock.AnyArg(), false,
			string(model.OutcomeInvalidSignature), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := NewCallbackLogRepository(mock).Create(ctx, &model.CallbackLog{
		ID:             uuid.New(),
		Source:         model.SourceIPN,
		TxnRef:         &txnRef,
		Params:         map[string]string{"vnp_TxnRef": txnRef},
		SignatureValid: false,
		Outcome:        model.OutcomeInvalidSignature,
		ReceivedAt:     time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
