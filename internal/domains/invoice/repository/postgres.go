package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"evcharge-backend/internal/domains/invoice/model"
	"evcharge-backend/internal/shared"
	"evcharge-backend/pkg/database"
)

type postgresInvoiceRepository struct {
	db database.DBTX
}

func NewPostgresInvoiceRepository(db database.DBTX) InvoiceRepository {
	return &postgresInvoiceRepository{db: db}
}

const invoiceColumns = `id, code, booking_id, user_id, amount, status, paid_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (*model.Invoice, error) {
	inv := &model.Invoice{}
	err := row.Scan(
		&inv.ID,
		&inv.Code,
		&inv.BookingID,
		&inv.UserID,
		&inv.Amount,
		&inv.Status,
		&inv.PaidAt,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrInvoiceNotFound
		}
		return nil, err
	}
	return inv, nil
}

// =====================================================
// WRITE
// =====================================================

func (r *postgresInvoiceRepository) CreateTx(ctx context.Context, tx pgx.Tx, invoice *model.Invoice) error {
	query := `
		INSERT INTO invoices (id, code, booking_id, user_id, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		invoice.ID,
		invoice.Code,
		invoice.BookingID,
		invoice.UserID,
		invoice.Amount,
		invoice.Status,
	).Scan(&invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (r *postgresInvoiceRepository) MarkInvoicePaid(ctx context.Context, tx pgx.Tx, id uuid.UUID, paidAt time.Time) (shared.MarkResult, error) {
	query := `
		UPDATE invoices
		SET status = 'paid', paid_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'unpaid'
	`

	result, err := tx.Exec(ctx, query, id, paidAt)
	if err != nil {
		return "", fmt.Errorf("failed to mark invoice paid: %w", err)
	}
	if result.RowsAffected() == 1 {
		return shared.MarkOK, nil
	}

	// 0 rows: không tồn tại hoặc đã paid/cancelled
	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM invoices WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.MarkNotFound, nil
		}
		return "", fmt.Errorf("failed to read invoice status: %w", err)
	}
	return shared.MarkAlreadyDone, nil
}

func (r *postgresInvoiceRepository) CancelTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	query := `
		UPDATE invoices
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'unpaid'
	`

	result, err := tx.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to cancel invoice: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// =====================================================
// READ
// =====================================================

func (r *postgresInvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

	inv, err := scanInvoice(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, model.ErrInvoiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return inv, nil
}

func (r *postgresInvoiceRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE booking_id = $1`

	inv, err := scanInvoice(r.db.QueryRow(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, model.ErrInvoiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get invoice by booking: %w", err)
	}
	return inv, nil
}

func (r *postgresInvoiceRepository) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 FOR UPDATE`

	inv, err := scanInvoice(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, model.ErrInvoiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to lock invoice: %w", err)
	}
	return inv, nil
}

func (r *postgresInvoiceRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]*model.Invoice, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM invoices WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]*model.Invoice, 0, limit)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	return invoices, total, nil
}

// =====================================================
// QR CODES
// =====================================================

func (r *postgresInvoiceRepository) GetQRCode(ctx context.Context, invoiceID uuid.UUID) (*model.QRCode, error) {
	query := `SELECT id, invoice_id, object_key, url, created_at FROM qr_codes WHERE invoice_id = $1`

	qr := &model.QRCode{}
	err := r.db.QueryRow(ctx, query, invoiceID).Scan(&qr.ID, &qr.InvoiceID, &qr.ObjectKey, &qr.URL, &qr.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrQRCodeNotFound
		}
		return nil, fmt.Errorf("failed to get qr code: %w", err)
	}
	return qr, nil
}

func (r *postgresInvoiceRepository) UpsertQRCode(ctx context.Context, qr *model.QRCode) error {
	query := `
		INSERT INTO qr_codes (id, invoice_id, object_key, url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (invoice_id) DO UPDATE
		SET object_key = EXCLUDED.object_key, url = EXCLUDED.url
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, qr.ID, qr.InvoiceID, qr.ObjectKey, qr.URL).Scan(&qr.ID, &qr.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert qr code: %w", err)
	}
	return nil
}
