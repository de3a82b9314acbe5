package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"

	"evcharge-backend/internal/domains/invoice/model"
	"evcharge-backend/internal/domains/invoice/repository"
	"evcharge-backend/pkg/logger"
)

// ObjectUploader là phần object storage mà invoice cần
type ObjectUploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type Service interface {
	// CreateForBooking creates the unpaid invoice inside the booking transaction
	CreateForBooking(ctx context.Context, tx pgx.Tx, bookingID, userID uuid.UUID, amount decimal.Decimal) (*model.Invoice, error)

	GetForUser(ctx context.Context, userID, invoiceID uuid.UUID) (*model.InvoiceResponse, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) (*model.ListInvoicesResponse, error)

	// GetQRCode trả URL ảnh QR, render + upload ở lần gọi đầu tiên
	GetQRCode(ctx context.Context, userID, invoiceID uuid.UUID) (*model.QRCodeResponse, error)

	// GenerateQRCode render ảnh QR và lưu vào storage (dùng bởi job)
	GenerateQRCode(ctx context.Context, invoiceID uuid.UUID) (*model.QRCode, error)
}

type invoiceService struct {
	repo    repository.InvoiceRepository
	storage ObjectUploader
	now     func() time.Time
}

func NewInvoiceService(repo repository.InvoiceRepository, storage ObjectUploader) Service {
	return &invoiceService{
		repo:    repo,
		storage: storage,
		now:     time.Now,
	}
}

const qrSize = 256

func (s *invoiceService) CreateForBooking(ctx context.Context, tx pgx.Tx, bookingID, userID uuid.UUID, amount decimal.Decimal) (*model.Invoice, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, model.NewInvoiceError(model.ErrCodeInvalidInput, "invoice amount must be positive", nil)
	}

	code, err := generateCode(s.now())
	if err != nil {
		return nil, err
	}

	inv := &model.Invoice{
		ID:        uuid.New(),
		Code:      code,
		BookingID: bookingID,
		UserID:    userID,
		Amount:    amount,
		Status:    model.StatusUnpaid,
	}
	if err := s.repo.CreateTx(ctx, tx, inv); err != nil {
		return nil, err
	}

	return inv, nil
}

func (s *invoiceService) GetForUser(ctx context.Context, userID, invoiceID uuid.UUID) (*model.InvoiceResponse, error) {
	inv, err := s.loadOwned(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	resp := model.ToInvoiceResponse(inv)
	return &resp, nil
}

func (s *invoiceService) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) (*model.ListInvoicesResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	invoices, total, err := s.repo.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	out := make([]model.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, model.ToInvoiceResponse(inv))
	}

	return &model.ListInvoicesResponse{
		Invoices: out,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}

func (s *invoiceService) GetQRCode(ctx context.Context, userID, invoiceID uuid.UUID) (*model.QRCodeResponse, error) {
	if _, err := s.loadOwned(ctx, userID, invoiceID); err != nil {
		return nil, err
	}

	qr, err := s.repo.GetQRCode(ctx, invoiceID)
	if err != nil {
		if !errors.Is(err, model.ErrQRCodeNotFound) {
			return nil, err
		}
		qr, err = s.GenerateQRCode(ctx, invoiceID)
		if err != nil {
			return nil, err
		}
	}

	return &model.QRCodeResponse{InvoiceID: invoiceID, URL: qr.URL}, nil
}

func (s *invoiceService) GenerateQRCode(ctx context.Context, invoiceID uuid.UUID) (*model.QRCode, error) {
	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(QRContent(inv), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}

	key := QRObjectKey(inv.ID)
	url, err := s.storage.Upload(ctx, key, png, "image/png")
	if err != nil {
		return nil, fmt.Errorf("failed to upload qr code: %w", err)
	}

	qr := &model.QRCode{
		ID:        uuid.New(),
		InvoiceID: inv.ID,
		ObjectKey: key,
		URL:       url,
	}
	if err := s.repo.UpsertQRCode(ctx, qr); err != nil {
		return nil, err
	}

	logger.Info("Invoice QR code generated", map[string]interface{}{
		"invoice_id": inv.ID.String(),
		"object_key": key,
	})

	return qr, nil
}

func (s *invoiceService) loadOwned(ctx context.Context, userID, invoiceID uuid.UUID) (*model.Invoice, error) {
	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.BelongsTo(userID) {
		return nil, model.ErrForbidden
	}
	return inv, nil
}

// QRContent là nội dung mã QR: CODE|AMOUNT
func QRContent(inv *model.Invoice) string {
	return inv.Code + "|" + inv.Amount.StringFixed(0)
}

func QRObjectKey(invoiceID uuid.UUID) string {
	return "invoices/" + invoiceID.String() + "/qr.png"
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// generateCode: INV-20261014-7KQ2XM
func generateCode(now time.Time) (string, error) {
	var b strings.Builder
	b.WriteString(model.CodePrefix)
	b.WriteByte('-')
	b.WriteString(now.Format("20060102"))
	b.WriteByte('-')

	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate invoice code: %w", err)
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
