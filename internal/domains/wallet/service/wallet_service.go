package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	invoiceModel "evcharge-backend/internal/domains/invoice/model"
	paymentModel "evcharge-backend/internal/domains/payment/model"
	"evcharge-backend/internal/domains/wallet/model"
	"evcharge-backend/internal/domains/wallet/repository"
	"evcharge-backend/pkg/database"
	"evcharge-backend/pkg/logger"
)

// WalletTxnRefPrefix: txn_ref của payment_record khi trả bằng ví là WALLET-<invoice id>
const WalletTxnRefPrefix = "WALLET-"

const recentTransactionsLimit = 20

var errAlreadyPaid = errors.New("invoice already paid")

type walletService struct {
	repo     repository.WalletRepository
	invoices InvoiceLocker
	settler  Settler
	db       database.TxBeginner
	now      func() time.Time
}

func NewWalletService(
	repo repository.WalletRepository,
	invoices InvoiceLocker,
	settler Settler,
	db database.TxBeginner,
) Service {
	return &walletService{
		repo:     repo,
		invoices: invoices,
		settler:  settler,
		db:       db,
		now:      time.Now,
	}
}

// Get trả về số dư và các giao dịch gần nhất. User chưa có ví thì số dư = 0.
func (s *walletService) Get(ctx context.Context, userID uuid.UUID) (*model.WalletResponse, error) {
	resp := &model.WalletResponse{UserID: userID, Transactions: []model.Transaction{}}

	wallet, err := s.repo.Get(ctx, userID)
	switch {
	case errors.Is(err, model.ErrWalletNotFound):
		return resp, nil
	case err != nil:
		return nil, err
	}
	resp.Balance = wallet.Balance

	txns, err := s.repo.ListTransactions(ctx, userID, recentTransactionsLimit)
	if err != nil {
		return nil, err
	}
	resp.Transactions = txns
	return resp, nil
}

// TopUp cộng tiền vào ví của user (chỉ admin gọi, route đã chặn role)
func (s *walletService) TopUp(ctx context.Context, adminID, userID uuid.UUID, req model.TopUpRequest) (*model.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewWalletError(model.ErrCodeInvalidAmount, err.Error(), err)
	}

	reference := req.Reference
	if reference == "" {
		reference = model.TopUpReferencePrefix + uuid.NewString()
	}

	txn := &model.Transaction{
		UserID:    userID,
		Type:      model.TypeTopUp,
		Amount:    req.Amount,
		Reference: reference,
	}

	err := database.WithTransaction(ctx, s.db, func(tx pgx.Tx) error {
		balance, err := s.repo.CreditTx(ctx, tx, userID, req.Amount)
		if err != nil {
			return err
		}
		txn.BalanceAfter = balance
		return s.repo.InsertTransactionTx(ctx, tx, txn)
	})
	if err != nil {
		switch {
		case errors.Is(err, model.ErrDuplicateReference):
			return nil, model.NewWalletError(model.ErrCodeDuplicateReference, "reference already used", err)
		case errors.Is(err, model.ErrUserNotFound):
			return nil, model.NewWalletError(model.ErrCodeUserNotFound, "user not found", err)
		}
		logger.Error("Wallet top-up failed", err)
		return nil, err
	}

	logger.Info("Wallet topped up", map[string]interface{}{
		"admin_id":      adminID.String(),
		"user_id":       userID.String(),
		"amount":        req.Amount.String(),
		"balance_after": txn.BalanceAfter.String(),
		"reference":     reference,
	})

	return txn, nil
}

// PayInvoice trả invoice bằng số dư ví.
//
// Business Logic Flow (một transaction):
//  1. Lock invoice, kiểm tra chủ sở hữu và trạng thái unpaid
//  2. Lock ví, kiểm tra số dư >= amount rồi trừ tiền
//  3. Ghi wallet_transactions với reference WALLET-<invoice id>
//  4. SettleTx: payment_record (method wallet), invoice paid, booking completed
//
// Edge Cases:
//   - Invoice đã paid: trả AlreadyPaid, không trừ tiền lần nữa
//   - Unique violation ở bước 3 hoặc 4: rollback toàn bộ, trả AlreadyPaid
//   - Ví chưa tồn tại: coi như số dư 0
func (s *walletService) PayInvoice(ctx context.Context, userID uuid.UUID, req model.PayInvoiceRequest) (*model.PayInvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewWalletError(model.ErrCodeInvalidInput, err.Error(), err)
	}
	invoiceID := uuid.MustParse(req.InvoiceID)
	txnRef := WalletTxnRefPrefix + invoiceID.String()

	resp := &model.PayInvoiceResponse{InvoiceID: invoiceID, TxnRef: txnRef}

	err := database.WithTransaction(ctx, s.db, func(tx pgx.Tx) error {
		inv, err := s.invoices.GetForUpdateTx(ctx, tx, invoiceID)
		if err != nil {
			if errors.Is(err, invoiceModel.ErrInvoiceNotFound) {
				return model.ErrInvoiceNotFound
			}
			return err
		}
		if !inv.BelongsTo(userID) {
			return model.ErrForbidden
		}
		if inv.Status == invoiceModel.StatusPaid {
			return errAlreadyPaid
		}
		if !inv.IsPayable() {
			return model.ErrInvoiceNotPayable
		}

		wallet, err := s.repo.GetForUpdateTx(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, model.ErrWalletNotFound) {
				return model.ErrInsufficientBalance
			}
			return err
		}

		amount := inv.Amount.Round(0)
		if !wallet.CanAfford(amount) {
			return model.ErrInsufficientBalance
		}

		balance, err := s.repo.DebitTx(ctx, tx, userID, amount)
		if err != nil {
			return err
		}

		if err := s.repo.InsertTransactionTx(ctx, tx, &model.Transaction{
			UserID:       userID,
			Type:         model.TypePayment,
			Amount:       amount,
			BalanceAfter: balance,
			Reference:    txnRef,
		}); err != nil {
			if errors.Is(err, model.ErrDuplicateReference) {
				return errAlreadyPaid
			}
			return err
		}

		err = s.settler.SettleTx(ctx, tx, paymentModel.SettleInput{
			TxnRef:    txnRef,
			InvoiceID: inv.ID,
			BookingID: inv.BookingID,
			Method:    paymentModel.MethodWallet,
			Amount:    amount,
			PaidAt:    s.now(),
		})
		if errors.Is(err, paymentModel.ErrDuplicateRecord) || errors.Is(err, paymentModel.ErrInvoiceSettled) {
			return errAlreadyPaid
		}
		if err != nil {
			return err
		}

		resp.Balance = balance
		return nil
	})

	switch {
	case err == nil:
		logger.Info("Invoice paid with wallet", map[string]interface{}{
			"user_id":    userID.String(),
			"invoice_id": invoiceID.String(),
			"balance":    resp.Balance.String(),
		})
		return resp, nil
	case errors.Is(err, errAlreadyPaid):
		resp.AlreadyPaid = true
		if w, getErr := s.repo.Get(ctx, userID); getErr == nil {
			resp.Balance = w.Balance
		}
		return resp, nil
	case errors.Is(err, model.ErrInvoiceNotFound),
		errors.Is(err, model.ErrForbidden),
		errors.Is(err, model.ErrInvoiceNotPayable),
		errors.Is(err, model.ErrInsufficientBalance):
		return nil, err
	default:
		logger.ErrorWithFields("Wallet payment failed", err, map[string]interface{}{
			"user_id":    userID.String(),
			"invoice_id": invoiceID.String(),
		})
		return nil, err
	}
}
