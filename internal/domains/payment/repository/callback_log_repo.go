package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"evcharge-backend/internal/domains/payment/model"
	"evcharge-backend/pkg/database"
)

// callbackLogRepository ghi mọi callback (return, ipn, reconcile) kể cả chữ ký sai;
// đây là audit trail, không dùng cho idempotency
type callbackLogRepository struct {
	db database.DBTX
}

func NewCallbackLogRepository(db database.DBTX) CallbackLogRepository {
	return &callbackLogRepository{db: db}
}

func (r *callbackLogRepository) Create(ctx context.Context, log *model.CallbackLog) error {
	query := `
		INSERT INTO payment_callback_logs (
			id, source, txn_ref, params, signature_valid, outcome, response_code, received_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	paramsJSON, err := json.Marshal(log.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal callback params: %w", err)
	}

	_, err = r.db.Exec(ctx, query,
		log.ID,
		log.Source,
		log.TxnRef,
		paramsJSON,
		log.SignatureValid,
		string(log.Outcome),
		log.ResponseCode,
		log.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create callback log: %w", err)
	}

	return nil
}
