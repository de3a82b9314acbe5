package shared

import "time"

// MarkResult là kết quả của các update có điều kiện dùng trong settlement
// (invoice -> paid, booking -> completed)
type MarkResult string

const (
	MarkOK          MarkResult = "ok"
	MarkAlreadyDone MarkResult = "already_done"
	MarkNotFound    MarkResult = "not_found"
)

// Asynq queues
const (
	QueuePayment = "payment"
	QueueInvoice = "invoice"
)

// Asynq task types
const (
	TypeExpirePaymentAttempts = "payment:expire_attempts"
	TypeGenerateInvoiceQR     = "invoice:generate_qr"
)

// ExpirePaymentAttemptsPayload là payload của task reconcile/expire
type ExpirePaymentAttemptsPayload struct {
	OlderThan   time.Duration `json:"olderThan"`
	TriggeredAt time.Time     `json:"triggeredAt"`
}

// GenerateInvoiceQRPayload được enqueue sau khi booking tạo invoice
type GenerateInvoiceQRPayload struct {
	InvoiceID string `json:"invoiceId"`
}
