package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	invoiceModel "evcharge-backend/internal/domains/invoice/model"
	"evcharge-backend/internal/domains/payment/model"
	"evcharge-backend/internal/shared"
)

// =====================================================
// IN-MEMORY REPOSITORIES
// =====================================================

type fakeAttemptRepo struct {
	mu       sync.Mutex
	attempts map[string]*model.PaymentAttempt
}

func newFakeAttemptRepo(attempts ...*model.PaymentAttempt) *fakeAttemptRepo {
	r := &fakeAttemptRepo{attempts: map[string]*model.PaymentAttempt{}}
	for _, a := range attempts {
		r.attempts[a.TxnRef] = a
	}
	return r
}

func (r *fakeAttemptRepo) state(txnRef string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts[txnRef].State
}

func (r *fakeAttemptRepo) Create(ctx context.Context, a *model.PaymentAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.attempts[a.TxnRef]; ok {
		return model.ErrDuplicateTxnRef
	}
	cp := *a
	r.attempts[a.TxnRef] = &cp
	return nil
}

func (r *fakeAttemptRepo) GetByTxnRef(ctx context.Context, txnRef string) (*model.PaymentAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[txnRef]
	if !ok {
		return nil, model.ErrAttemptNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAttemptRepo) MarkAwaiting(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.ID == id && a.State == model.AttemptStateCreated {
			a.State = model.AttemptStateAwaitingCallback
			return nil
		}
	}
	return model.ErrAttemptNotFound
}

func (r *fakeAttemptRepo) transition(txnRef, from, to, code string) bool {
	a, ok := r.attempts[txnRef]
	if !ok || a.State != from {
		return false
	}
	a.State = to
	if code != "" {
		a.ResponseCode = &code
	}
	return true
}

func (r *fakeAttemptRepo) MarkFailure(ctx context.Context, txnRef, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transition(txnRef, model.AttemptStateAwaitingCallback, model.AttemptStateVerifiedFailure, code), nil
}

func (r *fakeAttemptRepo) MarkSuccessTx(ctx context.Context, tx pgx.Tx, txnRef, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[txnRef]
	if !ok || a.State == model.AttemptStateVerifiedSuccess {
		return model.ErrAttemptNotFound
	}
	a.State = model.AttemptStateVerifiedSuccess
	a.ResponseCode = &code
	return nil
}

func (r *fakeAttemptRepo) MarkExpired(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.ID == id {
			return r.transition(a.TxnRef, model.AttemptStateAwaitingCallback, model.AttemptStateExpired, ""), nil
		}
	}
	return false, nil
}

func (r *fakeAttemptRepo) ListStale(ctx context.Context, before time.Time, limit int) ([]*model.PaymentAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PaymentAttempt
	for _, a := range r.attempts {
		if a.State == model.AttemptStateAwaitingCallback && a.CreatedAt.Before(before) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sortAttempts(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeAttemptRepo) CountRecentForInvoice(ctx context.Context, invoiceID uuid.UUID, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.attempts {
		if a.InvoiceID == invoiceID && !a.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func sortAttempts(a []*model.PaymentAttempt) {
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && a[j].CreatedAt.Before(a[j-1].CreatedAt); j-- {
			a[j], a[j-1] = a[j-1], a[j]
		}
	}
}

type fakeRecordRepo struct {
	mu        sync.Mutex
	byTxnRef  map[string]*model.PaymentRecord
	byInvoice map[uuid.UUID]*model.PaymentRecord
	rows      []model.PaymentRecordRow
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{
		byTxnRef:  map[string]*model.PaymentRecord{},
		byInvoice: map[uuid.UUID]*model.PaymentRecord{},
	}
}

func (r *fakeRecordRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byTxnRef)
}

func (r *fakeRecordRepo) InsertTx(ctx context.Context, tx pgx.Tx, rec *model.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byTxnRef[rec.TxnRef]; ok {
		return model.ErrDuplicateRecord
	}
	if _, ok := r.byInvoice[rec.InvoiceID]; ok {
		return model.ErrInvoiceSettled
	}
	r.byTxnRef[rec.TxnRef] = rec
	r.byInvoice[rec.InvoiceID] = rec
	return nil
}

func (r *fakeRecordRepo) GetByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*model.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byInvoice[invoiceID]
	if !ok {
		return nil, model.ErrRecordNotFound
	}
	return rec, nil
}

func (r *fakeRecordRepo) ListBetween(ctx context.Context, from, to time.Time) ([]model.PaymentRecordRow, error) {
	return r.rows, nil
}

type fakeCallbackLogRepo struct {
	mu   sync.Mutex
	logs []*model.CallbackLog
}

func (r *fakeCallbackLogRepo) Create(ctx context.Context, l *model.CallbackLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, l)
	return nil
}

func (r *fakeCallbackLogRepo) last() *model.CallbackLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.logs) == 0 {
		return nil
	}
	return r.logs[len(r.logs)-1]
}

// fakeTxManager chạy fn không có tx thật
type fakeTxManager struct{}

func (fakeTxManager) WithinTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

// =====================================================
// MOCK COLLABORATORS
// =====================================================

type mockInvoiceStore struct {
	mock.Mock
}

func (m *mockInvoiceStore) GetByID(ctx context.Context, id uuid.UUID) (*invoiceModel.Invoice, error) {
	args := m.Called(ctx, id)
	inv, _ := args.Get(0).(*invoiceModel.Invoice)
	return inv, args.Error(1)
}

func (m *mockInvoiceStore) MarkInvoicePaid(ctx context.Context, tx pgx.Tx, id uuid.UUID, paidAt time.Time) (shared.MarkResult, error) {
	args := m.Called(ctx, tx, id, paidAt)
	return args.Get(0).(shared.MarkResult), args.Error(1)
}

type mockBookingCompleter struct {
	mock.Mock
}

func (m *mockBookingCompleter) MarkBookingCompleted(ctx context.Context, tx pgx.Tx, id uuid.UUID) (shared.MarkResult, error) {
	args := m.Called(ctx, tx, id)
	return args.Get(0).(shared.MarkResult), args.Error(1)
}

type fakeMetrics struct {
	mu        sync.Mutex
	callbacks map[string]int
	urls      map[string]int
	querydr   map[string]int
	expired   int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{callbacks: map[string]int{}, urls: map[string]int{}, querydr: map[string]int{}}
}

func (m *fakeMetrics) CallbackHandled(source, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks[source+":"+outcome]++
}

func (m *fakeMetrics) PaymentURLCreated(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls[result]++
}

func (m *fakeMetrics) QueryDR(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.querydr[result]++
}

func (m *fakeMetrics) AttemptsExpired(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expired += n
}
