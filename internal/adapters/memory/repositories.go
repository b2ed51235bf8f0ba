// Package memory provides map-backed repositories with the same constraint
// semantics as the postgres adapter. They back unit tests and the local
// development profile.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/bozorapp/payment-service/internal/domain"
	"github.com/bozorapp/payment-service/internal/ports"
	"github.com/google/uuid"
)

type Store struct {
	mu           sync.Mutex
	orders       map[string]domain.Order
	transactions map[txnKey]domain.TransactionRecord
	accruals     map[string]domain.CommissionAccrual
	outbox       []ports.OutboxRecord
	dedup        map[string]dedupEntry
}

type txnKey struct {
	provider string
	txnID    string
}

type dedupEntry struct {
	eventType string
	expiresAt time.Time
}

func NewStore() *Store {
	return &Store{
		orders:       make(map[string]domain.Order),
		transactions: make(map[txnKey]domain.TransactionRecord),
		accruals:     make(map[string]domain.CommissionAccrual),
		dedup:        make(map[string]dedupEntry),
	}
}

func (s *Store) Orders() ports.OrderRepository             { return (*orderRepository)(s) }
func (s *Store) Transactions() ports.TransactionRepository { return (*transactionRepository)(s) }
func (s *Store) Commissions() ports.CommissionRepository   { return (*commissionRepository)(s) }
func (s *Store) Outbox() ports.OutboxRepository            { return (*outboxRepository)(s) }
func (s *Store) EventDedup() ports.EventDedupRepository    { return (*dedupRepository)(s) }

// SeedOrder installs an order directly, bypassing the create path.
func (s *Store) SeedOrder(order domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.OrderID] = order
}

// AccrualCount reports how many accruals exist for an order; used to assert
// the exactly-once side effect.
func (s *Store) AccrualCount(orderID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.accruals {
		if a.OrderID == orderID {
			n++
		}
	}
	return n
}

// OutboxEvents returns the event types enqueued so far, in order.
func (s *Store) OutboxEvents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]string, 0, len(s.outbox))
	for _, rec := range s.outbox {
		types = append(types, rec.EventType)
	}
	return types
}

type orderRepository Store

func (r *orderRepository) Get(_ context.Context, orderID string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return order, nil
}

func (r *orderRepository) Create(_ context.Context, params ports.CreateOrderParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[params.OrderID]; exists {
		return domain.ErrConflict
	}
	r.orders[params.OrderID] = domain.Order{
		OrderID:       params.OrderID,
		BuyerID:       params.BuyerID,
		Items:         params.Items,
		TotalAmount:   params.TotalAmount,
		Currency:      params.Currency,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		PaymentMethod: params.PaymentMethod,
		AffiliateID:   params.AffiliateID,
		CreatedAt:     params.CreatedAt,
	}
	return nil
}

type transactionRepository Store

func (r *transactionRepository) Get(_ context.Context, provider, providerTransactionID string) (*domain.TransactionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.transactions[txnKey{provider, providerTransactionID}]
	if !ok {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (r *transactionRepository) FindActiveByOrder(_ context.Context, orderID string) (*domain.TransactionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.activeByOrder(orderID); ok {
		out := rec
		return &out, nil
	}
	return nil, nil
}

func (r *transactionRepository) activeByOrder(orderID string) (domain.TransactionRecord, bool) {
	for _, rec := range r.transactions {
		if rec.OrderID == orderID && rec.State != domain.TransactionStateCancelled {
			return rec, true
		}
	}
	return domain.TransactionRecord{}, false
}

func (r *transactionRepository) Create(_ context.Context, record domain.TransactionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := txnKey{record.Provider, record.ProviderTransactionID}
	if _, exists := r.transactions[key]; exists {
		return domain.ErrConflict
	}
	if _, active := r.activeByOrder(record.OrderID); active {
		return domain.ErrConflict
	}
	r.transactions[key] = record
	return nil
}

func (r *transactionRepository) Perform(_ context.Context, params ports.PerformTransactionParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := txnKey{params.Provider, params.ProviderTransactionID}
	rec, ok := r.transactions[key]
	if !ok || rec.State != domain.TransactionStateCreated {
		return domain.ErrConflict
	}
	order, ok := r.orders[params.OrderID]
	if !ok {
		return domain.ErrConflict
	}
	if order.PaymentStatus != domain.PaymentStatusPending && order.PaymentStatus != domain.PaymentStatusFailed {
		return domain.ErrConflict
	}
	if params.Accrual != nil {
		if _, exists := r.accruals[params.Accrual.OrderID]; exists {
			return domain.ErrConflict
		}
	}

	at := params.PerformedAt
	rec.State = domain.TransactionStatePerformed
	rec.PerformedAt = &at
	r.transactions[key] = rec

	order.PaymentStatus = domain.PaymentStatusPaid
	order.ProviderTransactionID = &rec.ProviderTransactionID
	order.PaidAt = &at
	r.orders[params.OrderID] = order

	if params.Accrual != nil {
		r.accruals[params.Accrual.OrderID] = *params.Accrual
	}
	r.appendOutbox(params.Event)
	return nil
}

func (r *transactionRepository) Cancel(_ context.Context, params ports.CancelTransactionParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := txnKey{params.Provider, params.ProviderTransactionID}
	rec, ok := r.transactions[key]
	if !ok || rec.State != params.FromState {
		return domain.ErrConflict
	}
	order, ok := r.orders[params.OrderID]
	if !ok {
		return domain.ErrConflict
	}
	if params.FromState == domain.TransactionStatePerformed {
		if order.PaymentStatus != domain.PaymentStatusPaid {
			return domain.ErrConflict
		}
	} else if order.PaymentStatus != domain.PaymentStatusPending && order.PaymentStatus != domain.PaymentStatusFailed {
		return domain.ErrConflict
	}

	at := params.CancelledAt
	rec.State = domain.TransactionStateCancelled
	rec.CancelReason = params.CancelReason
	rec.CancelledAt = &at
	r.transactions[key] = rec

	order.PaymentStatus = params.OrderPaymentStatus
	r.orders[params.OrderID] = order

	if params.FromState == domain.TransactionStatePerformed {
		if accrual, exists := r.accruals[params.OrderID]; exists && accrual.Status == domain.AccrualStatusAccrued {
			accrual.Status = domain.AccrualStatusReversed
			r.accruals[params.OrderID] = accrual
		}
	}
	r.appendOutbox(params.Event)
	return nil
}

func (r *transactionRepository) appendOutbox(event ports.OutboxEvent) {
	r.outbox = append(r.outbox, ports.OutboxRecord{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      event.Payload,
		FirstSeenAt:  event.OccurredAt,
	})
}

type commissionRepository Store

func (r *commissionRepository) GetByOrder(_ context.Context, orderID string) (*domain.CommissionAccrual, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	accrual, ok := r.accruals[orderID]
	if !ok {
		return nil, nil
	}
	out := accrual
	return &out, nil
}

type outboxRepository Store

func (r *outboxRepository) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	(*transactionRepository)(r).appendOutbox(event)
	return nil
}

func (r *outboxRepository) FetchUnpublished(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.OutboxRecord, 0, limit)
	for _, rec := range r.outbox {
		if rec.PublishedAt != nil {
			continue
		}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *outboxRepository) MarkPublished(_ context.Context, outboxID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.outbox {
		if r.outbox[i].OutboxID == outboxID {
			t := at
			r.outbox[i].PublishedAt = &t
		}
	}
	return nil
}

func (r *outboxRepository) MarkFailed(_ context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.outbox {
		if r.outbox[i].OutboxID == outboxID {
			r.outbox[i].RetryCount++
			msg, t := errMsg, at
			r.outbox[i].LastError = &msg
			r.outbox[i].LastErrorAt = &t
		}
	}
	return nil
}

type dedupRepository Store

func (r *dedupRepository) IsDuplicate(_ context.Context, eventID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.dedup[eventID]
	return ok && entry.expiresAt.After(now), nil
}

func (r *dedupRepository) MarkProcessed(_ context.Context, eventID, eventType string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dedup[eventID] = dedupEntry{eventType: eventType, expiresAt: expiresAt}
	return nil
}
