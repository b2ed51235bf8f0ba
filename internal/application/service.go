package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bozorapp/payment-service/internal/contracts"
	"github.com/bozorapp/payment-service/internal/domain"
	"github.com/bozorapp/payment-service/internal/ports"
)

// ProcessClick authenticates and applies one Click callback. Signature
// failures are reported before the engine runs so an unsigned request can
// never create or advance a transaction record.
func (s *Service) ProcessClick(ctx context.Context, req contracts.ClickRequest) (*domain.TransactionRecord, domain.PaymentEvent, error) {
	event, err := normalizeClick(req, s.nowFn())
	if err != nil {
		return nil, event, err
	}
	if !s.verifyClickSignature(req) {
		return nil, event, domain.ErrAuthenticationFailed
	}
	record, err := s.reconcile(ctx, event)
	s.logOutcome(ctx, event, err)
	return record, event, err
}

// ProcessPayme authenticates and applies one Payme RPC call.
// CheckTransaction is served read-only from storage; all other methods go
// through the reconciliation engine.
func (s *Service) ProcessPayme(ctx context.Context, authHeader string, req contracts.PaymeRequest) (PaymeOutcome, error) {
	if !s.verifyPaymeAuth(authHeader) {
		return PaymeOutcome{}, domain.ErrAuthenticationFailed
	}
	if req.Method == contracts.PaymeMethodCheck {
		return s.checkPaymeTransaction(ctx, req)
	}
	event, err := normalizePayme(req, s.nowFn())
	if err != nil {
		return PaymeOutcome{Event: event}, err
	}
	record, err := s.reconcile(ctx, event)
	s.logOutcome(ctx, event, err)
	return PaymeOutcome{Event: event, Record: record}, err
}

func (s *Service) checkPaymeTransaction(ctx context.Context, req contracts.PaymeRequest) (PaymeOutcome, error) {
	outcome := PaymeOutcome{Event: domain.PaymentEvent{
		Provider:              domain.ProviderPayme,
		ProviderTransactionID: req.Params.ID,
		ReceivedAt:            s.nowFn(),
	}}
	if req.Params.ID == "" {
		return outcome, fmt.Errorf("%w: id required", domain.ErrInvalidEnvelope)
	}
	record, err := s.transactions.Get(ctx, domain.ProviderPayme, req.Params.ID)
	if err != nil {
		return outcome, transient(err)
	}
	if record == nil {
		return outcome, domain.ErrTransactionNotFound
	}
	outcome.Record = record
	return outcome, nil
}

// GetPaymentStatus serves the authenticated status endpoint, answering from
// the cache when a fresh entry exists. Transitions invalidate the entry, so
// a hit is never more stale than the TTL.
func (s *Service) GetPaymentStatus(ctx context.Context, orderID string) (contracts.StatusResponse, error) {
	if orderID == "" {
		return contracts.StatusResponse{}, fmt.Errorf("%w: order id required", domain.ErrInvalidInput)
	}
	key := s.statusCacheKey(orderID)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil && raw != "" {
			var cached contracts.StatusResponse
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return cached, nil
			}
		}
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return contracts.StatusResponse{}, domain.ErrNotFound
		}
		return contracts.StatusResponse{}, transient(err)
	}
	resp := contracts.StatusResponse{
		OrderID:       order.OrderID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
	}
	if order.AffiliateID != nil && s.commissions != nil {
		if accrual, accErr := s.commissions.GetByOrder(ctx, orderID); accErr == nil && accrual != nil {
			resp.Commission = &contracts.CommissionInfo{
				AffiliateID: accrual.AffiliateID,
				Amount:      accrual.Amount,
				Status:      accrual.Status,
			}
		}
	}
	if s.cache != nil {
		if raw, err := json.Marshal(resp); err == nil {
			_ = s.cache.Set(ctx, key, string(raw), s.cfg.StatusCacheTTL)
		}
	}
	return resp, nil
}

type inboundEnvelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

// HandleOrderCreated seeds the order store from the checkout stream. The
// dedup table absorbs redelivery; a replayed envelope is acknowledged
// without touching the store.
func (s *Service) HandleOrderCreated(ctx context.Context, payload []byte) error {
	var envelope inboundEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidEnvelope, err)
	}
	var data contracts.OrderCreatedData
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidEnvelope, err)
		}
	}
	if envelope.EventID == "" || data.OrderID == "" {
		return fmt.Errorf("%w: event_id and order_id required", domain.ErrInvalidEnvelope)
	}
	now := s.nowFn()
	if s.eventDedup != nil {
		dup, err := s.eventDedup.IsDuplicate(ctx, envelope.EventID, now)
		if err != nil {
			return transient(err)
		}
		if dup {
			return nil
		}
	}

	var affiliate *string
	if data.AffiliateID != "" {
		affiliate = &data.AffiliateID
	}
	items := make([]domain.OrderItem, 0, len(data.Items))
	for _, it := range data.Items {
		items = append(items, domain.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	err := s.orders.Create(ctx, ports.CreateOrderParams{
		OrderID:       data.OrderID,
		BuyerID:       data.BuyerID,
		Items:         items,
		TotalAmount:   data.TotalAmount,
		Currency:      data.Currency,
		PaymentMethod: data.PaymentMethod,
		AffiliateID:   affiliate,
		CreatedAt:     now,
	})
	if err != nil && !errors.Is(err, domain.ErrConflict) {
		return transient(err)
	}
	if s.eventDedup != nil {
		if err := s.eventDedup.MarkProcessed(ctx, envelope.EventID, envelope.EventType, now.Add(s.cfg.EventDedupTTL)); err != nil {
			return transient(err)
		}
	}
	return nil
}

// VerifyToken validates a bearer token for the status endpoint.
func (s *Service) VerifyToken(token string) (ports.AuthClaims, error) {
	if s.tokens == nil {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	return s.tokens.Verify(token)
}

func (s *Service) statusCacheKey(orderID string) string {
	return "payment:status:" + orderID
}

func (s *Service) invalidateStatus(ctx context.Context, orderID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, s.statusCacheKey(orderID))
}

func (s *Service) logOutcome(ctx context.Context, event domain.PaymentEvent, err error) {
	attrs := []any{
		slog.String("module", "application"),
		slog.String("operation", "reconcile"),
		slog.String("provider", event.Provider),
		slog.String("action", event.Action),
		slog.String("order_id", event.OrderReference),
	}
	if err != nil {
		attrs = append(attrs, slog.String("outcome", "rejected"), slog.String("error", err.Error()))
		slog.WarnContext(ctx, "payment event rejected", attrs...)
		return
	}
	attrs = append(attrs, slog.String("outcome", "applied"))
	slog.InfoContext(ctx, "payment event applied", attrs...)
}
