package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bozorapp/payment-service/internal/domain"
	"github.com/bozorapp/payment-service/internal/ports"
	"github.com/google/uuid"
)

// reconcile runs the provider-agnostic state machine for one normalized
// event. All provider dispatch happens before (normalizer) and after
// (adapters) this point. The returned record reflects the post-event state.
//
// Idempotency rests on the transaction repository's constraints: the first
// insert for a provider transaction id wins, and at most one non-cancelled
// record may bind an order. Replays are answered from the stored record
// without re-applying side effects.
func (s *Service) reconcile(ctx context.Context, event domain.PaymentEvent) (*domain.TransactionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	switch event.Action {
	case domain.ActionCheck:
		_, err := s.checkOrder(ctx, event)
		return nil, err
	case domain.ActionPrepare:
		return s.prepare(ctx, event)
	case domain.ActionComplete:
		return s.complete(ctx, event)
	case domain.ActionCancel:
		return s.cancelTransaction(ctx, event)
	default:
		return nil, fmt.Errorf("%w: action %q", domain.ErrUnsupportedMethod, event.Action)
	}
}

// checkOrder validates that the referenced order exists, is still payable
// and that the event amount matches the stored total exactly. Amounts are
// compared as integer tiyin; the normalizer already resolved all units.
func (s *Service) checkOrder(ctx context.Context, event domain.PaymentEvent) (domain.Order, error) {
	order, err := s.orders.Get(ctx, event.OrderReference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, transient(err)
	}
	if order.PaymentStatus == domain.PaymentStatusPaid || order.PaymentStatus == domain.PaymentStatusRefunded {
		return order, domain.ErrOrderAlreadyPaid
	}
	if order.Status == domain.OrderStatusCancelled {
		return order, domain.ErrOrderNotFound
	}
	if event.Amount != order.TotalInTiyin() {
		return order, domain.ErrAmountMismatch
	}
	return order, nil
}

func (s *Service) prepare(ctx context.Context, event domain.PaymentEvent) (*domain.TransactionRecord, error) {
	existing, err := s.transactions.Get(ctx, event.Provider, event.ProviderTransactionID)
	if err != nil {
		return nil, transient(err)
	}
	if existing != nil {
		switch existing.State {
		case domain.TransactionStateCreated:
			if existing.Amount != event.Amount {
				return existing, domain.ErrAmountMismatch
			}
			return existing, nil // provider retry, answer as before
		case domain.TransactionStatePerformed:
			return existing, domain.ErrOrderAlreadyPaid
		default:
			return existing, domain.ErrTransactionState
		}
	}

	if _, err := s.checkOrder(ctx, event); err != nil {
		return nil, err
	}

	record := domain.TransactionRecord{
		Provider:              event.Provider,
		ProviderTransactionID: event.ProviderTransactionID,
		OrderID:               event.OrderReference,
		State:                 domain.TransactionStateCreated,
		Amount:                event.Amount,
		CreatedAt:             s.nowFn(),
	}
	if err := s.transactions.Create(ctx, record); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost the insert race: either the same transaction id landed
			// first (a retry) or another transaction bound the order.
			if again, getErr := s.transactions.Get(ctx, event.Provider, event.ProviderTransactionID); getErr == nil && again != nil {
				return again, nil
			}
			if active, activeErr := s.transactions.FindActiveByOrder(ctx, event.OrderReference); activeErr == nil && active != nil {
				if active.State == domain.TransactionStatePerformed {
					return nil, domain.ErrOrderAlreadyPaid
				}
				return nil, fmt.Errorf("%w: order held by transaction %s", domain.ErrConflict, active.ProviderTransactionID)
			}
			return nil, domain.ErrConflict
		}
		return nil, transient(err)
	}
	return &record, nil
}

func (s *Service) complete(ctx context.Context, event domain.PaymentEvent) (*domain.TransactionRecord, error) {
	record, err := s.transactions.Get(ctx, event.Provider, event.ProviderTransactionID)
	if err != nil {
		return nil, transient(err)
	}
	if record == nil {
		return nil, domain.ErrTransactionNotFound
	}
	switch record.State {
	case domain.TransactionStatePerformed:
		return record, nil // already performed: idempotent success, no re-accrual
	case domain.TransactionStateCancelled:
		return record, domain.ErrTransactionState
	}
	// Click re-sends the amount on complete; Payme does not (0 means absent).
	if event.Amount != 0 && event.Amount != record.Amount {
		return record, domain.ErrAmountMismatch
	}

	order, err := s.orders.Get(ctx, record.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return record, domain.ErrOrderNotFound
		}
		return record, transient(err)
	}
	if order.PaymentStatus == domain.PaymentStatusPaid || order.PaymentStatus == domain.PaymentStatusRefunded {
		return record, domain.ErrOrderAlreadyPaid
	}

	performedAt := s.nowFn()
	accrual := s.buildAccrual(order, performedAt)
	params := ports.PerformTransactionParams{
		Provider:              record.Provider,
		ProviderTransactionID: record.ProviderTransactionID,
		OrderID:               record.OrderID,
		PerformedAt:           performedAt,
		Accrual:               accrual,
		Event:                 s.orderPaidEvent(order, *record, accrual, performedAt),
	}
	if err := s.transactions.Perform(ctx, params); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// A concurrent callback committed first. If it was this same
			// transaction, answer idempotently; otherwise the order is
			// paid through a different transaction.
			if again, getErr := s.transactions.Get(ctx, event.Provider, event.ProviderTransactionID); getErr == nil && again != nil && again.State == domain.TransactionStatePerformed {
				return again, nil
			}
			return record, domain.ErrOrderAlreadyPaid
		}
		return record, transient(err)
	}
	s.invalidateStatus(ctx, record.OrderID)

	performed := *record
	performed.State = domain.TransactionStatePerformed
	performed.PerformedAt = &performedAt
	return &performed, nil
}

func (s *Service) cancelTransaction(ctx context.Context, event domain.PaymentEvent) (*domain.TransactionRecord, error) {
	record, err := s.transactions.Get(ctx, event.Provider, event.ProviderTransactionID)
	if err != nil {
		return nil, transient(err)
	}
	if record == nil {
		return nil, domain.ErrTransactionNotFound
	}
	if record.State == domain.TransactionStateCancelled {
		return record, nil // cancel retry, answer as before
	}

	cancelledAt := s.nowFn()
	params := ports.CancelTransactionParams{
		Provider:              record.Provider,
		ProviderTransactionID: record.ProviderTransactionID,
		OrderID:               record.OrderID,
		FromState:             record.State,
		CancelReason:          event.CancelReason,
		CancelledAt:           cancelledAt,
	}
	if record.State == domain.TransactionStatePerformed {
		// Cancelling a performed transaction is a refund; the accrual is
		// reversed in the same storage transaction.
		params.OrderPaymentStatus = domain.PaymentStatusRefunded
		params.Event = s.orderRefundedEvent(*record, event.CancelReason, cancelledAt)
	} else {
		params.OrderPaymentStatus = domain.PaymentStatusFailed
		params.Event = s.orderFailedEvent(*record, event.CancelReason, cancelledAt)
	}
	if err := s.transactions.Cancel(ctx, params); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			if again, getErr := s.transactions.Get(ctx, event.Provider, event.ProviderTransactionID); getErr == nil && again != nil && again.State == domain.TransactionStateCancelled {
				return again, nil
			}
			return record, domain.ErrTransactionState
		}
		return record, transient(err)
	}
	s.invalidateStatus(ctx, record.OrderID)

	cancelled := *record
	cancelled.State = domain.TransactionStateCancelled
	cancelled.CancelReason = event.CancelReason
	cancelled.CancelledAt = &cancelledAt
	return &cancelled, nil
}

func (s *Service) buildAccrual(order domain.Order, at time.Time) *domain.CommissionAccrual {
	if order.AffiliateID == nil || *order.AffiliateID == "" || s.cfg.CommissionRate <= 0 {
		return nil
	}
	return &domain.CommissionAccrual{
		AccrualID:   uuid.NewString(),
		OrderID:     order.OrderID,
		AffiliateID: *order.AffiliateID,
		Rate:        s.cfg.CommissionRate,
		Amount:      int64(math.Round(float64(order.TotalInTiyin()) * s.cfg.CommissionRate)),
		Status:      domain.AccrualStatusAccrued,
		CreatedAt:   at,
	}
}

// transient wraps storage failures so adapters answer with the provider's
// retryable code instead of a permanent rejection.
func transient(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
}
