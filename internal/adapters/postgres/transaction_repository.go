package postgres

import (
	"context"
	"errors"

	"github.com/bozorapp/payment-service/internal/domain"
	"github.com/bozorapp/payment-service/internal/ports"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

func (r *transactionRepository) Get(ctx context.Context, provider, providerTransactionID string) (*domain.TransactionRecord, error) {
	var row transactionModel
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_transaction_id = ?", provider, providerTransactionID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	record := toDomainTransaction(row)
	return &record, nil
}

func (r *transactionRepository) FindActiveByOrder(ctx context.Context, orderID string) (*domain.TransactionRecord, error) {
	var row transactionModel
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND state IN ?", orderID, []string{domain.TransactionStateCreated, domain.TransactionStatePerformed}).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	record := toDomainTransaction(row)
	return &record, nil
}

// Create relies on the table's primary key and the partial unique index over
// active records per order; a violation of either surfaces as ErrConflict.
func (r *transactionRepository) Create(ctx context.Context, record domain.TransactionRecord) error {
	row := transactionModel{
		Provider:              record.Provider,
		ProviderTransactionID: record.ProviderTransactionID,
		OrderID:               record.OrderID,
		State:                 record.State,
		Amount:                record.Amount,
		CreatedAt:             record.CreatedAt,
	}
	err := r.db.WithContext(ctx).Create(&row).Error
	if err != nil && (errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err)) {
		return domain.ErrConflict
	}
	return err
}

// Perform commits the paid transition atomically: the record and order move
// by compare-and-swap, and the accrual plus outbox event ride the same
// transaction. A lost CAS rolls everything back and reports ErrConflict.
func (r *transactionRepository) Perform(ctx context.Context, params ports.PerformTransactionParams) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&transactionModel{}).
			Where("provider = ? AND provider_transaction_id = ? AND state = ?",
				params.Provider, params.ProviderTransactionID, domain.TransactionStateCreated).
			Updates(map[string]any{
				"state":        domain.TransactionStatePerformed,
				"performed_at": params.PerformedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrConflict
		}

		// A failed attempt leaves the order payable again; only paid and
		// refunded are terminal for the payment leg.
		res = tx.Model(&orderModel{}).
			Where("order_id = ? AND payment_status IN ?", params.OrderID,
				[]string{domain.PaymentStatusPending, domain.PaymentStatusFailed}).
			Updates(map[string]any{
				"payment_status":          domain.PaymentStatusPaid,
				"provider_transaction_id": params.ProviderTransactionID,
				"paid_at":                 params.PerformedAt,
				"updated_at":              params.PerformedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrConflict
		}

		if params.Accrual != nil {
			if err := insertAccrual(tx, *params.Accrual); err != nil {
				return err
			}
		}
		return enqueueOutbox(tx, params.Event)
	})
}

// Cancel moves the record out of its current state and settles the order.
// When the transaction was already performed the order becomes refunded and
// the accrual is reversed in the same storage transaction.
func (r *transactionRepository) Cancel(ctx context.Context, params ports.CancelTransactionParams) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&transactionModel{}).
			Where("provider = ? AND provider_transaction_id = ? AND state = ?",
				params.Provider, params.ProviderTransactionID, params.FromState).
			Updates(map[string]any{
				"state":         domain.TransactionStateCancelled,
				"cancel_reason": params.CancelReason,
				"cancelled_at":  params.CancelledAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrConflict
		}

		fromPayment := []string{domain.PaymentStatusPending, domain.PaymentStatusFailed}
		if params.FromState == domain.TransactionStatePerformed {
			fromPayment = []string{domain.PaymentStatusPaid}
		}
		res = tx.Model(&orderModel{}).
			Where("order_id = ? AND payment_status IN ?", params.OrderID, fromPayment).
			Updates(map[string]any{
				"payment_status": params.OrderPaymentStatus,
				"updated_at":     params.CancelledAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrConflict
		}

		if params.FromState == domain.TransactionStatePerformed {
			err := tx.Model(&commissionModel{}).
				Where("order_id = ? AND status = ?", params.OrderID, domain.AccrualStatusAccrued).
				Update("status", domain.AccrualStatusReversed).Error
			if err != nil {
				return err
			}
		}
		return enqueueOutbox(tx, params.Event)
	})
}

func insertAccrual(tx *gorm.DB, accrual domain.CommissionAccrual) error {
	id, err := parseUUID(accrual.AccrualID)
	if err != nil {
		return err
	}
	row := commissionModel{
		AccrualID:   id,
		OrderID:     accrual.OrderID,
		AffiliateID: accrual.AffiliateID,
		Rate:        accrual.Rate,
		Amount:      accrual.Amount,
		Status:      accrual.Status,
		CreatedAt:   accrual.CreatedAt,
	}
	err = tx.Create(&row).Error
	if err != nil && (errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err)) {
		return domain.ErrConflict
	}
	return err
}

func enqueueOutbox(tx *gorm.DB, event ports.OutboxEvent) error {
	row := paymentOutboxModel{
		OutboxID:         event.EventID,
		EventType:        event.EventType,
		PartitionKey:     event.PartitionKey,
		PartitionKeyPath: event.PartitionKeyPath,
		Payload:          string(event.Payload),
		SchemaVersion:    event.SchemaVersion,
		TraceID:          event.TraceID,
		CreatedAt:        event.OccurredAt,
		FirstSeenAt:      event.OccurredAt,
	}
	return tx.Create(&row).Error
}

var _ ports.TransactionRepository = (*transactionRepository)(nil)
