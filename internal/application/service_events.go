package application

import (
	"encoding/json"
	"time"

	"github.com/bozorapp/payment-service/internal/contracts"
	"github.com/bozorapp/payment-service/internal/domain"
	"github.com/bozorapp/payment-service/internal/ports"
	"github.com/google/uuid"
)

const (
	EventTypeOrderPaid     = "payment.order.paid"
	EventTypeOrderFailed   = "payment.order.failed"
	EventTypeOrderRefunded = "payment.order.refunded"

	eventSchemaVersion = "1.0"
)

func (s *Service) orderPaidEvent(order domain.Order, record domain.TransactionRecord, accrual *domain.CommissionAccrual, at time.Time) ports.OutboxEvent {
	data := contracts.OrderPaidData{
		OrderID:               order.OrderID,
		Provider:              record.Provider,
		ProviderTransactionID: record.ProviderTransactionID,
		Amount:                record.Amount,
		Currency:              s.cfg.Currency,
		PaidAt:                at.Format(time.RFC3339Nano),
	}
	if accrual != nil {
		data.AffiliateID = accrual.AffiliateID
		data.CommissionAmount = accrual.Amount
	}
	return s.buildOutboxEvent(EventTypeOrderPaid, order.OrderID, data, at)
}

func (s *Service) orderFailedEvent(record domain.TransactionRecord, reason *int, at time.Time) ports.OutboxEvent {
	data := contracts.OrderPaymentFailedData{
		OrderID:               record.OrderID,
		Provider:              record.Provider,
		ProviderTransactionID: record.ProviderTransactionID,
		Reason:                reason,
		FailedAt:              at.Format(time.RFC3339Nano),
	}
	return s.buildOutboxEvent(EventTypeOrderFailed, record.OrderID, data, at)
}

func (s *Service) orderRefundedEvent(record domain.TransactionRecord, reason *int, at time.Time) ports.OutboxEvent {
	data := contracts.OrderRefundedData{
		OrderID:               record.OrderID,
		Provider:              record.Provider,
		ProviderTransactionID: record.ProviderTransactionID,
		Amount:                record.Amount,
		Reason:                reason,
		RefundedAt:            at.Format(time.RFC3339Nano),
	}
	return s.buildOutboxEvent(EventTypeOrderRefunded, record.OrderID, data, at)
}

// buildOutboxEvent wraps payload data in the canonical envelope and returns
// it ready for the outbox. The payload stored is the full envelope so the
// publisher worker forwards bytes without re-encoding.
func (s *Service) buildOutboxEvent(eventType, orderID string, data any, at time.Time) ports.OutboxEvent {
	eventID := uuid.New()
	envelope := contracts.EventEnvelope{
		EventID:          eventID.String(),
		EventType:        eventType,
		OccurredAt:       at.Format(time.RFC3339Nano),
		SourceService:    s.cfg.ServiceName,
		SchemaVersion:    eventSchemaVersion,
		PartitionKeyPath: "data.order_id",
		PartitionKey:     orderID,
		Data:             data,
	}
	payload, _ := json.Marshal(envelope)
	return ports.OutboxEvent{
		EventID:          eventID,
		EventType:        eventType,
		PartitionKey:     orderID,
		PartitionKeyPath: "data.order_id",
		Payload:          payload,
		OccurredAt:       at,
		SchemaVersion:    eventSchemaVersion,
	}
}
