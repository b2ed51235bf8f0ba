package postgres

import (
	"encoding/json"

	"github.com/bozorapp/payment-service/internal/domain"
)

func toDomainOrder(m orderModel) domain.Order {
	var items []domain.OrderItem
	if m.Items != "" {
		_ = json.Unmarshal([]byte(m.Items), &items)
	}
	return domain.Order{
		OrderID:               m.OrderID,
		BuyerID:               m.BuyerID,
		Items:                 items,
		TotalAmount:           m.TotalAmount,
		Currency:              m.Currency,
		Status:                m.Status,
		PaymentStatus:         m.PaymentStatus,
		PaymentMethod:         m.PaymentMethod,
		ProviderTransactionID: m.ProviderTransactionID,
		AffiliateID:           m.AffiliateID,
		CreatedAt:             m.CreatedAt,
		PaidAt:                m.PaidAt,
		ShippedAt:             m.ShippedAt,
		DeliveredAt:           m.DeliveredAt,
	}
}

func itemsJSON(items []domain.OrderItem) string {
	if len(items) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func toDomainTransaction(m transactionModel) domain.TransactionRecord {
	return domain.TransactionRecord{
		Provider:              m.Provider,
		ProviderTransactionID: m.ProviderTransactionID,
		OrderID:               m.OrderID,
		State:                 m.State,
		Amount:                m.Amount,
		CancelReason:          m.CancelReason,
		CreatedAt:             m.CreatedAt,
		PerformedAt:           m.PerformedAt,
		CancelledAt:           m.CancelledAt,
	}
}

func toDomainAccrual(m commissionModel) domain.CommissionAccrual {
	return domain.CommissionAccrual{
		AccrualID:   m.AccrualID.String(),
		OrderID:     m.OrderID,
		AffiliateID: m.AffiliateID,
		Rate:        m.Rate,
		Amount:      m.Amount,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
	}
}
