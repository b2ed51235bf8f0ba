package postgres

import (
	"context"
	"errors"

	"github.com/bozorapp/payment-service/internal/domain"
	"github.com/bozorapp/payment-service/internal/ports"
	"gorm.io/gorm"
)

type orderRepository struct {
	db *gorm.DB
}

func (r *orderRepository) Get(ctx context.Context, orderID string) (domain.Order, error) {
	var row orderModel
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, err
	}
	return toDomainOrder(row), nil
}

func (r *orderRepository) Create(ctx context.Context, params ports.CreateOrderParams) error {
	row := orderModel{
		OrderID:       params.OrderID,
		BuyerID:       params.BuyerID,
		Items:         itemsJSON(params.Items),
		TotalAmount:   params.TotalAmount,
		Currency:      params.Currency,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		PaymentMethod: params.PaymentMethod,
		AffiliateID:   params.AffiliateID,
		CreatedAt:     params.CreatedAt,
		UpdatedAt:     params.CreatedAt,
	}
	err := r.db.WithContext(ctx).Create(&row).Error
	if err != nil && (errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err)) {
		return domain.ErrConflict
	}
	return err
}

var _ ports.OrderRepository = (*orderRepository)(nil)
