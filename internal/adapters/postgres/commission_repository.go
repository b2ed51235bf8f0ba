package postgres

import (
	"context"
	"errors"

	"github.com/bozorapp/payment-service/internal/domain"
	"github.com/bozorapp/payment-service/internal/ports"
	"gorm.io/gorm"
)

type commissionRepository struct {
	db *gorm.DB
}

func (r *commissionRepository) GetByOrder(ctx context.Context, orderID string) (*domain.CommissionAccrual, error) {
	var row commissionModel
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	accrual := toDomainAccrual(row)
	return &accrual, nil
}

var _ ports.CommissionRepository = (*commissionRepository)(nil)
