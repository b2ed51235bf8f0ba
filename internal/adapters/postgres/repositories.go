package postgres

import (
	"github.com/bozorapp/payment-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Orders       ports.OrderRepository
	Transactions ports.TransactionRepository
	Commissions  ports.CommissionRepository
	Outbox       ports.OutboxRepository
	EventDedup   ports.EventDedupRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Orders:       &orderRepository{db: db},
		Transactions: &transactionRepository{db: db},
		Commissions:  &commissionRepository{db: db},
		Outbox:       &outboxRepository{db: db},
		EventDedup:   &eventDedupRepository{db: db},
	}
}
