package application

import (
	"time"

	"github.com/bozorapp/payment-service/internal/domain"
	"github.com/bozorapp/payment-service/internal/ports"
)

type Config struct {
	ServiceName     string
	Currency        string
	ClickServiceID  string
	ClickSecretKey  string
	PaymeMerchantID string
	PaymeKey        string
	CommissionRate  float64
	StatusCacheTTL  time.Duration
	EventDedupTTL   time.Duration
	StoreTimeout    time.Duration
}

// PaymeOutcome carries the record a successful RPC call resolved to, so the
// adapter can fill the provider's result envelope without re-reading storage.
type PaymeOutcome struct {
	Event  domain.PaymentEvent
	Record *domain.TransactionRecord
}

type Service struct {
	cfg          Config
	orders       ports.OrderRepository
	transactions ports.TransactionRepository
	commissions  ports.CommissionRepository
	outbox       ports.OutboxRepository
	eventDedup   ports.EventDedupRepository
	cache        ports.Cache
	tokens       ports.TokenVerifier
	nowFn        func() time.Time
}

type Dependencies struct {
	Config       Config
	Orders       ports.OrderRepository
	Transactions ports.TransactionRepository
	Commissions  ports.CommissionRepository
	Outbox       ports.OutboxRepository
	EventDedup   ports.EventDedupRepository
	Cache        ports.Cache
	Tokens       ports.TokenVerifier
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "payment-service"
	}
	if cfg.Currency == "" {
		cfg.Currency = "UZS"
	}
	if cfg.StatusCacheTTL <= 0 {
		cfg.StatusCacheTTL = time.Minute
	}
	if cfg.EventDedupTTL <= 0 {
		cfg.EventDedupTTL = 7 * 24 * time.Hour
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	return &Service{
		cfg:          cfg,
		orders:       deps.Orders,
		transactions: deps.Transactions,
		commissions:  deps.Commissions,
		outbox:       deps.Outbox,
		eventDedup:   deps.EventDedup,
		cache:        deps.Cache,
		tokens:       deps.Tokens,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}
