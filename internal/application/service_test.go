package application

import (
	"context"
	"testing"
	"time"

	"github.com/bozorapp/payment-service/internal/adapters/cache"
	"github.com/bozorapp/payment-service/internal/adapters/memory"
	"github.com/bozorapp/payment-service/internal/contracts"
	"github.com/bozorapp/payment-service/internal/domain"
)

func TestPaymentStatusCacheIsInvalidatedOnTransition(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(Dependencies{
		Config: Config{
			ClickSecretKey: testClickSecret,
			StatusCacheTTL: time.Minute,
		},
		Orders:       store.Orders(),
		Transactions: store.Transactions(),
		Commissions:  store.Commissions(),
		Outbox:       store.Outbox(),
		EventDedup:   store.EventDedup(),
		Cache:        cache.NewMemoryCache(),
	})
	seedOrder(store, "order-500", 1500000, "")
	ctx := context.Background()

	first, err := svc.GetPaymentStatus(ctx, "order-500")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if first.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("expected pending, got %q", first.PaymentStatus)
	}

	if _, _, err := svc.ProcessClick(ctx, signedClick("ct-1", "order-500", "1500000", contracts.ClickActionPrepare, "0")); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if _, _, err := svc.ProcessClick(ctx, signedClick("ct-1", "order-500", "1500000", contracts.ClickActionComplete, "0")); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// The paid transition deletes the cached entry; the next read must not
	// serve the stale pending snapshot.
	second, err := svc.GetPaymentStatus(ctx, "order-500")
	if err != nil {
		t.Fatalf("status after payment: %v", err)
	}
	if second.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("stale status served from cache: %q", second.PaymentStatus)
	}
}

func TestGetPaymentStatusValidation(t *testing.T) {
	svc, _ := newPaymentService(t)
	if _, err := svc.GetPaymentStatus(context.Background(), ""); err == nil {
		t.Fatalf("empty order id accepted")
	}
	if _, err := svc.GetPaymentStatus(context.Background(), "order-404"); err == nil {
		t.Fatalf("unknown order accepted")
	}
}
