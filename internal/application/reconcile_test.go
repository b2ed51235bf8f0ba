package application

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bozorapp/payment-service/internal/adapters/memory"
	"github.com/bozorapp/payment-service/internal/contracts"
	"github.com/bozorapp/payment-service/internal/domain"
	"github.com/bozorapp/payment-service/internal/ports"
)

const (
	testClickSecret = "topsecret"
	testPaymeKey    = "merchant-key"
)

var testPaymeAuth = "Basic " + base64.StdEncoding.EncodeToString([]byte("Paycom:"+testPaymeKey))

func newPaymentService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := NewService(Dependencies{
		Config: Config{
			ClickServiceID: "12345",
			ClickSecretKey: testClickSecret,
			PaymeKey:       testPaymeKey,
			CommissionRate: 0.05,
		},
		Orders:       store.Orders(),
		Transactions: store.Transactions(),
		Commissions:  store.Commissions(),
		Outbox:       store.Outbox(),
		EventDedup:   store.EventDedup(),
	})
	return svc, store
}

func seedOrder(store *memory.Store, orderID string, totalSom int64, affiliate string) {
	order := domain.Order{
		OrderID:       orderID,
		BuyerID:       "buyer-1",
		TotalAmount:   totalSom,
		Currency:      "UZS",
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		PaymentMethod: domain.PaymentMethodClick,
		CreatedAt:     time.Now().UTC(),
	}
	if affiliate != "" {
		order.AffiliateID = &affiliate
	}
	store.SeedOrder(order)
}

func signedClick(transID, orderID, amount, action, errField string) contracts.ClickRequest {
	req := contracts.ClickRequest{
		ClickTransID:    transID,
		ServiceID:       "12345",
		MerchantTransID: orderID,
		Amount:          amount,
		Action:          action,
		Error:           errField,
		SignTime:        "2026-08-28 10:00:00",
	}
	req.SignString = clickSign(testClickSecret, req)
	return req
}

func TestClickPrepareCompleteMarksOrderPaid(t *testing.T) {
	svc, store := newPaymentService(t)
	seedOrder(store, "order-500", 1500000, "aff-1")
	ctx := context.Background()

	if _, _, err := svc.ProcessClick(ctx, signedClick("ct-1", "order-500", "1500000", contracts.ClickActionPrepare, "0")); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	record, _, err := svc.ProcessClick(ctx, signedClick("ct-1", "order-500", "1500000", contracts.ClickActionComplete, "0"))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if record == nil || record.State != domain.TransactionStatePerformed {
		t.Fatalf("expected performed record, got %+v", record)
	}

	order, err := store.Orders().Get(ctx, "order-500")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.PaymentStatus != domain.PaymentStatusPaid || order.PaidAt == nil {
		t.Fatalf("order not marked paid: %+v", order)
	}
	if got := store.AccrualCount("order-500"); got != 1 {
		t.Fatalf("expected exactly one accrual, got %d", got)
	}
	accrual, err := store.Commissions().GetByOrder(ctx, "order-500")
	if err != nil || accrual == nil {
		t.Fatalf("get accrual: %v %v", accrual, err)
	}
	// 5% of 150_000_000 tiyin
	if accrual.Amount != 7500000 {
		t.Fatalf("unexpected accrual amount %d", accrual.Amount)
	}
	if events := store.OutboxEvents(); len(events) != 1 || events[0] != EventTypeOrderPaid {
		t.Fatalf("unexpected outbox events %v", events)
	}
}

func TestCompleteReplayIsIdempotent(t *testing.T) {
	svc, store := newPaymentService(t)
	seedOrder(store, "order-500", 1500000, "aff-1")
	ctx := context.Background()

	if _, _, err := svc.ProcessClick(ctx, signedClick("ct-1", "order-500", "1500000", contracts.ClickActionPrepare, "0")); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, _, err := svc.ProcessClick(ctx, signedClick("ct-1", "order-500", "1500000", contracts.ClickActionComplete, "0")); err != nil {
			t.Fatalf("complete replay %d: %v", i, err)
		}
	}
	if got := store.AccrualCount("order-500"); got != 1 {
		t.Fatalf("replays accrued commission %d times", got)
	}
	if events := store.OutboxEvents(); len(events) != 1 {
		t.Fatalf("replays enqueued %d paid events", len(events))
	}
}

func TestConcurrentCompletesAccrueOnce(t *testing.T) {
	svc, store := newPaymentService(t)
	seedOrder(store, "order-500", 1500000, "aff-1")
	ctx := context.Background()

	if _, _, err := svc.ProcessClick(ctx, signedClick("ct-1", "order-500", "1500000", contracts.ClickActionPrepare, "0")); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = svc.ProcessClick(ctx, signedClick("ct-1", "order-500", "1500000", contracts.ClickActionComplete, "0"))
		}()
	}
	wg.Wait()
	if got := store.AccrualCount("order-500"); got != 1 {
		t.Fatalf("concurrent completes accrued %d times", got)
	}
}

func TestSecondProviderTransactionRejected(t *testing.T) {
	svc, store := newPaymentService(t)
	seedOrder(store, "order-500", 1500000, "")
	ctx := context.Background()

	if _, _, err := svc.ProcessClick(ctx, signedClick("ct-1", "order-500", "1500000", contracts.ClickActionPrepare, "0")); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	// A concurrent Payme attempt against the same order must lose the gate.
	_, err := svc.ProcessPayme(ctx, testPaymeAuth, contracts.PaymeRequest{
		Method: contracts.PaymeMethodCreate,
		Params: contracts.PaymeParams{ID: "pm-1", Amount: 150000000, Account: contracts.PaymeAccount{OrderID: "order-500"}},
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	// The conflict answer names the transaction holding the order.
	if !strings.Contains(err.Error(), "ct-1") {
		t.Fatalf("conflict does not identify the holding transaction: %v", err)
	}

	if _, _, err := svc.ProcessClick(ctx, signedClick("ct-1", "order-500", "1500000", contracts.ClickActionComplete, "0")); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, err = svc.ProcessPayme(ctx, testPaymeAuth, contracts.PaymeRequest{
		Method: contracts.PaymeMethodCreate,
		Params: contracts.PaymeParams{ID: "pm-2", Amount: 150000000, Account: contracts.PaymeAccount{OrderID: "order-500"}},
	})
	if !errors.Is(err, domain.ErrOrderAlreadyPaid) {
		t.Fatalf("expected already paid, got %v", err)
	}
}

func TestPrepareRejectsAmountMismatch(t *testing.T) {
	svc, store := newPaymentService(t)
	seedOrder(store, "order-500", 1500000, "")
	ctx := context.Background()

	_, _, err := svc.ProcessClick(ctx, signedClick("ct-1", "order-500", "1500001", contracts.ClickActionPrepare, "0"))
	if !errors.Is(err, domain.ErrAmountMismatch) {
		t.Fatalf("expected amount mismatch, got %v", err)
	}
	rec, _ := store.Transactions().Get(ctx, domain.ProviderClick, "ct-1")
	if rec != nil {
		t.Fatalf("mismatched prepare must not create a record")
	}
}

func TestTiyinAmountsAreNotConfusedWithSom(t *testing.T) {
	svc, store := newPaymentService(t)
	seedOrder(store, "order-501", 1500000, "")
	ctx := context.Background()

	// Payme sends tiyin. The raw som figure must be rejected.
	_, err := svc.ProcessPayme(ctx, testPaymeAuth, contracts.PaymeRequest{
		Method: contracts.PaymeMethodCheckPerform,
		Params: contracts.PaymeParams{Amount: 1500000, Account: contracts.PaymeAccount{OrderID: "order-501"}},
	})
	if !errors.Is(err, domain.ErrAmountMismatch) {
		t.Fatalf("som-denominated amount accepted: %v", err)
	}
	if _, err = svc.ProcessPayme(ctx, testPaymeAuth, contracts.PaymeRequest{
		Method: contracts.PaymeMethodCheckPerform,
		Params: contracts.PaymeParams{Amount: 150000000, Account: contracts.PaymeAccount{OrderID: "order-501"}},
	}); err != nil {
		t.Fatalf("tiyin-denominated amount rejected: %v", err)
	}
}

func TestBadSignatureCreatesNoState(t *testing.T) {
	svc, store := newPaymentService(t)
	seedOrder(store, "order-500", 1500000, "")
	ctx := context.Background()

	req := signedClick("ct-1", "order-500", "1500000", contracts.ClickActionPrepare, "0")
	req.SignString = "deadbeefdeadbeefdeadbeefdeadbeef"
	_, _, err := svc.ProcessClick(ctx, req)
	if !errors.Is(err, domain.ErrAuthenticationFailed) {
		t.Fatalf("expected authentication failure, got %v", err)
	}
	rec, _ := store.Transactions().Get(ctx, domain.ProviderClick, "ct-1")
	if rec != nil {
		t.Fatalf("unauthenticated request reached the store")
	}
}

func TestPaymeCreatePerformFlow(t *testing.T) {
	svc, store := newPaymentService(t)
	seedOrder(store, "order-501", 1500000, "")
	ctx := context.Background()

	outcome, err := svc.ProcessPayme(ctx, testPaymeAuth, contracts.PaymeRequest{
		Method: contracts.PaymeMethodCreate,
		Params: contracts.PaymeParams{ID: "pm-1", Amount: 150000000, Account: contracts.PaymeAccount{OrderID: "order-501"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if outcome.Record == nil || outcome.Record.State != domain.TransactionStateCreated {
		t.Fatalf("unexpected create outcome %+v", outcome.Record)
	}

	// PerformTransaction carries no amount; the stored one is authoritative.
	outcome, err = svc.ProcessPayme(ctx, testPaymeAuth, contracts.PaymeRequest{
		Method: contracts.PaymeMethodPerform,
		Params: contracts.PaymeParams{ID: "pm-1"},
	})
	if err != nil {
		t.Fatalf("perform: %v", err)
	}
	if outcome.Record.State != domain.TransactionStatePerformed || outcome.Record.PerformedAt == nil {
		t.Fatalf("unexpected perform outcome %+v", outcome.Record)
	}
	order, _ := store.Orders().Get(ctx, "order-501")
	if order.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("order not paid after perform: %+v", order)
	}

	outcome, err = svc.ProcessPayme(ctx, testPaymeAuth, contracts.PaymeRequest{
		Method: contracts.PaymeMethodCheck,
		Params: contracts.PaymeParams{ID: "pm-1"},
	})
	if err != nil {
		t.Fatalf("check transaction: %v", err)
	}
	if contracts.PaymeStateOf(*outcome.Record) != contracts.PaymeStatePerformed {
		t.Fatalf("check reported wrong state %+v", outcome.Record)
	}
}

func TestPaymeAuthFailureBeforeEngine(t *testing.T) {
	svc, store := newPaymentService(t)
	seedOrder(store, "order-501", 1500000, "")

	_, err := svc.ProcessPayme(context.Background(), "Basic bm9wZTpub3Bl", contracts.PaymeRequest{
		Method: contracts.PaymeMethodCreate,
		Params: contracts.PaymeParams{ID: "pm-1", Amount: 150000000, Account: contracts.PaymeAccount{OrderID: "order-501"}},
	})
	if !errors.Is(err, domain.ErrAuthenticationFailed) {
		t.Fatalf("expected authentication failure, got %v", err)
	}
	rec, _ := store.Transactions().Get(context.Background(), domain.ProviderPayme, "pm-1")
	if rec != nil {
		t.Fatalf("unauthenticated payme call created a record")
	}
}

func TestCancelBeforePerformFailsOrderAndAllowsRetry(t *testing.T) {
	svc, store := newPaymentService(t)
	seedOrder(store, "order-500", 1500000, "")
	ctx := context.Background()

	if _, _, err := svc.ProcessClick(ctx, signedClick("ct-1", "order-500", "1500000", contracts.ClickActionPrepare, "0")); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	record, _, err := svc.ProcessClick(ctx, signedClick("ct-1", "order-500", "1500000", contracts.ClickActionComplete, "-5017"))
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if record.State != domain.TransactionStateCancelled {
		t.Fatalf("expected cancelled record, got %+v", record)
	}
	order, _ := store.Orders().Get(ctx, "order-500")
	if order.PaymentStatus != domain.PaymentStatusFailed {
		t.Fatalf("expected failed payment status, got %q", order.PaymentStatus)
	}
	if events := store.OutboxEvents(); len(events) != 1 || events[0] != EventTypeOrderFailed {
		t.Fatalf("unexpected outbox events %v", events)
	}

	// The cancelled record releases the order for a fresh attempt.
	if _, _, err := svc.ProcessClick(ctx, signedClick("ct-2", "order-500", "1500000", contracts.ClickActionPrepare, "0")); err != nil {
		t.Fatalf("retry prepare: %v", err)
	}
	if _, _, err := svc.ProcessClick(ctx, signedClick("ct-2", "order-500", "1500000", contracts.ClickActionComplete, "0")); err != nil {
		t.Fatalf("retry complete: %v", err)
	}
	order, _ = store.Orders().Get(ctx, "order-500")
	if order.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("retried payment did not mark order paid: %+v", order)
	}
}

func TestCancelAfterPerformRefundsAndReversesAccrual(t *testing.T) {
	svc, store := newPaymentService(t)
	seedOrder(store, "order-501", 1500000, "aff-1")
	ctx := context.Background()

	if _, err := svc.ProcessPayme(ctx, testPaymeAuth, contracts.PaymeRequest{
		Method: contracts.PaymeMethodCreate,
		Params: contracts.PaymeParams{ID: "pm-1", Amount: 150000000, Account: contracts.PaymeAccount{OrderID: "order-501"}},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.ProcessPayme(ctx, testPaymeAuth, contracts.PaymeRequest{
		Method: contracts.PaymeMethodPerform,
		Params: contracts.PaymeParams{ID: "pm-1"},
	}); err != nil {
		t.Fatalf("perform: %v", err)
	}

	reason := domain.CancelReasonRefund
	outcome, err := svc.ProcessPayme(ctx, testPaymeAuth, contracts.PaymeRequest{
		Method: contracts.PaymeMethodCancel,
		Params: contracts.PaymeParams{ID: "pm-1", Reason: &reason},
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if contracts.PaymeStateOf(*outcome.Record) != contracts.PaymeStateCancelledAfterPaid {
		t.Fatalf("expected cancelled-after-paid state, got %+v", outcome.Record)
	}
	order, _ := store.Orders().Get(ctx, "order-501")
	if order.PaymentStatus != domain.PaymentStatusRefunded {
		t.Fatalf("expected refunded order, got %q", order.PaymentStatus)
	}
	accrual, _ := store.Commissions().GetByOrder(ctx, "order-501")
	if accrual == nil || accrual.Status != domain.AccrualStatusReversed {
		t.Fatalf("accrual not reversed: %+v", accrual)
	}
	events := store.OutboxEvents()
	if len(events) != 2 || events[1] != EventTypeOrderRefunded {
		t.Fatalf("unexpected outbox events %v", events)
	}
}

func TestOrderCreatedConsumptionIsDeduplicated(t *testing.T) {
	svc, store := newPaymentService(t)
	ctx := context.Background()

	payload := []byte(`{
		"event_id": "evt-1",
		"event_type": "order.created",
		"data": {
			"order_id": "order-900",
			"buyer_id": "buyer-7",
			"total_amount": 250000,
			"currency": "UZS",
			"payment_method": "payme"
		}
	}`)
	if err := svc.HandleOrderCreated(ctx, payload); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := svc.HandleOrderCreated(ctx, payload); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	order, err := store.Orders().Get(ctx, "order-900")
	if err != nil {
		t.Fatalf("order not seeded: %v", err)
	}
	if order.TotalAmount != 250000 || order.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("unexpected seeded order %+v", order)
	}

	if err := svc.HandleOrderCreated(ctx, []byte(`{"event_type":"order.created"}`)); !errors.Is(err, domain.ErrInvalidEnvelope) {
		t.Fatalf("expected invalid envelope, got %v", err)
	}
}

func TestUnknownOrderIsRejected(t *testing.T) {
	svc, _ := newPaymentService(t)
	_, _, err := svc.ProcessClick(context.Background(), signedClick("ct-1", "order-404", "1500000", contracts.ClickActionPrepare, "0"))
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected order not found, got %v", err)
	}
}

func TestCompleteWithoutPrepare(t *testing.T) {
	svc, store := newPaymentService(t)
	seedOrder(store, "order-500", 1500000, "")
	_, _, err := svc.ProcessClick(context.Background(), signedClick("ct-9", "order-500", "1500000", contracts.ClickActionComplete, "0"))
	if !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected transaction not found, got %v", err)
	}
}

func TestTransientStorageFailureSurfacesAsRetryable(t *testing.T) {
	svc, store := newPaymentService(t)
	seedOrder(store, "order-500", 1500000, "")

	failing := &failingOrders{}
	svc.orders = failing
	_, _, err := svc.ProcessClick(context.Background(), signedClick("ct-1", "order-500", "1500000", contracts.ClickActionPrepare, "0"))
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected storage unavailable, got %v", err)
	}
	if code, _ := contracts.ClickError(err); code != contracts.ClickErrorInternal {
		t.Fatalf("transient failure must map to the retryable click code, got %d", code)
	}
	if pe := contracts.PaymeErrorFor(err); pe.Code != contracts.PaymeErrorInternal {
		t.Fatalf("transient failure must map to the retryable payme code, got %d", pe.Code)
	}
	_ = store
}

type failingOrders struct{}

func (f *failingOrders) Get(context.Context, string) (domain.Order, error) {
	return domain.Order{}, fmt.Errorf("connection refused")
}

func (f *failingOrders) Create(context.Context, ports.CreateOrderParams) error {
	return fmt.Errorf("connection refused")
}
