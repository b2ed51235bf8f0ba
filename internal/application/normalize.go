package application

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bozorapp/payment-service/internal/contracts"
	"github.com/bozorapp/payment-service/internal/domain"
)

// normalizeClick maps the Click wire format onto the internal event shape.
// Click transmits the amount as a decimal string in som; it is converted to
// tiyin here and nowhere else.
func normalizeClick(req contracts.ClickRequest, now time.Time) (domain.PaymentEvent, error) {
	event := domain.PaymentEvent{
		Provider:              domain.ProviderClick,
		ProviderTransactionID: strings.TrimSpace(req.ClickTransID),
		OrderReference:        strings.TrimSpace(req.MerchantTransID),
		ReceivedAt:            now,
	}
	if event.ProviderTransactionID == "" || event.OrderReference == "" {
		return event, fmt.Errorf("%w: missing transaction or order reference", domain.ErrInvalidEnvelope)
	}
	amount, err := amountToTiyin(req.Amount)
	if err != nil {
		return event, fmt.Errorf("%w: %v", domain.ErrInvalidEnvelope, err)
	}
	event.Amount = amount

	switch req.Action {
	case contracts.ClickActionPrepare:
		event.Action = domain.ActionPrepare
	case contracts.ClickActionComplete:
		event.Action = domain.ActionComplete
		// Click signals a merchant-side cancellation by re-sending the
		// complete callback with a negative error field.
		if errCode, convErr := strconv.Atoi(strings.TrimSpace(req.Error)); convErr == nil && errCode < 0 {
			reason := domain.CancelReasonProcessingFail
			event.Action = domain.ActionCancel
			event.CancelReason = &reason
		}
	default:
		return event, fmt.Errorf("%w: action %q", domain.ErrUnsupportedMethod, req.Action)
	}
	return event, nil
}

// normalizePayme maps one RPC call onto the internal event shape. Payme
// amounts are already in tiyin (x100 of the stored som total); they pass
// through unchanged so the engine always compares tiyin to tiyin.
func normalizePayme(req contracts.PaymeRequest, now time.Time) (domain.PaymentEvent, error) {
	event := domain.PaymentEvent{
		Provider:              domain.ProviderPayme,
		ProviderTransactionID: strings.TrimSpace(req.Params.ID),
		OrderReference:        strings.TrimSpace(req.Params.Account.OrderID.String()),
		Amount:                req.Params.Amount,
		CancelReason:          req.Params.Reason,
		ReceivedAt:            now,
	}

	switch req.Method {
	case contracts.PaymeMethodCheckPerform:
		event.Action = domain.ActionCheck
		if event.OrderReference == "" {
			return event, fmt.Errorf("%w: account.order_id required", domain.ErrInvalidEnvelope)
		}
	case contracts.PaymeMethodCreate:
		event.Action = domain.ActionPrepare
		if event.ProviderTransactionID == "" || event.OrderReference == "" {
			return event, fmt.Errorf("%w: id and account.order_id required", domain.ErrInvalidEnvelope)
		}
	case contracts.PaymeMethodPerform:
		event.Action = domain.ActionComplete
		if event.ProviderTransactionID == "" {
			return event, fmt.Errorf("%w: id required", domain.ErrInvalidEnvelope)
		}
	case contracts.PaymeMethodCancel:
		event.Action = domain.ActionCancel
		if event.ProviderTransactionID == "" {
			return event, fmt.Errorf("%w: id required", domain.ErrInvalidEnvelope)
		}
	default:
		return event, fmt.Errorf("%w: %q", domain.ErrUnsupportedMethod, req.Method)
	}
	return event, nil
}

// amountToTiyin parses a decimal som amount ("1500000" or "1500000.00")
// into exact tiyin without going through floating point.
func amountToTiyin(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("amount is empty")
	}
	whole, frac := raw, ""
	if idx := strings.IndexByte(raw, '.'); idx >= 0 {
		whole, frac = raw[:idx], raw[idx+1:]
	}
	if len(frac) > 2 {
		if strings.Trim(frac[2:], "0") != "" {
			return 0, fmt.Errorf("amount %q has sub-tiyin precision", raw)
		}
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}
	som, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || som < 0 {
		return 0, fmt.Errorf("amount %q is not a valid decimal", raw)
	}
	tiyin, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a valid decimal", raw)
	}
	return som*100 + tiyin, nil
}
