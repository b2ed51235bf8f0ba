package application

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/bozorapp/payment-service/internal/contracts"
)

func clickSign(secret string, req contracts.ClickRequest) string {
	sum := md5.Sum([]byte(req.ClickTransID + req.ServiceID + secret + req.MerchantTransID + req.Amount + req.Action + req.SignTime))
	return hex.EncodeToString(sum[:])
}

func TestVerifyClickSignature(t *testing.T) {
	svc := NewService(Dependencies{Config: Config{ClickSecretKey: "topsecret"}})
	req := contracts.ClickRequest{
		ClickTransID:    "trans-1",
		ServiceID:       "12345",
		MerchantTransID: "order-500",
		Amount:          "1500000",
		Action:          contracts.ClickActionPrepare,
		SignTime:        "2026-08-28 10:00:00",
	}
	req.SignString = clickSign("topsecret", req)
	if !svc.verifyClickSignature(req) {
		t.Fatalf("valid signature rejected")
	}

	upper := req
	upper.SignString = strings.ToUpper(req.SignString)
	if !svc.verifyClickSignature(upper) {
		t.Fatalf("hex comparison must be case-insensitive")
	}

	tampered := req
	tampered.Amount = "1"
	if svc.verifyClickSignature(tampered) {
		t.Fatalf("tampered amount accepted")
	}

	wrongKey := req
	wrongKey.SignString = clickSign("othersecret", req)
	if svc.verifyClickSignature(wrongKey) {
		t.Fatalf("signature under wrong key accepted")
	}

	missing := req
	missing.SignString = ""
	if svc.verifyClickSignature(missing) {
		t.Fatalf("missing signature accepted")
	}

	unconfigured := NewService(Dependencies{Config: Config{}})
	if unconfigured.verifyClickSignature(req) {
		t.Fatalf("empty secret must fail closed")
	}
}

func TestVerifyPaymeAuth(t *testing.T) {
	svc := NewService(Dependencies{Config: Config{PaymeKey: "merchant-key"}})

	header := "Basic " + base64.StdEncoding.EncodeToString([]byte("Paycom:merchant-key"))
	if !svc.verifyPaymeAuth(header) {
		t.Fatalf("valid basic auth rejected")
	}
	bad := "Basic " + base64.StdEncoding.EncodeToString([]byte("Paycom:wrong"))
	if svc.verifyPaymeAuth(bad) {
		t.Fatalf("wrong key accepted")
	}
	if svc.verifyPaymeAuth("Bearer token") {
		t.Fatalf("non-basic scheme accepted")
	}
	if svc.verifyPaymeAuth("Basic not-base64!!") {
		t.Fatalf("malformed base64 accepted")
	}
	if svc.verifyPaymeAuth("") {
		t.Fatalf("missing header accepted")
	}
}
