package application

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/bozorapp/payment-service/internal/contracts"
)

// verifyClickSignature checks the keyed digest Click attaches to every
// callback: md5 over the concatenation of transaction id, service id, the
// shared secret, merchant transaction id, amount, action and sign time.
// Hex comparison is case-insensitive and constant-time. A missing field
// fails closed.
func (s *Service) verifyClickSignature(req contracts.ClickRequest) bool {
	if s.cfg.ClickSecretKey == "" {
		return false
	}
	if req.ClickTransID == "" || req.ServiceID == "" || req.MerchantTransID == "" ||
		req.Amount == "" || req.Action == "" || req.SignTime == "" || req.SignString == "" {
		return false
	}
	payload := req.ClickTransID + req.ServiceID + s.cfg.ClickSecretKey +
		req.MerchantTransID + req.Amount + req.Action + req.SignTime
	sum := md5.Sum([]byte(payload))
	want := hex.EncodeToString(sum[:])
	got := strings.ToLower(strings.TrimSpace(req.SignString))
	if len(got) != len(want) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

// verifyPaymeAuth checks the Basic Authorization header Payme sends with
// every RPC call against the configured merchant key.
func (s *Service) verifyPaymeAuth(authHeader string) bool {
	if s.cfg.PaymeKey == "" {
		return false
	}
	const prefix = "Basic "
	if !strings.HasPrefix(authHeader, prefix) {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(authHeader[len(prefix):]))
	if err != nil {
		return false
	}
	idx := strings.IndexByte(string(decoded), ':')
	if idx < 0 {
		return false
	}
	key := string(decoded)[idx+1:]
	if len(key) != len(s.cfg.PaymeKey) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.PaymeKey)) == 1
}
