package ports

type AuthClaims struct {
	UserID string
	Role   string
}

// TokenVerifier validates platform-issued access tokens presented on the
// order status endpoint.
type TokenVerifier interface {
	Verify(token string) (AuthClaims, error)
}
