package contracts

type StatusResponse struct {
	OrderID       string          `json:"order_id"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	TotalAmount   int64           `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	Commission    *CommissionInfo `json:"commission,omitempty"`
}

type CommissionInfo struct {
	AffiliateID string `json:"affiliate_id"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}
