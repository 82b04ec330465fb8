package cashfree

const (
	SingleOrderPath = "/api/cashfree/order"
	BulkOrderPath   = "/api/cashfree/order-bulk"
	DefaultSDKURL   = "https://sdk.cashfree.com/js/v3/cashfree.js"
	// RedirectTarget keeps the hosted checkout in the current tab.
	RedirectTarget = "_self"
)

type orderResponse struct {
	OrderID          string `json:"order_id"`
	PaymentSessionID string `json:"payment_session_id"`
	OrderCurrency    string `json:"order_currency,omitempty"`
	OrderAmount      int64  `json:"order_amount,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e errorResponse) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}
