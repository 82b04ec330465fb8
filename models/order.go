package models

// Customer is the identity snapshot sent with every order request.
type Customer struct {
	ID    string `json:"customer_id"`
	Name  string `json:"customer_name"`
	Email string `json:"customer_email"`
	Phone string `json:"customer_phone"`
}

type SingleOrderRequest struct {
	Amount          int64    `json:"amount"`
	Currency        string   `json:"currency"`
	CourseID        string   `json:"courseId"`
	CustomerDetails Customer `json:"customerDetails"`
}

type BulkOrderRequest struct {
	CourseIDs       []string `json:"courseIds"`
	Currency        string   `json:"currency"`
	CustomerDetails Customer `json:"customerDetails"`
}

// Order holds the two capability tokens issued by the payment backend. Neither
// is interpreted by this service.
type Order struct {
	OrderID          string   `json:"order_id"`
	PaymentSessionID string   `json:"payment_session_id"`
	Currency         string   `json:"currency,omitempty"`
	Amount           int64    `json:"amount,omitempty"`
	Customer         Customer `json:"-"`
}

type CheckoutRequest struct {
	Flow          string `json:"flow"`
	TermsAccepted bool   `json:"terms_accepted"`
}

type EnrollRequest struct {
	CourseID CourseID `json:"course_id"`
}

type CheckoutResultRequest struct {
	PaymentSessionID string `json:"payment_session_id"`
	Status           string `json:"status"`
	Message          string `json:"message"`
}

type CheckoutSessionResponse struct {
	OrderID          string `json:"order_id"`
	PaymentSessionID string `json:"payment_session_id"`
	Mode             string `json:"mode"`
	RedirectTarget   string `json:"redirect_target"`
	SDKURL           string `json:"sdk_url"`
}

type CheckoutStatusResponse struct {
	Flow      string `json:"flow"`
	State     string `json:"state"`
	OrderID   string `json:"order_id,omitempty"`
	ReturnURL string `json:"return_url,omitempty"`
	Error     string `json:"error,omitempty"`
}

type CheckoutMountResponse struct {
	Flow        string `json:"flow"`
	State       string `json:"state"`
	Mode        string `json:"mode"`
	SDKURL      string `json:"sdk_url"`
	ScriptReady bool   `json:"script_ready"`
}

type CheckoutResultResponse struct {
	Delivered bool   `json:"delivered"`
	Status    string `json:"status"`
	ReturnURL string `json:"return_url,omitempty"`
}
