package event

type PaymentSettledPayload struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Provider  string `json:"provider"`
	Source    string `json:"source"`
}
