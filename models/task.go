package models

// RefundPayload is the durable payload of a queued refund task. Enqueued when
// a paid checkout loses the slot race, so the client's money is returned even
// if the verifying process dies right after the conflict is detected.
type RefundPayload struct {
	PaymentIntentID string `json:"paymentIntentId"`
	Reason          string `json:"reason"`
}
