package models

import "time"

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusSettlement PaymentStatus = "settlement"
	PaymentStatusDeny       PaymentStatus = "deny"
	PaymentStatusCancel     PaymentStatus = "cancel"
	PaymentStatusExpire     PaymentStatus = "expire"
)

type Payment struct {
	ID              int           `json:"id"`
	BookingID       int           `json:"booking_id"`
	MidtransOrderID string        `json:"midtrans_order_id"`
	Amount          int64         `json:"amount"`
	Status          PaymentStatus `json:"status"`
	PaymentType     string        `json:"payment_type,omitempty"`
	SnapToken       string        `json:"snap_token,omitempty"`
	PaidAt          *time.Time    `json:"paid_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// MidtransNotification is the inbound webhook payload from the gateway.
type MidtransNotification struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
}
