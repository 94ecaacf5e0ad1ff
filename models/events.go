package models

// Booking lifecycle events published to Kafka for audit/dashboard consumers.
const (
	EventBookingCreated   = "booking_created"
	EventPaymentSettled   = "payment_settled"
	EventPaymentCancelled = "payment_cancelled"
)

type BookingEvent struct {
	BookingID   int           `json:"booking_id"`
	BookingCode string        `json:"booking_code"`
	OrderID     string        `json:"order_id,omitempty"`
	RoomID      int           `json:"room_id"`
	Status      BookingStatus `json:"status"`
	TotalPrice  int64         `json:"total_price"`
	PaymentType string        `json:"payment_type,omitempty"`
	EventType   string        `json:"event_type"`
}
