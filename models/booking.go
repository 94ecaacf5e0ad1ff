package models

import "time"

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusPaid       BookingStatus = "paid"
	BookingStatusCancelled  BookingStatus = "cancelled"
	BookingStatusCheckedIn  BookingStatus = "checked_in"
	BookingStatusCheckedOut BookingStatus = "checked_out"
)

// ValidBookingStatus reports whether s belongs to the closed status set.
func ValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingStatusPending, BookingStatusPaid, BookingStatusCancelled,
		BookingStatusCheckedIn, BookingStatusCheckedOut:
		return true
	}
	return false
}

type Booking struct {
	ID          int           `json:"id"`
	BookingCode string        `json:"booking_code"`
	RoomID      int           `json:"room_id"`
	GuestName   string        `json:"guest_name"`
	GuestEmail  string        `json:"guest_email"`
	GuestPhone  string        `json:"guest_phone"`
	CheckIn     time.Time     `json:"check_in"`
	CheckOut    time.Time     `json:"check_out"`
	Nights      int           `json:"nights"`
	Guests      int           `json:"guests"`
	TotalPrice  int64         `json:"total_price"`
	Status      BookingStatus `json:"status"`
	Notes       string        `json:"notes,omitempty"`
	WANotifSent bool          `json:"wa_notif_sent"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// BookingDetail is a booking joined with its room and payment for API responses.
type BookingDetail struct {
	Booking
	Room    *Room    `json:"room,omitempty"`
	Payment *Payment `json:"payment,omitempty"`
}

type CreateBookingRequest struct {
	RoomID     int    `json:"room_id"`
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
	GuestPhone string `json:"guest_phone"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Guests     int    `json:"guests"`
	Notes      string `json:"notes"`
}

type BookingStats struct {
	TotalBookings   int   `json:"total_bookings"`
	PendingBookings int   `json:"pending_bookings"`
	PaidBookings    int   `json:"paid_bookings"`
	TodayBookings   int   `json:"today_bookings"`
	TotalRevenue    int64 `json:"total_revenue"`
}
