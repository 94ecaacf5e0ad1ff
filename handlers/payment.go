package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"booking-svc/config"
	"booking-svc/gateway"
	"booking-svc/invoice"
	"booking-svc/kafka"
	"booking-svc/middleware"
	"booking-svc/models"
	"booking-svc/wablast"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// PaymentGateway is the slice of the Midtrans client the handlers need.
type PaymentGateway interface {
	CreateTransaction(ctx context.Context, p gateway.TransactionParams) (*gateway.SnapTransaction, error)
	TransactionStatus(ctx context.Context, orderID string) (*gateway.TransactionStatus, error)
	ClientKey() string
}

type InvoiceGenerator interface {
	Generate(data invoice.InvoiceData) (string, error)
}

type WhatsAppNotifier interface {
	SendTextWithDocument(ctx context.Context, to, textBody, documentURL, filename string) wablast.SendResult
}

type PaymentHandler struct {
	db       *sql.DB
	gw       PaymentGateway
	invoices InvoiceGenerator
	notifier WhatsAppNotifier
	producer sarama.SyncProducer
	cfg      config.Config
	logger   *zap.Logger
}

func NewPaymentHandler(
	db *sql.DB,
	gw PaymentGateway,
	invoices InvoiceGenerator,
	notifier WhatsAppNotifier,
	producer sarama.SyncProducer,
	cfg config.Config,
	logger *zap.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		db:       db,
		gw:       gw,
		invoices: invoices,
		notifier: notifier,
		producer: producer,
		cfg:      cfg,
		logger:   logger,
	}
}

// paymentRecord is the payment joined with its booking and room.
type paymentRecord struct {
	Payment models.Payment
	Booking models.Booking

	RoomName  string
	RoomPrice int64
}

const paymentRecordColumns = `p.id, p.booking_id, p.midtrans_order_id, p.amount, p.status, p.payment_type, p.paid_at,
		b.booking_code, b.room_id, b.guest_name, b.guest_email, b.guest_phone,
		b.check_in, b.check_out, b.nights, b.guests, b.total_price, b.status, b.wa_notif_sent,
		r.name, r.price`

const paymentRecordFrom = ` FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		JOIN rooms r ON r.id = b.room_id`

func (h *PaymentHandler) fetchPaymentRecord(ctx context.Context, where string, arg interface{}) (*paymentRecord, error) {
	var rec paymentRecord
	var paymentType sql.NullString
	var paidAt sql.NullTime

	err := h.db.QueryRowContext(ctx,
		"SELECT "+paymentRecordColumns+paymentRecordFrom+" WHERE "+where, arg,
	).Scan(&rec.Payment.ID, &rec.Payment.BookingID, &rec.Payment.MidtransOrderID,
		&rec.Payment.Amount, &rec.Payment.Status, &paymentType, &paidAt,
		&rec.Booking.BookingCode, &rec.Booking.RoomID, &rec.Booking.GuestName,
		&rec.Booking.GuestEmail, &rec.Booking.GuestPhone, &rec.Booking.CheckIn,
		&rec.Booking.CheckOut, &rec.Booking.Nights, &rec.Booking.Guests,
		&rec.Booking.TotalPrice, &rec.Booking.Status, &rec.Booking.WANotifSent,
		&rec.RoomName, &rec.RoomPrice)
	if err != nil {
		return nil, err
	}

	rec.Booking.ID = rec.Payment.BookingID
	rec.Payment.PaymentType = paymentType.String
	if paidAt.Valid {
		t := paidAt.Time
		rec.Payment.PaidAt = &t
	}
	return &rec, nil
}

// applyTransition writes the payment and booking updates of one state
// transition in a single transaction.
func (h *PaymentHandler) applyTransition(
	ctx context.Context,
	rec *paymentRecord,
	paymentStatus models.PaymentStatus,
	bookingStatus models.BookingStatus,
	paymentType string,
	rawNotification []byte,
	markPaid bool,
) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE payments SET status = $1,
			payment_type = COALESCE(NULLIF($2, ''), payment_type),
			midtrans_response = COALESCE($3, midtrans_response),
			paid_at = CASE WHEN $4 THEN CURRENT_TIMESTAMP ELSE paid_at END,
			updated_at = CURRENT_TIMESTAMP
		 WHERE id = $5`,
		paymentStatus, paymentType, rawNotification, markPaid, rec.Payment.ID)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE bookings SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2",
		bookingStatus, rec.Booking.ID)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}
	return nil
}

// mapNotificationStatus resolves the gateway notification to target states.
// A pending notification leaves the booking status untouched.
func mapNotificationStatus(
	n models.MidtransNotification,
	currentPayment models.PaymentStatus,
	currentBooking models.BookingStatus,
) (models.PaymentStatus, models.BookingStatus) {
	switch n.TransactionStatus {
	case "capture", "settlement":
		if n.FraudStatus == "" || n.FraudStatus == "accept" {
			return models.PaymentStatusSettlement, models.BookingStatusPaid
		}
	case "deny":
		return models.PaymentStatusDeny, models.BookingStatusCancelled
	case "cancel":
		return models.PaymentStatusCancel, models.BookingStatusCancelled
	case "expire":
		return models.PaymentStatusExpire, models.BookingStatusCancelled
	case "pending":
		return models.PaymentStatusPending, currentBooking
	}
	return currentPayment, currentBooking
}

// GetClientKey exposes the Midtrans client key for the frontend Snap UI.
func (h *PaymentHandler) GetClientKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"client_key": h.gw.ClientKey()},
	})
}

// HandleNotification processes the asynchronous gateway webhook. Errors
// return 500 without retry scheduling; the gateway redelivers.
func (h *PaymentHandler) HandleNotification(c *gin.Context) {
	ctx, span := otel.Tracer("booking-service").Start(c.Request.Context(), "HandleNotification")
	defer span.End()

	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid payload"})
		return
	}
	var notif models.MidtransNotification
	if err := json.Unmarshal(raw, &notif); err != nil || notif.OrderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid payload"})
		return
	}

	span.SetAttributes(
		attribute.String("order.id", notif.OrderID),
		attribute.String("transaction.status", notif.TransactionStatus),
	)
	h.logger.Info("Payment notification received",
		zap.String("order_id", notif.OrderID),
		zap.String("transaction_status", notif.TransactionStatus),
		zap.String("payment_type", notif.PaymentType),
	)

	rec, err := h.fetchPaymentRecord(ctx, "p.midtrans_order_id = $1", notif.OrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.logger.Error("Payment not found for order", zap.String("order_id", notif.OrderID))
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Payment not found"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to fetch payment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	newPayment, newBooking := mapNotificationStatus(notif, rec.Payment.Status, rec.Booking.Status)
	newlySettled := newPayment == models.PaymentStatusSettlement &&
		rec.Payment.Status != models.PaymentStatusSettlement

	if err := h.applyTransition(ctx, rec, newPayment, newBooking, notif.PaymentType, raw, newlySettled); err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to apply payment transition", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}
	middleware.RecordPaymentProcessed(string(newPayment))

	cancelled := newBooking == models.BookingStatusCancelled &&
		rec.Booking.Status != models.BookingStatusCancelled

	switch {
	case newlySettled:
		h.publishPaymentEvent(ctx, rec, models.EventPaymentSettled, notif.PaymentType)
		h.processPostPayment(ctx, rec, notif.PaymentType)
	case cancelled:
		h.publishPaymentEvent(ctx, rec, models.EventPaymentCancelled, notif.PaymentType)
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ConfirmPayment is the synchronous frontend-confirmation path, used when
// webhooks cannot reach the backend. A failed or disagreeing status query
// still settles when the trust-frontend policy is enabled.
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	ctx, span := otel.Tracer("booking-service").Start(c.Request.Context(), "ConfirmPayment")
	defer span.End()

	bookingID := c.Param("bookingId")
	span.SetAttributes(attribute.String("booking.id", bookingID))

	rec, err := h.fetchPaymentRecord(ctx, "p.booking_id = $1", bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Payment not found"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to fetch payment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	// Already settled: idempotent short-circuit, no side effects.
	if rec.Payment.Status == models.PaymentStatusSettlement {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"status": "already_confirmed", "booking": rec.Booking},
		})
		return
	}

	paymentType := rec.Payment.PaymentType
	if paymentType == "" {
		paymentType = "online_payment"
	}

	verified := false
	status, err := h.gw.TransactionStatus(ctx, rec.Payment.MidtransOrderID)
	switch {
	case err != nil:
		// Gateway status API can be unreliable in sandbox environments.
		if h.cfg.Payment.TrustFrontend {
			h.logger.Warn("Gateway verify failed, trusting frontend",
				zap.String("order_id", rec.Payment.MidtransOrderID), zap.Error(err))
			verified = true
		}
	case status.TransactionStatus == "capture" || status.TransactionStatus == "settlement":
		verified = true
		if status.PaymentType != "" {
			paymentType = status.PaymentType
		}
		h.logger.Info("Gateway verified settlement",
			zap.String("order_id", rec.Payment.MidtransOrderID),
			zap.String("transaction_status", status.TransactionStatus))
	default:
		if h.cfg.Payment.TrustFrontend {
			h.logger.Warn("Gateway reports non-settlement status, trusting frontend",
				zap.String("order_id", rec.Payment.MidtransOrderID),
				zap.String("transaction_status", status.TransactionStatus))
			verified = true
		}
	}

	if !verified {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Payment could not be verified"})
		return
	}

	err = h.applyTransition(ctx, rec,
		models.PaymentStatusSettlement, models.BookingStatusPaid, paymentType, nil, true)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to apply payment transition", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}
	middleware.RecordPaymentProcessed(string(models.PaymentStatusSettlement))

	h.logger.Info("Booking confirmed as paid",
		zap.String("booking_code", rec.Booking.BookingCode),
		zap.String("payment_type", paymentType))

	h.publishPaymentEvent(ctx, rec, models.EventPaymentSettled, paymentType)
	h.processPostPayment(ctx, rec, paymentType)

	booking := rec.Booking
	booking.Status = models.BookingStatusPaid
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"status": "confirmed", "booking": booking},
	})
}

// GetPaymentStatus reports the current payment state for a booking.
func (h *PaymentHandler) GetPaymentStatus(c *gin.Context) {
	ctx, span := otel.Tracer("booking-service").Start(c.Request.Context(), "GetPaymentStatus")
	defer span.End()

	bookingID := c.Param("bookingId")
	span.SetAttributes(attribute.String("booking.id", bookingID))

	rec, err := h.fetchPaymentRecord(ctx, "p.booking_id = $1", bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Payment not found"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to fetch payment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"status":       rec.Payment.Status,
			"payment_type": rec.Payment.PaymentType,
			"amount":       rec.Payment.Amount,
			"paid_at":      rec.Payment.PaidAt,
			"booking":      rec.Booking,
		},
	})
}

// processPostPayment runs the post-settlement pipeline: invoice PDF, then a
// WhatsApp text + document. The wa_notif_sent compare-and-swap is the
// idempotency barrier; the losing invocation of a race skips entirely.
// Failures are logged and never fail the parent request.
func (h *PaymentHandler) processPostPayment(ctx context.Context, rec *paymentRecord, paymentType string) {
	res, err := h.db.ExecContext(ctx,
		"UPDATE bookings SET wa_notif_sent = TRUE, updated_at = CURRENT_TIMESTAMP WHERE id = $1 AND wa_notif_sent = FALSE",
		rec.Booking.ID)
	if err != nil {
		h.logger.Error("Failed to claim notification flag",
			zap.String("booking_code", rec.Booking.BookingCode), zap.Error(err))
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		h.logger.Info("Notification already sent, skipping",
			zap.String("booking_code", rec.Booking.BookingCode))
		return
	}

	pdfPath, err := h.invoices.Generate(invoice.InvoiceData{
		BookingCode:   rec.Booking.BookingCode,
		GuestName:     rec.Booking.GuestName,
		GuestEmail:    rec.Booking.GuestEmail,
		GuestPhone:    rec.Booking.GuestPhone,
		RoomName:      rec.RoomName,
		CheckIn:       rec.Booking.CheckIn,
		CheckOut:      rec.Booking.CheckOut,
		Nights:        rec.Booking.Nights,
		PricePerNight: rec.RoomPrice,
		TotalPrice:    rec.Booking.TotalPrice,
		PaymentType:   paymentType,
		PaidAt:        time.Now(),
	})
	if err != nil {
		h.logger.Error("Invoice generation failed",
			zap.String("booking_code", rec.Booking.BookingCode), zap.Error(err))
		h.releaseNotifFlag(ctx, rec.Booking.ID)
		middleware.RecordNotificationSent("payment_confirmation", "failed")
		return
	}
	h.logger.Info("Invoice generated", zap.String("path", pdfPath))

	invoiceURL := fmt.Sprintf("%s/invoices/invoice-%s.pdf", h.cfg.BackendURL, rec.Booking.BookingCode)
	invoiceFilename := fmt.Sprintf("Invoice-%s.pdf", rec.Booking.BookingCode)
	message := buildPaymentMessage(h.cfg.Hotel.Name, rec, paymentType)

	result := h.notifier.SendTextWithDocument(ctx, rec.Booking.GuestPhone, message, invoiceURL, invoiceFilename)
	if !result.Success {
		h.logger.Error("WhatsApp notification failed",
			zap.String("booking_code", rec.Booking.BookingCode),
			zap.String("error", result.Error))
		h.releaseNotifFlag(ctx, rec.Booking.ID)
		middleware.RecordNotificationSent("payment_confirmation", "failed")
		return
	}
	if result.Error != "" {
		h.logger.Warn("WhatsApp notification partially delivered",
			zap.String("booking_code", rec.Booking.BookingCode),
			zap.String("error", result.Error))
	}

	middleware.RecordNotificationSent("payment_confirmation", "sent")
	h.logger.Info("Payment notification sent",
		zap.String("booking_code", rec.Booking.BookingCode),
		zap.String("phone", rec.Booking.GuestPhone))
}

func (h *PaymentHandler) releaseNotifFlag(ctx context.Context, bookingID int) {
	if _, err := h.db.ExecContext(ctx,
		"UPDATE bookings SET wa_notif_sent = FALSE, updated_at = CURRENT_TIMESTAMP WHERE id = $1",
		bookingID); err != nil {
		h.logger.Error("Failed to release notification flag", zap.Int("booking_id", bookingID), zap.Error(err))
	}
}

func (h *PaymentHandler) publishPaymentEvent(ctx context.Context, rec *paymentRecord, eventType, paymentType string) {
	event := models.BookingEvent{
		BookingID:   rec.Booking.ID,
		BookingCode: rec.Booking.BookingCode,
		OrderID:     rec.Payment.MidtransOrderID,
		RoomID:      rec.Booking.RoomID,
		Status:      rec.Booking.Status,
		TotalPrice:  rec.Booking.TotalPrice,
		PaymentType: paymentType,
		EventType:   eventType,
	}
	if err := kafka.PublishBookingEvent(ctx, h.producer, h.cfg.Kafka.Topic, event, h.logger); err != nil {
		h.logger.Error("Failed to publish payment event",
			zap.String("event_type", eventType), zap.Error(err))
	}
}

func buildPaymentMessage(hotelName string, rec *paymentRecord, paymentType string) string {
	grandTotal := rec.Booking.TotalPrice + invoice.TaxAmount(rec.Booking.TotalPrice)
	method := paymentType
	if method == "" {
		method = "Online Payment"
	}
	method = strings.ReplaceAll(method, "_", " ")

	return fmt.Sprintf(`Dear *%s*,

Thank you for your reservation at *%s*! 🏨

✅ *Payment Confirmed*

━━━━━━━━━━━━━━━━━━━━
📋 *BOOKING DETAILS*
━━━━━━━━━━━━━━━━━━━━
📌 *Invoice:* INV-%s
🏠 *Room:* %s
📅 *Check-in:* %s
📅 *Check-out:* %s
🌙 *Duration:* %d night(s)
💰 *Total Paid:* %s
💳 *Payment:* %s

Please present your booking code *%s* upon check-in.

📎 Your invoice is attached below.

We look forward to welcoming you! 🌴

Best regards,
*%s Team*`,
		rec.Booking.GuestName,
		hotelName,
		rec.Booking.BookingCode,
		rec.RoomName,
		rec.Booking.CheckIn.Format("02 Jan 2006"),
		rec.Booking.CheckOut.Format("02 Jan 2006"),
		rec.Booking.Nights,
		invoice.FormatIDR(grandTotal),
		method,
		rec.Booking.BookingCode,
		hotelName,
	)
}
