package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"booking-svc/config"
	"booking-svc/gateway"
	"booking-svc/kafka"
	"booking-svc/models"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const bookingCodePrefix = "MBR"

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// generateBookingCode builds MBR-<base36 ms timestamp>-<4 random base36 chars>.
// Best-effort uniqueness; the UNIQUE constraint on booking_code is the backstop.
func generateBookingCode() string {
	timestamp := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	random := make([]byte, 4)
	for i := range random {
		random[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return fmt.Sprintf("%s-%s-%s", bookingCodePrefix, timestamp, random)
}

func calculateNights(checkIn, checkOut time.Time) int {
	return int(math.Ceil(checkOut.Sub(checkIn).Hours() / 24))
}

func parseBookingDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

type BookingHandler struct {
	db       *sql.DB
	gw       PaymentGateway
	producer sarama.SyncProducer
	cfg      config.Config
	logger   *zap.Logger
}

func NewBookingHandler(db *sql.DB, gw PaymentGateway, producer sarama.SyncProducer, cfg config.Config, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{db: db, gw: gw, producer: producer, cfg: cfg, logger: logger}
}

const bookingDetailColumns = `b.id, b.booking_code, b.room_id, b.guest_name, b.guest_email, b.guest_phone,
		b.check_in, b.check_out, b.nights, b.guests, b.total_price, b.status, b.notes,
		b.wa_notif_sent, b.created_at, b.updated_at,
		r.name, r.slug, r.price,
		p.id, p.midtrans_order_id, p.amount, p.status, p.payment_type, p.paid_at`

const bookingDetailFrom = ` FROM bookings b
		JOIN rooms r ON r.id = b.room_id
		LEFT JOIN payments p ON p.booking_id = b.id`

func scanBookingDetail(row interface{ Scan(...interface{}) error }) (models.BookingDetail, error) {
	var d models.BookingDetail
	var roomName, roomSlug string
	var roomPrice int64
	var pID sql.NullInt64
	var pOrderID, pStatus, pType sql.NullString
	var pAmount sql.NullInt64
	var pPaidAt sql.NullTime

	err := row.Scan(&d.ID, &d.BookingCode, &d.RoomID, &d.GuestName, &d.GuestEmail, &d.GuestPhone,
		&d.CheckIn, &d.CheckOut, &d.Nights, &d.Guests, &d.TotalPrice, &d.Status, &d.Notes,
		&d.WANotifSent, &d.CreatedAt, &d.UpdatedAt,
		&roomName, &roomSlug, &roomPrice,
		&pID, &pOrderID, &pAmount, &pStatus, &pType, &pPaidAt)
	if err != nil {
		return d, err
	}

	d.Room = &models.Room{ID: d.RoomID, Name: roomName, Slug: roomSlug, Price: roomPrice}
	if pID.Valid {
		payment := &models.Payment{
			ID:              int(pID.Int64),
			BookingID:       d.ID,
			MidtransOrderID: pOrderID.String,
			Amount:          pAmount.Int64,
			Status:          models.PaymentStatus(pStatus.String),
			PaymentType:     pType.String,
		}
		if pPaidAt.Valid {
			paidAt := pPaidAt.Time
			payment.PaidAt = &paidAt
		}
		d.Payment = payment
	}
	return d, nil
}

// ListBookings supports status filtering and page/limit pagination.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	ctx, span := otel.Tracer("booking-service").Start(c.Request.Context(), "ListBookings")
	defer span.End()

	status := c.Query("status")
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	where := ""
	countArgs := []interface{}{}
	listArgs := []interface{}{}
	if status != "" && status != "all" {
		where = " WHERE b.status = $1"
		countArgs = append(countArgs, status)
		listArgs = append(listArgs, status)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM bookings b" + where
	if err := h.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to count bookings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	listQuery := fmt.Sprintf("SELECT %s%s%s ORDER BY b.created_at DESC LIMIT $%d OFFSET $%d",
		bookingDetailColumns, bookingDetailFrom, where, len(listArgs)+1, len(listArgs)+2)
	listArgs = append(listArgs, limit, offset)

	rows, err := h.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to list bookings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}
	defer rows.Close()

	bookings := []models.BookingDetail{}
	for rows.Next() {
		d, err := scanBookingDetail(rows)
		if err != nil {
			span.RecordError(err)
			h.logger.Error("Failed to scan booking", zap.Error(err))
			continue
		}
		bookings = append(bookings, d)
	}

	span.SetAttributes(attribute.Int("bookings.count", len(bookings)))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    bookings,
		"pagination": gin.H{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": (total + limit - 1) / limit,
		},
	})
}

// GetBookingStats returns dashboard counters.
func (h *BookingHandler) GetBookingStats(c *gin.Context) {
	ctx, span := otel.Tracer("booking-service").Start(c.Request.Context(), "GetBookingStats")
	defer span.End()

	var stats models.BookingStats
	err := h.db.QueryRowContext(ctx, `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE status = 'pending'),
		COUNT(*) FILTER (WHERE status = 'paid'),
		COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE),
		COALESCE(SUM(total_price) FILTER (WHERE status = 'paid'), 0)
		FROM bookings`).Scan(
		&stats.TotalBookings, &stats.PendingBookings, &stats.PaidBookings,
		&stats.TodayBookings, &stats.TotalRevenue)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to fetch booking stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	ctx, span := otel.Tracer("booking-service").Start(c.Request.Context(), "GetBooking")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("booking.id", id))

	detail, err := scanBookingDetail(h.db.QueryRowContext(ctx,
		"SELECT "+bookingDetailColumns+bookingDetailFrom+" WHERE b.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Booking not found"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to fetch booking", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": detail})
}

// CreateBooking validates guest input, prices the stay, persists the booking
// with its pending payment, and issues a Snap token for the client UI.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	ctx, span := otel.Tracer("booking-service").Start(c.Request.Context(), "CreateBooking")
	defer span.End()

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if req.RoomID == 0 || req.GuestName == "" || req.GuestEmail == "" ||
		req.GuestPhone == "" || req.CheckIn == "" || req.CheckOut == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Missing required fields: room_id, guest_name, guest_email, guest_phone, check_in, check_out",
		})
		return
	}

	checkIn, err := parseBookingDate(req.CheckIn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid check_in date"})
		return
	}
	checkOut, err := parseBookingDate(req.CheckOut)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid check_out date"})
		return
	}

	span.SetAttributes(attribute.Int("room.id", req.RoomID))

	// Inactive rooms are deliberately still bookable so in-flight stays complete.
	var room models.Room
	err = h.db.QueryRowContext(ctx,
		"SELECT id, name, slug, price FROM rooms WHERE id = $1", req.RoomID,
	).Scan(&room.ID, &room.Name, &room.Slug, &room.Price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Room not found"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to fetch room", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	nights := calculateNights(checkIn, checkOut)
	if nights < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Check-out must be after check-in"})
		return
	}

	totalPrice := room.Price * int64(nights)
	bookingCode := generateBookingCode()
	orderID := fmt.Sprintf("ORDER-%s-%d", bookingCode, time.Now().UnixMilli())
	guests := req.Guests
	if guests == 0 {
		guests = 1
	}

	span.SetAttributes(
		attribute.String("booking.code", bookingCode),
		attribute.Int("booking.nights", nights),
		attribute.Int64("booking.total_price", totalPrice),
	)

	booking := models.Booking{
		BookingCode: bookingCode,
		RoomID:      room.ID,
		GuestName:   req.GuestName,
		GuestEmail:  req.GuestEmail,
		GuestPhone:  req.GuestPhone,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Nights:      nights,
		Guests:      guests,
		TotalPrice:  totalPrice,
		Notes:       req.Notes,
	}
	err = h.db.QueryRowContext(ctx,
		`INSERT INTO bookings (booking_code, room_id, guest_name, guest_email, guest_phone, check_in, check_out, nights, guests, total_price, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, status, wa_notif_sent, created_at, updated_at`,
		bookingCode, room.ID, req.GuestName, req.GuestEmail, req.GuestPhone,
		checkIn, checkOut, nights, guests, totalPrice, req.Notes,
	).Scan(&booking.ID, &booking.Status, &booking.WANotifSent, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to create booking", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	payment := models.Payment{
		BookingID:       booking.ID,
		MidtransOrderID: orderID,
		Amount:          totalPrice,
	}
	err = h.db.QueryRowContext(ctx,
		`INSERT INTO payments (booking_id, midtrans_order_id, amount)
		 VALUES ($1, $2, $3)
		 RETURNING id, status, created_at, updated_at`,
		booking.ID, orderID, totalPrice,
	).Scan(&payment.ID, &payment.Status, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to create payment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	// A failure past this point leaves the booking and payment rows pending;
	// they stay reconcilable through the confirm path.
	snap, err := h.gw.CreateTransaction(ctx, gateway.TransactionParams{
		OrderID:       orderID,
		Amount:        totalPrice,
		CustomerName:  req.GuestName,
		CustomerEmail: req.GuestEmail,
		CustomerPhone: req.GuestPhone,
		ItemName:      fmt.Sprintf("%s - %d night(s)", room.Name, nights),
		ItemQuantity:  nights,
		ItemPrice:     room.Price,
	})
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to create snap transaction",
			zap.String("order_id", orderID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create payment transaction"})
		return
	}

	payment.SnapToken = snap.Token
	if _, err := h.db.ExecContext(ctx,
		"UPDATE payments SET snap_token = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2",
		snap.Token, payment.ID); err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to store snap token", zap.Error(err))
	}

	event := models.BookingEvent{
		BookingID:   booking.ID,
		BookingCode: bookingCode,
		OrderID:     orderID,
		RoomID:      room.ID,
		Status:      booking.Status,
		TotalPrice:  totalPrice,
		EventType:   models.EventBookingCreated,
	}
	if err := kafka.PublishBookingEvent(ctx, h.producer, h.cfg.Kafka.Topic, event, h.logger); err != nil {
		h.logger.Error("Failed to publish booking_created event", zap.Error(err))
	}

	h.logger.Info("Booking created",
		zap.Int("booking_id", booking.ID),
		zap.String("booking_code", bookingCode),
		zap.Int("nights", nights),
		zap.Int64("total_price", totalPrice),
	)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"booking":      booking,
			"payment":      payment,
			"snap_token":   snap.Token,
			"redirect_url": snap.RedirectURL,
		},
	})
}

// UpdateBookingStatus moves a booking within the closed status set (admin).
func (h *BookingHandler) UpdateBookingStatus(c *gin.Context) {
	ctx, span := otel.Tracer("booking-service").Start(c.Request.Context(), "UpdateBookingStatus")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("booking.id", id))

	var req struct {
		Status models.BookingStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || !models.ValidBookingStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid status. Must be one of: pending, paid, cancelled, checked_in, checked_out",
		})
		return
	}

	var booking models.Booking
	err := h.db.QueryRowContext(ctx,
		`UPDATE bookings SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2
		 RETURNING id, booking_code, room_id, guest_name, guest_email, guest_phone, check_in, check_out,
		 nights, guests, total_price, status, notes, wa_notif_sent, created_at, updated_at`,
		req.Status, id,
	).Scan(&booking.ID, &booking.BookingCode, &booking.RoomID, &booking.GuestName, &booking.GuestEmail,
		&booking.GuestPhone, &booking.CheckIn, &booking.CheckOut, &booking.Nights, &booking.Guests,
		&booking.TotalPrice, &booking.Status, &booking.Notes, &booking.WANotifSent,
		&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Booking not found"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to update booking status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	h.logger.Info("Booking status updated",
		zap.String("booking_code", booking.BookingCode),
		zap.String("status", string(booking.Status)))
	c.JSON(http.StatusOK, gin.H{"success": true, "data": booking})
}
