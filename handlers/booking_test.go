package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"booking-svc/gateway"
	"booking-svc/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func setupBookingTest(t *testing.T) (*BookingHandler, sqlmock.Sqlmock, *fakeGateway, *gin.Engine) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}

	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	gw := &fakeGateway{}
	handler := &BookingHandler{
		db:     db,
		gw:     gw,
		cfg:    testConfig(),
		logger: logger,
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/bookings", handler.CreateBooking)

	return handler, mock, gw, router
}

func TestGenerateBookingCode_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^MBR-[0-9A-Z]+-[0-9A-Z]{4}$`)

	code := generateBookingCode()
	if !pattern.MatchString(code) {
		t.Errorf("Code %q does not match expected format", code)
	}

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		seen[generateBookingCode()] = true
	}
	// Same-millisecond codes only differ in the 4-char suffix, so a few
	// collisions are tolerated.
	if len(seen) < 990 {
		t.Errorf("Expected near-unique codes, got %d distinct out of 1000", len(seen))
	}
}

func TestCalculateNights(t *testing.T) {
	base := time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		want     int
	}{
		{"exact one day", base, base.Add(24 * time.Hour), 1},
		{"two days", base, base.Add(48 * time.Hour), 2},
		{"partial day rounds up", base, base.Add(30 * time.Hour), 2},
		{"under a day rounds up", base, base.Add(6 * time.Hour), 1},
		{"same instant", base, base, 0},
		{"check-out before check-in", base, base.Add(-24 * time.Hour), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateNights(tt.checkIn, tt.checkOut); got != tt.want {
				t.Errorf("calculateNights() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseBookingDate(t *testing.T) {
	if _, err := parseBookingDate("2026-09-10"); err != nil {
		t.Errorf("Date-only format should parse: %v", err)
	}
	if _, err := parseBookingDate("2026-09-10T14:00:00Z"); err != nil {
		t.Errorf("RFC3339 format should parse: %v", err)
	}
	if _, err := parseBookingDate("10/09/2026"); err == nil {
		t.Error("Unsupported format should fail")
	}
}

func TestCreateBooking_Success(t *testing.T) {
	handler, mock, gw, router := setupBookingTest(t)
	defer handler.db.Close()

	mock.ExpectQuery("SELECT id, name, slug, price FROM rooms WHERE id = \\$1").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "price"}).
			AddRow(1, "Garden Bungalow", "garden-bungalow", 950000))

	mock.ExpectQuery("INSERT INTO bookings").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "wa_notif_sent", "created_at", "updated_at"}).
			AddRow(3, string(models.BookingStatusPending), false, time.Now(), time.Now()))

	mock.ExpectQuery("INSERT INTO payments").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at", "updated_at"}).
			AddRow(7, string(models.PaymentStatusPending), time.Now(), time.Now()))

	mock.ExpectExec("UPDATE payments SET snap_token").
		WithArgs("snap-token", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	var gotParams gateway.TransactionParams
	gw.createFunc = func(ctx context.Context, p gateway.TransactionParams) (*gateway.SnapTransaction, error) {
		gotParams = p
		return &gateway.SnapTransaction{Token: "snap-token", RedirectURL: "https://redirect"}, nil
	}

	w := postJSON(router, "/bookings", `{
		"room_id": 1,
		"guest_name": "Putu Ayu",
		"guest_email": "putu@example.com",
		"guest_phone": "08123456789",
		"check_in": "2026-09-10",
		"check_out": "2026-09-12",
		"guests": 2
	}`)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	if gotParams.Amount != 1900000 {
		t.Errorf("Expected amount 1900000 (2 nights), got %d", gotParams.Amount)
	}
	if gotParams.ItemName != "Garden Bungalow - 2 night(s)" {
		t.Errorf("Unexpected item name: %q", gotParams.ItemName)
	}
	if !strings.HasPrefix(gotParams.OrderID, "ORDER-MBR-") {
		t.Errorf("Unexpected order id: %q", gotParams.OrderID)
	}
	if !strings.Contains(w.Body.String(), "snap-token") {
		t.Errorf("Response missing snap token: %s", w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestCreateBooking_MissingFields(t *testing.T) {
	handler, mock, _, router := setupBookingTest(t)
	defer handler.db.Close()

	w := postJSON(router, "/bookings", `{"room_id": 1, "guest_name": "Putu Ayu"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("No database calls expected: %v", err)
	}
}

func TestCreateBooking_RoomNotFound(t *testing.T) {
	handler, mock, _, router := setupBookingTest(t)
	defer handler.db.Close()

	mock.ExpectQuery("SELECT id, name, slug, price FROM rooms WHERE id = \\$1").
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	w := postJSON(router, "/bookings", `{
		"room_id": 99,
		"guest_name": "Putu Ayu",
		"guest_email": "putu@example.com",
		"guest_phone": "08123456789",
		"check_in": "2026-09-10",
		"check_out": "2026-09-12"
	}`)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestCreateBooking_CheckOutBeforeCheckIn(t *testing.T) {
	handler, mock, _, router := setupBookingTest(t)
	defer handler.db.Close()

	mock.ExpectQuery("SELECT id, name, slug, price FROM rooms WHERE id = \\$1").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "price"}).
			AddRow(1, "Garden Bungalow", "garden-bungalow", 950000))

	w := postJSON(router, "/bookings", `{
		"room_id": 1,
		"guest_name": "Putu Ayu",
		"guest_email": "putu@example.com",
		"guest_phone": "08123456789",
		"check_in": "2026-09-12",
		"check_out": "2026-09-10"
	}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestCreateBooking_GatewayFailureKeepsRowsPending(t *testing.T) {
	handler, mock, gw, router := setupBookingTest(t)
	defer handler.db.Close()

	mock.ExpectQuery("SELECT id, name, slug, price FROM rooms WHERE id = \\$1").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "price"}).
			AddRow(1, "Garden Bungalow", "garden-bungalow", 950000))

	mock.ExpectQuery("INSERT INTO bookings").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "wa_notif_sent", "created_at", "updated_at"}).
			AddRow(3, string(models.BookingStatusPending), false, time.Now(), time.Now()))

	mock.ExpectQuery("INSERT INTO payments").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at", "updated_at"}).
			AddRow(7, string(models.PaymentStatusPending), time.Now(), time.Now()))

	gw.createFunc = func(ctx context.Context, p gateway.TransactionParams) (*gateway.SnapTransaction, error) {
		return nil, errors.New("midtrans unavailable")
	}

	w := postJSON(router, "/bookings", `{
		"room_id": 1,
		"guest_name": "Putu Ayu",
		"guest_email": "putu@example.com",
		"guest_phone": "08123456789",
		"check_in": "2026-09-10",
		"check_out": "2026-09-12"
	}`)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	// No snap token update must happen; the pending rows stay reconcilable.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}
