package invoice

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"booking-svc/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func testHotel() config.HotelInfo {
	return config.HotelInfo{
		Name:    "Mimpi Bungalow",
		Address: "Jl. Pantai Berawa No. 88, Canggu, Bali",
		Phone:   "+62 361 847 6888",
		Email:   "reservations@mimpibungalow.com",
		Website: "www.mimpibungalow.com",
	}
}

func testInvoiceData() InvoiceData {
	return InvoiceData{
		BookingCode:   "MBR-TEST-ABCD",
		GuestName:     "Putu Ayu",
		GuestEmail:    "putu@example.com",
		GuestPhone:    "08123456789",
		RoomName:      "Garden Bungalow",
		CheckIn:       time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:      time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		Nights:        2,
		PricePerNight: 950000,
		TotalPrice:    1900000,
		PaymentType:   "bank_transfer",
		PaidAt:        time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestGenerate_WritesPDF(t *testing.T) {
	dir := t.TempDir()
	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	g := NewGenerator(dir, testHotel(), logger)

	path, err := g.Generate(testInvoiceData())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	want := filepath.Join(dir, "invoice-MBR-TEST-ABCD.pdf")
	if path != want {
		t.Errorf("Expected path %q, got %q", want, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Invoice file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Invoice file is empty")
	}
}

func TestGenerate_OverwritesOnRegenerate(t *testing.T) {
	dir := t.TempDir()
	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	g := NewGenerator(dir, testHotel(), logger)

	data := testInvoiceData()
	first, err := g.Generate(data)
	if err != nil {
		t.Fatalf("First generate failed: %v", err)
	}
	second, err := g.Generate(data)
	if err != nil {
		t.Fatalf("Second generate failed: %v", err)
	}
	if first != second {
		t.Errorf("Regenerated invoice must use the same path: %q vs %q", first, second)
	}
}

func TestGenerate_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "invoices")
	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	g := NewGenerator(dir, testHotel(), logger)

	if _, err := g.Generate(testInvoiceData()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
}

func TestTaxAmount(t *testing.T) {
	tests := []struct {
		subtotal int64
		want     int64
	}{
		{1600000, 176000},
		{1900000, 209000},
		{0, 0},
		{1, 0},
		{100, 11},
	}

	for _, tt := range tests {
		if got := TaxAmount(tt.subtotal); got != tt.want {
			t.Errorf("TaxAmount(%d) = %d, want %d", tt.subtotal, got, tt.want)
		}
	}
}

func TestFormatIDR(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{1600000, "IDR 1,600,000"},
		{950000, "IDR 950,000"},
		{0, "IDR 0"},
		{1776000, "IDR 1,776,000"},
	}

	for _, tt := range tests {
		if got := FormatIDR(tt.amount); got != tt.want {
			t.Errorf("FormatIDR(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}
