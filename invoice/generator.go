package invoice

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"booking-svc/config"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TaxRate is the fixed Indonesian PPN rate applied to every invoice.
const TaxRate = 0.11

var idrPrinter = message.NewPrinter(language.English)

type InvoiceData struct {
	BookingCode   string
	GuestName     string
	GuestEmail    string
	GuestPhone    string
	RoomName      string
	CheckIn       time.Time
	CheckOut      time.Time
	Nights        int
	PricePerNight int64
	TotalPrice    int64
	PaymentType   string
	PaidAt        time.Time
}

type Generator struct {
	dir    string
	hotel  config.HotelInfo
	logger *zap.Logger
}

func NewGenerator(dir string, hotel config.HotelInfo, logger *zap.Logger) *Generator {
	return &Generator{dir: dir, hotel: hotel, logger: logger}
}

// TaxAmount returns the rounded 11% tax for a subtotal.
func TaxAmount(subtotal int64) int64 {
	return int64(math.Round(float64(subtotal) * TaxRate))
}

// FormatIDR renders an amount with English thousand grouping, e.g. "IDR 1,600,000".
func FormatIDR(amount int64) string {
	return idrPrinter.Sprintf("IDR %d", amount)
}

func formatDateShort(t time.Time) string {
	return t.Format("02 Jan 2006")
}

func formatDateLong(t time.Time) string {
	return t.Format("Monday, January 2, 2006")
}

// Generate renders the invoice PDF and returns its path. The file is keyed
// by booking code and overwritten if regenerated.
func (g *Generator) Generate(data InvoiceData) (string, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create invoice directory: %w", err)
	}

	filename := fmt.Sprintf("invoice-%s.pdf", data.BookingCode)
	path := filepath.Join(g.dir, filename)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Invoice INV-%s", data.BookingCode), false)
	pdf.SetAuthor(g.hotel.Name, false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()

	// Header band
	pdf.SetFillColor(14, 165, 233)
	pdf.Rect(0, 0, pageW, 46, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.Text(18, 15, strings.ToUpper(g.hotel.Name))

	pdf.SetFont("Helvetica", "", 8)
	pdf.Text(18, 22, g.hotel.Address)
	pdf.Text(18, 27, fmt.Sprintf("Tel: %s  |  Email: %s", g.hotel.Phone, g.hotel.Email))
	pdf.Text(18, 32, g.hotel.Website)

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(pageW-98, 10)
	pdf.CellFormat(80, 10, "INVOICE", "", 0, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(224, 242, 254)
	pdf.SetXY(pageW-98, 20)
	pdf.CellFormat(80, 6, "INV-"+data.BookingCode, "", 0, "R", false, 0, "")

	// Invoice meta
	invoiceDate := data.PaidAt
	if invoiceDate.IsZero() {
		invoiceDate = time.Now()
	}
	metaY := 56.0
	pdf.SetTextColor(100, 116, 139)
	pdf.SetFont("Helvetica", "B", 7)
	pdf.Text(125, metaY, "INVOICE DATE")
	pdf.Text(125, metaY+8, "INVOICE NO.")
	pdf.Text(125, metaY+16, "BOOKING CODE")

	pdf.SetTextColor(30, 41, 59)
	pdf.SetFont("Helvetica", "", 8)
	pdf.Text(160, metaY, formatDateShort(invoiceDate))
	pdf.Text(160, metaY+8, "INV-"+data.BookingCode)
	pdf.Text(160, metaY+16, data.BookingCode)

	// Bill to
	pdf.SetTextColor(14, 165, 233)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.Text(18, metaY, "BILL TO")

	pdf.SetTextColor(30, 41, 59)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(18, metaY+7, data.GuestName)

	pdf.SetTextColor(100, 116, 139)
	pdf.SetFont("Helvetica", "", 8)
	pdf.Text(18, metaY+13, data.GuestEmail)
	pdf.Text(18, metaY+18, data.GuestPhone)

	// Reservation details strip
	y := 90.0
	pdf.SetFillColor(240, 249, 255)
	pdf.Rect(18, y, pageW-36, 10, "F")
	pdf.SetTextColor(14, 165, 233)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.Text(22, y+6.5, "RESERVATION DETAILS")

	y += 16
	cols := []float64{22, 64, 110, 152}
	labels := []string{"CHECK-IN", "CHECK-OUT", "DURATION", "GUESTS"}
	nightsLabel := fmt.Sprintf("%d night", data.Nights)
	if data.Nights > 1 {
		nightsLabel += "s"
	}
	values := []string{
		formatDateShort(data.CheckIn),
		formatDateShort(data.CheckOut),
		nightsLabel,
		"2 Adults",
	}

	pdf.SetTextColor(100, 116, 139)
	pdf.SetFont("Helvetica", "B", 7)
	for i, label := range labels {
		pdf.Text(cols[i], y, label)
	}
	pdf.SetTextColor(30, 41, 59)
	pdf.SetFont("Helvetica", "", 8)
	for i, value := range values {
		pdf.Text(cols[i], y+5.5, value)
	}

	// Line-item table
	y = 118
	pdf.SetFillColor(14, 165, 233)
	pdf.Rect(18, y, pageW-36, 10, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 7)
	pdf.Text(22, y+6.5, "DESCRIPTION")
	pdf.SetXY(100, y+2)
	pdf.CellFormat(20, 6, "QTY", "", 0, "C", false, 0, "")
	pdf.SetXY(122, y+2)
	pdf.CellFormat(32, 6, "UNIT PRICE", "", 0, "R", false, 0, "")
	pdf.SetXY(156, y+2)
	pdf.CellFormat(34, 6, "AMOUNT", "", 0, "R", false, 0, "")

	y += 10
	pdf.SetFillColor(248, 250, 252)
	pdf.Rect(18, y, pageW-36, 10, "F")
	pdf.SetTextColor(30, 41, 59)
	pdf.SetFont("Helvetica", "", 8)
	pdf.Text(22, y+6.5, fmt.Sprintf("%s - Accommodation", data.RoomName))
	pdf.SetXY(100, y+2)
	pdf.CellFormat(20, 6, fmt.Sprintf("%d", data.Nights), "", 0, "C", false, 0, "")
	pdf.SetXY(122, y+2)
	pdf.CellFormat(32, 6, FormatIDR(data.PricePerNight), "", 0, "R", false, 0, "")
	pdf.SetXY(156, y+2)
	pdf.CellFormat(34, 6, FormatIDR(data.TotalPrice), "", 0, "R", false, 0, "")

	// Totals
	tax := TaxAmount(data.TotalPrice)
	grandTotal := data.TotalPrice + tax

	y += 18
	pdf.SetTextColor(100, 116, 139)
	pdf.SetXY(122, y)
	pdf.CellFormat(32, 6, "Subtotal", "", 0, "R", false, 0, "")
	pdf.SetTextColor(30, 41, 59)
	pdf.SetXY(156, y)
	pdf.CellFormat(34, 6, FormatIDR(data.TotalPrice), "", 0, "R", false, 0, "")

	y += 7
	pdf.SetTextColor(100, 116, 139)
	pdf.SetXY(122, y)
	pdf.CellFormat(32, 6, "Tax (PPN 11%)", "", 0, "R", false, 0, "")
	pdf.SetTextColor(30, 41, 59)
	pdf.SetXY(156, y)
	pdf.CellFormat(34, 6, FormatIDR(tax), "", 0, "R", false, 0, "")

	y += 8
	pdf.SetDrawColor(203, 213, 225)
	pdf.SetLineWidth(0.2)
	pdf.Line(122, y, pageW-18, y)

	y += 3
	pdf.SetFillColor(14, 165, 233)
	pdf.Rect(120, y, pageW-138, 12, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetXY(122, y+3)
	pdf.CellFormat(32, 6, "GRAND TOTAL", "", 0, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetXY(156, y+3)
	pdf.CellFormat(34, 6, FormatIDR(grandTotal), "", 0, "R", false, 0, "")

	// Payment information
	y += 22
	pdf.SetTextColor(30, 41, 59)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.Text(18, y, "PAYMENT INFORMATION")

	y += 4
	pdf.SetFillColor(16, 185, 129)
	pdf.Rect(18, y, 24, 8, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 7)
	pdf.SetXY(18, y+1)
	pdf.CellFormat(24, 6, "PAID", "", 0, "C", false, 0, "")

	pdf.SetTextColor(100, 116, 139)
	pdf.SetFont("Helvetica", "", 8)
	if data.PaymentType != "" {
		method := strings.ToUpper(strings.ReplaceAll(data.PaymentType, "_", " "))
		pdf.Text(48, y+3, "Method: "+method)
	}
	if !data.PaidAt.IsZero() {
		pdf.Text(48, y+8, "Date: "+formatDateLong(data.PaidAt))
	}

	// Terms
	y += 20
	pdf.SetDrawColor(226, 232, 240)
	pdf.Line(18, y, pageW-18, y)
	y += 5
	pdf.SetTextColor(148, 163, 184)
	pdf.SetFont("Helvetica", "B", 6)
	pdf.Text(18, y, "TERMS & CONDITIONS")

	terms := []string{
		"- Check-in time: 14:00 (2:00 PM) | Check-out time: 12:00 (12:00 PM)",
		"- Please present this invoice or your booking code upon check-in.",
		"- Prices are in Indonesian Rupiah (IDR) and inclusive of applicable taxes.",
		"- This is a computer-generated invoice and does not require a signature.",
	}
	pdf.SetFont("Helvetica", "", 6)
	for i, term := range terms {
		pdf.Text(18, y+5+float64(i)*4, term)
	}

	// Footer
	y = 270
	pdf.Line(18, y, pageW-18, y)
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(18, y+3)
	pdf.CellFormat(pageW-36, 5, fmt.Sprintf("Thank you for choosing %s! We look forward to welcoming you.", g.hotel.Name), "", 0, "C", false, 0, "")
	pdf.SetXY(18, y+8)
	pdf.CellFormat(pageW-36, 5, fmt.Sprintf("%s  |  %s  |  %s", g.hotel.Address, g.hotel.Phone, g.hotel.Email), "", 0, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write invoice %s: %w", filename, err)
	}

	g.logger.Info("Invoice generated", zap.String("path", path))
	return path, nil
}
