package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocsService renders booking invoices and spot manifests as PDF.
type DocsService struct {
	Deps
	// Loaders replace repository lookups in tests.
	InvoiceLoader  func(ctx context.Context, rc domain.RequestContext, bookingID int64) (invoiceData, error)
	ManifestLoader func(ctx context.Context, rc domain.RequestContext, spotID int64) (manifestData, error)
}

type invoiceData struct {
	Booking  models.Booking
	Tour     models.Tour
	Spot     models.Spot
	Customer models.Customer
	Payments []models.Payment
	IssuedAt time.Time
}

type manifestEntry struct {
	BookingNumber string
	Status        domain.BookingStatus
	Traveler      models.Traveler
}

type manifestData struct {
	Tour     models.Tour
	Spot     models.Spot
	Entries  []manifestEntry
	IssuedAt time.Time
}

func (s DocsService) Invoice(ctx context.Context, rc domain.RequestContext, bookingID int64) ([]byte, string, error) {
	load := s.InvoiceLoader
	if load == nil {
		load = s.loadInvoice
	}
	d, err := load(ctx, rc, bookingID)
	if err != nil {
		return nil, "", err
	}
	s.log("docs", "invoice", "booking_id=%d", bookingID)
	return buildInvoicePDF(d)
}

func (s DocsService) Manifest(ctx context.Context, rc domain.RequestContext, spotID int64) ([]byte, string, error) {
	load := s.ManifestLoader
	if load == nil {
		load = s.loadManifest
	}
	d, err := load(ctx, rc, spotID)
	if err != nil {
		return nil, "", err
	}
	s.log("docs", "manifest", "spot_id=%d entries=%d", spotID, len(d.Entries))
	return buildManifestPDF(d)
}

func (s DocsService) loadInvoice(ctx context.Context, rc domain.RequestContext, bookingID int64) (invoiceData, error) {
	if err := rc.Verify(); err != nil {
		return invoiceData{}, err
	}
	r := s.Store.Repos()
	b, err := r.Bookings.Get(ctx, bookingID)
	if err != nil {
		return invoiceData{}, wrapErr("load invoice", err)
	}
	if !bookingVisible(rc, b) {
		return invoiceData{}, domain.NotFoundError{Resource: "booking"}
	}
	d := invoiceData{Booking: b, IssuedAt: s.now()}
	if d.Spot, err = r.Spots.Get(ctx, b.SpotID); err != nil {
		return invoiceData{}, wrapErr("load invoice", err)
	}
	if d.Tour, err = r.Tours.Get(ctx, b.TourID); err != nil {
		return invoiceData{}, wrapErr("load invoice", err)
	}
	if d.Customer, err = r.Customers.Get(ctx, b.CustomerID); err != nil {
		return invoiceData{}, wrapErr("load invoice", err)
	}
	if d.Payments, err = r.Payments.ListByBooking(ctx, b.ID); err != nil {
		return invoiceData{}, wrapErr("load invoice", err)
	}
	return d, nil
}

func (s DocsService) loadManifest(ctx context.Context, rc domain.RequestContext, spotID int64) (manifestData, error) {
	if err := requireOperator(rc); err != nil {
		return manifestData{}, err
	}
	r := s.Store.Repos()
	sp, err := r.Spots.Get(ctx, spotID)
	if err != nil {
		return manifestData{}, wrapErr("load manifest", err)
	}
	if sp.OperatorID != rc.OperatorID {
		return manifestData{}, domain.NotFoundError{Resource: "spot"}
	}
	d := manifestData{Spot: sp, IssuedAt: s.now()}
	if d.Tour, err = r.Tours.Get(ctx, sp.TourID); err != nil {
		return manifestData{}, wrapErr("load manifest", err)
	}
	bookings, err := r.Bookings.ListBySpot(ctx, sp.ID, true)
	if err != nil {
		return manifestData{}, wrapErr("load manifest", err)
	}
	for _, b := range bookings {
		travelers, err := r.Travelers.ListByBooking(ctx, b.ID)
		if err != nil {
			return manifestData{}, wrapErr("load manifest", err)
		}
		for _, t := range travelers {
			d.Entries = append(d.Entries, manifestEntry{BookingNumber: b.BookingNumber, Status: b.Status, Traveler: t})
		}
	}
	return d, nil
}

func buildInvoicePDF(d invoiceData) ([]byte, string, error) {
	b := d.Booking
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+b.BookingNumber, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "INVOICE")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		"Booking   : " + b.BookingNumber,
		"Issued    : " + utils.FormatDateTime(d.IssuedAt),
		"Status    : " + string(b.Status),
		"Customer  : " + safe(d.Customer.Name, "-"),
		"E-mail    : " + safe(d.Customer.Email, "-"),
	}
	for _, l := range lines {
		pdf.Cell(0, 7, l)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Details:")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	desc := fmt.Sprintf("%s - %s (departs %s), %d seat(s)",
		safe(d.Tour.Title, "-"), safe(d.Spot.Name, "-"), utils.FormatDateTime(d.Spot.DepartureDate), b.Seats)
	pdf.MultiCell(0, 6, desc, "", "", false)
	pdf.Ln(2)
	pdf.Cell(0, 6, "Price per seat: "+utils.FormatAmount(d.Spot.EffectivePrice(d.Tour.Price), b.Currency))
	pdf.Ln(10)

	if len(d.Payments) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, "Payments:")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
		for _, p := range d.Payments {
			line := fmt.Sprintf("#%d  %s  %s  %s", p.ID, utils.FormatDate(p.CreatedAt), p.Method, utils.FormatAmount(p.Amount, p.Currency))
			line += "  " + string(p.Status)
			if p.RefundedAmount > 0 {
				line += "  refunded " + utils.FormatAmount(p.RefundedAmount, p.Currency)
			}
			pdf.Cell(0, 6, line)
			pdf.Ln(6)
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "B", 12)
	totals := []string{
		"Total    : " + utils.FormatAmount(b.TotalAmount, b.Currency),
		"Paid     : " + utils.FormatAmount(b.PaidAmount, b.Currency),
		"Refunded : " + utils.FormatAmount(b.RefundedAmount, b.Currency),
		"Balance  : " + utils.FormatAmount(b.Outstanding(), b.Currency),
	}
	for _, l := range totals {
		pdf.Cell(0, 8, l)
		pdf.Ln(8)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("INVOICE_%s.pdf", safeFilenamePart(b.BookingNumber)), nil
}

func buildManifestPDF(d manifestData) ([]byte, string, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Manifest "+d.Spot.Name, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "PASSENGER MANIFEST")
	pdf.Ln(11)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("%s - %s", safe(d.Tour.Title, "-"), safe(d.Spot.Name, "-")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Departure %s   Seats %d/%d   Printed %s",
		utils.FormatDateTime(d.Spot.DepartureDate), d.Spot.BookedSeats, d.Spot.MaxSeats, utils.FormatDateTime(d.IssuedAt)))
	pdf.Ln(10)

	widths := []float64{10, 35, 25, 70, 40, 35, 40}
	header := []string{"#", "Booking", "Status", "Name", "Passport", "Nationality", "Phone"}
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for i, e := range d.Entries {
		row := []string{
			fmt.Sprintf("%d", i+1),
			e.BookingNumber,
			string(e.Status),
			utils.Truncate(e.Traveler.FullName, 40),
			safe(e.Traveler.PassportNumber, "-"),
			safe(e.Traveler.Nationality, "-"),
			safe(e.Traveler.Phone, "-"),
		}
		for j, v := range row {
			pdf.CellFormat(widths[j], 7, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(d.Entries) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.Cell(0, 7, "No travelers registered yet.")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	name := fmt.Sprintf("MANIFEST_%d_%s.pdf", d.Spot.ID, safeFilenamePart(d.Spot.Name))
	return buf.Bytes(), name, nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
