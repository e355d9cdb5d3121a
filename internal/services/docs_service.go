package services

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"charter/internal/domain/models"
	"charter/internal/utils"

	"github.com/phpdave11/gofpdf"
	"github.com/yeqown/go-qrcode"
)

// DocsService renders the PDFs served inline by the admin API and attached
// to ticket emails.
type DocsService struct {
	Offers     OfferStore
	Agreements AgreementStore
	Tickets    TicketStore
	Trips      TripStore
	RequestID  string
	// Now is stamped into the documents; tests pin it.
	Now func() time.Time
}

func (s DocsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s DocsService) OfferProposal(ctx context.Context, id string) ([]byte, string, error) {
	o, err := s.Offers.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "offer_pdf", "offer_number="+o.OfferNumber)
	return buildOfferPDF(o, s.now())
}

func (s DocsService) Agreement(ctx context.Context, id string) ([]byte, string, error) {
	a, err := s.Agreements.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "agreement_pdf", "id="+id)
	return buildAgreementPDF(a, s.now())
}

func (s DocsService) ETicket(ctx context.Context, ticketID string) ([]byte, string, error) {
	t, err := s.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, "", err
	}
	title := t.TripID
	if trip, err := s.Trips.GetByID(ctx, t.TripID); err == nil {
		title = trip.Title
	}
	utils.LogEvent(s.RequestID, "docs", "eticket_pdf", "order_number="+t.OrderNumber)
	return buildETicketPDF(t, title)
}

type pdfDoc struct {
	*gofpdf.Fpdf
	tr func(string) string
}

func newPDF(title string) pdfDoc {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; translate so å, ä and ö survive.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.AddPage()
	return pdfDoc{Fpdf: pdf, tr: tr}
}

func (p pdfDoc) heading(text string) {
	p.SetFont("Helvetica", "B", 18)
	p.Cell(0, 10, p.tr(text))
	p.Ln(12)
}

func (p pdfDoc) line(label, value string) {
	p.SetFont("Helvetica", "B", 11)
	p.CellFormat(50, 7, p.tr(label), "", 0, "", false, 0, "")
	p.SetFont("Helvetica", "", 11)
	p.CellFormat(0, 7, p.tr(safe(value, "-")), "", 1, "", false, 0, "")
}

func (p pdfDoc) paragraph(text string) {
	p.SetFont("Helvetica", "", 10)
	p.MultiCell(0, 5, p.tr(text), "", "", false)
	p.Ln(2)
}

func (p pdfDoc) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildOfferPDF(o models.Offer, now time.Time) ([]byte, string, error) {
	p := newPDF("Offert " + o.OfferNumber)
	p.heading("Offert " + o.OfferNumber)
	p.line("Datum", now.In(utils.Stockholm).Format(utils.LayoutDate))
	p.line("Status", o.Status)
	p.Ln(4)

	p.line("Kund", o.CustomerName)
	p.line("Referens", o.CustomerReference)
	p.line("E-post", o.CustomerEmail)
	p.line("Telefon", o.CustomerPhone)
	p.line("Adress", o.CustomerAddress)
	p.Ln(4)

	p.line("Från", o.DeparturePlace)
	p.line("Till", o.Destination)
	p.line("Avresa", joinDateTime(o.DepartureDate, o.DepartureTime))
	p.line("Passagerare", strconv.Itoa(o.Passengers))
	if o.RoundTrip() {
		p.line("Retur", fmt.Sprintf("%s -> %s, %s", o.ReturnDeparturePlace, o.ReturnDestination,
			joinDateTime(o.ReturnDate, o.ReturnTime)))
	}
	p.Ln(4)

	if o.TotalAmount.Valid {
		p.line("Utresa inkl. moms", utils.FormatSEK(decimalOrZero(o.OutboundTotal)))
		if o.RoundTrip() {
			p.line("Retur inkl. moms", utils.FormatSEK(decimalOrZero(o.ReturnTotal)))
		}
		p.line("Summa exkl. moms", utils.FormatSEK(decimalOrZero(o.AmountExVAT)))
		rate := decimalOrZero(o.VATRate).Shift(2).String()
		p.line("Moms ("+rate+" %)", utils.FormatSEK(decimalOrZero(o.VATAmount)))
		p.line("Totalt", utils.FormatSEK(decimalOrZero(o.TotalAmount)))
	} else {
		p.paragraph("Pris lämnas i separat prisförslag.")
	}
	if o.Notes != "" {
		p.Ln(2)
		p.paragraph(o.Notes)
	}

	data, err := p.bytes()
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("OFFERT_%s.pdf", safeFilenamePart(o.OfferNumber)), nil
}

func buildAgreementPDF(a models.AssociationAgreement, now time.Time) ([]byte, string, error) {
	p := newPDF("Föreningsavtal")
	p.heading("Föreningsavtal")
	p.line("Förening", a.AssociationName)
	p.line("Kontaktperson", a.ContactPerson)
	p.line("E-post", a.Email)
	p.line("Telefon", a.Phone)
	p.line("Giltigt från", a.ValidFrom)
	p.line("Giltigt till", a.ValidTo)
	p.line("Rabatt", a.DiscountPercent.String()+" %")
	p.Ln(4)
	if strings.TrimSpace(a.Terms) != "" {
		p.SetFont("Helvetica", "B", 12)
		p.Cell(0, 7, p.tr("Villkor"))
		p.Ln(8)
		p.paragraph(a.Terms)
	}
	p.Ln(10)
	p.paragraph("Utfärdat " + now.In(utils.Stockholm).Format(utils.LayoutDate))
	p.paragraph("Underskrift förening: ______________________    Underskrift bolag: ______________________")

	data, err := p.bytes()
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("AVTAL_%s.pdf", safeFilenamePart(a.AssociationName)), nil
}

func buildETicketPDF(t models.TicketBooking, tripTitle string) ([]byte, string, error) {
	p := newPDF("E-biljett " + t.OrderNumber)
	p.heading("E-biljett")
	p.line("Ordernummer", t.OrderNumber)
	p.line("Resa", tripTitle)
	p.line("Datum", t.DepartDate)
	p.line("Antal biljetter", strconv.Itoa(t.Quantity))
	p.line("Namn", t.CustomerName)
	p.line("Betalt", utils.FormatSEK(t.Amount))
	p.Ln(6)

	qr, err := qrJPEG(t.OrderNumber)
	if err != nil {
		return nil, "", err
	}
	opts := gofpdf.ImageOptions{ImageType: "JPG"}
	p.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qr))
	p.ImageOptions("qr", 15, p.GetY(), 45, 45, false, opts, 0, "")
	p.SetY(p.GetY() + 50)
	p.paragraph("Visa biljetten för chauffören vid påstigning. Biljetten gäller för angivet antal resenärer.")

	data, err := p.bytes()
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("BILJETT_%s.pdf", safeFilenamePart(t.OrderNumber)), nil
}

func qrJPEG(text string) ([]byte, error) {
	qrc, err := qrcode.New(text)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := qrc.SaveTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
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
	if r := []rune(s); len(r) > 40 {
		s = string(r[:40])
	}
	return s
}
