package services

import (
	"fmt"
	"strconv"

	"charter/internal/domain/models"
	"charter/internal/mail"
	"charter/internal/utils"

	"github.com/shopspring/decimal"
)

// Notification events, also used as metric labels.
const (
	EventOfferReceived    = "offer_received"
	EventOfferAnswered    = "offer_answered"
	EventOfferApproved    = "offer_approved"
	EventOfferCancelled   = "offer_cancelled"
	EventBookingConfirmed = "booking_confirmed"
	EventTicketConfirmed  = "ticket_confirmed"
	EventTicketOverbooked = "ticket_overbooked"
)

const signature = "Vänliga hälsningar\nBussbokningen"

func offerRows(o models.Offer) []mail.Row {
	rows := []mail.Row{
		{Label: "Offertnummer", Value: o.OfferNumber},
		{Label: "Kund", Value: safe(o.CustomerName, "-")},
		{Label: "Från", Value: o.DeparturePlace},
		{Label: "Till", Value: o.Destination},
		{Label: "Avresa", Value: joinDateTime(o.DepartureDate, o.DepartureTime)},
		{Label: "Passagerare", Value: strconv.Itoa(o.Passengers)},
	}
	if o.RoundTrip() {
		rows = append(rows,
			mail.Row{Label: "Retur från", Value: o.ReturnDeparturePlace},
			mail.Row{Label: "Retur till", Value: o.ReturnDestination},
			mail.Row{Label: "Retur", Value: joinDateTime(o.ReturnDate, o.ReturnTime)},
		)
	}
	if o.TotalAmount.Valid {
		rows = append(rows,
			mail.Row{Label: "Pris exkl. moms", Value: utils.FormatSEK(o.AmountExVAT.Decimal)},
			mail.Row{Label: "Moms", Value: utils.FormatSEK(o.VATAmount.Decimal)},
			mail.Row{Label: "Totalt", Value: utils.FormatSEK(o.TotalAmount.Decimal)},
		)
	}
	return rows
}

func adminCopy(c mail.Content, intro string) *mail.Content {
	c.Intro = intro
	c.Link, c.LinkText = "", ""
	return &c
}

func offerReceivedNotice(o models.Offer) Notice {
	c := mail.Content{
		Subject: "Vi har tagit emot din offertförfrågan " + o.OfferNumber,
		Heading: "Tack för din förfrågan",
		Intro:   "Vi har tagit emot din förfrågan och återkommer med ett prisförslag så snart som möjligt.",
		Rows:    offerRows(o),
		Footer:  signature,
	}
	admin := adminCopy(c, "Ny offertförfrågan har kommit in.")
	admin.Subject = "Ny offertförfrågan " + o.OfferNumber
	return Notice{Event: EventOfferReceived, CustomerEmail: o.CustomerEmail, Customer: c, Admin: admin}
}

func offerAnsweredNotice(o models.Offer, link string) Notice {
	c := mail.Content{
		Subject:  "Prisförslag för " + o.OfferNumber,
		Heading:  "Här är vårt prisförslag",
		Intro:    "Vi har gått igenom din förfrågan. Du kan godkänna förslaget via länken nedan.",
		Rows:     offerRows(o),
		Link:     link,
		LinkText: "Visa och godkänn offerten",
		Footer:   signature,
	}
	return Notice{
		Event:         EventOfferAnswered,
		CustomerEmail: o.CustomerEmail,
		Customer:      c,
		Admin:         adminCopy(c, "Prisförslag skickat till kunden."),
	}
}

func offerApprovedNotice(o models.Offer) Notice {
	c := mail.Content{
		Subject: "Offert " + o.OfferNumber + " är godkänd",
		Heading: "Tack, offerten är godkänd",
		Intro:   "Offerten är godkänd. Vi återkommer med bokningsbekräftelse.",
		Rows:    offerRows(o),
		Footer:  signature,
	}
	return Notice{
		Event:         EventOfferApproved,
		CustomerEmail: o.CustomerEmail,
		Customer:      c,
		Admin:         adminCopy(c, "Kunden har godkänt offerten."),
	}
}

func offerCancelledNotice(o models.Offer) Notice {
	c := mail.Content{
		Subject: "Offert " + o.OfferNumber + " är makulerad",
		Heading: "Offerten är makulerad",
		Intro:   "Offerten har makulerats. Hör av dig om du vill göra en ny förfrågan.",
		Rows:    offerRows(o),
		Footer:  signature,
	}
	return Notice{
		Event:         EventOfferCancelled,
		CustomerEmail: o.CustomerEmail,
		Customer:      c,
		Admin:         adminCopy(c, "Offerten har makulerats."),
	}
}

func bookingConfirmedNotice(b models.Booking) Notice {
	rows := []mail.Row{
		{Label: "Bokningsnummer", Value: b.BookingNumber},
		{Label: "Från", Value: b.DeparturePlace},
		{Label: "Till", Value: b.Destination},
		{Label: "Avresa", Value: joinDateTime(b.DepartureDate, b.DepartureTime)},
		{Label: "Passagerare", Value: strconv.Itoa(b.Passengers)},
	}
	if b.ReturnDate != "" {
		rows = append(rows, mail.Row{Label: "Retur", Value: joinDateTime(b.ReturnDate, b.ReturnTime)})
	}
	if b.TotalAmount.Valid {
		rows = append(rows, mail.Row{Label: "Totalt", Value: utils.FormatSEK(b.TotalAmount.Decimal)})
	}
	c := mail.Content{
		Subject: "Bokningsbekräftelse " + b.BookingNumber,
		Heading: "Din resa är bokad",
		Intro:   "Här är en sammanfattning av din bokning.",
		Rows:    rows,
		Footer:  signature,
	}
	return Notice{
		Event:         EventBookingConfirmed,
		CustomerEmail: b.CustomerEmail,
		Customer:      c,
		Admin:         adminCopy(c, "Ny bokning registrerad."),
	}
}

func ticketRows(t models.TicketBooking, tripTitle string) []mail.Row {
	return []mail.Row{
		{Label: "Ordernummer", Value: t.OrderNumber},
		{Label: "Resa", Value: tripTitle},
		{Label: "Datum", Value: t.DepartDate},
		{Label: "Antal biljetter", Value: strconv.Itoa(t.Quantity)},
		{Label: "Belopp", Value: utils.FormatSEK(t.Amount)},
	}
}

func ticketConfirmedNotice(t models.TicketBooking, tripTitle string, pdf []byte, filename string) Notice {
	c := mail.Content{
		Subject: "Dina biljetter " + t.OrderNumber,
		Heading: "Tack för ditt köp",
		Intro:   "Betalningen är mottagen. Biljetten finns bifogad som PDF.",
		Rows:    ticketRows(t, tripTitle),
		Footer:  signature,
	}
	n := Notice{
		Event:         EventTicketConfirmed,
		CustomerEmail: t.CustomerEmail,
		Customer:      c,
		Admin:         adminCopy(c, "Ny betald biljettorder."),
	}
	if len(pdf) > 0 {
		n.Attachments = []mail.Attachment{{Filename: filename, ContentType: "application/pdf", Data: pdf}}
	} else {
		n.Customer.Intro = "Betalningen är mottagen. Biljetten skickas separat."
	}
	return n
}

func ticketOverbookedNotice(t models.TicketBooking, tripTitle string) Notice {
	c := mail.Content{
		Subject: "Överbokad order " + t.OrderNumber,
		Heading: "Order betald men avgången är full",
		Intro: fmt.Sprintf("Ordern är betald men det fanns inte %d lediga platser. Kontakta kunden %s för återbetalning eller ombokning.",
			t.Quantity, safe(t.CustomerEmail, "-")),
		Rows:   ticketRows(t, tripTitle),
		Footer: signature,
	}
	return Notice{Event: EventTicketOverbooked, CustomerEmail: t.CustomerEmail, Customer: c, AdminOnly: true}
}

func joinDateTime(date, hm string) string {
	if hm == "" {
		return date
	}
	return date + " " + hm
}

func decimalOrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}
