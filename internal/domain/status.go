package domain

import "strings"

type OfferStatus string

const (
	OfferReceived  OfferStatus = "inkommen"
	OfferAnswered  OfferStatus = "besvarad"
	OfferApproved  OfferStatus = "godkänd"
	OfferCancelled OfferStatus = "makulerad"
)

var offerTransitions = map[OfferStatus][]OfferStatus{
	OfferReceived:  {OfferAnswered, OfferCancelled},
	OfferAnswered:  {OfferApproved, OfferCancelled},
	OfferApproved:  {},
	OfferCancelled: {},
}

// ParseOfferStatus accepts only the canonical spelling. Surrounding
// whitespace is ignored, case and alternate spellings are not.
func ParseOfferStatus(s string) (OfferStatus, error) {
	st := OfferStatus(strings.TrimSpace(s))
	if _, ok := offerTransitions[st]; !ok {
		return "", ValidationError{Field: "status", Msg: "unknown offer status " + quote(s)}
	}
	return st, nil
}

func (s OfferStatus) Terminal() bool {
	return s == OfferApproved || s == OfferCancelled
}

// CanTransition reports whether from -> to is an allowed move.
func CanTransition(from, to OfferStatus) bool {
	for _, next := range offerTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns a ConflictError for a disallowed move.
func CheckTransition(from, to OfferStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return ConflictError{
		Resource: "offer",
		Msg:      "cannot move from " + string(from) + " to " + string(to),
	}
}

type BookingStatus string

const (
	BookingBooked    BookingStatus = "bokad"
	BookingCompleted BookingStatus = "genomford"
	BookingCancelled BookingStatus = "makulerad"
)

func ParseBookingStatus(s string) (BookingStatus, error) {
	switch st := BookingStatus(strings.TrimSpace(s)); st {
	case BookingBooked, BookingCompleted, BookingCancelled:
		return st, nil
	}
	return "", ValidationError{Field: "status", Msg: "unknown booking status " + quote(s)}
}

type TicketStatus string

const (
	TicketPending    TicketStatus = "pending"
	TicketPaid       TicketStatus = "paid"
	TicketOverbooked TicketStatus = "overbooked"
	TicketExpired    TicketStatus = "expired"
)

// DepartureStatus is derived from remaining seats; there is no waitlist.
type DepartureStatus string

const (
	DepartureAvailable DepartureStatus = "available"
	DepartureFull      DepartureStatus = "full"
)

func quote(s string) string { return `"` + s + `"` }
