package services

import (
	"math"
	"strconv"
	"strings"

	"charter/internal/domain"
	"charter/internal/utils"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FlexInt accepts both 15 and "15" so plain HTML forms and JSON clients can
// post the same field.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*n = 0
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	return n.UnmarshalParam(s)
}

// UnmarshalParam is used by gin's form binding.
func (n *FlexInt) UnmarshalParam(param string) error {
	param = strings.TrimSpace(param)
	if param == "" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(param)
	if err != nil {
		f, ferr := strconv.ParseFloat(param, 64)
		if ferr != nil || f != math.Trunc(f) {
			return domain.ValidationError{Field: "passengers", Msg: "must be a whole number", Err: err}
		}
		v = int(f)
	}
	*n = FlexInt(v)
	return nil
}

// ContactInput is the customer block shared by offers and bookings.
type ContactInput struct {
	CustomerName      string `json:"customer_name" form:"customer_name"`
	CustomerReference string `json:"customer_reference" form:"customer_reference"`
	CustomerEmail     string `json:"customer_email" form:"customer_email"`
	CustomerPhone     string `json:"customer_phone" form:"customer_phone"`
	CustomerAddress   string `json:"customer_address" form:"customer_address"`
}

// JourneyInput is the outbound leg plus the optional return group.
type JourneyInput struct {
	DeparturePlace string  `json:"departure_place" form:"departure_place"`
	Destination    string  `json:"destination" form:"destination"`
	DepartureDate  string  `json:"departure_date" form:"departure_date"`
	DepartureTime  string  `json:"departure_time" form:"departure_time"`
	Passengers     FlexInt `json:"passengers" form:"passengers"`

	ReturnDeparturePlace string `json:"return_departure_place" form:"return_departure_place"`
	ReturnDestination    string `json:"return_destination" form:"return_destination"`
	ReturnDate           string `json:"return_date" form:"return_date"`
	ReturnTime           string `json:"return_time" form:"return_time"`
}

type OfferInput struct {
	ContactInput
	JourneyInput
	Notes string `json:"notes" form:"notes"`
}

func (in ContactInput) normalize() (ContactInput, error) {
	out := ContactInput{
		CustomerName:      utils.NormalizeSpace(in.CustomerName),
		CustomerReference: utils.NormalizeSpace(in.CustomerReference),
		CustomerEmail:     strings.ToLower(utils.TrimOrEmpty(in.CustomerEmail)),
		CustomerPhone:     utils.TrimOrEmpty(in.CustomerPhone),
		CustomerAddress:   utils.NormalizeSpace(in.CustomerAddress),
	}
	if err := validate.Var(out.CustomerEmail, "omitempty,email"); err != nil {
		return out, domain.ValidationError{Field: "customer_email", Msg: "is not a valid email address", Err: err}
	}
	return out, nil
}

func (in JourneyInput) normalize() (JourneyInput, error) {
	out := JourneyInput{
		DeparturePlace:       utils.NormalizeSpace(in.DeparturePlace),
		Destination:          utils.NormalizeSpace(in.Destination),
		DepartureDate:        utils.TrimOrEmpty(in.DepartureDate),
		Passengers:           in.Passengers,
		ReturnDeparturePlace: utils.NormalizeSpace(in.ReturnDeparturePlace),
		ReturnDestination:    utils.NormalizeSpace(in.ReturnDestination),
		ReturnDate:           utils.TrimOrEmpty(in.ReturnDate),
	}

	if out.DeparturePlace == "" {
		return out, domain.ValidationError{Field: "departure_place", Msg: "is required"}
	}
	if out.Destination == "" {
		return out, domain.ValidationError{Field: "destination", Msg: "is required"}
	}
	if out.DepartureDate == "" {
		return out, domain.ValidationError{Field: "departure_date", Msg: "is required"}
	}
	depart, err := utils.ParseDate(out.DepartureDate)
	if err != nil {
		return out, domain.ValidationError{Field: "departure_date", Msg: "expected YYYY-MM-DD", Err: err}
	}
	if out.Passengers <= 0 {
		return out, domain.ValidationError{Field: "passengers", Msg: "must be greater than 0"}
	}
	if out.DepartureTime, err = utils.NormalizeHHMM(in.DepartureTime); err != nil {
		return out, domain.ValidationError{Field: "departure_time", Msg: "expected HH:MM", Err: err}
	}
	if out.ReturnTime, err = utils.NormalizeHHMM(in.ReturnTime); err != nil {
		return out, domain.ValidationError{Field: "return_time", Msg: "expected HH:MM", Err: err}
	}

	// The return group is all or nothing: a date without a time (or places
	// without both) is rejected rather than half stored.
	hasDate, hasTime := out.ReturnDate != "", out.ReturnTime != ""
	hasPlaces := out.ReturnDeparturePlace != "" || out.ReturnDestination != ""
	if hasDate != hasTime || (hasPlaces && !hasDate) {
		return out, domain.ValidationError{Field: "return_date", Msg: "return date and return time must both be given"}
	}
	if !hasDate {
		return out, nil
	}
	ret, err := utils.ParseDate(out.ReturnDate)
	if err != nil {
		return out, domain.ValidationError{Field: "return_date", Msg: "expected YYYY-MM-DD", Err: err}
	}
	if ret.Before(depart) {
		return out, domain.ValidationError{Field: "return_date", Msg: "must not be before departure_date"}
	}
	if out.ReturnDeparturePlace == "" {
		out.ReturnDeparturePlace = out.Destination
	}
	if out.ReturnDestination == "" {
		out.ReturnDestination = out.DeparturePlace
	}
	return out, nil
}

// optionalDate validates a nullable YYYY-MM-DD field.
func optionalDate(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", nil
	}
	if _, err := utils.ParseDate(v); err != nil {
		return "", domain.ValidationError{Field: field, Msg: "expected YYYY-MM-DD", Err: err}
	}
	return v, nil
}

func requireText(field, v string) (string, error) {
	v = utils.NormalizeSpace(v)
	if v == "" {
		return "", domain.ValidationError{Field: field, Msg: "is required"}
	}
	return v, nil
}

func optionalEmail(field, v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if err := validate.Var(v, "omitempty,email"); err != nil {
		return "", domain.ValidationError{Field: field, Msg: "is not a valid email address", Err: err}
	}
	return v, nil
}
