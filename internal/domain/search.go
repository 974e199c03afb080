package domain

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

type TripType string

const (
	TripTypeOneWay    TripType = "one_way"
	TripTypeRoundTrip TripType = "round_trip"
)

type CabinClass string

const (
	CabinEconomy        CabinClass = "economy"
	CabinPremiumEconomy CabinClass = "premium_economy"
	CabinBusiness       CabinClass = "business"
	CabinFirst          CabinClass = "first"
)

// NormalizeCabinClass converts free-form cabin class input ("Premium Economy")
// into the canonical lowercase underscored token the booking API expects.
func NormalizeCabinClass(s string) CabinClass {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), "_")
	if s == "" {
		return CabinEconomy
	}
	return CabinClass(s)
}

type PassengerCounts struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

func (p PassengerCounts) Total() int {
	return p.Adults + p.Children + p.Infants
}

// SearchCriteria describes one search. Dates are calendar dates in
// DateLayout, matching the booking API query format.
type SearchCriteria struct {
	Origin        string          `json:"origin"`
	Destination   string          `json:"destination"`
	DepartureDate string          `json:"departure_date"`
	ReturnDate    string          `json:"return_date,omitempty"`
	TripType      TripType        `json:"trip_type"`
	Passengers    PassengerCounts `json:"passengers"`
	CabinClass    CabinClass      `json:"cabin_class"`
}

func (c SearchCriteria) RoundTrip() bool {
	return c.TripType == TripTypeRoundTrip
}

// Validate checks the criteria against "now" and reports every problem at
// once. Invalid criteria must block a search before any network call.
func (c SearchCriteria) Validate(now time.Time) ValidationErrors {
	errs := ValidationErrors{}

	if strings.TrimSpace(c.Origin) == "" {
		errs["origin"] = "Origin is required"
	}
	if strings.TrimSpace(c.Destination) == "" {
		errs["destination"] = "Destination is required"
	}

	today := truncateToDay(now)

	var departure time.Time
	if c.DepartureDate == "" {
		errs["departureDate"] = "Departure date is required"
	} else {
		var err error
		departure, err = time.Parse(DateLayout, c.DepartureDate)
		if err != nil {
			errs["departureDate"] = "Departure date is invalid"
		} else if departure.Before(today) {
			errs["departureDate"] = "Departure date cannot be in the past"
		}
	}

	switch c.TripType {
	case TripTypeOneWay:
	case TripTypeRoundTrip:
		if c.ReturnDate == "" {
			errs["returnDate"] = "Return date is required for round trips"
		} else if ret, err := time.Parse(DateLayout, c.ReturnDate); err != nil {
			errs["returnDate"] = "Return date is invalid"
		} else if !departure.IsZero() && ret.Before(departure) {
			errs["returnDate"] = "Return date cannot be before the departure date"
		}
	default:
		errs["tripType"] = "Trip type must be one_way or round_trip"
	}

	if c.Passengers.Adults < 1 {
		errs["adults"] = "At least one adult passenger is required"
	}
	if c.Passengers.Children < 0 {
		errs["children"] = "Number of children cannot be negative"
	}
	if c.Passengers.Infants < 0 {
		errs["infants"] = "Number of infants cannot be negative"
	}

	switch c.CabinClass {
	case CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst:
	default:
		errs["cabinClass"] = "Cabin class is invalid"
	}

	return errs
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
