package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

type FlightStatus string

const (
	FlightStatusOnTime    FlightStatus = "on-time"
	FlightStatusDelayed   FlightStatus = "delayed"
	FlightStatusCancelled FlightStatus = "cancelled"
)

// CabinClassOffer is one fare tier on a flight with its own price and seat
// inventory.
type CabinClassOffer struct {
	ID             string `json:"id,omitempty"`
	ClassType      string `json:"class_type"`
	Price          Money  `json:"price"`
	TotalSeats     int    `json:"total_seats"`
	AvailableSeats int    `json:"available_seats"`
}

// Flight is created and owned entirely by the external booking API; this
// service never mutates one.
type Flight struct {
	ID            string            `json:"id"`
	Airline       string            `json:"airline"`
	FlightNumber  string            `json:"flight_number"`
	Origin        string            `json:"source"`
	Destination   string            `json:"destination"`
	DepartureTime string            `json:"departure_time"`
	ArrivalTime   string            `json:"arrival_time"`
	Duration      int               `json:"duration"`
	AircraftType  string            `json:"aircraft_type,omitempty"`
	Status        FlightStatus      `json:"status,omitempty"`
	Price         Money             `json:"price,omitempty"`
	CabinClasses  []CabinClassOffer `json:"cabinClasses,omitempty"`
}

// UnmarshalJSON tolerates the two airport field spellings the booking API
// uses: the search endpoint returns source/destination, the detail endpoint
// departure_airport/arrival_airport.
func (f *Flight) UnmarshalJSON(data []byte) error {
	type flightAlias Flight
	aux := struct {
		*flightAlias
		DepartureAirport string `json:"departure_airport"`
		ArrivalAirport   string `json:"arrival_airport"`
	}{flightAlias: (*flightAlias)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if f.Origin == "" {
		f.Origin = aux.DepartureAirport
	}
	if f.Destination == "" {
		f.Destination = aux.ArrivalAirport
	}
	return nil
}

// FareFor returns the base fare for the given cabin class. It falls back to
// the flight-level price when the API returned no per-class offers, and
// reports ok=false when no usable fare exists at all.
func (f Flight) FareFor(cabin CabinClass) (float64, bool) {
	for _, offer := range f.CabinClasses {
		if strings.EqualFold(strings.ReplaceAll(offer.ClassType, " ", "_"), string(cabin)) {
			if offer.Price > 0 {
				return float64(offer.Price), true
			}
		}
	}
	if f.Price > 0 {
		return float64(f.Price), true
	}
	return 0, false
}

// SeatsFor returns the number of available seats in the given cabin class.
func (f Flight) SeatsFor(cabin CabinClass) int {
	for _, offer := range f.CabinClasses {
		if strings.EqualFold(strings.ReplaceAll(offer.ClassType, " ", "_"), string(cabin)) {
			return offer.AvailableSeats
		}
	}
	return 0
}

// Money is a fare amount. The booking API serializes prices inconsistently,
// sometimes as a JSON number and sometimes as a quoted string, so decoding
// accepts both.
type Money float64

func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*m = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*m = Money(v)
	return nil
}
