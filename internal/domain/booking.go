package domain

import "encoding/json"

type PassengerType string

const (
	PassengerTypeAdult  PassengerType = "adult"
	PassengerTypeChild  PassengerType = "child"
	PassengerTypeInfant PassengerType = "infant"
)

// Passenger holds one traveler's identity details. Dates are calendar dates
// in DateLayout. All fields except SpecialRequests are required.
type Passenger struct {
	Type            PassengerType `json:"type"`
	FirstName       string        `json:"first_name"`
	LastName        string        `json:"last_name"`
	DateOfBirth     string        `json:"date_of_birth"`
	Nationality     string        `json:"nationality"`
	PassportNumber  string        `json:"passport_number"`
	PassportExpiry  string        `json:"passport_expiry"`
	SpecialRequests string        `json:"special_requests,omitempty"`
}

// UnmarshalJSON normalizes the field-name variants that accumulated across
// clients (firstName vs first_name and friends) into the one canonical
// snake_case shape. Snake_case wins when both are present.
func (p *Passenger) UnmarshalJSON(data []byte) error {
	type passengerAlias Passenger
	aux := struct {
		*passengerAlias
		FirstNameCamel       string `json:"firstName"`
		LastNameCamel        string `json:"lastName"`
		DateOfBirthCamel     string `json:"dateOfBirth"`
		PassportNumberCamel  string `json:"passportNumber"`
		PassportExpiryCamel  string `json:"passportExpiry"`
		SpecialRequestsCamel string `json:"specialRequests"`
	}{passengerAlias: (*passengerAlias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if p.FirstName == "" {
		p.FirstName = aux.FirstNameCamel
	}
	if p.LastName == "" {
		p.LastName = aux.LastNameCamel
	}
	if p.DateOfBirth == "" {
		p.DateOfBirth = aux.DateOfBirthCamel
	}
	if p.PassportNumber == "" {
		p.PassportNumber = aux.PassportNumberCamel
	}
	if p.PassportExpiry == "" {
		p.PassportExpiry = aux.PassportExpiryCamel
	}
	if p.SpecialRequests == "" {
		p.SpecialRequests = aux.SpecialRequestsCamel
	}
	if p.Type == "" {
		p.Type = PassengerTypeAdult
	}
	return nil
}

// ContactInfo is captured once per booking, not per passenger.
type ContactInfo struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// BookingDraft is the in-progress booking threaded across workflow stages.
// It is created when the traveler confirms flight selection and cleared once
// submission succeeds or the flow restarts.
type BookingDraft struct {
	OutboundFlightID string      `json:"outbound_flight_id"`
	ReturnFlightID   string      `json:"return_flight_id,omitempty"`
	CabinClass       CabinClass  `json:"cabin_class"`
	Passengers       []Passenger `json:"passengers"`
	Contact          ContactInfo `json:"contact"`
}

// PaymentDetails is the transient card capture for a single submission
// attempt. It is never stored.
type PaymentDetails struct {
	Method         string `json:"payment_method"`
	CardNumber     string `json:"card_number"`
	CardHolderName string `json:"card_holder_name"`
	ExpiryDate     string `json:"expiry_date"`
	CVV            string `json:"cvv"`
}

// Identity tags a submission as guest or authenticated. A zero Identity is a
// guest; guests get a generated user ID with the "guest-" prefix.
type Identity struct {
	UserID string `json:"user_id"`
	Token  string `json:"-"`
}

func (i Identity) Guest() bool {
	return i.UserID == "" || len(i.UserID) > 6 && i.UserID[:6] == "guest-"
}

// BookingResult is what the traveler sees on the confirmation step. Demo and
// Fallback are independently distinguishable substitution flags: Demo means
// the booking API was unreachable and the whole confirmation is synthetic,
// Fallback means the API accepted the booking but omitted a reference.
type BookingResult struct {
	Reference    string  `json:"booking_reference"`
	Status       string  `json:"status"`
	TotalAmount  float64 `json:"total_amount"`
	ContactEmail string  `json:"contact_email"`
	Demo         bool    `json:"demo,omitempty"`
	Fallback     bool    `json:"fallback,omitempty"`
	PriceFloored bool    `json:"price_floored,omitempty"`
}

// Booking is a past booking echoed by the booking API for the account view.
type Booking struct {
	ID             string  `json:"id"`
	Reference      string  `json:"booking_reference"`
	BookingDate    string  `json:"booking_date"`
	Status         string  `json:"status"`
	TotalAmount    Money   `json:"total_amount"`
	CabinClass     string  `json:"cabin_class"`
	OutboundFlight *Flight `json:"outbound_flight,omitempty"`
	ReturnFlight   *Flight `json:"return_flight,omitempty"`
}

// Profile is the account profile owned by the booking API.
type Profile struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}
