package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/thena-travel/flightdesk/internal/domain"
)

var testNow = time.Date(2026, time.June, 15, 10, 0, 0, 0, time.UTC)

func newTestValidator() *PassengerValidator {
	return NewPassengerValidator(WithClock(func() time.Time { return testNow }))
}

func validPassenger(t domain.PassengerType, dob string) domain.Passenger {
	return domain.Passenger{
		Type:           t,
		FirstName:      "Ada",
		LastName:       "Lovelace",
		DateOfBirth:    dob,
		Nationality:    "GB",
		PassportNumber: "X1234567",
		PassportExpiry: "2030-01-01",
	}
}

func validContact() domain.ContactInfo {
	return domain.ContactInfo{Email: "ada@example.com", Phone: "+441234567890"}
}

func TestValidate_ValidManifest(t *testing.T) {
	v := newTestValidator()

	passengers := []domain.Passenger{
		validPassenger(domain.PassengerTypeAdult, "1990-03-04"),
		validPassenger(domain.PassengerTypeChild, "2019-03-04"),
		validPassenger(domain.PassengerTypeInfant, "2025-03-04"),
	}

	errs := v.Validate(passengers, validContact())

	assert.Empty(t, errs)
}

func TestValidate_RequiredFields(t *testing.T) {
	v := newTestValidator()

	errs := v.Validate([]domain.Passenger{{Type: domain.PassengerTypeAdult}}, domain.ContactInfo{})

	assert.Equal(t, "First name is required", errs["passenger-0-firstName"])
	assert.Equal(t, "Last name is required", errs["passenger-0-lastName"])
	assert.Equal(t, "Date of birth is required", errs["passenger-0-dateOfBirth"])
	assert.Equal(t, "Nationality is required", errs["passenger-0-nationality"])
	assert.Equal(t, "Passport number is required", errs["passenger-0-passportNumber"])
	assert.Equal(t, "Passport expiry date is required", errs["passenger-0-passportExpiry"])
	assert.Equal(t, "Email is required", errs["contactEmail"])
	assert.Equal(t, "Phone number is required", errs["contactPhone"])
}

func TestValidate_AdultAgeBand(t *testing.T) {
	v := newTestValidator()

	// Turned 12 exactly today: valid.
	errs := v.Validate([]domain.Passenger{validPassenger(domain.PassengerTypeAdult, "2014-06-15")}, validContact())
	assert.NotContains(t, errs, "passenger-0-dateOfBirth")

	// Twelve tomorrow: still 11, invalid.
	errs = v.Validate([]domain.Passenger{validPassenger(domain.PassengerTypeAdult, "2014-06-16")}, validContact())
	assert.Equal(t, "Adult must be at least 12 years old", errs["passenger-0-dateOfBirth"])
}

func TestValidate_ChildAgeBand(t *testing.T) {
	v := newTestValidator()

	// Just under 2: invalid as child.
	errs := v.Validate([]domain.Passenger{validPassenger(domain.PassengerTypeChild, "2024-06-16")}, validContact())
	assert.Equal(t, "Child must be between 2 and 11 years old", errs["passenger-0-dateOfBirth"])

	// Exactly 2: valid.
	errs = v.Validate([]domain.Passenger{validPassenger(domain.PassengerTypeChild, "2024-06-15")}, validContact())
	assert.NotContains(t, errs, "passenger-0-dateOfBirth")

	// Exactly 12: no longer a child.
	errs = v.Validate([]domain.Passenger{validPassenger(domain.PassengerTypeChild, "2014-06-15")}, validContact())
	assert.Equal(t, "Child must be between 2 and 11 years old", errs["passenger-0-dateOfBirth"])
}

func TestValidate_InfantThreeYearsOld(t *testing.T) {
	v := newTestValidator()

	dob := testNow.AddDate(-3, 0, 0).Format(domain.DateLayout)
	errs := v.Validate([]domain.Passenger{validPassenger(domain.PassengerTypeInfant, dob)}, validContact())

	assert.Equal(t, "Infant must be under 2 years old", errs["passenger-0-dateOfBirth"])
}

func TestValidate_PassportExpiry(t *testing.T) {
	v := newTestValidator()

	// Expired yesterday.
	p := validPassenger(domain.PassengerTypeAdult, "1990-01-01")
	p.PassportExpiry = "2026-06-14"
	errs := v.Validate([]domain.Passenger{p}, validContact())
	assert.Equal(t, "Passport must not be expired", errs["passenger-0-passportExpiry"])

	// Expiring today is invalid too.
	p.PassportExpiry = "2026-06-15"
	errs = v.Validate([]domain.Passenger{p}, validContact())
	assert.Equal(t, "Passport must not be expired", errs["passenger-0-passportExpiry"])

	// Tomorrow is fine.
	p.PassportExpiry = "2026-06-16"
	errs = v.Validate([]domain.Passenger{p}, validContact())
	assert.NotContains(t, errs, "passenger-0-passportExpiry")
}

func TestValidate_ContactEmailShape(t *testing.T) {
	v := newTestValidator()
	passengers := []domain.Passenger{validPassenger(domain.PassengerTypeAdult, "1990-01-01")}

	errs := v.Validate(passengers, domain.ContactInfo{Email: "not-an-email", Phone: "123"})
	assert.Equal(t, "Email is invalid", errs["contactEmail"])

	errs = v.Validate(passengers, domain.ContactInfo{Email: "ok@example.com", Phone: "123"})
	assert.Empty(t, errs)
}

func TestValidate_ErrorsAccumulateAcrossPassengers(t *testing.T) {
	v := newTestValidator()

	first := validPassenger(domain.PassengerTypeAdult, "2020-01-01")
	second := validPassenger(domain.PassengerTypeInfant, "2020-01-01")
	second.FirstName = ""

	errs := v.Validate([]domain.Passenger{first, second}, validContact())

	assert.Equal(t, "Adult must be at least 12 years old", errs["passenger-0-dateOfBirth"])
	assert.Equal(t, "Infant must be under 2 years old", errs["passenger-1-dateOfBirth"])
	assert.Equal(t, "First name is required", errs["passenger-1-firstName"])
	assert.Len(t, errs, 3)
}

func TestValidate_EmptyManifest(t *testing.T) {
	v := newTestValidator()

	errs := v.Validate(nil, validContact())

	assert.Equal(t, "At least one passenger is required", errs["passengers"])
}

func TestValidatePayment(t *testing.T) {
	v := newTestValidator()

	errs := v.ValidatePayment(domain.PaymentDetails{
		Method:         "credit_card",
		CardNumber:     "4111 1111 1111 1111",
		CardHolderName: "Ada Lovelace",
		ExpiryDate:     "12/27",
		CVV:            "123",
	})
	assert.Empty(t, errs)

	errs = v.ValidatePayment(domain.PaymentDetails{})
	assert.Equal(t, "Card number is required", errs["cardNumber"])
	assert.Equal(t, "Cardholder name is required", errs["cardName"])
	assert.Equal(t, "Expiry date is required", errs["expiryDate"])
	assert.Equal(t, "CVV is required", errs["cvv"])

	errs = v.ValidatePayment(domain.PaymentDetails{
		CardNumber:     "1234",
		CardHolderName: "Ada",
		ExpiryDate:     "13/27",
		CVV:            "12",
	})
	assert.Equal(t, "Card number must be 16 digits", errs["cardNumber"])
	assert.Equal(t, "Invalid month", errs["expiryDate"])
	assert.Equal(t, "CVV must be 3 or 4 digits", errs["cvv"])

	// Card expired relative to the fixed clock (June 2026).
	errs = v.ValidatePayment(domain.PaymentDetails{
		CardNumber:     "4111111111111111",
		CardHolderName: "Ada",
		ExpiryDate:     "05/26",
		CVV:            "123",
	})
	assert.Equal(t, "Card has expired", errs["expiryDate"])

	// An unsupported method does not hide the card-field errors.
	errs = v.ValidatePayment(domain.PaymentDetails{Method: "bank_transfer"})
	assert.Equal(t, "Payment method is not supported", errs["paymentMethod"])
	assert.Equal(t, "Card number is required", errs["cardNumber"])
	assert.Equal(t, "Cardholder name is required", errs["cardName"])
	assert.Equal(t, "Expiry date is required", errs["expiryDate"])
	assert.Equal(t, "CVV is required", errs["cvv"])
}
