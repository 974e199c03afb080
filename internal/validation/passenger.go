package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/thena-travel/flightdesk/internal/domain"
)

// PassengerValidator checks a whole passenger manifest plus the booking's
// contact record. It is pure: it only ever returns the accumulated errors,
// the caller decides whether to block progression.
type PassengerValidator struct {
	validate *validator.Validate
	now      func() time.Time
}

type Option func(*PassengerValidator)

// WithClock fixes "today" for age and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(v *PassengerValidator) {
		v.now = now
	}
}

func NewPassengerValidator(opts ...Option) *PassengerValidator {
	v := &PassengerValidator{
		validate: validator.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate reports every error across all passengers and the contact record
// at once, keyed by passenger index and field so the caller can render each
// one next to its input.
func (v *PassengerValidator) Validate(passengers []domain.Passenger, contact domain.ContactInfo) domain.ValidationErrors {
	errs := domain.ValidationErrors{}

	if len(passengers) == 0 {
		errs["passengers"] = "At least one passenger is required"
	}
	for i, p := range passengers {
		errs.Merge(v.validatePassenger(p, i))
	}
	errs.Merge(v.validateContact(contact))

	return errs
}

func (v *PassengerValidator) validatePassenger(p domain.Passenger, index int) domain.ValidationErrors {
	errs := domain.ValidationErrors{}
	key := func(field string) string {
		return fmt.Sprintf("passenger-%d-%s", index, field)
	}
	now := v.now()

	if strings.TrimSpace(p.FirstName) == "" {
		errs[key("firstName")] = "First name is required"
	}
	if strings.TrimSpace(p.LastName) == "" {
		errs[key("lastName")] = "Last name is required"
	}

	if p.DateOfBirth == "" {
		errs[key("dateOfBirth")] = "Date of birth is required"
	} else if dob, err := time.Parse(domain.DateLayout, p.DateOfBirth); err != nil {
		errs[key("dateOfBirth")] = "Date of birth is invalid"
	} else {
		age := ageYears(dob, now)
		switch p.Type {
		case domain.PassengerTypeAdult:
			if age < 12 {
				errs[key("dateOfBirth")] = "Adult must be at least 12 years old"
			}
		case domain.PassengerTypeChild:
			if age < 2 || age >= 12 {
				errs[key("dateOfBirth")] = "Child must be between 2 and 11 years old"
			}
		case domain.PassengerTypeInfant:
			if age >= 2 {
				errs[key("dateOfBirth")] = "Infant must be under 2 years old"
			}
		default:
			errs[key("type")] = "Passenger type must be adult, child or infant"
		}
	}

	if strings.TrimSpace(p.Nationality) == "" {
		errs[key("nationality")] = "Nationality is required"
	}
	if strings.TrimSpace(p.PassportNumber) == "" {
		errs[key("passportNumber")] = "Passport number is required"
	}

	if p.PassportExpiry == "" {
		errs[key("passportExpiry")] = "Passport expiry date is required"
	} else if expiry, err := time.Parse(domain.DateLayout, p.PassportExpiry); err != nil {
		errs[key("passportExpiry")] = "Passport expiry date is invalid"
	} else if !expiry.After(truncateToDay(now)) {
		// A passport expiring today is already unusable for travel.
		errs[key("passportExpiry")] = "Passport must not be expired"
	}

	return errs
}

func (v *PassengerValidator) validateContact(contact domain.ContactInfo) domain.ValidationErrors {
	errs := domain.ValidationErrors{}

	if strings.TrimSpace(contact.Email) == "" {
		errs["contactEmail"] = "Email is required"
	} else if err := v.validate.Var(contact.Email, "email"); err != nil {
		errs["contactEmail"] = "Email is invalid"
	}

	if strings.TrimSpace(contact.Phone) == "" {
		// Phone formats are locale-dependent, presence is the only rule.
		errs["contactPhone"] = "Phone number is required"
	}

	return errs
}

// ageYears is the exact number of whole calendar years elapsed since dob,
// adjusted for whether the birthday has occurred this year.
func ageYears(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if years < 0 {
		return years
	}
	if dob.AddDate(years, 0, 0).After(now) {
		years--
	}
	return years
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
