package validation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/thena-travel/flightdesk/internal/domain"
)

var (
	cardNumberRe = regexp.MustCompile(`^\d{16}$`)
	expiryRe     = regexp.MustCompile(`^\d{2}/\d{2}$`)
	cvvRe        = regexp.MustCompile(`^\d{3,4}$`)
)

// ValidatePayment checks card details before a submission attempt. Card
// numbers may contain grouping spaces.
func (v *PassengerValidator) ValidatePayment(p domain.PaymentDetails) domain.ValidationErrors {
	errs := domain.ValidationErrors{}

	if p.Method != "" && p.Method != "credit_card" {
		// Only card payments reach the booking API today.
		errs["paymentMethod"] = "Payment method is not supported"
	}

	number := strings.ReplaceAll(p.CardNumber, " ", "")
	if number == "" {
		errs["cardNumber"] = "Card number is required"
	} else if !cardNumberRe.MatchString(number) {
		errs["cardNumber"] = "Card number must be 16 digits"
	}

	if strings.TrimSpace(p.CardHolderName) == "" {
		errs["cardName"] = "Cardholder name is required"
	}

	if p.ExpiryDate == "" {
		errs["expiryDate"] = "Expiry date is required"
	} else if !expiryRe.MatchString(p.ExpiryDate) {
		errs["expiryDate"] = "Expiry date must be in MM/YY format"
	} else {
		parts := strings.SplitN(p.ExpiryDate, "/", 2)
		month, _ := strconv.Atoi(parts[0])
		year, _ := strconv.Atoi(parts[1])
		now := v.now()
		currentYear := now.Year() % 100
		currentMonth := int(now.Month())
		switch {
		case month < 1 || month > 12:
			errs["expiryDate"] = "Invalid month"
		case year < currentYear || (year == currentYear && month < currentMonth):
			errs["expiryDate"] = "Card has expired"
		}
	}

	if p.CVV == "" {
		errs["cvv"] = "CVV is required"
	} else if !cvvRe.MatchString(p.CVV) {
		errs["cvv"] = "CVV must be 3 or 4 digits"
	}

	return errs
}
