package gateway

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/thena-travel/flightdesk/internal/domain"
	"github.com/thena-travel/flightdesk/internal/pricing"
)

const referenceCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// BookingClient assembles and submits the final booking payload, and proxies
// the account endpoints of the booking API.
type BookingClient struct {
	api     *apiClient
	flights *FlightClient
	pricing *pricing.Calculator
	log     *logrus.Logger
}

func NewBookingClient(baseURL string, timeout time.Duration, flights *FlightClient, calc *pricing.Calculator, log *logrus.Logger) *BookingClient {
	return &BookingClient{
		api:     newAPIClient(baseURL, timeout, log),
		flights: flights,
		pricing: calc,
		log:     log,
	}
}

type cardDetails struct {
	CardNumber     string `json:"card_number"`
	CardHolderName string `json:"card_holder_name"`
	ExpiryDate     string `json:"expiry_date"`
	CVV            string `json:"cvv"`
}

type bookingPayload struct {
	UserID                string             `json:"user_id"`
	FirstName             string             `json:"first_name"`
	LastName              string             `json:"last_name"`
	Email                 string             `json:"email"`
	Phone                 string             `json:"phone"`
	ContactEmail          string             `json:"contact_email"`
	ContactPhone          string             `json:"contact_phone"`
	PaymentMethod         string             `json:"payment_method"`
	CardDetails           cardDetails        `json:"card_details"`
	TotalAmount           float64            `json:"total_amount"`
	OutboundFlightID      string             `json:"outbound_flight_id"`
	ReturnFlightID        string             `json:"return_flight_id,omitempty"`
	CabinClass            string             `json:"cabin_class"`
	OutboundFlightDetails *domain.Flight     `json:"outbound_flight_details"`
	ReturnFlightDetails   *domain.Flight     `json:"return_flight_details,omitempty"`
	IsGuest               bool               `json:"is_guest"`
	Passengers            []domain.Passenger `json:"passengers"`
}

type bookingResponse struct {
	BookingReference string  `json:"booking_reference"`
	Status           string  `json:"status"`
	TotalAmount      float64 `json:"total_amount"`
	Message          string  `json:"message"`
}

// Submit posts the booking to the external API and translates the outcome.
// Three success kinds stay independently distinguishable: a real reference,
// a locally generated fallback reference when the API omitted one, and a
// demo confirmation synthesized when the API is unreachable. Only an actual
// rejection by the API comes back as an error.
func (c *BookingClient) Submit(ctx context.Context, draft *domain.BookingDraft, payment domain.PaymentDetails, identity domain.Identity) (*domain.BookingResult, error) {
	if err := c.checkPreconditions(draft, payment); err != nil {
		return nil, err
	}

	outboundFlight := c.flightDetails(ctx, draft.OutboundFlightID)
	var returnFlight *domain.Flight
	if draft.ReturnFlightID != "" {
		returnFlight = c.flightDetails(ctx, draft.ReturnFlightID)
	}

	total, floored := c.totalAmount(draft, outboundFlight, returnFlight)

	userID := identity.UserID
	if userID == "" {
		userID = "guest-" + uuid.NewString()
	}

	payload := c.assemble(draft, payment, userID, total, outboundFlight, returnFlight)

	var resp bookingResponse
	err := c.api.do(ctx, http.MethodPost, "/bookings", nil, identity.Token, payload, &resp)

	var transportErr *domain.TransportError
	if errors.As(err, &transportErr) {
		// Deliberate fallback: keep the flow demonstrable without a live
		// backend. Never extended to cover upstream rejections.
		reference := "DEMO-" + randomReference(8)
		c.log.WithError(err).WithField("booking_reference", reference).
			Warn("booking API unreachable, synthesizing demo confirmation")
		return &domain.BookingResult{
			Reference:    reference,
			Status:       "confirmed",
			TotalAmount:  total,
			ContactEmail: draft.Contact.Email,
			Demo:         true,
			PriceFloored: floored,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	result := &domain.BookingResult{
		Reference:    resp.BookingReference,
		Status:       resp.Status,
		TotalAmount:  total,
		ContactEmail: draft.Contact.Email,
		PriceFloored: floored,
	}
	if result.Status == "" {
		result.Status = "confirmed"
	}
	if result.Reference == "" {
		result.Reference = "FB-" + randomReference(8)
		result.Fallback = true
		c.log.WithField("booking_reference", result.Reference).
			Warn("booking accepted without a reference, synthesizing fallback reference")
	}
	return result, nil
}

func (c *BookingClient) checkPreconditions(draft *domain.BookingDraft, payment domain.PaymentDetails) error {
	errs := domain.ValidationErrors{}
	if draft == nil || draft.OutboundFlightID == "" {
		errs["outboundFlightId"] = "An outbound flight is required"
	}
	if draft == nil || len(draft.Passengers) == 0 {
		errs["passengers"] = "At least one passenger is required"
	}
	if payment.CardNumber == "" || payment.CardHolderName == "" || payment.ExpiryDate == "" || payment.CVV == "" {
		errs["payment"] = "All payment fields are required"
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (c *BookingClient) flightDetails(ctx context.Context, flightID string) *domain.Flight {
	flight, err := c.flights.GetFlight(ctx, flightID)
	if err != nil {
		c.log.WithError(err).WithField("flight_id", flightID).
			Warn("could not fetch flight details for submission")
		return nil
	}
	return flight
}

// totalAmount re-prices from the flights' authoritative cabin fares. A leg
// whose details could not be fetched prices at the fare floor rather than
// failing the submission.
func (c *BookingClient) totalAmount(draft *domain.BookingDraft, outbound, ret *domain.Flight) (float64, bool) {
	outboundFare := fareOf(outbound, draft.CabinClass)

	var returnFare *float64
	if draft.ReturnFlightID != "" {
		fare := fareOf(ret, draft.CabinClass)
		returnFare = &fare
	}

	return c.pricing.TripTotal(outboundFare, returnFare, draft.CabinClass, len(draft.Passengers))
}

func fareOf(flight *domain.Flight, cabin domain.CabinClass) float64 {
	if flight == nil {
		return 0
	}
	fare, ok := flight.FareFor(cabin)
	if !ok {
		return 0
	}
	return fare
}

func (c *BookingClient) assemble(draft *domain.BookingDraft, payment domain.PaymentDetails, userID string, total float64, outbound, ret *domain.Flight) bookingPayload {
	lead := draft.Passengers[0]

	method := payment.Method
	if method == "" {
		method = "credit_card"
	}

	payload := bookingPayload{
		UserID:        userID,
		FirstName:     lead.FirstName,
		LastName:      lead.LastName,
		Email:         draft.Contact.Email,
		Phone:         draft.Contact.Phone,
		ContactEmail:  draft.Contact.Email,
		ContactPhone:  draft.Contact.Phone,
		PaymentMethod: method,
		CardDetails: cardDetails{
			CardNumber:     strings.ReplaceAll(payment.CardNumber, " ", ""),
			CardHolderName: payment.CardHolderName,
			ExpiryDate:     payment.ExpiryDate,
			CVV:            payment.CVV,
		},
		TotalAmount:      total,
		OutboundFlightID: draft.OutboundFlightID,
		ReturnFlightID:   draft.ReturnFlightID,
		CabinClass:       string(domain.NormalizeCabinClass(string(draft.CabinClass))),
		IsGuest:          strings.HasPrefix(userID, "guest-"),
		Passengers:       draft.Passengers,
	}

	payload.OutboundFlightDetails = outbound
	payload.ReturnFlightDetails = ret

	return payload
}

// UserBookings lists the authenticated traveler's past bookings.
func (c *BookingClient) UserBookings(ctx context.Context, token string) ([]domain.Booking, error) {
	var bookings []domain.Booking
	if err := c.api.get(ctx, "/bookings/user", nil, token, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// GetProfile fetches the authenticated traveler's profile.
func (c *BookingClient) GetProfile(ctx context.Context, token string) (*domain.Profile, error) {
	var profile domain.Profile
	if err := c.api.get(ctx, "/users/profile", nil, token, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile saves profile changes for the authenticated traveler.
func (c *BookingClient) UpdateProfile(ctx context.Context, token string, profile domain.Profile) (*domain.Profile, error) {
	var updated domain.Profile
	if err := c.api.do(ctx, http.MethodPut, "/users/profile", nil, token, profile, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func randomReference(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = referenceCharset[rand.Intn(len(referenceCharset))]
	}
	return string(b)
}
