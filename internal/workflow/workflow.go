package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/thena-travel/flightdesk/internal/domain"
	"github.com/thena-travel/flightdesk/internal/gateway"
	"github.com/thena-travel/flightdesk/internal/kafka"
	"github.com/thena-travel/flightdesk/internal/validation"
)

// Stage is one step of the booking workflow. Stages are linear; the only
// backwards movement is an explicit one-step Back.
type Stage string

const (
	StageSearchEntry      Stage = "search_entry"
	StageResultsSelection Stage = "results_selection"
	StagePassengerEntry   Stage = "passenger_entry"
	StagePayment          Stage = "payment"
	StageConfirmation     Stage = "confirmation"
)

var stageOrder = []Stage{
	StageSearchEntry,
	StageResultsSelection,
	StagePassengerEntry,
	StagePayment,
	StageConfirmation,
}

// Predecessor returns the stage Back navigates to, false at the first stage.
func (s Stage) Predecessor() (Stage, bool) {
	for i, stage := range stageOrder {
		if stage == s && i > 0 {
			return stageOrder[i-1], true
		}
	}
	return "", false
}

// Session is one traveler's pass through the workflow. It is the single
// cross-step shared state: only the step owning the current stage writes it.
type Session struct {
	ID        string                 `json:"id"`
	Stage     Stage                  `json:"stage"`
	Criteria  *domain.SearchCriteria `json:"criteria,omitempty"`
	Draft     *domain.BookingDraft   `json:"draft,omitempty"`
	Result    *domain.BookingResult  `json:"result,omitempty"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// ErrSessionNotFound is a recoverable outcome: the traveler deep-linked into
// a later step without a draft and must be sent back to search.
var ErrSessionNotFound = errors.New("workflow session not found")

// StageError reports an operation attempted from the wrong stage.
type StageError struct {
	Current  Stage
	Required Stage
}

func (e *StageError) Error() string {
	return fmt.Sprintf("step requires stage %q, session is in stage %q", e.Required, e.Current)
}

// DraftStore is the session-scoped draft persistence. Implementations live
// in internal/draft.
type DraftStore interface {
	Save(ctx context.Context, session *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Clear(ctx context.Context, id string) error
}

type FlightSearcher interface {
	Search(ctx context.Context, criteria domain.SearchCriteria) *gateway.SearchResults
}

type BookingSubmitter interface {
	Submit(ctx context.Context, draft *domain.BookingDraft, payment domain.PaymentDetails, identity domain.Identity) (*domain.BookingResult, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// UseCase is the workflow surface the HTTP handlers consume.
type UseCase interface {
	Start(ctx context.Context) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Search(ctx context.Context, id string, criteria domain.SearchCriteria) (*Session, *gateway.SearchResults, error)
	SelectFlights(ctx context.Context, id, outboundFlightID, returnFlightID string) (*Session, error)
	SubmitPassengers(ctx context.Context, id string, passengers []domain.Passenger, contact domain.ContactInfo) (*Session, error)
	SubmitPayment(ctx context.Context, id string, payment domain.PaymentDetails, identity domain.Identity) (*Session, error)
	Back(ctx context.Context, id string) (*Session, error)
	Restart(ctx context.Context, id string) (*Session, error)
}

// Controller owns the booking draft for the lifetime of the workflow and
// gates every stage transition. It is the only component that presents
// failures to the traveler.
type Controller struct {
	store       DraftStore
	flights     FlightSearcher
	bookings    BookingSubmitter
	validator   *validation.PassengerValidator
	producer    Publisher
	eventsTopic string
	log         *logrus.Logger
	now         func() time.Time
}

type Option func(*Controller)

// WithPublisher wires booking-confirmed event publishing. Optional, like the
// rest of the observability surface.
func WithPublisher(producer Publisher, topic string) Option {
	return func(c *Controller) {
		c.producer = producer
		c.eventsTopic = topic
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

func NewController(store DraftStore, flights FlightSearcher, bookings BookingSubmitter, validator *validation.PassengerValidator, log *logrus.Logger, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		flights:   flights,
		bookings:  bookings,
		validator: validator,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start opens a fresh session at the search step.
func (c *Controller) Start(ctx context.Context) (*Session, error) {
	session := &Session{
		ID:        uuid.NewString(),
		Stage:     StageSearchEntry,
		UpdatedAt: c.now(),
	}
	if err := c.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save new session: %w", err)
	}
	return session, nil
}

func (c *Controller) Get(ctx context.Context, id string) (*Session, error) {
	return c.store.Load(ctx, id)
}

// Search validates the criteria, advances to results selection and fetches
// candidates. Invalid criteria block before any network call. Search results
// are never persisted, so a response arriving after the session has moved on
// cannot overwrite later state.
func (c *Controller) Search(ctx context.Context, id string, criteria domain.SearchCriteria) (*Session, *gateway.SearchResults, error) {
	session, err := c.store.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if errs := criteria.Validate(c.now()); len(errs) > 0 {
		return nil, nil, errs
	}

	session.Criteria = &criteria
	session.Stage = StageResultsSelection
	session.Result = nil
	if err := c.save(ctx, session); err != nil {
		return nil, nil, err
	}

	results := c.flights.Search(ctx, criteria)
	return session, results, nil
}

// SelectFlights moves from results selection to passenger entry. A return
// flight is required exactly when the search was a round trip. Passenger and
// contact data from an earlier pass survive so Back re-enters pre-filled.
func (c *Controller) SelectFlights(ctx context.Context, id, outboundFlightID, returnFlightID string) (*Session, error) {
	session, err := c.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Stage != StageResultsSelection {
		return nil, &StageError{Current: session.Stage, Required: StageResultsSelection}
	}

	errs := domain.ValidationErrors{}
	if outboundFlightID == "" {
		errs["outboundFlight"] = "An outbound flight must be selected"
	}
	if session.Criteria != nil && session.Criteria.RoundTrip() && returnFlightID == "" {
		errs["returnFlight"] = "A return flight must be selected for round trips"
	}
	if len(errs) > 0 {
		return nil, errs
	}

	cabin := domain.CabinEconomy
	if session.Criteria != nil {
		cabin = session.Criteria.CabinClass
	}

	if session.Draft == nil {
		session.Draft = &domain.BookingDraft{}
	}
	session.Draft.OutboundFlightID = outboundFlightID
	session.Draft.ReturnFlightID = returnFlightID
	session.Draft.CabinClass = cabin

	session.Stage = StagePassengerEntry
	if err := c.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SubmitPassengers validates the whole manifest and the contact record.
// Any error blocks progression; all errors are reported at once.
func (c *Controller) SubmitPassengers(ctx context.Context, id string, passengers []domain.Passenger, contact domain.ContactInfo) (*Session, error) {
	session, err := c.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Stage != StagePassengerEntry {
		return nil, &StageError{Current: session.Stage, Required: StagePassengerEntry}
	}
	if session.Draft == nil {
		return nil, ErrSessionNotFound
	}

	if errs := c.validator.Validate(passengers, contact); len(errs) > 0 {
		return nil, errs
	}

	session.Draft.Passengers = passengers
	session.Draft.Contact = contact
	session.Stage = StagePayment
	if err := c.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SubmitPayment validates the card and hands off to the submission gateway.
// Demo, fallback and real outcomes all advance to confirmation; only a
// genuine rejection keeps the session at the payment stage.
func (c *Controller) SubmitPayment(ctx context.Context, id string, payment domain.PaymentDetails, identity domain.Identity) (*Session, error) {
	session, err := c.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Stage != StagePayment {
		return nil, &StageError{Current: session.Stage, Required: StagePayment}
	}
	if session.Draft == nil {
		return nil, ErrSessionNotFound
	}

	if errs := c.validator.ValidatePayment(payment); len(errs) > 0 {
		return nil, errs
	}

	result, err := c.bookings.Submit(ctx, session.Draft, payment, identity)
	if err != nil {
		return nil, err
	}

	c.publishConfirmed(ctx, session, result)

	// The draft is consumed by a successful submission.
	session.Result = result
	session.Draft = nil
	session.Stage = StageConfirmation
	if err := c.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Back rewinds one stage, keeping prior data so the step re-enters
// pre-filled.
func (c *Controller) Back(ctx context.Context, id string) (*Session, error) {
	session, err := c.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	previous, ok := session.Stage.Predecessor()
	if !ok {
		return session, nil
	}
	session.Stage = previous
	if err := c.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Restart clears the booking draft and returns the session to the search
// step.
func (c *Controller) Restart(ctx context.Context, id string) (*Session, error) {
	if err := c.store.Clear(ctx, id); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return nil, fmt.Errorf("clear session: %w", err)
	}
	session := &Session{
		ID:        id,
		Stage:     StageSearchEntry,
		UpdatedAt: c.now(),
	}
	if err := c.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save restarted session: %w", err)
	}
	return session, nil
}

func (c *Controller) save(ctx context.Context, session *Session) error {
	session.UpdatedAt = c.now()
	if err := c.store.Save(ctx, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (c *Controller) publishConfirmed(ctx context.Context, session *Session, result *domain.BookingResult) {
	if c.producer == nil || c.eventsTopic == "" {
		return
	}
	cabin := ""
	if session.Draft != nil {
		cabin = string(session.Draft.CabinClass)
	}
	event := kafka.BookingEvent{
		Type:        "booking_confirmed",
		SessionID:   session.ID,
		Reference:   result.Reference,
		Status:      result.Status,
		Email:       result.ContactEmail,
		TotalAmount: result.TotalAmount,
		CabinClass:  cabin,
		Demo:        result.Demo,
		Fallback:    result.Fallback,
		ConfirmedAt: c.now(),
	}
	if err := c.producer.Publish(ctx, c.eventsTopic, session.ID, event); err != nil {
		c.log.WithError(err).WithField("booking_reference", result.Reference).
			Warn("failed to publish booking_confirmed event")
	}
}

var _ UseCase = (*Controller)(nil)
