package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/thena-travel/flightdesk/internal/domain"
	"github.com/thena-travel/flightdesk/internal/gateway"
	"github.com/thena-travel/flightdesk/internal/kafka"
	"github.com/thena-travel/flightdesk/internal/validation"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

// fakeStore is a map-backed DraftStore so transition tests can observe what
// actually got persisted.
type fakeStore struct {
	sessions map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[string][]byte{}}
}

func (s *fakeStore) Save(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	s.sessions[session.ID] = data
	return nil
}

func (s *fakeStore) Load(ctx context.Context, id string) (*Session, error) {
	data, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	session := &Session{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *fakeStore) Clear(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

type MockFlightSearcher struct {
	mock.Mock
}

func (m *MockFlightSearcher) Search(ctx context.Context, criteria domain.SearchCriteria) *gateway.SearchResults {
	args := m.Called(ctx, criteria)
	return args.Get(0).(*gateway.SearchResults)
}

type MockBookingSubmitter struct {
	mock.Mock
}

func (m *MockBookingSubmitter) Submit(ctx context.Context, draft *domain.BookingDraft, payment domain.PaymentDetails, identity domain.Identity) (*domain.BookingResult, error) {
	args := m.Called(ctx, draft, payment, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingResult), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type controllerFixture struct {
	controller *Controller
	store      *fakeStore
	searcher   *MockFlightSearcher
	submitter  *MockBookingSubmitter
}

func newFixture(opts ...Option) *controllerFixture {
	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &controllerFixture{
		store:     newFakeStore(),
		searcher:  &MockFlightSearcher{},
		submitter: &MockBookingSubmitter{},
	}
	validator := validation.NewPassengerValidator(validation.WithClock(func() time.Time { return testNow }))
	opts = append(opts, WithClock(func() time.Time { return testNow }))
	f.controller = NewController(f.store, f.searcher, f.submitter, validator, log, opts...)
	return f
}

func validCriteria() domain.SearchCriteria {
	return domain.SearchCriteria{
		Origin:        "JFK",
		Destination:   "LAX",
		DepartureDate: "2026-09-10",
		TripType:      domain.TripTypeOneWay,
		Passengers:    domain.PassengerCounts{Adults: 1},
		CabinClass:    domain.CabinEconomy,
	}
}

func validManifest() ([]domain.Passenger, domain.ContactInfo) {
	passengers := []domain.Passenger{{
		Type:           domain.PassengerTypeAdult,
		FirstName:      "Ada",
		LastName:       "Lovelace",
		DateOfBirth:    "1990-12-10",
		Nationality:    "GB",
		PassportNumber: "X1234567",
		PassportExpiry: "2030-01-01",
	}}
	contact := domain.ContactInfo{Email: "ada@example.com", Phone: "+441234567890"}
	return passengers, contact
}

func validPayment() domain.PaymentDetails {
	return domain.PaymentDetails{
		CardNumber:     "4111 1111 1111 1111",
		CardHolderName: "Ada Lovelace",
		ExpiryDate:     "12/30",
		CVV:            "123",
	}
}

// advanceToPassengers walks a fresh session through search and selection.
func (f *controllerFixture) advanceToPassengers(t *testing.T) *Session {
	t.Helper()
	ctx := context.Background()

	session, err := f.controller.Start(ctx)
	assert.NoError(t, err)

	f.searcher.On("Search", ctx, mock.Anything).Return(&gateway.SearchResults{
		Outbound: gateway.LegResult{Flights: []domain.Flight{{ID: "f-1", Price: 200}}},
	}).Once()

	session, _, err = f.controller.Search(ctx, session.ID, validCriteria())
	assert.NoError(t, err)

	session, err = f.controller.SelectFlights(ctx, session.ID, "f-1", "")
	assert.NoError(t, err)
	return session
}

func (f *controllerFixture) advanceToPayment(t *testing.T) *Session {
	t.Helper()
	ctx := context.Background()

	session := f.advanceToPassengers(t)
	passengers, contact := validManifest()
	session, err := f.controller.SubmitPassengers(ctx, session.ID, passengers, contact)
	assert.NoError(t, err)
	return session
}

func TestController_Start(t *testing.T) {
	f := newFixture()

	session, err := f.controller.Start(context.Background())

	assert.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, StageSearchEntry, session.Stage)

	loaded, err := f.controller.Get(context.Background(), session.ID)
	assert.NoError(t, err)
	assert.Equal(t, session.ID, loaded.ID)
}

func TestController_Get_unknownSession(t *testing.T) {
	f := newFixture()

	_, err := f.controller.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestController_Search_invalidCriteriaBlocksBeforeNetwork(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	session, _ := f.controller.Start(ctx)

	criteria := validCriteria()
	criteria.Origin = ""
	criteria.DepartureDate = "2026-01-01"

	_, _, err := f.controller.Search(ctx, session.ID, criteria)

	var errs domain.ValidationErrors
	assert.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "origin")
	assert.Contains(t, errs, "departureDate")

	f.searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)

	loaded, _ := f.controller.Get(ctx, session.ID)
	assert.Equal(t, StageSearchEntry, loaded.Stage)
}

func TestController_Search_advancesAndKeepsCriteria(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	session, _ := f.controller.Start(ctx)

	criteria := validCriteria()
	f.searcher.On("Search", ctx, criteria).Return(&gateway.SearchResults{
		Outbound: gateway.LegResult{Flights: []domain.Flight{{ID: "f-1"}}},
	}).Once()

	session, results, err := f.controller.Search(ctx, session.ID, criteria)

	assert.NoError(t, err)
	assert.Equal(t, StageResultsSelection, session.Stage)
	assert.Len(t, results.Outbound.Flights, 1)

	// Results live only in the response; the persisted session carries the
	// criteria so Back can re-run the search.
	loaded, _ := f.controller.Get(ctx, session.ID)
	assert.Equal(t, StageResultsSelection, loaded.Stage)
	assert.Equal(t, &criteria, loaded.Criteria)
	f.searcher.AssertExpectations(t)
}

func TestController_SelectFlights_wrongStage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	session, _ := f.controller.Start(ctx)

	_, err := f.controller.SelectFlights(ctx, session.ID, "f-1", "")

	var stageErr *StageError
	assert.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageSearchEntry, stageErr.Current)
	assert.Equal(t, StageResultsSelection, stageErr.Required)
}

func TestController_SelectFlights_roundTripNeedsReturnFlight(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	session, _ := f.controller.Start(ctx)

	criteria := validCriteria()
	criteria.TripType = domain.TripTypeRoundTrip
	criteria.ReturnDate = "2026-09-17"
	f.searcher.On("Search", ctx, criteria).Return(&gateway.SearchResults{}).Once()

	_, _, err := f.controller.Search(ctx, session.ID, criteria)
	assert.NoError(t, err)

	_, err = f.controller.SelectFlights(ctx, session.ID, "f-1", "")

	var errs domain.ValidationErrors
	assert.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "returnFlight")

	session, err = f.controller.SelectFlights(ctx, session.ID, "f-1", "f-2")
	assert.NoError(t, err)
	assert.Equal(t, StagePassengerEntry, session.Stage)
	assert.Equal(t, "f-2", session.Draft.ReturnFlightID)
}

func TestController_SubmitPassengers_invalidManifestBlocks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	session := f.advanceToPassengers(t)

	passengers, contact := validManifest()
	passengers[0].DateOfBirth = "2026-01-01" // an infant, not an adult
	contact.Email = "not-an-email"

	_, err := f.controller.SubmitPassengers(ctx, session.ID, passengers, contact)

	var errs domain.ValidationErrors
	assert.ErrorAs(t, err, &errs)
	assert.Equal(t, "Adult must be at least 12 years old", errs["passenger-0-dateOfBirth"])
	assert.Equal(t, "Email is invalid", errs["contactEmail"])

	loaded, _ := f.controller.Get(ctx, session.ID)
	assert.Equal(t, StagePassengerEntry, loaded.Stage)
}

func TestController_SubmitPayment_invalidCardBlocksSubmission(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	session := f.advanceToPayment(t)

	payment := validPayment()
	payment.ExpiryDate = "05/26" // before testNow

	_, err := f.controller.SubmitPayment(ctx, session.ID, payment, domain.Identity{})

	var errs domain.ValidationErrors
	assert.ErrorAs(t, err, &errs)
	assert.Equal(t, "Card has expired", errs["expiryDate"])

	f.submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestController_SubmitPayment_rejectionKeepsPaymentStage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	session := f.advanceToPayment(t)

	upstream := &domain.UpstreamError{StatusCode: http.StatusConflict, Message: "No seats left in economy"}
	f.submitter.On("Submit", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil, upstream).Once()

	_, err := f.controller.SubmitPayment(ctx, session.ID, validPayment(), domain.Identity{})

	assert.ErrorIs(t, err, error(upstream))

	loaded, _ := f.controller.Get(ctx, session.ID)
	assert.Equal(t, StagePayment, loaded.Stage)
	assert.NotNil(t, loaded.Draft)
}

func TestController_SubmitPayment_consumesDraftAndPublishes(t *testing.T) {
	publisher := &MockPublisher{}
	f := newFixture(WithPublisher(publisher, "booking-events"))
	ctx := context.Background()
	session := f.advanceToPayment(t)

	result := &domain.BookingResult{
		Reference:    "TB-1",
		Status:       "confirmed",
		TotalAmount:  200,
		ContactEmail: "ada@example.com",
	}
	f.submitter.On("Submit", ctx, mock.Anything, mock.Anything, mock.Anything).Return(result, nil).Once()

	var published kafka.BookingEvent
	publisher.On("Publish", ctx, "booking-events", session.ID, mock.Anything).
		Run(func(args mock.Arguments) {
			published = args.Get(3).(kafka.BookingEvent)
		}).
		Return(nil).Once()

	session, err := f.controller.SubmitPayment(ctx, session.ID, validPayment(), domain.Identity{})

	assert.NoError(t, err)
	assert.Equal(t, StageConfirmation, session.Stage)
	assert.Nil(t, session.Draft)
	assert.Equal(t, result, session.Result)

	assert.Equal(t, "booking_confirmed", published.Type)
	assert.Equal(t, "TB-1", published.Reference)
	assert.Equal(t, "economy", published.CabinClass)
	assert.Equal(t, 200.0, published.TotalAmount)

	f.submitter.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestController_Back_rewindsOneStageKeepingData(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	session := f.advanceToPayment(t)

	session, err := f.controller.Back(ctx, session.ID)

	assert.NoError(t, err)
	assert.Equal(t, StagePassengerEntry, session.Stage)
	assert.NotNil(t, session.Draft)
	assert.Len(t, session.Draft.Passengers, 1)
	assert.Equal(t, "ada@example.com", session.Draft.Contact.Email)
}

func TestController_Back_noOpAtFirstStage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	session, _ := f.controller.Start(ctx)

	session, err := f.controller.Back(ctx, session.ID)

	assert.NoError(t, err)
	assert.Equal(t, StageSearchEntry, session.Stage)
}

func TestController_Restart_discardsDraft(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	session := f.advanceToPayment(t)

	restarted, err := f.controller.Restart(ctx, session.ID)

	assert.NoError(t, err)
	assert.Equal(t, session.ID, restarted.ID)
	assert.Equal(t, StageSearchEntry, restarted.Stage)
	assert.Nil(t, restarted.Draft)
	assert.Nil(t, restarted.Criteria)
}

func TestController_fullFlow_oneAdultEconomy(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	session := f.advanceToPayment(t)

	f.submitter.On("Submit", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.BookingResult{
			Reference:    "TB-100",
			Status:       "confirmed",
			TotalAmount:  200,
			ContactEmail: "ada@example.com",
		}, nil).Once()

	session, err := f.controller.SubmitPayment(ctx, session.ID, validPayment(), domain.Identity{})

	assert.NoError(t, err)
	assert.Equal(t, StageConfirmation, session.Stage)
	assert.Equal(t, 200.0, session.Result.TotalAmount)
	assert.Equal(t, "TB-100", session.Result.Reference)
}

func TestController_fullFlow_demoConfirmation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	session := f.advanceToPayment(t)

	f.submitter.On("Submit", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.BookingResult{
			Reference:    "DEMO-A1B2C3D4",
			Status:       "confirmed",
			TotalAmount:  200,
			ContactEmail: "ada@example.com",
			Demo:         true,
		}, nil).Once()

	session, err := f.controller.SubmitPayment(ctx, session.ID, validPayment(), domain.Identity{})

	assert.NoError(t, err)
	assert.Equal(t, StageConfirmation, session.Stage)
	assert.Regexp(t, regexp.MustCompile(`^DEMO-[A-Z0-9]{8}$`), session.Result.Reference)
	assert.True(t, session.Result.Demo)
}

func TestStage_Predecessor(t *testing.T) {
	previous, ok := StagePayment.Predecessor()
	assert.True(t, ok)
	assert.Equal(t, StagePassengerEntry, previous)

	_, ok = StageSearchEntry.Predecessor()
	assert.False(t, ok)
}

func TestController_operationsOnUnknownSession(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, _, err := f.controller.Search(ctx, "missing", validCriteria())
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	_, err = f.controller.SelectFlights(ctx, "missing", "f-1", "")
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	passengers, contact := validManifest()
	_, err = f.controller.SubmitPassengers(ctx, "missing", passengers, contact)
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	_, err = f.controller.SubmitPayment(ctx, "missing", validPayment(), domain.Identity{})
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}
