package gateway

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/thena-travel/flightdesk/internal/domain"
)

// FlightClient requests flight candidates from the external booking API.
type FlightClient struct {
	api *apiClient
}

func NewFlightClient(baseURL string, timeout time.Duration, log *logrus.Logger) *FlightClient {
	return &FlightClient{api: newAPIClient(baseURL, timeout, log)}
}

// LegResult holds one direction's candidates. An empty Flights with a nil
// Err is a valid "no flights found" outcome, distinct from a failed request.
type LegResult struct {
	Flights []domain.Flight `json:"flights"`
	Err     error           `json:"-"`
}

func (l LegResult) Failed() bool {
	return l.Err != nil
}

// SearchResults carries both directions independently so one failed leg
// never hides the other's results.
type SearchResults struct {
	Outbound LegResult
	Return   LegResult
}

// Search issues the outbound request and, for round trips with a return
// date, the return request. The two requests run concurrently and fail
// independently.
func (c *FlightClient) Search(ctx context.Context, criteria domain.SearchCriteria) *SearchResults {
	results := &SearchResults{}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results.Outbound.Flights, results.Outbound.Err = c.searchLeg(
			ctx, criteria.Origin, criteria.Destination, criteria.DepartureDate, criteria.CabinClass)
	}()

	if criteria.RoundTrip() && criteria.ReturnDate != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results.Return.Flights, results.Return.Err = c.searchLeg(
				ctx, criteria.Destination, criteria.Origin, criteria.ReturnDate, criteria.CabinClass)
		}()
	}

	wg.Wait()
	return results
}

func (c *FlightClient) searchLeg(ctx context.Context, origin, destination, date string, cabin domain.CabinClass) ([]domain.Flight, error) {
	query := url.Values{}
	query.Set("origin", origin)
	query.Set("destination", destination)
	query.Set("date", date)
	query.Set("cabin_class", string(cabin))

	var flights []domain.Flight
	if err := c.api.get(ctx, "/flights/search", query, "", &flights); err != nil {
		c.api.log.WithError(err).WithFields(logrus.Fields{
			"origin":      origin,
			"destination": destination,
			"date":        date,
		}).Warn("flight search leg failed")
		return nil, err
	}
	return flights, nil
}

// GetFlight fetches one flight's authoritative details by ID.
func (c *FlightClient) GetFlight(ctx context.Context, id string) (*domain.Flight, error) {
	var flight domain.Flight
	if err := c.api.get(ctx, "/flights/"+url.PathEscape(id), nil, "", &flight); err != nil {
		return nil, err
	}
	return &flight, nil
}
