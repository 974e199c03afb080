package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/thena-travel/flightdesk/internal/auth"
	"github.com/thena-travel/flightdesk/internal/domain"
	"github.com/thena-travel/flightdesk/internal/gateway"
	"github.com/thena-travel/flightdesk/internal/workflow"
)

// WorkflowHandler exposes the booking workflow: one session per traveler,
// one endpoint per stage transition.
type WorkflowHandler struct {
	service workflow.UseCase
	auth    *auth.Client
	log     *logrus.Logger
}

func NewWorkflowHandler(service workflow.UseCase, authClient *auth.Client, log *logrus.Logger) *WorkflowHandler {
	return &WorkflowHandler{service: service, auth: authClient, log: log}
}

func (h *WorkflowHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.start)
	router.GET("/:session", h.get)
	router.POST("/:session/search", h.search)
	router.POST("/:session/flights", h.selectFlights)
	router.POST("/:session/passengers", h.submitPassengers)
	router.POST("/:session/payment", h.submitPayment)
	router.POST("/:session/back", h.back)
	router.POST("/:session/restart", h.restart)
}

type sessionResponse struct {
	Session *workflow.Session `json:"session"`
}

func (h *WorkflowHandler) start(c *gin.Context) {
	session, err := h.service.Start(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{Session: session})
}

func (h *WorkflowHandler) get(c *gin.Context) {
	session, err := h.service.Get(c.Request.Context(), c.Param("session"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Session: session})
}

type searchResponse struct {
	Session         *workflow.Session `json:"session"`
	OutboundFlights []domain.Flight   `json:"outbound_flights"`
	OutboundError   bool              `json:"outbound_error"`
	ReturnFlights   []domain.Flight   `json:"return_flights,omitempty"`
	ReturnError     bool              `json:"return_error"`
}

func (h *WorkflowHandler) search(c *gin.Context) {
	var criteria domain.SearchCriteria
	if err := c.ShouldBindJSON(&criteria); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, results, err := h.service.Search(c.Request.Context(), c.Param("session"), criteria)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.searchResponse(session, results))
}

// searchResponse flattens the per-leg results. A failed leg is an explicit
// flag, never an empty list pretending to be "no flights found".
func (h *WorkflowHandler) searchResponse(session *workflow.Session, results *gateway.SearchResults) searchResponse {
	resp := searchResponse{
		Session:         session,
		OutboundFlights: results.Outbound.Flights,
		OutboundError:   results.Outbound.Failed(),
		ReturnFlights:   results.Return.Flights,
		ReturnError:     results.Return.Failed(),
	}
	if resp.OutboundFlights == nil {
		resp.OutboundFlights = []domain.Flight{}
	}
	return resp
}

type selectFlightsRequest struct {
	OutboundFlightID string `json:"outbound_flight_id"`
	ReturnFlightID   string `json:"return_flight_id"`
}

func (h *WorkflowHandler) selectFlights(c *gin.Context) {
	var req selectFlightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.service.SelectFlights(c.Request.Context(), c.Param("session"), req.OutboundFlightID, req.ReturnFlightID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Session: session})
}

type passengersRequest struct {
	Passengers []domain.Passenger `json:"passengers"`
	Contact    domain.ContactInfo `json:"contact"`
}

func (h *WorkflowHandler) submitPassengers(c *gin.Context) {
	var req passengersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.service.SubmitPassengers(c.Request.Context(), c.Param("session"), req.Passengers, req.Contact)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Session: session})
}

type paymentRequest struct {
	domain.PaymentDetails
	UserID string `json:"user_id"`
}

func (h *WorkflowHandler) submitPayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity := h.resolveIdentity(c, req.UserID)

	session, err := h.service.SubmitPayment(c.Request.Context(), c.Param("session"), req.PaymentDetails, identity)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Session: session})
}

func (h *WorkflowHandler) back(c *gin.Context) {
	session, err := h.service.Back(c.Request.Context(), c.Param("session"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Session: session})
}

func (h *WorkflowHandler) restart(c *gin.Context) {
	session, err := h.service.Restart(c.Request.Context(), c.Param("session"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Session: session})
}

// resolveIdentity tags the submission as guest or authenticated. A bearer
// token is resolved through the identity provider when one is configured;
// anything else falls back to guest checkout.
func (h *WorkflowHandler) resolveIdentity(c *gin.Context, claimedUserID string) domain.Identity {
	token := bearerToken(c)
	if token != "" && h.auth.Enabled() {
		user, err := h.auth.UserFromToken(c.Request.Context(), token)
		if err == nil && user.ID != "" {
			return domain.Identity{UserID: user.ID, Token: token}
		}
		h.log.WithError(err).Debug("could not resolve bearer token, treating submission as guest")
	}
	if strings.HasPrefix(claimedUserID, "guest-") {
		return domain.Identity{UserID: claimedUserID}
	}
	return domain.Identity{}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
