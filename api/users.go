package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/thena-travel/flightdesk/internal/domain"
)

// AccountGateway is the slice of the booking API used by the account pages.
type AccountGateway interface {
	UserBookings(ctx context.Context, token string) ([]domain.Booking, error)
	GetProfile(ctx context.Context, token string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, token string, profile domain.Profile) (*domain.Profile, error)
}

// UserHandler serves the signed-in account views: past bookings and the
// profile. Every route needs a bearer token, which is passed through to the
// booking API untouched.
type UserHandler struct {
	gateway AccountGateway
	log     *logrus.Logger
}

func NewUserHandler(gateway AccountGateway, log *logrus.Logger) *UserHandler {
	return &UserHandler{gateway: gateway, log: log}
}

func (h *UserHandler) Register(router *gin.RouterGroup) {
	router.GET("/bookings", h.bookings)
	router.GET("/users/profile", h.profile)
	router.PUT("/users/profile", h.updateProfile)
}

func (h *UserHandler) bookings(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	bookings, err := h.gateway.UserBookings(c.Request.Context(), token)
	if err != nil {
		renderError(c, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *UserHandler) profile(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	profile, err := h.gateway.GetProfile(c.Request.Context(), token)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) updateProfile(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var profile domain.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.gateway.UpdateProfile(c.Request.Context(), token, profile)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
