package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thena-travel/flightdesk/internal/domain"
	"github.com/thena-travel/flightdesk/internal/workflow"
)

const genericFailureMessage = "Failed to create booking. Please try again."

// renderError maps the error taxonomy onto HTTP responses. Validation errors
// keep their field keys so the client can render each message next to its
// input; upstream messages are surfaced verbatim when present.
func renderError(c *gin.Context, err error) {
	var validationErrs domain.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": validationErrs})
		return
	}

	if errors.Is(err, workflow.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":    "No booking in progress. Please start the booking process again.",
			"redirect": "search",
		})
		return
	}

	var stageErr *workflow.StageError
	if errors.As(err, &stageErr) {
		c.JSON(http.StatusConflict, gin.H{"error": stageErr.Error()})
		return
	}

	var upstreamErr *domain.UpstreamError
	if errors.As(err, &upstreamErr) {
		message := upstreamErr.Message
		if message == "" {
			message = genericFailureMessage
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": message})
		return
	}

	var transportErr *domain.TransportError
	if errors.As(err, &transportErr) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service is temporarily unreachable. Please try again."})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
