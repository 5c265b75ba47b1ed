package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opencallout/callout-services-backend/internal/models"
	"github.com/opencallout/callout-services-backend/internal/services"
)

// remoteEventIngestor is the slice of RemoteEventService the handler needs.
type remoteEventIngestor interface {
	Ingest(remoteCallID string, details models.Metadata) (*models.PhoneCall, *models.RemoteCallEvent, error)
}

// RemoteEventHandler receives provider status callbacks. Twilio-compatible
// providers POST application/x-www-form-urlencoded; the whole form is stored
// verbatim as the event payload regardless of schema, with the handful of
// fields the ingestor understands normalized alongside.
type RemoteEventHandler struct {
	eventService remoteEventIngestor
}

func NewRemoteEventHandler(db *gorm.DB) *RemoteEventHandler {
	return &RemoteEventHandler{eventService: services.NewRemoteEventService(db)}
}

// HandleCallStatus godoc
// @Summary Provider call status webhook
// @Description Ingests one provider status event for the call named by CallSid
// @Tags provider
// @Accept x-www-form-urlencoded
// @Produce json
// @Success 201 {object} models.RemoteCallEvent
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/provider/call_status [post]
func (h *RemoteEventHandler) HandleCallStatus(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form body", "details": err.Error()})
		return
	}

	details := models.Metadata{}
	for key := range c.Request.PostForm {
		details[key] = c.Request.PostFormValue(key)
	}

	remoteCallID := c.Request.PostFormValue("CallSid")
	if status := c.Request.PostFormValue("CallStatus"); status != "" {
		details["status"] = status
	}
	if direction := c.Request.PostFormValue("Direction"); direction != "" {
		details["direction"] = direction
	}
	if message := c.Request.PostFormValue("ErrorMessage"); message != "" {
		details["error_message"] = message
	}

	call, event, err := h.eventService.Ingest(remoteCallID, details)
	if errors.Is(err, services.ErrUnknownCall) || errors.Is(err, gorm.ErrRecordNotFound) {
		// Not dropped silently: the provider's redelivery policy decides
		// whether to try again once the dispatch path has caught up.
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, services.ErrConcurrencyExhausted) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest event", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"event":       event,
		"call_status": call.Status,
	})
}
