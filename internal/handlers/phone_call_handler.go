package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opencallout/callout-services-backend/internal/database/repository"
	"github.com/opencallout/callout-services-backend/internal/models"
	"github.com/opencallout/callout-services-backend/internal/services"
)

type PhoneCallHandler struct {
	dispatcher    *services.DispatcherService
	phoneCallRepo *repository.PhoneCallRepository
	eventRepo     *repository.RemoteCallEventRepository
}

func NewPhoneCallHandler(db *gorm.DB, dispatcher *services.DispatcherService) *PhoneCallHandler {
	return &PhoneCallHandler{
		dispatcher:    dispatcher,
		phoneCallRepo: repository.NewPhoneCallRepository(db),
		eventRepo:     repository.NewRemoteCallEventRepository(db),
	}
}

// DispatchParticipationCall godoc
// @Summary Dial a participation
// @Description Creates a fresh phone call for the participation and enqueues it at the provider
// @Tags phone_calls
// @Accept json
// @Produce json
// @Param id path string true "Participation ID"
// @Param request body models.CreatePhoneCallRequest false "Dispatch request"
// @Success 201 {object} models.PhoneCall
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/participations/{id}/phone_calls [post]
func (h *PhoneCallHandler) DispatchParticipationCall(c *gin.Context) {
	// Body is optional; it only carries metadata.
	var req models.CreatePhoneCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = models.CreatePhoneCallRequest{}
	}

	call, err := h.dispatcher.DispatchParticipation(c.Request.Context(), c.Param("id"), req.Metadata)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Participation not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to dispatch call", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, call)
}

// DispatchContactCall godoc
// @Summary Dial a contact ad hoc
// @Description Creates a fresh phone call for the contact without a participation
// @Tags phone_calls
// @Accept json
// @Produce json
// @Param id path string true "Contact ID"
// @Param request body models.CreatePhoneCallRequest false "Dispatch request"
// @Success 201 {object} models.PhoneCall
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/contacts/{id}/phone_calls [post]
func (h *PhoneCallHandler) DispatchContactCall(c *gin.Context) {
	var req models.CreatePhoneCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = models.CreatePhoneCallRequest{}
	}

	call, err := h.dispatcher.DispatchAdHoc(c.Request.Context(), c.Param("id"), req.Metadata)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to dispatch call", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, call)
}

// GetCallsByParticipation godoc
// @Summary List the call attempts for a participation
// @Tags phone_calls
// @Produce json
// @Param id path string true "Participation ID"
// @Success 200 {array} models.PhoneCall
// @Router /api/v1/participations/{id}/phone_calls [get]
func (h *PhoneCallHandler) GetCallsByParticipation(c *gin.Context) {
	calls, err := h.phoneCallRepo.GetByParticipation(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list phone calls", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, calls)
}

// GetPhoneCallByID godoc
// @Summary Get a phone call
// @Tags phone_calls
// @Produce json
// @Param id path string true "Phone call ID"
// @Success 200 {object} models.PhoneCall
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/phone_calls/{id} [get]
func (h *PhoneCallHandler) GetPhoneCallByID(c *gin.Context) {
	call, err := h.phoneCallRepo.GetByID(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Phone call not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get phone call", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, call)
}

// GetPhoneCallEvents godoc
// @Summary List the remote event log for a phone call
// @Tags phone_calls
// @Produce json
// @Param id path string true "Phone call ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/phone_calls/{id}/events [get]
func (h *PhoneCallHandler) GetPhoneCallEvents(c *gin.Context) {
	phoneCallID := c.Param("id")
	events, err := h.eventRepo.GetByPhoneCall(phoneCallID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list events", "details": err.Error()})
		return
	}
	total, err := h.eventRepo.CountByPhoneCall(phoneCallID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count events", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  total,
	})
}
