package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opencallout/callout-services-backend/internal/database/repository"
	"github.com/opencallout/callout-services-backend/internal/models"
)

type ParticipationHandler struct {
	participationRepo *repository.CalloutParticipationRepository
	contactRepo       *repository.ContactRepository
	calloutRepo       *repository.CalloutRepository
}

func NewParticipationHandler(db *gorm.DB) *ParticipationHandler {
	return &ParticipationHandler{
		participationRepo: repository.NewCalloutParticipationRepository(db),
		contactRepo:       repository.NewContactRepository(db),
		calloutRepo:       repository.NewCalloutRepository(db),
	}
}

// CreateParticipation godoc
// @Summary Add a contact to a callout manually
// @Description Creates a participation bypassing population resolution
// @Tags participations
// @Accept json
// @Produce json
// @Param id path string true "Callout ID"
// @Param request body models.CreateParticipationRequest true "Create participation request"
// @Success 201 {object} models.CalloutParticipation
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/callouts/{id}/participations [post]
func (h *ParticipationHandler) CreateParticipation(c *gin.Context) {
	var req models.CreateParticipationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	calloutID := c.Param("id")
	if _, err := h.calloutRepo.GetByID(calloutID); errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Callout not found"})
		return
	}

	contact, err := h.contactRepo.GetByID(req.ContactID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get contact", "details": err.Error()})
		return
	}

	participation := &models.CalloutParticipation{
		CalloutID: calloutID,
		ContactID: contact.ID,
		Msisdn:    contact.Msisdn,
		Metadata:  req.Metadata,
	}
	err = h.participationRepo.Create(participation)
	if errors.Is(err, repository.ErrDuplicateParticipation) {
		c.JSON(http.StatusConflict, gin.H{
			"error":       err.Error(),
			"unique_keys": []string{"(callout_id, contact_id)", "(callout_id, msisdn)"},
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create participation", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, participation)
}

// GetParticipationsByCallout godoc
// @Summary List participations for a callout
// @Tags participations
// @Produce json
// @Param id path string true "Callout ID"
// @Success 200 {array} models.CalloutParticipation
// @Router /api/v1/callouts/{id}/participations [get]
func (h *ParticipationHandler) GetParticipationsByCallout(c *gin.Context) {
	participations, err := h.participationRepo.GetByCallout(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list participations", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, participations)
}

// GetParticipationByID godoc
// @Summary Get a participation
// @Tags participations
// @Produce json
// @Param id path string true "Participation ID"
// @Success 200 {object} models.CalloutParticipation
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/participations/{id} [get]
func (h *ParticipationHandler) GetParticipationByID(c *gin.Context) {
	participation, err := h.participationRepo.GetByID(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Participation not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get participation", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, participation)
}

// DeleteParticipation godoc
// @Summary Delete a participation
// @Description Delete a participation; rejected while phone calls reference it
// @Tags participations
// @Param id path string true "Participation ID"
// @Success 204
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/participations/{id} [delete]
func (h *ParticipationHandler) DeleteParticipation(c *gin.Context) {
	err := h.participationRepo.Delete(c.Param("id"))
	if errors.Is(err, repository.ErrParticipationReferenced) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete participation", "details": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
