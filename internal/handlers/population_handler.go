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

type PopulationHandler struct {
	populationService *services.PopulationService
	populationRepo    *repository.CalloutPopulationRepository
}

func NewPopulationHandler(db *gorm.DB, notifier services.PopulationNotifier) *PopulationHandler {
	return &PopulationHandler{
		populationService: services.NewPopulationService(db, notifier),
		populationRepo:    repository.NewCalloutPopulationRepository(db),
	}
}

// CreatePopulation godoc
// @Summary Create a population
// @Description Create a population in preview status for a callout
// @Tags populations
// @Accept json
// @Produce json
// @Param id path string true "Callout ID"
// @Param request body models.CreatePopulationRequest true "Create population request"
// @Success 201 {object} models.CalloutPopulation
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/callouts/{id}/populations [post]
func (h *PopulationHandler) CreatePopulation(c *gin.Context) {
	var req models.CreatePopulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	population, err := h.populationService.CreatePopulation(c.Param("id"), &req)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Callout not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create population", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, population)
}

// GetPopulationsByCallout godoc
// @Summary List populations for a callout
// @Tags populations
// @Produce json
// @Param id path string true "Callout ID"
// @Success 200 {array} models.CalloutPopulation
// @Router /api/v1/callouts/{id}/populations [get]
func (h *PopulationHandler) GetPopulationsByCallout(c *gin.Context) {
	populations, err := h.populationRepo.GetByCallout(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list populations", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, populations)
}

// FilterPopulations godoc
// @Summary List populations matching a structural filter
// @Description Returns populations whose contact_filter_params structurally contain the given filter JSON
// @Tags populations
// @Produce json
// @Param filter query string false "Filter JSON"
// @Success 200 {array} models.CalloutPopulation
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/populations [get]
func (h *PopulationHandler) FilterPopulations(c *gin.Context) {
	filter, err := models.ParseMetadata(c.Query("filter"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter", "details": err.Error()})
		return
	}

	populations, err := h.populationRepo.FilterByContactFilterParams(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to filter populations", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, populations)
}

// GetPopulationByID godoc
// @Summary Get a population
// @Tags populations
// @Produce json
// @Param id path string true "Population ID"
// @Success 200 {object} models.CalloutPopulation
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/populations/{id} [get]
func (h *PopulationHandler) GetPopulationByID(c *gin.Context) {
	population, err := h.populationRepo.GetByID(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Population not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get population", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, population)
}

// PreviewPopulation godoc
// @Summary Preview the contacts a population would resolve
// @Description Evaluates the population's filter without materializing participations
// @Tags populations
// @Produce json
// @Param id path string true "Population ID"
// @Success 200 {array} models.Contact
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/populations/{id}/preview [get]
func (h *PopulationHandler) PreviewPopulation(c *gin.Context) {
	population, err := h.populationRepo.GetByID(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Population not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get population", "details": err.Error()})
		return
	}

	contacts, err := h.populationService.ResolveContacts(population)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve contacts", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, contacts)
}

// PopulationEventRequest requests a state machine transition
type PopulationEventRequest struct {
	Event models.PopulationEvent `json:"event" binding:"required"`
}

// CreatePopulationEvent godoc
// @Summary Fire a population transition
// @Description Apply queue, start, finish or requeue to a population
// @Tags populations
// @Accept json
// @Produce json
// @Param id path string true "Population ID"
// @Param request body PopulationEventRequest true "Event request"
// @Success 200 {object} models.CalloutPopulation
// @Failure 404 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/populations/{id}/events [post]
func (h *PopulationHandler) CreatePopulationEvent(c *gin.Context) {
	var req PopulationEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	populationID := c.Param("id")
	var population *models.CalloutPopulation
	var err error
	switch req.Event {
	case models.PopulationEventQueue:
		population, err = h.populationService.Queue(populationID)
	case models.PopulationEventStart:
		population, err = h.populationService.Start(populationID)
	case models.PopulationEventFinish:
		population, err = h.populationService.Finish(populationID)
	case models.PopulationEventRequeue:
		population, err = h.populationService.Requeue(populationID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown event", "details": string(req.Event)})
		return
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Population not found"})
		return
	}
	if errors.Is(err, services.ErrInvalidTransition) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply event", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, population)
}

// UpdatePopulation godoc
// @Summary Update a population
// @Description Update filter params and metadata on a population
// @Tags populations
// @Accept json
// @Produce json
// @Param id path string true "Population ID"
// @Param request body models.UpdatePopulationRequest true "Update population request"
// @Success 200 {object} models.CalloutPopulation
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/populations/{id} [patch]
func (h *PopulationHandler) UpdatePopulation(c *gin.Context) {
	var req models.UpdatePopulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	population, err := h.populationRepo.GetByID(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Population not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get population", "details": err.Error()})
		return
	}

	if req.ContactFilterParams != nil {
		population.ContactFilterParams = req.ContactFilterParams
	}
	if req.Metadata != nil {
		population.Metadata = population.Metadata.Merge(req.Metadata)
	}
	if err := h.populationRepo.Update(population); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update population", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, population)
}

// DeletePopulation godoc
// @Summary Delete a population
// @Description Delete a population; rejected while participations reference it
// @Tags populations
// @Param id path string true "Population ID"
// @Success 204
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/populations/{id} [delete]
func (h *PopulationHandler) DeletePopulation(c *gin.Context) {
	err := h.populationRepo.Delete(c.Param("id"))
	if errors.Is(err, repository.ErrPopulationReferenced) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete population", "details": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
