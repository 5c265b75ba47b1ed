package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opencallout/callout-services-backend/internal/database/repository"
	"github.com/opencallout/callout-services-backend/internal/models"
	"github.com/opencallout/callout-services-backend/internal/utils"
)

type CalloutHandler struct {
	calloutRepo *repository.CalloutRepository
}

func NewCalloutHandler(db *gorm.DB) *CalloutHandler {
	return &CalloutHandler{calloutRepo: repository.NewCalloutRepository(db)}
}

// CreateCallout godoc
// @Summary Create a new callout
// @Description Create a new callout campaign in initialized status
// @Tags callouts
// @Accept json
// @Produce json
// @Param request body models.CreateCalloutRequest true "Create callout request"
// @Success 201 {object} models.Callout
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/callouts [post]
func (h *CalloutHandler) CreateCallout(c *gin.Context) {
	var req models.CreateCalloutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	callout := &models.Callout{Metadata: req.Metadata}
	if err := h.calloutRepo.Create(callout); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create callout", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, callout)
}

// GetCallouts godoc
// @Summary List callouts
// @Description List callouts, optionally filtered by status
// @Tags callouts
// @Produce json
// @Param status query string false "Callout status"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/callouts [get]
func (h *CalloutHandler) GetCallouts(c *gin.Context) {
	page, pageSize := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("page_size"))
	status := models.CalloutStatus(c.Query("status"))

	callouts, total, err := h.calloutRepo.GetAll(status, pageSize, utils.CalculateOffset(page, pageSize))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list callouts", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"callouts":   callouts,
		"pagination": utils.CalculatePaginationInfo(int(total), page, pageSize),
	})
}

// GetCalloutByID godoc
// @Summary Get a callout
// @Tags callouts
// @Produce json
// @Param id path string true "Callout ID"
// @Success 200 {object} models.Callout
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/callouts/{id} [get]
func (h *CalloutHandler) GetCalloutByID(c *gin.Context) {
	callout, err := h.calloutRepo.GetByID(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Callout not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get callout", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, callout)
}

// UpdateCallout godoc
// @Summary Update callout metadata
// @Description Merge metadata into an existing callout and optionally change its status
// @Tags callouts
// @Accept json
// @Produce json
// @Param id path string true "Callout ID"
// @Param request body models.UpdateCalloutRequest true "Update callout request"
// @Success 200 {object} models.Callout
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/callouts/{id} [patch]
func (h *CalloutHandler) UpdateCallout(c *gin.Context) {
	var req models.UpdateCalloutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	callout, err := h.calloutRepo.GetByID(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Callout not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get callout", "details": err.Error()})
		return
	}

	if req.Status != "" {
		if !req.Status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown callout status", "details": string(req.Status)})
			return
		}
		if err := h.calloutRepo.UpdateStatus(callout.ID, req.Status); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update callout", "details": err.Error()})
			return
		}
		callout.Status = req.Status
	}

	if req.Metadata != nil {
		if err := h.calloutRepo.UpdateMetadata(callout, req.Metadata); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update callout", "details": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, callout)
}

// DeleteCallout godoc
// @Summary Delete a callout
// @Description Delete a callout; rejected while populations reference it
// @Tags callouts
// @Param id path string true "Callout ID"
// @Success 204
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/callouts/{id} [delete]
func (h *CalloutHandler) DeleteCallout(c *gin.Context) {
	err := h.calloutRepo.Delete(c.Param("id"))
	if errors.Is(err, repository.ErrCalloutReferenced) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete callout", "details": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
