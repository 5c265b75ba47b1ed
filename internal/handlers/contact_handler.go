package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/opencallout/callout-services-backend/internal/database/repository"
	"github.com/opencallout/callout-services-backend/internal/models"
	"github.com/opencallout/callout-services-backend/internal/services/excel"
)

type ContactHandler struct {
	contactRepo   *repository.ContactRepository
	importService *excel.Service
}

func NewContactHandler(db *gorm.DB) *ContactHandler {
	contactRepo := repository.NewContactRepository(db)
	return &ContactHandler{
		contactRepo:   contactRepo,
		importService: excel.NewService(contactRepo),
	}
}

// CreateContact godoc
// @Summary Create or update a contact
// @Description Upserts a contact by msisdn; metadata is merged on conflict
// @Tags contacts
// @Accept json
// @Produce json
// @Param request body models.CreateContactRequest true "Create contact request"
// @Success 201 {object} models.Contact
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/contacts [post]
func (h *ContactHandler) CreateContact(c *gin.Context) {
	var req models.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	contact, err := h.contactRepo.UpsertByMsisdn(req.Msisdn, req.Metadata)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upsert contact", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, contact)
}

// FilterContacts godoc
// @Summary List contacts matching a structural filter
// @Description Returns contacts whose attributes and metadata match the filter JSON
// @Tags contacts
// @Produce json
// @Param filter query string false "Filter JSON"
// @Success 200 {array} models.Contact
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/contacts [get]
func (h *ContactHandler) FilterContacts(c *gin.Context) {
	filter, err := models.ParseMetadata(c.Query("filter"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter", "details": err.Error()})
		return
	}

	contacts, err := h.contactRepo.Filter(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to filter contacts", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, contacts)
}

// GetContactByID godoc
// @Summary Get a contact
// @Tags contacts
// @Produce json
// @Param id path string true "Contact ID"
// @Success 200 {object} models.Contact
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/contacts/{id} [get]
func (h *ContactHandler) GetContactByID(c *gin.Context) {
	contact, err := h.contactRepo.GetByID(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get contact", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, contact)
}

// UpdateContact godoc
// @Summary Update contact metadata
// @Description Merge metadata into an existing contact; msisdn is immutable
// @Tags contacts
// @Accept json
// @Produce json
// @Param id path string true "Contact ID"
// @Param request body models.UpdateContactRequest true "Update contact request"
// @Success 200 {object} models.Contact
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/contacts/{id} [patch]
func (h *ContactHandler) UpdateContact(c *gin.Context) {
	var req models.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	contact, err := h.contactRepo.GetByID(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get contact", "details": err.Error()})
		return
	}

	updated, err := h.contactRepo.UpsertByMsisdn(contact.Msisdn, req.Metadata)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update contact", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteContact godoc
// @Summary Delete a contact
// @Description Delete a contact; rejected while participations reference it
// @Tags contacts
// @Param id path string true "Contact ID"
// @Success 204
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/contacts/{id} [delete]
func (h *ContactHandler) DeleteContact(c *gin.Context) {
	err := h.contactRepo.Delete(c.Param("id"))
	if errors.Is(err, repository.ErrContactReferenced) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete contact", "details": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// ImportContacts godoc
// @Summary Import contacts from a spreadsheet
// @Description Upload an xlsx file with an msisdn column; other columns become metadata
// @Tags contacts
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx file"
// @Success 200 {object} excel.ImportResult
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/contacts/import [post]
func (h *ContactHandler) ImportContacts(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file upload", "details": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open upload", "details": err.Error()})
		return
	}
	defer file.Close()

	result, err := h.importService.ImportContacts(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Import failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
