package repository

import (
	"github.com/opencallout/callout-services-backend/internal/models"

	"gorm.io/gorm"
)

type CalloutRepository struct {
	db *gorm.DB
}

func NewCalloutRepository(db *gorm.DB) *CalloutRepository {
	return &CalloutRepository{db: db}
}

// Create creates a new callout
func (r *CalloutRepository) Create(callout *models.Callout) error {
	return r.db.Create(callout).Error
}

// GetByID retrieves a callout by ID
func (r *CalloutRepository) GetByID(id string) (*models.Callout, error) {
	var callout models.Callout
	if err := r.db.First(&callout, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &callout, nil
}

// GetAll retrieves callouts, optionally restricted to a status, newest first
func (r *CalloutRepository) GetAll(status models.CalloutStatus, limit, offset int) ([]*models.Callout, int64, error) {
	var callouts []*models.Callout
	query := r.db.Model(&models.Callout{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&callouts).Error
	return callouts, total, err
}

// UpdateMetadata merges metadata into the callout and saves it
func (r *CalloutRepository) UpdateMetadata(callout *models.Callout, metadata models.Metadata) error {
	callout.Metadata = callout.Metadata.Merge(metadata)
	return r.db.Model(callout).Update("metadata", callout.Metadata).Error
}

// UpdateStatus sets the callout-level status
func (r *CalloutRepository) UpdateStatus(id string, status models.CalloutStatus) error {
	return r.db.Model(&models.Callout{}).Where("id = ?", id).Update("status", status).Error
}

// Delete deletes a callout unless populations still reference it
func (r *CalloutRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.CalloutPopulation{}).Where("callout_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrCalloutReferenced
		}
		return tx.Delete(&models.Callout{}, "id = ?", id).Error
	})
}
