package repository

import (
	"github.com/opencallout/callout-services-backend/internal/models"

	"gorm.io/gorm"
)

type RemoteCallEventRepository struct {
	db *gorm.DB
}

func NewRemoteCallEventRepository(db *gorm.DB) *RemoteCallEventRepository {
	return &RemoteCallEventRepository{db: db}
}

// Create appends an event to the log. Events are never updated or deleted.
func (r *RemoteCallEventRepository) Create(event *models.RemoteCallEvent) error {
	return r.db.Create(event).Error
}

// GetByPhoneCall retrieves the event log for a call in ingestion order
func (r *RemoteCallEventRepository) GetByPhoneCall(phoneCallID string) ([]*models.RemoteCallEvent, error) {
	var events []*models.RemoteCallEvent
	err := r.db.Where("phone_call_id = ?", phoneCallID).Order("created_at, id").Find(&events).Error
	return events, err
}

// CountByPhoneCall counts the events recorded for a call
func (r *RemoteCallEventRepository) CountByPhoneCall(phoneCallID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.RemoteCallEvent{}).Where("phone_call_id = ?", phoneCallID).Count(&count).Error
	return count, err
}
