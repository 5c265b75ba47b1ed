package repository

import (
	"errors"
	"time"

	"github.com/opencallout/callout-services-backend/internal/models"

	"gorm.io/gorm"
)

// phoneCallMutableColumns are the columns an optimistic update writes.
// Everything else on a phone call is immutable after creation.
var phoneCallMutableColumns = []string{
	"status",
	"remote_call_id",
	"remote_status",
	"remote_direction",
	"remote_error_message",
	"metadata",
	"remote_response",
	"remote_request_params",
	"remote_queue_response",
	"remotely_queued_at",
	"lock_version",
	"updated_at",
}

type PhoneCallRepository struct {
	db *gorm.DB
}

func NewPhoneCallRepository(db *gorm.DB) *PhoneCallRepository {
	return &PhoneCallRepository{db: db}
}

// Create creates a new phone call
func (r *PhoneCallRepository) Create(call *models.PhoneCall) error {
	return r.db.Create(call).Error
}

// GetByID retrieves a phone call by ID
func (r *PhoneCallRepository) GetByID(id string) (*models.PhoneCall, error) {
	var call models.PhoneCall
	if err := r.db.First(&call, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &call, nil
}

// GetByRemoteCallID retrieves a phone call by the provider-assigned call identifier
func (r *PhoneCallRepository) GetByRemoteCallID(remoteCallID string) (*models.PhoneCall, error) {
	var call models.PhoneCall
	if err := r.db.First(&call, "remote_call_id = ?", remoteCallID).Error; err != nil {
		return nil, err
	}
	return &call, nil
}

// GetByParticipation retrieves the calls dialed for a participation
func (r *PhoneCallRepository) GetByParticipation(participationID string) ([]*models.PhoneCall, error) {
	var calls []*models.PhoneCall
	err := r.db.Where("callout_participation_id = ?", participationID).Order("created_at").Find(&calls).Error
	return calls, err
}

// UpdateOptimistic writes the call's mutable columns with a conditional
// update on the lock version the caller read. On success the call's
// LockVersion is advanced in place. Returns ErrStaleVersion when another
// writer got there first; the caller must re-read and reapply its change.
func (r *PhoneCallRepository) UpdateOptimistic(call *models.PhoneCall) error {
	readVersion := call.LockVersion
	call.LockVersion = readVersion + 1
	call.UpdatedAt = time.Now().UTC()

	result := r.db.Model(&models.PhoneCall{}).
		Where("id = ? AND lock_version = ?", call.ID, readVersion).
		Select(phoneCallMutableColumns).
		Updates(call)
	if result.Error != nil {
		call.LockVersion = readVersion
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateRemoteCallID
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		call.LockVersion = readVersion
		return ErrStaleVersion
	}
	return nil
}

// FindRetryable returns calls in a retryable terminal status created before
// cutoff. Calls younger than the cutoff are left alone so the provider has
// time to report a result.
func (r *PhoneCallRepository) FindRetryable(cutoff time.Time) ([]*models.PhoneCall, error) {
	retryable := []models.CallStatus{
		models.CallStatusErrored,
		models.CallStatusFailed,
		models.CallStatusBusy,
		models.CallStatusNotAnswered,
	}

	var calls []*models.PhoneCall
	err := r.db.
		Where("status IN ? AND created_at <= ?", retryable, cutoff).
		Order("created_at").
		Find(&calls).Error
	return calls, err
}

// HasNewerAttempt reports whether a fresh call was already dialed for the
// same participation (or same ad-hoc contact) after this one. Used to keep
// the retry sweep from re-dispatching a failure that was already retried.
func (r *PhoneCallRepository) HasNewerAttempt(call *models.PhoneCall) (bool, error) {
	query := r.db.Model(&models.PhoneCall{}).
		Where("created_at > ? AND id <> ?", call.CreatedAt, call.ID)
	if call.CalloutParticipationID != nil {
		query = query.Where("callout_participation_id = ?", *call.CalloutParticipationID)
	} else {
		query = query.Where("contact_id = ? AND callout_participation_id IS NULL", call.ContactID)
	}

	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}
