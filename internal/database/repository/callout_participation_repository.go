package repository

import (
	"errors"

	"github.com/opencallout/callout-services-backend/internal/models"

	"gorm.io/gorm"
)

type CalloutParticipationRepository struct {
	db *gorm.DB
}

func NewCalloutParticipationRepository(db *gorm.DB) *CalloutParticipationRepository {
	return &CalloutParticipationRepository{db: db}
}

// Create inserts a participation. The (callout, contact) and
// (callout, msisdn) unique indexes are enforced by the database, so two
// concurrent inserts for the same pair cannot both succeed.
func (r *CalloutParticipationRepository) Create(participation *models.CalloutParticipation) error {
	err := r.db.Create(participation).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateParticipation
	}
	return err
}

// GetByID retrieves a participation by ID
func (r *CalloutParticipationRepository) GetByID(id string) (*models.CalloutParticipation, error) {
	var participation models.CalloutParticipation
	if err := r.db.First(&participation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &participation, nil
}

// ExistsForContact reports whether the contact already participates in the callout
func (r *CalloutParticipationRepository) ExistsForContact(calloutID, contactID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.CalloutParticipation{}).
		Where("callout_id = ? AND contact_id = ?", calloutID, contactID).
		Count(&count).Error
	return count > 0, err
}

// GetByCallout retrieves all participations for a callout
func (r *CalloutParticipationRepository) GetByCallout(calloutID string) ([]*models.CalloutParticipation, error) {
	var participations []*models.CalloutParticipation
	err := r.db.Where("callout_id = ?", calloutID).Order("created_at").Find(&participations).Error
	return participations, err
}

// GetByPopulation retrieves the participations a population run produced
func (r *CalloutParticipationRepository) GetByPopulation(populationID string) ([]*models.CalloutParticipation, error) {
	var participations []*models.CalloutParticipation
	err := r.db.Where("callout_population_id = ?", populationID).Order("created_at").Find(&participations).Error
	return participations, err
}

// UpdateMetadata merges metadata into the participation. Everything else is
// immutable after creation.
func (r *CalloutParticipationRepository) UpdateMetadata(participation *models.CalloutParticipation, metadata models.Metadata) error {
	participation.Metadata = participation.Metadata.Merge(metadata)
	return r.db.Model(participation).Update("metadata", participation.Metadata).Error
}

// Delete deletes a participation unless phone calls still reference it.
// Restrict-on-delete: the check and the delete share a transaction.
func (r *CalloutParticipationRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.PhoneCall{}).Where("callout_participation_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrParticipationReferenced
		}
		return tx.Delete(&models.CalloutParticipation{}, "id = ?", id).Error
	})
}
