package repository

import (
	"time"

	"github.com/opencallout/callout-services-backend/internal/models"

	"gorm.io/gorm"
)

type CalloutPopulationRepository struct {
	db *gorm.DB
}

func NewCalloutPopulationRepository(db *gorm.DB) *CalloutPopulationRepository {
	return &CalloutPopulationRepository{db: db}
}

// Create creates a new population in preview status
func (r *CalloutPopulationRepository) Create(population *models.CalloutPopulation) error {
	return r.db.Create(population).Error
}

// GetByID retrieves a population by ID
func (r *CalloutPopulationRepository) GetByID(id string) (*models.CalloutPopulation, error) {
	var population models.CalloutPopulation
	if err := r.db.First(&population, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &population, nil
}

// GetByCallout retrieves all populations for a callout, newest first
func (r *CalloutPopulationRepository) GetByCallout(calloutID string) ([]*models.CalloutPopulation, error) {
	var populations []*models.CalloutPopulation
	err := r.db.Where("callout_id = ?", calloutID).Order("created_at DESC").Find(&populations).Error
	return populations, err
}

// TransitionStatus moves a population from one status to another with a
// conditional update. Transitions are serializable per population: of two
// concurrent attempts from the same source status, exactly one matches the
// row. Returns ErrStatusConflict when the row was not in the source status.
func (r *CalloutPopulationRepository) TransitionStatus(id string, from, to models.PopulationStatus) error {
	result := r.db.Model(&models.CalloutPopulation{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// Update saves filter params and metadata changes
func (r *CalloutPopulationRepository) Update(population *models.CalloutPopulation) error {
	return r.db.Model(population).Updates(map[string]interface{}{
		"contact_filter_params": population.ContactFilterParams,
		"metadata":              population.Metadata,
	}).Error
}

// FilterByContactFilterParams returns populations whose contact_filter_params
// structurally contain the given filter. This is the query surface the
// listing API layer builds on.
func (r *CalloutPopulationRepository) FilterByContactFilterParams(filter models.Metadata) ([]*models.CalloutPopulation, error) {
	var all []*models.CalloutPopulation
	if err := r.db.Order("created_at").Find(&all).Error; err != nil {
		return nil, err
	}

	var matched []*models.CalloutPopulation
	for _, population := range all {
		if population.ContactFilterParams.Contains(filter) {
			matched = append(matched, population)
		}
	}
	return matched, nil
}

// FindPopulatedBefore returns populated populations whose last transition is
// older than cutoff, i.e. stable enough to requeue without thrashing.
func (r *CalloutPopulationRepository) FindPopulatedBefore(cutoff time.Time) ([]*models.CalloutPopulation, error) {
	var populations []*models.CalloutPopulation
	err := r.db.
		Where("status = ? AND updated_at < ?", models.PopulationStatusPopulated, cutoff).
		Order("updated_at").
		Find(&populations).Error
	return populations, err
}

// Delete deletes a population unless participations still reference it
func (r *CalloutPopulationRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.CalloutParticipation{}).Where("callout_population_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrPopulationReferenced
		}
		return tx.Delete(&models.CalloutPopulation{}, "id = ?", id).Error
	})
}
