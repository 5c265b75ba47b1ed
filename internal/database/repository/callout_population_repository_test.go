package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/opencallout/callout-services-backend/internal/models"
)

func createTestPopulation(t *testing.T, db *gorm.DB, callout *models.Callout, filter models.Metadata) *models.CalloutPopulation {
	population := &models.CalloutPopulation{
		CalloutID:           callout.ID,
		ContactFilterParams: filter,
	}
	require.NoError(t, NewCalloutPopulationRepository(db).Create(population))
	return population
}

func TestPopulationTransitionStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCalloutPopulationRepository(db)

	callout := createTestCallout(t, db)
	population := createTestPopulation(t, db, callout, nil)
	assert.Equal(t, models.PopulationStatusPreview, population.Status)

	require.NoError(t, repo.TransitionStatus(population.ID, models.PopulationStatusPreview, models.PopulationStatusQueued))

	stored, err := repo.GetByID(population.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PopulationStatusQueued, stored.Status)

	// A second attempt from the stale source status loses
	err = repo.TransitionStatus(population.ID, models.PopulationStatusPreview, models.PopulationStatusQueued)
	assert.ErrorIs(t, err, ErrStatusConflict)
}

func TestPopulationFilterByContactFilterParams(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCalloutPopulationRepository(db)

	callout := createTestCallout(t, db)
	south := createTestPopulation(t, db, callout, models.Metadata{
		"metadata": map[string]interface{}{"region": "south"},
	})
	createTestPopulation(t, db, callout, models.Metadata{
		"metadata": map[string]interface{}{"region": "north"},
	})

	matched, err := repo.FilterByContactFilterParams(models.Metadata{
		"metadata": map[string]interface{}{"region": "south"},
	})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, south.ID, matched[0].ID)

	all, err := repo.FilterByContactFilterParams(models.Metadata{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPopulationFindPopulatedBefore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCalloutPopulationRepository(db)

	callout := createTestCallout(t, db)
	now := time.Now()

	stale := createTestPopulation(t, db, callout, nil)
	require.NoError(t, db.Model(stale).UpdateColumns(map[string]interface{}{
		"status":     models.PopulationStatusPopulated,
		"updated_at": now.Add(-2 * time.Hour),
	}).Error)

	fresh := createTestPopulation(t, db, callout, nil)
	require.NoError(t, db.Model(fresh).UpdateColumns(map[string]interface{}{
		"status":     models.PopulationStatusPopulated,
		"updated_at": now.Add(-5 * time.Minute),
	}).Error)

	populations, err := repo.FindPopulatedBefore(now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, populations, 1)
	assert.Equal(t, stale.ID, populations[0].ID)
}

func TestPopulationDeleteRestrictedByParticipations(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCalloutPopulationRepository(db)

	callout := createTestCallout(t, db)
	contact := createTestContact(t, db, "855972345678", nil)
	population := createTestPopulation(t, db, callout, nil)

	participation := &models.CalloutParticipation{
		CalloutID:           callout.ID,
		ContactID:           contact.ID,
		CalloutPopulationID: &population.ID,
		Msisdn:              contact.Msisdn,
	}
	require.NoError(t, NewCalloutParticipationRepository(db).Create(participation))

	err := repo.Delete(population.ID)
	assert.ErrorIs(t, err, ErrPopulationReferenced)

	require.NoError(t, db.Delete(&models.CalloutParticipation{}, "id = ?", participation.ID).Error)
	assert.NoError(t, repo.Delete(population.ID))
}
