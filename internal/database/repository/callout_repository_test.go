package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencallout/callout-services-backend/internal/models"
)

func TestCalloutCreateDefaultsToInitialized(t *testing.T) {
	db := setupTestDB(t)

	callout := createTestCallout(t, db)
	assert.NotEmpty(t, callout.ID)
	assert.Equal(t, models.CalloutStatusInitialized, callout.Status)
}

func TestCalloutGetAllByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCalloutRepository(db)

	running := createTestCallout(t, db)
	require.NoError(t, repo.UpdateStatus(running.ID, models.CalloutStatusRunning))
	createTestCallout(t, db)
	createTestCallout(t, db)

	callouts, total, err := repo.GetAll(models.CalloutStatusRunning, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, callouts, 1)
	assert.Equal(t, running.ID, callouts[0].ID)

	all, total, err := repo.GetAll("", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 2)
}

func TestCalloutUpdateMetadataMerges(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCalloutRepository(db)

	callout := createTestCallout(t, db)
	require.NoError(t, repo.UpdateMetadata(callout, models.Metadata{"purpose": "flood warning"}))

	stored, err := repo.GetByID(callout.ID)
	require.NoError(t, err)
	assert.Equal(t, "test callout", stored.Metadata["name"])
	assert.Equal(t, "flood warning", stored.Metadata["purpose"])
}

func TestCalloutDeleteRestrictedByPopulations(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCalloutRepository(db)

	callout := createTestCallout(t, db)
	population := createTestPopulation(t, db, callout, nil)

	err := repo.Delete(callout.ID)
	assert.ErrorIs(t, err, ErrCalloutReferenced)

	require.NoError(t, db.Delete(&models.CalloutPopulation{}, "id = ?", population.ID).Error)
	assert.NoError(t, repo.Delete(callout.ID))
}
