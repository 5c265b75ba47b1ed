package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencallout/callout-services-backend/internal/models"
)

func TestContactUpsertByMsisdn(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContactRepository(db)

	created, err := repo.UpsertByMsisdn("855972345678", models.Metadata{"gender": "f"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	// Second upsert merges metadata into the same row
	updated, err := repo.UpsertByMsisdn("855972345678", models.Metadata{"language": "km"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "f", updated.Metadata["gender"])
	assert.Equal(t, "km", updated.Metadata["language"])

	var count int64
	require.NoError(t, db.Model(&models.Contact{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestContactFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContactRepository(db)

	south := createTestContact(t, db, "855972222222", models.Metadata{
		"location": map[string]interface{}{"country": "kh", "region": "south"},
	})
	createTestContact(t, db, "855973333333", models.Metadata{
		"location": map[string]interface{}{"country": "kh", "region": "north"},
	})
	createTestContact(t, db, "855974444444", nil)

	matched, err := repo.Filter(models.Metadata{
		"metadata": map[string]interface{}{
			"location": map[string]interface{}{"region": "south"},
		},
	})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, south.ID, matched[0].ID)

	// An empty filter matches the whole universe
	all, err := repo.Filter(models.Metadata{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestContactDeleteRestrictedByParticipations(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContactRepository(db)

	callout := createTestCallout(t, db)
	contact := createTestContact(t, db, "855972345678", nil)
	participation := createTestParticipation(t, db, callout, contact)

	err := repo.Delete(contact.ID)
	assert.ErrorIs(t, err, ErrContactReferenced)

	require.NoError(t, db.Delete(&models.CalloutParticipation{}, "id = ?", participation.ID).Error)
	assert.NoError(t, repo.Delete(contact.ID))
}
