package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencallout/callout-services-backend/internal/models"
)

func TestParticipationDuplicateContact(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCalloutParticipationRepository(db)

	callout := createTestCallout(t, db)
	contact := createTestContact(t, db, "855972345678", nil)
	createTestParticipation(t, db, callout, contact)

	duplicate := &models.CalloutParticipation{
		CalloutID: callout.ID,
		ContactID: contact.ID,
		Msisdn:    contact.Msisdn,
	}
	err := repo.Create(duplicate)
	assert.ErrorIs(t, err, ErrDuplicateParticipation)
}

func TestParticipationDuplicateMsisdn(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCalloutParticipationRepository(db)

	callout := createTestCallout(t, db)
	first := createTestContact(t, db, "855972345678", nil)
	createTestParticipation(t, db, callout, first)

	// A different contact carrying the same snapshotted msisdn is still a
	// duplicate within the callout.
	second := createTestContact(t, db, "855970000000", nil)
	duplicate := &models.CalloutParticipation{
		CalloutID: callout.ID,
		ContactID: second.ID,
		Msisdn:    first.Msisdn,
	}
	err := repo.Create(duplicate)
	assert.ErrorIs(t, err, ErrDuplicateParticipation)
}

func TestParticipationSameContactAcrossCallouts(t *testing.T) {
	db := setupTestDB(t)

	contact := createTestContact(t, db, "855972345678", nil)
	first := createTestCallout(t, db)
	second := createTestCallout(t, db)

	createTestParticipation(t, db, first, contact)
	createTestParticipation(t, db, second, contact)

	exists, err := NewCalloutParticipationRepository(db).ExistsForContact(second.ID, contact.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestParticipationDeleteRestrictedByPhoneCalls(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCalloutParticipationRepository(db)

	callout := createTestCallout(t, db)
	contact := createTestContact(t, db, "855972345678", nil)
	participation := createTestParticipation(t, db, callout, contact)

	call := &models.PhoneCall{
		CalloutParticipationID: &participation.ID,
		ContactID:              contact.ID,
		Msisdn:                 contact.Msisdn,
	}
	require.NoError(t, NewPhoneCallRepository(db).Create(call))

	err := repo.Delete(participation.ID)
	assert.ErrorIs(t, err, ErrParticipationReferenced)

	require.NoError(t, db.Delete(&models.PhoneCall{}, "id = ?", call.ID).Error)
	assert.NoError(t, repo.Delete(participation.ID))

	_, err = repo.GetByID(participation.ID)
	assert.Error(t, err)
}

func TestParticipationUpdateMetadata(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCalloutParticipationRepository(db)

	callout := createTestCallout(t, db)
	contact := createTestContact(t, db, "855972345678", nil)
	participation := createTestParticipation(t, db, callout, contact)

	require.NoError(t, repo.UpdateMetadata(participation, models.Metadata{"wave": "1"}))
	require.NoError(t, repo.UpdateMetadata(participation, models.Metadata{"priority": "high"}))

	stored, err := repo.GetByID(participation.ID)
	require.NoError(t, err)
	assert.Equal(t, "1", stored.Metadata["wave"])
	assert.Equal(t, "high", stored.Metadata["priority"])
}
