package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencallout/callout-services-backend/internal/models"
)

func TestPhoneCallUpdateOptimistic(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPhoneCallRepository(db)

	callout := createTestCallout(t, db)
	contact := createTestContact(t, db, "855972345678", nil)
	participation := createTestParticipation(t, db, callout, contact)

	call := &models.PhoneCall{
		CalloutParticipationID: &participation.ID,
		ContactID:              contact.ID,
		Msisdn:                 contact.Msisdn,
	}
	require.NoError(t, repo.Create(call))
	assert.Equal(t, 0, call.LockVersion)

	call.Status = models.CallStatusRemotelyQueued
	require.NoError(t, repo.UpdateOptimistic(call))
	assert.Equal(t, 1, call.LockVersion)

	stored, err := repo.GetByID(call.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusRemotelyQueued, stored.Status)
	assert.Equal(t, 1, stored.LockVersion)
}

func TestPhoneCallUpdateOptimisticStaleVersion(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPhoneCallRepository(db)

	contact := createTestContact(t, db, "855972345678", nil)
	call := &models.PhoneCall{ContactID: contact.ID, Msisdn: contact.Msisdn}
	require.NoError(t, repo.Create(call))

	// Two readers see version 0. The first write wins.
	winner, err := repo.GetByID(call.ID)
	require.NoError(t, err)
	loser, err := repo.GetByID(call.ID)
	require.NoError(t, err)

	winner.Status = models.CallStatusCompleted
	require.NoError(t, repo.UpdateOptimistic(winner))

	loser.Status = models.CallStatusFailed
	err = repo.UpdateOptimistic(loser)
	assert.ErrorIs(t, err, ErrStaleVersion)
	assert.Equal(t, 0, loser.LockVersion, "failed write leaves the read version intact")

	stored, err := repo.GetByID(call.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusCompleted, stored.Status)
}

func TestPhoneCallDuplicateRemoteCallID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPhoneCallRepository(db)

	contact := createTestContact(t, db, "855972345678", nil)

	first := &models.PhoneCall{ContactID: contact.ID, Msisdn: contact.Msisdn}
	require.NoError(t, repo.Create(first))
	remoteID := "CA0001"
	first.RemoteCallID = &remoteID
	require.NoError(t, repo.UpdateOptimistic(first))

	second := &models.PhoneCall{ContactID: contact.ID, Msisdn: contact.Msisdn}
	require.NoError(t, repo.Create(second))
	second.RemoteCallID = &remoteID
	err := repo.UpdateOptimistic(second)
	assert.ErrorIs(t, err, ErrDuplicateRemoteCallID)
}

func TestPhoneCallGetByRemoteCallID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPhoneCallRepository(db)

	contact := createTestContact(t, db, "855972345678", nil)
	call := &models.PhoneCall{ContactID: contact.ID, Msisdn: contact.Msisdn}
	require.NoError(t, repo.Create(call))
	remoteID := "CA0002"
	call.RemoteCallID = &remoteID
	require.NoError(t, repo.UpdateOptimistic(call))

	found, err := repo.GetByRemoteCallID("CA0002")
	require.NoError(t, err)
	assert.Equal(t, call.ID, found.ID)

	_, err = repo.GetByRemoteCallID("CA9999")
	assert.Error(t, err)
}

func TestPhoneCallFindRetryable(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPhoneCallRepository(db)

	contact := createTestContact(t, db, "855972345678", nil)
	now := time.Now()

	oldFailed := &models.PhoneCall{
		ContactID: contact.ID,
		Msisdn:    contact.Msisdn,
		Status:    models.CallStatusFailed,
		CreatedAt: now.Add(-301 * time.Second),
	}
	require.NoError(t, repo.Create(oldFailed))

	freshFailed := &models.PhoneCall{
		ContactID: contact.ID,
		Msisdn:    contact.Msisdn,
		Status:    models.CallStatusBusy,
		CreatedAt: now.Add(-10 * time.Second),
	}
	require.NoError(t, repo.Create(freshFailed))

	oldCompleted := &models.PhoneCall{
		ContactID: contact.ID,
		Msisdn:    contact.Msisdn,
		Status:    models.CallStatusCompleted,
		CreatedAt: now.Add(-301 * time.Second),
	}
	require.NoError(t, repo.Create(oldCompleted))

	calls, err := repo.FindRetryable(now.Add(-models.DefaultRecentlyCreatedWindow))
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, oldFailed.ID, calls[0].ID)
}

func TestPhoneCallHasNewerAttempt(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPhoneCallRepository(db)

	callout := createTestCallout(t, db)
	contact := createTestContact(t, db, "855972345678", nil)
	participation := createTestParticipation(t, db, callout, contact)
	now := time.Now()

	failed := &models.PhoneCall{
		CalloutParticipationID: &participation.ID,
		ContactID:              contact.ID,
		Msisdn:                 contact.Msisdn,
		Status:                 models.CallStatusFailed,
		CreatedAt:              now.Add(-10 * time.Minute),
	}
	require.NoError(t, repo.Create(failed))

	retried, err := repo.HasNewerAttempt(failed)
	require.NoError(t, err)
	assert.False(t, retried)

	retry := &models.PhoneCall{
		CalloutParticipationID: &participation.ID,
		ContactID:              contact.ID,
		Msisdn:                 contact.Msisdn,
		CreatedAt:              now.Add(-1 * time.Minute),
	}
	require.NoError(t, repo.Create(retry))

	retried, err = repo.HasNewerAttempt(failed)
	require.NoError(t, err)
	assert.True(t, retried)

	// Ad-hoc calls only consider other ad-hoc calls for the same contact
	adHoc := &models.PhoneCall{
		ContactID: contact.ID,
		Msisdn:    contact.Msisdn,
		Status:    models.CallStatusFailed,
		CreatedAt: now.Add(-5 * time.Minute),
	}
	require.NoError(t, repo.Create(adHoc))

	retried, err = repo.HasNewerAttempt(adHoc)
	require.NoError(t, err)
	assert.False(t, retried, "participation attempts do not mask ad-hoc retries")
}
