package repository

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	glog "gorm.io/gorm/logger"

	"github.com/opencallout/callout-services-backend/internal/models"
)

// setupTestDB creates an in-memory database with the full schema. The
// TranslateError option matches production so unique-violation handling
// behaves the same way under sqlite as under Postgres.
func setupTestDB(t *testing.T) *gorm.DB {
	silentLogger := glog.New(
		log.New(io.Discard, "", log.LstdFlags),
		glog.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  glog.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         silentLogger,
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Callout{},
		&models.Contact{},
		&models.CalloutPopulation{},
		&models.CalloutParticipation{},
		&models.PhoneCall{},
		&models.RemoteCallEvent{},
	))
	return db
}

func createTestCallout(t *testing.T, db *gorm.DB) *models.Callout {
	callout := &models.Callout{Metadata: models.Metadata{"name": "test callout"}}
	require.NoError(t, NewCalloutRepository(db).Create(callout))
	return callout
}

func createTestContact(t *testing.T, db *gorm.DB, msisdn string, metadata models.Metadata) *models.Contact {
	contact := &models.Contact{Msisdn: msisdn, Metadata: metadata}
	require.NoError(t, NewContactRepository(db).Create(contact))
	return contact
}

func createTestParticipation(t *testing.T, db *gorm.DB, callout *models.Callout, contact *models.Contact) *models.CalloutParticipation {
	participation := &models.CalloutParticipation{
		CalloutID: callout.ID,
		ContactID: contact.ID,
		Msisdn:    contact.Msisdn,
	}
	require.NoError(t, NewCalloutParticipationRepository(db).Create(participation))
	return participation
}
