package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	glog "gorm.io/gorm/logger"

	"github.com/opencallout/callout-services-backend/internal/database/repository"
	"github.com/opencallout/callout-services-backend/internal/models"
	"github.com/opencallout/callout-services-backend/internal/services/provider"
)

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
	require.NoError(t, repository.NewCalloutRepository(db).Create(callout))
	return callout
}

func createTestContact(t *testing.T, db *gorm.DB, msisdn string, metadata models.Metadata) *models.Contact {
	contact := &models.Contact{Msisdn: msisdn, Metadata: metadata}
	require.NoError(t, repository.NewContactRepository(db).Create(contact))
	return contact
}

func createTestParticipation(t *testing.T, db *gorm.DB, callout *models.Callout, contact *models.Contact) *models.CalloutParticipation {
	participation := &models.CalloutParticipation{
		CalloutID: callout.ID,
		ContactID: contact.ID,
		Msisdn:    contact.Msisdn,
	}
	require.NoError(t, repository.NewCalloutParticipationRepository(db).Create(participation))
	return participation
}

// fakeNotifier records published population ids in place of RabbitMQ.
type fakeNotifier struct {
	published []string
	err       error
}

func (f *fakeNotifier) PublishPopulationQueued(populationID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, populationID)
	return nil
}

// fakeProvider is a scripted provider boundary. With no script it queues
// every request under a generated call id.
type fakeProvider struct {
	requests []provider.EnqueueRequest
	outcome  *provider.EnqueueOutcome
	err      error
	nextID   int
}

func (f *fakeProvider) Enqueue(ctx context.Context, req provider.EnqueueRequest) (provider.EnqueueOutcome, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return provider.EnqueueOutcome{}, f.err
	}
	if f.outcome != nil {
		return *f.outcome, nil
	}
	f.nextID++
	return provider.EnqueueOutcome{
		Queued:          true,
		RemoteCallID:    fmt.Sprintf("CA%04d", f.nextID),
		RemoteStatus:    "queued",
		RemoteDirection: "outbound-api",
		RequestParams:   models.Metadata{"To": req.To},
		Response:        models.Metadata{"status": "queued"},
	}, nil
}
