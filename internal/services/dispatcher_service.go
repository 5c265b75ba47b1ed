package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/opencallout/callout-services-backend/internal/database/repository"
	"github.com/opencallout/callout-services-backend/internal/models"
	"github.com/opencallout/callout-services-backend/internal/services/provider"
)

// DispatcherService turns participations into outbound call attempts. Each
// dispatch creates a fresh PhoneCall, enqueues it at the provider boundary
// and records the outcome; it never retries internally and never reuses a
// failed call record.
type DispatcherService struct {
	phoneCallRepo     *repository.PhoneCallRepository
	participationRepo *repository.CalloutParticipationRepository
	contactRepo       *repository.ContactRepository
	providerClient    provider.Client
	enqueueTimeout    time.Duration
	clock             func() time.Time
}

func NewDispatcherService(db *gorm.DB, providerClient provider.Client, enqueueTimeout time.Duration) *DispatcherService {
	return &DispatcherService{
		phoneCallRepo:     repository.NewPhoneCallRepository(db),
		participationRepo: repository.NewCalloutParticipationRepository(db),
		contactRepo:       repository.NewContactRepository(db),
		providerClient:    providerClient,
		enqueueTimeout:    enqueueTimeout,
		clock:             time.Now,
	}
}

// DispatchParticipation dials the participation's snapshotted msisdn.
func (s *DispatcherService) DispatchParticipation(ctx context.Context, participationID string, metadata models.Metadata) (*models.PhoneCall, error) {
	participation, err := s.participationRepo.GetByID(participationID)
	if err != nil {
		return nil, fmt.Errorf("participation not found: %w", err)
	}

	call := &models.PhoneCall{
		CalloutParticipationID: &participation.ID,
		ContactID:              participation.ContactID,
		Msisdn:                 participation.Msisdn,
		Metadata:               metadata,
	}
	return s.dispatch(ctx, call)
}

// DispatchAdHoc dials a bare contact without a participation.
func (s *DispatcherService) DispatchAdHoc(ctx context.Context, contactID string, metadata models.Metadata) (*models.PhoneCall, error) {
	contact, err := s.contactRepo.GetByID(contactID)
	if err != nil {
		return nil, fmt.Errorf("contact not found: %w", err)
	}

	call := &models.PhoneCall{
		ContactID: contact.ID,
		Msisdn:    contact.Msisdn,
		Metadata:  metadata,
	}
	return s.dispatch(ctx, call)
}

// dispatch persists the call in created status, then performs the provider
// round trip and records the outcome. Provider rejections and transport
// failures become recorded call state (errored), not returned errors.
func (s *DispatcherService) dispatch(ctx context.Context, call *models.PhoneCall) (*models.PhoneCall, error) {
	if err := s.phoneCallRepo.Create(call); err != nil {
		return nil, fmt.Errorf("failed to create phone call: %w", err)
	}

	enqueueCtx, cancel := context.WithTimeout(ctx, s.enqueueTimeout)
	defer cancel()

	outcome, err := s.providerClient.Enqueue(enqueueCtx, provider.EnqueueRequest{
		To:       call.Msisdn,
		Metadata: call.Metadata,
	})
	if err != nil {
		// The round trip could not be attempted at all; record it the same
		// way as a transport failure so the retry sweep can pick it up.
		outcome = provider.EnqueueOutcome{
			Queued:       false,
			ErrorMessage: err.Error(),
			Response:     models.Metadata{"error": err.Error()},
		}
	}

	// Event ingestion may already be racing on this call if the provider
	// reported before the ack landed, so the write goes through the same
	// optimistic loop as everything else.
	applyErr := updateCallOptimistic(s.phoneCallRepo, call, func(c *models.PhoneCall) {
		c.RemoteRequestParams = outcome.RequestParams
		if !outcome.Queued {
			c.Status = models.CallStatusErrored
			c.RemoteErrorMessage = outcome.ErrorMessage
			c.RemoteResponse = outcome.Response
			return
		}

		remoteCallID := outcome.RemoteCallID
		c.RemoteCallID = &remoteCallID
		c.RemoteQueueResponse = outcome.Response
		if outcome.RemoteStatus != "" {
			c.RemoteStatus = outcome.RemoteStatus
		}
		if outcome.RemoteDirection != "" {
			c.RemoteDirection = outcome.RemoteDirection
		}
		queuedAt := s.clock().UTC()
		c.RemotelyQueuedAt = &queuedAt

		// Do not walk the status back if an inbound event advanced it
		// past queued already.
		if models.CallStatusRemotelyQueued.Rank() >= c.Status.Rank() {
			c.Status = models.CallStatusRemotelyQueued
		}
	})
	if applyErr != nil {
		return nil, applyErr
	}

	if call.Status == models.CallStatusErrored {
		logrus.Warnf("Phone call %s failed to queue: %s", call.ID, call.RemoteErrorMessage)
	} else {
		logrus.Infof("Phone call %s queued remotely as %s", call.ID, outcome.RemoteCallID)
	}
	return call, nil
}
