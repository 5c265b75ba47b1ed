package services

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/opencallout/callout-services-backend/internal/database/repository"
	"github.com/opencallout/callout-services-backend/internal/models"
)

// RemoteEventService ingests inbound provider status events. Every delivery
// appends to the immutable event log, then the call's status is derived and
// applied under optimistic concurrency. Duplicate deliveries append twice
// but can never move the call's status backward.
type RemoteEventService struct {
	phoneCallRepo *repository.PhoneCallRepository
	eventRepo     *repository.RemoteCallEventRepository
}

func NewRemoteEventService(db *gorm.DB) *RemoteEventService {
	return &RemoteEventService{
		phoneCallRepo: repository.NewPhoneCallRepository(db),
		eventRepo:     repository.NewRemoteCallEventRepository(db),
	}
}

// Ingest applies one provider event to the call identified by remoteCallID.
// The details payload is stored verbatim regardless of its schema; the keys
// "status", "direction" and "error_message" drive status derivation when
// present. Returns ErrUnknownCall when no call carries the id; the caller
// decides whether to redeliver, since a slow dispatch path may not have
// persisted the call yet.
func (s *RemoteEventService) Ingest(remoteCallID string, details models.Metadata) (*models.PhoneCall, *models.RemoteCallEvent, error) {
	if remoteCallID == "" {
		return nil, nil, fmt.Errorf("%w: empty remote call id", ErrUnknownCall)
	}

	call, err := s.phoneCallRepo.GetByRemoteCallID(remoteCallID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownCall, remoteCallID)
	}
	if err != nil {
		return nil, nil, err
	}

	event := &models.RemoteCallEvent{
		PhoneCallID: call.ID,
		Details:     details,
	}
	if err := s.eventRepo.Create(event); err != nil {
		return nil, nil, fmt.Errorf("failed to append remote call event: %w", err)
	}

	remoteStatus, _ := details["status"].(string)
	remoteDirection, _ := details["direction"].(string)
	remoteError, _ := details["error_message"].(string)
	derived := models.CallStatusFromRemote(remoteStatus)

	err = updateCallOptimistic(s.phoneCallRepo, call, func(c *models.PhoneCall) {
		// Ordering: provider lifecycle rank when it can be determined,
		// last write wins within a rank. An older event still sits in the
		// log above but must not regress the call.
		if derived != "" && derived.Rank() < c.Status.Rank() {
			return
		}

		if derived != "" {
			c.Status = derived
		}
		if remoteStatus != "" {
			c.RemoteStatus = remoteStatus
		}
		if remoteDirection != "" {
			c.RemoteDirection = remoteDirection
		}
		if remoteError != "" {
			c.RemoteErrorMessage = remoteError
		}
		c.RemoteResponse = details
	})
	if err != nil {
		return nil, nil, err
	}

	logrus.Infof("Remote event for call %s (%s): status %q -> %q",
		call.ID, remoteCallID, remoteStatus, call.Status)
	return call, event, nil
}
