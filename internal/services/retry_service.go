package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/opencallout/callout-services-backend/internal/database/repository"
	"github.com/opencallout/callout-services-backend/internal/models"
)

// DefaultPopulationStableWindow is how long a population must sit in
// populated before the sweep requeues it, to avoid resolution thrashing.
const DefaultPopulationStableWindow = time.Hour

// RetryService periodically finds stuck work and re-injects it: populated
// populations old enough to requeue, and retryable terminal calls old enough
// that the provider has had its chance to report. Retries never mutate the
// failed record; calls get a fresh dispatch.
type RetryService struct {
	populationService *PopulationService
	dispatcher        *DispatcherService
	populationRepo    *repository.CalloutPopulationRepository
	phoneCallRepo     *repository.PhoneCallRepository

	stableWindow time.Duration
	recentWindow time.Duration
	interval     time.Duration
	stopChan     chan bool
	clock        func() time.Time
}

func NewRetryService(db *gorm.DB, populationService *PopulationService, dispatcher *DispatcherService) *RetryService {
	return &RetryService{
		populationService: populationService,
		dispatcher:        dispatcher,
		populationRepo:    repository.NewCalloutPopulationRepository(db),
		phoneCallRepo:     repository.NewPhoneCallRepository(db),
		stableWindow:      DefaultPopulationStableWindow,
		recentWindow:      models.DefaultRecentlyCreatedWindow,
		interval:          5 * time.Minute,
		stopChan:          make(chan bool),
		clock:             time.Now,
	}
}

// RetryableWork is one sweep's worth of candidates.
type RetryableWork struct {
	Populations []*models.CalloutPopulation
	PhoneCalls  []*models.PhoneCall
}

// FindRetryable returns the work eligible for retry at now. Calls created
// within recentWindow are skipped to give the provider time to report;
// calls that already have a newer attempt are skipped so a failure is
// retried once per sweep at most.
func (s *RetryService) FindRetryable(now time.Time, recentWindow time.Duration) (*RetryableWork, error) {
	populations, err := s.populationRepo.FindPopulatedBefore(now.Add(-s.stableWindow))
	if err != nil {
		return nil, err
	}

	candidates, err := s.phoneCallRepo.FindRetryable(now.Add(-recentWindow))
	if err != nil {
		return nil, err
	}

	calls := make([]*models.PhoneCall, 0, len(candidates))
	for _, call := range candidates {
		retried, err := s.phoneCallRepo.HasNewerAttempt(call)
		if err != nil {
			return nil, err
		}
		if !retried {
			calls = append(calls, call)
		}
	}

	return &RetryableWork{Populations: populations, PhoneCalls: calls}, nil
}

// RunOnce performs one retry sweep.
func (s *RetryService) RunOnce(ctx context.Context) error {
	work, err := s.FindRetryable(s.clock(), s.recentWindow)
	if err != nil {
		return err
	}

	for _, population := range work.Populations {
		_, err := s.populationService.Requeue(population.ID)
		if errors.Is(err, ErrInvalidTransition) {
			// Another worker moved it first.
			continue
		}
		if err != nil {
			logrus.Errorf("Failed to requeue population %s: %v", population.ID, err)
		}
	}

	for _, call := range work.PhoneCalls {
		var dispatchErr error
		if call.CalloutParticipationID != nil {
			_, dispatchErr = s.dispatcher.DispatchParticipation(ctx, *call.CalloutParticipationID, call.Metadata)
		} else {
			_, dispatchErr = s.dispatcher.DispatchAdHoc(ctx, call.ContactID, call.Metadata)
		}
		if dispatchErr != nil {
			logrus.Errorf("Failed to redispatch call %s: %v", call.ID, dispatchErr)
		}
	}

	if len(work.Populations) > 0 || len(work.PhoneCalls) > 0 {
		logrus.Infof("Retry sweep requeued %d populations and redispatched %d calls",
			len(work.Populations), len(work.PhoneCalls))
	}
	return nil
}

// Start starts the retry sweep loop
func (s *RetryService) Start() {
	go s.run()
	logrus.Info("Retry service started")
}

// Stop stops the retry sweep loop
func (s *RetryService) Stop() {
	s.stopChan <- true
	logrus.Info("Retry service stopped")
}

func (s *RetryService) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.RunOnce(context.Background()); err != nil {
				logrus.Errorf("Retry sweep failed: %v", err)
			}
		case <-s.stopChan:
			return
		}
	}
}

// SetIntervals overrides the sweep timing, used by main when configured
func (s *RetryService) SetIntervals(interval, stableWindow, recentWindow time.Duration) {
	if interval > 0 {
		s.interval = interval
	}
	if stableWindow > 0 {
		s.stableWindow = stableWindow
	}
	if recentWindow > 0 {
		s.recentWindow = recentWindow
	}
}
