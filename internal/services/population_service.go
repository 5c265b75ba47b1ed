package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/opencallout/callout-services-backend/internal/database/repository"
	"github.com/opencallout/callout-services-backend/internal/models"
)

// PopulationNotifier publishes the fire-and-forget population-queued
// notification. Implemented by RabbitMQService; faked in tests.
type PopulationNotifier interface {
	PublishPopulationQueued(populationID string) error
}

// PopulationService drives the population lifecycle: the
// preview -> queued -> populating -> populated (-> queued) state machine,
// contact resolution against the filter specification, and the idempotent
// materialization of participations.
type PopulationService struct {
	populationRepo    *repository.CalloutPopulationRepository
	contactRepo       *repository.ContactRepository
	participationRepo *repository.CalloutParticipationRepository
	calloutRepo       *repository.CalloutRepository
	notifier          PopulationNotifier
	stopChan          chan bool
}

func NewPopulationService(db *gorm.DB, notifier PopulationNotifier) *PopulationService {
	return &PopulationService{
		populationRepo:    repository.NewCalloutPopulationRepository(db),
		contactRepo:       repository.NewContactRepository(db),
		participationRepo: repository.NewCalloutParticipationRepository(db),
		calloutRepo:       repository.NewCalloutRepository(db),
		notifier:          notifier,
		stopChan:          make(chan bool),
	}
}

// CreatePopulation creates a population in preview for a callout
func (s *PopulationService) CreatePopulation(calloutID string, req *models.CreatePopulationRequest) (*models.CalloutPopulation, error) {
	if _, err := s.calloutRepo.GetByID(calloutID); err != nil {
		return nil, fmt.Errorf("callout not found: %w", err)
	}

	population := &models.CalloutPopulation{
		CalloutID:           calloutID,
		ContactFilterParams: req.ContactFilterParams,
		Metadata:            req.Metadata,
	}
	if err := s.populationRepo.Create(population); err != nil {
		return nil, fmt.Errorf("failed to create population: %w", err)
	}
	return population, nil
}

// Queue moves a preview population into the queue and notifies the worker.
func (s *PopulationService) Queue(populationID string) (*models.CalloutPopulation, error) {
	return s.applyTransition(populationID, models.PopulationEventQueue)
}

// Start marks a queued population as populating.
func (s *PopulationService) Start(populationID string) (*models.CalloutPopulation, error) {
	return s.applyTransition(populationID, models.PopulationEventStart)
}

// Finish materializes the resolved contacts into participations and marks
// the population populated. Materialization is idempotent: contacts already
// participating in the callout are left untouched.
func (s *PopulationService) Finish(populationID string) (*models.CalloutPopulation, error) {
	population, err := s.populationRepo.GetByID(populationID)
	if err != nil {
		return nil, err
	}
	if population.Status != models.PopulationStatusPopulating {
		return nil, invalidTransitionError(models.PopulationEventFinish, population.Status)
	}

	if err := s.materialize(population); err != nil {
		return nil, err
	}
	return s.applyTransition(populationID, models.PopulationEventFinish)
}

// Requeue sends a populated population around the loop again.
func (s *PopulationService) Requeue(populationID string) (*models.CalloutPopulation, error) {
	return s.applyTransition(populationID, models.PopulationEventRequeue)
}

// Populate runs a queued population to completion: start, resolve,
// materialize, finish. This is what the queue worker calls.
func (s *PopulationService) Populate(populationID string) (*models.CalloutPopulation, error) {
	if _, err := s.Start(populationID); err != nil {
		return nil, err
	}
	return s.Finish(populationID)
}

// ResolveContacts evaluates the population's contact filter against the
// contact universe. Pure read: no side effects, deterministic for a given
// filter and universe.
func (s *PopulationService) ResolveContacts(population *models.CalloutPopulation) ([]*models.Contact, error) {
	return s.contactRepo.Filter(population.ContactFilterParams)
}

func (s *PopulationService) materialize(population *models.CalloutPopulation) error {
	contacts, err := s.ResolveContacts(population)
	if err != nil {
		return fmt.Errorf("failed to resolve contacts: %w", err)
	}

	created := 0
	for _, contact := range contacts {
		exists, err := s.participationRepo.ExistsForContact(population.CalloutID, contact.ID)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		populationID := population.ID
		participation := &models.CalloutParticipation{
			CalloutID:           population.CalloutID,
			ContactID:           contact.ID,
			CalloutPopulationID: &populationID,
			Msisdn:              contact.Msisdn,
		}
		err = s.participationRepo.Create(participation)
		if errors.Is(err, repository.ErrDuplicateParticipation) {
			// Another resolver or a manual insert won the race; the
			// contact is in the callout either way.
			continue
		}
		if err != nil {
			return err
		}
		created++
	}

	logrus.Infof("Population %s materialized %d participations from %d matching contacts",
		population.ID, created, len(contacts))
	return nil
}

func (s *PopulationService) applyTransition(populationID string, event models.PopulationEvent) (*models.CalloutPopulation, error) {
	population, err := s.populationRepo.GetByID(populationID)
	if err != nil {
		return nil, err
	}

	target, ok := models.PopulationTransition(population.Status, event)
	if !ok {
		return nil, invalidTransitionError(event, population.Status)
	}

	err = s.populationRepo.TransitionStatus(populationID, population.Status, target)
	if errors.Is(err, repository.ErrStatusConflict) {
		// Lost a transition race; report against the status that won.
		fresh, readErr := s.populationRepo.GetByID(populationID)
		if readErr != nil {
			return nil, readErr
		}
		return nil, invalidTransitionError(event, fresh.Status)
	}
	if err != nil {
		return nil, err
	}
	population.Status = target

	if event == models.PopulationEventQueue || event == models.PopulationEventRequeue {
		s.notifyQueued(populationID)
	}
	return population, nil
}

// notifyQueued publishes the population-queued notification. Failures are
// logged and swallowed: the transition has already committed and the
// notification carries no delivery guarantee.
func (s *PopulationService) notifyQueued(populationID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishPopulationQueued(populationID); err != nil {
		logrus.Warnf("Failed to publish population queued notification for %s: %v", populationID, err)
	}
}

// StartQueueConsumer consumes population-queued notifications from RabbitMQ
// and runs each queued population to completion.
func (s *PopulationService) StartQueueConsumer(rabbitMQ *RabbitMQService) error {
	msgs, err := rabbitMQ.Consume(PopulationQueuedQueue)
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	go func() {
		logrus.Info("Population queue consumer started")
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					logrus.Warn("Population queue channel closed")
					return
				}
				if err := s.processQueuedMessage(msg.Body); err != nil {
					logrus.Errorf("Failed to process population queued message: %v", err)
				}
				msg.Ack(false)
			case <-s.stopChan:
				logrus.Info("Population queue consumer stopped")
				return
			}
		}
	}()
	return nil
}

// StopQueueConsumer stops the consumer goroutine
func (s *PopulationService) StopQueueConsumer() {
	s.stopChan <- true
}

func (s *PopulationService) processQueuedMessage(body []byte) error {
	var message struct {
		PopulationID string `json:"population_id"`
	}
	if err := json.Unmarshal(body, &message); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if message.PopulationID == "" {
		return fmt.Errorf("message missing population_id")
	}

	_, err := s.Populate(message.PopulationID)
	if errors.Is(err, ErrInvalidTransition) {
		// Already populated by a competing worker, or requeued and picked
		// up twice. Nothing to do.
		logrus.Infof("Population %s no longer queued, skipping: %v", message.PopulationID, err)
		return nil
	}
	return err
}
