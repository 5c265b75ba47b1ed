package services

import (
	"errors"
	"fmt"

	"github.com/opencallout/callout-services-backend/internal/models"
)

var (
	// ErrInvalidTransition is returned for a population event that is not
	// legal from the population's current status. The wrapped message names
	// the allowed events so the API layer can surface them.
	ErrInvalidTransition = errors.New("invalid population transition")

	// ErrUnknownCall is returned when a remote event references a provider
	// call id no phone call carries. The event is not silently dropped;
	// the delivery boundary decides whether to redeliver later.
	ErrUnknownCall = errors.New("unknown remote call id")

	// ErrConcurrencyExhausted is returned when a bounded optimistic retry
	// loop kept losing version races. The caller's delivery mechanism is
	// expected to retry the whole operation.
	ErrConcurrencyExhausted = errors.New("optimistic concurrency retries exhausted")
)

func invalidTransitionError(event models.PopulationEvent, from models.PopulationStatus) error {
	allowed := models.AllowedPopulationEvents(from)
	if len(allowed) == 0 {
		return fmt.Errorf("%w: cannot %s from %q (no events allowed)", ErrInvalidTransition, event, from)
	}
	return fmt.Errorf("%w: cannot %s from %q (allowed: %v)", ErrInvalidTransition, event, from, allowed)
}
