package services

import (
	"errors"

	"github.com/opencallout/callout-services-backend/internal/database/repository"
	"github.com/opencallout/callout-services-backend/internal/models"
)

// maxOptimisticRetries bounds the read-modify-write loop on phone calls.
// Dispatch and event ingestion race on the same rows; a handful of retries
// rides out normal contention without an unbounded spin.
const maxOptimisticRetries = 5

// updateCallOptimistic applies mutate to the call and writes it, re-reading
// and reapplying on version conflicts up to maxOptimisticRetries. The call
// is left holding the winning row state on success. Returns
// ErrConcurrencyExhausted when every attempt lost the race.
func updateCallOptimistic(repo *repository.PhoneCallRepository, call *models.PhoneCall, mutate func(*models.PhoneCall)) error {
	for attempt := 0; attempt < maxOptimisticRetries; attempt++ {
		mutate(call)
		err := repo.UpdateOptimistic(call)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrStaleVersion) {
			return err
		}

		fresh, readErr := repo.GetByID(call.ID)
		if readErr != nil {
			return readErr
		}
		*call = *fresh
	}
	return ErrConcurrencyExhausted
}
