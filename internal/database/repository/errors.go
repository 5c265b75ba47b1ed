package repository

import "errors"

var (
	// ErrStaleVersion is returned when an optimistic update loses the race:
	// the row's lock_version advanced between the caller's read and write.
	ErrStaleVersion = errors.New("stale lock version")

	// ErrDuplicateParticipation is returned when a participation collides
	// with an existing (callout, contact) or (callout, msisdn) pair.
	ErrDuplicateParticipation = errors.New("participation already exists for this callout")

	// ErrParticipationReferenced is returned when deleting a participation
	// that phone calls still reference. Deletion is restricted, not cascaded.
	ErrParticipationReferenced = errors.New("participation is referenced by phone calls")

	// ErrDuplicateRemoteCallID is returned when a phone call update would
	// reuse a provider call identifier already assigned to another call.
	ErrDuplicateRemoteCallID = errors.New("remote call id already assigned")

	// ErrStatusConflict is returned when a conditional status transition
	// matched no row, meaning the record left the expected source status.
	ErrStatusConflict = errors.New("status changed concurrently")

	// ErrCalloutReferenced is returned when deleting a callout that
	// populations still reference.
	ErrCalloutReferenced = errors.New("callout is referenced by populations")

	// ErrContactReferenced is returned when deleting a contact that
	// participations still reference.
	ErrContactReferenced = errors.New("contact is referenced by participations")

	// ErrPopulationReferenced is returned when deleting a population whose
	// participations still exist.
	ErrPopulationReferenced = errors.New("population is referenced by participations")
)
