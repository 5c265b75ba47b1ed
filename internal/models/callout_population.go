package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PopulationStatus is the lifecycle status of one population resolution run.
type PopulationStatus string

const (
	PopulationStatusPreview    PopulationStatus = "preview"
	PopulationStatusQueued     PopulationStatus = "queued"
	PopulationStatusPopulating PopulationStatus = "populating"
	PopulationStatusPopulated  PopulationStatus = "populated"
)

// PopulationEvent names a requested population transition.
type PopulationEvent string

const (
	PopulationEventQueue   PopulationEvent = "queue"
	PopulationEventStart   PopulationEvent = "start"
	PopulationEventFinish  PopulationEvent = "finish"
	PopulationEventRequeue PopulationEvent = "requeue"
)

// populationTransitions maps event -> required source status -> target status.
var populationTransitions = map[PopulationEvent]struct {
	From PopulationStatus
	To   PopulationStatus
}{
	PopulationEventQueue:   {From: PopulationStatusPreview, To: PopulationStatusQueued},
	PopulationEventStart:   {From: PopulationStatusQueued, To: PopulationStatusPopulating},
	PopulationEventFinish:  {From: PopulationStatusPopulating, To: PopulationStatusPopulated},
	PopulationEventRequeue: {From: PopulationStatusPopulated, To: PopulationStatusQueued},
}

// PopulationTransition resolves the target status for event from the given
// status. ok is false when the event is not legal from that status.
func PopulationTransition(from PopulationStatus, event PopulationEvent) (PopulationStatus, bool) {
	t, known := populationTransitions[event]
	if !known || t.From != from {
		return "", false
	}
	return t.To, true
}

// AllowedPopulationEvents lists the events legal from the given status, for
// error messages surfaced by the API layer.
func AllowedPopulationEvents(from PopulationStatus) []PopulationEvent {
	var events []PopulationEvent
	for _, event := range []PopulationEvent{PopulationEventQueue, PopulationEventStart, PopulationEventFinish, PopulationEventRequeue} {
		if t := populationTransitions[event]; t.From == from {
			events = append(events, event)
		}
	}
	return events
}

// CalloutPopulation is one resolution run for a callout: a contact filter plus
// the status of turning that filter into participations.
type CalloutPopulation struct {
	ID                 string           `json:"id" gorm:"primaryKey;type:uuid"`
	CalloutID          string           `json:"callout_id" gorm:"not null;index;type:uuid"`
	ContactFilterParams Metadata        `json:"contact_filter_params" gorm:"type:jsonb;not null;default:'{}'"`
	Metadata           Metadata         `json:"metadata" gorm:"type:jsonb;not null;default:'{}'"`
	Status             PopulationStatus `json:"status" gorm:"type:varchar(32);not null;default:'preview'"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Callout        Callout                `json:"callout,omitempty" gorm:"foreignKey:CalloutID;references:ID"`
	Participations []CalloutParticipation `json:"participations,omitempty" gorm:"foreignKey:CalloutPopulationID;references:ID"`
}

// TableName specifies the table name for the CalloutPopulation model
func (CalloutPopulation) TableName() string {
	return "callout_populations"
}

func (p *CalloutPopulation) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = PopulationStatusPreview
	}
	if p.ContactFilterParams == nil {
		p.ContactFilterParams = Metadata{}
	}
	if p.Metadata == nil {
		p.Metadata = Metadata{}
	}
	return nil
}

// CreatePopulationRequest represents the request to create a population
type CreatePopulationRequest struct {
	ContactFilterParams Metadata `json:"contact_filter_params"`
	Metadata            Metadata `json:"metadata"`
}

// UpdatePopulationRequest updates filter params and/or metadata on a preview population
type UpdatePopulationRequest struct {
	ContactFilterParams Metadata `json:"contact_filter_params"`
	Metadata            Metadata `json:"metadata"`
}
