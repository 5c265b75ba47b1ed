package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CalloutStatus is the campaign-level status. Callout transitions are owned
// by the operator API, not by the population/dispatch machinery.
type CalloutStatus string

const (
	CalloutStatusInitialized CalloutStatus = "initialized"
	CalloutStatusRunning     CalloutStatus = "running"
	CalloutStatusPaused      CalloutStatus = "paused"
	CalloutStatusStopped     CalloutStatus = "stopped"
)

// Callout represents one outbound telephony campaign.
type Callout struct {
	ID       string        `json:"id" gorm:"primaryKey;type:uuid"`
	Status   CalloutStatus `json:"status" gorm:"type:varchar(32);not null;default:'initialized'"`
	Metadata Metadata      `json:"metadata" gorm:"type:jsonb;not null;default:'{}'"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Populations    []CalloutPopulation    `json:"populations,omitempty" gorm:"foreignKey:CalloutID;references:ID"`
	Participations []CalloutParticipation `json:"participations,omitempty" gorm:"foreignKey:CalloutID;references:ID"`
}

// TableName specifies the table name for the Callout model
func (Callout) TableName() string {
	return "callouts"
}

func (c *Callout) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Metadata == nil {
		c.Metadata = Metadata{}
	}
	return nil
}

// CreateCalloutRequest represents the request to create a new callout
type CreateCalloutRequest struct {
	Metadata Metadata `json:"metadata"`
}

// UpdateCalloutRequest merges metadata into an existing callout and
// optionally moves it to a new status
type UpdateCalloutRequest struct {
	Status   CalloutStatus `json:"status"`
	Metadata Metadata      `json:"metadata"`
}

// Valid reports whether the status is part of the callout vocabulary.
func (s CalloutStatus) Valid() bool {
	switch s {
	case CalloutStatusInitialized, CalloutStatusRunning, CalloutStatusPaused, CalloutStatusStopped:
		return true
	}
	return false
}
