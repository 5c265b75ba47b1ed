package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CalloutParticipation links a contact into a callout, optionally recording
// the population run that produced it. Manual participations carry a nil
// population reference. The msisdn is snapshotted at creation time so later
// contact edits cannot change who a callout dials.
type CalloutParticipation struct {
	ID                  string   `json:"id" gorm:"primaryKey;type:uuid"`
	CalloutID           string   `json:"callout_id" gorm:"not null;type:uuid;uniqueIndex:idx_participations_callout_contact;uniqueIndex:idx_participations_callout_msisdn"`
	ContactID           string   `json:"contact_id" gorm:"not null;type:uuid;index;uniqueIndex:idx_participations_callout_contact"`
	CalloutPopulationID *string  `json:"callout_population_id" gorm:"type:uuid;index"`
	Msisdn              string   `json:"msisdn" gorm:"type:varchar(32);not null;uniqueIndex:idx_participations_callout_msisdn"`
	Metadata            Metadata `json:"metadata" gorm:"type:jsonb;not null;default:'{}'"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Callout    Callout            `json:"callout,omitempty" gorm:"foreignKey:CalloutID;references:ID"`
	Contact    Contact            `json:"contact,omitempty" gorm:"foreignKey:ContactID;references:ID"`
	Population *CalloutPopulation `json:"population,omitempty" gorm:"foreignKey:CalloutPopulationID;references:ID"`
	PhoneCalls []PhoneCall        `json:"phone_calls,omitempty" gorm:"foreignKey:CalloutParticipationID;references:ID"`
}

// TableName specifies the table name for the CalloutParticipation model
func (CalloutParticipation) TableName() string {
	return "callout_participations"
}

func (p *CalloutParticipation) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Metadata == nil {
		p.Metadata = Metadata{}
	}
	return nil
}

// CreateParticipationRequest represents the request to add a contact to a callout manually
type CreateParticipationRequest struct {
	ContactID string   `json:"contact_id" binding:"required"`
	Metadata  Metadata `json:"metadata"`
}
