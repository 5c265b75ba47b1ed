package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RemoteCallEvent is one inbound provider notification about a phone call.
// Rows are append-only: every delivery is recorded verbatim, including exact
// duplicates, so the log is a faithful record of what the provider sent.
type RemoteCallEvent struct {
	ID          string   `json:"id" gorm:"primaryKey;type:uuid"`
	PhoneCallID string   `json:"phone_call_id" gorm:"not null;type:uuid;index"`
	Details     Metadata `json:"details" gorm:"type:jsonb;not null;default:'{}'"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	PhoneCall PhoneCall `json:"phone_call,omitempty" gorm:"foreignKey:PhoneCallID;references:ID"`
}

// TableName specifies the table name for the RemoteCallEvent model
func (RemoteCallEvent) TableName() string {
	return "remote_call_events"
}

func (e *RemoteCallEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Details == nil {
		e.Details = Metadata{}
	}
	return nil
}
