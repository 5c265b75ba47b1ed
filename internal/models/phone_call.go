package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CallStatus is the internal call lifecycle status. The provider's own status
// string is open-ended and passed through verbatim in RemoteStatus; this set
// only needs to distinguish pending, queued and terminal phases.
type CallStatus string

const (
	CallStatusCreated        CallStatus = "created"
	CallStatusRemotelyQueued CallStatus = "remotely_queued"
	// CallStatusErrored means the provider rejected the enqueue request or
	// the request failed in transport. It never comes from a remote event.
	CallStatusErrored     CallStatus = "errored"
	CallStatusInProgress  CallStatus = "in_progress"
	CallStatusCompleted   CallStatus = "completed"
	CallStatusFailed      CallStatus = "failed"
	CallStatusBusy        CallStatus = "busy"
	CallStatusNotAnswered CallStatus = "not_answered"
	CallStatusCanceled    CallStatus = "canceled"
)

// DefaultRecentlyCreatedWindow is how long a call is considered too fresh to
// retry, giving the provider time to report a result first.
const DefaultRecentlyCreatedWindow = 300 * time.Second

// CallStatusFromRemote maps a provider status string onto the internal
// vocabulary. Unknown strings map to the zero value; callers keep the
// previous internal status and record the raw string in RemoteStatus.
func CallStatusFromRemote(remoteStatus string) CallStatus {
	switch remoteStatus {
	case "queued", "initiated":
		return CallStatusRemotelyQueued
	case "ringing", "in-progress", "in_progress", "answered":
		return CallStatusInProgress
	case "completed":
		return CallStatusCompleted
	case "failed":
		return CallStatusFailed
	case "busy":
		return CallStatusBusy
	case "no-answer", "no_answer":
		return CallStatusNotAnswered
	case "canceled", "cancelled":
		return CallStatusCanceled
	}
	return ""
}

// Rank orders statuses by lifecycle phase so late or duplicated remote events
// cannot move a call backward in time. Statuses in the same phase share a
// rank; among those, last write wins.
func (s CallStatus) Rank() int {
	switch s {
	case CallStatusCreated:
		return 0
	case CallStatusRemotelyQueued:
		return 1
	case CallStatusInProgress:
		return 2
	case CallStatusErrored, CallStatusCompleted, CallStatusFailed, CallStatusBusy, CallStatusNotAnswered, CallStatusCanceled:
		return 3
	}
	return 0
}

// IsTerminal reports whether no further remote progress is expected.
func (s CallStatus) IsTerminal() bool {
	return s.Rank() == 3
}

// IsRetryable reports whether a terminal call may be dialed again as a fresh
// attempt. Completed and canceled calls are final.
func (s CallStatus) IsRetryable() bool {
	switch s {
	case CallStatusErrored, CallStatusFailed, CallStatusBusy, CallStatusNotAnswered:
		return true
	}
	return false
}

// PhoneCall is one outbound call attempt. It is mutated by the dispatcher
// (once, on enqueue) and by remote event ingestion (on every provider status
// update); both paths race and are serialized through LockVersion.
type PhoneCall struct {
	ID                     string     `json:"id" gorm:"primaryKey;type:uuid"`
	CalloutParticipationID *string    `json:"callout_participation_id" gorm:"type:uuid;index"`
	ContactID              string     `json:"contact_id" gorm:"not null;type:uuid;index"`
	Status                 CallStatus `json:"status" gorm:"type:varchar(32);not null;default:'created'"`
	Msisdn                 string     `json:"msisdn" gorm:"type:varchar(32);not null"`
	RemoteCallID           *string    `json:"remote_call_id" gorm:"type:varchar(255);uniqueIndex"`
	RemoteStatus           string     `json:"remote_status" gorm:"type:varchar(255)"`
	RemoteDirection        string     `json:"remote_direction" gorm:"type:varchar(255)"`
	RemoteErrorMessage     string     `json:"remote_error_message" gorm:"type:text"`
	LockVersion            int        `json:"lock_version" gorm:"not null;default:0"`
	Metadata               Metadata   `json:"metadata" gorm:"type:jsonb;not null;default:'{}'"`
	RemoteResponse         Metadata   `json:"remote_response" gorm:"type:jsonb;not null;default:'{}'"`
	RemoteRequestParams    Metadata   `json:"remote_request_params" gorm:"type:jsonb;not null;default:'{}'"`
	RemoteQueueResponse    Metadata   `json:"remote_queue_response" gorm:"type:jsonb;not null;default:'{}'"`
	RemotelyQueuedAt       *time.Time `json:"remotely_queued_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Contact       Contact               `json:"contact,omitempty" gorm:"foreignKey:ContactID;references:ID"`
	Participation *CalloutParticipation `json:"participation,omitempty" gorm:"foreignKey:CalloutParticipationID;references:ID"`
	RemoteEvents  []RemoteCallEvent     `json:"remote_events,omitempty" gorm:"foreignKey:PhoneCallID;references:ID"`
}

// TableName specifies the table name for the PhoneCall model
func (PhoneCall) TableName() string {
	return "phone_calls"
}

func (c *PhoneCall) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = CallStatusCreated
	}
	if c.Metadata == nil {
		c.Metadata = Metadata{}
	}
	if c.RemoteResponse == nil {
		c.RemoteResponse = Metadata{}
	}
	if c.RemoteRequestParams == nil {
		c.RemoteRequestParams = Metadata{}
	}
	if c.RemoteQueueResponse == nil {
		c.RemoteQueueResponse = Metadata{}
	}
	return nil
}

// RecentlyCreated reports whether the call is younger than window at now.
func (c *PhoneCall) RecentlyCreated(now time.Time, window time.Duration) bool {
	return now.Sub(c.CreatedAt) < window
}

// CreatePhoneCallRequest dials a participation, or an ad-hoc contact msisdn
// when no participation is given.
type CreatePhoneCallRequest struct {
	CalloutParticipationID string   `json:"callout_participation_id"`
	ContactID              string   `json:"contact_id"`
	Msisdn                 string   `json:"msisdn"`
	Metadata               Metadata `json:"metadata"`
}
