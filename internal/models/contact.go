package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact is a deduplicated phone-number identity. The msisdn is immutable
// after creation; metadata is merged on every subsequent upsert.
type Contact struct {
	ID       string   `json:"id" gorm:"primaryKey;type:uuid"`
	Msisdn   string   `json:"msisdn" gorm:"type:varchar(32);not null;uniqueIndex"`
	Metadata Metadata `json:"metadata" gorm:"type:jsonb;not null;default:'{}'"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Contact model
func (Contact) TableName() string {
	return "contacts"
}

func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Metadata == nil {
		c.Metadata = Metadata{}
	}
	return nil
}

// MatchesFilter reports whether the contact satisfies a contact filter
// specification. Top-level keys are direct contact attributes except for
// "metadata", which is matched by structural containment against the
// contact's metadata at arbitrary depth.
func (c *Contact) MatchesFilter(filter Metadata) bool {
	for key, want := range filter {
		switch key {
		case "metadata":
			sub, ok := asObject(want)
			if !ok || !c.Metadata.Contains(Metadata(sub)) {
				return false
			}
		case "msisdn":
			if !jsonEqual(c.Msisdn, want) {
				return false
			}
		case "id":
			if !jsonEqual(c.ID, want) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// CreateContactRequest represents the request to create a contact
type CreateContactRequest struct {
	Msisdn   string   `json:"msisdn" binding:"required"`
	Metadata Metadata `json:"metadata"`
}

// UpdateContactRequest merges metadata into an existing contact
type UpdateContactRequest struct {
	Metadata Metadata `json:"metadata" binding:"required"`
}
