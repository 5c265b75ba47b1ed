package repository

import (
	"errors"

	"github.com/opencallout/callout-services-backend/internal/models"

	"gorm.io/gorm"
)

// resolverBatchSize is the page size used when streaming the contact
// universe through a population resolver.
const resolverBatchSize = 500

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create creates a new contact
func (r *ContactRepository) Create(contact *models.Contact) error {
	return r.db.Create(contact).Error
}

// GetByID retrieves a contact by ID
func (r *ContactRepository) GetByID(id string) (*models.Contact, error) {
	var contact models.Contact
	if err := r.db.First(&contact, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

// GetByMsisdn retrieves a contact by phone number
func (r *ContactRepository) GetByMsisdn(msisdn string) (*models.Contact, error) {
	var contact models.Contact
	if err := r.db.First(&contact, "msisdn = ?", msisdn).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

// UpsertByMsisdn creates the contact on first sight of the msisdn, or merges
// metadata into the existing row. Safe to call concurrently: a losing insert
// falls back to updating the row the winner created.
func (r *ContactRepository) UpsertByMsisdn(msisdn string, metadata models.Metadata) (*models.Contact, error) {
	contact, err := r.GetByMsisdn(msisdn)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		contact = &models.Contact{Msisdn: msisdn, Metadata: metadata}
		createErr := r.db.Create(contact).Error
		if createErr == nil {
			return contact, nil
		}
		if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return nil, createErr
		}
		// Lost the insert race; merge into the winner's row.
		contact, err = r.GetByMsisdn(msisdn)
	}
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		contact.Metadata = contact.Metadata.Merge(metadata)
		if err := r.db.Model(contact).Update("metadata", contact.Metadata).Error; err != nil {
			return nil, err
		}
	}
	return contact, nil
}

// EachBatch streams every contact through fn in primary-key order.
// Resolution reads the universe this way instead of loading it wholesale.
func (r *ContactRepository) EachBatch(fn func(contacts []*models.Contact) error) error {
	var batch []*models.Contact
	result := r.db.Order("id").FindInBatches(&batch, resolverBatchSize, func(tx *gorm.DB, _ int) error {
		return fn(batch)
	})
	return result.Error
}

// Filter returns the contacts matching a structural filter specification.
func (r *ContactRepository) Filter(filter models.Metadata) ([]*models.Contact, error) {
	var matched []*models.Contact
	err := r.EachBatch(func(contacts []*models.Contact) error {
		for _, contact := range contacts {
			if contact.MatchesFilter(filter) {
				matched = append(matched, contact)
			}
		}
		return nil
	})
	return matched, err
}

// Delete deletes a contact unless participations still reference it
func (r *ContactRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.CalloutParticipation{}).Where("contact_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrContactReferenced
		}
		return tx.Delete(&models.Contact{}, "id = ?", id).Error
	})
}
