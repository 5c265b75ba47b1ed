// Package excel imports contacts in bulk from spreadsheet uploads.
package excel

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/opencallout/callout-services-backend/internal/database/repository"
	"github.com/opencallout/callout-services-backend/internal/models"
)

// Service imports contacts from xlsx files. The first sheet is read; the
// header row names the columns. A "msisdn" column is required; every other
// column becomes a metadata key. Import is an idempotent upsert keyed by
// msisdn, so re-importing the same file merges rather than duplicates.
type Service struct {
	contactRepo *repository.ContactRepository
}

func NewService(contactRepo *repository.ContactRepository) *Service {
	return &Service{contactRepo: contactRepo}
}

// ImportResult contains the result of an import operation
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportContacts reads an xlsx stream and upserts one contact per data row.
func (s *Service) ImportContacts(reader io.Reader) (*ImportResult, error) {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	header := rows[0]
	msisdnColumn := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "msisdn") {
			msisdnColumn = i
			break
		}
	}
	if msisdnColumn < 0 {
		return nil, fmt.Errorf("sheet %q has no msisdn column", sheets[0])
	}

	result := &ImportResult{}
	for rowIndex, row := range rows[1:] {
		msisdn := ""
		if msisdnColumn < len(row) {
			msisdn = strings.TrimSpace(row[msisdnColumn])
		}
		if msisdn == "" {
			result.Skipped++
			continue
		}

		metadata := models.Metadata{}
		for i, name := range header {
			if i == msisdnColumn || i >= len(row) {
				continue
			}
			key := strings.TrimSpace(name)
			value := strings.TrimSpace(row[i])
			if key == "" || value == "" {
				continue
			}
			metadata[key] = value
		}

		if _, err := s.contactRepo.UpsertByMsisdn(msisdn, metadata); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowIndex+2, err))
			continue
		}
		result.Imported++
	}

	logrus.Infof("Contact import finished: %d imported, %d skipped, %d errors",
		result.Imported, result.Skipped, len(result.Errors))
	return result, nil
}
