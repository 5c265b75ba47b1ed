package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContactMatchesFilter(t *testing.T) {
	contact := &Contact{
		ID:     "11111111-1111-1111-1111-111111111111",
		Msisdn: "855972345678",
		Metadata: Metadata{
			"gender": "f",
			"location": map[string]interface{}{
				"country": "kh",
				"region":  "south",
			},
		},
	}

	assert.True(t, contact.MatchesFilter(Metadata{}))
	assert.True(t, contact.MatchesFilter(Metadata{"msisdn": "855972345678"}))
	assert.True(t, contact.MatchesFilter(Metadata{"id": contact.ID}))
	assert.True(t, contact.MatchesFilter(Metadata{
		"metadata": map[string]interface{}{"gender": "f"},
	}))
	assert.True(t, contact.MatchesFilter(Metadata{
		"msisdn": "855972345678",
		"metadata": map[string]interface{}{
			"location": map[string]interface{}{"region": "south"},
		},
	}))

	assert.False(t, contact.MatchesFilter(Metadata{"msisdn": "855970000000"}))
	assert.False(t, contact.MatchesFilter(Metadata{
		"metadata": map[string]interface{}{"gender": "m"},
	}))
	// Metadata filter must be an object
	assert.False(t, contact.MatchesFilter(Metadata{"metadata": "gender"}))
	// Unknown top-level keys never match
	assert.False(t, contact.MatchesFilter(Metadata{"name": "anything"}))
}
