package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataContains(t *testing.T) {
	m := Metadata{
		"gender": "f",
		"age":    25,
		"location": map[string]interface{}{
			"country": "kh",
			"region":  "south",
			"extra":   map[string]interface{}{"zone": "3"},
		},
	}

	assert.True(t, m.Contains(Metadata{}))
	assert.True(t, m.Contains(Metadata{"gender": "f"}))
	assert.True(t, m.Contains(Metadata{
		"location": map[string]interface{}{"region": "south"},
	}))
	assert.True(t, m.Contains(Metadata{
		"location": map[string]interface{}{
			"country": "kh",
			"extra":   map[string]interface{}{"zone": "3"},
		},
	}))

	assert.False(t, m.Contains(Metadata{"gender": "m"}))
	assert.False(t, m.Contains(Metadata{"missing": "x"}))
	assert.False(t, m.Contains(Metadata{
		"location": map[string]interface{}{"region": "north"},
	}))
	// A scalar filter value never matches an object and vice versa
	assert.False(t, m.Contains(Metadata{"location": "south"}))
	assert.False(t, m.Contains(Metadata{"gender": map[string]interface{}{"x": "y"}}))
}

func TestMetadataContainsNumericNormalization(t *testing.T) {
	// Values decoded from JSON arrive as float64; values written in Go may
	// be int. Both sides must compare equal.
	m := Metadata{"age": float64(25)}
	assert.True(t, m.Contains(Metadata{"age": 25}))
	assert.False(t, m.Contains(Metadata{"age": 26}))
}

func TestMetadataMerge(t *testing.T) {
	base := Metadata{
		"gender": "f",
		"location": map[string]interface{}{
			"country": "kh",
			"region":  "south",
		},
	}

	merged := base.Merge(Metadata{
		"age": 30,
		"location": map[string]interface{}{
			"region": "north",
		},
	})

	assert.Equal(t, "f", merged["gender"])
	assert.Equal(t, 30, merged["age"])

	location, ok := merged["location"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "kh", location["country"], "untouched nested keys survive the merge")
	assert.Equal(t, "north", location["region"])

	// The receiver is not mutated
	baseLocation := base["location"].(map[string]interface{})
	assert.Equal(t, "south", baseLocation["region"])
}

func TestMetadataMergeReplacesScalarWithObject(t *testing.T) {
	merged := Metadata{"location": "south"}.Merge(Metadata{
		"location": map[string]interface{}{"region": "north"},
	})
	location, ok := merged["location"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "north", location["region"])
}

func TestParseMetadata(t *testing.T) {
	m, err := ParseMetadata(`{"gender":"f","age":25}`)
	require.NoError(t, err)
	assert.Equal(t, "f", m["gender"])
	assert.Equal(t, float64(25), m["age"])

	m, err = ParseMetadata("")
	require.NoError(t, err)
	assert.Empty(t, m)

	_, err = ParseMetadata("{not json")
	assert.Error(t, err)
}
