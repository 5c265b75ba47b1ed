package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Metadata is the free-form JSON object column carried by every entity.
// It is stored as jsonb in Postgres and as serialized text under sqlite.
type Metadata map[string]interface{}

// Value implements driver.Valuer so GORM can persist the map as JSON.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata column type %T", value)
	}

	if len(data) == 0 {
		*m = Metadata{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// Contains reports whether every key/value pair of filter is present in m,
// descending recursively: a filter value that is itself an object must be
// contained, key by key, in the object found under the same key in m; any
// other filter value must compare equal after JSON normalization. An empty
// filter is contained in everything.
func (m Metadata) Contains(filter Metadata) bool {
	return containsSubtree(map[string]interface{}(m), map[string]interface{}(filter))
}

// Merge returns a copy of m with other deep-merged on top. Nested objects are
// merged key by key; any other value in other replaces the value in m.
func (m Metadata) Merge(other Metadata) Metadata {
	merged := Metadata{}
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range other {
		existing, haveExisting := asObject(merged[k])
		incoming, incomingIsObject := asObject(v)
		if haveExisting && incomingIsObject {
			merged[k] = map[string]interface{}(Metadata(existing).Merge(Metadata(incoming)))
			continue
		}
		merged[k] = v
	}
	return merged
}

func containsSubtree(haystack, needle map[string]interface{}) bool {
	for key, want := range needle {
		got, ok := haystack[key]
		if !ok {
			return false
		}
		wantObject, wantIsObject := asObject(want)
		if wantIsObject {
			gotObject, gotIsObject := asObject(got)
			if !gotIsObject || !containsSubtree(gotObject, wantObject) {
				return false
			}
			continue
		}
		if !jsonEqual(got, want) {
			return false
		}
	}
	return true
}

func asObject(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case Metadata:
		return t, true
	}
	return nil, false
}

// jsonEqual compares scalars after a JSON round trip, so values written in Go
// (int, typed strings) compare equal to their decoded float64/string forms.
func jsonEqual(a, b interface{}) bool {
	rawA, errA := json.Marshal(a)
	rawB, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(rawA) == string(rawB)
}

// ParseMetadata decodes a JSON object from raw. An empty input yields an
// empty Metadata rather than an error so optional filter parameters can be
// passed straight through from query strings.
func ParseMetadata(raw string) (Metadata, error) {
	if raw == "" {
		return Metadata{}, nil
	}
	var m Metadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("invalid metadata JSON: %w", err)
	}
	return m, nil
}
