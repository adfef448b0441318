package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/siherrmann/summer/helper"
)

// Metadata holds free-form attributes of concepts and assertions, stored as JSONB.
// ConceptNet dumps carry keys like "dataset", "license" and "sources".
type Metadata map[string]interface{}

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for jsonb columns delivered as bytes or text.
func (m *Metadata) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case Metadata:
		*m = v
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return helper.NewError("metadata scan", fmt.Errorf("unsupported type %T", value))
	}

	decoded := Metadata{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return helper.NewError("metadata unmarshal", err)
	}
	*m = decoded
	return nil
}

// String returns the value of key if it is a string.
func (m Metadata) String(key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}
