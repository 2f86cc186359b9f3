package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Headers is a string-to-string header map stored as a JSON TEXT column.
type Headers map[string]string

func (h *Headers) Scan(value interface{}) error {
	if value == nil {
		*h = Headers{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	default:
		return fmt.Errorf("unsupported type for headers: %T", value)
	}
}

func (h Headers) Value() (driver.Value, error) {
	if h == nil {
		return "{}", nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// JSONValue holds an arbitrary JSON document or a plain string, stored
// as a JSON TEXT column. Response bodies land here: decoded JSON when
// the upstream sent JSON, the raw text otherwise.
type JSONValue struct {
	V any
}

func (j *JSONValue) Scan(value interface{}) error {
	if value == nil {
		j.V = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, &j.V)
	case string:
		return json.Unmarshal([]byte(v), &j.V)
	default:
		return fmt.Errorf("unsupported type for json value: %T", value)
	}
}

func (j JSONValue) Value() (driver.Value, error) {
	if j.V == nil {
		return nil, nil
	}
	b, err := json.Marshal(j.V)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j JSONValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.V)
}

func (j *JSONValue) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &j.V)
}
