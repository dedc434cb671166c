package sqltypes

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONStringSlice stores a []string as a JSON array in a text column. A nil
// slice is written as "[]" so instr-based membership tests never see SQL
// NULL. Elements are written without HTML escaping so the stored form of a
// token like "r&b" is exactly the quoted token that instr searches for.
type JSONStringSlice []string

func (s JSONStringSlice) Value() (driver.Value, error) {
	if s == nil || len(s) == 0 {
		return "[]", nil
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode([]string(s)); err != nil {
		return nil, fmt.Errorf("sqltypes.JSONStringSlice: could not encode as JSON: %w", err)
	}

	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func (s *JSONStringSlice) Scan(src interface{}) error {
	switch src := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		if err := json.Unmarshal(src, s); err != nil {
			return fmt.Errorf("sqltypes.JSONStringSlice: could not decode input (%T) as JSON: %w", src, err)
		}
		return nil
	case string:
		if err := json.Unmarshal([]byte(src), s); err != nil {
			return fmt.Errorf("sqltypes.JSONStringSlice: could not decode input (%T) as JSON: %w", src, err)
		}
		return nil
	default:
		return fmt.Errorf("sqltypes.JSONStringSlice: could not scan input type of %T", src)
	}
}
