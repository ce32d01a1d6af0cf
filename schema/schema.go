/*
Package schema is the single mapping layer between the SmartEdu backend's
snake_case JSON and the client's Go types.

Every entity has one wire struct (the exact backend shape) and one decoder
that validates required fields before producing the domain value. No other
package reads backend JSON directly.
*/
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrEmptyData means the response envelope carried no entity (null or absent data)
	ErrEmptyData = errors.New("response has no data")
	// ErrInvalidEntity means the payload does not have the entity's expected shape
	ErrInvalidEntity = errors.New("invalid entity payload")
)

// Envelope is the backend's response wrapper
type Envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
}

// DataOf extracts the data member of a response body. Null or absent data
// yields ErrEmptyData.
func DataOf(body []byte) (json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntity, err)
	}
	if isEmptyJSON(env.Data) {
		return nil, ErrEmptyData
	}
	return env.Data, nil
}

// MessageOf returns the message member of a body, or "" when the body is not
// a JSON object carrying one.
func MessageOf(body []byte) string {
	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	if env.Message != "" {
		return env.Message
	}
	return env.Error
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) ||
		bytes.Equal(trimmed, []byte("{}")) || bytes.Equal(trimmed, []byte("[]"))
}

// ID is an entity identifier. The backend emits both numbers and strings.
type ID string

// UnmarshalJSON accepts a JSON string or number
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the identifier as a string
func (id ID) String() string {
	return string(id)
}

// Timestamp parses the backend's time formats and leaves the zero time for
// empty values.
type Timestamp time.Time

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON accepts RFC3339 and the common SQL layouts
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// Unix seconds
		n, nerr := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
		if nerr != nil {
			if string(bytes.TrimSpace(b)) == "null" {
				*ts = Timestamp{}
				return nil
			}
			return fmt.Errorf("invalid timestamp %s", b)
		}
		*ts = Timestamp(time.Unix(n, 0).UTC())
		return nil
	}
	if s == "" {
		*ts = Timestamp{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*ts = Timestamp(t)
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

// MarshalJSON writes RFC3339, or null for the zero time
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	t := time.Time(ts)
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

func decodeStrict(raw json.RawMessage, dst interface{}) error {
	if isEmptyJSON(raw) {
		return ErrEmptyData
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntity, err)
	}
	return nil
}

func missing(entity string, fields ...string) error {
	return fmt.Errorf("%w: %s missing %s", ErrInvalidEntity, entity, strings.Join(fields, ", "))
}

// Time returns the parsed time, or the zero time for a nil timestamp
func (ts *Timestamp) Time() time.Time {
	if ts == nil {
		return time.Time{}
	}
	return time.Time(*ts)
}
