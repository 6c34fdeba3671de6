package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/itchan-dev/forllm/shared/logger"
)

// ErrorResponse is the body the API sends with non-2xx statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Flag accepts JSON booleans as well as the 0/1 integers sqlite rows carry.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1", `"1"`, `"true"`:
		*f = true
	case "false", "0", `"0"`, `"false"`, "null", `""`:
		*f = false
	default:
		return fmt.Errorf("cannot use %s as a boolean flag", data)
	}
	return nil
}

// Timestamp accepts RFC 3339 and the "YYYY-MM-DD HH:MM:SS" form sqlite produces.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// OptionalId is a nullable id that may arrive as a number or a numeric string.
// Non-numeric strings (legacy persona labels) decode to nil and are kept in Dropped.
type OptionalId struct {
	Value   *int64
	Dropped string
}

func (o *OptionalId) UnmarshalJSON(data []byte) error {
	o.Dropped = ""
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		o.Value = nil
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		o.Value = nil
		o.Dropped = s
		return nil
	}
	o.Value = &v
	return nil
}

// warnDropped logs a non-numeric id that was read as absent.
func (o OptionalId) warnDropped(field string, postId int64) {
	if o.Dropped == "" {
		return
	}
	logger.Log.Warn("non-numeric id ignored",
		"component", "api",
		"field", field,
		"post_id", postId,
		"value", o.Dropped)
}

func (o OptionalId) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}
