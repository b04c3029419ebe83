package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// localDateTime is how the backend writes timestamps that carry no offset.
const localDateTime = "2006-01-02T15:04:05.999999999"

// Timestamp decodes RFC 3339 and offset-less backend timestamps. The latter
// are read in the local zone.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.ParseInLocation(localDateTime, raw, time.Local)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", raw, err)
	}
	t.Time = parsed
	return nil
}
