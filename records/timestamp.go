package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// naiveLayout is accepted in addition to RFC 3339 for strings without offset.
const naiveLayout = "2006-01-02T15:04:05"

// Timestamp is a point in time without timezone information. Stripe returns
// unix seconds, but resolved datetimes with an offset are also accepted. In
// both cases the wall clock is kept and the zone is dropped, so the value is
// always stored in the UTC location and two inputs that differ only in their
// offset compare equal.
type Timestamp struct {
	time.Time
}

// NewTimestamp returns the normalized form of t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: time.Date(t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)}
}

// Unix returns the timestamp for the given unix seconds.
func Unix(sec int64) Timestamp {
	return Timestamp{Time: time.Unix(sec, 0).UTC()}
}

// UnmarshalJSON accepts a unix integer or a datetime string. JSON null leaves
// the timestamp unset.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := parseDatetime(s)
		if err != nil {
			return err
		}
		*t = NewTimestamp(parsed)
		return nil
	}
	sec, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s", data)
	}
	*t = Unix(sec)
	return nil
}

// MarshalJSON encodes the timestamp as unix seconds, or null when unset.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(t.Unix(), 10)), nil
}

// Equal reports whether both timestamps hold the same wall clock.
func (t Timestamp) Equal(other Timestamp) bool {
	return t.Time.Equal(other.Time)
}

func parseDatetime(s string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return parsed, nil
	}
	if parsed, err := time.Parse(naiveLayout, s); err == nil {
		return parsed, nil
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// timestampValue exposes a Timestamp to the validator: unset timestamps are
// seen as nil so that required and omitempty behave as expected.
func timestampValue(field reflect.Value) any {
	t, ok := field.Interface().(Timestamp)
	if !ok || t.IsZero() {
		return nil
	}
	return t.Unix()
}
