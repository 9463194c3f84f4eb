package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// zone-less ISO forms emitted by python backends, read as UTC
var naiveFormats = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// NullTime is a timestamp that is null on the wire when zero.
type NullTime time.Time

func NewNullTime(t *time.Time) NullTime {
	if t == nil {
		return NullTime{}
	}

	return NullTime(*t)
}

func (x NullTime) Time() time.Time {
	return time.Time(x)
}

func (x NullTime) IsZero() bool {
	return time.Time(x).IsZero()
}

func (x NullTime) MarshalJSON() ([]byte, error) {
	if x.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(time.Time(x).UTC().Format(time.RFC3339))
}

func (x *NullTime) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*x = NullTime{}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	t, err := ParseTime(s)
	if err != nil {
		return err
	}

	*x = NullTime(t)

	return nil
}

// ParseTime reads RFC 3339 and the zone-less ISO form.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}

	for _, f := range naiveFormats {
		if t, err := time.ParseInLocation(f, s, time.UTC); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid time %q", s)
}
