package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the layout the backend serializes database times with.
const TimestampLayout = "2006-01-02 15:04:05"

var timestampLayouts = []string{
	TimestampLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
}

var jsonNull = []byte("null")

// ID is an opaque identifier. The backend sends ids either as JSON strings
// or as numbers; both decode into the same textual form.
type ID string

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the identifier text.
func (id ID) String() string {
	return string(id)
}

// Timestamp is a nullable backend time. The original text is kept so a
// record posted back to the backend carries the value it was given.
type Timestamp struct {
	time.Time
	raw string
}

// NewTimestamp returns a set timestamp formatted the way the backend does.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t, raw: t.Format(TimestampLayout)}
}

// IsSet reports whether the backend supplied a non-empty value.
func (t Timestamp) IsSet() bool {
	return t.raw != ""
}

// Raw returns the value as the backend sent it.
func (t Timestamp) Raw() string {
	return t.raw
}

// UnmarshalJSON accepts null, an empty string or a time string in one of the
// backend layouts. Unparseable text is kept as raw with a zero time.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	*t = Timestamp{}
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode timestamp: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t.raw = s
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			break
		}
	}
	return nil
}

// MarshalJSON writes null for an unset timestamp.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.IsSet() {
		return jsonNull, nil
	}
	return json.Marshal(t.raw)
}

// Flag is the backend's boolean-ish column: true/false, 0/1, "0"/"1" or null.
type Flag bool

// UnmarshalJSON accepts booleans, numbers, numeric or boolean strings and null.
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, jsonNull):
		*f = false
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode flag: %w", err)
		}
		return f.parse(s)
	default:
		return f.parse(string(data))
	}
}

func (f *Flag) parse(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "false", "no":
		*f = false
		return nil
	case "true", "yes":
		*f = true
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("decode flag %q: %w", s, err)
	}
	*f = n != 0
	return nil
}

// Text decodes any JSON scalar into its textual form. Error records carry
// a status that is sometimes an HTTP code and sometimes a word.
type Text string

// UnmarshalJSON accepts strings, numbers, booleans and null.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode text: %w", err)
		}
		*t = Text(s)
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode text: %w", err)
	}
	if n, ok := v.(float64); ok {
		*t = Text(strconv.FormatFloat(n, 'f', -1, 64))
		return nil
	}
	*t = Text(string(data))
	return nil
}

// EncodedList is a column that holds a JSON array encoded as a string
// (website_data, errors). Some backends send the array itself; both forms
// decode, and the original form is kept for re-encoding.
type EncodedList struct {
	text      string
	wasString bool
}

// NewEncodedList encodes v as the string form the backend stores.
func NewEncodedList(v any) (EncodedList, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return EncodedList{}, fmt.Errorf("encode list: %w", err)
	}
	return EncodedList{text: string(data), wasString: true}, nil
}

// IsEmpty reports whether the column is null or blank.
func (l EncodedList) IsEmpty() bool {
	return strings.TrimSpace(l.text) == ""
}

// Text returns the encoded JSON array text.
func (l EncodedList) Text() string {
	return l.text
}

// Decode unmarshals the array into dst. An empty column leaves dst untouched.
func (l EncodedList) Decode(dst any) error {
	if l.IsEmpty() {
		return nil
	}
	if err := json.Unmarshal([]byte(l.text), dst); err != nil {
		return fmt.Errorf("decode encoded list: %w", err)
	}
	return nil
}

// UnmarshalJSON accepts null, a string holding JSON, or a raw array.
func (l *EncodedList) UnmarshalJSON(data []byte) error {
	*l = EncodedList{}
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode encoded list: %w", err)
		}
		l.text = s
		l.wasString = true
		return nil
	}
	l.text = string(data)
	return nil
}

// MarshalJSON writes the column back in the form it arrived in.
func (l EncodedList) MarshalJSON() ([]byte, error) {
	if l.IsEmpty() {
		return jsonNull, nil
	}
	if l.wasString {
		return json.Marshal(l.text)
	}
	return []byte(l.text), nil
}
