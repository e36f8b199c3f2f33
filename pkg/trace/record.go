package trace

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrSerialization is returned when a record cannot be encoded or a
// stored member cannot be decoded.
var ErrSerialization = errors.New("record serialization failed")

// TimeFormat is the timestamp layout stored on records: RFC 3339 with
// millisecond precision. Part of the wire contract.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// KeyPrefix prefixes every application collection key. Part of the
// wire contract; existing stored data depends on it.
const KeyPrefix = "traces:"

// Key returns the ordered-collection key for an application's records.
func Key(app string) string {
	return KeyPrefix + app
}

// Record is the persisted, denormalized representation of one captured
// event. Optional fields marshal as JSON null when unset, matching the
// records already in the store.
type Record struct {
	Timestamp   string  `json:"timestamp"`
	Level       string  `json:"level"`
	Message     string  `json:"message"`
	SpanID      *string `json:"span_id"`
	TraceID     string  `json:"trace_id"`
	SpanName    *string `json:"span_name"`
	JobID       *string `json:"job_id"`
	ServiceName *string `json:"service_name"`
}

// Score converts the record's timestamp into the epoch-millisecond
// ordering score used by the store collection.
func (r Record) Score() (float64, error) {
	t, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return 0, fmt.Errorf("%w: timestamp %q: %v", ErrSerialization, r.Timestamp, err)
	}
	return float64(t.UnixMilli()), nil
}

// Encode serializes the record to its stored JSON form.
func (r Record) Encode() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return string(b), nil
}

// DecodeRecord parses one stored collection member.
func DecodeRecord(member string) (Record, error) {
	var r Record
	if err := json.Unmarshal([]byte(member), &r); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return r, nil
}

// FormatLine renders the stable single-line form used by inspection
// tooling: "timestamp - [level] - trace_id - span_name: message".
func (r Record) FormatLine() string {
	spanName := ""
	if r.SpanName != nil {
		spanName = *r.SpanName
	}
	return fmt.Sprintf("%s - [%s] - %s - %s: %s", r.Timestamp, r.Level, r.TraceID, spanName, r.Message)
}
