package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ============================================================
// Timestamp — tagged union over the date shapes the stores emit
// ============================================================

// TimestampKind tells which representation a Timestamp was built from.
type TimestampKind int

const (
	TimestampEmpty TimestampKind = iota
	TimestampNative
	TimestampISO
	TimestampServer
	TimestampUnixMillis
	TimestampInvalid
)

func (k TimestampKind) String() string {
	switch k {
	case TimestampEmpty:
		return "empty"
	case TimestampNative:
		return "native"
	case TimestampISO:
		return "iso_string"
	case TimestampServer:
		return "server_timestamp"
	case TimestampUnixMillis:
		return "unix_millis"
	default:
		return "invalid"
	}
}

// isoLayouts are tried in order when parsing string dates.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp holds a date in one of several wire representations.
// Decoding never fails; call Time to normalize and surface bad input.
type Timestamp struct {
	Kind TimestampKind
	t    time.Time
	raw  string
}

// NativeTimestamp wraps an already-parsed time. The zero time is empty.
func NativeTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{Kind: TimestampEmpty}
	}
	return Timestamp{Kind: TimestampNative, t: t}
}

// ServerTimestamp builds a timestamp from a seconds/nanoseconds pair.
func ServerTimestamp(seconds, nanos int64) Timestamp {
	return Timestamp{Kind: TimestampServer, t: time.Unix(seconds, nanos).UTC()}
}

// ParseTimestamp interprets a string date. Unknown formats produce an
// invalid timestamp that keeps the raw value for error reporting.
func ParseTimestamp(s string) Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{Kind: TimestampEmpty}
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Kind: TimestampISO, t: t, raw: s}
		}
	}
	return Timestamp{Kind: TimestampInvalid, raw: s}
}

// Time normalizes the timestamp to a time.Time.
func (ts Timestamp) Time() (time.Time, error) {
	switch ts.Kind {
	case TimestampNative, TimestampISO, TimestampServer, TimestampUnixMillis:
		return ts.t, nil
	case TimestampEmpty:
		return time.Time{}, &ErrInvalidTimestamp{Reason: "missing value"}
	default:
		return time.Time{}, &ErrInvalidTimestamp{Raw: ts.raw, Reason: "unrecognized format"}
	}
}

// OrZero returns the normalized time, or the zero time when it cannot be normalized.
func (ts Timestamp) OrZero() time.Time {
	t, err := ts.Time()
	if err != nil {
		return time.Time{}
	}
	return t
}

// IsZero reports whether the timestamp carries no usable date.
func (ts Timestamp) IsZero() bool {
	_, err := ts.Time()
	return err != nil
}

// MarshalJSON always emits RFC3339 (or null), whatever the input shape was.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	t, err := ts.Time()
	if err != nil {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

type serverTimestampJSON struct {
	Seconds      *int64 `json:"seconds"`
	Nanoseconds  int64  `json:"nanoseconds"`
	USeconds     *int64 `json:"_seconds"`
	UNanoseconds int64  `json:"_nanoseconds"`
}

// UnmarshalJSON accepts null, ISO strings, unix milliseconds and
// {seconds,nanoseconds} objects.
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*ts = Timestamp{Kind: TimestampEmpty}
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*ts = Timestamp{Kind: TimestampInvalid, raw: string(b)}
			return nil
		}
		*ts = ParseTimestamp(s)
	case b[0] == '{':
		var st serverTimestampJSON
		if err := json.Unmarshal(b, &st); err != nil {
			*ts = Timestamp{Kind: TimestampInvalid, raw: string(b)}
			return nil
		}
		switch {
		case st.Seconds != nil:
			*ts = ServerTimestamp(*st.Seconds, st.Nanoseconds)
		case st.USeconds != nil:
			*ts = ServerTimestamp(*st.USeconds, st.UNanoseconds)
		default:
			*ts = Timestamp{Kind: TimestampInvalid, raw: string(b)}
		}
	default:
		ms, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			*ts = Timestamp{Kind: TimestampInvalid, raw: string(b)}
			return nil
		}
		*ts = Timestamp{Kind: TimestampUnixMillis, t: time.UnixMilli(ms).UTC()}
	}
	return nil
}
