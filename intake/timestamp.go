package intake

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/araddon/dateparse"
)

// TimestampLayout is how lead timestamps are written to the sheet.
const TimestampLayout = "2006-01-02 15:04:05"

// ParseTimestamp reads a caller-supplied timestamp. Strings may be in any
// layout dateparse understands; zone-less strings are read as UTC. Numbers are
// epoch milliseconds. Anything empty, zero or unparseable yields now.
func ParseTimestamp(raw json.RawMessage, now time.Time) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return now
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return now
		}
		t, err := dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return now
		}
		return t
	default:
		var ms float64
		if err := json.Unmarshal(raw, &ms); err != nil || ms == 0 {
			return now
		}
		return time.UnixMilli(int64(ms))
	}
}
