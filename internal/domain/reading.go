package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// HandshakePayload announces a device on any sensor channel.
const HandshakePayload = "hello"

// Reading is a decoded sensor payload "{epochSeconds};{value}".
type Reading struct {
	Timestamp int64
	Value     float64
}

// IsHandshake reports whether payload is the first-contact announcement.
func IsHandshake(payload []byte) bool {
	return strings.TrimSpace(string(payload)) == HandshakePayload
}

// ParseReading decodes a two-field payload. Anything else is ErrMalformedPayload.
func ParseReading(payload []byte) (Reading, error) {
	fields := strings.Split(strings.TrimSpace(string(payload)), ";")
	if len(fields) != 2 {
		return Reading{}, fmt.Errorf("%w: want 2 fields, got %d", ErrMalformedPayload, len(fields))
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: timestamp %q", ErrMalformedPayload, fields[0])
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Reading{}, fmt.Errorf("%w: value %q", ErrMalformedPayload, fields[1])
	}
	return Reading{Timestamp: ts, Value: v}, nil
}
