package domain

import "time"

// Measurement is one accepted reading. Immutable once written.
type Measurement struct {
	ID         ID         `json:"id"`
	DeviceID   ID         `json:"-"`
	OwnerID    *ID        `json:"-"`
	Kind       SensorKind `json:"sensor_type"`
	Value      float64    `json:"value"`
	Timestamp  int64      `json:"timestamp"` // device clock, epoch seconds
	ReceivedAt time.Time  `json:"received_at"`
}

// NewMeasurement is the input of a sink append; the owner is resolved at write time.
type NewMeasurement struct {
	DeviceID  ID
	Kind      SensorKind
	Timestamp int64
	Value     float64
}

// Alert 已发送到设备的告警记录
type Alert struct {
	ID       ID        `json:"id"`
	DeviceID ID        `json:"-"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sent_at"`
}

// SortOrder for measurement listings.
type SortOrder string

const (
	NewestFirst SortOrder = "newest"
	OldestFirst SortOrder = "oldest"
)

// MeasurementQuery selects measurements of one device attributed to one owner.
// Zero From/To mean unbounded; empty Kinds means all kinds.
type MeasurementQuery struct {
	DeviceID ID
	OwnerID  ID
	Kinds    []SensorKind
	From     int64
	To       int64
	MinValue *float64 // strict greater-than
	Order    SortOrder
	Limit    int
}
