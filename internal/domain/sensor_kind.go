package domain

import (
	"fmt"
	"strings"
)

// SensorKind 传感器类型
type SensorKind string

const (
	SensorAcceleration      SensorKind = "acceleration"
	SensorEngineTempNormal  SensorKind = "engine-temp-normal"
	SensorEngineTempProfile SensorKind = "engine-temp-profile"
)

// legacy firmware names (ADXL345 accelerometer, MAX6675 thermocouple)
var legacySensorKinds = map[string]SensorKind{
	"adxl":        SensorAcceleration,
	"max_normal":  SensorEngineTempNormal,
	"max_profile": SensorEngineTempProfile,
}

// ParseSensorKind normalizes a wire value (case-insensitive) into a SensorKind.
func ParseSensorKind(s string) (SensorKind, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch SensorKind(v) {
	case SensorAcceleration, SensorEngineTempNormal, SensorEngineTempProfile:
		return SensorKind(v), nil
	}
	if k, ok := legacySensorKinds[v]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSensorKind, s)
}

func (k SensorKind) String() string { return string(k) }
