// Package model contains domain models passed between layers.
package model

import "time"

// Vector3 holds one three-axis sensor sample.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Reading is one multi-sensor telemetry sample as produced by an edge
// device. It is a value type and never mutated after construction.
type Reading struct {
	Moisture     float64 // soil moisture, lower raw value means wetter
	Accel        Vector3 // acceleration, m/s^2-ish units
	Gyro         Vector3 // angular rate
	VibrationRaw float64 // vibration sensor raw value
	Timestamp    string  // optional client-supplied ISO-8601 timestamp
}

// RiskLevel is the classification output. Levels are totally ordered:
// Normal < Warning < Danger.
type RiskLevel int

const (
	RiskNormal  RiskLevel = 0
	RiskWarning RiskLevel = 1
	RiskDanger  RiskLevel = 2
)

// String returns a human-readable label for the level.
func (l RiskLevel) String() string {
	switch l {
	case RiskNormal:
		return "normal"
	case RiskWarning:
		return "warning"
	case RiskDanger:
		return "danger"
	default:
		return "unknown"
	}
}

// Record is one classified, persisted reading. Records are created only by
// the ingestion pipeline after classification and persistence both
// succeeded, and are never mutated afterwards. Field names mirror the wire
// shape pushed to live subscribers and returned by history queries.
type Record struct {
	ID           int64     `json:"id"`
	Moisture     float64   `json:"moisture"`
	AccelX       float64   `json:"accel_x"`
	AccelY       float64   `json:"accel_y"`
	AccelZ       float64   `json:"accel_z"`
	GyroX        float64   `json:"gyro_x"`
	GyroY        float64   `json:"gyro_y"`
	GyroZ        float64   `json:"gyro_z"`
	VibrationRaw float64   `json:"vibration_raw"`
	RiskLevel    RiskLevel `json:"risk_level"`
	CreatedAt    time.Time `json:"created_at"`
}

// Reading reconstructs the sensor sample carried by the record.
func (r Record) Reading() Reading {
	return Reading{
		Moisture:     r.Moisture,
		Accel:        Vector3{X: r.AccelX, Y: r.AccelY, Z: r.AccelZ},
		Gyro:         Vector3{X: r.GyroX, Y: r.GyroY, Z: r.GyroZ},
		VibrationRaw: r.VibrationRaw,
	}
}
