// Package risk classifies sensor readings into risk levels.
//
// The canonical model is a weighted fusion of three normalized channel
// scores: tilt magnitude (primary indicator, weight 0.5), soil moisture
// (secondary, weight 0.3) and vibration (tertiary, weight 0.2). An
// alternative delta-based strategy exists for deployments that tuned the
// discrete per-channel cutoffs; the two are never mixed.
package risk

import (
	"fmt"
	"math"

	"github.com/grbuguj/Sinker-IOT/internal/domain/model"
	"github.com/grbuguj/Sinker-IOT/internal/domain/thresholds"
)

// Classify computes the fused risk level for one reading. It is pure:
// the result depends only on the reading and the threshold snapshot, and
// repeated calls always return the same level.
//
// Returns ErrInvalidReading when any input field is NaN or infinite.
func Classify(r model.Reading, t thresholds.Snapshot) (model.RiskLevel, error) {
	if err := Validate(r); err != nil {
		return model.RiskNormal, err
	}

	// Tilt magnitude is the Euclidean norm of the two horizontal axes.
	tilt := math.Hypot(r.Accel.X, r.Accel.Y)
	var tiltScore float64
	switch {
	case tilt < t.TiltNormal:
		tiltScore = 0
	case tilt >= t.TiltDanger:
		tiltScore = 1
	default:
		tiltScore = (tilt - t.TiltNormal) / (t.TiltDanger - t.TiltNormal)
	}

	// Moisture is inverse: a lower raw value means wetter soil, and wetter
	// soil is riskier.
	var moistureScore float64
	switch {
	case r.Moisture > t.MoistureNormal:
		moistureScore = 0
	case r.Moisture <= t.MoistureWarning:
		moistureScore = 1
	default:
		moistureScore = (t.MoistureNormal - r.Moisture) / (t.MoistureNormal - t.MoistureWarning)
	}

	var vibrationScore float64
	if r.VibrationRaw >= t.VibrationThreshold {
		vibrationScore = 1
	}

	score := t.WeightTilt*tiltScore +
		t.WeightMoisture*moistureScore +
		t.WeightVibration*vibrationScore

	// Cutoffs resolve toward the more severe tier.
	switch {
	case score >= t.RiskWarningMax:
		return model.RiskDanger, nil
	case score >= t.RiskNormalMax:
		return model.RiskWarning, nil
	default:
		return model.RiskNormal, nil
	}
}

// Validate rejects readings with NaN or infinite fields before any score
// math runs on them.
func Validate(r model.Reading) error {
	values := [...]float64{
		r.Moisture,
		r.Accel.X, r.Accel.Y, r.Accel.Z,
		r.Gyro.X, r.Gyro.Y, r.Gyro.Z,
		r.VibrationRaw,
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite sensor value", ErrInvalidReading)
		}
	}
	return nil
}
