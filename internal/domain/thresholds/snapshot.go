// Package thresholds holds the tunable numeric parameters used by risk
// classification and the store they are administered through.
package thresholds

import "fmt"

// Well-known threshold names. These are the keys used by the admin surface
// and the seed defaults; the classifier only ever sees the typed Snapshot.
const (
	NameTiltNormal         = "tilt_normal"
	NameTiltDanger         = "tilt_danger"
	NameMoistureNormal     = "moisture_normal"
	NameMoistureWarning    = "moisture_warning"
	NameVibrationThreshold = "vibration_threshold"
	NameWeightTilt         = "weight_tilt"
	NameWeightMoisture     = "weight_moisture"
	NameWeightVibration    = "weight_vibration"
	NameRiskNormalMax      = "risk_normal_max"
	NameRiskWarningMax     = "risk_warning_max"

	// Delta-strategy cutoffs, compared per channel against the previous
	// reading (or as absolute values for moisture and vibration).
	NameMoistureAbsWarning = "moisture_abs_warning"
	NameMoistureAbsDanger  = "moisture_abs_danger"
	NameVibrationWarning   = "vibration_warning"
	NameVibrationDanger    = "vibration_danger"
	NameAccelDeltaWarning  = "accel_delta_warning"
	NameAccelDeltaDanger   = "accel_delta_danger"
	NameGyroDeltaWarning   = "gyro_delta_warning"
	NameGyroDeltaDanger    = "gyro_delta_danger"
)

// Defaults returns the documented default value for every known threshold.
// The returned map is a fresh copy on every call.
func Defaults() map[string]float64 {
	return map[string]float64{
		NameTiltNormal:         6.0,
		NameTiltDanger:         8.0,
		NameMoistureNormal:     800.0,
		NameMoistureWarning:    750.0,
		NameVibrationThreshold: 1.0,
		NameWeightTilt:         0.5,
		NameWeightMoisture:     0.3,
		NameWeightVibration:    0.2,
		NameRiskNormalMax:      0.3,
		NameRiskWarningMax:     0.6,

		NameMoistureAbsWarning: 600.0,
		NameMoistureAbsDanger:  700.0,
		NameVibrationWarning:   1.0,
		NameVibrationDanger:    2.0,
		NameAccelDeltaWarning:  1.0,
		NameAccelDeltaDanger:   2.0,
		NameGyroDeltaWarning:   5.0,
		NameGyroDeltaDanger:    10.0,
	}
}

// Entry is one named threshold value. The name is unique within the store;
// upserts are last-write-wins.
type Entry struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Snapshot is an immutable, point-in-time copy of every tunable parameter.
// It is constructed once per classification call; concurrent store writes
// never change the values a classification already observed.
type Snapshot struct {
	TiltNormal         float64
	TiltDanger         float64
	MoistureNormal     float64
	MoistureWarning    float64
	VibrationThreshold float64
	WeightTilt         float64
	WeightMoisture     float64
	WeightVibration    float64
	RiskNormalMax      float64
	RiskWarningMax     float64

	MoistureAbsWarning float64
	MoistureAbsDanger  float64
	VibrationWarning   float64
	VibrationDanger    float64
	AccelDeltaWarning  float64
	AccelDeltaDanger   float64
	GyroDeltaWarning   float64
	GyroDeltaDanger    float64
}

// FromMap builds a Snapshot from named values, filling any missing name
// with its documented default.
func FromMap(values map[string]float64) Snapshot {
	get := func(name string) float64 {
		if v, ok := values[name]; ok {
			return v
		}
		return Defaults()[name]
	}
	return Snapshot{
		TiltNormal:         get(NameTiltNormal),
		TiltDanger:         get(NameTiltDanger),
		MoistureNormal:     get(NameMoistureNormal),
		MoistureWarning:    get(NameMoistureWarning),
		VibrationThreshold: get(NameVibrationThreshold),
		WeightTilt:         get(NameWeightTilt),
		WeightMoisture:     get(NameWeightMoisture),
		WeightVibration:    get(NameWeightVibration),
		RiskNormalMax:      get(NameRiskNormalMax),
		RiskWarningMax:     get(NameRiskWarningMax),
		MoistureAbsWarning: get(NameMoistureAbsWarning),
		MoistureAbsDanger:  get(NameMoistureAbsDanger),
		VibrationWarning:   get(NameVibrationWarning),
		VibrationDanger:    get(NameVibrationDanger),
		AccelDeltaWarning:  get(NameAccelDeltaWarning),
		AccelDeltaDanger:   get(NameAccelDeltaDanger),
		GyroDeltaWarning:   get(NameGyroDeltaWarning),
		GyroDeltaDanger:    get(NameGyroDeltaDanger),
	}
}

// Validate checks that the snapshot describes a usable parameter set.
func (s Snapshot) Validate() error {
	switch {
	case s.TiltDanger <= s.TiltNormal:
		return fmt.Errorf("%w: tilt_danger must exceed tilt_normal", ErrInvalidThreshold)
	case s.MoistureNormal <= s.MoistureWarning:
		return fmt.Errorf("%w: moisture_normal must exceed moisture_warning", ErrInvalidThreshold)
	case s.WeightTilt < 0 || s.WeightMoisture < 0 || s.WeightVibration < 0:
		return fmt.Errorf("%w: fusion weights must be non-negative", ErrInvalidThreshold)
	case s.RiskWarningMax <= s.RiskNormalMax:
		return fmt.Errorf("%w: risk_warning_max must exceed risk_normal_max", ErrInvalidThreshold)
	}
	return nil
}
