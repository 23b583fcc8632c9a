package risk

import (
	"fmt"
	"math"
	"sync"

	"github.com/grbuguj/Sinker-IOT/internal/domain/model"
	"github.com/grbuguj/Sinker-IOT/internal/domain/thresholds"
)

// Strategy names accepted by Select.
const (
	StrategyFusion = "fusion"
	StrategyDelta  = "delta"
)

// Strategy computes a risk level for a reading against a threshold
// snapshot. Implementations may keep state between calls (the delta
// strategy does); the pipeline always uses exactly one strategy.
type Strategy interface {
	Classify(r model.Reading, t thresholds.Snapshot) (model.RiskLevel, error)
}

// Select returns the strategy for a configured name.
func Select(name string) (Strategy, error) {
	switch name {
	case "", StrategyFusion:
		return Fusion{}, nil
	case StrategyDelta:
		return NewDelta(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Fusion is the canonical stateless weighted-fusion strategy.
type Fusion struct{}

// Classify delegates to the pure fusion classifier.
func (Fusion) Classify(r model.Reading, t thresholds.Snapshot) (model.RiskLevel, error) {
	return Classify(r, t)
}

// Delta is the alternative stateful strategy: independent per-channel
// levels (absolute moisture and vibration cutoffs, acceleration and
// angular-rate deltas relative to the immediately preceding reading), the
// overall result being the maximum of the four. It must be selected
// explicitly; the first reading has no predecessor and scores zero on the
// delta channels.
type Delta struct {
	mu   sync.Mutex
	prev *model.Reading
}

// NewDelta creates a delta strategy with no previous reading.
func NewDelta() *Delta {
	return &Delta{}
}

// Classify computes the max-of-four channel level and records the reading
// as the predecessor for the next call.
func (d *Delta) Classify(r model.Reading, t thresholds.Snapshot) (model.RiskLevel, error) {
	if err := Validate(r); err != nil {
		return model.RiskNormal, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	level := cutoffLevel(r.Moisture, t.MoistureAbsWarning, t.MoistureAbsDanger)
	if v := cutoffLevel(r.VibrationRaw, t.VibrationWarning, t.VibrationDanger); v > level {
		level = v
	}
	if d.prev != nil {
		accelDelta := maxAxisDelta(r.Accel, d.prev.Accel)
		if v := cutoffLevel(accelDelta, t.AccelDeltaWarning, t.AccelDeltaDanger); v > level {
			level = v
		}
		gyroDelta := maxAxisDelta(r.Gyro, d.prev.Gyro)
		if v := cutoffLevel(gyroDelta, t.GyroDeltaWarning, t.GyroDeltaDanger); v > level {
			level = v
		}
	}

	prev := r
	d.prev = &prev
	return level, nil
}

// cutoffLevel maps a value onto warning/danger cutoffs, inclusive toward
// the more severe level.
func cutoffLevel(value, warning, danger float64) model.RiskLevel {
	switch {
	case value >= danger:
		return model.RiskDanger
	case value >= warning:
		return model.RiskWarning
	default:
		return model.RiskNormal
	}
}

// maxAxisDelta returns the largest absolute per-axis change between two
// three-axis samples.
func maxAxisDelta(cur, prev model.Vector3) float64 {
	dx := math.Abs(cur.X - prev.X)
	dy := math.Abs(cur.Y - prev.Y)
	dz := math.Abs(cur.Z - prev.Z)
	return math.Max(dx, math.Max(dy, dz))
}
