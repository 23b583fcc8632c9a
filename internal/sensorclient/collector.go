package sensorclient

import (
	"crypto/rand"
	"math/big"
	"time"
)

// Constants for simulated sensor ranges.
const (
	randomFloatDivisor = 1000000

	moistureBase  = 500.0
	moistureRange = 400.0

	accelJitter = 2.0
	accelZBase  = 9.8
	gyroJitter  = 1.5

	vibrationBase  = 300.0
	vibrationRange = 500.0
)

// Reading is one telemetry sample in the wire schema POST /sensor expects.
type Reading struct {
	Moisture     float64 `json:"moisture"`
	Accel        Vector3 `json:"accel"`
	Gyro         Vector3 `json:"gyro"`
	VibrationRaw float64 `json:"vibration_raw"`
	Timestamp    string  `json:"timestamp"`
}

// Vector3 is a three-axis sample.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Collector produces one reading per cycle.
type Collector interface {
	Collect() (Reading, error)
}

// SimCollector synthesizes plausible sensor values. It stands in for the
// I2C/ADC hardware path on machines without the sensor board.
type SimCollector struct {
	now func() time.Time
}

// NewSimCollector creates a simulated collector.
func NewSimCollector() *SimCollector {
	return &SimCollector{now: time.Now}
}

// Collect returns one synthesized reading stamped with the local clock.
func (c *SimCollector) Collect() (Reading, error) {
	return Reading{
		Moisture: moistureBase + getRandomFloat()*moistureRange,
		Accel: Vector3{
			X: (getRandomFloat() - 0.5) * accelJitter,
			Y: (getRandomFloat() - 0.5) * accelJitter,
			Z: accelZBase + (getRandomFloat()-0.5)*accelJitter,
		},
		Gyro: Vector3{
			X: (getRandomFloat() - 0.5) * gyroJitter,
			Y: (getRandomFloat() - 0.5) * gyroJitter,
			Z: (getRandomFloat() - 0.5) * gyroJitter,
		},
		VibrationRaw: vibrationBase + getRandomFloat()*vibrationRange,
		Timestamp:    c.now().Format(time.RFC3339),
	}, nil
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}
