package sensorclient

import "time"

// Config holds configuration for the edge sensor client.
type Config struct {
	ServerURL    string        // Ingest endpoint, e.g. http://host:8000/sensor
	SendInterval time.Duration // Pause between successful cycles
	MaxRetries   int           // Send attempts per reading before giving up
	RetryDelay   time.Duration // Fixed pause between attempts
	Timeout      time.Duration // HTTP request timeout
	Verbose      bool          // Enable verbose logging
}

// DefaultConfig returns the configuration used on a field device.
func DefaultConfig() *Config {
	return &Config{
		ServerURL:    "http://localhost:8000/sensor",
		SendInterval: 5 * time.Second,
		MaxRetries:   3,
		RetryDelay:   2 * time.Second,
		Timeout:      10 * time.Second,
	}
}

// ackResponse mirrors the ingest acknowledgement returned by the server.
type ackResponse struct {
	Status    string `json:"status"`
	ID        int64  `json:"id"`
	RiskLevel int    `json:"risk_level"`
	Message   string `json:"message"`
}

// Stats holds producer statistics across the run.
type Stats struct {
	CyclesRun   int
	TotalSent   int
	TotalFailed int
	StartTime   time.Time
	EndTime     time.Time
}

// SuccessRate returns the fraction of cycles whose reading was delivered.
func (s *Stats) SuccessRate() float64 {
	total := s.TotalSent + s.TotalFailed
	if total == 0 {
		return 0
	}
	return float64(s.TotalSent) / float64(total)
}
