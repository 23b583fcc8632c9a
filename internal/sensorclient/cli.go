package sensorclient

import (
	"os"
)

// ShowHelp prints usage information for the sensor client.
func ShowHelp() {
	os.Stdout.WriteString(`Sinker Sensor Client
====================

Edge producer: collects sensor readings and posts them to the ingestion
service, retrying transient failures.

Usage:
  go run cmd/sensor-client/main.go [options]

Options:
  -url string
        Ingest endpoint (default "http://localhost:8000/sensor")
  -interval duration
        Pause between cycles (default 5s)
  -retries int
        Send attempts per reading (default 3)
  -retry-delay duration
        Pause between attempts (default 2s)
  -timeout duration
        HTTP request timeout (default 10s)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run against a local service
  go run cmd/sensor-client/main.go

  # Faster cycles against a remote service
  go run cmd/sensor-client/main.go -url http://gateway:8000/sensor -interval 1s
`)
}
