// Package version identifies the service in logs and telemetry.
package version

const (
	Name    = "carjoy-api"
	Version = "0.1.0"
)
