package api

import "github.com/stacklok/layermap-scraper/internal/target"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is returned by endpoints that cannot answer
type ErrorResponse struct {
	Error string `json:"error"`
}

// VersionResponse represents the version information response
type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// TargetsResponse lists the timelines with a running poll task
type TargetsResponse struct {
	Count   int          `json:"count"`
	Targets []target.Key `json:"targets"`
}
