package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/stacklok/layermap-scraper/internal/target"
	"github.com/stacklok/layermap-scraper/internal/versions"
)

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func readinessHandler(status StatusProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if !status.Ready() {
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
				Error: "no reconcile cycle has completed yet",
			})
			return
		}
		writeJSON(w, http.StatusOK, ReadinessResponse{Status: "ready"})
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	info := versions.GetVersionInfo()
	writeJSON(w, http.StatusOK, VersionResponse{
		Version:   info.Version,
		Commit:    info.Commit,
		BuildDate: info.BuildDate,
		GoVersion: info.GoVersion,
		Platform:  info.Platform,
	})
}

func targetsHandler(status StatusProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		keys := status.ActiveTargets()
		if keys == nil {
			keys = []target.Key{}
		}
		writeJSON(w, http.StatusOK, TargetsResponse{Count: len(keys), Targets: keys})
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}
