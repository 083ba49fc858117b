package pageserver

import "encoding/json"

// LaunchTimestampHeader carries the time the pageserver process started.
// It changes on every restart, so it tells scrapes of different processes apart.
const LaunchTimestampHeader = "PAGESERVER_LAUNCH_TIMESTAMP"

// ResetMode controls which layer access statistics the pageserver clears
// after returning them.
type ResetMode string

const (
	// NoReset leaves all statistics in place
	NoReset ResetMode = "NoReset"
	// JustTaskKindFlags clears only the task kind access flags
	JustTaskKindFlags ResetMode = "JustTaskKindFlags"
	// AllStats clears every statistic, so each scrape reports activity since the previous one
	AllStats ResetMode = "AllStats"
)

// IsValid reports whether the pageserver accepts the mode.
func (m ResetMode) IsValid() bool {
	switch m {
	case NoReset, JustTaskKindFlags, AllStats:
		return true
	default:
		return false
	}
}

// LayerMap is one snapshot of a timeline's layers.
type LayerMap struct {
	// LaunchID is the launch timestamp of the pageserver process, nil if it did not send one
	LaunchID *string
	// Payload is the response document as returned; it is never decoded beyond a validity check
	Payload json.RawMessage
}

type statusResponse struct {
	ID json.RawMessage `json:"id"`
}

type tenantInfo struct {
	ID string `json:"id"`
}

type timelineInfo struct {
	TimelineID string `json:"timeline_id"`
}
