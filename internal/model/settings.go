package model

import "time"

// Recognized workspace setting keys.
const (
	SettingRecallAlpha     = "recall_alpha"
	SettingRecallThreshold = "recall_threshold"
)

// DefaultRecallAlpha is the hybrid keyword/vector blend weight when unset.
const DefaultRecallAlpha = 0.5

// DefaultRecallThreshold disables threshold filtering when unset.
const DefaultRecallThreshold = 0.0

// AccessLogRow is one append-only row recording that a memory was served.
type AccessLogRow struct {
	ID       string
	MemoryID string
	Query    string
	At       time.Time
}
