package notify

import (
	"time"

	"datalens/domain/core"
)

// Level of a user-facing notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notification is a toast raised by the pipeline. It travels on a side
// channel and is never stored on a dataset.
type Notification struct {
	SessionID core.SessionID `json:"sessionId"`
	Level     Level          `json:"level"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	DatasetID core.DatasetID `json:"datasetId,omitempty"`
	At        time.Time      `json:"at"`
}
