package api

import (
	"encoding/json"
	"time"
)

// ScanRequest starts a scan of a directory tree.
type ScanRequest struct {
	DirectoryPath string `json:"directory_path"`
	ForceRescan   bool   `json:"force_rescan"`
}

// ScanAccepted acknowledges a started scan.
type ScanAccepted struct {
	JobID string `json:"job_id"`
}

// Scan control actions.
const (
	ActionPause  = "pause"
	ActionResume = "resume"
	ActionCancel = "cancel"
)

// ScanControlRequest pauses, resumes, or cancels the running scan.
type ScanControlRequest struct {
	Action string `json:"action"`
}

// ScanStatus is the controller snapshot exposed over the wire.
type ScanStatus struct {
	State     string `json:"state"`
	JobID     string `json:"job_id,omitempty"`
	Directory string `json:"directory,omitempty"`
	Force     bool   `json:"force"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Pending   int    `json:"pending"`
}

// LogEvent is one structured log line from the daemon's stream buffer.
type LogEvent struct {
	Sequence  uint64            `json:"seq"`
	Timestamp time.Time         `json:"ts"`
	Level     string            `json:"level"`
	Message   string            `json:"msg"`
	Component string            `json:"component,omitempty"`
	Path      string            `json:"path,omitempty"`
	ScanID    string            `json:"scan_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// LogsResponse carries the most recent log events, oldest first.
type LogsResponse struct {
	Events []LogEvent `json:"events"`
}

// ScanHistoryEntry records the last scan of one directory root.
type ScanHistoryEntry struct {
	DirectoryPath string    `json:"directory_path"`
	LastScannedAt time.Time `json:"last_scanned_at"`
}

// ScanHistoryResponse lists every directory ever scanned.
type ScanHistoryResponse struct {
	History []ScanHistoryEntry `json:"history"`
}

// RenameEntityRequest relabels one entity by id.
type RenameEntityRequest struct {
	EntityID int64  `json:"entity_id"`
	NewName  string `json:"new_name"`
}

// DeleteEntitiesResponse reports how many entities a delete removed.
type DeleteEntitiesResponse struct {
	Deleted int64 `json:"deleted"`
}

// EntitySummary is one clustered identity with its occurrence count.
type EntitySummary struct {
	ID         int64  `json:"id"`
	Type       string `json:"type"`
	Name       string `json:"name"`
	PhotoCount int    `json:"photo_count"`
}

// EntitiesResponse lists every entity on record.
type EntitiesResponse struct {
	Entities []EntitySummary `json:"entities"`
}

// PhotoEntity is one entity occurrence in a photo.
type PhotoEntity struct {
	EntityID    int64           `json:"entity_id"`
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	BoundingBox json.RawMessage `json:"bounding_box,omitempty"`
}

// PhotoEntitiesResponse lists the entities linked to one photo.
type PhotoEntitiesResponse struct {
	PhotoID  int64         `json:"photo_id"`
	Entities []PhotoEntity `json:"entities"`
}

// DuplicateCopy is a quarantined byte-identical copy of a photo.
type DuplicateCopy struct {
	Filepath  string    `json:"filepath"`
	FileSize  int64     `json:"file_size"`
	ScannedAt time.Time `json:"scanned_at"`
}

// DuplicateGroup collects the copies seen for one content hash.
type DuplicateGroup struct {
	ContentHash      string          `json:"content_hash"`
	OriginalPhotoID  int64           `json:"original_photo_id"`
	OriginalFilepath string          `json:"original_filepath"`
	Copies           []DuplicateCopy `json:"copies"`
}

// DuplicatesResponse lists every duplicate group.
type DuplicatesResponse struct {
	Duplicates []DuplicateGroup `json:"duplicates"`
}

// SkippedItem is a file excluded from the gallery during a scan.
type SkippedItem struct {
	Filepath  string    `json:"filepath"`
	Reason    string    `json:"reason"`
	FileSize  int64     `json:"file_size"`
	ScannedAt time.Time `json:"scanned_at"`
}

// SkippedResponse lists every skipped file.
type SkippedResponse struct {
	Skipped []SkippedItem `json:"skipped"`
}

// DaemonStatus reports daemon-level state alongside the scan snapshot.
type DaemonStatus struct {
	Running      bool       `json:"running"`
	PID          int        `json:"pid"`
	DatabasePath string     `json:"database_path"`
	LockFilePath string     `json:"lock_file_path"`
	Scan         ScanStatus `json:"scan"`
}
