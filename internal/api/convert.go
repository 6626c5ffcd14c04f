package api

import (
	"encoding/json"

	"photoscan/internal/logging"
	"photoscan/internal/scanner"
	"photoscan/internal/store"
)

// FromScanStatus converts a controller snapshot to the wire type.
func FromScanStatus(status scanner.Status) ScanStatus {
	return ScanStatus{
		State:     string(status.State),
		JobID:     status.JobID,
		Directory: status.Directory,
		Force:     status.Force,
		Total:     status.Total,
		Processed: status.Processed,
		Pending:   status.Pending,
	}
}

// FromLogEvents converts buffered log events to the wire type.
func FromLogEvents(events []logging.LogEvent) []LogEvent {
	if len(events) == 0 {
		return nil
	}
	out := make([]LogEvent, 0, len(events))
	for _, evt := range events {
		out = append(out, LogEvent{
			Sequence:  evt.Sequence,
			Timestamp: evt.Timestamp,
			Level:     evt.Level,
			Message:   evt.Message,
			Component: evt.Component,
			Path:      evt.Path,
			ScanID:    evt.ScanID,
			Fields:    evt.Fields,
		})
	}
	return out
}

// FromScanHistory converts ledger rows to the wire type.
func FromScanHistory(entries []store.ScanHistoryEntry) []ScanHistoryEntry {
	out := make([]ScanHistoryEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, ScanHistoryEntry{
			DirectoryPath: entry.DirectoryPath,
			LastScannedAt: entry.LastScannedAt,
		})
	}
	return out
}

// FromEntitySummaries converts entity rows to the wire type.
func FromEntitySummaries(summaries []store.EntitySummary) []EntitySummary {
	out := make([]EntitySummary, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, EntitySummary{
			ID:         summary.ID,
			Type:       string(summary.Type),
			Name:       summary.Name,
			PhotoCount: summary.PhotoCount,
		})
	}
	return out
}

// FromEntityLinks converts per-photo entity occurrences to the wire type.
func FromEntityLinks(links []store.EntityLink) []PhotoEntity {
	out := make([]PhotoEntity, 0, len(links))
	for _, link := range links {
		entity := PhotoEntity{
			EntityID: link.EntityID,
			Type:     string(link.EntityType),
			Name:     link.EntityName,
		}
		if link.BoundingBoxJSON != "" {
			entity.BoundingBox = json.RawMessage(link.BoundingBoxJSON)
		}
		out = append(out, entity)
	}
	return out
}

// FromDuplicateGroups converts duplicate quarantine rows to the wire type.
func FromDuplicateGroups(groups []store.DuplicateGroup) []DuplicateGroup {
	out := make([]DuplicateGroup, 0, len(groups))
	for _, group := range groups {
		copies := make([]DuplicateCopy, 0, len(group.Copies))
		for _, c := range group.Copies {
			copies = append(copies, DuplicateCopy{
				Filepath:  c.Filepath,
				FileSize:  c.FileSize,
				ScannedAt: c.ScannedAt,
			})
		}
		out = append(out, DuplicateGroup{
			ContentHash:      group.ContentHash,
			OriginalPhotoID:  group.OriginalPhotoID,
			OriginalFilepath: group.OriginalFilepath,
			Copies:           copies,
		})
	}
	return out
}

// FromSkippedItems converts skip quarantine rows to the wire type.
func FromSkippedItems(items []store.SkippedItem) []SkippedItem {
	out := make([]SkippedItem, 0, len(items))
	for _, item := range items {
		out = append(out, SkippedItem{
			Filepath:  item.Filepath,
			Reason:    item.Reason,
			FileSize:  item.FileSize,
			ScannedAt: item.ScannedAt,
		})
	}
	return out
}
