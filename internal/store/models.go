package store

import "time"

// EntityType distinguishes clustered identities.
type EntityType string

const (
	EntityPerson EntityType = "person"
	EntityPet    EntityType = "pet"
)

// Valid reports whether the entity type is one the schema accepts.
func (t EntityType) Valid() bool {
	return t == EntityPerson || t == EntityPet
}

// Photo is an accepted gallery file with its enrichment output.
type Photo struct {
	ID           int64
	Filepath     string
	ContentHash  string
	FileSize     int64
	Description  string
	AIModel      string
	DateTaken    string
	DateCreated  string
	DateModified string
	ScannedAt    time.Time
}

// Entity is a clustered identity recognized across the collection.
type Entity struct {
	ID            int64
	Type          EntityType
	Name          string
	EmbeddingJSON string
}

// EntityLink is one occurrence of an entity in a photo.
type EntityLink struct {
	PhotoID         int64
	EntityID        int64
	EntityType      EntityType
	EntityName      string
	BoundingBoxJSON string
}

// EntitySummary aggregates an entity with its photo occurrence count.
type EntitySummary struct {
	ID         int64
	Type       EntityType
	Name       string
	PhotoCount int
}

// HistoryEntry is one (photo, model) enrichment snapshot.
type HistoryEntry struct {
	PhotoID      int64
	AIModel      string
	Description  string
	EntitiesJSON string
	CreatedAt    time.Time
}

// DuplicateCopy is a file whose bytes match an already-accepted photo.
type DuplicateCopy struct {
	ID              int64
	ContentHash     string
	OriginalPhotoID int64
	Filepath        string
	FileSize        int64
	ScannedAt       time.Time
}

// DuplicateGroup collects every copy seen for one content hash.
type DuplicateGroup struct {
	ContentHash      string
	OriginalPhotoID  int64
	OriginalFilepath string
	Copies           []DuplicateCopy
}

// SkippedItem is a file excluded from the gallery during classification.
type SkippedItem struct {
	ID        int64
	Filepath  string
	Reason    string
	FileSize  int64
	ScannedAt time.Time
}

// ScanHistoryEntry records the last scan of a directory root.
type ScanHistoryEntry struct {
	DirectoryPath string
	LastScannedAt time.Time
}

// LinkInsert is one pending entity link for an enrichment commit.
type LinkInsert struct {
	EntityID        int64
	BoundingBoxJSON string
}

// EnrichmentCommit is the per-file unit of atomicity: photo row, entity
// links, and history row commit together or not at all.
type EnrichmentCommit struct {
	Filepath     string
	ContentHash  string
	FileSize     int64
	Description  string
	AIModel      string
	DateTaken    string
	DateCreated  string
	DateModified string
	Links        []LinkInsert
	// EntitiesJSON is the snapshot stored with the history row.
	EntitiesJSON string
}
