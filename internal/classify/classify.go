// Package classify routes fingerprinted files into exactly one of the
// new/duplicate/skip buckets ahead of enrichment.
package classify

import "photoscan/internal/fingerprint"

// Kind is the classification outcome for one file.
type Kind string

const (
	KindNew       Kind = "new"
	KindDuplicate Kind = "duplicate"
	KindSkip      Kind = "skip"
)

// Skip reasons surfaced in quarantine views and logs.
const (
	ReasonScreenshot = "screenshot"
	ReasonUnreadable = "unreadable"
)

// Decision assigns a file to one bucket. OriginalPhotoID is set only for
// duplicates; Reason only for skips.
type Decision struct {
	Kind            Kind
	OriginalPhotoID int64
	Reason          string
}

// Classifier consults known content hashes to route files. It is seeded
// from the store and fed each new commit so duplicates are caught within a
// single scan batch: first occurrence by discovery order wins as original.
type Classifier struct {
	known map[string]int64
}

// New builds a classifier over the given hash -> original photo id map.
// The map is owned by the classifier after the call.
func New(known map[string]int64) *Classifier {
	if known == nil {
		known = make(map[string]int64)
	}
	return &Classifier{known: known}
}

// Classify applies the decision order top-down, first match wins:
// screenshot, then known hash, then new.
func (c *Classifier) Classify(fp fingerprint.Fingerprint) Decision {
	if fp.IsScreenshot {
		return Decision{Kind: KindSkip, Reason: ReasonScreenshot}
	}
	if originalID, ok := c.known[fp.Hash]; ok {
		return Decision{Kind: KindDuplicate, OriginalPhotoID: originalID}
	}
	return Decision{Kind: KindNew}
}

// Observe records a committed photo's hash so later files in the same batch
// classify as duplicates of it. The first observation for a hash sticks.
func (c *Classifier) Observe(hash string, photoID int64) {
	if hash == "" {
		return
	}
	if _, ok := c.known[hash]; !ok {
		c.known[hash] = photoID
	}
}
