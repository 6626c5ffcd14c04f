package classify_test

import (
	"testing"

	"photoscan/internal/classify"
	"photoscan/internal/fingerprint"
)

func TestDecisionOrderScreenshotWins(t *testing.T) {
	c := classify.New(map[string]int64{"hash-a": 7})

	// A screenshot whose hash is known still skips: order is top-down.
	d := c.Classify(fingerprint.Fingerprint{Hash: "hash-a", IsScreenshot: true})
	if d.Kind != classify.KindSkip || d.Reason != classify.ReasonScreenshot {
		t.Fatalf("unexpected decision: %#v", d)
	}
}

func TestKnownHashIsDuplicate(t *testing.T) {
	c := classify.New(map[string]int64{"hash-a": 7})

	d := c.Classify(fingerprint.Fingerprint{Hash: "hash-a"})
	if d.Kind != classify.KindDuplicate || d.OriginalPhotoID != 7 {
		t.Fatalf("unexpected decision: %#v", d)
	}

	d = c.Classify(fingerprint.Fingerprint{Hash: "hash-b"})
	if d.Kind != classify.KindNew {
		t.Fatalf("unknown hash should be new: %#v", d)
	}
}

func TestObserveCatchesSameBatchDuplicates(t *testing.T) {
	c := classify.New(nil)

	d := c.Classify(fingerprint.Fingerprint{Hash: "hash-a"})
	if d.Kind != classify.KindNew {
		t.Fatalf("first occurrence should be new: %#v", d)
	}
	c.Observe("hash-a", 42)

	d = c.Classify(fingerprint.Fingerprint{Hash: "hash-a"})
	if d.Kind != classify.KindDuplicate || d.OriginalPhotoID != 42 {
		t.Fatalf("second occurrence should duplicate the first: %#v", d)
	}

	// First observation wins; later observations never reassign the original.
	c.Observe("hash-a", 99)
	d = c.Classify(fingerprint.Fingerprint{Hash: "hash-a"})
	if d.OriginalPhotoID != 42 {
		t.Fatalf("original must stay stable: %#v", d)
	}
}
