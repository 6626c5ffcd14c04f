package vision

import (
	"context"

	"photoscan/internal/store"
)

// Detection is one recognized occupant of a photo. Face detections carry
// an embedding and bounding box; pet detections carry only a label parsed
// from the describer output.
type Detection struct {
	Type            store.EntityType
	Label           string
	Embedding       []float64
	BoundingBoxJSON string
	Confidence      float64
}

// Describer produces the raw description text for an image.
type Describer interface {
	Describe(ctx context.Context, imagePath string) (string, error)
}

// Recognizer extracts face detections from an image.
type Recognizer interface {
	Represent(ctx context.Context, imagePath string) ([]Detection, error)
}
