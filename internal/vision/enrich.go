package vision

import (
	"context"
	"time"

	"photoscan/internal/store"
)

// Result is the enrichment outcome for one photo. Either service may
// fail independently; the respective error is retained and the rest of
// the result stays usable. Model is always populated so the history row
// records which model ran, even when it returned nothing.
type Result struct {
	Description  string
	Model        string
	Detections   []Detection
	DescribeErr  error
	RecognizeErr error
}

// Failed reports whether both services came back empty-handed.
func (r Result) Failed() bool {
	return r.DescribeErr != nil && r.RecognizeErr != nil
}

// Enricher runs the describer and recognizer for a photo under one
// shared deadline.
type Enricher struct {
	describer  Describer
	recognizer Recognizer
	model      string
	timeout    time.Duration
}

// NewEnricher combines the two AI services. A non-positive timeout
// disables the per-photo deadline.
func NewEnricher(describer Describer, recognizer Recognizer, model string, timeout time.Duration) *Enricher {
	return &Enricher{
		describer:  describer,
		recognizer: recognizer,
		model:      model,
		timeout:    timeout,
	}
}

// Enrich describes and recognizes one photo. Pet labels parsed from the
// description text become pet detections without embeddings.
func (e *Enricher) Enrich(ctx context.Context, imagePath string) Result {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	result := Result{Model: e.model}

	text, err := e.describer.Describe(ctx, imagePath)
	if err != nil {
		result.DescribeErr = err
	} else {
		result.Description = text
		for _, label := range ParsePetLabels(text) {
			result.Detections = append(result.Detections, Detection{
				Type:  store.EntityPet,
				Label: label,
			})
		}
	}

	faces, err := e.recognizer.Represent(ctx, imagePath)
	if err != nil {
		result.RecognizeErr = err
	} else {
		result.Detections = append(result.Detections, faces...)
	}
	return result
}
