package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"photoscan/internal/store"
)

func TestRecognizerRepresentFiltersDetections(t *testing.T) {
	imagePath := writeTestImage(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/represent" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		payload := map[string]any{
			"detections": []any{
				map[string]any{
					"embedding":       []float64{0.1, 0.2, 0.3},
					"facial_area":     map[string]any{"x": 10, "y": 20, "w": 40, "h": 40, "left_eye": []int{15, 30}, "right_eye": []int{35, 30}},
					"face_confidence": 0.97,
				},
				// Below the confidence floor.
				map[string]any{
					"embedding":       []float64{0.4, 0.5, 0.6},
					"facial_area":     map[string]any{"x": 1, "y": 1, "w": 5, "h": 5, "left_eye": []int{2, 2}, "right_eye": []int{4, 2}},
					"face_confidence": 0.5,
				},
				// No eye landmarks.
				map[string]any{
					"embedding":       []float64{0.7, 0.8, 0.9},
					"facial_area":     map[string]any{"x": 1, "y": 1, "w": 5, "h": 5},
					"face_confidence": 0.99,
				},
				// No embedding.
				map[string]any{
					"facial_area":     map[string]any{"x": 1, "y": 1, "w": 5, "h": 5, "left_eye": []int{2, 2}, "right_eye": []int{4, 2}},
					"face_confidence": 0.99,
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	rec := NewSidecarRecognizer(RecognizerConfig{BaseURL: server.URL, MinConfidence: 0.85}, nil)
	detections, err := rec.Represent(context.Background(), imagePath)
	if err != nil {
		t.Fatalf("Represent returned error: %v", err)
	}
	if len(detections) != 1 {
		t.Fatalf("expected 1 surviving detection, got %d", len(detections))
	}
	det := detections[0]
	if det.Type != store.EntityPerson {
		t.Fatalf("expected person detection, got %s", det.Type)
	}
	if len(det.Embedding) != 3 || det.Confidence != 0.97 {
		t.Fatalf("unexpected detection: %#v", det)
	}
	var area map[string]any
	if err := json.Unmarshal([]byte(det.BoundingBoxJSON), &area); err != nil {
		t.Fatalf("bounding box not valid JSON: %v", err)
	}
	if area["x"] != float64(10) {
		t.Fatalf("bounding box lost coordinates: %v", area)
	}
}

func TestRecognizerRepresentServerError(t *testing.T) {
	imagePath := writeTestImage(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	rec := NewSidecarRecognizer(RecognizerConfig{BaseURL: server.URL, MinConfidence: 0.85}, nil)
	if _, err := rec.Represent(context.Background(), imagePath); err == nil {
		t.Fatal("expected error from server failure")
	}
}

func TestRecognizerRepresentNoFaces(t *testing.T) {
	imagePath := writeTestImage(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"detections": []any{}})
	}))
	defer server.Close()

	rec := NewSidecarRecognizer(RecognizerConfig{BaseURL: server.URL, MinConfidence: 0.85}, nil)
	detections, err := rec.Represent(context.Background(), imagePath)
	if err != nil {
		t.Fatalf("Represent returned error: %v", err)
	}
	if len(detections) != 0 {
		t.Fatalf("expected no detections, got %d", len(detections))
	}
}
