package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"photoscan/internal/store"
)

const defaultRecognizeTimeout = 20 * time.Second

// RecognizerConfig captures the runtime settings for the face embedding
// sidecar.
type RecognizerConfig struct {
	BaseURL        string
	TimeoutSeconds int
	MinConfidence  float64
}

// SidecarRecognizer talks to the face embedding sidecar over HTTP.
type SidecarRecognizer struct {
	cfg        RecognizerConfig
	httpClient *http.Client
}

// NewSidecarRecognizer constructs a recognizer using the supplied
// configuration.
func NewSidecarRecognizer(cfg RecognizerConfig, httpClient *http.Client) *SidecarRecognizer {
	timeout := defaultRecognizeTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &SidecarRecognizer{
		cfg: RecognizerConfig{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			TimeoutSeconds: cfg.TimeoutSeconds,
			MinConfidence:  cfg.MinConfidence,
		},
		httpClient: httpClient,
	}
}

type representRequest struct {
	Image string `json:"image"`
}

type representResponse struct {
	Detections []representDetection `json:"detections"`
	Error      string               `json:"error"`
}

type representDetection struct {
	Embedding      []float64       `json:"embedding"`
	FacialArea     json.RawMessage `json:"facial_area"`
	FaceConfidence float64         `json:"face_confidence"`
}

type facialArea struct {
	LeftEye  []int `json:"left_eye"`
	RightEye []int `json:"right_eye"`
}

// Represent extracts face detections from the image. Detections without
// an embedding, without both eye landmarks, or below the configured
// confidence floor are dropped; detectors hallucinate boxes without them.
func (r *SidecarRecognizer) Represent(ctx context.Context, imagePath string) ([]Detection, error) {
	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, imagePath, err)
	}
	encoded, err := json.Marshal(representRequest{Image: base64.StdEncoding.EncodeToString(raw)})
	if err != nil {
		return nil, fmt.Errorf("recognizer request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/represent", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("recognizer request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: recognizer: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("recognizer request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: recognizer: http %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var decoded representResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("recognizer request: decode response: %w", err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("%w: recognizer: %s", ErrUnavailable, strings.TrimSpace(decoded.Error))
	}

	detections := make([]Detection, 0, len(decoded.Detections))
	for _, det := range decoded.Detections {
		if len(det.Embedding) == 0 {
			continue
		}
		if det.FaceConfidence <= r.cfg.MinConfidence {
			continue
		}
		var area facialArea
		if err := json.Unmarshal(det.FacialArea, &area); err != nil {
			continue
		}
		if len(area.LeftEye) == 0 || len(area.RightEye) == 0 {
			continue
		}
		detections = append(detections, Detection{
			Type:            store.EntityPerson,
			Embedding:       det.Embedding,
			BoundingBoxJSON: string(det.FacialArea),
			Confidence:      det.FaceConfidence,
		})
	}
	return detections, nil
}
