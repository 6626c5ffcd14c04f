// Package vision talks to the AI services that enrich photos: an Ollama
// vision model for descriptions and a face embedding sidecar for
// recognition. The Enricher combines both under a single deadline.
package vision
