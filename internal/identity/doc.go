// Package identity clusters face and pet detections into named entities.
// Faces match by cosine distance against stored embeddings; pets match by
// label. Unrecognized detections mint "Unknown Person N" / "Unknown <Pet>"
// entities.
package identity
