package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"photoscan/internal/logging"
	"photoscan/internal/store"
	"photoscan/internal/vision"
)

// DefaultMatchThreshold is the cosine distance below which a face is
// considered the same person.
const DefaultMatchThreshold = 0.40

// Registry resolves detections against the entities already on record.
type Registry struct {
	store     *store.Store
	threshold float64
	logger    *slog.Logger
}

// NewRegistry builds a registry over the store. A non-positive threshold
// falls back to the default.
func NewRegistry(s *store.Store, threshold float64, logger *slog.Logger) *Registry {
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{store: s, threshold: threshold, logger: logger}
}

// Resolve maps each detection to an entity id, creating unknowns as
// needed, and returns the pending links plus the JSON name snapshot for
// the history row. Entities created here are visible to later photos in
// the same scan because they commit immediately.
func (r *Registry) Resolve(ctx context.Context, detections []vision.Detection) ([]store.LinkInsert, string, error) {
	if len(detections) == 0 {
		return nil, "[]", nil
	}

	people, err := r.store.EntitiesByType(ctx, store.EntityPerson)
	if err != nil {
		return nil, "", fmt.Errorf("load people: %w", err)
	}
	pets, err := r.store.EntitiesByType(ctx, store.EntityPet)
	if err != nil {
		return nil, "", fmt.Errorf("load pets: %w", err)
	}

	var (
		links []store.LinkInsert
		names []string
		seen  = make(map[int64]struct{})
	)
	appendLink := func(entity *store.Entity, boundingBoxJSON string) {
		// A photo links each entity at most once, even when two
		// detections resolve to the same identity.
		if _, dup := seen[entity.ID]; dup {
			return
		}
		seen[entity.ID] = struct{}{}
		links = append(links, store.LinkInsert{EntityID: entity.ID, BoundingBoxJSON: boundingBoxJSON})
		names = append(names, entity.Name)
	}

	for _, det := range detections {
		switch det.Type {
		case store.EntityPet:
			entity, err := r.resolvePet(ctx, det, &pets)
			if err != nil {
				return nil, "", err
			}
			appendLink(entity, "")
		case store.EntityPerson:
			entity, err := r.resolvePerson(ctx, det, &people)
			if err != nil {
				return nil, "", err
			}
			appendLink(entity, det.BoundingBoxJSON)
		}
	}

	snapshot, err := json.Marshal(names)
	if err != nil {
		return nil, "", fmt.Errorf("encode entity snapshot: %w", err)
	}
	return links, string(snapshot), nil
}

func (r *Registry) resolvePet(ctx context.Context, det vision.Detection, pets *[]*store.Entity) (*store.Entity, error) {
	name := "Unknown " + det.Label
	for _, entity := range *pets {
		if entity.Name == name {
			return entity, nil
		}
	}
	entity, err := r.store.CreateEntity(ctx, store.EntityPet, name, "")
	if err != nil {
		return nil, fmt.Errorf("create pet entity: %w", err)
	}
	r.logger.Debug("new pet entity", logging.String("name", entity.Name), logging.Int64("entity_id", entity.ID))
	*pets = append(*pets, entity)
	return entity, nil
}

func (r *Registry) resolvePerson(ctx context.Context, det vision.Detection, people *[]*store.Entity) (*store.Entity, error) {
	if best := r.closestPerson(det.Embedding, *people); best != nil {
		return best, nil
	}

	index, err := r.store.NextUnknownIndex(ctx, store.EntityPerson)
	if err != nil {
		return nil, fmt.Errorf("next unknown index: %w", err)
	}
	encoded, err := json.Marshal(det.Embedding)
	if err != nil {
		return nil, fmt.Errorf("encode embedding: %w", err)
	}
	name := fmt.Sprintf("%s%d", store.UnknownNamePrefix(store.EntityPerson), index)
	entity, err := r.store.CreateEntity(ctx, store.EntityPerson, name, string(encoded))
	if err != nil {
		return nil, fmt.Errorf("create person entity: %w", err)
	}
	r.logger.Debug("new person entity", logging.String("name", entity.Name), logging.Int64("entity_id", entity.ID))
	*people = append(*people, entity)
	return entity, nil
}

// closestPerson returns the entity with the smallest cosine distance
// under the threshold, or nil when nothing matches. Entities without a
// stored embedding never match.
func (r *Registry) closestPerson(embedding []float64, people []*store.Entity) *store.Entity {
	var (
		best     *store.Entity
		bestDist = math.Inf(1)
	)
	for _, entity := range people {
		if entity.EmbeddingJSON == "" {
			continue
		}
		var stored []float64
		if err := json.Unmarshal([]byte(entity.EmbeddingJSON), &stored); err != nil {
			continue
		}
		dist := CosineDistance(embedding, stored)
		if dist < r.threshold && dist < bestDist {
			best = entity
			bestDist = dist
		}
	}
	return best
}

// Rename relabels one entity. Two entities renamed to the same string
// stay distinct ids.
func (r *Registry) Rename(ctx context.Context, id int64, newName string) error {
	return r.store.RenameEntity(ctx, id, newName)
}

// Delete removes one entity by id; links cascade, photos survive.
func (r *Registry) Delete(ctx context.Context, id int64) (bool, error) {
	return r.store.DeleteEntity(ctx, id)
}

// DeleteByName removes every entity carrying the name and returns how
// many were removed.
func (r *Registry) DeleteByName(ctx context.Context, name string) (int64, error) {
	return r.store.DeleteEntitiesByName(ctx, name)
}

// CosineDistance computes 1 - cosine similarity. Mismatched lengths and
// zero-norm vectors are treated as maximally distant.
func CosineDistance(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
