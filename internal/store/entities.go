package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CreateEntity inserts a new identity and returns it with its id assigned.
func (s *Store) CreateEntity(ctx context.Context, typ EntityType, name, embeddingJSON string) (*Entity, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("invalid entity type %q", typ)
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("entity name must not be empty")
	}
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO entities (type, name, embedding_json) VALUES (?, ?, ?)`,
		string(typ),
		name,
		nullableString(embeddingJSON),
	)
	if err != nil {
		return nil, fmt.Errorf("insert entity: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &Entity{ID: id, Type: typ, Name: name, EmbeddingJSON: embeddingJSON}, nil
}

// EntityByID fetches one entity.
func (s *Store) EntityByID(ctx context.Context, id int64) (*Entity, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT id, type, name, embedding_json FROM entities WHERE id = ?`, id)
	entity, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entity: %w", err)
	}
	return entity, nil
}

// EntitiesByType returns every entity of one type ordered by id, the order
// clustering compares candidates in.
func (s *Store) EntitiesByType(ctx context.Context, typ EntityType) ([]*Entity, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT id, type, name, embedding_json FROM entities WHERE type = ? ORDER BY id`,
		string(typ),
	)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	var entities []*Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, rows.Err()
}

// EntitySummaries returns every entity with its photo occurrence count.
func (s *Store) EntitySummaries(ctx context.Context) ([]EntitySummary, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT e.id, e.type, e.name, COUNT(l.photo_id)
         FROM entities e
         LEFT JOIN entity_links l ON l.entity_id = e.id
         GROUP BY e.id
         ORDER BY e.type, e.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("query entity summaries: %w", err)
	}
	defer rows.Close()

	var summaries []EntitySummary
	for rows.Next() {
		var summary EntitySummary
		var typ string
		if err := rows.Scan(&summary.ID, &typ, &summary.Name, &summary.PhotoCount); err != nil {
			return nil, err
		}
		summary.Type = EntityType(typ)
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// RenameEntity relabels one entity in place. No merge happens when another
// entity already carries the new name; ids stay distinct.
func (s *Store) RenameEntity(ctx context.Context, id int64, newName string) error {
	if strings.TrimSpace(newName) == "" {
		return errors.New("entity name must not be empty")
	}
	res, err := s.execWithRetry(ctx, `UPDATE entities SET name = ? WHERE id = ?`, newName, id)
	if err != nil {
		return fmt.Errorf("rename entity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("entity %d not found", id)
	}
	return nil
}

// DeleteEntity removes one entity; its links cascade, photos survive.
func (s *Store) DeleteEntity(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM entities WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete entity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteEntitiesByName removes every entity carrying the given name,
// cascading their links.
func (s *Store) DeleteEntitiesByName(ctx context.Context, name string) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM entities WHERE name = ?`, name)
	if err != nil {
		return 0, fmt.Errorf("delete entities by name: %w", err)
	}
	return res.RowsAffected()
}

// LinksForPhoto returns the entity occurrences recorded for one photo.
func (s *Store) LinksForPhoto(ctx context.Context, photoID int64) ([]EntityLink, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT l.photo_id, l.entity_id, e.type, e.name, COALESCE(l.bounding_box_json, '')
         FROM entity_links l
         JOIN entities e ON e.id = l.entity_id
         WHERE l.photo_id = ?
         ORDER BY l.entity_id`,
		photoID,
	)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var links []EntityLink
	for rows.Next() {
		var link EntityLink
		var typ string
		if err := rows.Scan(&link.PhotoID, &link.EntityID, &typ, &link.EntityName, &link.BoundingBoxJSON); err != nil {
			return nil, err
		}
		link.EntityType = EntityType(typ)
		links = append(links, link)
	}
	return links, rows.Err()
}

// NextUnknownIndex derives the next "Unknown {Type} {n}" counter for a type
// from the entity table itself, so deletes never leave the counter stale.
func (s *Store) NextUnknownIndex(ctx context.Context, typ EntityType) (int, error) {
	prefix := UnknownNamePrefix(typ)
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT name FROM entities WHERE type = ? AND name LIKE ?`,
		string(typ),
		prefix+"%",
	)
	if err != nil {
		return 0, fmt.Errorf("query unknown names: %w", err)
	}
	defer rows.Close()

	max := 0
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return 0, err
		}
		suffix := strings.TrimSpace(strings.TrimPrefix(name, prefix))
		if n, err := strconv.Atoi(suffix); err == nil && n > max {
			max = n
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	return max + 1, nil
}

// UnknownNamePrefix returns the display prefix for auto-named entities of a
// type, e.g. "Unknown Person ".
func UnknownNamePrefix(typ EntityType) string {
	switch typ {
	case EntityPet:
		return "Unknown Pet "
	default:
		return "Unknown Person "
	}
}

func scanEntity(scanner interface{ Scan(dest ...any) error }) (*Entity, error) {
	var (
		entity    Entity
		typ       string
		embedding sql.NullString
	)
	if err := scanner.Scan(&entity.ID, &typ, &entity.Name, &embedding); err != nil {
		return nil, err
	}
	entity.Type = EntityType(typ)
	entity.EmbeddingJSON = embedding.String
	return &entity, nil
}
