package pgx

import (
	"context"

	"github.com/mlkg-org/backend/pkg/common"
	"github.com/mlkg-org/backend/pkg/logger"
)

const upsertEntitySQL = `
INSERT INTO entities (public_id, label, type, surface_forms, provenance)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (public_id) DO UPDATE SET
    label = EXCLUDED.label,
    type = EXCLUDED.type,
    surface_forms = EXCLUDED.surface_forms,
    provenance = EXCLUDED.provenance,
    updated_at = now()`

const insertRelationSQL = `
INSERT INTO relations (subject_id, predicate, object_id, confidence, provenance)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (subject_id, predicate, object_id) DO UPDATE SET
    confidence = EXCLUDED.confidence,
    provenance = EXCLUDED.provenance`

// SaveGraph replaces the stored graph in one transaction. Entities absent
// from the new graph are removed, which cascades to their relations.
func (s *GraphDBStorage) SaveGraph(
	ctx context.Context,
	entities []common.CanonicalEntity,
	relations []common.Relation,
) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	keep := make([]string, 0, len(entities))
	for _, e := range entities {
		if _, err := tx.Exec(ctx, upsertEntitySQL,
			e.ID, e.Label, e.Type, e.SurfaceForms, e.Provenance); err != nil {
			return err
		}
		keep = append(keep, e.ID)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM entities WHERE public_id != ALL($1)`, keep); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM relations`); err != nil {
		return err
	}
	for _, r := range relations {
		if _, err := tx.Exec(ctx, insertRelationSQL,
			r.SubjectID, r.Predicate, r.ObjectID, r.Confidence, r.Provenance); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	logger.Info("[Store] Graph saved", "entities", len(entities), "relations", len(relations))
	return nil
}

// LoadGraph returns the stored graph in deterministic order.
func (s *GraphDBStorage) LoadGraph(ctx context.Context) ([]common.CanonicalEntity, []common.Relation, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT public_id, label, type, surface_forms, provenance
		FROM entities ORDER BY public_id`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var entities []common.CanonicalEntity
	for rows.Next() {
		var e common.CanonicalEntity
		if err := rows.Scan(&e.ID, &e.Label, &e.Type, &e.SurfaceForms, &e.Provenance); err != nil {
			return nil, nil, err
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	relRows, err := s.conn.Query(ctx, `
		SELECT subject_id, predicate, object_id, confidence, provenance
		FROM relations ORDER BY subject_id, predicate, object_id`)
	if err != nil {
		return nil, nil, err
	}
	defer relRows.Close()

	var relations []common.Relation
	for relRows.Next() {
		var r common.Relation
		if err := relRows.Scan(&r.SubjectID, &r.Predicate, &r.ObjectID, &r.Confidence, &r.Provenance); err != nil {
			return nil, nil, err
		}
		relations = append(relations, r)
	}
	if err := relRows.Err(); err != nil {
		return nil, nil, err
	}

	return entities, relations, nil
}

// SaveSerialization stores one rendered export per format.
func (s *GraphDBStorage) SaveSerialization(ctx context.Context, format string, content string) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	_, err := s.conn.Exec(ctx, `
		INSERT INTO serializations (format, content, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (format) DO UPDATE SET content = EXCLUDED.content, updated_at = now()`,
		format, content)
	return err
}

// LoadSerialization returns the stored export for a format.
func (s *GraphDBStorage) LoadSerialization(ctx context.Context, format string) (string, error) {
	var content string
	err := s.conn.QueryRow(ctx,
		`SELECT content FROM serializations WHERE format = $1`, format).Scan(&content)
	if err != nil {
		return "", err
	}
	return content, nil
}
