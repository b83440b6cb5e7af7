package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mlkg-org/backend/internal/util"
	"github.com/mlkg-org/backend/pkg/common"
)

// Index resolves question mentions to canonical entities. Lookup order is
// exact id, exact label, known surface form, then fuzzy containment.
type Index struct {
	entities  []common.CanonicalEntity
	byID      map[string]common.CanonicalEntity
	byLabel   map[string]string
	bySurface map[string]string
}

// NewIndex builds a lookup index over the canonical entities.
func NewIndex(entities []common.CanonicalEntity) *Index {
	ix := &Index{
		entities:  entities,
		byID:      make(map[string]common.CanonicalEntity, len(entities)),
		byLabel:   make(map[string]string, len(entities)),
		bySurface: make(map[string]string),
	}
	for _, e := range entities {
		ix.byID[e.ID] = e
		ix.byLabel[util.NormalizeSurface(e.Label)] = e.ID
		for _, s := range e.SurfaceForms {
			norm := util.NormalizeSurface(s)
			if _, taken := ix.bySurface[norm]; !taken {
				ix.bySurface[norm] = e.ID
			}
		}
	}
	return ix
}

// Entities returns the indexed entities.
func (ix *Index) Entities() []common.CanonicalEntity {
	return ix.entities
}

// Get returns the entity with the given id.
func (ix *Index) Get(id string) (common.CanonicalEntity, bool) {
	e, ok := ix.byID[id]
	return e, ok
}

// Bind resolves a mention from a question to a canonical entity.
func (ix *Index) Bind(mention string) (common.CanonicalEntity, error) {
	norm := util.NormalizeSurface(mention)
	if norm == "" {
		return common.CanonicalEntity{}, fmt.Errorf("%w: empty mention", ErrEntityNotFound)
	}

	if e, ok := ix.byID[util.Slug(mention)]; ok {
		return e, nil
	}
	if id, ok := ix.byLabel[norm]; ok {
		return ix.byID[id], nil
	}
	if id, ok := ix.bySurface[norm]; ok {
		return ix.byID[id], nil
	}
	if e, ok := ix.fuzzy(norm); ok {
		return e, nil
	}
	return common.CanonicalEntity{}, fmt.Errorf("%w: %q", ErrEntityNotFound, mention)
}

// fuzzy matches by containment in either direction. Among candidates the
// shortest label wins, ties broken by id, so binding stays deterministic.
func (ix *Index) fuzzy(norm string) (common.CanonicalEntity, bool) {
	var candidates []common.CanonicalEntity
	for _, e := range ix.entities {
		label := util.NormalizeSurface(e.Label)
		if strings.Contains(label, norm) || strings.Contains(norm, label) {
			candidates = append(candidates, e)
			continue
		}
		for _, s := range e.SurfaceForms {
			sn := util.NormalizeSurface(s)
			if strings.Contains(sn, norm) || strings.Contains(norm, sn) {
				candidates = append(candidates, e)
				break
			}
		}
	}
	if len(candidates) == 0 {
		return common.CanonicalEntity{}, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		li, lj := len(candidates[i].Label), len(candidates[j].Label)
		if li != lj {
			return li < lj
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates[0], true
}
