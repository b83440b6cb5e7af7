package canon

import (
	"fmt"
	"sort"

	"github.com/mlkg-org/backend/internal/util"
	"github.com/mlkg-org/backend/pkg/common"
	"github.com/mlkg-org/backend/pkg/vocab"
)

// entityGroup is one oracle (or fallback) grouping decision inside a batch.
type entityGroup struct {
	label    string
	typ      string
	clusters []rawCluster
}

// batchResult holds everything one worker produced for its batch. Workers
// write only their own result slot; nothing here is shared.
type batchResult struct {
	index            int
	groups           []entityGroup
	degraded         bool
	oracleCalls      int
	schemaViolations int
}

type mergedEntity struct {
	label        string
	labelWeight  int
	typeVotes    map[string]int
	typeMentions map[string]int
	surfaces     map[string]struct{}
	chunks       map[string]struct{}
	order        int
}

// mergeBatchResults folds per-batch groups into global entities keyed by
// the normalized canonical label, then assigns stable identifiers.
//
// When batches disagree on a label's type, the majority of group votes
// wins; remaining ties go to the type backing more mentions, then to the
// lexicographically smaller type name.
func mergeBatchResults(results []batchResult) []common.CanonicalEntity {
	merged := make(map[string]*mergedEntity)
	order := 0

	for _, res := range results {
		for _, g := range res.groups {
			key := util.NormalizeSurface(g.label)
			if key == "" {
				continue
			}
			me, ok := merged[key]
			if !ok {
				me = &mergedEntity{
					typeVotes:    make(map[string]int),
					typeMentions: make(map[string]int),
					surfaces:     make(map[string]struct{}),
					chunks:       make(map[string]struct{}),
					order:        order,
				}
				merged[key] = me
				order++
			}

			weight := 0
			for _, cl := range g.clusters {
				weight += cl.count
				for _, s := range cl.surfaces {
					me.surfaces[s] = struct{}{}
				}
				for _, c := range cl.chunks {
					me.chunks[c] = struct{}{}
				}
			}
			if me.label == "" || weight > me.labelWeight ||
				(weight == me.labelWeight && g.label < me.label) {
				me.label = g.label
				me.labelWeight = weight
			}
			me.typeVotes[g.typ]++
			me.typeMentions[g.typ] += weight
		}
	}

	ordered := make([]*mergedEntity, 0, len(merged))
	for _, me := range merged {
		ordered = append(ordered, me)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].order < ordered[j].order })

	taken := make(map[string]int)
	entities := make([]common.CanonicalEntity, 0, len(ordered))
	for _, me := range ordered {
		entities = append(entities, common.CanonicalEntity{
			ID:           assignID(me.label, taken),
			Label:        me.label,
			Type:         electType(me.typeVotes, me.typeMentions),
			SurfaceForms: sortedKeys(me.surfaces),
			Provenance:   sortedKeys(me.chunks),
		})
	}

	sort.Slice(entities, func(i, j int) bool { return entities[i].ID < entities[j].ID })
	return entities
}

// assignID slugs the label and suffixes on collision, in creation order.
func assignID(label string, taken map[string]int) string {
	slug := util.Slug(label)
	if slug == "" {
		slug = "entity"
	}
	n := taken[slug]
	taken[slug] = n + 1
	if n == 0 {
		return slug
	}
	return fmt.Sprintf("%s_%d", slug, n+1)
}

func electType(votes, mentions map[string]int) string {
	best := ""
	for typ := range votes {
		if best == "" {
			best = typ
			continue
		}
		switch {
		case votes[typ] > votes[best]:
			best = typ
		case votes[typ] == votes[best] && mentions[typ] > mentions[best]:
			best = typ
		case votes[typ] == votes[best] && mentions[typ] == mentions[best] && typ < best:
			best = typ
		}
	}
	if best == "" {
		return vocab.TypeUnknown
	}
	return best
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
