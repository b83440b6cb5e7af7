package relation

import (
	"sort"

	"github.com/mlkg-org/backend/pkg/common"
)

// MergeCandidates collapses candidates sharing the same
// (subject, predicate, object) into one relation each.
//
// Confidence treats observations as independent evidence:
// 1 - prod(1 - c_i), clamped to [0,1]. Provenance is the sorted union of
// contributing chunk ids. Output order is deterministic (sorted by key).
func MergeCandidates(candidates []common.RelationCandidate) []common.Relation {
	type acc struct {
		survival float64
		chunks   map[string]struct{}
	}

	merged := make(map[string]*acc)
	proto := make(map[string]common.Relation)
	for _, c := range candidates {
		rel := common.Relation{
			SubjectID: c.SubjectID,
			Predicate: c.Predicate,
			ObjectID:  c.ObjectID,
		}
		key := rel.Key()
		a, ok := merged[key]
		if !ok {
			a = &acc{survival: 1, chunks: make(map[string]struct{})}
			merged[key] = a
			proto[key] = rel
		}
		a.survival *= 1 - c.Confidence
		a.chunks[c.ChunkID] = struct{}{}
	}

	relations := make([]common.Relation, 0, len(merged))
	for key, a := range merged {
		rel := proto[key]
		rel.Confidence = clamp01(1 - a.survival)
		rel.Provenance = make([]string, 0, len(a.chunks))
		for chunk := range a.chunks {
			rel.Provenance = append(rel.Provenance, chunk)
		}
		sort.Strings(rel.Provenance)
		relations = append(relations, rel)
	}

	sort.Slice(relations, func(i, j int) bool { return relations[i].Key() < relations[j].Key() })
	return relations
}
