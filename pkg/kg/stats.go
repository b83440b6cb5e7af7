package kg

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mlkg-org/backend/pkg/common"
)

// GraphStats summarizes an assembled graph for logging and the stats
// endpoint.
type GraphStats struct {
	Entities             int            `json:"entities"`
	Relations            int            `json:"relations"`
	Triples              int            `json:"triples"`
	EntitiesByType       map[string]int `json:"entities_by_type"`
	RelationsByPredicate map[string]int `json:"relations_by_predicate"`
}

// ComputeStats derives graph statistics from the assembled graph and its
// inputs.
func ComputeStats(entities []common.CanonicalEntity, relations []common.Relation, g *Graph) GraphStats {
	stats := GraphStats{
		Entities:             len(entities),
		Relations:            len(relations),
		Triples:              g.Len(),
		EntitiesByType:       make(map[string]int),
		RelationsByPredicate: make(map[string]int),
	}
	for _, e := range entities {
		stats.EntitiesByType[e.Type]++
	}
	for _, r := range relations {
		stats.RelationsByPredicate[r.Predicate]++
	}
	return stats
}

// Report renders the statistics as a human-readable multi-line summary.
func (s GraphStats) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "entities: %d\nrelations: %d\ntriples: %d\n", s.Entities, s.Relations, s.Triples)

	b.WriteString("entities by type:\n")
	for _, line := range sortedCounts(s.EntitiesByType) {
		b.WriteString(line)
	}
	b.WriteString("relations by predicate:\n")
	for _, line := range sortedCounts(s.RelationsByPredicate) {
		b.WriteString(line)
	}
	return b.String()
}

// sortedCounts renders counts descending, ties alphabetically.
func sortedCounts(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("  %s: %d\n", k, counts[k]))
	}
	return lines
}
