// Package vocab holds the controlled vocabulary of the knowledge base:
// the closed set of entity types and the closed set of relation predicates.
// Every other stage validates oracle output against these sets.
package vocab

import "strings"

// TypeUnknown is assigned to entities produced by the degraded
// canonicalization fallback when the oracle is unavailable.
const TypeUnknown = "UNKNOWN"

// EntityTypes is the fixed set of entity type labels.
var EntityTypes = []string{
	"ALGORITHM",
	"CONCEPT",
	"PERSON",
	"ORGANIZATION",
	"SOFTWARE",
	"METRIC",
	"DATASET",
	"OTHER",
	TypeUnknown,
}

// Predicate is a single relation predicate with the gloss shown to the
// oracle when constraining extraction output.
type Predicate struct {
	Name  string
	Gloss string
}

// Predicates is the fixed set of relation predicates.
var Predicates = []Predicate{
	{"is_a", "X is a type of Y"},
	{"part_of", "X is part of Y"},
	{"subclass_of", "X is a subclass of Y"},
	{"uses", "X uses Y"},
	{"implements", "X implements Y"},
	{"optimizes", "X optimizes Y"},
	{"applies_to", "X applies to Y"},
	{"solves", "X solves Y"},
	{"requires", "X requires Y"},
	{"depends_on", "X depends on Y"},
	{"based_on", "X is based on Y"},
	{"extends", "X extends Y"},
	{"outperforms", "X outperforms Y"},
	{"compared_to", "X compared to Y"},
	{"equivalent_to", "X is equivalent to Y"},
	{"precedes", "X precedes Y"},
	{"evolved_from", "X evolved from Y"},
	{"trained_on", "X is trained on Y"},
	{"evaluated_on", "X is evaluated on Y"},
	{"measures", "X measures Y"},
	{"predicts", "X predicts Y"},
	{"created_by", "X was created by Y"},
	{"proposed_by", "X was proposed by Y"},
	{"developed_by", "X was developed by Y"},
}

var (
	entityTypeSet = make(map[string]string, len(EntityTypes))
	predicateSet  = make(map[string]string, len(Predicates))
)

func init() {
	for _, t := range EntityTypes {
		entityTypeSet[normalizeKey(t)] = t
	}
	for _, p := range Predicates {
		predicateSet[normalizeKey(p.Name)] = p.Name
	}
}

func normalizeKey(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	return strings.ReplaceAll(s, " ", "_")
}

// NormalizeEntityType maps an oracle-supplied type label to its canonical
// vocabulary form. The second return is false if the label is not a member.
func NormalizeEntityType(label string) (string, bool) {
	t, ok := entityTypeSet[normalizeKey(label)]
	return t, ok
}

// NormalizePredicate maps an oracle-supplied predicate to its canonical
// vocabulary form. The second return is false if the predicate is not a member.
func NormalizePredicate(name string) (string, bool) {
	p, ok := predicateSet[normalizeKey(name)]
	return p, ok
}

// IsEntityType reports whether label is a member of the entity type set.
func IsEntityType(label string) bool {
	_, ok := NormalizeEntityType(label)
	return ok
}

// IsPredicate reports whether name is a member of the predicate set.
func IsPredicate(name string) bool {
	_, ok := NormalizePredicate(name)
	return ok
}

// PredicateGlossList renders the predicate vocabulary as one "- name: gloss"
// line per predicate, for embedding into oracle prompts.
func PredicateGlossList() string {
	var b strings.Builder
	for _, p := range Predicates {
		b.WriteString("- ")
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(p.Gloss)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// EntityTypeList renders the entity type vocabulary as a comma-separated
// list for embedding into oracle prompts. TypeUnknown is excluded because
// the oracle must never assign it.
func EntityTypeList() string {
	types := make([]string, 0, len(EntityTypes)-1)
	for _, t := range EntityTypes {
		if t == TypeUnknown {
			continue
		}
		types = append(types, t)
	}
	return strings.Join(types, ",")
}
