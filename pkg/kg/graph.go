// Package kg assembles canonical entities and merged relations into an
// RDF-style triple graph and serializes it to Turtle, N-Triples and
// JSON-LD. All three serializations carry the same triple set, so parsing
// any of them yields a graph equal to the source.
package kg

import "sort"

// Triple is one (subject, predicate, object) statement. Subject and
// Predicate are full URIs. Object is a full URI unless ObjectLiteral is
// set, in which case it is a plain string literal.
type Triple struct {
	Subject       string
	Predicate     string
	Object        string
	ObjectLiteral bool
}

func (t Triple) key() string {
	marker := "u"
	if t.ObjectLiteral {
		marker = "l"
	}
	return t.Subject + "\x00" + t.Predicate + "\x00" + marker + "\x00" + t.Object
}

// Graph is a deduplicated set of triples.
type Graph struct {
	triples []Triple
	seen    map[string]struct{}
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{seen: make(map[string]struct{})}
}

// Add inserts a triple unless an identical one is already present.
// It reports whether the triple was new.
func (g *Graph) Add(t Triple) bool {
	key := t.key()
	if _, ok := g.seen[key]; ok {
		return false
	}
	g.seen[key] = struct{}{}
	g.triples = append(g.triples, t)
	return true
}

// Len returns the number of distinct triples.
func (g *Graph) Len() int {
	return len(g.triples)
}

// Triples returns the triples sorted by subject, predicate, object.
func (g *Graph) Triples() []Triple {
	out := make([]Triple, len(g.triples))
	copy(out, g.triples)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		if out[i].Predicate != out[j].Predicate {
			return out[i].Predicate < out[j].Predicate
		}
		if out[i].Object != out[j].Object {
			return out[i].Object < out[j].Object
		}
		return !out[i].ObjectLiteral && out[j].ObjectLiteral
	})
	return out
}

// Equal reports whether two graphs carry the same triple set.
func (g *Graph) Equal(other *Graph) bool {
	if g.Len() != other.Len() {
		return false
	}
	for key := range g.seen {
		if _, ok := other.seen[key]; !ok {
			return false
		}
	}
	return true
}
