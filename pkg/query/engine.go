package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mlkg-org/backend/pkg/kg"
)

// Term is one bound value in a query solution: a URI or a literal.
type Term struct {
	Value   string
	Literal bool
}

// Row maps selected variable names (without the "?") to bound terms.
// A variable an optional pattern failed to bind is absent.
type Row map[string]Term

// Execute runs a template against the graph with the given parameters and
// returns deduplicated rows in deterministic order.
//
// Parameters map names (without the "$") to full URIs. A pattern
// referencing an unknown parameter is an error; an empty result set is not.
func Execute(g *kg.Graph, tmpl Template, params map[string]string) ([]Row, error) {
	branches := [][]TriplePattern{tmpl.Where}
	if len(tmpl.Union) > 0 {
		branches = nil
		for _, u := range tmpl.Union {
			branches = append(branches, append(append([]TriplePattern{}, tmpl.Where...), u...))
		}
	}

	triples := g.Triples()
	var solutions []map[string]Term
	for _, patterns := range branches {
		resolved, err := resolvePatterns(patterns, params)
		if err != nil {
			return nil, err
		}
		solutions = append(solutions, matchAll(triples, resolved, map[string]Term{})...)
	}

	solutions, err := filterSolutions(solutions, tmpl, params)
	if err != nil {
		return nil, err
	}

	if len(tmpl.Optional) > 0 {
		resolved, err := resolvePatterns(tmpl.Optional, params)
		if err != nil {
			return nil, err
		}
		var extended []map[string]Term
		for _, sol := range solutions {
			extended = append(extended, extendOptional(triples, resolved, sol)...)
		}
		solutions = extended
	}

	return project(solutions, tmpl), nil
}

type term struct {
	variable string
	value    string
	literal  bool
}

type pattern struct {
	s, p, o term
}

func resolvePatterns(patterns []TriplePattern, params map[string]string) ([]pattern, error) {
	out := make([]pattern, 0, len(patterns))
	for _, tp := range patterns {
		s, err := resolveTerm(tp.S, params)
		if err != nil {
			return nil, err
		}
		p, err := resolveTerm(tp.P, params)
		if err != nil {
			return nil, err
		}
		o, err := resolveTerm(tp.O, params)
		if err != nil {
			return nil, err
		}
		out = append(out, pattern{s: s, p: p, o: o})
	}
	return out, nil
}

func resolveTerm(raw string, params map[string]string) (term, error) {
	switch {
	case strings.HasPrefix(raw, "?"):
		return term{variable: raw[1:]}, nil
	case strings.HasPrefix(raw, "$"):
		value, ok := params[raw[1:]]
		if !ok {
			return term{}, fmt.Errorf("missing query parameter %q", raw[1:])
		}
		return term{value: value}, nil
	default:
		return term{value: kg.Expand(raw)}, nil
	}
}

// matchAll backtracks over the patterns, extending the binding one pattern
// at a time.
func matchAll(triples []kg.Triple, patterns []pattern, binding map[string]Term) []map[string]Term {
	if len(patterns) == 0 {
		return []map[string]Term{cloneBinding(binding)}
	}

	var solutions []map[string]Term
	head, rest := patterns[0], patterns[1:]
	for _, t := range triples {
		next, ok := unify(head, t, binding)
		if !ok {
			continue
		}
		solutions = append(solutions, matchAll(triples, rest, next)...)
	}
	return solutions
}

func unify(p pattern, t kg.Triple, binding map[string]Term) (map[string]Term, bool) {
	next := binding
	copied := false
	bind := func(tm term, value string, literal bool) bool {
		if tm.variable == "" {
			return tm.value == value && !literal
		}
		if bound, ok := next[tm.variable]; ok {
			return bound.Value == value && bound.Literal == literal
		}
		if !copied {
			next = cloneBinding(next)
			copied = true
		}
		next[tm.variable] = Term{Value: value, Literal: literal}
		return true
	}

	if !bind(p.s, t.Subject, false) {
		return nil, false
	}
	if !bind(p.p, t.Predicate, false) {
		return nil, false
	}
	// Object position is the only one where a pattern constant may match
	// a literal.
	if p.o.variable == "" {
		if p.o.value != t.Object {
			return nil, false
		}
		return next, true
	}
	if !bind(p.o, t.Object, t.ObjectLiteral) {
		return nil, false
	}
	return next, true
}

// extendOptional tries each optional pattern independently; failure to
// match leaves the solution as is.
func extendOptional(triples []kg.Triple, optional []pattern, sol map[string]Term) []map[string]Term {
	current := []map[string]Term{sol}
	for _, p := range optional {
		var next []map[string]Term
		for _, s := range current {
			matched := matchAll(triples, []pattern{p}, s)
			if len(matched) == 0 {
				next = append(next, s)
				continue
			}
			next = append(next, matched...)
		}
		current = next
	}
	return current
}

func filterSolutions(solutions []map[string]Term, tmpl Template, params map[string]string) ([]map[string]Term, error) {
	keep := solutions[:0]
	for _, sol := range solutions {
		ok, err := admits(sol, tmpl, params)
		if err != nil {
			return nil, err
		}
		if ok {
			keep = append(keep, sol)
		}
	}
	return keep, nil
}

func admits(sol map[string]Term, tmpl Template, params map[string]string) (bool, error) {
	for v, allowed := range tmpl.PredicateIn {
		bound, ok := sol[strings.TrimPrefix(v, "?")]
		if !ok {
			return false, nil
		}
		found := false
		for _, a := range allowed {
			if bound.Value == kg.Expand(a) {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}
	for v, prefix := range tmpl.PredicatePrefix {
		bound, ok := sol[strings.TrimPrefix(v, "?")]
		if !ok || !strings.HasPrefix(bound.Value, kg.Expand(prefix)) {
			return false, nil
		}
	}
	for v, param := range tmpl.Exclude {
		value, ok := params[strings.TrimPrefix(param, "$")]
		if !ok {
			return false, fmt.Errorf("missing query parameter %q", param)
		}
		if bound, ok := sol[strings.TrimPrefix(v, "?")]; ok && bound.Value == value {
			return false, nil
		}
	}
	return true, nil
}

func project(solutions []map[string]Term, tmpl Template) []Row {
	seen := make(map[string]struct{})
	var rows []Row
	for _, sol := range solutions {
		row := make(Row, len(tmpl.Select))
		var key strings.Builder
		for _, v := range tmpl.Select {
			name := strings.TrimPrefix(v, "?")
			if bound, ok := sol[name]; ok {
				row[name] = bound
				key.WriteString(bound.Value)
			}
			key.WriteByte('\x00')
		}
		if _, dup := seen[key.String()]; dup {
			continue
		}
		seen[key.String()] = struct{}{}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rowKey(rows[i], tmpl.Select) < rowKey(rows[j], tmpl.Select)
	})
	if tmpl.Limit > 0 && len(rows) > tmpl.Limit {
		rows = rows[:tmpl.Limit]
	}
	return rows
}

func rowKey(row Row, selects []string) string {
	var b strings.Builder
	for _, v := range selects {
		b.WriteString(row[strings.TrimPrefix(v, "?")].Value)
		b.WriteByte('\x00')
	}
	return b.String()
}

func cloneBinding(b map[string]Term) map[string]Term {
	out := make(map[string]Term, len(b)+1)
	for k, v := range b {
		out[k] = v
	}
	return out
}
