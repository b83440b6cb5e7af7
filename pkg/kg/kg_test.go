package kg

import (
	"strings"
	"testing"

	"github.com/mlkg-org/backend/pkg/common"
)

func testGraph() *Graph {
	entities := []common.CanonicalEntity{
		{
			ID: "convolutional_neural_network", Label: "Convolutional Neural Network",
			Type:         "ALGORITHM",
			SurfaceForms: []string{"CNN", "CNNs", "Convolutional Neural Network"},
			Provenance:   []string{"c1", "c2"},
		},
		{
			ID: "imagenet", Label: "ImageNet", Type: "DATASET",
			SurfaceForms: []string{"ImageNet"},
			Provenance:   []string{"c2"},
		},
	}
	relations := []common.Relation{
		{SubjectID: "convolutional_neural_network", Predicate: "trained_on", ObjectID: "imagenet", Confidence: 0.9, Provenance: []string{"c2"}},
	}
	return Assemble(entities, relations)
}

func TestAssembleProducesExpectedTriples(t *testing.T) {
	g := testGraph()

	// 2 type + 2 label + 2 surface forms (label spellings excluded) + 1 relation
	if g.Len() != 7 {
		t.Fatalf("expected 7 triples, got %d", g.Len())
	}

	want := Triple{
		Subject:   NSEntity + "convolutional_neural_network",
		Predicate: NSRelation + "trained_on",
		Object:    NSEntity + "imagenet",
	}
	found := false
	for _, tr := range g.Triples() {
		if tr == want {
			found = true
		}
	}
	if !found {
		t.Errorf("relation triple missing from graph")
	}
}

func TestAssembleDropsRelationsWithUnknownEntities(t *testing.T) {
	entities := []common.CanonicalEntity{
		{ID: "bert", Label: "BERT", Type: "ALGORITHM", SurfaceForms: []string{"BERT"}},
	}
	relations := []common.Relation{
		{SubjectID: "bert", Predicate: "uses", ObjectID: "missing"},
		{SubjectID: "missing", Predicate: "uses", ObjectID: "bert"},
	}
	g := Assemble(entities, relations)
	for _, tr := range g.Triples() {
		if strings.HasPrefix(tr.Predicate, NSRelation) {
			t.Errorf("unexpected relation triple: %+v", tr)
		}
	}
}

func TestGraphAddDeduplicates(t *testing.T) {
	g := NewGraph()
	tr := Triple{Subject: NSEntity + "a", Predicate: NSRelation + "uses", Object: NSEntity + "b"}
	if !g.Add(tr) {
		t.Error("first Add must report new")
	}
	if g.Add(tr) {
		t.Error("second Add must report duplicate")
	}
	if g.Len() != 1 {
		t.Errorf("expected 1 triple, got %d", g.Len())
	}

	// Same object value as literal is a distinct statement.
	lit := tr
	lit.ObjectLiteral = true
	if !g.Add(lit) {
		t.Error("literal object variant must be distinct")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	g := testGraph()
	for _, format := range Formats {
		t.Run(string(format), func(t *testing.T) {
			data, err := Serialize(g, format)
			if err != nil {
				t.Fatalf("serialize: %v", err)
			}
			parsed, err := Parse(data, format)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !g.Equal(parsed) {
				t.Errorf("round trip changed the graph:\noriginal: %+v\nparsed:   %+v",
					g.Triples(), parsed.Triples())
			}
		})
	}
}

func TestSerializeHandlesSpecialCharacters(t *testing.T) {
	g := NewGraph()
	g.Add(Triple{
		Subject:       NSEntity + "tricky",
		Predicate:     URILabel,
		Object:        "a \"quoted\" label;\nwith newline . and dot",
		ObjectLiteral: true,
	})
	for _, format := range Formats {
		t.Run(string(format), func(t *testing.T) {
			data, err := Serialize(g, format)
			if err != nil {
				t.Fatalf("serialize: %v", err)
			}
			parsed, err := Parse(data, format)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !g.Equal(parsed) {
				t.Errorf("round trip changed the graph: %+v", parsed.Triples())
			}
		})
	}
}

func TestSerializeDeterministic(t *testing.T) {
	g := testGraph()
	for _, format := range Formats {
		a, err := Serialize(g, format)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		b, err := Serialize(g, format)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if a != b {
			t.Errorf("%s: output differs between runs", format)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	tests := []struct {
		format Format
		data   string
	}{
		{FormatNTriples, "not a triple"},
		{FormatTurtle, "entity:x undeclared:y entity:z ."},
		{FormatJSONLD, "{not json"},
	}
	for _, tt := range tests {
		if _, err := Parse(tt.data, tt.format); err == nil {
			t.Errorf("%s: expected parse error", tt.format)
		}
	}
}

func TestCompactExpand(t *testing.T) {
	tests := []struct {
		uri     string
		compact string
	}{
		{NSEntity + "bert", "entity:bert"},
		{NSRelation + "uses", "relation:uses"},
		{NSOntology + "ALGORITHM", "ml:ALGORITHM"},
		{NSRDF + "type", "rdf:type"},
		{"http://example.org/other", "http://example.org/other"},
	}
	for _, tt := range tests {
		if got := Compact(tt.uri); got != tt.compact {
			t.Errorf("Compact(%q) = %q, want %q", tt.uri, got, tt.compact)
		}
		if got := Expand(tt.compact); got != tt.uri {
			t.Errorf("Expand(%q) = %q, want %q", tt.compact, got, tt.uri)
		}
	}
}

func TestComputeStats(t *testing.T) {
	entities := []common.CanonicalEntity{
		{ID: "a", Type: "ALGORITHM"},
		{ID: "b", Type: "ALGORITHM"},
		{ID: "c", Type: "DATASET"},
	}
	relations := []common.Relation{
		{SubjectID: "a", Predicate: "uses", ObjectID: "b"},
		{SubjectID: "a", Predicate: "trained_on", ObjectID: "c"},
		{SubjectID: "b", Predicate: "trained_on", ObjectID: "c"},
	}
	stats := ComputeStats(entities, relations, testGraph())
	if stats.Entities != 3 || stats.Relations != 3 {
		t.Errorf("unexpected totals: %+v", stats)
	}
	if stats.EntitiesByType["ALGORITHM"] != 2 || stats.RelationsByPredicate["trained_on"] != 2 {
		t.Errorf("unexpected histograms: %+v", stats)
	}
	report := stats.Report()
	for _, want := range []string{"entities: 3", "ALGORITHM: 2", "trained_on: 2"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}
