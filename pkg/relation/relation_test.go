package relation

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/mlkg-org/backend/pkg/ai"
	"github.com/mlkg-org/backend/pkg/common"
)

type fakeOracle struct {
	respond func(prompt string, out any) error
}

func (f *fakeOracle) GenerateCompletion(_ context.Context, prompt string, _ ...ai.GenerateOption) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeOracle) GenerateCompletionWithFormat(_ context.Context, _, _, prompt string, out any, _ ...ai.GenerateOption) error {
	return f.respond(prompt, out)
}

func (f *fakeOracle) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func fastExtractor() *Extractor {
	return New(Params{MaxRetries: 1, RetryBackoff: time.Millisecond})
}

var testEntities = []common.CanonicalEntity{
	{
		ID: "neural_network", Label: "Neural Network", Type: "ALGORITHM",
		SurfaceForms: []string{"NN", "Neural Network"},
		Provenance:   []string{"c1", "c2"},
	},
	{
		ID: "gradient_descent", Label: "Gradient Descent", Type: "ALGORITHM",
		SurfaceForms: []string{"Gradient Descent"},
		Provenance:   []string{"c1", "c2"},
	},
	{
		ID: "accuracy", Label: "Accuracy", Type: "METRIC",
		SurfaceForms: []string{"Accuracy"},
		Provenance:   []string{"c3"},
	},
}

func TestExtractMergesDuplicateObservations(t *testing.T) {
	chunks := []common.Chunk{
		{ID: "c1", Text: "Neural networks use gradient descent."},
		{ID: "c2", Text: "Training a neural network relies on gradient descent."},
	}
	oracle := &fakeOracle{respond: func(_ string, out any) error {
		resp := out.(*extractResponse)
		resp.Relations = []oracleRelation{{
			Subject: "Neural Network", Predicate: "uses", Object: "Gradient Descent",
			Confidence: 0.7,
		}}
		return nil
	}}

	relations, stats, err := fastExtractor().Extract(context.Background(), chunks, testEntities, oracle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(relations) != 1 {
		t.Fatalf("expected 1 merged relation, got %d", len(relations))
	}

	rel := relations[0]
	if rel.SubjectID != "neural_network" || rel.Predicate != "uses" || rel.ObjectID != "gradient_descent" {
		t.Errorf("unexpected relation: %+v", rel)
	}
	// 1 - (1-0.7)*(1-0.7) = 0.91
	if math.Abs(rel.Confidence-0.91) > 1e-9 {
		t.Errorf("expected confidence 0.91, got %v", rel.Confidence)
	}
	if !reflect.DeepEqual(rel.Provenance, []string{"c1", "c2"}) {
		t.Errorf("expected provenance [c1 c2], got %v", rel.Provenance)
	}
	if stats.Candidates != 2 || stats.RelationsOut != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestExtractSkipsChunksWithFewerThanTwoEntities(t *testing.T) {
	chunks := []common.Chunk{
		{ID: "c3", Text: "Accuracy is reported."}, // only one entity present
	}
	called := false
	oracle := &fakeOracle{respond: func(_ string, _ any) error {
		called = true
		return nil
	}}

	relations, stats, err := fastExtractor().Extract(context.Background(), chunks, testEntities, oracle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Error("oracle must not be called for ineligible chunks")
	}
	if len(relations) != 0 || stats.ChunksEligible != 0 {
		t.Errorf("expected no output, got %v, stats %+v", relations, stats)
	}
}

func TestExtractDiscardsInvalidCandidates(t *testing.T) {
	chunks := []common.Chunk{{ID: "c1", Text: "text"}}
	oracle := &fakeOracle{respond: func(_ string, out any) error {
		resp := out.(*extractResponse)
		resp.Relations = []oracleRelation{
			{Subject: "Neural Network", Predicate: "frobnicates", Object: "Gradient Descent", Confidence: 0.9},
			{Subject: "Transformer", Predicate: "uses", Object: "Gradient Descent", Confidence: 0.9},
			{Subject: "NN", Predicate: "uses", Object: "Neural Network", Confidence: 0.9}, // self-relation via alias
			{Subject: "NN", Predicate: "uses", Object: "Gradient Descent", Confidence: 1.7},
		}
		return nil
	}}

	relations, stats, err := fastExtractor().Extract(context.Background(), chunks, testEntities, oracle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.SchemaViolations != 3 {
		t.Errorf("expected 3 schema violations, got %d", stats.SchemaViolations)
	}
	if len(relations) != 1 {
		t.Fatalf("expected 1 surviving relation, got %d", len(relations))
	}
	if relations[0].Confidence != 1 {
		t.Errorf("confidence must be clamped to 1, got %v", relations[0].Confidence)
	}
}

func TestExtractToleratesChunkFailure(t *testing.T) {
	chunks := []common.Chunk{
		{ID: "c1", Text: "fails"},
		{ID: "c2", Text: "works"},
	}
	oracle := &fakeOracle{respond: func(prompt string, out any) error {
		if strings.Contains(prompt, "fails") {
			return ai.ErrUnavailable
		}
		resp := out.(*extractResponse)
		resp.Relations = []oracleRelation{{
			Subject: "Neural Network", Predicate: "uses", Object: "Gradient Descent",
			Confidence: 0.8,
		}}
		return nil
	}}

	relations, stats, err := fastExtractor().Extract(context.Background(), chunks, testEntities, oracle)
	if err != nil {
		t.Fatalf("chunk failure must not surface an error, got %v", err)
	}
	if stats.ChunksFailed != 1 {
		t.Errorf("expected 1 failed chunk, got %d", stats.ChunksFailed)
	}
	if len(relations) != 1 {
		t.Fatalf("expected 1 relation from the surviving chunk, got %d", len(relations))
	}
	if !reflect.DeepEqual(relations[0].Provenance, []string{"c2"}) {
		t.Errorf("expected provenance [c2], got %v", relations[0].Provenance)
	}
}

func TestMergeCandidatesConfidenceBounds(t *testing.T) {
	cands := []common.RelationCandidate{
		{SubjectID: "a", Predicate: "uses", ObjectID: "b", ChunkID: "c1", Confidence: 1},
		{SubjectID: "a", Predicate: "uses", ObjectID: "b", ChunkID: "c2", Confidence: 0.5},
	}
	relations := MergeCandidates(cands)
	if len(relations) != 1 {
		t.Fatalf("expected 1 relation, got %d", len(relations))
	}
	if c := relations[0].Confidence; c < 0 || c > 1 {
		t.Errorf("confidence out of bounds: %v", c)
	}
	if relations[0].Confidence != 1 {
		t.Errorf("certain evidence must stay certain, got %v", relations[0].Confidence)
	}
}
