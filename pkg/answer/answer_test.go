package answer

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/mlkg-org/backend/pkg/ai"
	"github.com/mlkg-org/backend/pkg/common"
	"github.com/mlkg-org/backend/pkg/kg"
	"github.com/mlkg-org/backend/pkg/query"
)

type fakeOracle struct {
	completion string
	err        error
	prompts    []string
}

func (f *fakeOracle) GenerateCompletion(_ context.Context, prompt string, _ ...ai.GenerateOption) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.completion, f.err
}

func (f *fakeOracle) GenerateCompletionWithFormat(_ context.Context, _, _, _ string, _ any, _ ...ai.GenerateOption) error {
	return errors.New("not used")
}

func (f *fakeOracle) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

var testEntities = []common.CanonicalEntity{
	{
		ID: "gradient_descent", Label: "Gradient Descent", Type: "ALGORITHM",
		SurfaceForms: []string{"GD", "Gradient Descent"},
	},
	{
		ID: "neural_network", Label: "Neural Network", Type: "ALGORITHM",
		SurfaceForms: []string{"Neural Network"},
	},
	{
		ID: "geoffrey_hinton", Label: "Geoffrey Hinton", Type: "PERSON",
		SurfaceForms: []string{"Geoffrey Hinton"},
	},
}

var testRelations = []common.Relation{
	{SubjectID: "neural_network", Predicate: "uses", ObjectID: "gradient_descent", Confidence: 0.9},
	{SubjectID: "neural_network", Predicate: "proposed_by", ObjectID: "geoffrey_hinton", Confidence: 0.8},
}

func testAssembler(client ai.Client) *Assembler {
	return New(testEntities, kg.Assemble(testEntities, testRelations), client)
}

func TestAnswerWhoCreated(t *testing.T) {
	a := testAssembler(&fakeOracle{completion: "Neural networks were proposed by Geoffrey Hinton."})
	ans, err := a.Answer(context.Background(), "Who created neural network?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Intent != query.IntentWhoCreated {
		t.Errorf("unexpected intent: %s", ans.Intent)
	}
	if ans.ResultCount != 1 {
		t.Errorf("expected 1 result, got %d", ans.ResultCount)
	}
	if !strings.Contains(ans.Structured, "Geoffrey Hinton") {
		t.Errorf("structured answer missing creator: %q", ans.Structured)
	}
	if ans.Text != "Neural networks were proposed by Geoffrey Hinton." {
		t.Errorf("enhanced text not used: %q", ans.Text)
	}
	if ans.UsedFallback {
		t.Error("fallback must not be flagged when enhancement succeeds")
	}
	if math.Abs(ans.Confidence-0.9) > 1e-9 {
		t.Errorf("expected confidence 0.9, got %v", ans.Confidence)
	}
}

func TestAnswerWhoCreatedEmptyIsLowConfidenceNotError(t *testing.T) {
	a := testAssembler(nil)
	ans, err := a.Answer(context.Background(), "Who created gradient descent?")
	if err != nil {
		t.Fatalf("empty result must not error, got %v", err)
	}
	if ans.ResultCount != 0 {
		t.Errorf("expected 0 results, got %d", ans.ResultCount)
	}
	if ans.Confidence > 0.31 {
		t.Errorf("expected low confidence, got %v", ans.Confidence)
	}
	if !strings.Contains(ans.Structured, "No creator") {
		t.Errorf("unexpected structured answer: %q", ans.Structured)
	}
}

func TestAnswerFallbackOnOracleFailure(t *testing.T) {
	a := testAssembler(&fakeOracle{err: ai.ErrUnavailable})
	ans, err := a.Answer(context.Background(), "Who created neural network?")
	if err != nil {
		t.Fatalf("oracle failure must not error, got %v", err)
	}
	if !ans.UsedFallback {
		t.Error("expected used_fallback")
	}
	if ans.Text != ans.Structured {
		t.Errorf("fallback must serve the structured answer, got %q", ans.Text)
	}
	// band 0.9 reduced by the fallback factor
	if math.Abs(ans.Confidence-0.72) > 1e-9 {
		t.Errorf("expected confidence 0.72, got %v", ans.Confidence)
	}
}

func TestAnswerWithoutOracleUsesStructured(t *testing.T) {
	a := testAssembler(nil)
	ans, err := a.Answer(context.Background(), "What uses gradient descent?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ans.UsedFallback || ans.Text != ans.Structured {
		t.Errorf("expected structured fallback, got %+v", ans)
	}
	if !strings.Contains(ans.Text, "Neural Network") {
		t.Errorf("answer missing user entity: %q", ans.Text)
	}
}

func TestAnswerErrorsSurfaceForUntranslatableQuestions(t *testing.T) {
	a := testAssembler(nil)
	if _, err := a.Answer(context.Background(), "What is the riemann hypothesis?"); !errors.Is(err, query.ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound, got %v", err)
	}
	if _, err := a.Answer(context.Background(), "  "); !errors.Is(err, query.ErrUnsupportedIntent) {
		t.Errorf("expected ErrUnsupportedIntent, got %v", err)
	}
}

func TestEnhancePromptVariesByIntent(t *testing.T) {
	oracle := &fakeOracle{completion: "rewritten"}
	a := testAssembler(oracle)
	tests := []struct {
		question    string
		instruction string
	}{
		{"What is gradient descent?", "definition, key characteristics and applications"},
		{"What uses gradient descent?", "uses the concept"},
		{"Who created neural network?", "creators and the historical context"},
		{"How is neural network related to gradient descent?", "connections and relations"},
		{"List all algorithms", "organized way with brief descriptions"},
		{"find concepts similar to neural network", "similarities"},
	}
	for _, tt := range tests {
		if _, err := a.Answer(context.Background(), tt.question); err != nil {
			t.Fatalf("%q: %v", tt.question, err)
		}
	}
	if len(oracle.prompts) != len(tests) {
		t.Fatalf("expected %d rewrite prompts, got %d", len(tests), len(oracle.prompts))
	}
	for i, tt := range tests {
		if !strings.Contains(oracle.prompts[i], tt.instruction) {
			t.Errorf("%q: prompt missing intent instruction %q", tt.question, tt.instruction)
		}
	}
}

func TestAnswerConfidenceAlwaysInRange(t *testing.T) {
	a := testAssembler(nil)
	questions := []string{
		"What is gradient descent?",
		"Who created neural network?",
		"List all algorithms",
		"How is neural network related to gradient descent?",
		"find concepts similar to neural network",
	}
	for _, q := range questions {
		ans, err := a.Answer(context.Background(), q)
		if err != nil {
			t.Errorf("%q: %v", q, err)
			continue
		}
		if ans.Confidence < 0 || ans.Confidence > 1 {
			t.Errorf("%q: confidence out of range: %v", q, ans.Confidence)
		}
	}
}
