package canon

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/mlkg-org/backend/pkg/ai"
	"github.com/mlkg-org/backend/pkg/common"
	"github.com/mlkg-org/backend/pkg/vocab"
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

func fastCanonicalizer() *Canonicalizer {
	return New(Params{MaxRetries: 1, RetryBackoff: time.Millisecond})
}

func TestCanonicalizeUnifiesSurfaceForms(t *testing.T) {
	mentions := []common.Mention{
		{Surface: "CNN", ChunkID: "c1"},
		{Surface: "convolutional neural network", ChunkID: "c2"},
		{Surface: "CNNs", ChunkID: "c2"},
		{Surface: "ConvNet", ChunkID: "c3"},
	}
	oracle := &fakeOracle{respond: func(_ string, out any) error {
		resp := out.(*canonicalizeResponse)
		resp.Entities = []oracleEntity{{
			CanonicalName: "Convolutional Neural Network",
			Type:          "ALGORITHM",
			Aliases:       []string{"CNN", "CNNs", "ConvNet"},
		}}
		return nil
	}}

	entities, stats, err := fastCanonicalizer().Canonicalize(context.Background(), mentions, oracle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}

	e := entities[0]
	if e.ID != "convolutional_neural_network" {
		t.Errorf("unexpected id %q", e.ID)
	}
	if e.Label != "Convolutional Neural Network" {
		t.Errorf("unexpected label %q", e.Label)
	}
	if e.Type != "ALGORITHM" {
		t.Errorf("unexpected type %q", e.Type)
	}
	wantSurfaces := []string{"CNN", "CNNs", "ConvNet", "convolutional neural network"}
	if !reflect.DeepEqual(e.SurfaceForms, wantSurfaces) {
		t.Errorf("surface forms: got %v, want %v", e.SurfaceForms, wantSurfaces)
	}
	wantChunks := []string{"c1", "c2", "c3"}
	if !reflect.DeepEqual(e.Provenance, wantChunks) {
		t.Errorf("provenance: got %v, want %v", e.Provenance, wantChunks)
	}
	if stats.EntitiesOut != 1 || stats.MentionsIn != 4 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestCanonicalizeDegradesWhenOracleUnavailable(t *testing.T) {
	mentions := []common.Mention{
		{Surface: "BERT", ChunkID: "c1"},
		{Surface: "bert", ChunkID: "c2"},
		{Surface: "GPT-4", ChunkID: "c1"},
	}
	oracle := &fakeOracle{respond: func(_ string, _ any) error {
		return ai.ErrUnavailable
	}}

	entities, stats, err := fastCanonicalizer().Canonicalize(context.Background(), mentions, oracle)
	if err != nil {
		t.Fatalf("degradation must not surface an error, got %v", err)
	}
	// One entity per normalized surface form: "bert" and "gpt-4".
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(entities))
	}
	for _, e := range entities {
		if e.Type != vocab.TypeUnknown {
			t.Errorf("entity %q: expected type %s, got %s", e.ID, vocab.TypeUnknown, e.Type)
		}
	}
	if stats.DegradedBatches != 1 {
		t.Errorf("expected 1 degraded batch, got %d", stats.DegradedBatches)
	}
}

func TestCanonicalizeRetriesWhenResponseMatchesNothing(t *testing.T) {
	mentions := []common.Mention{
		{Surface: "BERT", ChunkID: "c1"},
		{Surface: "GPT-4", ChunkID: "c1"},
	}
	calls := 0
	oracle := &fakeOracle{respond: func(_ string, out any) error {
		calls++
		resp := out.(*canonicalizeResponse)
		// Non-empty, but names nothing from the batch.
		resp.Entities = []oracleEntity{{
			CanonicalName: "Linear Regression",
			Type:          "ALGORITHM",
			Aliases:       []string{"OLS"},
		}}
		return nil
	}}

	c := New(Params{MaxRetries: 2, RetryBackoff: time.Millisecond})
	entities, stats, err := c.Canonicalize(context.Background(), mentions, oracle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 oracle calls (retried once), got %d", calls)
	}
	if stats.DegradedBatches != 1 {
		t.Errorf("expected 1 degraded batch, got %d", stats.DegradedBatches)
	}
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(entities))
	}
	for _, e := range entities {
		if e.Type != vocab.TypeUnknown {
			t.Errorf("entity %q: expected type %s, got %s", e.ID, vocab.TypeUnknown, e.Type)
		}
	}
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	mentions := []common.Mention{
		{Surface: "SVM", ChunkID: "c1"},
		{Surface: "support vector machine", ChunkID: "c2"},
		{Surface: "precision", ChunkID: "c2"},
	}
	oracle := &fakeOracle{respond: func(_ string, out any) error {
		resp := out.(*canonicalizeResponse)
		resp.Entities = []oracleEntity{
			{CanonicalName: "Support Vector Machine", Type: "ALGORITHM", Aliases: []string{"SVM"}},
			{CanonicalName: "Precision", Type: "METRIC", Aliases: []string{"precision"}},
		}
		return nil
	}}

	c := fastCanonicalizer()
	first, _, err := c.Canonicalize(context.Background(), mentions, oracle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _, err := c.Canonicalize(context.Background(), mentions, oracle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("runs differ:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestCanonicalizeDiscardsSchemaViolations(t *testing.T) {
	mentions := []common.Mention{
		{Surface: "ImageNet", ChunkID: "c1"},
		{Surface: "ResNet", ChunkID: "c1"},
	}
	oracle := &fakeOracle{respond: func(_ string, out any) error {
		resp := out.(*canonicalizeResponse)
		resp.Entities = []oracleEntity{
			{CanonicalName: "ImageNet", Type: "DATASET"},
			{CanonicalName: "ResNet", Type: "NEURAL_THING"}, // not in the vocabulary
		}
		return nil
	}}

	entities, stats, err := fastCanonicalizer().Canonicalize(context.Background(), mentions, oracle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.SchemaViolations != 1 {
		t.Errorf("expected 1 schema violation, got %d", stats.SchemaViolations)
	}
	// ResNet still gets an entity, just an untyped fallback one.
	byID := make(map[string]common.CanonicalEntity)
	for _, e := range entities {
		byID[e.ID] = e
	}
	if e, ok := byID["imagenet"]; !ok || e.Type != "DATASET" {
		t.Errorf("imagenet: got %+v", e)
	}
	if e, ok := byID["resnet"]; !ok || e.Type != vocab.TypeUnknown {
		t.Errorf("resnet: got %+v", e)
	}
}

func TestAssignIDSuffixesCollisions(t *testing.T) {
	taken := make(map[string]int)
	ids := []string{
		assignID("Attention", taken),
		assignID("attention!", taken),
		assignID("ATTENTION", taken),
	}
	want := []string{"attention", "attention_2", "attention_3"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("got %v, want %v", ids, want)
	}
}

func TestElectType(t *testing.T) {
	tests := []struct {
		name     string
		votes    map[string]int
		mentions map[string]int
		want     string
	}{
		{
			name:     "majority wins",
			votes:    map[string]int{"ALGORITHM": 2, "CONCEPT": 1},
			mentions: map[string]int{"ALGORITHM": 2, "CONCEPT": 10},
			want:     "ALGORITHM",
		},
		{
			name:     "vote tie broken by mention count",
			votes:    map[string]int{"ALGORITHM": 1, "CONCEPT": 1},
			mentions: map[string]int{"ALGORITHM": 3, "CONCEPT": 7},
			want:     "CONCEPT",
		},
		{
			name:     "full tie broken lexicographically",
			votes:    map[string]int{"CONCEPT": 1, "ALGORITHM": 1},
			mentions: map[string]int{"CONCEPT": 2, "ALGORITHM": 2},
			want:     "ALGORITHM",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := electType(tt.votes, tt.mentions); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
