package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mlkg-org/backend/pkg/ai"
	"github.com/mlkg-org/backend/pkg/canon"
	"github.com/mlkg-org/backend/pkg/common"
	"github.com/mlkg-org/backend/pkg/kg"
	"github.com/mlkg-org/backend/pkg/relation"
	"github.com/mlkg-org/backend/pkg/vocab"
)

// fakeOracle answers canonicalization and extraction prompts by keyword,
// the way the live oracle would for this corpus.
type fakeOracle struct {
	canonicalize func(out any)
	extract      func(prompt string, out any)
}

func (f *fakeOracle) GenerateCompletion(_ context.Context, _ string, _ ...ai.GenerateOption) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeOracle) GenerateCompletionWithFormat(_ context.Context, name, _, prompt string, out any, _ ...ai.GenerateOption) error {
	switch name {
	case "canonicalize_entities":
		f.canonicalize(out)
	case "extract_relations":
		f.extract(prompt, out)
	}
	return nil
}

func (f *fakeOracle) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func testInput() Input {
	return Input{
		Chunks: []common.Chunk{
			{ID: "c1", Text: "Convolutional neural networks are trained on ImageNet.", SourceDocument: "paper.pdf"},
			{ID: "c2", Text: "CNNs use backpropagation during training.", SourceDocument: "paper.pdf"},
		},
		Mentions: []common.Mention{
			{Surface: "Convolutional neural networks", ChunkID: "c1", Position: 0},
			{Surface: "ImageNet", ChunkID: "c1", Position: 46},
			{Surface: "CNNs", ChunkID: "c2", Position: 0},
			{Surface: "backpropagation", ChunkID: "c2", Position: 9},
		},
	}
}

func testBuilder() *Builder {
	return &Builder{
		Canonicalizer: canon.New(canon.Params{MaxRetries: 1, RetryBackoff: time.Millisecond}),
		Extractor:     relation.New(relation.Params{MaxRetries: 1, RetryBackoff: time.Millisecond}),
	}
}

func scriptedFake() *fakeOracle {
	return &fakeOracle{
		canonicalize: func(out any) {
			data := `{"entities":[
				{"canonical_name":"Convolutional Neural Network","type":"ALGORITHM","aliases":["CNNs","Convolutional neural networks"]},
				{"canonical_name":"ImageNet","type":"DATASET","aliases":[]},
				{"canonical_name":"Backpropagation","type":"ALGORITHM","aliases":["backpropagation"]}
			]}`
			if err := ai.UnmarshalFlexible(data, out); err != nil {
				panic(err)
			}
		},
		extract: func(prompt string, out any) {
			var data string
			if strings.Contains(prompt, "ImageNet") {
				data = `{"relations":[{"subject":"Convolutional Neural Network","predicate":"trained_on","object":"ImageNet","context":"trained on ImageNet","confidence":0.9}]}`
			} else {
				data = `{"relations":[{"subject":"Convolutional Neural Network","predicate":"uses","object":"Backpropagation","context":"use backpropagation","confidence":0.8}]}`
			}
			if err := ai.UnmarshalFlexible(data, out); err != nil {
				panic(err)
			}
		},
	}
}

func TestBuildEndToEnd(t *testing.T) {
	dir := t.TempDir()
	b := testBuilder()
	b.OutputDir = dir

	result, err := b.Build(context.Background(), testInput(), scriptedFake())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Entities) != 3 {
		t.Errorf("expected 3 entities, got %d", len(result.Entities))
	}
	if len(result.Relations) != 2 {
		t.Errorf("expected 2 relations, got %d", len(result.Relations))
	}
	if result.Graph.Len() == 0 {
		t.Error("graph is empty")
	}

	for _, format := range kg.Formats {
		data, ok := result.Serializations[format]
		if !ok || data == "" {
			t.Errorf("missing serialization for %s", format)
			continue
		}
		parsed, err := kg.Parse(data, format)
		if err != nil {
			t.Errorf("%s does not parse back: %v", format, err)
			continue
		}
		if !result.Graph.Equal(parsed) {
			t.Errorf("%s round trip mismatch", format)
		}

		path := filepath.Join(dir, "graph"+format.Extension())
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected output file %s: %v", path, err)
		}
	}

	if result.Stats.Canon.EntitiesOut != 3 || result.Stats.Relation.RelationsOut != 2 {
		t.Errorf("unexpected stats: %+v", result.Stats)
	}
}

func TestBuildSurvivesOracleOutage(t *testing.T) {
	b := testBuilder()
	outage := &fakeOracle{
		canonicalize: func(out any) {},
		extract:      func(prompt string, out any) {},
	}
	// Empty oracle responses degrade canonicalization per batch and leave
	// extraction without candidates.
	result, err := b.Build(context.Background(), testInput(), outage)
	if err != nil {
		t.Fatalf("build must survive an oracle outage, got %v", err)
	}
	if len(result.Entities) != 4 {
		t.Errorf("expected one entity per surface form, got %d", len(result.Entities))
	}
	for _, e := range result.Entities {
		if e.Type != vocab.TypeUnknown {
			t.Errorf("entity %q should be untyped, got %s", e.ID, e.Type)
		}
	}
	if len(result.Relations) != 0 {
		t.Errorf("expected no relations, got %d", len(result.Relations))
	}
}

func TestInputValidate(t *testing.T) {
	valid := testInput()
	if err := valid.Validate(); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}

	dangling := valid
	dangling.Mentions = append([]common.Mention{}, valid.Mentions...)
	dangling.Mentions = append(dangling.Mentions, common.Mention{Surface: "x", ChunkID: "nope"})
	if err := dangling.Validate(); err == nil {
		t.Error("expected error for dangling chunk reference")
	}

	dup := valid
	dup.Chunks = append([]common.Chunk{}, valid.Chunks...)
	dup.Chunks = append(dup.Chunks, common.Chunk{ID: "c1", Text: "again"})
	if err := dup.Validate(); err == nil {
		t.Error("expected error for duplicate chunk id")
	}
}
