// Package pipeline orchestrates graph construction: canonicalization,
// relation extraction, assembly, serialization and persistence.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/mlkg-org/backend/pkg/ai"
	"github.com/mlkg-org/backend/pkg/canon"
	"github.com/mlkg-org/backend/pkg/common"
	"github.com/mlkg-org/backend/pkg/kg"
	"github.com/mlkg-org/backend/pkg/logger"
	"github.com/mlkg-org/backend/pkg/relation"
	"github.com/mlkg-org/backend/pkg/store"
)

// Builder runs the construction pipeline. Storage and OutputDir are both
// optional sinks; the in-memory Result is always produced.
type Builder struct {
	Canonicalizer *canon.Canonicalizer
	Extractor     *relation.Extractor
	Storage       store.GraphStorage
	OutputDir     string
}

// BuildStats aggregates per-stage statistics for one run.
type BuildStats struct {
	Canon      canon.Stats    `json:"canonicalization"`
	Relation   relation.Stats `json:"relation_extraction"`
	Graph      kg.GraphStats  `json:"graph"`
	DurationMs int64          `json:"duration_ms"`
}

// Result is the outcome of one build.
type Result struct {
	Entities       []common.CanonicalEntity
	Relations      []common.Relation
	Graph          *kg.Graph
	Serializations map[kg.Format]string
	Stats          BuildStats
}

// New creates a Builder with default stage configurations.
func New() *Builder {
	return &Builder{
		Canonicalizer: canon.New(canon.Params{}),
		Extractor:     relation.New(relation.Params{}),
	}
}

// Build constructs the knowledge graph from chunks and mentions.
//
// Oracle trouble degrades individual stages but never aborts the build;
// the only fatal failures are context cancellation, serialization errors
// and persistence errors.
func (b *Builder) Build(ctx context.Context, input Input, client ai.Client) (*Result, error) {
	start := time.Now()
	logger.Info("[Pipeline] Build started",
		"chunks", len(input.Chunks), "mentions", len(input.Mentions))

	entities, canonStats, err := b.Canonicalizer.Canonicalize(ctx, input.Mentions, client)
	if err != nil {
		return nil, err
	}

	relations, relStats, err := b.Extractor.Extract(ctx, input.Chunks, entities, client)
	if err != nil {
		return nil, err
	}

	graph := kg.Assemble(entities, relations)

	serializations := make(map[kg.Format]string, len(kg.Formats))
	for _, format := range kg.Formats {
		data, err := kg.Serialize(graph, format)
		if err != nil {
			return nil, err
		}
		serializations[format] = data
	}

	result := &Result{
		Entities:       entities,
		Relations:      relations,
		Graph:          graph,
		Serializations: serializations,
		Stats: BuildStats{
			Canon:      canonStats,
			Relation:   relStats,
			Graph:      kg.ComputeStats(entities, relations, graph),
			DurationMs: time.Since(start).Milliseconds(),
		},
	}

	if err := b.persist(ctx, result); err != nil {
		return nil, err
	}

	logger.Info("[Pipeline] Build completed",
		"entities", len(entities), "relations", len(relations),
		"triples", graph.Len(), "duration_ms", result.Stats.DurationMs)
	return result, nil
}

func (b *Builder) persist(ctx context.Context, result *Result) error {
	if b.Storage != nil {
		if err := b.Storage.SaveGraph(ctx, result.Entities, result.Relations); err != nil {
			return err
		}
		for format, data := range result.Serializations {
			if err := b.Storage.SaveSerialization(ctx, string(format), data); err != nil {
				return err
			}
		}
	}

	if b.OutputDir != "" {
		if err := os.MkdirAll(b.OutputDir, 0o755); err != nil {
			return err
		}
		for format, data := range result.Serializations {
			path := filepath.Join(b.OutputDir, "graph"+format.Extension())
			if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
				return err
			}
			logger.Info("[Pipeline] Serialization written", "path", path)
		}
	}
	return nil
}
