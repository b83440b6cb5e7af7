// Package relation extracts typed relations between canonical entities
// from chunk text, validates them against the controlled vocabulary, and
// merges duplicate observations into single relations with aggregated
// confidence.
package relation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mlkg-org/backend/internal/util"
	"github.com/mlkg-org/backend/pkg/ai"
	"github.com/mlkg-org/backend/pkg/common"
	"github.com/mlkg-org/backend/pkg/logger"
	"github.com/mlkg-org/backend/pkg/vocab"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/sync/errgroup"
)

const (
	defaultParallelChunks = 4
	defaultMaxRetries     = 3
	defaultRetryBackoff   = 2 * time.Second
	defaultMaxChunkTokens = 3000
)

// Extractor extracts relations chunk by chunk.
type Extractor struct {
	parallelChunks int
	maxRetries     int
	retryBackoff   time.Duration
	maxChunkTokens int
}

// Params configures an Extractor. Zero values select defaults.
type Params struct {
	ParallelChunks int
	MaxRetries     int
	RetryBackoff   time.Duration
	MaxChunkTokens int
}

// Stats summarizes one extraction run.
type Stats struct {
	ChunksIn         int `json:"chunks_in"`
	ChunksEligible   int `json:"chunks_eligible"`
	ChunksFailed     int `json:"chunks_failed"`
	Candidates       int `json:"candidates"`
	SchemaViolations int `json:"schema_violations"`
	RelationsOut     int `json:"relations_out"`
	OracleCalls      int `json:"oracle_calls"`
}

// New creates an Extractor.
func New(params Params) *Extractor {
	e := &Extractor{
		parallelChunks: params.ParallelChunks,
		maxRetries:     params.MaxRetries,
		retryBackoff:   params.RetryBackoff,
		maxChunkTokens: params.MaxChunkTokens,
	}
	if e.parallelChunks <= 0 {
		e.parallelChunks = defaultParallelChunks
	}
	if e.maxRetries <= 0 {
		e.maxRetries = defaultMaxRetries
	}
	if e.retryBackoff <= 0 {
		e.retryBackoff = defaultRetryBackoff
	}
	if e.maxChunkTokens <= 0 {
		e.maxChunkTokens = defaultMaxChunkTokens
	}
	return e
}

type oracleRelation struct {
	Subject    string  `json:"subject" jsonschema_description:"Entity name exactly as listed"`
	Predicate  string  `json:"predicate" jsonschema_description:"One of the allowed relation types"`
	Object     string  `json:"object" jsonschema_description:"Entity name exactly as listed"`
	Context    string  `json:"context" jsonschema_description:"Supporting sentence or phrase from the text"`
	Confidence float64 `json:"confidence" jsonschema_description:"How directly the text supports the relation, 0 to 1"`
}

type extractResponse struct {
	Relations []oracleRelation `json:"relations" jsonschema_description:"Relations found in the text"`
}

// Extract runs relation extraction over all chunks and returns merged
// relations.
//
// Chunks run on a bounded worker pool with chunk-local candidate lists;
// merging happens only after every worker is done. A chunk whose oracle
// calls all fail contributes zero relations and the run continues.
func (e *Extractor) Extract(
	ctx context.Context,
	chunks []common.Chunk,
	entities []common.CanonicalEntity,
	client ai.Client,
) ([]common.Relation, Stats, error) {
	stats := Stats{ChunksIn: len(chunks)}
	if len(chunks) == 0 || len(entities) == 0 {
		return nil, stats, nil
	}

	byChunk := entitiesByChunk(entities)

	type chunkResult struct {
		candidates  []common.RelationCandidate
		violations  int
		oracleCalls int
		failed      bool
		skipped     bool
	}
	results := make([]chunkResult, len(chunks))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.parallelChunks)
	for i, chunk := range chunks {
		eg.Go(func() error {
			present := byChunk[chunk.ID]
			if len(present) < 2 {
				results[i].skipped = true
				return nil
			}
			cands, violations, calls, err := e.extractChunk(gCtx, chunk, present, client)
			results[i] = chunkResult{
				candidates:  cands,
				violations:  violations,
				oracleCalls: calls,
			}
			if err != nil {
				logger.Warn("[Relation] Chunk failed, skipping", "chunk", chunk.ID, "err", err)
				results[i].failed = true
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, stats, err
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	var candidates []common.RelationCandidate
	for _, res := range results {
		if !res.skipped {
			stats.ChunksEligible++
		}
		if res.failed {
			stats.ChunksFailed++
		}
		stats.SchemaViolations += res.violations
		stats.OracleCalls += res.oracleCalls
		candidates = append(candidates, res.candidates...)
	}
	stats.Candidates = len(candidates)

	relations := MergeCandidates(candidates)
	stats.RelationsOut = len(relations)

	logger.Info("[Relation] Extraction completed",
		"chunks", stats.ChunksIn, "eligible", stats.ChunksEligible,
		"failed", stats.ChunksFailed, "candidates", stats.Candidates,
		"relations", stats.RelationsOut)

	return relations, stats, nil
}

// entitiesByChunk indexes canonical entities by the chunks they appear
// in, preserving input order within each chunk.
func entitiesByChunk(entities []common.CanonicalEntity) map[string][]common.CanonicalEntity {
	byChunk := make(map[string][]common.CanonicalEntity)
	for _, ent := range entities {
		for _, chunkID := range ent.Provenance {
			byChunk[chunkID] = append(byChunk[chunkID], ent)
		}
	}
	return byChunk
}

func (e *Extractor) extractChunk(
	ctx context.Context,
	chunk common.Chunk,
	present []common.CanonicalEntity,
	client ai.Client,
) ([]common.RelationCandidate, int, int, error) {
	var entityList strings.Builder
	for _, ent := range present {
		fmt.Fprintf(&entityList, "- %s (%s)\n", ent.Label, ent.Type)
	}
	prompt := fmt.Sprintf(ai.RelationPrompt,
		vocab.PredicateGlossList(), entityList.String(), e.truncate(chunk.Text))

	calls := 0
	var resp extractResponse
	err := util.RetryBackoffWithContext(ctx, e.maxRetries, e.retryBackoff, func(ctx context.Context) error {
		calls++
		resp = extractResponse{}
		return client.GenerateCompletionWithFormat(
			ctx, "extract_relations", "Extract typed relations between known entities.", prompt, &resp,
		)
	})
	if err != nil {
		return nil, 0, calls, err
	}

	cands, violations := validateCandidates(chunk.ID, present, resp.Relations)
	return cands, violations, calls, nil
}

// truncate caps chunk text by token count so one oversized chunk cannot
// blow the oracle's context window.
func (e *Extractor) truncate(text string) string {
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return text
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= e.maxChunkTokens {
		return text
	}
	return enc.Decode(tokens[:e.maxChunkTokens])
}

// validateCandidates keeps only relations whose predicate is in the
// vocabulary and whose subject and object name entities supplied for the
// chunk. Everything else is discarded and counted, never fatal.
func validateCandidates(
	chunkID string,
	present []common.CanonicalEntity,
	items []oracleRelation,
) ([]common.RelationCandidate, int) {
	byName := make(map[string]string)
	for _, ent := range present {
		byName[util.NormalizeSurface(ent.Label)] = ent.ID
		for _, s := range ent.SurfaceForms {
			norm := util.NormalizeSurface(s)
			if _, ok := byName[norm]; !ok {
				byName[norm] = ent.ID
			}
		}
	}

	violations := 0
	var cands []common.RelationCandidate
	for _, item := range items {
		predicate, ok := vocab.NormalizePredicate(item.Predicate)
		if !ok {
			violations++
			continue
		}
		subjectID, ok := byName[util.NormalizeSurface(item.Subject)]
		if !ok {
			violations++
			continue
		}
		objectID, ok := byName[util.NormalizeSurface(item.Object)]
		if !ok {
			violations++
			continue
		}
		if subjectID == objectID {
			violations++
			continue
		}
		cands = append(cands, common.RelationCandidate{
			SubjectID:  subjectID,
			Predicate:  predicate,
			ObjectID:   objectID,
			ChunkID:    chunkID,
			Confidence: clamp01(item.Confidence),
			Context:    item.Context,
		})
	}
	return cands, violations
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
