// Package canon collapses raw entity mentions into canonical entities with
// stable identifiers and vocabulary types. Clustering decisions come from
// the oracle in fixed-size batches; a degraded fallback keeps the stage
// terminating when the oracle is unavailable.
package canon

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mlkg-org/backend/internal/util"
	"github.com/mlkg-org/backend/pkg/ai"
	"github.com/mlkg-org/backend/pkg/common"
	"github.com/mlkg-org/backend/pkg/logger"
	"github.com/mlkg-org/backend/pkg/vocab"

	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchSize       = 20
	defaultParallelBatches = 4
	defaultMaxRetries      = 3
	defaultRetryBackoff    = 2 * time.Second
)

// Canonicalizer clusters mentions into canonical entities.
type Canonicalizer struct {
	batchSize       int
	parallelBatches int
	maxRetries      int
	retryBackoff    time.Duration
}

// Params configures a Canonicalizer. Zero values select defaults.
type Params struct {
	BatchSize       int
	ParallelBatches int
	MaxRetries      int
	RetryBackoff    time.Duration
}

// Stats summarizes one canonicalization run.
type Stats struct {
	MentionsIn       int     `json:"mentions_in"`
	RawClusters      int     `json:"raw_clusters"`
	EntitiesOut      int     `json:"entities_out"`
	OracleCalls      int     `json:"oracle_calls"`
	DegradedBatches  int     `json:"degraded_batches"`
	SchemaViolations int     `json:"schema_violations"`
	ReductionPct     float64 `json:"reduction_pct"`
}

// New creates a Canonicalizer.
func New(params Params) *Canonicalizer {
	c := &Canonicalizer{
		batchSize:       params.BatchSize,
		parallelBatches: params.ParallelBatches,
		maxRetries:      params.MaxRetries,
		retryBackoff:    params.RetryBackoff,
	}
	if c.batchSize <= 0 {
		c.batchSize = defaultBatchSize
	}
	if c.parallelBatches <= 0 {
		c.parallelBatches = defaultParallelBatches
	}
	if c.maxRetries <= 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.retryBackoff <= 0 {
		c.retryBackoff = defaultRetryBackoff
	}
	return c
}

// Canonicalize maps every mention to exactly one CanonicalEntity.
//
// Batches are processed on a bounded worker pool with batch-local results;
// merging happens only after all workers have finished, so no partial
// state is ever shared. Given the same mentions and the same oracle
// behavior the output partition and identifiers are identical across runs.
func (c *Canonicalizer) Canonicalize(
	ctx context.Context,
	mentions []common.Mention,
	client ai.Client,
) ([]common.CanonicalEntity, Stats, error) {
	stats := Stats{MentionsIn: len(mentions)}
	if len(mentions) == 0 {
		return nil, stats, nil
	}

	clusters := groupMentions(mentions)
	stats.RawClusters = len(clusters)
	batches := partition(clusters, c.batchSize)

	logger.Info("[Canon] Processing mentions",
		"mentions", len(mentions), "clusters", len(clusters), "batches", len(batches))

	results := make([]batchResult, len(batches))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.parallelBatches)
	for i, batch := range batches {
		eg.Go(func() error {
			results[i] = c.processBatch(gCtx, i, batch, client)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, stats, err
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	// Merge barrier: workers only ever wrote their own slot above.
	entities := mergeBatchResults(results)
	for _, res := range results {
		stats.OracleCalls += res.oracleCalls
		stats.SchemaViolations += res.schemaViolations
		if res.degraded {
			stats.DegradedBatches++
		}
	}
	stats.EntitiesOut = len(entities)
	if stats.MentionsIn > 0 {
		stats.ReductionPct = (1 - float64(stats.EntitiesOut)/float64(stats.MentionsIn)) * 100
	}

	logger.Info("[Canon] Canonicalization completed",
		"entities", stats.EntitiesOut,
		"degraded_batches", stats.DegradedBatches,
		"reduction_pct", fmt.Sprintf("%.1f", stats.ReductionPct))

	return entities, stats, nil
}

type oracleEntity struct {
	CanonicalName string   `json:"canonical_name" jsonschema_description:"Canonical name for the group, standard academic terminology"`
	Type          string   `json:"type" jsonschema_description:"One of the allowed entity types"`
	Aliases       []string `json:"aliases" jsonschema_description:"Input mentions that belong to this group"`
}

type canonicalizeResponse struct {
	Entities []oracleEntity `json:"entities" jsonschema_description:"Groups of unified mentions"`
}

func (c *Canonicalizer) processBatch(
	ctx context.Context,
	index int,
	batch []rawCluster,
	client ai.Client,
) batchResult {
	res := batchResult{index: index}

	var mentionList string
	for _, cl := range batch {
		mentionList += "- " + cl.label + "\n"
	}
	prompt := fmt.Sprintf(ai.CanonicalizePrompt, vocab.EntityTypeList(), mentionList)

	var resp canonicalizeResponse
	err := util.RetryBackoffWithContext(ctx, c.maxRetries, c.retryBackoff, func(ctx context.Context) error {
		res.oracleCalls++
		resp = canonicalizeResponse{}
		if err := client.GenerateCompletionWithFormat(
			ctx, "canonicalize_entities", "Unify raw entity mentions into canonical entities.", prompt, &resp,
		); err != nil {
			return err
		}
		if len(resp.Entities) == 0 {
			return fmt.Errorf("%w: empty canonicalization response", ai.ErrUnavailable)
		}
		if !coversAny(batch, resp.Entities) {
			return fmt.Errorf("%w: canonicalization response matches no input mention", ai.ErrUnavailable)
		}
		return nil
	})
	if err != nil {
		logger.Warn("[Canon] Batch degraded to raw clusters", "batch", index, "err", err)
		res.degraded = true
		res.groups = degradedGroups(batch)
		return res
	}

	res.groups, res.schemaViolations = applyOracleGroups(batch, resp.Entities)
	return res
}

// coversAny reports whether at least one returned group names an input
// cluster, by canonical name or alias. A response covering nothing is as
// useless as an empty one and gets retried the same way.
func coversAny(batch []rawCluster, items []oracleEntity) bool {
	norms := make(map[string]struct{}, len(batch))
	for _, cl := range batch {
		norms[cl.norm] = struct{}{}
	}
	for _, item := range items {
		if _, ok := norms[util.NormalizeSurface(item.CanonicalName)]; ok {
			return true
		}
		for _, alias := range item.Aliases {
			if _, ok := norms[util.NormalizeSurface(alias)]; ok {
				return true
			}
		}
	}
	return false
}

// degradedGroups is the oracle-free fallback: one entity per raw cluster,
// type UNKNOWN.
func degradedGroups(batch []rawCluster) []entityGroup {
	groups := make([]entityGroup, 0, len(batch))
	for _, cl := range batch {
		groups = append(groups, entityGroup{
			label:    cl.label,
			typ:      vocab.TypeUnknown,
			clusters: []rawCluster{cl},
		})
	}
	return groups
}

// applyOracleGroups validates oracle output against the vocabulary and the
// input batch. Items with an unknown type or an empty name are discarded
// (schema violations); input clusters the oracle did not cover fall back
// to their own UNKNOWN entity so every mention keeps exactly one home.
func applyOracleGroups(batch []rawCluster, items []oracleEntity) ([]entityGroup, int) {
	violations := 0
	assigned := make(map[string]int) // cluster norm -> group index
	groups := make([]entityGroup, 0, len(items))

	clusterByNorm := make(map[string]rawCluster, len(batch))
	for _, cl := range batch {
		clusterByNorm[cl.norm] = cl
	}

	for _, item := range items {
		if item.CanonicalName == "" {
			violations++
			continue
		}
		typ, ok := vocab.NormalizeEntityType(item.Type)
		if !ok || typ == vocab.TypeUnknown {
			violations++
			continue
		}

		group := entityGroup{label: item.CanonicalName, typ: typ}
		names := append([]string{item.CanonicalName}, item.Aliases...)
		for _, name := range names {
			norm := util.NormalizeSurface(name)
			cl, ok := clusterByNorm[norm]
			if !ok {
				continue
			}
			if _, taken := assigned[norm]; taken {
				continue
			}
			assigned[norm] = len(groups)
			group.clusters = append(group.clusters, cl)
		}
		if len(group.clusters) == 0 {
			// Oracle invented a group that matches no input; ignore it.
			continue
		}
		groups = append(groups, group)
	}

	for _, cl := range batch {
		if _, ok := assigned[cl.norm]; ok {
			continue
		}
		groups = append(groups, entityGroup{
			label:    cl.label,
			typ:      vocab.TypeUnknown,
			clusters: []rawCluster{cl},
		})
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].label < groups[j].label })
	return groups, violations
}
