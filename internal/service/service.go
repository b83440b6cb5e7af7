// Package service holds the query-side application state: the loaded
// graph, its answer assembler and its statistics.
package service

import (
	"context"
	"errors"
	"sync"

	"github.com/mlkg-org/backend/pkg/ai"
	"github.com/mlkg-org/backend/pkg/answer"
	"github.com/mlkg-org/backend/pkg/kg"
	"github.com/mlkg-org/backend/pkg/logger"
	"github.com/mlkg-org/backend/pkg/store"
)

// ErrGraphNotLoaded is returned when no graph has been built yet.
var ErrGraphNotLoaded = errors.New("no knowledge graph loaded")

// Service answers questions against the most recently loaded graph.
// Reload swaps the graph atomically; requests in flight keep the
// assembler they started with.
type Service struct {
	storage store.GraphStorage
	client  ai.Client

	mu        sync.RWMutex
	assembler *answer.Assembler
	stats     kg.GraphStats
}

// New creates a Service. The graph is not loaded until Reload is called.
func New(storage store.GraphStorage, client ai.Client) *Service {
	return &Service{storage: storage, client: client}
}

// Reload loads the stored graph and rebuilds the assembler.
func (s *Service) Reload(ctx context.Context) error {
	entities, relations, err := s.storage.LoadGraph(ctx)
	if err != nil {
		return err
	}
	graph := kg.Assemble(entities, relations)
	assembler := answer.New(entities, graph, s.client)
	stats := kg.ComputeStats(entities, relations, graph)

	s.mu.Lock()
	s.assembler = assembler
	s.stats = stats
	s.mu.Unlock()

	logger.Info("[Service] Graph loaded",
		"entities", stats.Entities, "relations", stats.Relations, "triples", stats.Triples)
	return nil
}

// Answer resolves one question against the loaded graph.
func (s *Service) Answer(ctx context.Context, question string) (answer.Answer, error) {
	s.mu.RLock()
	assembler := s.assembler
	s.mu.RUnlock()
	if assembler == nil {
		return answer.Answer{}, ErrGraphNotLoaded
	}
	return assembler.Answer(ctx, question)
}

// Stats returns statistics for the loaded graph.
func (s *Service) Stats() (kg.GraphStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.assembler == nil {
		return kg.GraphStats{}, ErrGraphNotLoaded
	}
	return s.stats, nil
}

// Serialization returns the stored export for a format.
func (s *Service) Serialization(ctx context.Context, format string) (string, error) {
	return s.storage.LoadSerialization(ctx, format)
}
