// Package store defines the persistence interface for built knowledge
// graphs.
package store

import (
	"context"

	"github.com/mlkg-org/backend/pkg/common"
)

// GraphStorage persists and reloads a built knowledge graph. The stored
// form is the logical model (entities and relations); serializations are
// kept alongside so exports do not require reassembly.
type GraphStorage interface {
	// SaveGraph replaces the stored graph with the given one atomically.
	SaveGraph(ctx context.Context, entities []common.CanonicalEntity, relations []common.Relation) error

	// LoadGraph returns all stored entities and relations in
	// deterministic order.
	LoadGraph(ctx context.Context) ([]common.CanonicalEntity, []common.Relation, error)

	SaveSerialization(ctx context.Context, format string, content string) error
	LoadSerialization(ctx context.Context, format string) (string, error)
}
