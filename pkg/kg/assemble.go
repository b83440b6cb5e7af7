package kg

import (
	"github.com/mlkg-org/backend/pkg/common"
	"github.com/mlkg-org/backend/pkg/logger"
)

// Assemble builds the triple graph for a set of canonical entities and
// merged relations.
//
// Per entity: one rdf:type triple, one rdfs:label triple and one
// ml:surfaceForm triple per known spelling other than the label. Per
// relation: exactly one triple linking the two entity URIs. Duplicate
// statements collapse via Graph.Add; a relation naming an unknown entity
// is dropped with a warning rather than producing a dangling URI.
func Assemble(entities []common.CanonicalEntity, relations []common.Relation) *Graph {
	g := NewGraph()

	known := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		known[e.ID] = struct{}{}
		subject := NSEntity + e.ID
		g.Add(Triple{Subject: subject, Predicate: URIType, Object: NSOntology + e.Type})
		g.Add(Triple{Subject: subject, Predicate: URILabel, Object: e.Label, ObjectLiteral: true})
		for _, s := range e.SurfaceForms {
			if s == e.Label {
				continue
			}
			g.Add(Triple{Subject: subject, Predicate: URISurfaceForm, Object: s, ObjectLiteral: true})
		}
	}

	for _, r := range relations {
		if _, ok := known[r.SubjectID]; !ok {
			logger.Warn("[KG] Dropping relation with unknown subject", "subject", r.SubjectID)
			continue
		}
		if _, ok := known[r.ObjectID]; !ok {
			logger.Warn("[KG] Dropping relation with unknown object", "object", r.ObjectID)
			continue
		}
		g.Add(Triple{
			Subject:   NSEntity + r.SubjectID,
			Predicate: NSRelation + r.Predicate,
			Object:    NSEntity + r.ObjectID,
		})
	}

	return g
}
