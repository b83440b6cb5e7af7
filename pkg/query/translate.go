package query

import (
	"fmt"
	"strings"

	"github.com/mlkg-org/backend/pkg/common"
	"github.com/mlkg-org/backend/pkg/kg"
	"github.com/mlkg-org/backend/pkg/logger"
)

// Translated is a question ready for execution: classified, bound to
// canonical entities and paired with its template.
type Translated struct {
	Parsed   ParsedQuestion
	Template Template
	Params   map[string]string
	Entities []common.CanonicalEntity
}

var listTypeWords = map[string]string{
	"algorithm": "ALGORITHM", "algorithms": "ALGORITHM",
	"concept": "CONCEPT", "concepts": "CONCEPT",
	"metric": "METRIC", "metrics": "METRIC",
	"dataset": "DATASET", "datasets": "DATASET",
	"person": "PERSON", "persons": "PERSON", "people": "PERSON",
	"organization": "ORGANIZATION", "organizations": "ORGANIZATION",
	"software": "SOFTWARE",
}

// Translate classifies a question and binds its mentions against the
// entity index, yielding an executable query.
//
// Returns ErrUnsupportedIntent when classification fails entirely and
// ErrEntityNotFound when a mentioned entity is absent from the graph.
func Translate(question string, ix *Index) (Translated, error) {
	parsed, err := Classify(question)
	if err != nil {
		return Translated{}, err
	}
	tmpl, ok := TemplateFor(parsed.Intent)
	if !ok {
		return Translated{}, fmt.Errorf("%w: %s", ErrUnsupportedIntent, parsed.Intent)
	}

	tr := Translated{
		Parsed:   parsed,
		Template: tmpl,
		Params:   make(map[string]string),
	}

	switch parsed.Intent {
	case IntentListByType:
		word := strings.ToLower(parsed.Mentions[0])
		typ, ok := listTypeWords[word]
		if !ok {
			return Translated{}, fmt.Errorf("%w: no entity type for %q", ErrUnsupportedIntent, word)
		}
		tr.Params["type"] = kg.NSOntology + typ

	case IntentHowRelated:
		if len(parsed.Mentions) < 2 {
			return Translated{}, fmt.Errorf("%w: relation question needs two entities", ErrUnsupportedIntent)
		}
		first, err := ix.Bind(parsed.Mentions[0])
		if err != nil {
			return Translated{}, err
		}
		second, err := ix.Bind(parsed.Mentions[1])
		if err != nil {
			return Translated{}, err
		}
		tr.Entities = []common.CanonicalEntity{first, second}
		tr.Params["entity"] = kg.NSEntity + first.ID
		tr.Params["other"] = kg.NSEntity + second.ID

	default:
		entity, err := ix.Bind(parsed.Mentions[0])
		if err != nil {
			return Translated{}, err
		}
		tr.Entities = []common.CanonicalEntity{entity}
		tr.Params["entity"] = kg.NSEntity + entity.ID
	}

	logger.Debug("[Query] Translated question",
		"intent", parsed.Intent, "confidence", parsed.Confidence, "params", tr.Params)
	return tr, nil
}
