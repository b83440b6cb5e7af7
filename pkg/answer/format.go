package answer

import (
	"fmt"
	"strings"

	"github.com/mlkg-org/backend/pkg/query"
)

// format renders rows into the per-intent structured answer and returns
// it with the intent's confidence band. Bands reward populated results
// and penalize empty ones without ever erroring.
func format(tr query.Translated, rows []query.Row) (string, float64) {
	switch tr.Parsed.Intent {
	case query.IntentWhatIs:
		return formatWhatIs(tr, rows)
	case query.IntentWhatUses:
		return formatWhatUses(tr, rows)
	case query.IntentTypeOf:
		return formatTypeOf(tr, rows)
	case query.IntentWhoCreated:
		return formatWhoCreated(tr, rows)
	case query.IntentHowRelated:
		return formatHowRelated(tr, rows)
	case query.IntentListByType:
		return formatListByType(tr, rows)
	case query.IntentFindSimilar:
		return formatFindSimilar(tr, rows)
	}
	return "No answer could be assembled.", 0
}

func subjectLabel(tr query.Translated) string {
	if len(tr.Entities) > 0 {
		return tr.Entities[0].Label
	}
	if len(tr.Parsed.Mentions) > 0 {
		return tr.Parsed.Mentions[0]
	}
	return "the entity"
}

func formatWhatIs(tr query.Translated, rows []query.Row) (string, float64) {
	subject := subjectLabel(tr)
	var typ string
	for _, row := range rows {
		if t, ok := row["type"]; ok {
			typ = localName(t.Value)
			break
		}
	}
	if typ == "" {
		return fmt.Sprintf("No type information found for %s.", subject), 0.5
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s is classified as %s.", subject, typ)
	if len(tr.Entities) > 0 {
		if aliases := otherNames(tr.Entities[0].SurfaceForms, subject); len(aliases) > 0 {
			fmt.Fprintf(&b, " Also known as: %s.", strings.Join(aliases, ", "))
		}
	}
	confidence := 0.6
	if hasBinding(rows, "label") {
		confidence = 0.9
	}
	return b.String(), confidence
}

func formatWhatUses(tr query.Translated, rows []query.Row) (string, float64) {
	subject := subjectLabel(tr)
	if len(rows) == 0 {
		return fmt.Sprintf("Nothing in the knowledge graph uses %s.", subject), 0.3
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Entities that use %s:\n", subject)
	for _, row := range rows {
		fmt.Fprintf(&b, "- %s (%s, via %s)\n",
			rowLabel(row, "userLabel", "user"),
			localName(row["userType"].Value),
			localName(row["relation"].Value))
	}
	return strings.TrimRight(b.String(), "\n"), 0.8
}

func formatTypeOf(tr query.Translated, rows []query.Row) (string, float64) {
	subject := subjectLabel(tr)
	if len(rows) == 0 {
		return fmt.Sprintf("No parent category found for %s.", subject), 0.4
	}
	parents := make([]string, 0, len(rows))
	for _, row := range rows {
		parents = append(parents, rowLabel(row, "parentLabel", "parent"))
	}
	return fmt.Sprintf("%s is a kind of: %s.", subject, strings.Join(parents, ", ")), 0.8
}

func formatWhoCreated(tr query.Translated, rows []query.Row) (string, float64) {
	subject := subjectLabel(tr)
	if len(rows) == 0 {
		return fmt.Sprintf("No creator is recorded for %s in the knowledge graph.", subject), 0.3
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s is attributed to:\n", subject)
	for _, row := range rows {
		fmt.Fprintf(&b, "- %s (%s)\n",
			rowLabel(row, "creatorLabel", "creator"),
			localName(row["relation"].Value))
	}
	return strings.TrimRight(b.String(), "\n"), 0.9
}

func formatHowRelated(tr query.Translated, rows []query.Row) (string, float64) {
	first := subjectLabel(tr)
	second := "the other entity"
	if len(tr.Entities) > 1 {
		second = tr.Entities[1].Label
	}
	if len(rows) == 0 {
		return fmt.Sprintf("No direct relation found between %s and %s.", first, second), 0.2
	}
	predicates := make([]string, 0, len(rows))
	for _, row := range rows {
		predicates = append(predicates, localName(row["relation"].Value))
	}
	return fmt.Sprintf("%s and %s are connected by: %s.",
		first, second, strings.Join(predicates, ", ")), 0.8
}

func formatListByType(tr query.Translated, rows []query.Row) (string, float64) {
	typ := localName(tr.Params["type"])
	if len(rows) == 0 {
		return fmt.Sprintf("No entities of type %s found.", typ), 0.3
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Entities of type %s:\n", typ)
	for i, row := range rows {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rowLabel(row, "label", "entity"))
	}
	return strings.TrimRight(b.String(), "\n"), 0.9
}

func formatFindSimilar(tr query.Translated, rows []query.Row) (string, float64) {
	subject := subjectLabel(tr)
	if len(rows) == 0 {
		return fmt.Sprintf("No entities similar to %s found.", subject), 0.3
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Entities similar to %s (sharing a type):\n", subject)
	for _, row := range rows {
		fmt.Fprintf(&b, "- %s (%s)\n",
			rowLabel(row, "similarLabel", "similar"),
			localName(row["commonType"].Value))
	}
	return strings.TrimRight(b.String(), "\n"), 0.7
}

// rowLabel prefers the human label variable, falling back to the URI's
// local name.
func rowLabel(row query.Row, labelVar, uriVar string) string {
	if t, ok := row[labelVar]; ok && t.Value != "" {
		return t.Value
	}
	return localName(row[uriVar].Value)
}

func localName(uri string) string {
	if i := strings.LastIndexAny(uri, "/#"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

func otherNames(surfaces []string, label string) []string {
	var out []string
	for _, s := range surfaces {
		if !strings.EqualFold(s, label) {
			out = append(out, s)
		}
	}
	return out
}

func hasBinding(rows []query.Row, name string) bool {
	for _, row := range rows {
		if _, ok := row[name]; ok {
			return true
		}
	}
	return false
}
