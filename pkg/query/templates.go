package query

// TriplePattern is one pattern in a template. Each position holds a
// "?variable", a "$parameter" substituted at execution time, or a
// prefixed URI from the graph's namespaces.
type TriplePattern struct {
	S, P, O string
}

// Template is a declarative graph query. Where patterns must all match;
// Union branches are alternatives appended to Where, each producing its
// own solutions; Optional patterns extend solutions when they match and
// leave variables unbound otherwise.
type Template struct {
	Select   []string
	Where    []TriplePattern
	Union    [][]TriplePattern
	Optional []TriplePattern

	// PredicateIn restricts a variable to an explicit URI set;
	// PredicatePrefix restricts it to a namespace.
	PredicateIn     map[string][]string
	PredicatePrefix map[string]string

	// Exclude forbids a variable from taking a parameter's value.
	Exclude map[string]string

	Limit int
}

// templates maps each intent to its graph query. Parameter conventions:
// $entity (and $other for two-entity intents) bind to entity URIs, $type
// to an ontology type URI.
var templates = map[Intent]Template{
	IntentWhatIs: {
		Select: []string{"?type", "?label"},
		Where: []TriplePattern{
			{S: "$entity", P: "rdf:type", O: "?type"},
		},
		Optional: []TriplePattern{
			{S: "$entity", P: "rdfs:label", O: "?label"},
		},
	},
	IntentWhatUses: {
		Select: []string{"?user", "?userLabel", "?userType", "?relation"},
		Where: []TriplePattern{
			{S: "?user", P: "?relation", O: "$entity"},
			{S: "?user", P: "rdf:type", O: "?userType"},
			{S: "?user", P: "rdfs:label", O: "?userLabel"},
		},
		PredicateIn: map[string][]string{
			"?relation": {"relation:uses", "relation:implements", "relation:applies_to"},
		},
	},
	IntentTypeOf: {
		Select: []string{"?parent", "?parentLabel"},
		Where: []TriplePattern{
			{S: "$entity", P: "relation:is_a", O: "?parent"},
		},
		Optional: []TriplePattern{
			{S: "?parent", P: "rdfs:label", O: "?parentLabel"},
		},
	},
	IntentWhoCreated: {
		Select: []string{"?creator", "?creatorLabel", "?relation"},
		Where: []TriplePattern{
			{S: "$entity", P: "?relation", O: "?creator"},
		},
		PredicateIn: map[string][]string{
			"?relation": {"relation:created_by", "relation:proposed_by", "relation:developed_by"},
		},
		Optional: []TriplePattern{
			{S: "?creator", P: "rdfs:label", O: "?creatorLabel"},
		},
	},
	IntentHowRelated: {
		Select: []string{"?relation"},
		Union: [][]TriplePattern{
			{{S: "$entity", P: "?relation", O: "$other"}},
			{{S: "$other", P: "?relation", O: "$entity"}},
		},
		PredicatePrefix: map[string]string{
			"?relation": "relation:",
		},
	},
	IntentListByType: {
		Select: []string{"?entity", "?label"},
		Where: []TriplePattern{
			{S: "?entity", P: "rdf:type", O: "$type"},
			{S: "?entity", P: "rdfs:label", O: "?label"},
		},
		Limit: 15,
	},
	IntentFindSimilar: {
		Select: []string{"?similar", "?similarLabel", "?commonType"},
		Where: []TriplePattern{
			{S: "$entity", P: "rdf:type", O: "?commonType"},
			{S: "?similar", P: "rdf:type", O: "?commonType"},
			{S: "?similar", P: "rdfs:label", O: "?similarLabel"},
		},
		Exclude: map[string]string{"?similar": "$entity"},
		Limit:   10,
	},
}

// TemplateFor returns the query template for an intent.
func TemplateFor(intent Intent) (Template, bool) {
	t, ok := templates[intent]
	return t, ok
}
