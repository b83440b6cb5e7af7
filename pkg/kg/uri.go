package kg

import "strings"

// Namespace URIs of the knowledge base. Entity and relation URIs live in
// their own namespaces; ontology terms (types, annotation properties)
// live under ml.
const (
	NSOntology = "http://ml-kg.org/ontology#"
	NSEntity   = "http://ml-kg.org/entity/"
	NSRelation = "http://ml-kg.org/relation/"
	NSRDF      = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSRDFS     = "http://www.w3.org/2000/01/rdf-schema#"
)

// Well-known term URIs.
const (
	URIType        = NSRDF + "type"
	URILabel       = NSRDFS + "label"
	URISurfaceForm = NSOntology + "surfaceForm"
)

// prefixOrder fixes the emission order of @prefix declarations.
var prefixOrder = []string{"ml", "entity", "relation", "rdf", "rdfs"}

var prefixes = map[string]string{
	"ml":       NSOntology,
	"entity":   NSEntity,
	"relation": NSRelation,
	"rdf":      NSRDF,
	"rdfs":     NSRDFS,
}

// Compact shortens a URI to a prefixed name when a namespace matches,
// otherwise returns the URI unchanged.
func Compact(uri string) string {
	for _, p := range prefixOrder {
		ns := prefixes[p]
		if strings.HasPrefix(uri, ns) {
			local := uri[len(ns):]
			if local != "" && !strings.ContainsAny(local, "/#:") {
				return p + ":" + local
			}
		}
	}
	return uri
}

// Expand resolves a prefixed name back to a full URI. Unknown prefixes and
// non-prefixed input come back unchanged.
func Expand(name string) string {
	prefix, local, ok := strings.Cut(name, ":")
	if !ok {
		return name
	}
	ns, ok := prefixes[prefix]
	if !ok {
		return name
	}
	return ns + local
}

func escapeLiteral(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
	return r.Replace(s)
}

func unescapeLiteral(s string) string {
	r := strings.NewReplacer(
		`\\`, `\`,
		`\"`, `"`,
		`\n`, "\n",
		`\r`, "\r",
		`\t`, "\t",
	)
	return r.Replace(s)
}
