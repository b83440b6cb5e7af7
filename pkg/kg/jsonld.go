package kg

import (
	"encoding/json"
	"fmt"
	"sort"
)

type jsonldDoc struct {
	Context map[string]string `json:"@context"`
	Graph   []map[string]any  `json:"@graph"`
}

func writeJSONLD(g *Graph) (string, error) {
	nodes := make(map[string]map[string]any)
	var subjectOrder []string

	for _, t := range g.Triples() {
		subject := Compact(t.Subject)
		node, ok := nodes[subject]
		if !ok {
			node = map[string]any{"@id": subject}
			nodes[subject] = node
			subjectOrder = append(subjectOrder, subject)
		}

		var key string
		var value any
		if t.Predicate == URIType && !t.ObjectLiteral {
			key = "@type"
			value = Compact(t.Object)
		} else {
			key = Compact(t.Predicate)
			if t.ObjectLiteral {
				value = t.Object
			} else {
				value = map[string]any{"@id": Compact(t.Object)}
			}
		}

		switch existing := node[key].(type) {
		case nil:
			node[key] = value
		case []any:
			node[key] = append(existing, value)
		default:
			node[key] = []any{existing, value}
		}
	}

	sort.Strings(subjectOrder)
	doc := jsonldDoc{Context: prefixes, Graph: make([]map[string]any, 0, len(subjectOrder))}
	for _, s := range subjectOrder {
		doc.Graph = append(doc.Graph, nodes[s])
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return string(out) + "\n", nil
}

func parseJSONLD(data string) (*Graph, error) {
	var doc jsonldDoc
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	expand := func(name string) string {
		prefix, local, ok := cutPrefix(name)
		if !ok {
			return name
		}
		ns, ok := doc.Context[prefix]
		if !ok {
			return name
		}
		return ns + local
	}

	g := NewGraph()
	for _, node := range doc.Graph {
		id, ok := node["@id"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: node without @id", ErrSerialization)
		}
		subject := expand(id)

		for key, raw := range node {
			if key == "@id" {
				continue
			}
			predicate := expand(key)
			if key == "@type" {
				predicate = URIType
			}
			for _, value := range asSlice(raw) {
				switch v := value.(type) {
				case string:
					if key == "@type" {
						g.Add(Triple{Subject: subject, Predicate: predicate, Object: expand(v)})
					} else {
						g.Add(Triple{Subject: subject, Predicate: predicate, Object: v, ObjectLiteral: true})
					}
				case map[string]any:
					ref, ok := v["@id"].(string)
					if !ok {
						return nil, fmt.Errorf("%w: object node without @id under %q", ErrSerialization, key)
					}
					g.Add(Triple{Subject: subject, Predicate: predicate, Object: expand(ref)})
				default:
					return nil, fmt.Errorf("%w: unsupported value under %q", ErrSerialization, key)
				}
			}
		}
	}
	return g, nil
}

func asSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	return []any{v}
}

func cutPrefix(name string) (string, string, bool) {
	for i := 0; i < len(name); i++ {
		if name[i] == ':' {
			return name[:i], name[i+1:], true
		}
	}
	return "", "", false
}
