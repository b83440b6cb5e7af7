package kg

import (
	"fmt"
	"strings"
)

func writeNTriples(g *Graph) string {
	var b strings.Builder
	for _, t := range g.Triples() {
		b.WriteString("<")
		b.WriteString(t.Subject)
		b.WriteString("> <")
		b.WriteString(t.Predicate)
		b.WriteString("> ")
		if t.ObjectLiteral {
			b.WriteString(`"`)
			b.WriteString(escapeLiteral(t.Object))
			b.WriteString(`"`)
		} else {
			b.WriteString("<")
			b.WriteString(t.Object)
			b.WriteString(">")
		}
		b.WriteString(" .\n")
	}
	return b.String()
}

func parseNTriples(data string) (*Graph, error) {
	g := NewGraph()
	for ln, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		t, err := parseNTripleLine(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSerialization, ln+1, err)
		}
		g.Add(t)
	}
	return g, nil
}

func parseNTripleLine(line string) (Triple, error) {
	var t Triple
	rest := line

	subject, rest, err := readIRI(rest)
	if err != nil {
		return t, fmt.Errorf("subject: %v", err)
	}
	predicate, rest, err := readIRI(strings.TrimLeft(rest, " \t"))
	if err != nil {
		return t, fmt.Errorf("predicate: %v", err)
	}

	rest = strings.TrimLeft(rest, " \t")
	switch {
	case strings.HasPrefix(rest, "<"):
		t.Object, rest, err = readIRI(rest)
		if err != nil {
			return t, fmt.Errorf("object: %v", err)
		}
	case strings.HasPrefix(rest, `"`):
		t.Object, rest, err = readLiteral(rest)
		if err != nil {
			return t, fmt.Errorf("object: %v", err)
		}
		t.ObjectLiteral = true
	default:
		return t, fmt.Errorf("unexpected object term %q", rest)
	}

	if strings.TrimSpace(rest) != "." {
		return t, fmt.Errorf("missing statement terminator")
	}
	t.Subject = subject
	t.Predicate = predicate
	return t, nil
}

func readIRI(s string) (string, string, error) {
	if !strings.HasPrefix(s, "<") {
		return "", "", fmt.Errorf("expected IRI, got %q", s)
	}
	end := strings.IndexByte(s, '>')
	if end < 0 {
		return "", "", fmt.Errorf("unterminated IRI")
	}
	return s[1:end], s[end+1:], nil
}

func readLiteral(s string) (string, string, error) {
	if !strings.HasPrefix(s, `"`) {
		return "", "", fmt.Errorf("expected literal, got %q", s)
	}
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return unescapeLiteral(s[1:i]), s[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("unterminated literal")
}
