package kg

import (
	"fmt"
	"strings"
)

func writeTurtle(g *Graph) string {
	var b strings.Builder
	for _, p := range prefixOrder {
		fmt.Fprintf(&b, "@prefix %s: <%s> .\n", p, prefixes[p])
	}

	triples := g.Triples()
	for i := 0; i < len(triples); {
		subject := triples[i].Subject
		b.WriteString("\n")
		b.WriteString(turtleTerm(subject, false))

		first := true
		for ; i < len(triples) && triples[i].Subject == subject; i++ {
			if first {
				b.WriteString(" ")
				first = false
			} else {
				b.WriteString(" ;\n    ")
			}
			b.WriteString(turtleTerm(triples[i].Predicate, false))
			b.WriteString(" ")
			b.WriteString(turtleTerm(triples[i].Object, triples[i].ObjectLiteral))
		}
		b.WriteString(" .\n")
	}
	return b.String()
}

func turtleTerm(value string, literal bool) string {
	if literal {
		return `"` + escapeLiteral(value) + `"`
	}
	if compact := Compact(value); compact != value {
		return compact
	}
	return "<" + value + ">"
}

type turtleParser struct {
	tokens   []string
	pos      int
	prefixes map[string]string
}

func parseTurtle(data string) (*Graph, error) {
	p := &turtleParser{
		tokens:   tokenizeTurtle(data),
		prefixes: make(map[string]string),
	}
	g := NewGraph()

	for !p.done() {
		if p.peek() == "@prefix" {
			if err := p.parsePrefix(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
			}
			continue
		}
		if err := p.parseStatement(g); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
	}
	return g, nil
}

func (p *turtleParser) parsePrefix() error {
	p.next() // @prefix
	name := p.next()
	iri := p.next()
	if term := p.next(); term != "." {
		return fmt.Errorf("unterminated @prefix declaration")
	}
	if !strings.HasSuffix(name, ":") {
		return fmt.Errorf("malformed prefix name %q", name)
	}
	if !strings.HasPrefix(iri, "<") || !strings.HasSuffix(iri, ">") {
		return fmt.Errorf("malformed prefix IRI %q", iri)
	}
	p.prefixes[strings.TrimSuffix(name, ":")] = iri[1 : len(iri)-1]
	return nil
}

func (p *turtleParser) parseStatement(g *Graph) error {
	subject, _, err := p.resolveTerm(p.next())
	if err != nil {
		return fmt.Errorf("subject: %v", err)
	}
	for {
		predicate, literal, err := p.resolveTerm(p.next())
		if err != nil {
			return fmt.Errorf("predicate: %v", err)
		}
		if literal {
			return fmt.Errorf("literal in predicate position")
		}
		object, objectLiteral, err := p.resolveTerm(p.next())
		if err != nil {
			return fmt.Errorf("object: %v", err)
		}
		g.Add(Triple{Subject: subject, Predicate: predicate, Object: object, ObjectLiteral: objectLiteral})

		switch p.next() {
		case ";":
			continue
		case ".":
			return nil
		default:
			return fmt.Errorf("expected ; or . after object")
		}
	}
}

// resolveTerm maps one token to a full URI or a literal value.
func (p *turtleParser) resolveTerm(tok string) (string, bool, error) {
	switch {
	case tok == "":
		return "", false, fmt.Errorf("unexpected end of input")
	case strings.HasPrefix(tok, "<") && strings.HasSuffix(tok, ">"):
		return tok[1 : len(tok)-1], false, nil
	case strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`) && len(tok) >= 2:
		return unescapeLiteral(tok[1 : len(tok)-1]), true, nil
	default:
		prefix, local, ok := strings.Cut(tok, ":")
		if !ok {
			return "", false, fmt.Errorf("unresolvable term %q", tok)
		}
		ns, ok := p.prefixes[prefix]
		if !ok {
			return "", false, fmt.Errorf("undeclared prefix %q", prefix)
		}
		return ns + local, false, nil
	}
}

func (p *turtleParser) done() bool   { return p.pos >= len(p.tokens) }
func (p *turtleParser) peek() string {
	if p.done() {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *turtleParser) next() string {
	tok := p.peek()
	p.pos++
	return tok
}

// tokenizeTurtle splits a Turtle document into IRIs, literals, prefixed
// names and the punctuation tokens ";" and ".".
func tokenizeTurtle(data string) []string {
	var tokens []string
	i := 0
	for i < len(data) {
		c := data[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '#':
			for i < len(data) && data[i] != '\n' {
				i++
			}
		case c == ';' || c == '.':
			tokens = append(tokens, string(c))
			i++
		case c == '<':
			end := strings.IndexByte(data[i:], '>')
			if end < 0 {
				tokens = append(tokens, data[i:])
				return tokens
			}
			tokens = append(tokens, data[i:i+end+1])
			i += end + 1
		case c == '"':
			j := i + 1
			for j < len(data) {
				if data[j] == '\\' {
					j += 2
					continue
				}
				if data[j] == '"' {
					break
				}
				j++
			}
			if j >= len(data) {
				tokens = append(tokens, data[i:])
				return tokens
			}
			tokens = append(tokens, data[i:j+1])
			i = j + 1
		default:
			j := i
			for j < len(data) && !strings.ContainsRune(" \t\n\r;", rune(data[j])) {
				j++
			}
			tok := data[i:j]
			// A trailing dot terminates the statement, not the name.
			for strings.HasSuffix(tok, ".") {
				tok = tok[:len(tok)-1]
				j--
			}
			if tok != "" {
				tokens = append(tokens, tok)
			} else {
				j++
			}
			i = j
		}
	}
	return tokens
}
