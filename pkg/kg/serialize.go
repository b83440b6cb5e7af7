package kg

import (
	"errors"
	"fmt"
)

// ErrSerialization marks a failed serialization or parse. Construction
// treats it as fatal: a graph that cannot be written out is a build error,
// not something to degrade around.
var ErrSerialization = errors.New("serialization failed")

// Format names a supported graph serialization.
type Format string

const (
	FormatTurtle   Format = "turtle"
	FormatNTriples Format = "ntriples"
	FormatJSONLD   Format = "jsonld"
)

// Formats lists all supported serializations in emission order.
var Formats = []Format{FormatTurtle, FormatNTriples, FormatJSONLD}

// Extension returns the conventional file extension for the format.
func (f Format) Extension() string {
	switch f {
	case FormatTurtle:
		return ".ttl"
	case FormatNTriples:
		return ".nt"
	case FormatJSONLD:
		return ".jsonld"
	}
	return ""
}

// Serialize writes the graph in the given format. Output is deterministic:
// the same graph always serializes to the same bytes.
func Serialize(g *Graph, format Format) (string, error) {
	switch format {
	case FormatTurtle:
		return writeTurtle(g), nil
	case FormatNTriples:
		return writeNTriples(g), nil
	case FormatJSONLD:
		return writeJSONLD(g)
	}
	return "", fmt.Errorf("%w: unsupported format %q", ErrSerialization, format)
}

// Parse reads a serialized graph back. Parsing any output of Serialize
// yields a graph Equal to the source.
func Parse(data string, format Format) (*Graph, error) {
	switch format {
	case FormatTurtle:
		return parseTurtle(data)
	case FormatNTriples:
		return parseNTriples(data)
	case FormatJSONLD:
		return parseJSONLD(data)
	}
	return nil, fmt.Errorf("%w: unsupported format %q", ErrSerialization, format)
}
