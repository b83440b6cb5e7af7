// Package common defines the data model shared across the construction
// pipeline and the query path.
package common

// Chunk is a text segment produced by the external chunking collaborator.
// The pipeline only requires that chunk ids are unique and stable.
type Chunk struct {
	ID             string `json:"chunk_id"`
	Text           string `json:"text"`
	SourceDocument string `json:"source_document"`
}

// Mention is a raw entity occurrence inside a chunk, produced by the
// external recognizer. Mentions are consumed entirely by canonicalization.
type Mention struct {
	Surface  string `json:"surface_text"`
	ChunkID  string `json:"chunk_id"`
	Position int    `json:"position"`
}

// CanonicalEntity is the stable identity a set of mentions collapses into.
//
// ID is immutable once assigned and deterministic for a given clustering
// decision, so identifiers stay stable across runs. SurfaceForms and
// Provenance are kept sorted so the structure compares equal across runs.
type CanonicalEntity struct {
	ID           string   `json:"entity_id"`
	Label        string   `json:"canonical_label"`
	Type         string   `json:"type"`
	SurfaceForms []string `json:"surface_forms"`
	Provenance   []string `json:"provenance_chunk_ids"`
}

// RelationCandidate is a single typed relation observation from one chunk.
// Subject and Object reference CanonicalEntity ids; Predicate is a member
// of the controlled vocabulary.
type RelationCandidate struct {
	SubjectID  string  `json:"subject_entity_id"`
	Predicate  string  `json:"predicate"`
	ObjectID   string  `json:"object_entity_id"`
	ChunkID    string  `json:"source_chunk_id"`
	Confidence float64 `json:"confidence"`
	Context    string  `json:"context,omitempty"`
}

// Relation is the merged form of all candidates sharing the same
// (subject, predicate, object) triple. Provenance is the sorted union of
// contributing chunk ids; Confidence aggregates independent evidence as
// 1 - prod(1 - c_i), clamped to [0,1].
type Relation struct {
	SubjectID  string   `json:"subject_entity_id"`
	Predicate  string   `json:"predicate"`
	ObjectID   string   `json:"object_entity_id"`
	Confidence float64  `json:"confidence"`
	Provenance []string `json:"provenance_chunk_ids"`
}

// Key returns the merge key identifying the relation's triple.
func (r Relation) Key() string {
	return r.SubjectID + "|" + r.Predicate + "|" + r.ObjectID
}
