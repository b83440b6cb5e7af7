package ai

// CanonicalizePrompt instructs the oracle to unify a batch of raw surface
// forms into canonical entities. Placeholders: entity type list, surface
// form list.
const CanonicalizePrompt = `
# Task Context
You are an expert in Machine Learning and Deep Learning terminology. You will be given raw entity mentions extracted from academic ML/DL texts.

# Background Data
Allowed entity types: [%s]

Mentions to normalize:
%s

# Detailed Task Description & Rules
- Group mentions that refer to the same real-world entity (e.g., "SVM", "Support Vector Machine", "support vector machines" belong to one group).
- For each group choose one canonical name using standard academic terminology and consistent capitalization.
- Assign each group exactly one type from the allowed entity types.
- List every input mention that belongs to a group under its aliases. Every input mention must appear in exactly one group.
- Be conservative: if unsure about a mention, give it its own group with type OTHER.

# Output Formatting
Return a JSON object with this structure:
{
  "entities": [
    {
      "canonical_name": "Support Vector Machine",
      "type": "ALGORITHM",
      "aliases": ["SVM", "support vector machines"]
    }
  ]
}
`

// RelationPrompt instructs the oracle to extract typed relations between
// known entities from one chunk. Placeholders: predicate gloss list,
// entity list, chunk text.
const RelationPrompt = `
# Task Context
You are an expert in Machine Learning and Deep Learning. Extract semantic relations between known entities from the given text.

# Background Data
Allowed relation types:
%s

Entities present in the text:
%s

Text:
%s

# Detailed Task Description & Rules
- Find relationships between the listed entities that are explicitly stated or clearly implied by the text.
- Use ONLY the relation types listed above as predicate.
- Use entity names EXACTLY as they appear in the entity list for subject and object.
- Include the sentence or phrase supporting each relation as context.
- Give each relation a confidence between 0 and 1 reflecting how directly the text supports it.
- Do not invent relations that the text does not support.

# Output Formatting
Return a JSON object with this structure:
{
  "relations": [
    {
      "subject": "Neural Network",
      "predicate": "uses",
      "object": "Gradient Descent",
      "context": "Neural networks are trained using gradient descent optimization",
      "confidence": 0.9
    }
  ]
}
`

// RewritePrompt instructs the oracle to turn a structured answer into
// fluent prose. Placeholders: question, structured answer, intent-specific
// instruction.
const RewritePrompt = `
# Task Context
You are an assistant answering questions about a Machine Learning knowledge base. You will be given a user question and a structured answer assembled from the knowledge base.

# Background Data
Question: %s

Structured answer:
%s

# Detailed Task Description & Rules
- Rewrite the structured answer as one short, fluent paragraph of natural language.
- %s
- Use only the facts present in the structured answer. Do not add information.
- If the structured answer reports no results, say so plainly.
- Answer in the language of the question.

# Output Formatting
Return only the rewritten paragraph, with no preamble and no markdown.
`
