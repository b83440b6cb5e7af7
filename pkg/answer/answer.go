// Package answer turns executed query results into a final response:
// a structured summary per intent, a confidence score, and optionally an
// oracle-rewritten natural-language paragraph.
package answer

import (
	"context"
	"fmt"

	"github.com/mlkg-org/backend/internal/util"
	"github.com/mlkg-org/backend/pkg/ai"
	"github.com/mlkg-org/backend/pkg/common"
	"github.com/mlkg-org/backend/pkg/kg"
	"github.com/mlkg-org/backend/pkg/logger"
	"github.com/mlkg-org/backend/pkg/query"
)

// Answer is the response to one question.
type Answer struct {
	Question     string       `json:"question"`
	Intent       query.Intent `json:"intent"`
	Text         string       `json:"answer"`
	Structured   string       `json:"structured_answer"`
	ResultCount  int          `json:"result_count"`
	Confidence   float64      `json:"confidence"`
	UsedFallback bool         `json:"used_fallback"`
}

// Assembler answers questions against an assembled graph. The oracle
// client is optional; without one every answer uses the structured form.
type Assembler struct {
	index  *query.Index
	graph  *kg.Graph
	client ai.Client

	maxRetries int
}

// New creates an Assembler. client may be nil.
func New(entities []common.CanonicalEntity, graph *kg.Graph, client ai.Client) *Assembler {
	return &Assembler{
		index:      query.NewIndex(entities),
		graph:      graph,
		client:     client,
		maxRetries: 2,
	}
}

// Answer resolves a question end to end: translate, execute, format,
// enhance.
//
// An empty result set yields a low-confidence answer, never an error.
// Errors are limited to questions that cannot be translated at all:
// query.ErrUnsupportedIntent and query.ErrEntityNotFound.
func (a *Assembler) Answer(ctx context.Context, question string) (Answer, error) {
	translated, err := query.Translate(question, a.index)
	if err != nil {
		return Answer{}, err
	}

	rows, err := query.Execute(a.graph, translated.Template, translated.Params)
	if err != nil {
		return Answer{}, err
	}

	structured, confidence := format(translated, rows)
	confidence = scaleByIntentConfidence(confidence, translated.Parsed.Confidence)

	ans := Answer{
		Question:    question,
		Intent:      translated.Parsed.Intent,
		Structured:  structured,
		ResultCount: len(rows),
		Confidence:  confidence,
	}
	a.enhance(ctx, &ans)

	logger.Debug("[Answer] Question answered",
		"intent", ans.Intent, "results", ans.ResultCount,
		"confidence", ans.Confidence, "fallback", ans.UsedFallback)
	return ans, nil
}

// rewriteInstructions steers the rewrite per intent: a definition reads
// differently from a list or a comparison.
var rewriteInstructions = map[query.Intent]string{
	query.IntentWhatIs:      "Explain the concept didactically: definition, key characteristics and applications.",
	query.IntentWhatUses:    "List each item that uses the concept and explain it briefly.",
	query.IntentTypeOf:      "Explain the concept's classification and hierarchy.",
	query.IntentWhoCreated:  "Present the creators and the historical context.",
	query.IntentHowRelated:  "Explain the connections and relations between the concepts.",
	query.IntentListByType:  "Present the list in an organized way with brief descriptions.",
	query.IntentFindSimilar: "Compare the concepts and explain their similarities.",
}

const defaultRewriteInstruction = "Answer clearly and informatively."

// enhance rewrites the structured answer into prose via the oracle. Any
// oracle failure falls back to the structured form at reduced confidence.
func (a *Assembler) enhance(ctx context.Context, ans *Answer) {
	if a.client == nil {
		ans.Text = ans.Structured
		ans.UsedFallback = true
		return
	}

	instruction, ok := rewriteInstructions[ans.Intent]
	if !ok {
		instruction = defaultRewriteInstruction
	}
	prompt := fmt.Sprintf(ai.RewritePrompt, ans.Question, ans.Structured, instruction)
	text, err := util.RetryWithContext(ctx, a.maxRetries, func(ctx context.Context) (string, error) {
		return a.client.GenerateCompletion(ctx, prompt, ai.WithTemperature(0.7))
	})
	if err != nil || text == "" {
		logger.Warn("[Answer] Enhancement unavailable, using structured answer", "err", err)
		ans.Text = ans.Structured
		ans.UsedFallback = true
		ans.Confidence = clamp01(ans.Confidence * 0.8)
		return
	}
	ans.Text = text
}

// scaleByIntentConfidence folds classification certainty into the final
// score: a pattern-matched question keeps the band value, the last-word
// fallback shrinks it proportionally.
func scaleByIntentConfidence(band, intentConfidence float64) float64 {
	return clamp01(band * intentConfidence / 0.8)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
