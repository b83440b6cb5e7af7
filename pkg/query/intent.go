// Package query turns natural-language questions into template queries
// over the triple graph and executes them. Classification is pure pattern
// matching; no oracle call happens on the query path until answer
// enhancement.
package query

import (
	"errors"
	"regexp"
	"strings"
)

// Intent is the recognized question category.
type Intent string

const (
	IntentWhatIs      Intent = "what_is"
	IntentWhatUses    Intent = "what_uses"
	IntentTypeOf      Intent = "what_is_type_of"
	IntentWhoCreated  Intent = "who_created"
	IntentHowRelated  Intent = "how_related"
	IntentListByType  Intent = "list_by_type"
	IntentFindSimilar Intent = "find_similar"
)

// ErrUnsupportedIntent is returned when a question cannot be mapped to any
// intent, not even the general fallback.
var ErrUnsupportedIntent = errors.New("unsupported question intent")

// ErrEntityNotFound is returned when a mentioned entity cannot be bound to
// any canonical entity in the graph.
var ErrEntityNotFound = errors.New("entity not found in knowledge graph")

// ParsedQuestion is the outcome of intent classification.
type ParsedQuestion struct {
	Intent     Intent
	Mentions   []string
	Confidence float64
	Question   string
}

type intentRule struct {
	intent   Intent
	patterns []*regexp.Regexp
	captures int
}

// Rules are tried in order; the first matching pattern wins. Two-capture
// rules come before their single-capture cousins would shadow them.
var intentRules = []intentRule{
	{
		intent: IntentHowRelated,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)how\s+(?:is|are)?\s*([a-zA-Z0-9_\- ]+?)\s+related\s+to\s+([a-zA-Z0-9_\- ]+)`),
			regexp.MustCompile(`(?i)relation(?:ship)?\s+between\s+([a-zA-Z0-9_\- ]+?)\s+and\s+([a-zA-Z0-9_\- ]+)`),
		},
		captures: 2,
	},
	{
		intent: IntentWhoCreated,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)who\s+(?:created|developed|proposed|invented)\s+([a-zA-Z0-9_\- ]+)`),
			regexp.MustCompile(`(?i)(?:creator|author|inventor)\s+of\s+([a-zA-Z0-9_\- ]+)`),
			regexp.MustCompile(`(?i)([a-zA-Z0-9_\- ]+?)\s+was\s+(?:created|developed|proposed)\s+by`),
		},
		captures: 1,
	},
	{
		intent: IntentWhatUses,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)what\s+uses\s+([a-zA-Z0-9_\- ]+)`),
			regexp.MustCompile(`(?i)(?:which|what)\s+[a-zA-Z0-9_\- ]*?\s*(?:use|uses|implement|implements|apply|applies)\s+([a-zA-Z0-9_\- ]+)`),
		},
		captures: 1,
	},
	{
		intent: IntentTypeOf,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)([a-zA-Z0-9_\- ]+?)\s+is\s+a\s+(?:type|kind|subclass)\s+of\s+what`),
			regexp.MustCompile(`(?i)what\s+(?:type|kind)\s+of\s+[a-zA-Z0-9_\- ]+\s+is\s+([a-zA-Z0-9_\- ]+)`),
			regexp.MustCompile(`(?i)what\s+does\s+([a-zA-Z0-9_\- ]+?)\s+(?:extend|inherit\s+from)`),
		},
		captures: 1,
	},
	{
		intent: IntentListByType,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:list|show|enumerate)\s+(?:me\s+)?(?:all\s+)?(?:the\s+)?(algorithms?|concepts?|metrics?|datasets?|persons?|people|organizations?|software)`),
			regexp.MustCompile(`(?i)(?:what|which)\s+are\s+(?:all\s+)?(?:the\s+)?(algorithms?|concepts?|metrics?|datasets?|persons?|people|organizations?|software)`),
		},
		captures: 1,
	},
	{
		intent: IntentFindSimilar,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:find|show)\s+[a-zA-Z0-9_\- ]*?similar\s+to\s+([a-zA-Z0-9_\- ]+)`),
			regexp.MustCompile(`(?i)what\s+is\s+similar\s+to\s+([a-zA-Z0-9_\- ]+)`),
		},
		captures: 1,
	},
	{
		intent: IntentWhatIs,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)what\s+is\s+(?:an?\s+)?([a-zA-Z0-9_\- ]+)`),
			regexp.MustCompile(`(?i)(?:define|explain)\s+([a-zA-Z0-9_\- ]+)`),
			regexp.MustCompile(`(?i)definition\s+of\s+([a-zA-Z0-9_\- ]+)`),
		},
		captures: 1,
	},
}

const (
	matchedConfidence  = 0.8
	fallbackConfidence = 0.3
)

// Classify maps a question to an intent with extracted entity mentions.
//
// An unmatched question falls back to a definition lookup on its last
// word at low confidence, so the caller can still attempt an answer. Only
// an effectively empty question is unsupported.
func Classify(question string) (ParsedQuestion, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return ParsedQuestion{}, ErrUnsupportedIntent
	}

	for _, rule := range intentRules {
		for _, pattern := range rule.patterns {
			m := pattern.FindStringSubmatch(q)
			if m == nil {
				continue
			}
			mentions := make([]string, 0, rule.captures)
			for i := 1; i <= rule.captures && i < len(m); i++ {
				if cleaned := cleanMention(m[i]); cleaned != "" {
					mentions = append(mentions, cleaned)
				}
			}
			if len(mentions) < rule.captures {
				continue
			}
			return ParsedQuestion{
				Intent:     rule.intent,
				Mentions:   mentions,
				Confidence: matchedConfidence,
				Question:   question,
			}, nil
		}
	}

	words := strings.Fields(strings.Trim(q, "?!."))
	if len(words) == 0 {
		return ParsedQuestion{}, ErrUnsupportedIntent
	}
	last := cleanMention(words[len(words)-1])
	if last == "" {
		return ParsedQuestion{}, ErrUnsupportedIntent
	}
	return ParsedQuestion{
		Intent:     IntentWhatIs,
		Mentions:   []string{last},
		Confidence: fallbackConfidence,
		Question:   question,
	}, nil
}

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "for": {},
}

func cleanMention(s string) string {
	s = strings.Trim(strings.TrimSpace(s), "?!.,")
	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if _, skip := stopWords[strings.ToLower(w)]; skip {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}
