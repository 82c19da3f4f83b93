// Package intent classifies one utterance of caller speech into the action
// the call flow takes next. The matching is deliberately blunt substring
// heuristics carried over from the production phrase lists; precedence is
// fixed: stop > escalate > order query > other.
package intent

import (
	"regexp"
	"strings"
)

// Kind tags the classified intent of an utterance.
type Kind int

const (
	// KindOther routes the utterance to open-ended reply generation.
	KindOther Kind = iota
	// KindStop means the caller wants to end the call.
	KindStop
	// KindEscalate means the caller wants a human.
	KindEscalate
	// KindOrderQuery means the caller is asking about an order.
	KindOrderQuery
)

// Intent is the classification result. OrderID is set only for
// KindOrderQuery, and only when an identifier could be extracted.
type Intent struct {
	Kind    Kind
	OrderID string
}

// Multi-word stop phrases match anywhere in the utterance; the single
// tokens below match on word boundaries only so "no" does not fire
// inside "order number".
var stopPhrases = []string{
	"that's all",
	"thats all",
	"nothing else",
	"that's it",
	"thats it",
	"goodbye",
}

var stopWordPattern = regexp.MustCompile(`\b(no|bye|nope)\b`)

// Escalation matching is high-recall, low-precision on purpose: "human"
// and "agent" fire inside longer words and unrelated sentences. Callers
// of Classify tolerate the false positives; do not narrow these without
// re-validating recorded call flows.
var escalatePhrases = []string{
	"talk to agent",
	"talk to a human",
	"talk to human",
	"human",
	"real person",
	"customer support",
	"representative",
	"agent",
}

var orderPhrases = []string{
	"order status",
	"where is my order",
	"where's my order",
	"track my order",
	"order number",
	"order status for",
}

// Order identifier extraction, in priority order. First match wins.
var (
	hashOrderPattern  = regexp.MustCompile(`#\s?(\d+)`)
	namedOrderPattern = regexp.MustCompile(`\border\s+(?:number|no\.?|#)\s*([a-z0-9][a-z0-9-]*)`)
	bareOrderPattern  = regexp.MustCompile(`\b(\d{5,})\b`)
)

// Classify maps raw utterance text to an Intent. It is pure and
// deterministic; classifying the same text twice yields the same result.
func Classify(utterance string) Intent {
	text := strings.TrimSpace(strings.ToLower(utterance))
	if text == "" {
		return Intent{Kind: KindOther}
	}

	if matchesStop(text) {
		return Intent{Kind: KindStop}
	}

	for _, phrase := range escalatePhrases {
		if strings.Contains(text, phrase) {
			return Intent{Kind: KindEscalate}
		}
	}

	for _, phrase := range orderPhrases {
		if strings.Contains(text, phrase) {
			return Intent{Kind: KindOrderQuery, OrderID: extractOrderID(text)}
		}
	}

	return Intent{Kind: KindOther}
}

func matchesStop(text string) bool {
	for _, phrase := range stopPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return stopWordPattern.MatchString(text)
}

// extractOrderID pulls an order identifier out of normalized text. A "#"
// followed by digits beats a spoken "order number X" form, which beats a
// bare run of five or more digits. Returns "" when nothing matches.
func extractOrderID(text string) string {
	if m := hashOrderPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := namedOrderPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := bareOrderPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}
