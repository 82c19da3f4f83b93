package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_StopPhrases(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
	}{
		{name: "goodbye", utterance: "Goodbye"},
		{name: "goodbye inside sentence", utterance: "ok goodbye then"},
		{name: "thats all with apostrophe", utterance: "That's all, thanks"},
		{name: "thats all without apostrophe", utterance: "thats all"},
		{name: "nothing else", utterance: "nothing else for today"},
		{name: "bare no", utterance: "no"},
		{name: "bare nope", utterance: "Nope."},
		{name: "bye at end", utterance: "alright bye"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.utterance)
			assert.Equal(t, KindStop, got.Kind)
		})
	}
}

// Stop has the highest precedence: a stop phrase wins even when escalation
// or order keywords are present in the same utterance.
func TestClassify_StopPrecedence(t *testing.T) {
	tests := []string{
		"no, I don't need an agent",
		"nothing else, skip the order status",
		"goodbye, tell the human I said thanks",
	}

	for _, utterance := range tests {
		got := Classify(utterance)
		assert.Equal(t, KindStop, got.Kind, "utterance %q", utterance)
	}
}

// Single-token stop words match on word boundaries only; "no" inside
// "number" or "know" must not end the call.
func TestClassify_StopWordBoundaries(t *testing.T) {
	tests := []struct {
		utterance string
		want      Kind
	}{
		{"what's my order number", KindOrderQuery},
		{"I don't know the order number", KindOrderQuery},
		{"nobody answered my email", KindOther},
	}

	for _, tt := range tests {
		got := Classify(tt.utterance)
		assert.Equal(t, tt.want, got.Kind, "utterance %q", tt.utterance)
	}
}

func TestClassify_Escalate(t *testing.T) {
	tests := []string{
		"I want to talk to a human",
		"talk to agent please",
		"get me a real person",
		"customer support now",
		"can I speak with a representative",
	}

	for _, utterance := range tests {
		got := Classify(utterance)
		assert.Equal(t, KindEscalate, got.Kind, "utterance %q", utterance)
	}
}

// The escalation policy is substring-based and high recall by design.
// These are known false positives; they document the behavior rather
// than endorse it, and downstream code must tolerate them.
func TestClassify_EscalateKnownFalsePositives(t *testing.T) {
	tests := []string{
		"I studied the humanities",
		"my travel agent booked it",
		"is the sauce humanely sourced",
	}

	for _, utterance := range tests {
		got := Classify(utterance)
		assert.Equal(t, KindEscalate, got.Kind, "utterance %q", utterance)
	}
}

func TestClassify_OrderQuery(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		wantID    string
	}{
		{name: "hash id", utterance: "Where is my order #4521", wantID: "4521"},
		{name: "hash id with space", utterance: "order status for # 4521", wantID: "4521"},
		{name: "spoken order number", utterance: "my order number 4521", wantID: "4521"},
		{name: "alphanumeric id with hyphen", utterance: "track my order number ab-123", wantID: "ab-123"},
		{name: "bare long digits", utterance: "where's my order 123456", wantID: "123456"},
		{name: "no id at all", utterance: "order status", wantID: ""},
		{name: "short digits not extracted", utterance: "where is my order from 3 days ago", wantID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.utterance)
			assert.Equal(t, KindOrderQuery, got.Kind)
			assert.Equal(t, tt.wantID, got.OrderID)
		})
	}
}

// A "#" pattern beats a bare digit run even when the bare run comes first
// in the utterance.
func TestClassify_OrderIDExtractionPrecedence(t *testing.T) {
	got := Classify("order status for 987654 or maybe #123")
	assert.Equal(t, KindOrderQuery, got.Kind)
	assert.Equal(t, "123", got.OrderID)
}

func TestClassify_Other(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"what are your opening hours",
		"do you ship to Canada",
	}

	for _, utterance := range tests {
		got := Classify(utterance)
		assert.Equal(t, KindOther, got.Kind, "utterance %q", utterance)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	utterances := []string{
		"Goodbye",
		"talk to a human",
		"where is my order #4521",
		"do you ship to Canada",
	}

	for _, utterance := range utterances {
		first := Classify(utterance)
		second := Classify(utterance)
		assert.Equal(t, first, second, "utterance %q", utterance)
	}
}
