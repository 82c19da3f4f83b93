package processor

import (
	"voice-agent/internal/callsession"
	"voice-agent/internal/config"
	"voice-agent/internal/observability"
)

// Action is what the transport does with the caller after a turn.
type Action string

const (
	// ActionContinue speaks the reply (if any) and keeps listening.
	ActionContinue Action = "continue"
	// ActionTransfer speaks the reply and hands the call to a human.
	ActionTransfer Action = "transfer"
	// ActionHangup speaks the reply and terminates the call.
	ActionHangup Action = "hangup"
	// ActionSilent terminates the turn with no spoken reply.
	ActionSilent Action = "silent"
)

// LogEntry is one line recorded against the session's ticket.
type LogEntry struct {
	Direction string
	Text      string
}

// TurnResult is the outcome of one utterance: the action the transport
// takes, the text to speak, and the ticket log lines emitted by the turn.
// PromptMore tells the renderer to additionally ask whether the caller
// needs anything else before re-opening listening.
type TurnResult struct {
	Action     Action
	SpokenText string
	PromptMore bool
	LogEntries []LogEntry
}

// Fixed caller-facing replies. These are spoken verbatim; keep them short
// and pronounceable.
const (
	goodbyeReply      = "Goodbye. Have a great day."
	transferReply     = "Connecting you to a human agent. Please hold."
	askOrderReply     = "Please provide your order number so I can check it."
	orderNotFoundText = "I couldn't find that order. Please double-check the order number."
	repromptReply     = "Sorry, I didn't catch that. Could you say that again?"
)

type VoiceCallProcessor struct {
	registry       *callsession.Registry
	transcriber    Transcriber
	replies        ReplyGenerator
	orders         OrderLookup
	speech         SpeechSynthesizer
	tickets        TicketLog
	audit          AuditStore
	emptyUtterance config.EmptyUtteranceBehavior
	logger         *observability.Logger
}

// New creates the turn controller. replies, orders, speech, tickets and
// audit may be nil when the corresponding integration is not configured;
// every nil collaborator degrades to its documented empty behavior.
func New(
	registry *callsession.Registry,
	transcriber Transcriber,
	replies ReplyGenerator,
	orders OrderLookup,
	speech SpeechSynthesizer,
	tickets TicketLog,
	audit AuditStore,
	emptyUtterance config.EmptyUtteranceBehavior,
	logger *observability.Logger,
) *VoiceCallProcessor {
	return &VoiceCallProcessor{
		registry:       registry,
		transcriber:    transcriber,
		replies:        replies,
		orders:         orders,
		speech:         speech,
		tickets:        tickets,
		audit:          audit,
		emptyUtterance: emptyUtterance,
		logger:         logger,
	}
}
