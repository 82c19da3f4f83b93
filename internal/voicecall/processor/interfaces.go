package processor

import (
	"context"

	"voice-agent/internal/clients/shopify"
	"voice-agent/internal/store"

	"github.com/google/uuid"
)

// Transcriber converts a call recording into text. An empty transcript is
// a legitimate result (silence), not an error.
type Transcriber interface {
	Transcribe(ctx context.Context, recordingURL string) (string, error)
}

// ReplyGenerator produces an open-ended support reply for an utterance.
// Empty reply means "no answer available".
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, text string) (string, error)
}

// OrderLookup retrieves an order by the identifier extracted from caller
// speech. A nil order with nil error means not found; the controller does
// not distinguish not-found from lookup failure.
type OrderLookup interface {
	Lookup(ctx context.Context, orderID string) (*shopify.Order, error)
}

// SpeechSynthesizer renders reply text as audio for transports that
// consume audio directly instead of telephony markup.
type SpeechSynthesizer interface {
	SynthesizeSpeech(ctx context.Context, text string) ([]byte, error)
}

// TicketLog is the external support-ticketing backend. All calls are
// best-effort: failures are logged and swallowed, never surfaced to the
// caller-facing path.
type TicketLog interface {
	CreateSession(ctx context.Context, externalID, phone string) (string, error)
	Log(ctx context.Context, ticketRef, direction, text string) error
	Close(ctx context.Context, ticketRef, reason string) error
}

// AuditStore defines the durable transcript operations required by the
// processor. Implemented by the sqlx store; nil disables auditing.
type AuditStore interface {
	CreateCallSession(ctx context.Context, callSid, callerPhone string) (*store.CallSession, error)
	GetOpenCallSession(ctx context.Context, callSid string) (*store.CallSession, error)
	SetCallSessionTicketRef(ctx context.Context, sessionID uuid.UUID, ticketRef string) error
	CreateCallMessage(ctx context.Context, sessionID uuid.UUID, direction, content string) (*store.CallMessage, error)
	EndCallSession(ctx context.Context, callSid, reason string) error
}
