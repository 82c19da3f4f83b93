package processor

import (
	"context"
	"fmt"
	"strings"

	"voice-agent/internal/callsession"
	"voice-agent/internal/clients/chatwoot"
	"voice-agent/internal/config"
	"voice-agent/internal/intent"
	"voice-agent/internal/observability"
)

// End-of-call reasons recorded against the ticket.
const (
	EndReasonUserEnded = "user ended"
	EndReasonEscalated = "escalated"
	EndReasonSilence   = "silence"
)

// HandleCallStart registers the session and makes the single lazy attempt
// at creating the external ticket.
func (p *VoiceCallProcessor) HandleCallStart(ctx context.Context, callID, phone string) callsession.Session {
	ctx = observability.WithFields(ctx, observability.Field{Key: "call_id", Value: callID})
	p.logger.Info(ctx, "Call started")

	p.registry.OnCallStart(callID, phone)

	if p.audit != nil {
		if _, err := p.audit.CreateCallSession(ctx, callID, phone); err != nil {
			p.logger.InfoWithError(ctx, "Transcript audit unavailable for call", err)
		}
	}

	p.ensureTicket(ctx, callID)
	session, _ := p.registry.Get(callID)
	return session
}

// HandleCallEnd retires the session and closes the ticket with the
// transport's reason. Safe to call for unknown or already-ended calls.
func (p *VoiceCallProcessor) HandleCallEnd(ctx context.Context, callID, reason string) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "call_id", Value: callID},
		observability.Field{Key: "end_reason", Value: reason},
	)

	session, ok := p.registry.Get(callID)
	if !ok {
		return
	}
	p.logger.Info(ctx, "Call ended")

	if session.TicketRef != "" && p.tickets != nil {
		if err := p.tickets.Close(ctx, session.TicketRef, reason); err != nil {
			p.logger.InfoWithError(ctx, "Failed to close ticket", err)
		}
	}
	p.auditEnd(ctx, callID, reason)
	p.registry.OnCallEnd(callID)
}

// HandleTurn runs one utterance through the intent classifier and produces
// the outgoing action. The branching is deterministic given the classifier
// output and the collaborators' responses; every collaborator failure
// degrades to its documented empty behavior and never aborts the turn.
func (p *VoiceCallProcessor) HandleTurn(ctx context.Context, callID, utterance string) TurnResult {
	ctx = observability.WithFields(ctx, observability.Field{Key: "call_id", Value: callID})

	// A turn can arrive before the start webhook when the transport retries
	// out of order; register the session rather than dropping the turn.
	if _, ok := p.registry.Get(callID); !ok {
		p.registry.OnCallStart(callID, "")
	}
	ticketRef := p.ensureTicket(ctx, callID)

	if strings.TrimSpace(utterance) == "" {
		return p.handleEmptyUtterance(ctx, callID, ticketRef)
	}

	p.auditMessage(ctx, callID, chatwoot.DirectionIncoming, utterance)

	classified := intent.Classify(utterance)
	var result TurnResult
	switch classified.Kind {
	case intent.KindStop:
		result = p.handleStop(ctx, callID, ticketRef)
	case intent.KindEscalate:
		result = p.handleEscalate(ctx, callID, ticketRef)
	case intent.KindOrderQuery:
		result = p.handleOrderQuery(ctx, callID, classified.OrderID, utterance, ticketRef)
	default:
		result = p.handleOther(ctx, utterance)
	}

	p.sendLogEntries(ctx, ticketRef, result.LogEntries)
	if result.SpokenText != "" {
		p.auditMessage(ctx, callID, chatwoot.DirectionOutgoing, result.SpokenText)
	}

	return result
}

func (p *VoiceCallProcessor) handleEmptyUtterance(ctx context.Context, callID, ticketRef string) TurnResult {
	if p.emptyUtterance == config.EmptyUtteranceReprompt {
		p.logger.Info(ctx, "Empty utterance, reprompting caller")
		return TurnResult{
			Action:     ActionContinue,
			SpokenText: repromptReply,
			LogEntries: []LogEntry{{Direction: chatwoot.DirectionOutgoing, Text: "asked caller to repeat"}},
		}
	}

	p.logger.Info(ctx, "Empty utterance, ending call silently")
	if ticketRef != "" && p.tickets != nil {
		if err := p.tickets.Close(ctx, ticketRef, EndReasonSilence); err != nil {
			p.logger.InfoWithError(ctx, "Failed to close ticket", err)
		}
	}
	p.auditEnd(ctx, callID, EndReasonSilence)
	p.registry.OnCallEnd(callID)
	return TurnResult{Action: ActionSilent}
}

func (p *VoiceCallProcessor) handleStop(ctx context.Context, callID, ticketRef string) TurnResult {
	p.logger.Info(ctx, "Caller ended the call")

	result := TurnResult{
		Action:     ActionHangup,
		SpokenText: goodbyeReply,
		LogEntries: []LogEntry{{Direction: chatwoot.DirectionOutgoing, Text: "call ended: user ended"}},
	}

	if ticketRef != "" && p.tickets != nil {
		if err := p.tickets.Close(ctx, ticketRef, EndReasonUserEnded); err != nil {
			p.logger.InfoWithError(ctx, "Failed to close ticket", err)
		}
	}
	p.auditEnd(ctx, callID, EndReasonUserEnded)
	p.registry.OnCallEnd(callID)
	return result
}

func (p *VoiceCallProcessor) handleEscalate(ctx context.Context, callID, ticketRef string) TurnResult {
	p.logger.Info(ctx, "Caller requested escalation")

	result := TurnResult{
		Action:     ActionTransfer,
		SpokenText: transferReply,
		LogEntries: []LogEntry{
			{Direction: chatwoot.DirectionIncoming, Text: "user requested escalation"},
			{Direction: chatwoot.DirectionOutgoing, Text: "escalation requested; transferring"},
		},
	}

	if ticketRef != "" && p.tickets != nil {
		if err := p.tickets.Close(ctx, ticketRef, EndReasonEscalated); err != nil {
			p.logger.InfoWithError(ctx, "Failed to close ticket", err)
		}
	}
	p.auditEnd(ctx, callID, EndReasonEscalated)
	p.registry.OnCallEnd(callID)
	return result
}

func (p *VoiceCallProcessor) handleOrderQuery(ctx context.Context, callID, orderID, utterance, ticketRef string) TurnResult {
	if orderID == "" {
		return TurnResult{
			Action:     ActionContinue,
			SpokenText: askOrderReply,
			LogEntries: []LogEntry{{Direction: chatwoot.DirectionOutgoing, Text: "asked customer for order number"}},
		}
	}

	ctx = observability.WithFields(ctx, observability.Field{Key: "order_id", Value: orderID})

	// With no lookup backend at all the order question falls through to
	// open-ended reply generation; the caller still gets an answer path.
	if p.orders == nil {
		p.logger.Info(ctx, "Order lookup not configured, delegating to reply generation")
		return p.handleOther(ctx, utterance)
	}

	order, err := p.orders.Lookup(ctx, orderID)
	if err != nil {
		p.logger.InfoWithError(ctx, "Order lookup failed", err)
		order = nil
	}
	if order == nil {
		return TurnResult{
			Action:     ActionContinue,
			SpokenText: orderNotFoundText,
			LogEntries: []LogEntry{{
				Direction: chatwoot.DirectionOutgoing,
				Text:      fmt.Sprintf("order lookup attempted for %s, not found", orderID),
			}},
		}
	}

	spoken := fmt.Sprintf("I found your order %s. Payment status is %s. Fulfillment status is %s.",
		order.OrderNumber, order.FinancialStatus, order.FulfillmentStatus)
	if len(order.TrackingNumbers) > 0 {
		spoken += fmt.Sprintf(" Tracking numbers: %s.", strings.Join(order.TrackingNumbers, ", "))
	}

	return TurnResult{
		Action:     ActionContinue,
		SpokenText: spoken,
		LogEntries: []LogEntry{{
			Direction: chatwoot.DirectionOutgoing,
			Text: fmt.Sprintf("order lookup result for %s: status=%s, fulfillment=%s",
				orderID, order.FinancialStatus, order.FulfillmentStatus),
		}},
	}
}

func (p *VoiceCallProcessor) handleOther(ctx context.Context, utterance string) TurnResult {
	if p.replies == nil {
		return TurnResult{Action: ActionContinue}
	}

	reply, err := p.replies.GenerateReply(ctx, utterance)
	if err != nil {
		p.logger.InfoWithError(ctx, "Reply generation failed", err)
		reply = ""
	}
	if reply == "" {
		// No-op continuation: the caller hears nothing and the line stays
		// open. Callers of HandleTurn must not treat this as an error.
		return TurnResult{Action: ActionContinue}
	}

	return TurnResult{
		Action:     ActionContinue,
		SpokenText: reply,
		PromptMore: true,
		LogEntries: []LogEntry{{Direction: chatwoot.DirectionOutgoing, Text: reply}},
	}
}

// TranscribeRecording normalizes transcription failures to an empty
// transcript, which the turn logic treats as silence.
func (p *VoiceCallProcessor) TranscribeRecording(ctx context.Context, recordingURL string) string {
	if p.transcriber == nil {
		return ""
	}
	text, err := p.transcriber.Transcribe(ctx, recordingURL)
	if err != nil {
		p.logger.InfoWithError(ctx, "Transcription failed", err)
		return ""
	}
	return text
}

// SynthesizeReply normalizes synthesis failures to empty audio.
func (p *VoiceCallProcessor) SynthesizeReply(ctx context.Context, text string) []byte {
	if p.speech == nil || text == "" {
		return nil
	}
	audio, err := p.speech.SynthesizeSpeech(ctx, text)
	if err != nil {
		p.logger.InfoWithError(ctx, "Speech synthesis failed", err)
		return nil
	}
	return audio
}

// ensureTicket makes the single lazy ticket-creation attempt for the call
// and returns the ticket ref, or "" when there is none. Creation is never
// retried within a call; a failed attempt leaves logging disabled for the
// remainder of the session.
func (p *VoiceCallProcessor) ensureTicket(ctx context.Context, callID string) string {
	session, ok := p.registry.Get(callID)
	if !ok {
		return ""
	}
	if session.TicketAttempted || p.tickets == nil {
		return session.TicketRef
	}

	ticketRef, err := p.tickets.CreateSession(ctx, callID, session.CallerPhone)
	p.registry.MarkTicketAttempted(callID)
	if err != nil {
		p.logger.InfoWithError(ctx, "Ticket creation failed, logging disabled for call", err)
		return ""
	}
	p.registry.SetTicketRef(callID, ticketRef)

	if p.audit != nil {
		if auditSession, auditErr := p.audit.GetOpenCallSession(ctx, callID); auditErr == nil {
			_ = p.audit.SetCallSessionTicketRef(ctx, auditSession.ID, ticketRef)
		}
	}
	return ticketRef
}

// sendLogEntries forwards the turn's log entries to the ticket in order.
// Failures are recorded and swallowed; they must not change the result.
func (p *VoiceCallProcessor) sendLogEntries(ctx context.Context, ticketRef string, entries []LogEntry) {
	if ticketRef == "" || p.tickets == nil {
		return
	}
	for _, entry := range entries {
		if err := p.tickets.Log(ctx, ticketRef, entry.Direction, entry.Text); err != nil {
			p.logger.InfoWithError(ctx, "Ticket log failed", err)
		}
	}
}

func (p *VoiceCallProcessor) auditMessage(ctx context.Context, callID, direction, text string) {
	if p.audit == nil {
		return
	}
	session, err := p.audit.GetOpenCallSession(ctx, callID)
	if err != nil {
		return
	}
	_, _ = p.audit.CreateCallMessage(ctx, session.ID, direction, text)
}

func (p *VoiceCallProcessor) auditEnd(ctx context.Context, callID, reason string) {
	if p.audit == nil {
		return
	}
	_ = p.audit.EndCallSession(ctx, callID, reason)
}
