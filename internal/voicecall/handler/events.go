package handler

import (
	"encoding/base64"

	"github.com/gin-gonic/gin"
)

// EventMessage is one inbound frame on the events socket. Non-telephony
// transports (browser softphones, test harnesses) drive the same turn
// controller through this channel instead of Twilio webhooks.
type EventMessage struct {
	Type   string `json:"type"` // "start", "utterance" or "end"
	CallID string `json:"call_id"`
	Phone  string `json:"phone,omitempty"`
	Text   string `json:"text,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// TurnMessage is the outbound frame answering an utterance. Audio is the
// base64-encoded spoken reply when speech synthesis is configured.
type TurnMessage struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Text   string `json:"text,omitempty"`
	Audio  string `json:"audio,omitempty"`
}

// HandleEvents handles GET /api/voice/events. Each connection carries one
// or more calls; frames without a call id are dropped.
func (h *Handler) HandleEvents(c *gin.Context) {
	ctx := c.Request.Context()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error(ctx, "WebSocket upgrade failed", err)
		return
	}
	defer conn.Close()
	h.logger.Info(ctx, "Events WebSocket connection established")

	for {
		var event EventMessage
		if err := conn.ReadJSON(&event); err != nil {
			h.logger.Info(ctx, "Events WebSocket connection closed")
			return
		}
		if event.CallID == "" {
			continue
		}

		switch event.Type {
		case "start":
			h.voiceProcessor.HandleCallStart(ctx, event.CallID, event.Phone)
		case "utterance":
			result := h.voiceProcessor.HandleTurn(ctx, event.CallID, event.Text)
			reply := TurnMessage{
				Type:   "turn",
				Action: string(result.Action),
				Text:   result.SpokenText,
			}
			if audio := h.voiceProcessor.SynthesizeReply(ctx, result.SpokenText); len(audio) > 0 {
				reply.Audio = base64.StdEncoding.EncodeToString(audio)
			}
			if err := conn.WriteJSON(reply); err != nil {
				h.logger.InfoWithError(ctx, "Failed to write turn message", err)
				return
			}
		case "end":
			reason := event.Reason
			if reason == "" {
				reason = "completed"
			}
			h.voiceProcessor.HandleCallEnd(ctx, event.CallID, reason)
		}
	}
}
