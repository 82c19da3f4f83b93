package handler

import (
	"net/http"

	"voice-agent/internal/observability"
	"voice-agent/internal/voicecall/processor"

	"github.com/gorilla/websocket"
)

type Handler struct {
	voiceProcessor *processor.VoiceCallProcessor
	logger         *observability.Logger
	transferNumber string
}

// New creates the voice transport handler. transferNumber is the phone
// number escalations are dialed to; empty means no transfer target is
// configured and escalations end with a hangup after the transfer message.
func New(voiceProcessor *processor.VoiceCallProcessor, transferNumber string, logger *observability.Logger) Handler {
	return Handler{
		voiceProcessor: voiceProcessor,
		logger:         logger,
		transferNumber: transferNumber,
	}
}

// upgrader is a shared WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Add proper origin validation for production
		return true
	},
}
