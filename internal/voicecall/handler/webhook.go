package handler

import (
	"fmt"
	"net/http"

	"voice-agent/internal/apierrors"
	"voice-agent/internal/voicecall/processor"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/twiml"
)

const (
	greetingMessage  = "Thanks for calling support. Please say how I can help you."
	anythingElseAsk  = "Is there anything else I can help you with?"
	transcribeAction = "/api/voice/transcribe"
	maxRecordSeconds = "30"
	recordPauseLimit = "3"
)

// HandleIncomingCall handles POST /api/voice/webhook. Twilio posts here
// when a call connects; the response greets the caller and opens the
// first recording window.
func (h *Handler) HandleIncomingCall(c *gin.Context) {
	ctx := c.Request.Context()

	callSid := c.PostForm("CallSid")
	if callSid == "" {
		apierrors.BadRequest(c, "MISSING_CALL_SID", "CallSid is required")
		return
	}

	h.voiceProcessor.HandleCallStart(ctx, callSid, c.PostForm("From"))

	say := &twiml.VoiceSay{Message: greetingMessage}
	h.respondTwiML(c, []twiml.Element{say, h.recordElement()})
}

// HandleTranscribe handles POST /api/voice/transcribe, the action URL of
// the recording window. Twilio supplies either a speech result directly
// or a RecordingUrl to transcribe; both reduce to one utterance fed
// through the turn controller.
func (h *Handler) HandleTranscribe(c *gin.Context) {
	ctx := c.Request.Context()

	callSid := c.PostForm("CallSid")
	if callSid == "" {
		apierrors.BadRequest(c, "MISSING_CALL_SID", "CallSid is required")
		return
	}

	transcript := c.PostForm("SpeechResult")
	if transcript == "" {
		if recordingURL := c.PostForm("RecordingUrl"); recordingURL != "" {
			transcript = h.voiceProcessor.TranscribeRecording(ctx, recordingURL)
		}
	}

	result := h.voiceProcessor.HandleTurn(ctx, callSid, transcript)
	h.respondTwiML(c, h.renderTurn(result))
}

// HandleStatusCallback handles POST /api/voice/status. Twilio reports the
// final call status here; the session is retired with the reported reason.
func (h *Handler) HandleStatusCallback(c *gin.Context) {
	ctx := c.Request.Context()

	callSid := c.PostForm("CallSid")
	if callSid == "" {
		apierrors.BadRequest(c, "MISSING_CALL_SID", "CallSid is required")
		return
	}

	h.voiceProcessor.HandleCallEnd(ctx, callSid, c.PostForm("CallStatus"))
	c.Status(http.StatusNoContent)
}

// renderTurn maps a turn result onto the telephony markup Twilio executes.
func (h *Handler) renderTurn(result processor.TurnResult) []twiml.Element {
	var elements []twiml.Element
	if result.SpokenText != "" {
		elements = append(elements, &twiml.VoiceSay{Message: result.SpokenText})
	}

	switch result.Action {
	case processor.ActionHangup, processor.ActionSilent:
		elements = append(elements, &twiml.VoiceHangup{})
	case processor.ActionTransfer:
		if h.transferNumber == "" {
			elements = append(elements, &twiml.VoiceHangup{})
			break
		}
		number := twiml.VoiceNumber{PhoneNumber: h.transferNumber}
		elements = append(elements, &twiml.VoiceDial{
			InnerElements: []twiml.Element{number},
		})
	default:
		if result.PromptMore {
			elements = append(elements, &twiml.VoiceSay{Message: anythingElseAsk})
		}
		elements = append(elements, h.recordElement())
	}
	return elements
}

func (h *Handler) recordElement() twiml.Element {
	return &twiml.VoiceRecord{
		Action:    transcribeAction,
		Method:    "POST",
		MaxLength: maxRecordSeconds,
		Timeout:   recordPauseLimit,
		PlayBeep:  "false",
	}
}

func (h *Handler) respondTwiML(c *gin.Context, elements []twiml.Element) {
	twimlResult, err := twiml.Voice(elements)
	if err != nil {
		apierrors.InternalError(c, err)
		return
	}
	h.logger.Debug(c.Request.Context(), fmt.Sprintf("TwiML Response: %s", twimlResult))
	c.Header("Content-Type", "text/xml")
	c.String(http.StatusOK, twimlResult)
}
