package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"voice-agent/internal/callsession"
	"voice-agent/internal/config"
	"voice-agent/internal/observability"
	"voice-agent/internal/voicecall/processor"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(t *testing.T, transferNumber string) (*gin.Engine, *callsession.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := callsession.NewRegistry()
	logger := observability.NewLogger()
	voiceProcessor := processor.New(registry, nil, nil, nil, nil, nil, nil, config.EmptyUtteranceSilent, logger)
	h := New(voiceProcessor, transferNumber, logger)

	router := gin.New()
	router.POST("/api/voice/webhook", h.HandleIncomingCall)
	router.POST("/api/voice/transcribe", h.HandleTranscribe)
	router.POST("/api/voice/status", h.HandleStatusCallback)
	return router, registry
}

func postForm(router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleIncomingCall(t *testing.T) {
	router, registry := newTestRouter(t, "")

	w := postForm(router, "/api/voice/webhook", url.Values{
		"CallSid": {"CA1"},
		"From":    {"+15550001111"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/xml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), greetingMessage)
	assert.Contains(t, w.Body.String(), "<Record")
	assert.Contains(t, w.Body.String(), transcribeAction)

	session, ok := registry.Get("CA1")
	assert.True(t, ok)
	assert.Equal(t, "+15550001111", session.CallerPhone)
}

func TestHandleIncomingCall_MissingCallSid(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := postForm(router, "/api/voice/webhook", url.Values{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleTranscribe_Goodbye(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := postForm(router, "/api/voice/transcribe", url.Values{
		"CallSid":      {"CA1"},
		"SpeechResult": {"goodbye"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Goodbye. Have a great day.")
	assert.Contains(t, w.Body.String(), "<Hangup")
	assert.NotContains(t, w.Body.String(), "<Record")
}

func TestHandleTranscribe_EscalateDialsTransferNumber(t *testing.T) {
	router, _ := newTestRouter(t, "+15559998888")

	w := postForm(router, "/api/voice/transcribe", url.Values{
		"CallSid":      {"CA1"},
		"SpeechResult": {"I want to talk to a human"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<Dial")
	assert.Contains(t, w.Body.String(), "+15559998888")
}

func TestHandleTranscribe_EscalateWithoutTransferNumberHangsUp(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := postForm(router, "/api/voice/transcribe", url.Values{
		"CallSid":      {"CA1"},
		"SpeechResult": {"representative"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<Hangup")
	assert.NotContains(t, w.Body.String(), "<Dial")
}

func TestHandleTranscribe_OrderQueryKeepsListening(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := postForm(router, "/api/voice/transcribe", url.Values{
		"CallSid":      {"CA1"},
		"SpeechResult": {"where is my order"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Please provide your order number")
	assert.Contains(t, w.Body.String(), "<Record")
	assert.NotContains(t, w.Body.String(), "<Hangup")
}

// No speech result, no recording and no transcriber reduces to an empty
// utterance, which ends the call without speaking.
func TestHandleTranscribe_SilenceHangsUpQuietly(t *testing.T) {
	router, registry := newTestRouter(t, "")

	w := postForm(router, "/api/voice/transcribe", url.Values{
		"CallSid": {"CA1"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<Hangup")
	assert.NotContains(t, w.Body.String(), "<Say>")

	_, ok := registry.Get("CA1")
	assert.False(t, ok)
}

func TestHandleStatusCallback(t *testing.T) {
	router, registry := newTestRouter(t, "")

	postForm(router, "/api/voice/webhook", url.Values{"CallSid": {"CA1"}})
	w := postForm(router, "/api/voice/status", url.Values{
		"CallSid":    {"CA1"},
		"CallStatus": {"completed"},
	})

	assert.Equal(t, http.StatusNoContent, w.Code)
	_, ok := registry.Get("CA1")
	assert.False(t, ok)
}
