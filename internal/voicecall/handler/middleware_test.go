package handler

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"voice-agent/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// twilioSign reproduces Twilio's webhook signing: the full URL followed by
// the form parameters sorted by key, HMAC-SHA1 with the auth token.
func twilioSign(authToken, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for key := range form {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	payload := fullURL
	for _, key := range keys {
		payload += key + form.Get(key)
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newSignedRouter(authToken, publicBaseURL string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := observability.NewLogger()

	router := gin.New()
	router.POST("/api/voice/status",
		TwilioSignatureMiddleware(authToken, publicBaseURL, logger),
		func(c *gin.Context) { c.Status(http.StatusNoContent) },
	)
	return router
}

func TestTwilioSignatureMiddleware_ValidSignature(t *testing.T) {
	const authToken = "secret-token"
	const publicBaseURL = "https://voice.example.com"
	router := newSignedRouter(authToken, publicBaseURL)

	form := url.Values{"CallSid": {"CA1"}, "CallStatus": {"completed"}}
	signature := twilioSign(authToken, publicBaseURL+"/api/voice/status", form)

	req := httptest.NewRequest(http.MethodPost, "/api/voice/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", signature)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTwilioSignatureMiddleware_InvalidSignature(t *testing.T) {
	router := newSignedRouter("secret-token", "https://voice.example.com")

	form := url.Values{"CallSid": {"CA1"}}
	req := httptest.NewRequest(http.MethodPost, "/api/voice/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", "bogus")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTwilioSignatureMiddleware_MissingSignature(t *testing.T) {
	router := newSignedRouter("secret-token", "https://voice.example.com")

	req := httptest.NewRequest(http.MethodPost, "/api/voice/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTwilioSignatureMiddleware_DisabledWithoutToken(t *testing.T) {
	router := newSignedRouter("", "")

	req := httptest.NewRequest(http.MethodPost, "/api/voice/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
