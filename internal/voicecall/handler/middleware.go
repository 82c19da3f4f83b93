package handler

import (
	"context"

	"voice-agent/internal/apierrors"
	"voice-agent/internal/observability"

	"github.com/gin-gonic/gin"
	twilioclient "github.com/twilio/twilio-go/client"
)

// TwilioSignatureMiddleware validates the X-Twilio-Signature header on
// webhook requests. An empty auth token disables validation, which is the
// local-development mode; production deployments must set the token.
func TwilioSignatureMiddleware(authToken, publicBaseURL string, logger *observability.Logger) gin.HandlerFunc {
	if authToken == "" {
		logger.Warn(context.Background(), "TWILIO_AUTH_TOKEN not set, webhook signature validation disabled")
		return func(c *gin.Context) {
			c.Next()
		}
	}

	validator := twilioclient.NewRequestValidator(authToken)
	return func(c *gin.Context) {
		signature := c.GetHeader("X-Twilio-Signature")
		if signature == "" {
			apierrors.Forbidden(c, "MISSING_SIGNATURE", "missing webhook signature")
			c.Abort()
			return
		}

		if err := c.Request.ParseForm(); err != nil {
			apierrors.BadRequest(c, "INVALID_FORM", "invalid form payload")
			c.Abort()
			return
		}
		params := make(map[string]string, len(c.Request.PostForm))
		for key, values := range c.Request.PostForm {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}

		// Twilio signs the exact public URL it posted to, which sits behind
		// the proxy; reconstruct it from the configured base URL.
		url := publicBaseURL + c.Request.URL.RequestURI()
		if publicBaseURL == "" {
			scheme := "https"
			if c.Request.TLS == nil {
				scheme = "http"
			}
			url = scheme + "://" + c.Request.Host + c.Request.URL.RequestURI()
		}

		if !validator.Validate(url, params, signature) {
			logger.Warn(c.Request.Context(), "Rejected webhook with invalid signature")
			apierrors.Forbidden(c, "INVALID_SIGNATURE", "invalid webhook signature")
			c.Abort()
			return
		}
		c.Next()
	}
}
