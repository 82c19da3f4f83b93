package api

import (
	"net/http"

	voiceHandler "voice-agent/internal/voicecall/handler"

	"github.com/gin-gonic/gin"
)

type API struct {
	router           *gin.RouterGroup
	voiceHandler     voiceHandler.Handler
	twilioMiddleware gin.HandlerFunc
}

func New(router *gin.RouterGroup, voiceHandler voiceHandler.Handler, twilioMiddleware gin.HandlerFunc) API {
	return API{
		router:           router,
		voiceHandler:     voiceHandler,
		twilioMiddleware: twilioMiddleware,
	}
}

func (a *API) RegisterRoutes() {
	a.Health()
	apiGroup := a.router.Group("/api")
	voiceGroup := apiGroup.Group("/voice")

	// The events socket serves non-telephony transports and is not signed
	// by Twilio; only the webhook endpoints get signature validation.
	voiceGroup.GET("/events", a.voiceHandler.HandleEvents)

	webhookGroup := voiceGroup.Group("", a.twilioMiddleware)
	{
		webhookGroup.POST("/webhook", a.voiceHandler.HandleIncomingCall)
		webhookGroup.POST("/transcribe", a.voiceHandler.HandleTranscribe)
		webhookGroup.POST("/status", a.voiceHandler.HandleStatusCallback)
	}
}

func (a *API) Health() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
}
