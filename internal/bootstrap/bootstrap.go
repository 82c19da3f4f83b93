package bootstrap

import (
	"context"
	"fmt"

	"voice-agent/internal/callsession"
	"voice-agent/internal/clients/chatwoot"
	"voice-agent/internal/clients/googleai"
	"voice-agent/internal/clients/openai"
	"voice-agent/internal/clients/shopify"
	"voice-agent/internal/config"
	"voice-agent/internal/knowledge"
	"voice-agent/internal/observability"
	"voice-agent/internal/store"
	voiceCallHandler "voice-agent/internal/voicecall/handler"
	voiceCallProcessor "voice-agent/internal/voicecall/processor"

	"github.com/gin-gonic/gin"
)

// Dependencies holds all initialized application dependencies
type Dependencies struct {
	// Core
	Logger   *observability.Logger
	Store    *store.Store
	Registry *callsession.Registry

	// Handlers
	VoiceCallHandler voiceCallHandler.Handler
	TwilioMiddleware gin.HandlerFunc
}

// Initialize sets up all application dependencies. Optional integrations
// that are not configured come up disabled rather than failing boot.
func Initialize(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Logger: logger,
	}

	var auditStore voiceCallProcessor.AuditStore
	if cfg.Database.Enabled() {
		st, err := store.New(cfg.Database.ConnectionString(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		deps.Store = &st
		auditStore = deps.Store
	} else {
		logger.Info(ctx, "DB_HOST not set, transcript audit disabled")
	}

	knowledgeDoc, err := knowledge.Load(cfg.AI.KnowledgePath)
	if err != nil {
		// Without product knowledge the reply prompt instructs the model to
		// hand off to a human, so boot continues.
		logger.InfoWithError(ctx, "Product knowledge unavailable", err)
	}

	openaiClient, err := openai.NewClient(cfg.AI.OpenAIAPIKey, knowledgeDoc, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	var replies voiceCallProcessor.ReplyGenerator = openaiClient
	if cfg.AI.ReplyProvider == "google" {
		googleClient, err := googleai.NewClient(cfg.AI.GoogleAIAPIKey, knowledgeDoc, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Google AI client: %w", err)
		}
		replies = googleClient
	}

	// Nil concrete clients must stay nil interfaces so the processor's
	// disabled-integration checks hold.
	var orders voiceCallProcessor.OrderLookup
	if shopifyClient := shopify.NewClient(cfg.Shopify, logger); shopifyClient != nil {
		orders = shopifyClient
	}
	var tickets voiceCallProcessor.TicketLog
	if chatwootClient := chatwoot.NewClient(cfg.Chatwoot, logger); chatwootClient != nil {
		tickets = chatwootClient
	}

	deps.Registry = callsession.NewRegistry()

	voiceProcessor := voiceCallProcessor.New(
		deps.Registry,
		openaiClient,
		replies,
		orders,
		openaiClient,
		tickets,
		auditStore,
		cfg.Voice.EmptyUtterance,
		logger,
	)

	deps.VoiceCallHandler = voiceCallHandler.New(voiceProcessor, cfg.Voice.TransferNumber, logger)
	deps.TwilioMiddleware = voiceCallHandler.TwilioSignatureMiddleware(
		cfg.Twilio.AuthToken, cfg.Server.PublicBaseURL, logger)

	return deps, nil
}

// Cleanup closes resources held by the dependencies
func (d *Dependencies) Cleanup() {
	if d.Store != nil {
		_ = d.Store.Close()
	}
}
