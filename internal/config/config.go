package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var ErrEmptyEnvironmentVariable = errors.New("empty environment variable")

// EmptyUtteranceBehavior selects what the turn controller does when the
// transcript comes back empty. "silent" retires the call without a reply,
// "reprompt" asks the caller to repeat themselves.
type EmptyUtteranceBehavior string

const (
	EmptyUtteranceSilent   EmptyUtteranceBehavior = "silent"
	EmptyUtteranceReprompt EmptyUtteranceBehavior = "reprompt"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Twilio   TwilioConfig
	AI       AIConfig
	Shopify  ShopifyConfig
	Chatwoot ChatwootConfig
	Voice    VoiceConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port          int
	PublicBaseURL string
	WebAppURI     string
}

// DatabaseConfig holds the optional transcript audit database settings.
// The store is disabled when Host is empty.
type DatabaseConfig struct {
	Host     string
	Username string
	Password string
	Name     string
}

// TwilioConfig holds webhook authentication settings
type TwilioConfig struct {
	AuthToken string
}

// AIConfig holds speech and reply-generation provider configuration
type AIConfig struct {
	OpenAIAPIKey   string
	GoogleAIAPIKey string
	ReplyProvider  string // "openai" or "google"
	KnowledgePath  string
}

// ShopifyConfig holds order lookup settings; empty values disable lookups
type ShopifyConfig struct {
	StoreURL    string
	AccessToken string
}

// ChatwootConfig holds ticket logging settings; empty values disable logging
type ChatwootConfig struct {
	BaseURL   string
	APIToken  string
	AccountID string
	InboxID   string
}

// VoiceConfig holds call flow behavior settings
type VoiceConfig struct {
	TransferNumber string
	EmptyUtterance EmptyUtteranceBehavior
}

// Load reads and validates all required environment variables
func Load() (*Config, error) {
	// Load env.local in non-production environments
	if os.Getenv("GO_ENV") != "production" {
		if err := godotenv.Load("env.local"); err != nil {
			return nil, fmt.Errorf("failed to load env.local: %w", err)
		}
	}

	cfg := &Config{}

	var err error
	serverPort, err := requireEnv("SERVER_PORT")
	if err != nil {
		return nil, err
	}
	cfg.Server.Port, err = strconv.Atoi(serverPort)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SERVER_PORT: %w", err)
	}
	cfg.Server.PublicBaseURL = os.Getenv("PUBLIC_BASE_URL")
	cfg.Server.WebAppURI = os.Getenv("WEBAPP_URI")

	if cfg.AI.OpenAIAPIKey, err = requireEnv("OPENAI_API_KEY"); err != nil {
		return nil, err
	}
	cfg.AI.GoogleAIAPIKey = os.Getenv("GOOGLE_AI_API_KEY")
	cfg.AI.ReplyProvider = getEnvWithDefault("REPLY_PROVIDER", "openai")
	if cfg.AI.ReplyProvider == "google" && cfg.AI.GoogleAIAPIKey == "" {
		return nil, fmt.Errorf("REPLY_PROVIDER=google requires GOOGLE_AI_API_KEY: %w", ErrEmptyEnvironmentVariable)
	}
	cfg.AI.KnowledgePath = getEnvWithDefault("KNOWLEDGE_PATH", "product_knowledge.json")

	// Optional integrations. Missing keys disable the integration instead of
	// failing boot; the collaborators degrade to their empty sentinels.
	cfg.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	cfg.Shopify.StoreURL = os.Getenv("SHOPIFY_STORE_URL")
	cfg.Shopify.AccessToken = os.Getenv("SHOPIFY_ACCESS_TOKEN")
	cfg.Chatwoot.BaseURL = os.Getenv("CHATWOOT_BASE_URL")
	cfg.Chatwoot.APIToken = os.Getenv("CHATWOOT_API_TOKEN")
	cfg.Chatwoot.AccountID = os.Getenv("CHATWOOT_ACCOUNT_ID")
	cfg.Chatwoot.InboxID = os.Getenv("CHATWOOT_INBOX_ID")

	cfg.Database.Host = os.Getenv("DB_HOST")
	if cfg.Database.Host != "" {
		if cfg.Database.Username, err = requireEnv("DB_USERNAME"); err != nil {
			return nil, err
		}
		if cfg.Database.Password, err = requireEnv("DB_PASSWORD"); err != nil {
			return nil, err
		}
		if cfg.Database.Name, err = requireEnv("DB_NAME"); err != nil {
			return nil, err
		}
	}

	cfg.Voice.TransferNumber = os.Getenv("SUPPORT_TRANSFER_NUMBER")
	switch behavior := getEnvWithDefault("EMPTY_UTTERANCE_BEHAVIOR", "silent"); behavior {
	case string(EmptyUtteranceSilent):
		cfg.Voice.EmptyUtterance = EmptyUtteranceSilent
	case string(EmptyUtteranceReprompt):
		cfg.Voice.EmptyUtterance = EmptyUtteranceReprompt
	default:
		return nil, fmt.Errorf("invalid EMPTY_UTTERANCE_BEHAVIOR %q", behavior)
	}

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s",
		c.Username, c.Password, c.Host, c.Name)
}

// Enabled reports whether the audit store is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// Enabled reports whether order lookups are configured.
func (c *ShopifyConfig) Enabled() bool {
	return c.StoreURL != "" && c.AccessToken != ""
}

// Enabled reports whether ticket logging is configured.
func (c *ChatwootConfig) Enabled() bool {
	return c.BaseURL != "" && c.APIToken != "" && c.AccountID != "" && c.InboxID != ""
}

// requireEnv retrieves an environment variable or returns an error if empty
func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set: %w", key, ErrEmptyEnvironmentVariable)
	}
	return value, nil
}

// getEnvWithDefault retrieves an environment variable or returns a default value
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
