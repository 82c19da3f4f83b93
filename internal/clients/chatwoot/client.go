// Package chatwoot logs call transcripts into Chatwoot conversations.
// Every call is best-effort from the caller's perspective: the voice flow
// never depends on a Chatwoot request succeeding.
package chatwoot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"voice-agent/internal/config"
	"voice-agent/internal/observability"
)

// Message directions understood by the Chatwoot messages API.
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

type Client struct {
	baseURL    string
	apiToken   string
	accountID  string
	inboxID    string
	httpClient *http.Client
	logger     *observability.Logger
}

// NewClient creates a Chatwoot client. A nil client is returned when the
// integration is not configured; callers treat nil as "logging disabled".
func NewClient(cfg config.ChatwootConfig, logger *observability.Logger) *Client {
	if !cfg.Enabled() {
		logger.Info(context.Background(), "Chatwoot is not configured, ticket logging disabled")
		return nil
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiToken:   cfg.APIToken,
		accountID:  cfg.AccountID,
		inboxID:    cfg.InboxID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (c *Client) accountPath(suffix string) string {
	return fmt.Sprintf("%s/api/v1/accounts/%s/%s", c.baseURL, c.accountID, suffix)
}

func (c *Client) do(ctx context.Context, method, url string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal chatwoot payload: %w", err)
		}
		body = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create chatwoot request: %w", err)
	}
	req.Header.Set("api_access_token", c.apiToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// CreateSession creates a Chatwoot contact and conversation for a call and
// returns the conversation id as an opaque ticket reference. Returns an
// error when any step fails; the caller records the attempt and moves on.
func (c *Client) CreateSession(ctx context.Context, externalID, phone string) (string, error) {
	contactID, err := c.ensureContact(ctx, phone)
	if err != nil {
		return "", err
	}

	inboxID, err := strconv.Atoi(c.inboxID)
	if err != nil {
		return "", fmt.Errorf("invalid chatwoot inbox id %q: %w", c.inboxID, err)
	}

	payload := map[string]interface{}{
		"inbox_id":   inboxID,
		"contact_id": contactID,
	}
	resp, err := c.do(ctx, http.MethodPost, c.accountPath("conversations"), payload)
	if err != nil {
		return "", fmt.Errorf("chatwoot conversation create failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chatwoot conversation create failed: %d %s", resp.StatusCode, string(respBody))
	}

	var conversation struct {
		ID int `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&conversation); err != nil {
		return "", fmt.Errorf("failed to decode chatwoot conversation: %w", err)
	}

	ctx = observability.WithFields(ctx,
		observability.Field{Key: "call_id", Value: externalID},
		observability.Field{Key: "conversation_id", Value: conversation.ID},
	)
	c.logger.Info(ctx, "Chatwoot conversation created")
	return strconv.Itoa(conversation.ID), nil
}

// ensureContact creates a contact for the caller, falling back to a search
// by phone number when creation is rejected (e.g. the contact exists).
func (c *Client) ensureContact(ctx context.Context, phone string) (int, error) {
	name := phone
	if name == "" {
		name = "Caller"
	}
	payload := map[string]interface{}{
		"name":         name,
		"phone_number": phone,
		"identifier":   phone,
	}

	resp, err := c.do(ctx, http.MethodPost, c.accountPath("contacts"), payload)
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
			var contact struct {
				ID int `json:"id"`
			}
			if decodeErr := json.NewDecoder(resp.Body).Decode(&contact); decodeErr == nil && contact.ID != 0 {
				return contact.ID, nil
			}
		}
	} else {
		c.logger.InfoWithError(ctx, "Chatwoot contact create failed, trying search", err)
	}

	searchURL := c.accountPath("contacts/search") + "?q=" + url.QueryEscape(phone)
	searchResp, err := c.do(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return 0, fmt.Errorf("chatwoot contact search failed: %w", err)
	}
	defer searchResp.Body.Close()

	if searchResp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("chatwoot contact search failed: %d", searchResp.StatusCode)
	}

	var search struct {
		Payload []struct {
			ID int `json:"id"`
		} `json:"payload"`
	}
	if err := json.NewDecoder(searchResp.Body).Decode(&search); err != nil {
		return 0, fmt.Errorf("failed to decode chatwoot contact search: %w", err)
	}
	if len(search.Payload) == 0 {
		return 0, fmt.Errorf("no chatwoot contact found for %q", phone)
	}
	return search.Payload[0].ID, nil
}

// Log appends a message to the conversation. direction is incoming for
// caller speech and outgoing for the agent's replies.
func (c *Client) Log(ctx context.Context, ticketRef, direction, text string) error {
	payload := map[string]interface{}{
		"content":      text,
		"message_type": direction,
	}
	messagesURL := c.accountPath("conversations/" + ticketRef + "/messages")

	resp, err := c.do(ctx, http.MethodPost, messagesURL, payload)
	if err != nil {
		return fmt.Errorf("chatwoot add message failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chatwoot add message failed: %d %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Close records the end of the call in the conversation.
func (c *Client) Close(ctx context.Context, ticketRef, reason string) error {
	return c.Log(ctx, ticketRef, DirectionOutgoing, "Call ended: "+reason)
}
