package wablast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"booking-svc/config"

	"go.uber.org/zap"
)

const (
	defaultSendTimeout  = 30 * time.Second
	defaultBatchTimeout = 60 * time.Second
	defaultMessageDelay = 2 * time.Second

	errNotConfigured = "WA Blast not configured"
	errTimeout       = "Request timeout"
)

type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

type TextPayload struct {
	Body string `json:"body"`
}

type DocumentPayload struct {
	Link     string `json:"link"`
	Mimetype string `json:"mimetype"`
	Filename string `json:"filename"`
}

type ImagePayload struct {
	Link    string `json:"link"`
	Caption string `json:"caption,omitempty"`
}

// Message is one element of the WA Blast messages endpoint payload.
type Message struct {
	RecipientType string           `json:"recipient_type"`
	To            string           `json:"to"`
	Type          string           `json:"type"`
	Text          *TextPayload     `json:"text,omitempty"`
	Document      *DocumentPayload `json:"document,omitempty"`
	Image         *ImagePayload    `json:"image,omitempty"`
}

type SessionStatus struct {
	Connected bool   `json:"connected"`
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
}

type apiResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"messageId"`
	Message   string `json:"message"`
}

// Client talks to the WA Blast messaging gateway. An unconfigured client
// reports failure on every send without attempting network I/O.
type Client struct {
	apiURL    string
	sessionID string
	token     string

	httpClient   *http.Client
	sendTimeout  time.Duration
	batchTimeout time.Duration
	messageDelay time.Duration

	logger *zap.Logger
}

func NewClient(cfg config.WABlastConfig, logger *zap.Logger) *Client {
	return &Client{
		apiURL:       strings.TrimRight(cfg.APIURL, "/"),
		sessionID:    cfg.SessionID,
		token:        cfg.Token,
		httpClient:   &http.Client{},
		sendTimeout:  defaultSendTimeout,
		batchTimeout: defaultBatchTimeout,
		messageDelay: defaultMessageDelay,
		logger:       logger,
	}
}

func (c *Client) IsConfigured() bool {
	return c.apiURL != "" && c.sessionID != "" && c.token != ""
}

// formatPhoneNumber normalizes to international format: strip non-digits,
// leading 0 becomes country code 62, bare national numbers get prefixed.
func formatPhoneNumber(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if strings.HasPrefix(cleaned, "0") {
		cleaned = "62" + cleaned[1:]
	}
	if !strings.HasPrefix(cleaned, "62") {
		cleaned = "62" + cleaned
	}
	return cleaned
}

func classifySendError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return errTimeout
	}
	return err.Error()
}

func (c *Client) postMessages(ctx context.Context, payload interface{}, timeout time.Duration) ([]apiResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/messages?sessionId=%s", c.apiURL, c.sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	// The API returns either one object or an array of them.
	var many []apiResponse
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}
	var one apiResponse
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("unexpected response body: %w", err)
	}
	return []apiResponse{one}, nil
}

// SendMessage sends a single text message.
func (c *Client) SendMessage(ctx context.Context, to, body string) SendResult {
	if !c.IsConfigured() {
		c.logger.Warn("WA Blast not configured, skipping message")
		return SendResult{Success: false, Error: errNotConfigured}
	}

	phone := formatPhoneNumber(to)
	msg := Message{
		RecipientType: "individual",
		To:            phone,
		Type:          "text",
		Text:          &TextPayload{Body: body},
	}

	responses, err := c.postMessages(ctx, msg, c.sendTimeout)
	if err != nil {
		c.logger.Error("WA Blast message send failed", zap.String("to", phone), zap.Error(err))
		return SendResult{Success: false, Error: classifySendError(err)}
	}
	if len(responses) == 0 {
		return SendResult{Success: false, Error: "empty response"}
	}

	first := responses[0]
	if first.Status == "success" {
		c.logger.Info("WA Blast message sent", zap.String("to", phone))
		return SendResult{Success: true, MessageID: first.MessageID}
	}
	return SendResult{Success: false, Error: responseError(first)}
}

// SendDocument sends a document reference (publicly reachable URL).
func (c *Client) SendDocument(ctx context.Context, to, documentURL, filename, mimetype string) SendResult {
	if !c.IsConfigured() {
		c.logger.Warn("WA Blast not configured, skipping document")
		return SendResult{Success: false, Error: errNotConfigured}
	}
	if mimetype == "" {
		mimetype = "application/pdf"
	}

	phone := formatPhoneNumber(to)
	msg := Message{
		RecipientType: "individual",
		To:            phone,
		Type:          "document",
		Document: &DocumentPayload{
			Link:     documentURL,
			Mimetype: mimetype,
			Filename: filename,
		},
	}

	responses, err := c.postMessages(ctx, msg, c.sendTimeout)
	if err != nil {
		c.logger.Error("WA Blast document send failed", zap.String("to", phone), zap.Error(err))
		return SendResult{Success: false, Error: classifySendError(err)}
	}
	if len(responses) == 0 {
		return SendResult{Success: false, Error: "empty response"}
	}

	first := responses[0]
	if first.Status == "success" {
		c.logger.Info("WA Blast document sent", zap.String("to", phone), zap.String("link", documentURL))
		return SendResult{Success: true, MessageID: first.MessageID}
	}
	return SendResult{Success: false, Error: responseError(first)}
}

// SendBatchMessages posts multiple message objects in one call. Success
// requires every element to report success.
func (c *Client) SendBatchMessages(ctx context.Context, messages []Message) SendResult {
	if !c.IsConfigured() {
		c.logger.Warn("WA Blast not configured, skipping batch")
		return SendResult{Success: false, Error: errNotConfigured}
	}

	responses, err := c.postMessages(ctx, messages, c.batchTimeout)
	if err != nil {
		c.logger.Error("WA Blast batch send failed", zap.Error(err))
		return SendResult{Success: false, Error: classifySendError(err)}
	}

	failed := 0
	for _, r := range responses {
		if r.Status != "success" {
			failed++
		}
	}
	if failed > 0 {
		c.logger.Error("WA Blast batch partially failed",
			zap.Int("failed", failed), zap.Int("total", len(messages)))
		return SendResult{Success: false, Error: fmt.Sprintf("%d message(s) failed to send", failed)}
	}

	c.logger.Info("WA Blast batch sent", zap.Int("count", len(messages)))
	result := SendResult{Success: true}
	if len(responses) == 1 {
		result.MessageID = responses[0].MessageID
	}
	return result
}

// SendTextWithDocument sends a text message, waits the inter-message delay,
// then sends a document. Text delivery is the higher-priority signal: if the
// text succeeds but the document fails, the result is a partial success.
func (c *Client) SendTextWithDocument(ctx context.Context, to, textBody, documentURL, filename string) SendResult {
	textResult := c.SendMessage(ctx, to, textBody)
	if !textResult.Success {
		return textResult
	}

	select {
	case <-time.After(c.messageDelay):
	case <-ctx.Done():
		return SendResult{Success: true, Error: fmt.Sprintf("Text sent, but document failed: %s", ctx.Err())}
	}

	docResult := c.SendDocument(ctx, to, documentURL, filename, "application/pdf")
	if !docResult.Success {
		return SendResult{Success: true, Error: fmt.Sprintf("Text sent, but document failed: %s", docResult.Error)}
	}

	c.logger.Info("WA Blast text + document sent", zap.String("to", formatPhoneNumber(to)))
	return SendResult{Success: true}
}

// GetSessionStatus reports the liveness/QR-pairing state of the session.
func (c *Client) GetSessionStatus(ctx context.Context) SessionStatus {
	if c.apiURL == "" || c.sessionID == "" {
		return SessionStatus{Connected: false, Status: "NOT_CONFIGURED"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/sessions/%s/status", c.apiURL, c.sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return SessionStatus{Connected: false, Status: "ERROR", Detail: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SessionStatus{Connected: false, Status: "ERROR", Detail: classifySendError(err)}
	}
	defer resp.Body.Close()

	var res struct {
		Status      string `json:"status"`
		Message     string `json:"message"`
		IsConnected bool   `json:"isConnected"`
		Data        *struct {
			Status      string `json:"status"`
			IsConnected bool   `json:"isConnected"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return SessionStatus{Connected: false, Status: "ERROR", Detail: err.Error()}
	}

	if res.Status == "error" {
		return SessionStatus{Connected: false, Status: "ERROR", Detail: res.Message}
	}

	status := res.Status
	connected := res.IsConnected
	if res.Data != nil {
		status = res.Data.Status
		connected = res.Data.IsConnected
	}
	if status == "" {
		status = "UNKNOWN"
	}
	connected = connected || status == "CONNECTED"

	detail := "Scan QR code to connect"
	if connected {
		detail = "Session connected"
	}
	return SessionStatus{Connected: connected, Status: status, Detail: detail}
}

func responseError(r apiResponse) string {
	if r.Message != "" {
		return r.Message
	}
	return "Unknown error"
}
