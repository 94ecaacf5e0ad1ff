package wablast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"booking-svc/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, apiURL string) *Client {
	logger := zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
	c := NewClient(config.WABlastConfig{
		APIURL:    apiURL,
		SessionID: "test-session",
		Token:     "test-token",
	}, logger)
	c.messageDelay = 0
	return c
}

func TestFormatPhoneNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"08123456789", "628123456789"},
		{"8123456789", "628123456789"},
		{"628123456789", "628123456789"},
		{"+62 812-3456-789", "628123456789"},
		{"(0361) 847 6888", "623618476888"},
	}

	for _, tt := range tests {
		if got := formatPhoneNumber(tt.in); got != tt.want {
			t.Errorf("formatPhoneNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSendMessage_NotConfigured(t *testing.T) {
	logger := zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
	c := NewClient(config.WABlastConfig{}, logger)

	result := c.SendMessage(context.Background(), "08123456789", "hello")
	if result.Success {
		t.Error("Expected failure for unconfigured client")
	}
	if result.Error != "WA Blast not configured" {
		t.Errorf("Unexpected error: %q", result.Error)
	}
}

func TestSendMessage_Success(t *testing.T) {
	var gotAuth, gotSession string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotSession = r.URL.Query().Get("sessionId")
		w.Write([]byte(`[{"status":"success","messageId":"msg-1"}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	result := c.SendMessage(context.Background(), "08123456789", "hello")

	if !result.Success {
		t.Errorf("Expected success, got error %q", result.Error)
	}
	if result.MessageID != "msg-1" {
		t.Errorf("Expected message id msg-1, got %q", result.MessageID)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Unexpected Authorization header: %q", gotAuth)
	}
	if gotSession != "test-session" {
		t.Errorf("Unexpected sessionId: %q", gotSession)
	}
}

func TestSendMessage_ObjectResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","messageId":"msg-2"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	result := c.SendMessage(context.Background(), "08123456789", "hello")

	if !result.Success || result.MessageID != "msg-2" {
		t.Errorf("Expected success with msg-2, got %+v", result)
	}
}

func TestSendMessage_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`[{"status":"success"}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	c.sendTimeout = 20 * time.Millisecond

	result := c.SendMessage(context.Background(), "08123456789", "hello")
	if result.Success {
		t.Error("Expected timeout failure")
	}
	if result.Error != "Request timeout" {
		t.Errorf("Expected %q, got %q", "Request timeout", result.Error)
	}
}

func TestSendMessage_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"status":"error","message":"session not connected"}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	result := c.SendMessage(context.Background(), "08123456789", "hello")

	if result.Success {
		t.Error("Expected failure")
	}
	if result.Error != "session not connected" {
		t.Errorf("Unexpected error: %q", result.Error)
	}
}

func TestSendTextWithDocument_PartialSuccess(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write([]byte(`[{"status":"success","messageId":"text-1"}]`))
			return
		}
		w.Write([]byte(`[{"status":"error","message":"document too large"}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	result := c.SendTextWithDocument(context.Background(), "08123456789", "hello",
		"http://localhost:5000/invoices/invoice-MBR-TEST.pdf", "Invoice-MBR-TEST.pdf")

	if !result.Success {
		t.Error("Text delivery succeeded; result must be a partial success")
	}
	if !strings.Contains(result.Error, "Text sent, but document failed") {
		t.Errorf("Expected partial-failure note, got %q", result.Error)
	}
	if calls != 2 {
		t.Errorf("Expected 2 API calls, got %d", calls)
	}
}

func TestSendTextWithDocument_TextFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"status":"error","message":"session not connected"}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	result := c.SendTextWithDocument(context.Background(), "08123456789", "hello",
		"http://localhost:5000/invoices/invoice-MBR-TEST.pdf", "Invoice-MBR-TEST.pdf")

	if result.Success {
		t.Error("Expected failure when the text message fails")
	}
	if result.Error != "session not connected" {
		t.Errorf("Unexpected error: %q", result.Error)
	}
}

func TestSendBatchMessages_AllMustSucceed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"status":"success"},{"status":"error","message":"bad number"},{"status":"success"}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	messages := []Message{
		{RecipientType: "individual", To: "628123456789", Type: "text", Text: &TextPayload{Body: "a"}},
		{RecipientType: "individual", To: "628123456780", Type: "text", Text: &TextPayload{Body: "b"}},
		{RecipientType: "individual", To: "628123456781", Type: "text", Text: &TextPayload{Body: "c"}},
	}

	result := c.SendBatchMessages(context.Background(), messages)
	if result.Success {
		t.Error("Batch with one failure must fail")
	}
	if result.Error != "1 message(s) failed to send" {
		t.Errorf("Unexpected error: %q", result.Error)
	}
}

func TestGetSessionStatus_Connected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sessions/test-session/status") {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"ok","data":{"status":"CONNECTED","isConnected":true}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	status := c.GetSessionStatus(context.Background())

	if !status.Connected {
		t.Error("Expected connected session")
	}
	if status.Status != "CONNECTED" {
		t.Errorf("Unexpected status: %q", status.Status)
	}
}

func TestGetSessionStatus_Disconnected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"SCAN_QR_CODE","isConnected":false}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	status := c.GetSessionStatus(context.Background())

	if status.Connected {
		t.Error("Expected disconnected session")
	}
	if status.Detail != "Scan QR code to connect" {
		t.Errorf("Unexpected detail: %q", status.Detail)
	}
}

func TestGetSessionStatus_NotConfigured(t *testing.T) {
	logger := zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
	c := NewClient(config.WABlastConfig{}, logger)

	status := c.GetSessionStatus(context.Background())
	if status.Connected || status.Status != "NOT_CONFIGURED" {
		t.Errorf("Unexpected status: %+v", status)
	}
}
