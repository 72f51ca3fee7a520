package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"token-price-alerts/internal/watchlist"
)

func TestTelegramSinkSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("路径应包含 sendMessage, 实际 %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("解析请求体失败: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	sink := NewTelegramSink("token", "chat", srv.URL, time.Second, zerolog.Nop())
	event := Event{
		ID:        "evt-1",
		Token:     "DAI",
		Direction: watchlist.Up,
		Threshold: decimal.NewFromInt(1),
		PriceUSD:  decimal.NewFromInt(1),
	}

	if err := sink.Deliver(context.Background(), event); err != nil {
		t.Fatalf("Telegram Deliver 应成功: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("chat_id 不正确: %#v", received)
	}
	if received["text"] != "Token alert: DAI UP 1, price: 1.0000" {
		t.Fatalf("告警文本不正确: %q", received["text"])
	}
}

func TestTelegramSinkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	sink := NewTelegramSink("token", "chat", srv.URL, time.Second, zerolog.Nop())

	if err := sink.Deliver(context.Background(), testEvent()); err == nil {
		t.Fatal("ok=false 应报错")
	}
}

func TestTelegramSinkHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sink := NewTelegramSink("token", "chat", srv.URL, time.Second, zerolog.Nop())

	if err := sink.Deliver(context.Background(), testEvent()); err == nil {
		t.Fatal("HTTP 502 应报错")
	}
}
