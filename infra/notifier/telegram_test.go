package notifier

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type botAPI struct {
	mu     sync.Mutex
	paths  []string
	bodies []map[string]any
	fail   bool
}

func (b *botAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&body)
	b.mu.Lock()
	b.paths = append(b.paths, r.URL.Path)
	b.bodies = append(b.bodies, body)
	fail := b.fail
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
		return
	}
	_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":4242,"type":"private"},"text":"ok"}}`))
}

func TestTelegramSender_Send(t *testing.T) {
	api := &botAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	sender, err := NewTelegram(&config.Telegram{BotToken: "123:abc", Timeout: 5 * time.Second}, srv.URL, discardLogger())
	require.NoError(t, err)

	require.NoError(t, sender.Send(4242, "10 coins were added to your wallet."))

	require.Len(t, api.paths, 1)
	assert.True(t, strings.HasSuffix(api.paths[0], "/bot123:abc/sendMessage"), api.paths[0])
	assert.Equal(t, "4242", api.bodies[0]["chat_id"])
	assert.Equal(t, "10 coins were added to your wallet.", api.bodies[0]["text"])
}

func TestTelegramSender_SendError(t *testing.T) {
	api := &botAPI{fail: true}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	sender, err := NewTelegram(&config.Telegram{BotToken: "123:abc", Timeout: time.Second}, srv.URL, discardLogger())
	require.NoError(t, err)

	err = sender.Send(1, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram send to 1")
}

func TestNewTelegram_RequiresToken(t *testing.T) {
	_, err := NewTelegram(&config.Telegram{}, "", discardLogger())
	assert.Error(t, err)
	_, err = NewTelegram(nil, "", discardLogger())
	assert.Error(t, err)
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, NewLogSender(discardLogger()).Send(1, "hello"))
}
