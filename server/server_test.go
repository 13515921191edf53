package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"actubot/bot/turn"
	"actubot/core/config"
)

type echoProcessor struct {
	got turn.Activity
}

func (e *echoProcessor) Process(_ context.Context, a turn.Activity) ([]turn.Activity, error) {
	e.got = a
	return []turn.Activity{{
		Type:           turn.TypeMessage,
		ConversationID: a.ConversationID,
		UserID:         a.UserID,
		Text:           "pong",
	}}, nil
}

func newTestServer(t *testing.T) (*Server, *echoProcessor) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.MediaDir = t.TempDir()
	processor := &echoProcessor{}
	return New(cfg, processor), processor
}

func TestMessagesEndpoint(t *testing.T) {
	srv, processor := newTestServer(t)

	body := `{"type":"message","conversationId":"conv-1","userId":"user-1","text":"menu"}`
	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "menu", processor.got.Text)
	assert.Equal(t, "conv-1", processor.got.ConversationID)

	var payload struct {
		Activities []turn.Activity `json:"activities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Activities, 1)
	assert.Equal(t, "pong", payload.Activities[0].Text)
}

func TestMessagesEndpointRejectsMissingIdentity(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{"text":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
