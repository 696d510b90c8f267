package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/staffassist/internal/adapters/store"
	"github.com/0xcro3dile/staffassist/internal/domain/entities"
	"github.com/0xcro3dile/staffassist/internal/domain/ports"
	"github.com/0xcro3dile/staffassist/internal/domain/usecases"
)

// stubLLM returns a canned completion, or panics when asked to.
type stubLLM struct {
	mu      sync.Mutex
	reply   string
	panics  bool
	prompts []string
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	if s.panics {
		panic("model exploded")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	return s.reply, nil
}

func newTestServer(t *testing.T, llm ports.LLMService) (*Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	require.NoError(t, st.Import(context.Background(), &entities.Dataset{
		Orders: []entities.Order{{
			ID:          "o1",
			UserID:      "u1",
			TotalAmount: 1200,
			Status:      "confirmed",
			CreatedAt:   time.Now().UTC(),
		}},
	}))

	assistant := usecases.NewAssistant(
		usecases.NewContextAssembler(st, usecases.DefaultAssemblerConfig(), nil),
		usecases.NewResponseEnforcer(llm, usecases.DefaultEnforcerConfig(), nil),
		usecases.NewConversationStore(st, nil, nil),
		nil,
		nil,
	)
	return NewServer(assistant, Options{}, nil), st
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/staff-assistant", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAssistantEndpoint(t *testing.T) {
	llm := &stubLLM{reply: "```json\n{\"type\":\"table\",\"content\":\"| a |\",\"insights\":[\"up\"]}\n```"}
	srv, _ := newTestServer(t, llm)
	h := srv.Handler()

	rec := post(t, h, `{"message":"today's sales","sessionId":"s-1","staffUserId":"staff-1","context":{"page":"orders"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var reply entities.Reply
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reply))
	assert.Equal(t, "s-1", reply.SessionID)
	assert.Equal(t, entities.ResponseTable, reply.Response.Type)
	assert.Equal(t, []string{"up"}, reply.Response.Insights)
	assert.False(t, reply.Timestamp.IsZero())

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Total Revenue: ₹1200.00")
	assert.Contains(t, llm.prompts[0], `{"page":"orders"}`)
}

func TestAssistantEndpoint_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{reply: `{"content":"x"}`})
	h := srv.Handler()

	for name, body := range map[string]string{
		"malformed":     `{"message":`,
		"empty message": `{"message":"","sessionId":"s"}`,
		"wrong type":    `{"message":42}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := post(t, h, body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var env errorEnvelope
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
			assert.NotEmpty(t, env.Error)
			assert.Equal(t, entities.ResponseText, env.Response.Type)
			assert.NotEmpty(t, env.Response.Content)
		})
	}
}

func TestAssistantEndpoint_InternalFailure(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{panics: true})

	rec := post(t, srv.Handler(), `{"message":"hello"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var env errorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, errInternal, env.Error)
	assert.Equal(t, errorMessage{Type: entities.ResponseText, Content: errInternalReply}, env.Response)
}

func TestAssistantEndpoint_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{})

	req := httptest.NewRequest(http.MethodGet, "/api/staff-assistant", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPreflight(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{})

	req := httptest.NewRequest(http.MethodOptions, "/api/staff-assistant", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "content-type")
}

func TestSessionEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{reply: `{"content":"hi"}`})
	h := srv.Handler()

	require.Equal(t, http.StatusOK, post(t, h, `{"message":"first","sessionId":"abc"}`).Code)
	require.Equal(t, http.StatusOK, post(t, h, `{"message":"second","sessionId":"abc"}`).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions?id=abc", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		SessionID       string              `json:"sessionId"`
		ConversationLog []entities.Exchange `json:"conversationLog"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "abc", body.SessionID)
	require.Len(t, body.ConversationLog, 2)
	assert.Equal(t, "first", body.ConversationLog[0].UserMessage)
	assert.Equal(t, "second", body.ConversationLog[1].UserMessage)

	req = httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{})
	srv.opts.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
