package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/callscribe/internal/calls"
	"github.com/fyrsmithlabs/callscribe/internal/elevenlabs"
	"github.com/fyrsmithlabs/callscribe/internal/extraction"
	"github.com/fyrsmithlabs/callscribe/internal/prompt"
	"github.com/fyrsmithlabs/callscribe/internal/transcript"
)

type fakeProvider struct {
	mu sync.Mutex

	agentErr  error
	batchErr  error
	statusErr error
	listErr   error
	status    string
	convs     []elevenlabs.Conversation
	raw       transcript.Raw
	nextBatch int
}

func (f *fakeProvider) Configured() bool            { return true }
func (f *fakeProvider) PhoneNumberConfigured() bool { return true }

func (f *fakeProvider) CreateAgent(context.Context, elevenlabs.AgentConfig) (*elevenlabs.Agent, error) {
	if f.agentErr != nil {
		return nil, f.agentErr
	}
	return &elevenlabs.Agent{ID: "agent_1"}, nil
}

func (f *fakeProvider) SubmitBatchCall(context.Context, elevenlabs.BatchCallRequest) (*elevenlabs.BatchCall, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	f.nextBatch++
	return &elevenlabs.BatchCall{ID: fmt.Sprintf("btcal_%d", f.nextBatch), Status: "pending"}, nil
}

func (f *fakeProvider) GetBatchCall(_ context.Context, id string) (*elevenlabs.BatchCall, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &elevenlabs.BatchCall{ID: id, Status: f.status}, nil
}

func (f *fakeProvider) ListConversations(context.Context) ([]elevenlabs.Conversation, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.convs, nil
}

func (f *fakeProvider) GetConversation(_ context.Context, id string) (*elevenlabs.ConversationDetail, error) {
	return &elevenlabs.ConversationDetail{ConversationID: id, Transcript: f.raw}, nil
}

type fakeStarter struct {
	started []string
	err     error
}

func (f *fakeStarter) Start(_ context.Context, id string) (string, error) {
	f.started = append(f.started, id)
	if f.err != nil {
		return "", f.err
	}
	return "run-" + id, nil
}

type testServer struct {
	*Server
	provider *fakeProvider
	svc      *calls.Service
}

func setupTestServer(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	provider := &fakeProvider{status: calls.StatusCompleted}
	engine, err := extraction.NewEngine(extraction.Config{})
	require.NoError(t, err)
	catalog, err := prompt.NewCatalog("", nil)
	require.NoError(t, err)

	svc, err := calls.NewService(calls.Options{
		Provider:  provider,
		Store:     calls.NewMemoryStore(),
		Extractor: engine,
		Templates: catalog,
	})
	require.NoError(t, err)

	server, err := NewServer(svc, engine, zap.NewNop(), &Config{Host: "localhost", Port: 5001, Version: "test"}, opts...)
	require.NoError(t, err)
	return &testServer{Server: server, provider: provider, svc: svc}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get(echo.HeaderContentType) != "" &&
		bytes.HasPrefix(bytes.TrimSpace(rec.Body.Bytes()), []byte("{")) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func (s *testServer) makeCall(t *testing.T, req map[string]any) string {
	t.Helper()
	rec, body := s.do(t, http.MethodPost, "/api/make-call", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return body["batch_call_id"].(string)
}

var errBoom = errors.New("boom")
