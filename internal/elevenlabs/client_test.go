package elevenlabs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/callscribe/internal/config"
	"github.com/fyrsmithlabs/callscribe/internal/transcript"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		APIKey:        "test-key",
		PhoneNumberID: "phnum_default",
		BaseURL:       srv.URL,
		MaxRetries:    2,
		RateLimit:     1000,
		Burst:         100,
		BaseBackoff:   time.Millisecond,
	})
	require.NoError(t, err)
	c.now = func() time.Time { return time.Unix(1700000000, 0) }
	return c
}

func readJSON(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestCreateAgent(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/convai/agents/create", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("xi-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		got = readJSON(t, r)
		_, _ = w.Write([]byte(`{"agent_id":"agent_123","extra":true}`))
	})

	agent, err := c.CreateAgent(context.Background(), AgentConfig{Name: "Nurse Ana", Prompt: "You are Ana."})
	require.NoError(t, err)
	assert.Equal(t, "agent_123", agent.ID)
	assert.Equal(t, true, agent.Raw["extra"])

	assert.Equal(t, "Nurse Ana", got["name"])
	cc := got["conversation_config"].(map[string]any)
	ag := cc["agent"].(map[string]any)
	assert.Equal(t, "You are Ana.", ag["prompt"].(map[string]any)["prompt"])
	assert.Equal(t, "Hi, I'm Nurse Ana. How can I help you today?", ag["first_message"])
	assert.Equal(t, "en", ag["language"])
	assert.Equal(t, "high", cc["asr"].(map[string]any)["quality"])
	assert.Equal(t, DefaultVoiceID, cc["tts"].(map[string]any)["voice_id"])
}

func TestCreateAgent_MissingID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	_, err := c.CreateAgent(context.Background(), AgentConfig{Name: "x"})
	assert.ErrorContains(t, err, "missing agent_id")
}

func TestSubmitBatchCall(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/convai/batch-calling/submit", r.URL.Path)
		got = readJSON(t, r)
		_, _ = w.Write([]byte(`{"id":"btcal_1","status":"pending"}`))
	})

	call, err := c.SubmitBatchCall(context.Background(), BatchCallRequest{
		CallName:   "AI Call to +15551234567",
		AgentID:    "agent_123",
		Recipients: []Recipient{{PhoneNumber: "+15551234567"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "btcal_1", call.ID)
	assert.Equal(t, "pending", call.Status)

	assert.Equal(t, "AI Call to +15551234567", got["call_name"])
	assert.Equal(t, "agent_123", got["agent_id"])
	assert.Equal(t, "phnum_default", got["agent_phone_number_id"])
	assert.Equal(t, float64(1700000000), got["scheduled_time_unix"])
	assert.Equal(t, []any{map[string]any{"phone_number": "+15551234567"}}, got["recipients"])
}

func TestSubmitBatchCall_Validation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := c.SubmitBatchCall(context.Background(), BatchCallRequest{Recipients: []Recipient{{PhoneNumber: "1"}}})
	assert.Error(t, err)
	_, err = c.SubmitBatchCall(context.Background(), BatchCallRequest{AgentID: "a"})
	assert.Error(t, err)
}

func TestGetBatchCall(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/convai/batch-calling/btcal_9", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"btcal_9","status":"completed","total_calls_dispatched":1}`))
	})
	call, err := c.GetBatchCall(context.Background(), "btcal_9")
	require.NoError(t, err)
	assert.Equal(t, "completed", call.Status)
	assert.Equal(t, float64(1), call.Raw["total_calls_dispatched"])
}

func TestListConversations(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"two", `{"conversations":[{"conversation_id":"c1","agent_id":"a1","batch_call_id":"b1"},{"conversation_id":"c2"}]}`, 2},
		{"missing key", `{}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			convs, err := c.ListConversations(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, convs)
			assert.Len(t, convs, tt.want)
		})
	}
}

func TestGetConversation_TranscriptShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind transcript.Kind
	}{
		{"turns", `{"conversation_id":"c1","transcript":[{"role":"user","message":"hi"}]}`, transcript.KindTurns},
		{"text", `{"conversation_id":"c1","transcript":"hello there"}`, transcript.KindText},
		{"absent", `{"conversation_id":"c1"}`, transcript.KindAbsent},
		{"null", `{"conversation_id":"c1","transcript":null}`, transcript.KindAbsent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/convai/conversations/c1", r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			})
			detail, err := c.GetConversation(context.Background(), "c1")
			require.NoError(t, err)
			assert.Equal(t, "c1", detail.ConversationID)
			assert.Equal(t, tt.kind, detail.Transcript.Kind)
		})
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":"btcal_1","status":"pending"}`))
	})
	call, err := c.GetBatchCall(context.Background(), "btcal_1")
	require.NoError(t, err)
	assert.Equal(t, "btcal_1", call.ID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryExhausted(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := c.GetBatchCall(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, http.StatusTooManyRequests, StatusCode(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"invalid key"}`))
	})
	_, err := c.ListConversations(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "failed to get conversations: 401 - {\"detail\":\"invalid key\"}", apiErr.Error())
	assert.Equal(t, int32(1), calls.Load())
}

func TestContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	c.baseBackoff = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.GetBatchCall(ctx, "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNotConfigured(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)
	assert.False(t, c.Configured())
	_, err = c.ListConversations(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "::not a url"})
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.ElevenLabsConfig{
		APIKey:        config.Secret("your-api-key-here"),
		PhoneNumberID: "phnum_1",
		MaxRetries:    4,
	}, nil)
	assert.Empty(t, cfg.APIKey, "placeholder key is treated as unset")
	assert.Equal(t, "phnum_1", cfg.PhoneNumberID)
	assert.Equal(t, 4, cfg.MaxRetries)

	cfg = FromConfig(config.ElevenLabsConfig{APIKey: config.Secret("sk-real")}, nil)
	assert.Equal(t, "sk-real", cfg.APIKey)
}
