package elevenlabs

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/callscribe/internal/config"
	"github.com/fyrsmithlabs/callscribe/internal/logging"
)

const (
	DefaultBaseURL  = "https://api.elevenlabs.io/v1"
	DefaultVoiceID  = "21m00Tcm4TlvDq8ikWAM"
	DefaultLanguage = "en"

	defaultTimeout     = 30 * time.Second
	defaultRateLimit   = 5.0
	defaultBurst       = 5
	defaultBaseBackoff = 500 * time.Millisecond
	maxResponseBytes   = 10 << 20

	instrumentationName = "github.com/fyrsmithlabs/callscribe/internal/elevenlabs"
)

// Config configures a Client.
type Config struct {
	APIKey        string
	PhoneNumberID string
	BaseURL       string
	Timeout       time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries  int
	RateLimit   float64
	Burst       int
	BaseBackoff time.Duration
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// FromConfig builds client config from the service configuration.
func FromConfig(c config.ElevenLabsConfig, logger *zap.Logger) Config {
	cfg := Config{
		PhoneNumberID: c.PhoneNumberID,
		BaseURL:       c.BaseURL,
		Timeout:       c.Timeout,
		MaxRetries:    c.MaxRetries,
		RateLimit:     c.RateLimit,
		Burst:         c.Burst,
		Logger:        logger,
	}
	if c.Configured() {
		cfg.APIKey = c.APIKey.Value()
	}
	return cfg
}

// Client talks to the ElevenLabs API. It is safe for concurrent use.
type Client struct {
	apiKey        string
	phoneNumberID string
	baseURL       string
	httpClient    *http.Client
	limiter       *rate.Limiter
	maxRetries    int
	baseBackoff   time.Duration
	logger        *zap.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// New creates a client. A client without an API key is valid but every
// request fails with ErrNotConfigured.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	backoff := cfg.BaseBackoff
	if backoff <= 0 {
		backoff = defaultBaseBackoff
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey:        cfg.APIKey,
		phoneNumberID: cfg.PhoneNumberID,
		baseURL:       baseURL,
		httpClient:    httpClient,
		limiter:       rate.NewLimiter(rate.Limit(limit), burst),
		maxRetries:    retries,
		baseBackoff:   backoff,
		logger:        logger.Named("elevenlabs"),
		tracer:        otel.Tracer(instrumentationName),
		now:           time.Now,
	}, nil
}

// Configured reports whether the client has an API key.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// PhoneNumberConfigured reports whether a default outbound number is set.
func (c *Client) PhoneNumberConfigured() bool {
	return c.phoneNumberID != ""
}

// CreateAgent creates a conversational agent and returns its ID.
func (c *Client) CreateAgent(ctx context.Context, cfg AgentConfig) (*Agent, error) {
	firstMessage := cfg.FirstMessage
	if firstMessage == "" {
		firstMessage = fmt.Sprintf("Hi, I'm %s. How can I help you today?", cfg.Name)
	}
	voice := cfg.VoiceID
	if voice == "" {
		voice = DefaultVoiceID
	}
	lang := cfg.Language
	if lang == "" {
		lang = DefaultLanguage
	}

	payload := createAgentPayload{
		Name: cfg.Name,
		ConversationConfig: conversationConfig{
			Agent: agentSection{
				Prompt:       promptSection{Prompt: cfg.Prompt},
				FirstMessage: firstMessage,
				Language:     lang,
			},
			ASR: asrSection{Quality: "high"},
			TTS: ttsSection{VoiceID: voice},
		},
	}

	body, err := c.do(ctx, "create agent", http.MethodPost, "/convai/agents/create", payload)
	if err != nil {
		return nil, err
	}
	var agent Agent
	if agent.Raw, err = decodeWithRaw(body, &agent); err != nil {
		return nil, err
	}
	if agent.ID == "" {
		return nil, fmt.Errorf("create agent: response missing agent_id")
	}
	return &agent, nil
}

// SubmitBatchCall schedules an outbound call to the given recipients.
func (c *Client) SubmitBatchCall(ctx context.Context, req BatchCallRequest) (*BatchCall, error) {
	if req.AgentID == "" {
		return nil, fmt.Errorf("submit batch call: agent id is required")
	}
	if len(req.Recipients) == 0 {
		return nil, fmt.Errorf("submit batch call: at least one recipient is required")
	}
	phoneID := req.PhoneNumberID
	if phoneID == "" {
		phoneID = c.phoneNumberID
	}
	scheduled := req.ScheduledAt
	if scheduled.IsZero() {
		scheduled = c.now()
	}

	c.logger.Debug("submitting batch call",
		zap.String("agent_id", req.AgentID),
		zap.Int("recipients", len(req.Recipients)),
		logging.MaskedPhone("phone", req.Recipients[0].PhoneNumber),
	)

	payload := batchCallPayload{
		CallName:           req.CallName,
		AgentID:            req.AgentID,
		AgentPhoneNumberID: phoneID,
		ScheduledTimeUnix:  scheduled.Unix(),
		Recipients:         req.Recipients,
	}
	body, err := c.do(ctx, "create batch call", http.MethodPost, "/convai/batch-calling/submit", payload)
	if err != nil {
		return nil, err
	}
	var call BatchCall
	if call.Raw, err = decodeWithRaw(body, &call); err != nil {
		return nil, err
	}
	return &call, nil
}

// GetBatchCall fetches the current state of a batch call.
func (c *Client) GetBatchCall(ctx context.Context, id string) (*BatchCall, error) {
	body, err := c.do(ctx, "get batch call status", http.MethodGet, "/convai/batch-calling/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var call BatchCall
	if call.Raw, err = decodeWithRaw(body, &call); err != nil {
		return nil, err
	}
	return &call, nil
}

// ListConversations returns the account's conversations. A response
// without a conversations key yields an empty list.
func (c *Client) ListConversations(ctx context.Context) ([]Conversation, error) {
	body, err := c.do(ctx, "get conversations", http.MethodGet, "/convai/conversations", nil)
	if err != nil {
		return nil, err
	}
	var list conversationList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if list.Conversations == nil {
		return []Conversation{}, nil
	}
	return list.Conversations, nil
}

// GetConversation fetches one conversation with its transcript.
func (c *Client) GetConversation(ctx context.Context, id string) (*ConversationDetail, error) {
	body, err := c.do(ctx, "get conversation", http.MethodGet, "/convai/conversations/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var detail ConversationDetail
	if detail.Raw, err = decodeWithRaw(body, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// do runs one logical request with rate limiting, tracing and retries.
func (c *Client) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "elevenlabs."+strings.ReplaceAll(op, " ", "_"),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", path),
		),
	)
	defer span.End()

	start := time.Now()
	body, err := c.doWithRetry(ctx, op, method, path, payload)
	RequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	status := "ok"
	if err != nil {
		status = "error"
		if code := StatusCode(err); code != 0 {
			status = strconv.Itoa(code)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, op+" failed")
	}
	RequestsTotal.WithLabelValues(op, status).Inc()
	return body, err
}

func (c *Client) doWithRetry(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var data []byte
	if payload != nil {
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.baseBackoff * time.Duration(1<<(attempt-1))
			RetriesTotal.WithLabelValues(op).Inc()
			c.logger.Warn("retrying request",
				zap.String("operation", op),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, err := c.doRequest(ctx, op, method, path, data)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !isRetryableError(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, op, method, path string, data []byte) ([]byte, error) {
	var reqBody io.Reader
	if data != nil {
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &retryableError{err: fmt.Errorf("API request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("provider response",
		zap.String("operation", op),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode == http.StatusOK {
		return body, nil
	}
	apiErr := &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &retryableError{err: apiErr}
	}
	return nil, apiErr
}

// decodeWithRaw decodes body into v and also returns it as a generic map.
func decodeWithRaw(body []byte, v any) (map[string]any, error) {
	if err := json.Unmarshal(body, v); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return raw, nil
}
