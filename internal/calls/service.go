package calls

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/callscribe/internal/elevenlabs"
	"github.com/fyrsmithlabs/callscribe/internal/extraction"
	"github.com/fyrsmithlabs/callscribe/internal/logging"
	"github.com/fyrsmithlabs/callscribe/internal/prompt"
)

const (
	instrumentationName = "github.com/fyrsmithlabs/callscribe/internal/calls"

	// TranscriptUnavailable replaces the transcript when the conversation
	// details cannot be fetched.
	TranscriptUnavailable = "Could not retrieve transcript"

	testAgentName         = "Test AI Assistant"
	testAgentPrompt       = "You are a helpful AI assistant for testing purposes. Be friendly and professional."
	testAgentFirstMessage = "Hello! This is a test call from the AI assistant."
)

// Provider is the voice platform the service drives.
type Provider interface {
	Configured() bool
	PhoneNumberConfigured() bool
	CreateAgent(ctx context.Context, cfg elevenlabs.AgentConfig) (*elevenlabs.Agent, error)
	SubmitBatchCall(ctx context.Context, req elevenlabs.BatchCallRequest) (*elevenlabs.BatchCall, error)
	GetBatchCall(ctx context.Context, id string) (*elevenlabs.BatchCall, error)
	ListConversations(ctx context.Context) ([]elevenlabs.Conversation, error)
	GetConversation(ctx context.Context, id string) (*elevenlabs.ConversationDetail, error)
}

// Extractor turns a normalized transcript into per-question answers.
type Extractor interface {
	Assemble(ctx context.Context, questions []string, text string) extraction.ResultMap
}

// Options wires a Service.
type Options struct {
	Provider  Provider
	Store     Store
	Extractor Extractor
	Events    EventPublisher
	// Templates resolves CallRequest.Template. Optional.
	Templates *prompt.Catalog
	Logger    *zap.Logger

	DefaultVoiceID  string
	DefaultLanguage string
}

// Service runs the call lifecycle.
type Service struct {
	provider  Provider
	store     Store
	extractor Extractor
	events    EventPublisher
	templates *prompt.Catalog
	logger    *zap.Logger
	tracer    trace.Tracer

	defaultVoice string
	defaultLang  string
	now          func() time.Time
}

// NewService creates a call service.
func NewService(opts Options) (*Service, error) {
	if opts.Provider == nil {
		return nil, errors.New("provider is required")
	}
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}
	if opts.Extractor == nil {
		return nil, errors.New("extractor is required")
	}
	events := opts.Events
	if events == nil {
		events = NopPublisher{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	voice := opts.DefaultVoiceID
	if voice == "" {
		voice = elevenlabs.DefaultVoiceID
	}
	lang := opts.DefaultLanguage
	if lang == "" {
		lang = elevenlabs.DefaultLanguage
	}

	return &Service{
		provider:     opts.Provider,
		store:        opts.Store,
		extractor:    opts.Extractor,
		events:       events,
		templates:    opts.Templates,
		logger:       logger.Named("calls"),
		tracer:       otel.Tracer(instrumentationName),
		defaultVoice: voice,
		defaultLang:  lang,
		now:          time.Now,
	}, nil
}

// ProviderConfigured reports whether the platform API key is set.
func (s *Service) ProviderConfigured() bool { return s.provider.Configured() }

// PhoneNumberConfigured reports whether an outbound number is set.
func (s *Service) PhoneNumberConfigured() bool { return s.provider.PhoneNumberConfigured() }

// Templates returns the template catalog, which may be nil.
func (s *Service) Templates() *prompt.Catalog { return s.templates }

// MakeCall creates an agent for the request, submits the outbound call and
// stores it as pending.
func (s *Service) MakeCall(ctx context.Context, req CallRequest) (*Call, error) {
	ctx, span := s.tracer.Start(ctx, "calls.make_call")
	defer span.End()

	call, err := s.makeCall(ctx, req)
	if err != nil {
		CallsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "make call failed")
		return nil, err
	}
	CallsTotal.WithLabelValues("ok").Inc()
	span.SetAttributes(
		attribute.String("call.batch_call_id", call.BatchCallID),
		attribute.String("call.agent_id", call.AgentID),
		attribute.Int("call.questions", len(call.Questions)),
	)
	return call, nil
}

func (s *Service) makeCall(ctx context.Context, req CallRequest) (*Call, error) {
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.PhoneNumber == "" {
		return nil, ErrPhoneRequired
	}
	if req.Template != "" {
		if err := s.applyTemplate(&req); err != nil {
			return nil, err
		}
	}

	spec := prompt.Spec{
		Name:         req.AgentName,
		Purpose:      req.CallPurpose,
		Questions:    req.Questions,
		FirstMessage: req.FirstMessage,
		CustomPrompt: req.CustomPrompt,
	}.WithDefaults()
	structured := prompt.BuildStructuredPrompt(spec)
	firstMessage := prompt.BuildFirstMessage(spec)

	voice := req.VoiceID
	if voice == "" {
		voice = s.defaultVoice
	}
	lang := req.Language
	if lang == "" {
		lang = s.defaultLang
	}

	s.logger.Info("creating agent",
		zap.String("agent_name", spec.Name),
		zap.Int("questions", len(spec.Questions)),
		zap.Int("prompt_length", len(structured)),
		logging.MaskedPhone("phone", req.PhoneNumber),
	)

	agent, err := s.provider.CreateAgent(ctx, elevenlabs.AgentConfig{
		Name:         spec.Name,
		Prompt:       structured,
		VoiceID:      voice,
		Language:     lang,
		FirstMessage: firstMessage,
	})
	if err != nil {
		return nil, &StepError{Message: "Failed to create agent", Err: err}
	}

	batch, err := s.provider.SubmitBatchCall(ctx, elevenlabs.BatchCallRequest{
		CallName:   "AI Call to " + req.PhoneNumber,
		AgentID:    agent.ID,
		Recipients: []elevenlabs.Recipient{{PhoneNumber: req.PhoneNumber}},
	})
	if err != nil {
		return nil, &StepError{Message: "Failed to initiate call", Err: err}
	}
	if batch.ID == "" {
		return nil, &StepError{Message: "Failed to initiate call", Err: errors.New("response missing batch call id")}
	}

	now := s.now().UTC()
	call := &Call{
		BatchCallID:      batch.ID,
		PhoneNumber:      req.PhoneNumber,
		AgentID:          agent.ID,
		AgentName:        spec.Name,
		CallPurpose:      spec.Purpose,
		Questions:        append([]string{}, spec.Questions...),
		FirstMessage:     firstMessage,
		CustomPrompt:     req.CustomPrompt,
		StructuredPrompt: structured,
		VoiceID:          voice,
		Language:         lang,
		Status:           StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.Create(ctx, call); err != nil {
		return nil, fmt.Errorf("storing call: %w", err)
	}
	s.refreshActive(ctx)

	ctx = logging.WithCallID(ctx, call.BatchCallID)
	s.logger.Info("call initiated", logging.Fields(ctx, zap.String("agent_id", call.AgentID))...)
	s.publish(ctx, newEvent(EventCreated, call))
	return call, nil
}

// applyTemplate fills empty request fields from the named template.
func (s *Service) applyTemplate(req *CallRequest) error {
	if s.templates == nil {
		return fmt.Errorf("%w: %s", prompt.ErrTemplateNotFound, req.Template)
	}
	t, err := s.templates.Get(req.Template)
	if err != nil {
		return err
	}
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&req.AgentName, t.Name)
	fill(&req.CallPurpose, t.Purpose)
	fill(&req.VoiceID, t.VoiceID)
	fill(&req.Language, t.Language)
	fill(&req.FirstMessage, t.FirstMessage)
	fill(&req.CustomPrompt, t.CustomPrompt)
	if len(req.Questions) == 0 {
		req.Questions = t.Questions
	}
	return nil
}

// Status polls the platform for the call's status and records it.
func (s *Service) Status(ctx context.Context, id string) (*StatusReport, error) {
	ctx, span := s.tracer.Start(ctx, "calls.status", trace.WithAttributes(attribute.String("call.batch_call_id", id)))
	defer span.End()

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	batch, err := s.provider.GetBatchCall(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "status poll failed")
		return nil, &StepError{Message: "Failed to get call status", Err: err}
	}

	updated, err := s.store.Update(ctx, id, func(c *Call) error {
		c.Status = batch.Status
		c.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if current.Status != updated.Status {
		s.publish(ctx, newEvent(EventStatus, updated))
	}

	result, err := s.store.Result(ctx, id)
	if err != nil && !errors.Is(err, ErrResultNotFound) {
		return nil, err
	}
	span.SetAttributes(attribute.String("call.status", updated.Status))
	return &StatusReport{
		Status:                updated.Status,
		Call:                  updated,
		Result:                result,
		ConversationProcessed: updated.ConversationProcessed,
	}, nil
}

// ConversationMatch is a conversation found for a call.
type ConversationMatch struct {
	Conversation elevenlabs.Conversation
	// MatchedBy is "batch_call_id" or "agent_id".
	MatchedBy string
}

// FindConversation locates the call's conversation, first by batch call ID
// and then by agent ID.
func (s *Service) FindConversation(ctx context.Context, call *Call) (*ConversationMatch, error) {
	convs, err := s.provider.ListConversations(ctx)
	if err != nil {
		return nil, &ConversationNotFoundError{BatchCallID: call.BatchCallID, AgentID: call.AgentID, Cause: err}
	}
	s.logger.Debug("listed conversations", zap.Int("count", len(convs)))

	for _, c := range convs {
		if c.BatchCallID != "" && c.BatchCallID == call.BatchCallID {
			return &ConversationMatch{Conversation: c, MatchedBy: "batch_call_id"}, nil
		}
	}
	for _, c := range convs {
		if c.AgentID != "" && c.AgentID == call.AgentID {
			return &ConversationMatch{Conversation: c, MatchedBy: "agent_id"}, nil
		}
	}

	nf := &ConversationNotFoundError{BatchCallID: call.BatchCallID, AgentID: call.AgentID, Total: len(convs)}
	for _, c := range convs {
		if c.BatchCallID != "" {
			nf.AvailableBatchCallIDs = append(nf.AvailableBatchCallIDs, c.BatchCallID)
		}
		if c.AgentID != "" {
			nf.AvailableAgentIDs = append(nf.AvailableAgentIDs, c.AgentID)
		}
	}
	return nil, nf
}

// ProcessConversation fetches the call's transcript, extracts answers to
// its questions, and stores the result. Re-processing overwrites the
// previous result.
func (s *Service) ProcessConversation(ctx context.Context, id string) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "calls.process_conversation", trace.WithAttributes(attribute.String("call.batch_call_id", id)))
	defer span.End()
	start := time.Now()
	defer func() { ProcessDuration.Observe(time.Since(start).Seconds()) }()

	call, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	match, err := s.FindConversation(ctx, call)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "conversation not found")
		return nil, err
	}
	convID := match.Conversation.ConversationID
	ctx = logging.WithConversationID(logging.WithCallID(ctx, id), convID)

	var text, rawType, notes string
	detail, err := s.provider.GetConversation(ctx, convID)
	if err != nil {
		s.logger.Warn("failed to get conversation details", logging.Fields(ctx, zap.Error(err))...)
		text = TranscriptUnavailable
		rawType = "unavailable"
		notes = "Transcript could not be retrieved, answers extracted from placeholder text"
	} else {
		text = detail.Transcript.Normalize()
		rawType = detail.Transcript.Kind.String()
		notes = fmt.Sprintf("Transcript was %s format, converted to string", rawType)
	}

	info := s.extractor.Assemble(ctx, call.Questions, text)
	result := &Result{
		ConversationID:    convID,
		Transcript:        text,
		ExtractedInfo:     info,
		ProcessedAt:       s.now().UTC(),
		RawTranscriptType: rawType,
		ProcessingNotes:   notes,
	}

	if err := s.store.SaveResult(ctx, id, result); err != nil {
		return nil, fmt.Errorf("storing result: %w", err)
	}
	updated, err := s.store.Update(ctx, id, func(c *Call) error {
		c.ConversationProcessed = true
		c.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}

	ConversationsProcessed.WithLabelValues(match.MatchedBy).Inc()
	answered := countAnswered(info)
	span.SetAttributes(
		attribute.String("call.conversation_id", convID),
		attribute.String("call.matched_by", match.MatchedBy),
		attribute.Int("call.answered", answered),
	)
	s.logger.Info("conversation processed", logging.Fields(ctx,
		zap.String("matched_by", match.MatchedBy),
		zap.String("transcript_type", rawType),
		zap.Int("answered", answered),
		zap.Int("questions", info.Len()),
	)...)

	ev := newEvent(EventProcessed, updated)
	ev.ConversationID = convID
	ev.Answered = answered
	s.publish(ctx, ev)
	return result, nil
}

func countAnswered(m extraction.ResultMap) int {
	n := 0
	for _, a := range m.Answers() {
		if a != extraction.NotAnswered && a != extraction.ProcessingError {
			n++
		}
	}
	return n
}

// Results returns the processed result for a call.
func (s *Service) Results(ctx context.Context, id string) (*Result, error) {
	return s.store.Result(ctx, id)
}

// Snapshot is every stored call and result keyed by batch call ID.
type Snapshot struct {
	Calls   map[string]*Call   `json:"active_calls"`
	Results map[string]*Result `json:"call_results"`
}

// ActiveCalls returns all stored calls and results.
func (s *Service) ActiveCalls(ctx context.Context) (*Snapshot, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	results, err := s.store.Results(ctx)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Calls: make(map[string]*Call, len(list)), Results: results}
	for _, c := range list {
		snap.Calls[c.BatchCallID] = c
	}
	return snap, nil
}

// DebugConversations lists every conversation the platform knows about.
func (s *Service) DebugConversations(ctx context.Context) ([]ConversationSummary, error) {
	ctx, span := s.tracer.Start(ctx, "calls.debug_conversations")
	defer span.End()

	convs, err := s.provider.ListConversations(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	out := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		out = append(out, ConversationSummary{
			ConversationID: c.ConversationID,
			AgentID:        c.AgentID,
			BatchCallID:    c.BatchCallID,
			Status:         c.Status,
			CreatedAt:      c.CreatedAt,
		})
	}
	return out, nil
}

// TestAgentCreation creates a throwaway agent to verify credentials.
func (s *Service) TestAgentCreation(ctx context.Context) (*elevenlabs.Agent, error) {
	ctx, span := s.tracer.Start(ctx, "calls.test_agent_creation")
	defer span.End()

	agent, err := s.provider.CreateAgent(ctx, elevenlabs.AgentConfig{
		Name:         testAgentName,
		Prompt:       testAgentPrompt,
		VoiceID:      elevenlabs.DefaultVoiceID,
		Language:     elevenlabs.DefaultLanguage,
		FirstMessage: testAgentFirstMessage,
	})
	if err != nil {
		span.RecordError(err)
		return nil, &StepError{Message: "Failed to create test agent", Err: err}
	}
	s.logger.Info("test agent created", zap.String("agent_id", agent.ID))
	return agent, nil
}

// Prune deletes calls older than retention.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int, error) {
	n, err := s.store.Prune(ctx, s.now().Add(-retention))
	if err != nil {
		return n, err
	}
	if n > 0 {
		s.logger.Info("pruned calls", zap.Int("count", n), zap.Duration("retention", retention))
	}
	s.refreshActive(ctx)
	return n, nil
}

// RunRetention prunes on every interval tick until ctx is cancelled.
func (s *Service) RunRetention(ctx context.Context, interval, retention time.Duration) {
	if interval <= 0 || retention <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Prune(ctx, retention); err != nil {
				s.logger.Warn("retention prune failed", zap.Error(err))
			}
		}
	}
}

func (s *Service) publish(ctx context.Context, ev Event) {
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish call event", logging.Fields(logging.WithCallID(ctx, ev.BatchCallID),
			zap.String("type", string(ev.Type)),
			zap.Error(err),
		)...)
	}
}

func (s *Service) refreshActive(ctx context.Context) {
	if list, err := s.store.List(ctx); err == nil {
		ActiveCalls.Set(float64(len(list)))
	}
}

func outcomeLabel(err error) string {
	var step *StepError
	switch {
	case errors.Is(err, ErrPhoneRequired), errors.Is(err, prompt.ErrTemplateNotFound):
		return "invalid"
	case errors.As(err, &step):
		return "provider_error"
	default:
		return "error"
	}
}
