package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/callscribe/internal/calls"
	"github.com/fyrsmithlabs/callscribe/internal/logging"
	"github.com/fyrsmithlabs/callscribe/internal/prompt"
)

const rootMessage = "Callscribe AI Backend API"

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, MessageResponse{Message: rootMessage})
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: s.config.Version})
}

func (s *Server) handleTest(c echo.Context) error {
	return c.JSON(http.StatusOK, TestResponse{
		Success:               true,
		Message:               "Backend connection successful",
		ElevenLabsConfigured:  s.calls.ProviderConfigured(),
		PhoneNumberConfigured: s.calls.PhoneNumberConfigured(),
	})
}

func (s *Server) handleTestAgentCreation(c echo.Context) error {
	agent, err := s.calls.TestAgentCreation(c.Request().Context())
	if err != nil {
		return s.fail(c, http.StatusInternalServerError, "Failed to create test agent", err)
	}
	return c.JSON(http.StatusOK, TestAgentResponse{
		Success:               true,
		Message:               "Test agent created successfully",
		AgentID:               agent.ID,
		ElevenLabsConfigured:  s.calls.ProviderConfigured(),
		PhoneNumberConfigured: s.calls.PhoneNumberConfigured(),
	})
}

func (s *Server) handleTemplates(c echo.Context) error {
	templates := map[string]prompt.Template{}
	if catalog := s.calls.Templates(); catalog != nil {
		templates = catalog.All()
	}
	return c.JSON(http.StatusOK, TemplatesResponse{Success: true, Templates: templates})
}

func (s *Server) handleMakeCall(c echo.Context) error {
	var req calls.CallRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid make-call request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, failure{Message: "Invalid request body"})
	}
	ctx := c.Request().Context()

	call, err := s.calls.MakeCall(ctx, req)
	switch {
	case errors.Is(err, calls.ErrPhoneRequired):
		return c.JSON(http.StatusBadRequest, failure{Message: "Phone number is required"})
	case errors.Is(err, prompt.ErrTemplateNotFound):
		return c.JSON(http.StatusBadRequest, failure{Message: "Unknown agent template", Error: err.Error()})
	case err != nil:
		return s.fail(c, http.StatusInternalServerError, "Failed to initiate call", err)
	}

	resp := MakeCallResponse{
		Success:     true,
		Message:     "Call initiated successfully",
		BatchCallID: call.BatchCallID,
		AgentID:     call.AgentID,
		AgentConfig: AgentSummary{
			Name:           call.AgentName,
			Purpose:        call.CallPurpose,
			QuestionsCount: len(call.Questions),
			FirstMessage:   call.FirstMessage,
			VoiceID:        call.VoiceID,
		},
	}
	if s.followUp != nil {
		runID, err := s.followUp.Start(ctx, call.BatchCallID)
		if err != nil {
			s.logger.Warn("failed to schedule call follow-up",
				zap.String("batch_call_id", call.BatchCallID),
				zap.Error(err),
			)
		}
		resp.FollowUpRunID = runID
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCallStatus(c echo.Context) error {
	id := c.Param("id")
	report, err := s.calls.Status(logging.WithCallID(c.Request().Context(), id), id)
	switch {
	case isMissing(err, calls.ErrCallNotFound):
		return c.JSON(http.StatusNotFound, failure{Message: "Call not found"})
	case err != nil:
		return s.fail(c, http.StatusInternalServerError, "Failed to get call status", err)
	}
	return c.JSON(http.StatusOK, CallStatusResponse{Success: true, StatusReport: report})
}

func (s *Server) handleProcessConversation(c echo.Context) error {
	id := c.Param("id")
	result, err := s.calls.ProcessConversation(logging.WithCallID(c.Request().Context(), id), id)

	var notFound *calls.ConversationNotFoundError
	switch {
	case isMissing(err, calls.ErrCallNotFound):
		return c.JSON(http.StatusNotFound, failure{Message: "Call not found in active calls"})
	case errors.As(err, &notFound):
		return c.JSON(http.StatusNotFound, failure{Message: notFound.Error(), DebugInfo: notFound.DebugInfo()})
	case err != nil:
		return s.fail(c, http.StatusInternalServerError, "Failed to process conversation", err)
	}
	return c.JSON(http.StatusOK, ProcessResponse{
		Success: true,
		Message: "Conversation processed successfully",
		Results: result,
	})
}

func (s *Server) handleDebugConversations(c echo.Context) error {
	convs, err := s.calls.DebugConversations(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, failure{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, DebugResponse{
		Success:   true,
		DebugInfo: DebugInfo{TotalConversations: len(convs), Conversations: convs},
	})
}

func (s *Server) handleCallResults(c echo.Context) error {
	result, err := s.calls.Results(c.Request().Context(), c.Param("id"))
	switch {
	case isMissing(err, calls.ErrResultNotFound):
		return c.JSON(http.StatusNotFound, failure{Message: "No results found for this call"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, failure{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, ResultsResponse{Success: true, Results: result})
}

func (s *Server) handleActiveCalls(c echo.Context) error {
	snap, err := s.calls.ActiveCalls(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, failure{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, ActiveCallsResponse{Success: true, Snapshot: snap})
}

func (s *Server) handleExtract(c echo.Context) error {
	var req ExtractRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, failure{Message: "Invalid request body"})
	}
	questions := req.Questions
	if questions == nil {
		questions = []string{}
	}
	info := s.extractor.Extract(c.Request().Context(), req.Transcript, questions)
	return c.JSON(http.StatusOK, ExtractResponse{
		Success:       true,
		Transcript:    req.Transcript.Normalize(),
		ExtractedInfo: info,
	})
}

// fail writes a 5xx with the step message and the underlying cause.
func (s *Server) fail(c echo.Context, code int, message string, err error) error {
	cause := err
	var step *calls.StepError
	if errors.As(err, &step) {
		message = step.Message
		if step.Err != nil {
			cause = step.Err
		}
	}
	s.logger.Error(message, zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(code, failure{Message: message, Error: cause.Error()})
}

// isMissing reports whether err is target or an invalid call ID, which can
// never name a stored call.
func isMissing(err, target error) bool {
	return errors.Is(err, target) || errors.Is(err, calls.ErrInvalidID)
}
