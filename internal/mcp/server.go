// Package mcp exposes the question pipeline over the Model Context
// Protocol so LLM hosts can call it as a set of tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/genegpt-qa-server/internal/domain"
	"github.com/genegpt-qa-server/internal/pipeline"
	"github.com/genegpt-qa-server/internal/session"
)

// Server wraps an MCP SDK server around the pipeline.
type Server struct {
	mcpServer *mcp.Server
	pipeline  *pipeline.Pipeline
	sessions  *session.Store
	log       *logrus.Logger
}

// AskInput is the payload of the ask_gene_question tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the gene or variant question to answer"`
	SessionID string `json:"session_id,omitempty" jsonschema:"conversation session identifier; minted when omitted"`
}

// AskOutput carries either a full answer or a clarification request,
// plus the session ID to reuse on follow-up calls.
type AskOutput struct {
	SessionID     string                       `json:"session_id"`
	Answer        *domain.AnswerRecord         `json:"answer,omitempty"`
	Clarification *domain.ClarificationRequest `json:"clarification,omitempty"`
}

// SessionInput identifies a conversation for the state tools.
type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"conversation session identifier"`
}

// StateOutput is the current clinical state of a conversation.
type StateOutput struct {
	SessionID     string               `json:"session_id"`
	ClinicalState domain.ClinicalState `json:"clinical_state"`
}

// ResetOutput acknowledges a session reset.
type ResetOutput struct {
	SessionID string `json:"session_id"`
	Reset     bool   `json:"reset"`
}

// NewServer builds the MCP server and registers the tools.
func NewServer(p *pipeline.Pipeline, sessions *session.Store, version string, log *logrus.Logger) *Server {
	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    "genegpt-qa-server",
			Version: version,
		}, nil),
		pipeline: p,
		sessions: sessions,
		log:      log,
	}

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "ask_gene_question",
		Description: "Answer a question about a human gene or variant using OMIM, NCBI Gene, ClinVar, PubMed, GeneReviews and gnomAD evidence. Pass the returned session_id on follow-up questions to keep conversational context.",
	}, s.handleAsk)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_clinical_state",
		Description: "Return the remembered conversational state (current gene, variant, topics) for a session.",
	}, s.handleGetState)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "reset_session",
		Description: "Forget the conversational state for a session.",
	}, s.handleReset)

	return s
}

// Run serves MCP over stdio until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("mcp server listening on stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) handleAsk(ctx context.Context, req *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, AskOutput, error) {
	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	outcome, err := s.pipeline.Ask(ctx, in.Question, sessionID)
	if err != nil {
		if _, ok := err.(*domain.ValidationError); ok {
			return toolError(err.Error()), AskOutput{}, nil
		}
		s.log.WithError(err).Error("pipeline failed")
		return nil, AskOutput{}, fmt.Errorf("failed to answer question: %w", err)
	}

	out := AskOutput{
		SessionID:     sessionID,
		Answer:        outcome.Answer,
		Clarification: outcome.Clarification,
	}
	return textResult(out), out, nil
}

func (s *Server) handleGetState(ctx context.Context, req *mcp.CallToolRequest, in SessionInput) (*mcp.CallToolResult, StateOutput, error) {
	if in.SessionID == "" {
		return toolError("session_id is required"), StateOutput{}, nil
	}

	out := StateOutput{
		SessionID:     in.SessionID,
		ClinicalState: *s.sessions.Get(ctx, in.SessionID),
	}
	return textResult(out), out, nil
}

func (s *Server) handleReset(ctx context.Context, req *mcp.CallToolRequest, in SessionInput) (*mcp.CallToolResult, ResetOutput, error) {
	if in.SessionID == "" {
		return toolError("session_id is required"), ResetOutput{}, nil
	}

	if err := s.sessions.Delete(ctx, in.SessionID); err != nil {
		s.log.WithError(err).WithField("session_id", in.SessionID).Error("failed to reset session")
		return nil, ResetOutput{}, fmt.Errorf("failed to reset session: %w", err)
	}

	out := ResetOutput{SessionID: in.SessionID, Reset: true}
	return textResult(out), out, nil
}

func textResult(v interface{}) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

func toolError(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
	}
}
