// Package mcpadapter exposes the question answering pipeline as an MCP tool over stdio.
package mcpadapter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/ports"
)

const (
	Version  = "0.1.0"
	ToolName = "ask_medical"
)

type Server struct {
	answerer ports.QuestionAnswerer
	mcp      *server.MCPServer
}

func NewServer(answerer ports.QuestionAnswerer) *Server {
	s := &Server{
		answerer: answerer,
		mcp:      server.NewMCPServer("medical-chatbot", Version, server.WithToolCapabilities(false)),
	}

	tool := mcp.NewTool(ToolName,
		mcp.WithDescription("Answer a medical question from the indexed medical reference. Answers are at most three sentences and say so when the reference has no answer."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The medical question to answer"),
		),
	)
	s.mcp.AddTool(tool, s.handleAsk)
	return s
}

// Serve speaks MCP over in/out until ctx is cancelled or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("question is required"), nil
	}

	answer, err := s.answerer.Answer(ctx, question)
	if err != nil {
		slog.Error("mcp_ask_failed", "error", err)
		return mcp.NewToolResultError(toolErrorMessage(err)), nil
	}
	return mcp.NewToolResultText(formatAnswer(answer)), nil
}

func formatAnswer(answer *domain.Answer) string {
	if len(answer.Sources) == 0 {
		return answer.Text
	}
	var b strings.Builder
	b.WriteString(answer.Text)
	b.WriteString("\n\nSources:")
	for i, src := range answer.Sources {
		label := src.Metadata.Source
		if label == "" {
			label = src.Metadata.Region
		}
		if label == "" {
			label = src.ID
		}
		fmt.Fprintf(&b, "\n[%d] %s (score %.3f)", i+1, label, src.Score)
	}
	return b.String()
}

func toolErrorMessage(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "question is required"
	case domain.IsKind(err, domain.ErrTemporary),
		domain.IsKind(err, domain.ErrEmbedding),
		domain.IsKind(err, domain.ErrGeneration):
		return "unable to answer right now, please try again later"
	default:
		return "unable to answer"
	}
}
