// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the formpath MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Formpath Questionnaire Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: get_question ---
	s.AddTool(mcp.NewTool("get_question",
		mcp.WithDescription("Show a questionnaire question with its propositions and where each one leads."),
		mcp.WithString("question_id", mcp.Description("Question id (defaults to the root question).")),
	), h.handleGetQuestion)

	// --- 2. Tool: rank_answers ---
	s.AddTool(mcp.NewTool("rank_answers",
		mcp.WithDescription("Walk the questionnaire with the given answers and rank the candidate models. Nothing is stored."),
		mcp.WithString("answers", mcp.Description(`JSON object keyed by question id, e.g. {"1": {"choices": ["Classification"]}, "4": {"response": "tabular"}}. Choices are proposition ids or texts.`), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Limit the number of candidates returned.")),
	), h.handleRankAnswers)

	// --- 3. Tool: list_forms ---
	s.AddTool(mcp.NewTool("list_forms",
		mcp.WithDescription("List the forms stored for a user."),
		mcp.WithString("user", mcp.Description("User name."), mcp.Required()),
	), h.handleListForms)

	// --- 4. Tool: get_form ---
	s.AddTool(mcp.NewTool("get_form",
		mcp.WithDescription("Show the answers of a stored form with a fresh ranking."),
		mcp.WithString("user", mcp.Description("User name."), mcp.Required()),
		mcp.WithString("form", mcp.Description("Form name."), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Limit the number of candidates returned.")),
	), h.handleGetForm)

	// --- 5. Tool: compare_runs ---
	s.AddTool(mcp.NewTool("compare_runs",
		mcp.WithDescription("Normalize metrics across the runs of an experiment. Two metrics also yield the Pareto front."),
		mcp.WithString("experiment_id", mcp.Description("Experiment id in the tracking backend."), mcp.Required()),
		mcp.WithString("metrics", mcp.Description("Comma-separated metric names (e.g. 'Accuracy,Duration')."), mcp.Required()),
	), h.handleCompareRuns)

	return s
}

// StartMCPServer starts the formpath MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
