package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/formpath/core"
	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/internal/prompt"
	"github.com/huangsam/formpath/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// rankedAnswers is the reply of rank_answers.
type rankedAnswers struct {
	Steps   []schema.AnswerStep      `json:"steps"`
	Ranking []schema.RankedCandidate `json:"ranking"`
}

func (h *toolHandler) withLimit(request mcp.CallToolRequest) *contract.Config {
	cfg := h.baseCfg.Clone()
	if l := request.GetInt("limit", 0); l > 0 && l <= contract.MaxResultLimit {
		cfg.ResultLimit = l
	}
	return cfg
}

func (h *toolHandler) handleGetQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := core.QuestionByID(ctx, h.baseCfg, h.mgr, request.GetString("question_id", ""))
	if err != nil {
		return toolError("question lookup failed", err), nil
	}
	return toolJSON(q)
}

func (h *toolHandler) handleRankAnswers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := request.GetString("answers", "")
	if raw == "" {
		return mcp.NewToolResultError("invalid answers: answers is required"), nil
	}
	script := &prompt.Script{}
	if err := json.Unmarshal([]byte(raw), &script.Answers); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid answers: %v", err)), nil
	}

	history, ranked, err := core.RankScripted(ctx, h.withLimit(request), h.mgr, script)
	if err != nil {
		return toolError("ranking failed", err), nil
	}
	return toolJSON(rankedAnswers{Steps: history.Steps, Ranking: ranked})
}

func (h *toolHandler) handleListForms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	forms, err := core.ListForms(ctx, h.baseCfg, h.mgr, request.GetString("user", ""))
	if err != nil {
		return toolError("listing forms failed", err), nil
	}
	return toolJSON(forms)
}

func (h *toolHandler) handleGetForm(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user := request.GetString("user", "")
	form := request.GetString("form", "")
	detail, err := core.LoadFormDetail(ctx, h.withLimit(request), h.mgr, user, form)
	if err != nil {
		return toolError("form lookup failed", err), nil
	}
	return toolJSON(detail)
}

func (h *toolHandler) handleCompareRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tracker := h.mgr.GetTracker()
	if tracker == nil {
		return mcp.NewToolResultError("comparison failed: tracker is not initialized"), nil
	}
	metrics := contract.ParseMetricList(request.GetString("metrics", ""))
	result, err := core.CompareRuns(ctx, tracker, request.GetString("experiment_id", ""), metrics, h.baseCfg.Directions)
	if err != nil {
		return toolError("comparison failed", err), nil
	}
	return toolJSON(result)
}

// toolError reports a failure to the agent with its kind, so it can tell bad input
// from an unreachable backend.
func toolError(what string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s (%s): %v", what, contract.ErrorKind(err), err))
}

func toolJSON(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
