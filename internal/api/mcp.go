package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/intervue/internal/coordinator"
	"github.com/kalambet/intervue/internal/interview"
	"github.com/kalambet/intervue/internal/resume"
)

const recentEvaluations = 10

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Interviews Interviews
	Reports    Reports  // optional; archive resources report an error without it
	Metrics    Counters // optional
}

// NewMCPServer creates an MCP server with the interview tools and resources
// registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"intervue",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("intervue runs mock job interviews. Start an interview, relay each question to the candidate, submit their answers, then generate the evaluation."),
		server.WithRecovery(),
	)

	roles := make([]string, 0, len(interview.AllRoles()))
	for _, r := range interview.AllRoles() {
		roles = append(roles, string(r))
	}
	levels := make([]string, 0, len(interview.AllSeniorities()))
	for _, l := range interview.AllSeniorities() {
		levels = append(levels, string(l))
	}

	s.AddTool(
		mcp.NewTool("start_interview",
			mcp.WithDescription("Start a mock interview and return the opening question."),
			mcp.WithString("role", mcp.Description("Role being interviewed for"), mcp.Required(), mcp.Enum(roles...)),
			mcp.WithString("seniority", mcp.Description("Seniority level"), mcp.Required(), mcp.Enum(levels...)),
			mcp.WithString("interaction_mode", mcp.Description("text or voice (default text)"), mcp.Enum("text", "voice")),
			mcp.WithString("resume", mcp.Description("Optional résumé text used as background")),
		),
		mcpStartInterview(deps),
	)

	s.AddTool(
		mcp.NewTool("submit_answer",
			mcp.WithDescription("Submit the candidate's answer and return the interviewer's next message."),
			mcp.WithString("session_id", mcp.Description("Session id from start_interview"), mcp.Required()),
			mcp.WithString("answer", mcp.Description("The candidate's answer"), mcp.Required()),
		),
		mcpSubmitAnswer(deps),
	)

	s.AddTool(
		mcp.NewTool("end_interview",
			mcp.WithDescription("End the interview early. Use generate_evaluation afterwards."),
			mcp.WithString("session_id", mcp.Description("Session id"), mcp.Required()),
		),
		mcpEndInterview(deps),
	)

	s.AddTool(
		mcp.NewTool("generate_evaluation",
			mcp.WithDescription("Generate the final evaluation. The session is closed afterwards."),
			mcp.WithString("session_id", mcp.Description("Session id"), mcp.Required()),
		),
		mcpGenerateEvaluation(deps),
	)

	s.AddTool(
		mcp.NewTool("get_session",
			mcp.WithDescription("Return the session's phase, question count, analytics and transcript."),
			mcp.WithString("session_id", mcp.Description("Session id"), mcp.Required()),
		),
		mcpGetSession(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"interview://evaluations/recent",
			"Recent Evaluations",
			mcp.WithResourceDescription("The 10 most recent archived evaluations"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"interview://stats",
			"Interview Statistics",
			mcp.WithResourceDescription("Runtime counters and archive statistics"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceStats(deps),
	)

	return s
}

func mcpStartInterview(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		role, err := req.RequireString("role")
		if err != nil {
			return mcpError("role is required"), nil
		}
		seniority, err := req.RequireString("seniority")
		if err != nil {
			return mcpError("seniority is required"), nil
		}

		res, err := deps.Interviews.StartSession(ctx, coordinator.StartRequest{
			Role:      interview.Role(role),
			Seniority: interview.Seniority(seniority),
			Mode:      interview.InteractionMode(req.GetString("interaction_mode", string(interview.ModeText))),
			Resume:    resume.Clean(req.GetString("resume", "")),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to start interview: %v", err)), nil
		}
		return mcpJSON(res)
	}
}

func mcpSubmitAnswer(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		answer, err := req.RequireString("answer")
		if err != nil {
			return mcpError("answer is required"), nil
		}

		res, err := deps.Interviews.SubmitAnswer(ctx, id, answer)
		if err != nil {
			return mcpError(toolMessage(err)), nil
		}
		return mcpJSON(res)
	}
}

func mcpEndInterview(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		st, err := deps.Interviews.EndSession(ctx, id)
		if err != nil {
			return mcpError(toolMessage(err)), nil
		}
		return mcpText(fmt.Sprintf("Interview %s ended after %d questions.", st.SessionID, st.QuestionCount)), nil
	}
}

func mcpGenerateEvaluation(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		report, err := deps.Interviews.GenerateEvaluation(ctx, id)
		if err != nil {
			return mcpError(toolMessage(err)), nil
		}
		return mcpJSON(report)
	}
}

func mcpGetSession(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		st, err := deps.Interviews.Session(ctx, id)
		if err != nil {
			return mcpError(toolMessage(err)), nil
		}
		return mcpJSON(st)
	}
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		if deps.Reports == nil {
			return nil, errors.New("evaluation archive is disabled")
		}
		list, err := deps.Reports.List(ctx, recentEvaluations)
		if err != nil {
			return nil, fmt.Errorf("failed to list evaluations: %w", err)
		}
		return jsonResource(req.Params.URI, list)
	}
}

func mcpResourceStats(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		var resp StatsResponse
		if deps.Metrics != nil {
			snap := deps.Metrics.Snapshot()
			resp.Runtime = &snap
		}
		if deps.Reports != nil {
			st, err := deps.Reports.Stats(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to read archive stats: %w", err)
			}
			resp.Archive = &st
		}
		return jsonResource(req.Params.URI, resp)
	}
}

// toolMessage turns caller errors into guidance the model can act on.
func toolMessage(err error) string {
	switch {
	case errors.Is(err, interview.ErrSessionNotFound):
		return "session not found or expired; start a new interview"
	case errors.Is(err, interview.ErrNoResponses):
		return "the candidate has not answered any question yet; submit at least one answer first"
	case errors.Is(err, interview.ErrInvariantViolation):
		return "the interview has ended; call generate_evaluation"
	default:
		return err.Error()
	}
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
