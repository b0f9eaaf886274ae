// Package mcp provides an MCP (Model Context Protocol) server that exposes
// drover project state as read-only MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/drover-cli/drover/internal/storage"
	"github.com/drover-cli/drover/pkg/models"
)

// Server wraps the state store and exposes it as MCP tools. All tools are
// read-only; task state is only ever mutated by the orchestration loop.
type Server struct {
	server *gomcp.Server
	store  storage.StateStore
}

// NewServer creates a new MCP server backed by the given state store.
func NewServer(store storage.StateStore, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{store: store}
	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "drover", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type projectStatusInput struct {
	Identity string `json:"identity" jsonschema:"required,the 16-character project identity hash"`
}

type projectStatusOutput struct {
	Identity       string  `json:"identity"`
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	TotalTasks     int     `json:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	Progress       float64 `json:"progress"`
	CurrentTask    string  `json:"current_task,omitempty"`
	Iterations     int     `json:"iterations"`
	UpdatedAt      string  `json:"updated_at"`
}

type listTasksInput struct {
	Identity string `json:"identity" jsonschema:"required,the 16-character project identity hash"`
	Status   string `json:"status,omitempty" jsonschema:"filter tasks by status (pending, in_progress, completed, blocked, failed, skipped)"`
}

type taskOutput struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Status       string   `json:"status"`
	Priority     int      `json:"priority"`
	Phase        string   `json:"phase,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Attempts     int      `json:"attempts,omitempty"`
	LastError    string   `json:"last_error,omitempty"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type listProjectsInput struct{}

type projectEntryOutput struct {
	Identity  string `json:"identity"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Progress  string `json:"progress"`
	UpdatedAt string `json:"updated_at"`
}

type listProjectsOutput struct {
	Projects []projectEntryOutput `json:"projects"`
	Count    int                  `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "project_status",
		Description: "Get a project's status summary by identity: progress, current task, iteration count.",
	}, s.handleProjectStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List a project's tasks with an optional status filter. Returns an array of task summaries.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_projects",
		Description: "List all known projects under the state root, most recently updated first.",
	}, s.handleListProjects)
}

// --- Tool handlers ---

func (s *Server) handleProjectStatus(_ context.Context, _ *gomcp.CallToolRequest, input projectStatusInput) (*gomcp.CallToolResult, projectStatusOutput, error) {
	if input.Identity == "" {
		return errorResult("identity is required"), projectStatusOutput{}, nil
	}

	project, err := s.store.Load(input.Identity)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errorResult(fmt.Sprintf("no project with identity %s", input.Identity)), projectStatusOutput{}, nil
		}
		return errorResult(fmt.Sprintf("loading project %s: %s", input.Identity, err)), projectStatusOutput{}, nil
	}

	summary := project.Summarize()
	out := projectStatusOutput{
		Identity:       input.Identity,
		Name:           summary.Name,
		Status:         string(summary.Status),
		TotalTasks:     summary.TotalTasks,
		CompletedTasks: summary.CompletedTasks,
		Progress:       summary.Progress,
		CurrentTask:    summary.CurrentTask,
		Iterations:     summary.Iterations,
		UpdatedAt:      summary.UpdatedAt.Format(time.RFC3339),
	}
	return nil, out, nil
}

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	if input.Identity == "" {
		return errorResult("identity is required"), listTasksOutput{}, nil
	}
	if input.Status != "" && !models.ValidTaskStatuses[models.TaskStatus(input.Status)] {
		return errorResult(fmt.Sprintf("invalid status %q: must be one of pending, in_progress, completed, blocked, failed, skipped", input.Status)), listTasksOutput{}, nil
	}

	project, err := s.store.Load(input.Identity)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errorResult(fmt.Sprintf("no project with identity %s", input.Identity)), listTasksOutput{}, nil
		}
		return errorResult(fmt.Sprintf("loading project %s: %s", input.Identity, err)), listTasksOutput{}, nil
	}

	out := listTasksOutput{Tasks: []taskOutput{}}
	for i := range project.Phases {
		phase := &project.Phases[i]
		for j := range phase.Tasks {
			t := &phase.Tasks[j]
			if input.Status != "" && string(t.Status) != input.Status {
				continue
			}
			out.Tasks = append(out.Tasks, taskOutput{
				ID:           t.ID,
				Name:         t.Name,
				Status:       string(t.Status),
				Priority:     t.Priority,
				Phase:        phase.Name,
				Dependencies: t.Dependencies,
				Attempts:     t.Attempts,
				LastError:    t.LastError,
			})
		}
	}
	out.Count = len(out.Tasks)
	return nil, out, nil
}

func (s *Server) handleListProjects(_ context.Context, _ *gomcp.CallToolRequest, _ listProjectsInput) (*gomcp.CallToolResult, listProjectsOutput, error) {
	entries, err := s.store.List()
	if err != nil {
		return errorResult(fmt.Sprintf("listing projects: %s", err)), listProjectsOutput{}, nil
	}

	out := listProjectsOutput{
		Projects: make([]projectEntryOutput, len(entries)),
		Count:    len(entries),
	}
	for i, e := range entries {
		out.Projects[i] = projectEntryOutput{
			Identity:  e.Identity,
			Name:      e.Summary.Name,
			Status:    string(e.Summary.Status),
			Progress:  fmt.Sprintf("%d/%d", e.Summary.CompletedTasks, e.Summary.TotalTasks),
			UpdatedAt: e.Summary.UpdatedAt.Format(time.RFC3339),
		}
	}
	return nil, out, nil
}

// --- Helpers ---

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
