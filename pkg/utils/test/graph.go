package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GraphCall records one tool invocation against the fake graph service.
type GraphCall struct {
	Name string
	Args map[string]any
}

// FakeGraphSession stands in for the MCP session of a knowledge graph
// service. Tool calls are recorded and answered from canned responses.
type FakeGraphSession struct {
	mu sync.Mutex

	// ToolNames is what ListTools advertises.
	ToolNames []string

	// Responses maps tool names to the text returned by CallTool.
	Responses map[string]string

	// FailTool makes calls to that tool return a tool-level error result.
	FailTool string

	// Calls accumulates every CallTool invocation.
	Calls []GraphCall

	// Closed reports whether Close was called.
	Closed bool
}

// GraphitiToolNames is the full tool surface of a Graphiti service.
var GraphitiToolNames = []string{
	"add_memory",
	"search_nodes",
	"search_memory_facts",
	"get_episodes",
	"get_entity_edge",
	"get_status",
	"delete_episode",
	"delete_entity_edge",
	"clear_graph",
}

func NewFakeGraphSession() *FakeGraphSession {
	return &FakeGraphSession{
		ToolNames: append([]string(nil), GraphitiToolNames...),
		Responses: make(map[string]string),
	}
}

func (f *FakeGraphSession) ListTools(_ context.Context, _ *mcp.ListToolsParams) (*mcp.ListToolsResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	res := &mcp.ListToolsResult{}
	for _, name := range f.ToolNames {
		res.Tools = append(res.Tools, &mcp.Tool{Name: name})
	}
	return res, nil
}

func (f *FakeGraphSession) CallTool(_ context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	args, _ := params.Arguments.(map[string]any)
	f.Calls = append(f.Calls, GraphCall{Name: params.Name, Args: args})

	if f.FailTool == params.Name {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("tool %s failed", params.Name)}},
		}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: f.Responses[params.Name]}},
	}, nil
}

func (f *FakeGraphSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// CallsTo returns the recorded calls for one tool.
func (f *FakeGraphSession) CallsTo(name string) []GraphCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	var calls []GraphCall
	for _, c := range f.Calls {
		if c.Name == name {
			calls = append(calls, c)
		}
	}
	return calls
}
