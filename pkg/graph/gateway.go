// Package graph talks to a Graphiti knowledge graph service over MCP.
//
// The service exposes its operations as MCP tools on a streamable HTTP
// endpoint. The gateway owns the client session and funnels every call
// through a bridge worker, so the session is only ever touched from one
// goroutine.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/membench/membench/pkg/bridge"
)

// Tool names exposed by the Graphiti MCP server that the gateway calls
// directly.
const (
	ToolAddMemory        = "add_memory"
	ToolSearchNodes      = "search_nodes"
	ToolSearchFacts      = "search_memory_facts"
	ToolClearGraph       = "clear_graph"
	ToolDeleteEpisode    = "delete_episode"
	ToolDeleteEntityEdge = "delete_entity_edge"
)

// mutatingTools are excluded from the read-only tool surface. Retrieval
// paths must never be able to write to or destroy the graph.
var mutatingTools = map[string]struct{}{
	ToolAddMemory:        {},
	ToolClearGraph:       {},
	ToolDeleteEpisode:    {},
	ToolDeleteEntityEdge: {},
}

// DefaultEndpoint is the streamable HTTP endpoint of a locally running
// Graphiti MCP server.
const DefaultEndpoint = "http://localhost:8000/mcp"

// Session is the slice of the MCP client session the gateway needs.
// *mcp.ClientSession satisfies it.
type Session interface {
	ListTools(ctx context.Context, params *mcp.ListToolsParams) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
	Close() error
}

var _ Session = (*mcp.ClientSession)(nil)

// dialer opens a session; swapped out in tests.
type dialer func(ctx context.Context) (Session, error)

// Config holds gateway settings.
type Config struct {
	// Endpoint is the streamable HTTP URL of the MCP server. Defaults to
	// DefaultEndpoint.
	Endpoint string
}

// Gateway is a synchronous facade over the Graphiti MCP session. All methods
// are safe for concurrent use; calls are serialized on the bridge worker.
type Gateway struct {
	endpoint string
	dial     dialer
	bridge   *bridge.Bridge
	logger   *zap.Logger

	session Session
}

// New creates a gateway. Call Connect before using it.
func New(c Config, logger *zap.Logger) *Gateway {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	g := &Gateway{
		endpoint: endpoint,
		bridge:   bridge.New(logger),
		logger:   logger,
	}
	g.dial = g.dialMCP
	return g
}

// NewWithSession creates a gateway whose Connect yields the given session
// instead of dialing. Used by tests to substitute the remote service.
func NewWithSession(c Config, session Session, logger *zap.Logger) *Gateway {
	g := New(c, logger)
	g.dial = func(context.Context) (Session, error) { return session, nil }
	return g
}

func (g *Gateway) dialMCP(ctx context.Context) (Session, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: "membench", Version: "0.1.0"}, nil)
	return client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: g.endpoint}, nil)
}

// Connect establishes the MCP session. Blocks until the server handshake
// completes or ctx expires.
func (g *Gateway) Connect(ctx context.Context) error {
	return g.bridge.Do(ctx, func(ctx context.Context) error {
		if g.session != nil {
			return nil
		}
		session, err := g.dial(ctx)
		if err != nil {
			return fmt.Errorf("%w: connect %s: %w", ErrGraphService, g.endpoint, err)
		}
		g.session = session
		g.logger.Info("connected to graph service", zap.String("endpoint", g.endpoint))
		return nil
	})
}

// Tools lists the tools the server currently advertises. With readOnly set,
// tools that mutate the graph are filtered out. The list is fetched fresh on
// every call so a restarted server cannot leave a stale surface behind.
func (g *Gateway) Tools(ctx context.Context, readOnly bool) ([]*mcp.Tool, error) {
	var tools []*mcp.Tool
	err := g.bridge.Do(ctx, func(ctx context.Context) error {
		if g.session == nil {
			return ErrNotConnected
		}
		res, err := g.session.ListTools(ctx, &mcp.ListToolsParams{})
		if err != nil {
			return fmt.Errorf("%w: list tools: %w", ErrGraphService, err)
		}
		for _, t := range res.Tools {
			if readOnly {
				if _, mutating := mutatingTools[t.Name]; mutating {
					continue
				}
			}
			tools = append(tools, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tools, nil
}

// CallTool invokes a named tool and returns the concatenated text content of
// the result. A tool-level error result is surfaced as ErrGraphService.
func (g *Gateway) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	var out string
	err := g.bridge.Do(ctx, func(ctx context.Context) error {
		if g.session == nil {
			return ErrNotConnected
		}
		res, err := g.session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
		if err != nil {
			return fmt.Errorf("%w: call %s: %w", ErrGraphService, name, err)
		}
		text := contentText(res.Content)
		if res.IsError {
			return fmt.Errorf("%w: %s: %s", ErrGraphService, name, text)
		}
		out = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// AddEpisode stores one episode in the graph under the given group. With
// waitForProcessing the server ingests synchronously before returning.
func (g *Gateway) AddEpisode(ctx context.Context, groupID, name, body, sourceDescription string, waitForProcessing bool) error {
	args := map[string]any{
		"group_id":           groupID,
		"name":               name,
		"episode_body":       body,
		"source":             "message",
		"source_description": sourceDescription,
	}
	if waitForProcessing {
		args["sync"] = true
	}
	_, err := g.CallTool(ctx, ToolAddMemory, args)
	return err
}

// SearchNodes finds entity summaries relevant to the query within a group.
func (g *Gateway) SearchNodes(ctx context.Context, groupID, query string, limit int) (string, error) {
	return g.CallTool(ctx, ToolSearchNodes, map[string]any{
		"group_ids": []string{groupID},
		"query":     query,
		"max_nodes": limit,
	})
}

// SearchFacts finds relationship facts relevant to the query within a group.
func (g *Gateway) SearchFacts(ctx context.Context, groupID, query string, limit int) (string, error) {
	return g.CallTool(ctx, ToolSearchFacts, map[string]any{
		"group_ids": []string{groupID},
		"query":     query,
		"max_facts": limit,
	})
}

// Reset clears all graph data for the given groups. Destructive.
func (g *Gateway) Reset(ctx context.Context, groupIDs []string) error {
	_, err := g.CallTool(ctx, ToolClearGraph, map[string]any{
		"group_ids": groupIDs,
	})
	return err
}

// Close tears down the session and stops the bridge worker.
func (g *Gateway) Close() error {
	var closeErr error
	err := g.bridge.Do(context.Background(), func(context.Context) error {
		if g.session != nil {
			closeErr = g.session.Close()
			g.session = nil
		}
		return nil
	})
	g.bridge.Close()
	if err != nil && err != bridge.ErrUnavailable {
		return err
	}
	return closeErr
}

// contentText flattens tool result content into plain text.
func contentText(blocks []mcp.Content) string {
	var sb strings.Builder
	for _, c := range blocks {
		switch v := c.(type) {
		case *mcp.TextContent:
			sb.WriteString(v.Text)
		default:
			raw, err := json.Marshal(v)
			if err == nil {
				sb.Write(raw)
			}
		}
	}
	return sb.String()
}
