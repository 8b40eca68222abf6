// Package middleware implements the memory protocol around a model turn:
// augmentation middleware commits finished turns to long-term memory, and
// retrieval middleware injects relevant past context before the model runs.
package middleware

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/membench/membench/pkg/store"
)

// SurfacedResults is how many reranked conversations make it into the
// context text.
const SurfacedResults = 3

const contextInstruction = `IMPORTANT:
Only use information from <retrieved_context> if it is clearly relevant to the user's query.
If it is not relevant, IGNORE it entirely.`

// ContextBuilder renders retrieved memory into the context block appended to
// the conversation. Shared by every retrieval middleware so vector, graph
// and hybrid context all read the same way to the model.
type ContextBuilder struct {
	logger *zap.Logger
}

func NewContextBuilder(logger *zap.Logger) *ContextBuilder {
	return &ContextBuilder{logger: logger}
}

// VectorSection renders reranked conversation turns. Only the first
// SurfacedResults entries are included. Returns "" when there is nothing to
// surface.
func (b *ContextBuilder) VectorSection(results []store.SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("--- Similar Past Conversations ---\n")
	for i, r := range results {
		if i >= SurfacedResults {
			break
		}
		timestamp := r.Metadata[store.MetaTimestamp]
		if timestamp == "" {
			timestamp = "unknown"
		}
		fmt.Fprintf(&sb, "\n[Conversation %d], date: %s:\n%s\n", i+1, timestamp, r.Content)
	}
	return sb.String()
}

// GraphSection renders knowledge graph search output. Returns "" when both
// node and fact results are empty.
func (b *ContextBuilder) GraphSection(nodes, facts string) string {
	nodes = strings.TrimSpace(nodes)
	facts = strings.TrimSpace(facts)
	if nodes == "" && facts == "" {
		return ""
	}

	var sb strings.Builder
	if nodes != "" {
		sb.WriteString("Retrieved nodes:\n")
		sb.WriteString(nodes)
		sb.WriteString("\n")
	}
	if facts != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Retrieved memory facts:\n")
		sb.WriteString(facts)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Wrap joins non-empty sections with a blank line and wraps them in the
// retrieved_context delimiters plus the ignore-if-irrelevant instruction.
// Returns "" when every section is empty, so callers inject nothing rather
// than an empty shell.
func (b *ContextBuilder) Wrap(sections ...string) string {
	var kept []string
	for _, s := range sections {
		if strings.TrimSpace(s) != "" {
			kept = append(kept, strings.TrimRight(s, "\n"))
		}
	}
	if len(kept) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("<retrieved_context>\n")
	sb.WriteString(strings.Join(kept, "\n\n"))
	sb.WriteString("\n</retrieved_context>\n\n")
	sb.WriteString(contextInstruction)
	return sb.String()
}
