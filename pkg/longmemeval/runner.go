package longmemeval

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/membench/membench/pkg/chat"
)

// TurnRunner answers a question given the full replayed history.
// *memagent.Agent satisfies it.
type TurnRunner interface {
	RunMessages(ctx context.Context, messages []chat.Message, threadID string) (string, error)
}

// Prediction is one output line: the agent's hypothesis for a question.
type Prediction struct {
	QuestionID string `json:"question_id"`
	Hypothesis string `json:"hypothesis"`
}

// Runner generates predictions for a dataset, appending JSONL to the output
// path. Runs are resumable: question ids already present in the output are
// skipped.
type Runner struct {
	agent  TurnRunner
	output string
	logger *zap.Logger
}

func NewRunner(agent TurnRunner, outputPath string, logger *zap.Logger) *Runner {
	return &Runner{agent: agent, output: outputPath, logger: logger}
}

// Run processes every unanswered question in the dataset. Each prediction is
// flushed to disk as soon as it is produced, so an interrupted run loses at
// most the in-flight question.
func (r *Runner) Run(ctx context.Context, questions []Question) error {
	runID := uuid.NewString()

	processed, err := ProcessedIDs(r.output)
	if err != nil {
		return err
	}
	r.logger.Info("starting evaluation run",
		zap.String("run_id", runID),
		zap.Int("total", len(questions)),
		zap.Int("already_processed", len(processed)))

	out, err := os.OpenFile(r.output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open predictions file: %w", err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	for i, q := range questions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, done := processed[q.QuestionID]; done {
			continue
		}

		r.logger.Info("processing question",
			zap.String("run_id", runID),
			zap.String("question_id", q.QuestionID),
			zap.Int("index", i+1),
			zap.Int("total", len(questions)))

		// One thread per question keeps memories isolated between items.
		hypothesis, err := r.agent.RunMessages(ctx, BuildMessages(q, r.logger), q.QuestionID)
		if err != nil {
			return fmt.Errorf("question %s: %w", q.QuestionID, err)
		}

		if err := enc.Encode(Prediction{QuestionID: q.QuestionID, Hypothesis: hypothesis}); err != nil {
			return fmt.Errorf("write prediction %s: %w", q.QuestionID, err)
		}
		if err := out.Sync(); err != nil {
			return fmt.Errorf("flush predictions: %w", err)
		}
	}

	r.logger.Info("evaluation run complete", zap.String("run_id", runID))
	return nil
}

// BuildMessages replays a question's haystack as a message history: each
// session gets a system preamble with its date, followed by the session's
// turns, and the question itself comes last as the user message.
func BuildMessages(q Question, logger *zap.Logger) []chat.Message {
	var messages []chat.Message
	for i, session := range q.HaystackSessions {
		if i < len(q.HaystackDates) {
			messages = append(messages,
				chat.NewTextMessage(chat.RoleSystem, "Date: "+q.HaystackDates[i]))
		}
		for _, turn := range session {
			role, ok := mapRole(turn.Role)
			if !ok {
				logger.Warn("skipping turn with unknown role",
					zap.String("question_id", q.QuestionID),
					zap.String("role", turn.Role))
				continue
			}
			messages = append(messages, chat.NewTextMessage(role, turn.Content))
		}
	}
	return append(messages, chat.NewTextMessage(chat.RoleHuman, q.Question))
}

func mapRole(role string) (chat.Role, bool) {
	switch role {
	case "user", "human":
		return chat.RoleHuman, true
	case "assistant", "ai":
		return chat.RoleAI, true
	case "system":
		return chat.RoleSystem, true
	default:
		return "", false
	}
}

// ProcessedIDs reads question ids from an existing predictions file.
// A missing file means a fresh run. Malformed lines are skipped.
func ProcessedIDs(path string) (map[string]struct{}, error) {
	processed := make(map[string]struct{})

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return processed, nil
		}
		return nil, fmt.Errorf("open predictions file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var p Prediction
		if err := json.Unmarshal(line, &p); err != nil {
			continue
		}
		processed[p.QuestionID] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read predictions file: %w", err)
	}
	return processed, nil
}
