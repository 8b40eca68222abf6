// Package longmemeval runs the LongMemEval benchmark against a memory agent:
// each question carries a haystack of dated chat sessions, and the agent must
// answer from what it can recall of them.
package longmemeval

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// SessionTurn is a single utterance inside a haystack session.
type SessionTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Question is one benchmark item: the question plus the dated sessions the
// answer is buried in.
type Question struct {
	QuestionID       string          `json:"question_id"`
	QuestionType     string          `json:"question_type,omitempty"`
	Question         string          `json:"question"`
	Answer           string          `json:"answer,omitempty"`
	HaystackDates    []string        `json:"haystack_dates"`
	HaystackSessions [][]SessionTurn `json:"haystack_sessions"`
}

// LoadDataset reads a LongMemEval dataset file (a JSON array of questions).
func LoadDataset(path string) ([]Question, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var questions []Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return questions, nil
}

// LoadIDFile reads a question id file, one id per line. Blank lines are
// skipped.
func LoadIDFile(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open id file: %w", err)
	}
	defer f.Close()

	ids := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		ids[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read id file: %w", err)
	}
	return ids, nil
}

// FilterQuestions keeps only the questions whose id is in the set, preserving
// dataset order. An empty set keeps every question.
func FilterQuestions(questions []Question, ids map[string]struct{}) []Question {
	if len(ids) == 0 {
		return questions
	}
	kept := make([]Question, 0, len(ids))
	for _, q := range questions {
		if _, ok := ids[q.QuestionID]; ok {
			kept = append(kept, q)
		}
	}
	return kept
}
