package longmemeval

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/membench/membench/pkg/chat"
	"github.com/membench/membench/pkg/logger"
)

// recordingRunner echoes the question id and counts invocations.
type recordingRunner struct {
	threads []string
}

func (r *recordingRunner) RunMessages(_ context.Context, _ []chat.Message, threadID string) (string, error) {
	r.threads = append(r.threads, threadID)
	return "answer to " + threadID, nil
}

func sampleQuestion(id string) Question {
	return Question{
		QuestionID:    id,
		Question:      "what did I plant?",
		HaystackDates: []string{"2023/05/20 (Sat) 02:21"},
		HaystackSessions: [][]SessionTurn{
			{
				{Role: "user", Content: "I planted tomatoes"},
				{Role: "assistant", Content: "nice"},
			},
		},
	}
}

var _ = Describe("BuildMessages", func() {
	It("prefixes each session with its date and ends with the question", func() {
		q := Question{
			QuestionID:    "q1",
			Question:      "what did I plant?",
			HaystackDates: []string{"2023/05/20 (Sat) 02:21", "2023/06/01 (Thu) 11:02"},
			HaystackSessions: [][]SessionTurn{
				{
					{Role: "user", Content: "I planted tomatoes"},
					{Role: "assistant", Content: "nice"},
				},
				{
					{Role: "user", Content: "it rained today"},
				},
			},
		}

		messages := BuildMessages(q, logger.Nop())
		Expect(messages).To(HaveLen(6))

		Expect(messages[0].Role).To(Equal(chat.RoleSystem))
		Expect(messages[0].Text()).To(Equal("Date: 2023/05/20 (Sat) 02:21"))
		Expect(messages[1].Role).To(Equal(chat.RoleHuman))
		Expect(messages[2].Role).To(Equal(chat.RoleAI))
		Expect(messages[3].Text()).To(Equal("Date: 2023/06/01 (Thu) 11:02"))

		last := messages[len(messages)-1]
		Expect(last.Role).To(Equal(chat.RoleHuman))
		Expect(last.Text()).To(Equal("what did I plant?"))
	})

	It("tolerates more sessions than dates", func() {
		q := sampleQuestion("q1")
		q.HaystackSessions = append(q.HaystackSessions, []SessionTurn{
			{Role: "user", Content: "undated session"},
		})

		messages := BuildMessages(q, logger.Nop())
		// One date preamble, three turns, the question.
		Expect(messages).To(HaveLen(5))
	})

	It("skips turns with unknown roles", func() {
		q := sampleQuestion("q1")
		q.HaystackSessions[0] = append(q.HaystackSessions[0], SessionTurn{Role: "tool", Content: "ignored"})

		messages := BuildMessages(q, logger.Nop())
		for _, m := range messages {
			Expect(m.Text()).NotTo(Equal("ignored"))
		}
	})
})

var _ = Describe("Runner", func() {
	var (
		ctx    context.Context
		output string
	)

	BeforeEach(func() {
		ctx = context.Background()
		output = filepath.Join(GinkgoT().TempDir(), "predictions.jsonl")
	})

	readPredictions := func() []Prediction {
		f, err := os.Open(output)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		var preds []Prediction
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var p Prediction
			Expect(json.Unmarshal(scanner.Bytes(), &p)).To(Succeed())
			preds = append(preds, p)
		}
		Expect(scanner.Err()).NotTo(HaveOccurred())
		return preds
	}

	It("writes one JSONL prediction per question", func() {
		agent := &recordingRunner{}
		runner := NewRunner(agent, output, logger.Nop())

		questions := []Question{sampleQuestion("q1"), sampleQuestion("q2")}
		Expect(runner.Run(ctx, questions)).To(Succeed())

		preds := readPredictions()
		Expect(preds).To(HaveLen(2))
		Expect(preds[0]).To(Equal(Prediction{QuestionID: "q1", Hypothesis: "answer to q1"}))
		Expect(preds[1]).To(Equal(Prediction{QuestionID: "q2", Hypothesis: "answer to q2"}))
		Expect(agent.threads).To(Equal([]string{"q1", "q2"}))
	})

	It("resumes by skipping questions already in the output", func() {
		existing := fmt.Sprintf("%s\n", `{"question_id":"q1","hypothesis":"earlier answer"}`)
		Expect(os.WriteFile(output, []byte(existing), 0o644)).To(Succeed())

		agent := &recordingRunner{}
		runner := NewRunner(agent, output, logger.Nop())

		questions := []Question{sampleQuestion("q1"), sampleQuestion("q2")}
		Expect(runner.Run(ctx, questions)).To(Succeed())

		Expect(agent.threads).To(Equal([]string{"q2"}))

		preds := readPredictions()
		Expect(preds).To(HaveLen(2))
		Expect(preds[0].Hypothesis).To(Equal("earlier answer"))
	})

	It("stops when the context is canceled", func() {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		runner := NewRunner(&recordingRunner{}, output, logger.Nop())
		Expect(runner.Run(canceled, []Question{sampleQuestion("q1")})).To(MatchError(context.Canceled))
	})
})

var _ = Describe("ProcessedIDs", func() {
	It("returns an empty set for a missing file", func() {
		processed, err := ProcessedIDs(filepath.Join(GinkgoT().TempDir(), "nope.jsonl"))
		Expect(err).NotTo(HaveOccurred())
		Expect(processed).To(BeEmpty())
	})

	It("skips blank and malformed lines", func() {
		path := filepath.Join(GinkgoT().TempDir(), "predictions.jsonl")
		content := `{"question_id":"q1","hypothesis":"a"}

not json at all
{"question_id":"q2","hypothesis":"b"}
`
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())

		processed, err := ProcessedIDs(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(processed).To(HaveKey("q1"))
		Expect(processed).To(HaveKey("q2"))
		Expect(processed).To(HaveLen(2))
	})
})

var _ = Describe("LoadDataset", func() {
	It("parses a JSON array of questions", func() {
		path := filepath.Join(GinkgoT().TempDir(), "dataset.json")
		content := `[{"question_id":"q1","question":"what did I plant?","haystack_dates":["2023/05/20 (Sat) 02:21"],"haystack_sessions":[[{"role":"user","content":"I planted tomatoes"}]]}]`
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())

		questions, err := LoadDataset(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(questions).To(HaveLen(1))
		Expect(questions[0].QuestionID).To(Equal("q1"))
		Expect(questions[0].HaystackSessions[0][0].Content).To(Equal("I planted tomatoes"))
	})

	It("fails on a missing file", func() {
		_, err := LoadDataset(filepath.Join(GinkgoT().TempDir(), "missing.json"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("LoadIDFile", func() {
	It("reads one id per line and skips blanks", func() {
		path := filepath.Join(GinkgoT().TempDir(), "ids.txt")
		content := "q3\n\n  q1  \n"
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())

		ids, err := LoadIDFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(ids).To(HaveKey("q1"))
		Expect(ids).To(HaveKey("q3"))
		Expect(ids).To(HaveLen(2))
	})

	It("fails on a missing file", func() {
		_, err := LoadIDFile(filepath.Join(GinkgoT().TempDir(), "missing.txt"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("FilterQuestions", func() {
	questions := []Question{sampleQuestion("q1"), sampleQuestion("q2"), sampleQuestion("q3")}

	It("keeps only matching ids in dataset order", func() {
		kept := FilterQuestions(questions, map[string]struct{}{"q3": {}, "q1": {}})
		Expect(kept).To(HaveLen(2))
		Expect(kept[0].QuestionID).To(Equal("q1"))
		Expect(kept[1].QuestionID).To(Equal("q3"))
	})

	It("keeps everything for an empty set", func() {
		Expect(FilterQuestions(questions, nil)).To(HaveLen(3))
	})
})
