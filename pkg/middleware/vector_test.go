package middleware

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/membench/membench/pkg/agent"
	"github.com/membench/membench/pkg/chat"
	"github.com/membench/membench/pkg/logger"
	"github.com/membench/membench/pkg/rerank"
	"github.com/membench/membench/pkg/store"
	testutils "github.com/membench/membench/pkg/utils/test"
)

func newTurnState(threadID, userMessage string) *agent.State {
	state := agent.NewState(threadID, nil)
	state.Append(chat.NewTextMessage(chat.RoleHuman, userMessage))
	return state
}

var _ = Describe("VectorAugmentation", func() {
	var (
		ctx       context.Context
		turnStore *testutils.MockTurnStore
		aug       *VectorAugmentation
	)

	BeforeEach(func() {
		ctx = context.Background()
		turnStore = testutils.NewMockTurnStore()
		aug = NewVectorAugmentation(turnStore, logger.Nop())
	})

	It("commits the user and ai pair only after the model reply exists", func() {
		state := newTurnState("t1", "remember the secret 12345")

		Expect(aug.BeforeModel(ctx, state)).To(Succeed())
		count, _ := turnStore.Count(ctx)
		Expect(count).To(BeZero())

		state.Append(chat.NewTextMessage(chat.RoleAI, "stored it"))
		Expect(aug.AfterModel(ctx, state)).To(Succeed())

		turns := turnStore.Turns()
		Expect(turns).To(HaveLen(1))
		Expect(turns[0].Content).To(Equal("User: remember the secret 12345\n\nAssistant: stored it"))
		Expect(turns[0].Metadata[store.MetaThreadID]).To(Equal("t1"))
	})

	It("fails the before hook when the turn has no user message", func() {
		state := agent.NewState("t1", nil)
		Expect(aug.BeforeModel(ctx, state)).To(MatchError(agent.ErrMessageNotFound))
	})

	It("skips the commit when nothing is pending", func() {
		state := newTurnState("t1", "hello")
		state.Append(chat.NewTextMessage(chat.RoleAI, "hi"))

		Expect(aug.AfterModel(ctx, state)).To(Succeed())
		count, _ := turnStore.Count(ctx)
		Expect(count).To(BeZero())
	})

	It("keeps pending captures isolated per thread", func() {
		stateA := newTurnState("thread-a", "message from a")
		stateB := newTurnState("thread-b", "message from b")

		Expect(aug.BeforeModel(ctx, stateA)).To(Succeed())
		Expect(aug.BeforeModel(ctx, stateB)).To(Succeed())

		stateB.Append(chat.NewTextMessage(chat.RoleAI, "reply to b"))
		Expect(aug.AfterModel(ctx, stateB)).To(Succeed())

		stateA.Append(chat.NewTextMessage(chat.RoleAI, "reply to a"))
		Expect(aug.AfterModel(ctx, stateA)).To(Succeed())

		turns := turnStore.Turns()
		Expect(turns).To(HaveLen(2))
		Expect(turns[0].Content).To(ContainSubstring("message from b"))
		Expect(turns[1].Content).To(ContainSubstring("message from a"))
	})

	It("clears the pending entry even when the commit fails", func() {
		turnStore.FailAdd = true
		state := newTurnState("t1", "hello")

		Expect(aug.BeforeModel(ctx, state)).To(Succeed())
		state.Append(chat.NewTextMessage(chat.RoleAI, "hi"))
		Expect(aug.AfterModel(ctx, state)).To(MatchError(store.ErrConnection))

		// A retry without a fresh capture is a no-op, not a stale write.
		turnStore.FailAdd = false
		Expect(aug.AfterModel(ctx, state)).To(Succeed())
		count, _ := turnStore.Count(ctx)
		Expect(count).To(BeZero())
	})
})

var _ = Describe("VectorRetrieval", func() {
	var (
		ctx       context.Context
		turnStore *testutils.MockTurnStore
		retrieval *VectorRetrieval
	)

	BeforeEach(func() {
		ctx = context.Background()
		turnStore = testutils.NewMockTurnStore()
		retrieval = NewVectorRetrieval(turnStore, rerank.NewLexical(logger.Nop()), NewContextBuilder(logger.Nop()), RetrievalTuning{}, logger.Nop())
	})

	It("injects retrieved context as a system message", func() {
		Expect(turnStore.AddTurn(ctx, "the secret number is 12345", "noted", nil)).To(Succeed())

		state := newTurnState("t1", "what is the secret number")
		Expect(retrieval.BeforeModel(ctx, state)).To(Succeed())

		last := state.Messages()[state.Len()-1]
		Expect(last.Role).To(Equal(chat.RoleSystem))
		Expect(last.Text()).To(ContainSubstring("<retrieved_context>"))
		Expect(last.Text()).To(ContainSubstring("12345"))
	})

	It("injects nothing when the store is empty", func() {
		state := newTurnState("t1", "anything at all")
		before := state.Len()

		Expect(retrieval.BeforeModel(ctx, state)).To(Succeed())
		Expect(state.Len()).To(Equal(before))
	})

	It("propagates search failures", func() {
		turnStore.FailSearch = true
		state := newTurnState("t1", "anything")

		Expect(retrieval.BeforeModel(ctx, state)).To(MatchError(store.ErrConnection))
	})

	It("does nothing after the model", func() {
		state := newTurnState("t1", "anything")
		Expect(retrieval.AfterModel(ctx, state)).To(Succeed())
	})

	It("searches with the default candidate count when untuned", func() {
		state := newTurnState("t1", "anything")
		Expect(retrieval.BeforeModel(ctx, state)).To(Succeed())
		Expect(turnStore.LastSearchN).To(Equal(SearchCandidates))
	})

	It("searches with the configured candidate count", func() {
		tuned := NewVectorRetrieval(turnStore, rerank.NewLexical(logger.Nop()), NewContextBuilder(logger.Nop()),
			RetrievalTuning{Candidates: 50}, logger.Nop())

		state := newTurnState("t1", "anything")
		Expect(tuned.BeforeModel(ctx, state)).To(Succeed())
		Expect(turnStore.LastSearchN).To(Equal(50))
	})

	It("keeps only the configured number of reranked candidates", func() {
		Expect(turnStore.AddTurn(ctx, "the secret number is 12345", "noted", nil)).To(Succeed())
		Expect(turnStore.AddTurn(ctx, "another mention of the secret number", "ok", nil)).To(Succeed())

		tuned := NewVectorRetrieval(turnStore, rerank.NewLexical(logger.Nop()), NewContextBuilder(logger.Nop()),
			RetrievalTuning{TopN: 1}, logger.Nop())

		state := newTurnState("t1", "what is the secret number")
		Expect(tuned.BeforeModel(ctx, state)).To(Succeed())

		text := state.Messages()[state.Len()-1].Text()
		Expect(text).To(ContainSubstring("[Conversation 1]"))
		Expect(text).NotTo(ContainSubstring("[Conversation 2]"))
	})
})
