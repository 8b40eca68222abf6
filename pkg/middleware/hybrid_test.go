package middleware

import (
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/membench/membench/pkg/chat"
	"github.com/membench/membench/pkg/graph"
	"github.com/membench/membench/pkg/logger"
	"github.com/membench/membench/pkg/rerank"
	testutils "github.com/membench/membench/pkg/utils/test"
)

var _ = Describe("HybridRetrieval", func() {
	var (
		ctx       context.Context
		session   *testutils.FakeGraphSession
		turnStore *testutils.MockTurnStore
		retrieval *HybridRetrieval
	)

	BeforeEach(func() {
		ctx = context.Background()
		session = testutils.NewFakeGraphSession()
		turnStore = testutils.NewMockTurnStore()
		retrieval = NewHybridRetrieval(
			newConnectedGateway(ctx, session),
			turnStore,
			rerank.NewLexical(logger.Nop()),
			NewContextBuilder(logger.Nop()),
			RetrievalTuning{},
			logger.Nop(),
		)
	})

	It("assembles one block with the graph section first", func() {
		session.Responses[graph.ToolSearchNodes] = "Miso (Cat)"
		Expect(turnStore.AddTurn(ctx, "my cat Miso likes tuna", "good to know", nil)).To(Succeed())

		state := newTurnState("t1", "what does my cat Miso like")
		Expect(retrieval.BeforeModel(ctx, state)).To(Succeed())

		last := state.Messages()[state.Len()-1]
		Expect(last.Role).To(Equal(chat.RoleSystem))

		text := last.Text()
		Expect(text).To(ContainSubstring("Retrieved nodes:"))
		Expect(text).To(ContainSubstring("--- Similar Past Conversations ---"))
		Expect(strings.Index(text, "Retrieved nodes:")).To(
			BeNumerically("<", strings.Index(text, "--- Similar Past Conversations ---")))
	})

	It("omits the vector section when the store is empty", func() {
		session.Responses[graph.ToolSearchFacts] = "user ADOPTED Miso"

		state := newTurnState("t1", "tell me about my cat")
		Expect(retrieval.BeforeModel(ctx, state)).To(Succeed())

		text := state.Messages()[state.Len()-1].Text()
		Expect(text).To(ContainSubstring("Retrieved memory facts:"))
		Expect(text).NotTo(ContainSubstring("Similar Past Conversations"))
	})

	It("injects nothing when both backends are empty", func() {
		state := newTurnState("t1", "anything")
		before := state.Len()

		Expect(retrieval.BeforeModel(ctx, state)).To(Succeed())
		Expect(state.Len()).To(Equal(before))
	})

	It("propagates graph failures before touching the vector store", func() {
		session.FailTool = graph.ToolSearchNodes
		turnStore.FailSearch = true

		state := newTurnState("t1", "anything")
		Expect(retrieval.BeforeModel(ctx, state)).To(MatchError(graph.ErrGraphService))
	})

	It("does nothing after the model", func() {
		state := newTurnState("t1", "anything")
		Expect(retrieval.AfterModel(ctx, state)).To(Succeed())
	})
})
