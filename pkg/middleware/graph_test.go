package middleware

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/membench/membench/pkg/chat"
	"github.com/membench/membench/pkg/graph"
	"github.com/membench/membench/pkg/logger"
	testutils "github.com/membench/membench/pkg/utils/test"
)

func newConnectedGateway(ctx context.Context, session *testutils.FakeGraphSession) *graph.Gateway {
	g := graph.NewWithSession(graph.Config{Endpoint: graph.DefaultEndpoint}, session, logger.Nop())
	Expect(g.Connect(ctx)).To(Succeed())
	return g
}

var _ = Describe("GraphAugmentation", func() {
	var (
		ctx     context.Context
		session *testutils.FakeGraphSession
		aug     *GraphAugmentation
	)

	BeforeEach(func() {
		ctx = context.Background()
		session = testutils.NewFakeGraphSession()
		aug = NewGraphAugmentation(newConnectedGateway(ctx, session), logger.Nop())
	})

	It("commits one episode per speaker grouped by thread", func() {
		state := newTurnState("thread-7", "I adopted a cat named Miso")

		Expect(aug.BeforeModel(ctx, state)).To(Succeed())
		Expect(session.CallsTo(graph.ToolAddMemory)).To(BeEmpty())

		state.Append(chat.NewTextMessage(chat.RoleAI, "Miso sounds lovely"))
		Expect(aug.AfterModel(ctx, state)).To(Succeed())

		calls := session.CallsTo(graph.ToolAddMemory)
		Expect(calls).To(HaveLen(2))

		Expect(calls[0].Args["name"]).To(Equal("User Message"))
		Expect(calls[0].Args["episode_body"]).To(Equal("I adopted a cat named Miso"))
		Expect(calls[0].Args["group_id"]).To(Equal("thread-7"))

		Expect(calls[1].Args["name"]).To(Equal("AI Message"))
		Expect(calls[1].Args["episode_body"]).To(Equal("Miso sounds lovely"))
		Expect(calls[1].Args["group_id"]).To(Equal("thread-7"))
	})

	It("skips the commit when nothing is pending", func() {
		state := newTurnState("t1", "hello")
		state.Append(chat.NewTextMessage(chat.RoleAI, "hi"))

		Expect(aug.AfterModel(ctx, state)).To(Succeed())
		Expect(session.Calls).To(BeEmpty())
	})

	It("propagates graph service failures", func() {
		session.FailTool = graph.ToolAddMemory
		state := newTurnState("t1", "hello")

		Expect(aug.BeforeModel(ctx, state)).To(Succeed())
		state.Append(chat.NewTextMessage(chat.RoleAI, "hi"))

		Expect(aug.AfterModel(ctx, state)).To(MatchError(graph.ErrGraphService))
	})
})

var _ = Describe("GraphRetrieval", func() {
	var (
		ctx       context.Context
		session   *testutils.FakeGraphSession
		retrieval *GraphRetrieval
	)

	BeforeEach(func() {
		ctx = context.Background()
		session = testutils.NewFakeGraphSession()
		retrieval = NewGraphRetrieval(newConnectedGateway(ctx, session), NewContextBuilder(logger.Nop()), logger.Nop())
	})

	It("injects node and fact results scoped to the thread", func() {
		session.Responses[graph.ToolSearchNodes] = "Miso (Cat)"
		session.Responses[graph.ToolSearchFacts] = "user ADOPTED Miso"

		state := newTurnState("thread-7", "what is my cat called")
		Expect(retrieval.BeforeModel(ctx, state)).To(Succeed())

		last := state.Messages()[state.Len()-1]
		Expect(last.Role).To(Equal(chat.RoleSystem))
		Expect(last.Text()).To(ContainSubstring("Retrieved nodes:\nMiso (Cat)"))
		Expect(last.Text()).To(ContainSubstring("Retrieved memory facts:\nuser ADOPTED Miso"))

		nodeCalls := session.CallsTo(graph.ToolSearchNodes)
		Expect(nodeCalls).To(HaveLen(1))
		Expect(nodeCalls[0].Args["group_ids"]).To(Equal([]string{"thread-7"}))
		Expect(nodeCalls[0].Args["query"]).To(Equal("what is my cat called"))
	})

	It("injects nothing when the graph has no results", func() {
		state := newTurnState("t1", "anything")
		before := state.Len()

		Expect(retrieval.BeforeModel(ctx, state)).To(Succeed())
		Expect(state.Len()).To(Equal(before))
	})

	It("propagates search failures", func() {
		session.FailTool = graph.ToolSearchNodes
		state := newTurnState("t1", "anything")

		Expect(retrieval.BeforeModel(ctx, state)).To(MatchError(graph.ErrGraphService))
	})
})
