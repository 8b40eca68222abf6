package agent

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/membench/membench/pkg/chat"
)

var _ = Describe("State", func() {
	It("copies the seed history", func() {
		history := []chat.Message{chat.NewTextMessage(chat.RoleHuman, "one")}
		state := NewState("t1", history)

		history[0] = chat.NewTextMessage(chat.RoleHuman, "mutated")
		Expect(state.Messages()[0].Text()).To(Equal("one"))
	})

	It("exposes the thread id", func() {
		Expect(NewState("thread-9", nil).ThreadID()).To(Equal("thread-9"))
	})

	It("appends in order", func() {
		state := NewState("t1", nil)
		state.Append(chat.NewTextMessage(chat.RoleHuman, "a"))
		state.Append(chat.NewTextMessage(chat.RoleAI, "b"))

		Expect(state.Len()).To(Equal(2))
		Expect(state.Messages()[1].Text()).To(Equal("b"))
	})

	Describe("LatestMessage", func() {
		It("returns the most recent message with the role", func() {
			state := NewState("t1", []chat.Message{
				chat.NewTextMessage(chat.RoleHuman, "first question"),
				chat.NewTextMessage(chat.RoleAI, "first answer"),
				chat.NewTextMessage(chat.RoleHuman, "second question"),
			})

			m, err := state.LatestMessage(chat.RoleHuman)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Text()).To(Equal("second question"))
		})

		It("returns ErrMessageNotFound when no message has the role", func() {
			state := NewState("t1", []chat.Message{
				chat.NewTextMessage(chat.RoleHuman, "question"),
			})

			_, err := state.LatestMessage(chat.RoleAI)
			Expect(err).To(MatchError(ErrMessageNotFound))
		})
	})
})
