package rerank

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/membench/membench/pkg/logger"
	"github.com/membench/membench/pkg/store"
)

func candidate(id, content string) store.SearchResult {
	return store.SearchResult{ID: id, Content: content}
}

var _ = Describe("Lexical Reranker", func() {
	var reranker *Lexical

	BeforeEach(func() {
		reranker = NewLexical(logger.Nop())
	})

	It("ranks candidates sharing query terms above unrelated ones", func() {
		candidates := []store.SearchResult{
			candidate("a", "User: I went hiking\n\nAssistant: Sounds fun"),
			candidate("b", "User: my favourite colour is teal\n\nAssistant: Teal is a great colour"),
			candidate("c", "User: let's talk about databases\n\nAssistant: Sure"),
		}

		out := reranker.Rerank(candidates, "what is my favourite colour", 3)
		Expect(out).To(HaveLen(3))
		Expect(out[0].ID).To(Equal("b"))
	})

	It("ignores the candidates' incoming order", func() {
		candidates := []store.SearchResult{
			candidate("unrelated", "User: the weather is nice\n\nAssistant: It is"),
			candidate("relevant", "User: the secret number is 12345\n\nAssistant: Noted"),
		}

		out := reranker.Rerank(candidates, "secret number", 2)
		Expect(out[0].ID).To(Equal("relevant"))
	})

	It("truncates to topN", func() {
		candidates := []store.SearchResult{
			candidate("a", "alpha beta"),
			candidate("b", "alpha beta"),
			candidate("c", "alpha beta"),
		}

		out := reranker.Rerank(candidates, "alpha", 2)
		Expect(out).To(HaveLen(2))
	})

	It("keeps original relative order on ties", func() {
		candidates := []store.SearchResult{
			candidate("first", "alpha beta"),
			candidate("second", "alpha beta"),
		}

		out := reranker.Rerank(candidates, "alpha", 2)
		Expect(out[0].ID).To(Equal("first"))
		Expect(out[1].ID).To(Equal("second"))
	})

	It("returns nil for an empty candidate set", func() {
		Expect(reranker.Rerank(nil, "anything", 5)).To(BeNil())
	})

	It("falls back to input order for an empty query", func() {
		candidates := []store.SearchResult{
			candidate("a", "one"),
			candidate("b", "two"),
		}

		out := reranker.Rerank(candidates, "?!", 5)
		Expect(out).To(HaveLen(2))
		Expect(out[0].ID).To(Equal("a"))
	})

	It("defaults topN when given zero", func() {
		candidates := make([]store.SearchResult, 0, 8)
		for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
			candidates = append(candidates, candidate(id, "common words"))
		}

		out := reranker.Rerank(candidates, "common", 0)
		Expect(out).To(HaveLen(DefaultTopN))
	})
})
