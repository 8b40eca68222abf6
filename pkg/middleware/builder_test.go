package middleware

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/membench/membench/pkg/logger"
	"github.com/membench/membench/pkg/store"
)

var _ = Describe("ContextBuilder", func() {
	var builder *ContextBuilder

	BeforeEach(func() {
		builder = NewContextBuilder(logger.Nop())
	})

	Describe("VectorSection", func() {
		It("returns empty for no results", func() {
			Expect(builder.VectorSection(nil)).To(BeEmpty())
		})

		It("surfaces at most three conversations", func() {
			results := []store.SearchResult{
				{Content: "conversation one"},
				{Content: "conversation two"},
				{Content: "conversation three"},
				{Content: "conversation four"},
			}

			section := builder.VectorSection(results)
			Expect(section).To(ContainSubstring("conversation three"))
			Expect(section).NotTo(ContainSubstring("conversation four"))
			Expect(section).To(ContainSubstring("[Conversation 1]"))
		})

		It("includes stored timestamps", func() {
			section := builder.VectorSection([]store.SearchResult{
				{Content: "c", Metadata: map[string]string{store.MetaTimestamp: "2025-06-01T10:00:00Z"}},
			})
			Expect(section).To(ContainSubstring("2025-06-01T10:00:00Z"))
		})

		It("falls back to unknown for missing timestamps", func() {
			section := builder.VectorSection([]store.SearchResult{{Content: "c"}})
			Expect(section).To(ContainSubstring("unknown"))
		})
	})

	Describe("GraphSection", func() {
		It("returns empty when both parts are empty", func() {
			Expect(builder.GraphSection("", "  \n")).To(BeEmpty())
		})

		It("labels nodes and facts", func() {
			section := builder.GraphSection("node info", "fact info")
			Expect(section).To(ContainSubstring("Retrieved nodes:\nnode info"))
			Expect(section).To(ContainSubstring("Retrieved memory facts:\nfact info"))
		})

		It("keeps a single populated part", func() {
			section := builder.GraphSection("", "fact info")
			Expect(section).NotTo(ContainSubstring("Retrieved nodes"))
			Expect(section).To(ContainSubstring("fact info"))
		})
	})

	Describe("Wrap", func() {
		It("returns empty when every section is empty", func() {
			Expect(builder.Wrap("", "  ")).To(BeEmpty())
		})

		It("wraps sections in delimiters with the relevance instruction", func() {
			block := builder.Wrap("some content")
			Expect(block).To(HavePrefix("<retrieved_context>\n"))
			Expect(block).To(ContainSubstring("</retrieved_context>"))
			Expect(block).To(ContainSubstring("IGNORE it entirely"))
		})

		It("orders sections and skips empty ones", func() {
			block := builder.Wrap("graph part", "", "vector part")
			graphIdx := strings.Index(block, "graph part")
			vectorIdx := strings.Index(block, "vector part")
			Expect(graphIdx).To(BeNumerically(">", -1))
			Expect(vectorIdx).To(BeNumerically(">", graphIdx))
			Expect(block).To(ContainSubstring("graph part\n\nvector part"))
		})
	})
})
