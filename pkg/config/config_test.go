package config

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"
)

var _ = Describe("Config", func() {
	Describe("defaults", func() {
		It("resolves into a complete Config", func() {
			v, err := InitViper(GinkgoT().TempDir())
			Expect(err).NotTo(HaveOccurred())

			c, err := FromViper(v)
			Expect(err).NotTo(HaveOccurred())

			d := NewDefaultConfig()
			Expect(c).To(Equal(d))

			Expect(c.Model.Provider).To(Equal("anthropic"))
			Expect(c.Store.Driver).To(Equal("chromem"))
			Expect(c.Graph.Endpoint).To(Equal("http://localhost:8000/mcp"))
			Expect(c.Embedding.Dimensions).To(Equal(uint(768)))
			Expect(c.Retrieval.Candidates).To(Equal(20))
			Expect(c.Retrieval.RerankTopN).To(Equal(5))
		})
	})

	Describe("config file", func() {
		It("overrides defaults", func() {
			dir := GinkgoT().TempDir()
			yaml := "store:\n  driver: sqlitevec\n  path: /tmp/membench-test\nmodel:\n  name: claude-sonnet-4-20250514\n"
			Expect(os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644)).To(Succeed())

			v, err := InitViper(dir)
			Expect(err).NotTo(HaveOccurred())

			c, err := FromViper(v)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Store.Driver).To(Equal("sqlitevec"))
			Expect(c.Store.Path).To(Equal("/tmp/membench-test"))
			Expect(c.Model.Name).To(Equal("claude-sonnet-4-20250514"))

			// Untouched keys fall back to defaults.
			Expect(c.Model.Provider).To(Equal("anthropic"))
		})
	})

	Describe("environment variables", func() {
		It("overrides defaults through the MEMBENCH_ prefix", func() {
			GinkgoT().Setenv("MEMBENCH_STORE_DRIVER", "sqlitevec")
			GinkgoT().Setenv("MEMBENCH_GRAPH_ENDPOINT", "http://graphiti:9000/mcp")
			GinkgoT().Setenv("MEMBENCH_MODEL_API_KEY", "sk-test")

			v, err := InitViper(GinkgoT().TempDir())
			Expect(err).NotTo(HaveOccurred())

			c, err := FromViper(v)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Store.Driver).To(Equal("sqlitevec"))
			Expect(c.Graph.Endpoint).To(Equal("http://graphiti:9000/mcp"))
			Expect(c.Model.APIKey).To(Equal("sk-test"))
		})
	})

	Describe("flags", func() {
		It("registers flags with registry defaults and binds them above env", func() {
			GinkgoT().Setenv("MEMBENCH_STORE_PATH", "from-env")

			var storePath, modelName string
			cmd := &cobra.Command{Use: "test"}
			AddStringFlag(cmd, Flags, FlagStorePath, &storePath)
			AddStringFlag(cmd, Flags, FlagModelName, &modelName)

			f := cmd.Flags().Lookup("store-path")
			Expect(f).NotTo(BeNil())
			Expect(f.DefValue).To(Equal("membench_data"))

			Expect(cmd.Flags().Set("store-path", "from-flag")).To(Succeed())

			v, err := InitViper(GinkgoT().TempDir())
			Expect(err).NotTo(HaveOccurred())
			BindRegisteredFlags(v, cmd, Flags, []string{FlagStorePath, FlagModelName})

			c, err := FromViper(v)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Store.Path).To(Equal("from-flag"))
		})

		It("lets env win over an unset flag", func() {
			GinkgoT().Setenv("MEMBENCH_STORE_PATH", "from-env")

			var storePath string
			cmd := &cobra.Command{Use: "test"}
			AddStringFlag(cmd, Flags, FlagStorePath, &storePath)

			v, err := InitViper(GinkgoT().TempDir())
			Expect(err).NotTo(HaveOccurred())
			BindRegisteredFlags(v, cmd, Flags, []string{FlagStorePath})

			c, err := FromViper(v)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Store.Path).To(Equal("from-env"))
		})

		It("registers uint flags", func() {
			var dims uint
			cmd := &cobra.Command{Use: "test"}
			AddUintFlag(cmd, Flags, FlagEmbeddingDims, &dims)

			f := cmd.Flags().Lookup("embedding-dimensions")
			Expect(f).NotTo(BeNil())
			Expect(f.DefValue).To(Equal("768"))
		})

		It("ignores unknown registry keys", func() {
			var target string
			cmd := &cobra.Command{Use: "test"}
			AddStringFlag(cmd, Flags, "no-such-flag", &target)
			Expect(cmd.Flags().Lookup("no-such-flag")).To(BeNil())
		})
	})
})
