package cmd

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/becomeliminal/recall-go-sdk/engine"
	"github.com/becomeliminal/recall-go-sdk/graph"
	"github.com/becomeliminal/recall-go-sdk/memory"
	"github.com/becomeliminal/recall-go-sdk/memory/store/chromem"
	"github.com/becomeliminal/recall-go-sdk/memory/store/qdrant"
	"github.com/becomeliminal/recall-go-sdk/provider"
	"github.com/becomeliminal/recall-go-sdk/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the consolidation HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}

		srv := server.New(eng)
		return srv.Listen(viper.GetString("server.addr"))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (overrides config)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func buildEngine() (*engine.Engine, error) {
	store, err := buildStore()
	if err != nil {
		return nil, err
	}

	completer, err := buildCompleter()
	if err != nil {
		return nil, err
	}

	embedder, err := buildEmbedder()
	if err != nil {
		return nil, err
	}

	opts := []engine.Option{
		engine.WithTopK(viper.GetInt("consolidation.top_k")),
		engine.WithThresholds(memory.Thresholds{
			AddBelow:      viper.GetFloat64("consolidation.add_below"),
			UpdateCeiling: viper.GetFloat64("consolidation.update_ceiling"),
			NoopAtOrAbove: viper.GetFloat64("consolidation.noop_at_or_above"),
		}),
	}

	if uri := viper.GetString("neo4j.uri"); uri != "" {
		sink, err := graph.NewNeo4jSink(graph.Neo4jConfig{
			URI:      uri,
			Username: viper.GetString("neo4j.username"),
			Password: viper.GetString("neo4j.password"),
			Database: viper.GetString("neo4j.database"),
		})
		if err != nil {
			// The mirror is best-effort even at startup.
			log.Warn("graph sink unavailable, continuing without it", "err", err)
		} else {
			opts = append(opts, engine.WithGraphSink(sink))
		}
	}

	return engine.New(store, completer, embedder, opts...)
}

func buildStore() (memory.Store, error) {
	switch backend := viper.GetString("store.backend"); backend {
	case "chromem":
		return chromem.New()
	case "qdrant":
		return qdrant.New(viper.GetString("qdrant.endpoint"), viper.GetString("qdrant.collection")), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func buildCompleter() (provider.Completer, error) {
	switch p := viper.GetString("completion.provider"); p {
	case "anthropic":
		key := viper.GetString("anthropic.api_key")
		if key == "" {
			return nil, fmt.Errorf("anthropic.api_key is required (RECALL_ANTHROPIC_API_KEY)")
		}
		client := anthropic.NewClient(anthropicoption.WithAPIKey(key))

		var opts []provider.AnthropicOption
		if model := viper.GetString("anthropic.model"); model != "" {
			opts = append(opts, provider.WithAnthropicModel(model))
		}
		return provider.NewAnthropicCompleter(&client, opts...), nil

	case "openai":
		client, err := openaiClient()
		if err != nil {
			return nil, err
		}

		var opts []provider.OpenAICompleterOption
		if model := viper.GetString("openai.model"); model != "" {
			opts = append(opts, provider.WithOpenAIModel(model))
		}
		return provider.NewOpenAICompleter(client, opts...), nil

	default:
		return nil, fmt.Errorf("unknown completion provider %q", p)
	}
}

func buildEmbedder() (provider.Embedder, error) {
	client, err := openaiClient()
	if err != nil {
		return nil, err
	}

	var opts []provider.OpenAIEmbedderOption
	if model := viper.GetString("openai.embedding_model"); model != "" {
		opts = append(opts, provider.WithOpenAIEmbeddingModel(model, viper.GetInt("openai.embedding_dimensions")))
	}

	embedder := provider.NewOpenAIEmbedder(client, opts...)
	return provider.NewCachedEmbedder(embedder, viper.GetInt64("embedding.cache_entries"))
}

func openaiClient() (*openai.Client, error) {
	key := viper.GetString("openai.api_key")
	if key == "" {
		return nil, fmt.Errorf("openai.api_key is required (RECALL_OPENAI_API_KEY)")
	}
	client := openai.NewClient(openaioption.WithAPIKey(key))
	return &client, nil
}
