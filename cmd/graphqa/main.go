package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/kataras/golog"

	"github.com/smallnest/graphqa/extract"
	"github.com/smallnest/graphqa/ingest"
	"github.com/smallnest/graphqa/kg"
	"github.com/smallnest/graphqa/llm"
	"github.com/smallnest/graphqa/log"
	"github.com/smallnest/graphqa/pipeline"
	"github.com/smallnest/graphqa/retrieve"
)

var (
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	answerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
)

func main() {
	ingestDir := flag.String("ingest", "", "Path to a folder of documents to ingest")
	chatMode := flag.Bool("chat", false, "Start the interactive question prompt")
	resetGraph := flag.Bool("reset", false, "Drop the whole graph before doing anything else")
	mode := flag.String("mode", "vector", "Retrieval mode: vector or graph")
	flag.Parse()

	cfg := LoadConfig()
	if err := ValidateConfig(cfg); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("config: "+err.Error()))
		os.Exit(1)
	}

	logger := log.NewGologLogger(golog.New())
	logger.SetLevel(log.ParseLevel(cfg.LogLevel))
	log.SetDefaultLogger(logger)
	ctx := context.Background()

	store, err := kg.NewStore(cfg.FalkorDBAddr, cfg.GraphName, cfg.EmbeddingDim, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	if *resetGraph {
		if err := store.Reset(ctx); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
			os.Exit(1)
		}
		fmt.Println("Graph dropped.")
	}

	if err := store.EnsureSchema(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}

	model, embedder, err := buildClients(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}

	if *ingestDir != "" {
		runIngest(ctx, store, model, embedder, logger, *ingestDir)
	}

	if *chatMode {
		runChat(ctx, cfg, store, model, embedder, logger, *mode)
	} else if *ingestDir == "" && !*resetGraph {
		printUsage()
	}
}

// buildClients constructs the model and embedder named by the configuration.
func buildClients(cfg Config) (llm.Model, llm.Embedder, error) {
	switch cfg.Provider {
	case "openai":
		model := llm.NewOpenAIModel(cfg.OpenAIKey, cfg.OpenAIModel)
		embedder := llm.NewOpenAIEmbedder(cfg.OpenAIKey, cfg.EmbeddingModel, cfg.EmbeddingDim)
		return model, embedder, nil
	default:
		model, err := llm.NewOllamaModel(cfg.OllamaURL, cfg.Model)
		if err != nil {
			return nil, nil, err
		}
		embedder, err := llm.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbeddingModel, cfg.EmbeddingDim)
		if err != nil {
			return nil, nil, err
		}
		return model, embedder, nil
	}
}

func runIngest(ctx context.Context, store *kg.Store, model llm.Model, embedder llm.Embedder, logger log.Logger, dir string) {
	fmt.Printf("Ingesting %s...\n", dir)

	extractor := extract.NewExtractor(model, logger)
	ingestor := ingest.NewIngestor(store, extractor, embedder, logger)

	results, err := ingestor.IngestDir(ctx, dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}

	for _, r := range results {
		fmt.Printf("  %s: %d paragraphs, %d triples\n", r.Title, r.Paragraphs, r.Triples)
	}

	if stats, err := store.CollectStats(ctx); err == nil {
		fmt.Printf("Graph now holds %d documents, %d paragraphs, %d entities.\n",
			stats.Documents, stats.Paragraphs, stats.Entities)
	}
}

func runChat(ctx context.Context, cfg Config, store *kg.Store, model llm.Model, embedder llm.Embedder, logger log.Logger, mode string) {
	var strategy retrieve.Strategy
	switch mode {
	case "graph":
		strategy = retrieve.NewKeywordStrategy(store, logger).WithSubjectModel(model)
	default:
		mode = "vector"
		strategy = retrieve.NewVectorStrategy(store, embedder, cfg.TopK, cfg.ScoreThreshold)
	}

	qa, err := pipeline.New(strategy, pipeline.NewSynthesizer(model, logger))
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}

	ingestor := ingest.NewIngestor(store, extract.NewExtractor(model, logger), embedder, logger)

	fmt.Println(bannerStyle.Render("graphqa") + dimStyle.Render("  ("+mode+" mode)"))
	fmt.Println(dimStyle.Render("Ask a question. Commands: sources, learn, stats, exit"))

	reader := bufio.NewReader(os.Stdin)
	var history []pipeline.Turn
	var last pipeline.QAState

	for {
		fmt.Print(promptStyle.Render("you> "))
		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return
		}
		input = strings.TrimSpace(input)

		switch strings.ToLower(input) {
		case "":
			continue

		case "exit", "quit":
			fmt.Println("Bye.")
			return

		case "sources":
			printSources(last)
			continue

		case "learn":
			if last.Question == "" || len(last.Context.Paragraphs) == 0 {
				fmt.Println(dimStyle.Render("Nothing to learn from yet."))
				continue
			}
			if err := ingestor.IngestQuestion(ctx, last.Question, last.Context.Paragraphs[0].ID); err != nil {
				fmt.Println(errorStyle.Render(err.Error()))
				continue
			}
			fmt.Println(dimStyle.Render("Remembered."))
			continue

		case "stats":
			stats, err := store.CollectStats(ctx)
			if err != nil {
				fmt.Println(errorStyle.Render(err.Error()))
				continue
			}
			fmt.Printf("documents: %d  paragraphs: %d  questions: %d  entities: %d\n",
				stats.Documents, stats.Paragraphs, stats.Questions, stats.Entities)
			continue
		}

		state, err := qa.Answer(ctx, input, history)
		if err != nil {
			// a failed turn does not kill the session
			fmt.Println(errorStyle.Render("error: " + err.Error()))
			continue
		}
		last = state

		fmt.Println(answerStyle.Render(state.Answer))

		if state.Answer != pipeline.Fallback {
			history = append(history, pipeline.Turn{Question: input, Answer: state.Answer})
			if len(history) > 10 {
				history = history[len(history)-10:]
			}
		}
	}
}

func printSources(state pipeline.QAState) {
	if state.Context.Empty() {
		fmt.Println(dimStyle.Render("No sources for the last answer."))
		return
	}
	for i, p := range state.Context.Paragraphs {
		fmt.Printf("[%d] (%.2f) %s\n", i+1, p.Score, p.Text)
	}
	for i, t := range state.Context.Triples {
		rel := t.Relation
		if rel == "" {
			rel = "related_to"
		}
		fmt.Printf("[%d] %s -[%s]-> %s\n", i+1, t.Subject, rel, t.Object)
	}
}

func printUsage() {
	fmt.Println("graphqa - knowledge-graph question answering")
	fmt.Println("\nUsage:")
	fmt.Println("  graphqa [options]")
	fmt.Println("\nOptions:")
	fmt.Println("  -ingest <dir>  Ingest every .txt/.md/.html/.pdf file in a folder")
	fmt.Println("  -chat          Start the interactive question prompt")
	fmt.Println("  -mode <m>      Retrieval mode: vector (default) or graph")
	fmt.Println("  -reset         Drop the whole graph first")
	fmt.Println("\nExamples:")
	fmt.Println("  graphqa -ingest ./docs")
	fmt.Println("  graphqa -ingest ./docs -chat")
	fmt.Println("  graphqa -chat -mode graph")
	fmt.Println("\nEnvironment Variables:")
	fmt.Println("  FALKORDB_ADDR    FalkorDB address (default: localhost:6379)")
	fmt.Println("  GRAPH_NAME       Graph key name (default: graphqa)")
	fmt.Println("  LLM_PROVIDER     ollama (default) or openai")
	fmt.Println("  OLLAMA_URL       Ollama server URL (default: client default)")
	fmt.Println("  OLLAMA_MODEL     Chat model for ollama (default: llama3.1)")
	fmt.Println("  OPENAI_API_KEY   Required when LLM_PROVIDER=openai")
	fmt.Println("  OPENAI_MODEL     Chat model for openai (default: gpt-4o-mini)")
	fmt.Println("  EMBEDDING_MODEL  Embedding model (default: all-minilm)")
	fmt.Println("  EMBEDDING_DIM    Embedding dimension (default: 384)")
	fmt.Println("  TOP_K            Vector search depth (default: 3)")
	fmt.Println("  SCORE_THRESHOLD  Similarity acceptance threshold (default: 0.8)")
	fmt.Println("  LOG_LEVEL        debug, info, warn, error (default: info)")
}
