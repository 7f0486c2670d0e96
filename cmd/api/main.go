// @title           Document Q&A API
// @version         1.0
// @description     Upload a PDF or DOCX and ask questions about its content.
// @termsOfService  http://swagger.io/terms/

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:5001
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/data/fileStore"
	"github.com/akolanti/DocQA/internal/data/redisStore"
	"github.com/akolanti/DocQA/internal/data/store"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/rag"
	"github.com/akolanti/DocQA/internal/rag/answer"
	"github.com/akolanti/DocQA/internal/rag/extract"
	"github.com/akolanti/DocQA/internal/rag/llm"
	"github.com/akolanti/DocQA/internal/rag/llm/gemini"
	"github.com/akolanti/DocQA/internal/rag/llm/openaiLLM"
	"github.com/akolanti/DocQA/internal/rag/normalize"
	"github.com/akolanti/DocQA/internal/server"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"golang.org/x/sync/errgroup"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	flag.StringVar(&settings.ListenAddr, "listen-addr", settings.ListenAddr, "server listen address")
	flag.Parse()

	logger_i.Init(settings.SlogLevel(), settings.IsProd)
	logger := logger_i.NewLogger("main")

	if err := run(settings, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func run(settings config.Settings, logger *logger_i.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	files, err := fileStore.New(settings.StorageDir)
	if err != nil {
		return err
	}

	repository, err := documentRepository(ctx, settings, logger)
	if err != nil {
		return err
	}

	provider, err := llmProvider(ctx, settings)
	if err != nil {
		return err
	}
	logger.Info("Starting pipeline", "provider", settings.LLMProvider, "answerMode", settings.AnswerMode,
		"docxConverter", settings.DocxConverter, "singleSlot", settings.SingleSlot, "storage", files.Root)

	service := rag.NewService(rag.Dependencies{
		Normalizer: normalize.New(files, docxConverter(settings)),
		Extractor:  extract.New(),
		Answerer:   answer.New(provider, settings.LLMTimeout),
		Artifacts:  files,
		Repository: repository,
	}, rag.Options{
		AnswerMode:           settings.AnswerMode,
		SingleSlot:           settings.SingleSlot,
		PersistExtractedText: settings.PersistExtractedText,
	})

	httpServer := server.CreateServer(server.Params{
		ListenAddr:  settings.ListenAddr,
		Service:     service,
		StorageRoot: files.Root,
		TempDir:     filepath.Join(os.TempDir(), config.TemporaryUploadDir),
	})

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return server.Run(groupCtx, httpServer)
	})
	return group.Wait()
}

func documentRepository(ctx context.Context, settings config.Settings, logger *logger_i.Logger) (commonModels.DocumentRepository, error) {
	if settings.DocumentStore != "redis" {
		return store.InitInMemoryDocumentStore(), nil
	}
	repo, err := store.GetRedisDocumentStore(ctx, redisStore.Options{Addr: settings.RedisAddr, Password: settings.RedisPassword})
	if err != nil {
		return nil, fmt.Errorf("redis document store: %w", err)
	}
	logger.Info("Using redis document store", "addr", settings.RedisAddr)
	return repo, nil
}

func llmProvider(ctx context.Context, settings config.Settings) (llm.Provider, error) {
	if settings.LLMProvider == "openai" {
		return openaiLLM.NewOpenAIClient(settings.APIKey(), settings.OpenAIModel)
	}
	return gemini.NewGeminiClient(ctx, settings.APIKey(), settings.GeminiModel)
}

func docxConverter(settings config.Settings) normalize.Converter {
	if settings.DocxConverter == config.DocxConverterSoffice {
		return normalize.SofficeConverter{Binary: settings.SofficePath, Timeout: config.ConversionTimeout}
	}
	return normalize.TextConverter{}
}
