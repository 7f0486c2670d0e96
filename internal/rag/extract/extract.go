// Package extract turns a canonical document artifact into page ordered text.
package extract

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/domain/failures"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

type Extractor struct {
	pageTimeout time.Duration
	logger      *logger_i.Logger
}

func New() *Extractor {
	return &Extractor{
		pageTimeout: config.PageExtractTimeout,
		logger:      logger_i.NewLogger("Extractor"),
	}
}

// FromFile reads the artifact at path and extracts it.
func (e *Extractor) FromFile(ctx context.Context, path string, format commonModels.DocType) (commonModels.ExtractionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		e.logger.WithTrace(ctx, config.TRACE_ID_KEY).Error("could not read artifact", "path", path, "error", err)
		return commonModels.ExtractionResult{}, failures.New(failures.ExtractionError, "could not read document", err)
	}
	return e.extract(ctx, data, format, path)
}

// FromBytes extracts an in-memory artifact. The result matches FromFile for the same content.
func (e *Extractor) FromBytes(ctx context.Context, data []byte, format commonModels.DocType) (commonModels.ExtractionResult, error) {
	return e.extract(ctx, data, format, "memory")
}

func (e *Extractor) extract(ctx context.Context, data []byte, format commonModels.DocType, source string) (commonModels.ExtractionResult, error) {
	log := e.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("source", source, "format", format)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("extract", time.Since(start)) }()

	if err := ctx.Err(); err != nil {
		return commonModels.ExtractionResult{}, failures.New(failures.ExtractionError, "extraction cancelled", err)
	}

	var pages []string
	var err error
	switch format {
	case commonModels.PDF:
		pages, err = e.pdfPages(data)
	case commonModels.TXT:
		pages = []string{string(data)}
	default:
		err = fmt.Errorf("unsupported artifact format: %s", format)
	}

	if err != nil {
		log.Error("extraction crashed", "error", err)
		return commonModels.ExtractionResult{}, failures.New(failures.ExtractionError, "could not parse document", err)
	}
	if !hasText(pages) {
		log.Warn("extraction found no text", "pages", len(pages))
		return commonModels.ExtractionResult{}, failures.New(failures.ExtractionError, "no text found in document", nil)
	}

	log.Debug("extraction complete", "pages", len(pages))
	return commonModels.ExtractionResult{
		Pages:       pages,
		Source:      source,
		ExtractedAt: time.Now(),
	}, nil
}

func hasText(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return true
		}
	}
	return false
}
