package rag

import (
	"context"
	"os"
	"time"

	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/domain/failures"
	"github.com/akolanti/DocQA/internal/domain/pipelineModel"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/internal/rag/assemble"
	"github.com/akolanti/DocQA/internal/rag/llm"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

func advance(run *pipelineModel.Run, next pipelineModel.Stage, log *logger_i.Logger) {
	if !run.CanAdvance(next) {
		log.Warn("unexpected stage transition", "from", run.Stage, "to", next)
	}
	run.Stage = next
	log.Debug("pipeline", "Current Stage", run.Stage)
}

// fail moves the run to Failed and returns err as a typed failure.
func (s *service) fail(run *pipelineModel.Run, log *logger_i.Logger, err error) error {
	kind := failures.KindOf(err)
	if kind == failures.Unknown {
		err = failures.New(failures.Unknown, "unexpected error", err)
	}
	log.Error("pipeline failed", "stage", run.Stage, "kind", kind, "error", err)
	run.Stage = pipelineModel.Failed
	run.FailureKind = kind

	metrics.IncrementPipelineFailures(string(run.Operation), string(kind))
	return err
}

func (s *service) finish(run *pipelineModel.Run, log *logger_i.Logger) {
	run.EndTime = time.Now()
	elapsed := run.EndTime.Sub(run.StartTime)
	if !run.IsTerminal() {
		log.Warn("run ended outside a terminal stage", "stage", run.Stage)
	}
	metrics.CapturePipelineMetrics(string(run.Operation), run.Status(), elapsed)
	log.Info("run finished", "status", run.Status(), "stage", run.Stage, "elapsed", elapsed)
}

// discard removes everything a failed ingest may have left behind.
func (s *service) discard(ctx context.Context, log *logger_i.Logger, id string) {
	if err := s.Artifacts.Remove(id); err != nil {
		log.Error("could not remove artifact", "error", err)
	}
	if err := s.Repository.DeleteDocument(ctx, id); err != nil {
		log.Error("could not remove repository entry", "error", err)
	}
}

func (s *service) executeExtractStep(ctx context.Context, log *logger_i.Logger, doc commonModels.Document) (string, error) {
	log.Debug("extracting", "path", doc.Path, "format", doc.Format)
	result, err := s.Extractor.FromFile(ctx, doc.Path, doc.Format)
	if err != nil {
		return "", err
	}
	return assemble.Join(result.Pages), nil
}

func (s *service) executeRepositoryStep(ctx context.Context, doc commonModels.Document) error {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("repository", time.Since(start)) }()

	return s.Repository.SaveDocument(ctx, doc)
}

func (s *service) executeLLMStep(ctx context.Context, log *logger_i.Logger, question string, docContext string, raw *llm.Attachment) (string, error) {
	log.Debug("asking provider", "contextChars", len(docContext), "attachment", raw != nil)
	return s.Answerer.Answer(ctx, question, docContext, raw)
}

func removeUpload(log *logger_i.Logger, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("could not remove temporary upload", "path", path, "error", err)
	}
}
