package rag

import (
	"context"
	"strings"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/domain/failures"
	"github.com/akolanti/DocQA/internal/domain/pipelineModel"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/internal/rag/llm"
	"github.com/akolanti/DocQA/internal/rag/normalize"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Service is what the http handlers and the mcp tools call.
// Implementations never retry: the first failing component ends the run.
type Service interface {
	Ingest(ctx context.Context, upload commonModels.Upload) (DocumentResult, error)
	Query(ctx context.Context, req commonModels.QueryRequest) (string, error)
	Describe(ctx context.Context, ref string) (DocumentResult, error)
}

// DocumentResult is a stored document together with its full extracted text.
type DocumentResult struct {
	Document    commonModels.Document
	ArtifactRef string
	Text        string
}

type Normalizer interface {
	Normalize(ctx context.Context, upload commonModels.Upload, documentId string) (commonModels.Document, error)
}

type Extractor interface {
	FromFile(ctx context.Context, path string, format commonModels.DocType) (commonModels.ExtractionResult, error)
}

type Answerer interface {
	Answer(ctx context.Context, question string, docContext string, raw *llm.Attachment) (string, error)
}

type ArtifactStore interface {
	Read(doc commonModels.Document) ([]byte, error)
	Remove(id string) error
	WriteExtractedText(id string, text string) (string, error)
}

type Dependencies struct {
	Normalizer Normalizer
	Extractor  Extractor
	Answerer   Answerer
	Artifacts  ArtifactStore
	Repository commonModels.DocumentRepository
}

type Options struct {
	AnswerMode           config.AnswerMode
	SingleSlot           bool
	PersistExtractedText bool
}

type service struct {
	Dependencies
	opts     Options
	validate *validator.Validate
	logger   *logger_i.Logger
}

func NewService(deps Dependencies, opts Options) Service {
	if opts.AnswerMode == "" {
		opts.AnswerMode = config.AnswerModeText
	}
	return &service{
		Dependencies: deps,
		opts:         opts,
		validate:     validator.New(),
		logger:       logger_i.NewLogger("RAG Service"),
	}
}

func (s *service) Ingest(ctx context.Context, upload commonModels.Upload) (DocumentResult, error) {
	run := s.newRun(ctx, pipelineModel.OperationIngest)
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("runId", run.Id, "operation", run.Operation)
	defer s.finish(&run, log)

	format := normalize.DetectFormat(upload.OriginalName)
	if format == commonModels.ERR {
		removeUpload(log, upload.TempPath)
		return DocumentResult{}, s.fail(&run, log, failures.Newf(failures.UnsupportedFormat, nil, "unsupported file %q", upload.OriginalName))
	}
	advance(&run, pipelineModel.Validated, log)

	run.DocumentId = s.newDocumentId()
	log = log.With("documentId", run.DocumentId)

	doc, err := s.Normalizer.Normalize(ctx, upload, run.DocumentId)
	if err != nil {
		return DocumentResult{}, s.fail(&run, log, err)
	}
	if format != doc.Format {
		advance(&run, pipelineModel.Converted, log)
	}

	text, err := s.executeExtractStep(ctx, log, doc)
	if err != nil {
		if !s.tolerateNoText(err) {
			s.discard(ctx, log, run.DocumentId)
			return DocumentResult{}, s.fail(&run, log, err)
		}
		log.Warn("no usable text, the raw document will be attached to queries", "error", err)
	}

	if s.opts.PersistExtractedText && text != "" {
		if _, err := s.Artifacts.WriteExtractedText(doc.Id, text); err != nil {
			log.Warn("could not persist extracted text", "error", err)
		}
	}

	if err := s.executeRepositoryStep(ctx, doc); err != nil {
		s.discard(ctx, log, run.DocumentId)
		return DocumentResult{}, s.fail(&run, log, failures.New(failures.StorageError, "could not record document", err))
	}
	advance(&run, pipelineModel.Extracted, log)
	metrics.IncrementIngestedDocuments()

	return DocumentResult{Document: doc, ArtifactRef: artifactRef(doc), Text: text}, nil
}

func (s *service) Query(ctx context.Context, req commonModels.QueryRequest) (string, error) {
	run := s.newRun(ctx, pipelineModel.OperationQuery)
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("runId", run.Id, "operation", run.Operation)
	defer s.finish(&run, log)

	req.DocumentRef = strings.TrimSpace(req.DocumentRef)
	req.Question = strings.TrimSpace(req.Question)
	if err := s.validate.Struct(req); err != nil {
		return "", s.fail(&run, log, failures.New(failures.ValidationError, "document reference and question are required", err))
	}

	doc, err := s.lookup(ctx, req.DocumentRef)
	if err != nil {
		return "", s.fail(&run, log, err)
	}
	run.DocumentId = doc.Id
	log = log.With("documentId", doc.Id)
	advance(&run, pipelineModel.Validated, log)

	var docContext string
	var raw *llm.Attachment
	if s.opts.AnswerMode == config.AnswerModeAttachment {
		raw, err = s.attachment(doc)
	} else {
		docContext, err = s.executeExtractStep(ctx, log, doc)
		if err != nil && s.opts.AnswerMode == config.AnswerModeFallback && failures.KindOf(err) == failures.ExtractionError {
			log.Info("falling back to the raw document", "error", err)
			raw, err = s.attachment(doc)
		}
	}
	if err != nil {
		return "", s.fail(&run, log, err)
	}
	advance(&run, pipelineModel.Extracted, log)

	answer, err := s.executeLLMStep(ctx, log, req.Question, docContext, raw)
	if err != nil {
		return "", s.fail(&run, log, err)
	}
	advance(&run, pipelineModel.Answered, log)
	return answer, nil
}

// Describe returns a stored document and its current text without calling the provider.
func (s *service) Describe(ctx context.Context, ref string) (DocumentResult, error) {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY)

	doc, err := s.lookup(ctx, strings.TrimSpace(ref))
	if err != nil {
		return DocumentResult{}, err
	}
	text, err := s.executeExtractStep(ctx, log.With("documentId", doc.Id), doc)
	if err != nil && !s.tolerateNoText(err) {
		return DocumentResult{}, err
	}
	return DocumentResult{Document: doc, ArtifactRef: artifactRef(doc), Text: text}, nil
}

func (s *service) lookup(ctx context.Context, ref string) (commonModels.Document, error) {
	id := ResolveReference(ref)
	if id == "" {
		return commonModels.Document{}, failures.Newf(failures.DocumentNotFound, nil, "no document for reference %q", ref)
	}

	start := time.Now()
	doc, found, err := s.Repository.GetDocument(ctx, id)
	metrics.CaptureExecutionMetrics("repository", time.Since(start))
	if err != nil {
		return commonModels.Document{}, failures.New(failures.StorageError, "could not look up document", err)
	}
	if !found {
		return commonModels.Document{}, failures.Newf(failures.DocumentNotFound, nil, "no document for reference %q", ref)
	}
	return doc, nil
}

func (s *service) attachment(doc commonModels.Document) (*llm.Attachment, error) {
	data, err := s.Artifacts.Read(doc)
	if err != nil {
		return nil, failures.New(failures.StorageError, "could not read document", err)
	}
	return &llm.Attachment{Data: data, MIMEType: doc.Format.MIMEType(), Name: doc.FileName()}, nil
}

// tolerateNoText reports whether an ingest may finish without text because
// queries can still send the raw document.
func (s *service) tolerateNoText(err error) bool {
	return s.opts.AnswerMode != config.AnswerModeText && failures.KindOf(err) == failures.ExtractionError
}

func (s *service) newDocumentId() string {
	if s.opts.SingleSlot {
		return config.SingleSlotDocumentId
	}
	return uuid.New().String()
}

func (s *service) newRun(ctx context.Context, op pipelineModel.Operation) pipelineModel.Run {
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return pipelineModel.NewRun(uuid.New().String(), trace, op)
}

// ResolveReference maps "/uploads/<id>.<ext>", "<id>.<ext>" and "<id>" to the document id.
func ResolveReference(ref string) string {
	ref = strings.TrimSpace(ref)
	ref = strings.TrimPrefix(ref, config.UploadsURLPrefix+"/")
	if i := strings.LastIndexAny(ref, `/\`); i >= 0 {
		ref = ref[i+1:]
	}
	id, _, _ := strings.Cut(ref, ".")
	return id
}

func artifactRef(doc commonModels.Document) string {
	return config.UploadsURLPrefix + "/" + doc.FileName()
}
