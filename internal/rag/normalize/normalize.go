// Package normalize turns an accepted upload into the canonical artifact the
// rest of the pipeline reads.
package normalize

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/domain/failures"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Converter turns a DOCX at inputPath into a canonical artifact inside workDir.
type Converter interface {
	Convert(ctx context.Context, inputPath string, workDir string) (string, commonModels.DocType, error)
}

type ArtifactStore interface {
	Move(srcPath string, id string, format commonModels.DocType) (string, error)
	WorkDir() (string, error)
}

type Normalizer struct {
	store     ArtifactStore
	converter Converter
	logger    *logger_i.Logger
}

func New(store ArtifactStore, converter Converter) *Normalizer {
	return &Normalizer{
		store:     store,
		converter: converter,
		logger:    logger_i.NewLogger("Normalizer"),
	}
}

// DetectFormat judges the upload by its original file name, case-insensitive.
func DetectFormat(name string) commonModels.DocType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return commonModels.PDF
	case ".docx":
		return commonModels.DOCX
	default:
		return commonModels.ERR
	}
}

// Normalize stores upload as the canonical artifact for documentId.
// The temporary upload never outlives this call.
func (n *Normalizer) Normalize(ctx context.Context, upload commonModels.Upload, documentId string) (commonModels.Document, error) {
	log := n.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("documentId", documentId)
	defer removeTemp(log, upload.TempPath)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("normalize", time.Since(start)) }()

	format := DetectFormat(upload.OriginalName)
	var (
		path string
		err  error
	)
	switch format {
	case commonModels.PDF:
		path, err = n.store.Move(upload.TempPath, documentId, commonModels.PDF)
		if err != nil {
			log.Error("could not store pdf", "error", err)
			return commonModels.Document{}, failures.New(failures.StorageError, "could not store document", err)
		}
	case commonModels.DOCX:
		path, format, err = n.convert(ctx, log, upload.TempPath, documentId)
		if err != nil {
			return commonModels.Document{}, err
		}
	default:
		log.Warn("rejected upload", "name", upload.OriginalName)
		return commonModels.Document{}, failures.Newf(failures.UnsupportedFormat, nil, "unsupported file type %q", filepath.Ext(upload.OriginalName))
	}

	doc := commonModels.Document{
		Id:                  documentId,
		Path:                path,
		Format:              format,
		OriginalName:        upload.OriginalName,
		LastIngestTimestamp: time.Now(),
	}
	if format == commonModels.PDF {
		if pages, err := api.PageCountFile(path); err != nil {
			log.Warn("could not count pages", "error", err)
		} else {
			doc.PageCount = pages
		}
	}

	log.Info("document normalized", "format", format, "pages", doc.PageCount)
	return doc, nil
}

func (n *Normalizer) convert(ctx context.Context, log *logger_i.Logger, tempPath string, documentId string) (string, commonModels.DocType, error) {
	workDir, err := n.store.WorkDir()
	if err != nil {
		return "", "", failures.New(failures.StorageError, "could not prepare conversion", err)
	}
	defer os.RemoveAll(workDir)

	converted, format, err := n.converter.Convert(ctx, tempPath, workDir)
	if err != nil {
		log.Error("conversion failed", "error", err)
		return "", "", failures.New(failures.ConversionError, "could not convert docx", err)
	}

	path, err := n.store.Move(converted, documentId, format)
	if err != nil {
		log.Error("could not store converted artifact", "error", err)
		return "", "", failures.New(failures.StorageError, "could not store document", err)
	}
	return path, format, nil
}

func removeTemp(log *logger_i.Logger, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("could not remove temporary upload", "path", path, "error", err)
	}
}
