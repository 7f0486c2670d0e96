package rag_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/rag/llm"
)

// MockAnswerer implements rag.Answerer
type MockAnswerer struct {
	OnAnswer func(ctx context.Context, question string, docContext string, raw *llm.Attachment) (string, error)
	Calls    int
}

func (m *MockAnswerer) Answer(ctx context.Context, question string, docContext string, raw *llm.Attachment) (string, error) {
	m.Calls++
	if m.OnAnswer != nil {
		return m.OnAnswer(ctx, question, docContext, raw)
	}
	return "default answer", nil
}

// MockConverter implements normalize.Converter by writing canonical text.
type MockConverter struct {
	OnConvert func(ctx context.Context, inputPath string, workDir string) (string, commonModels.DocType, error)
}

func (m *MockConverter) Convert(ctx context.Context, inputPath string, workDir string) (string, commonModels.DocType, error) {
	if m.OnConvert != nil {
		return m.OnConvert(ctx, inputPath, workDir)
	}
	out := filepath.Join(workDir, "converted.txt")
	if err := os.WriteFile(out, []byte("Converted body text"), 0640); err != nil {
		return "", "", err
	}
	return out, commonModels.TXT, nil
}

// MockNormalizer implements rag.Normalizer
type MockNormalizer struct {
	OnNormalize func(ctx context.Context, upload commonModels.Upload, documentId string) (commonModels.Document, error)
	Calls       int
}

func (m *MockNormalizer) Normalize(ctx context.Context, upload commonModels.Upload, documentId string) (commonModels.Document, error) {
	m.Calls++
	if m.OnNormalize != nil {
		return m.OnNormalize(ctx, upload, documentId)
	}
	return commonModels.Document{Id: documentId}, nil
}
