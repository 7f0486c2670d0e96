package normalize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/lu4p/cat/docxtxt"
)

// TextConverter reads the DOCX body and stores it as canonical text.
type TextConverter struct{}

func (TextConverter) Convert(ctx context.Context, inputPath string, workDir string) (string, commonModels.DocType, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	text, err := docxtxt.ToStr(inputPath)
	if err != nil {
		return "", "", fmt.Errorf("reading docx: %w", err)
	}

	out := filepath.Join(workDir, "converted.txt")
	if err := os.WriteFile(out, []byte(text), 0640); err != nil {
		return "", "", fmt.Errorf("writing converted text: %w", err)
	}
	return out, commonModels.TXT, nil
}

// SofficeConverter runs LibreOffice headless to produce a canonical PDF.
type SofficeConverter struct {
	Binary  string
	Timeout time.Duration
}

func (s SofficeConverter) Convert(ctx context.Context, inputPath string, workDir string) (string, commonModels.DocType, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	// soffice names its output after the input
	input := filepath.Join(workDir, "input.docx")
	if err := os.Rename(inputPath, input); err != nil {
		return "", "", fmt.Errorf("staging docx: %w", err)
	}

	// one profile per conversion, soffice locks its profile directory
	profile := "-env:UserInstallation=file://" + filepath.Join(workDir, "profile")
	cmd := exec.CommandContext(ctx, s.Binary, profile, "--headless", "--convert-to", "pdf", "--outdir", workDir, input)
	output, err := cmd.CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", "", fmt.Errorf("soffice timed out after %s", s.Timeout)
	}
	if err != nil {
		return "", "", fmt.Errorf("soffice failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	out := filepath.Join(workDir, "input.pdf")
	if _, err := os.Stat(out); err != nil {
		return "", "", fmt.Errorf("soffice produced no pdf: %w", err)
	}
	return out, commonModels.PDF, nil
}
