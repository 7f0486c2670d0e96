package fileStore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"github.com/google/uuid"
)

// artifact extensions a document id may be stored under
var knownFormats = []commonModels.DocType{commonModels.PDF, commonModels.TXT}

const extractedSuffix = ".extracted.txt"

// Store keeps one canonical artifact per document id under Root.
// Writes land in a temp file and are renamed into place so readers never see a partial file.
type Store struct {
	Root   string
	logger *logger_i.Logger
}

func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("creating storage root %s: %w", root, err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving storage root %s: %w", root, err)
	}
	return &Store{Root: abs, logger: logger_i.NewLogger("FileStore")}, nil
}

func (s *Store) Path(id string, format commonModels.DocType) string {
	return filepath.Join(s.Root, id+format.Extension())
}

// WorkDir returns a scratch directory inside the root, the caller removes it.
func (s *Store) WorkDir() (string, error) {
	return os.MkdirTemp(s.Root, ".work-*")
}

// Move places srcPath as the artifact for id, consuming srcPath.
// Artifacts of the same id in other formats and its extracted text are removed afterwards.
func (s *Store) Move(srcPath string, id string, format commonModels.DocType) (string, error) {
	if err := validId(id); err != nil {
		return "", err
	}
	staging := filepath.Join(s.Root, ".staging-"+uuid.New().String())

	if err := os.Rename(srcPath, staging); err != nil {
		// cross device rename, fall back to copy
		if copyErr := copyFile(srcPath, staging); copyErr != nil {
			os.Remove(staging)
			return "", fmt.Errorf("staging %s: %w", srcPath, copyErr)
		}
		if err := os.Remove(srcPath); err != nil {
			s.logger.Warn("could not remove source after copy", "path", srcPath, "error", err)
		}
	}

	final := s.Path(id, format)
	if err := os.Rename(staging, final); err != nil {
		os.Remove(staging)
		return "", fmt.Errorf("placing artifact %s: %w", final, err)
	}

	for _, other := range knownFormats {
		if other == format {
			continue
		}
		if err := os.Remove(s.Path(id, other)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("could not remove stale artifact", "id", id, "format", other, "error", err)
		}
	}
	if err := os.Remove(filepath.Join(s.Root, id+extractedSuffix)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("could not remove stale extracted text", "id", id, "error", err)
	}
	s.logger.Debug("artifact stored", "id", id, "path", final)
	return final, nil
}

// WriteExtractedText stores the optional extracted text artifact next to the canonical one.
func (s *Store) WriteExtractedText(id string, text string) (string, error) {
	if err := validId(id); err != nil {
		return "", err
	}
	final := filepath.Join(s.Root, id+extractedSuffix)
	staging := final + ".tmp-" + uuid.New().String()
	if err := os.WriteFile(staging, []byte(text), 0640); err != nil {
		return "", fmt.Errorf("writing extracted text: %w", err)
	}
	if err := os.Rename(staging, final); err != nil {
		os.Remove(staging)
		return "", fmt.Errorf("placing extracted text: %w", err)
	}
	return final, nil
}

func (s *Store) Read(doc commonModels.Document) ([]byte, error) {
	return os.ReadFile(s.Path(doc.Id, doc.Format))
}

// Remove deletes every artifact stored for id. Missing files are not an error.
func (s *Store) Remove(id string) error {
	if err := validId(id); err != nil {
		return err
	}
	paths := []string{filepath.Join(s.Root, id+extractedSuffix)}
	for _, f := range knownFormats {
		paths = append(paths, s.Path(id, f))
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", p, err)
		}
	}
	return nil
}

func validId(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("invalid document id %q", id)
	}
	return nil
}

func copyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
