package rag_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/data/fileStore"
	"github.com/akolanti/DocQA/internal/data/store"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/domain/failures"
	"github.com/akolanti/DocQA/internal/rag"
	"github.com/akolanti/DocQA/internal/rag/answer"
	"github.com/akolanti/DocQA/internal/rag/extract"
	"github.com/akolanti/DocQA/internal/rag/llm"
	"github.com/akolanti/DocQA/internal/rag/normalize"
	"github.com/akolanti/DocQA/internal/testutil"
	"github.com/stretchr/testify/mock"
)

type harness struct {
	svc      rag.Service
	files    *fileStore.Store
	repo     *store.InMemoryDocumentStore
	answerer *MockAnswerer
	uploads  string
}

func newHarness(t *testing.T, opts rag.Options, answerer rag.Answerer) *harness {
	t.Helper()
	files, err := fileStore.New(t.TempDir())
	if err != nil {
		t.Fatalf("fileStore.New: %v", err)
	}
	h := &harness{
		files:   files,
		repo:    store.InitInMemoryDocumentStore(),
		uploads: t.TempDir(),
	}
	if answerer == nil {
		h.answerer = &MockAnswerer{}
		answerer = h.answerer
	}
	h.svc = rag.NewService(rag.Dependencies{
		Normalizer: normalize.New(files, &MockConverter{}),
		Extractor:  extract.New(),
		Answerer:   answerer,
		Artifacts:  files,
		Repository: h.repo,
	}, opts)
	return h
}

// upload writes content where the http layer would put a received file.
func (h *harness) upload(t *testing.T, name string, content []byte) commonModels.Upload {
	t.Helper()
	f, err := os.CreateTemp(h.uploads, "upload-*")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	f.Write(content)
	f.Close()
	return commonModels.Upload{TempPath: f.Name(), OriginalName: name}
}

func assertGone(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s to be removed, stat err = %v", path, err)
	}
}

func TestIngestThenQuery_FullContextReachesProvider(t *testing.T) {
	provider := new(llm.MockProvider)
	h := newHarness(t, rag.Options{}, answer.New(provider, time.Second))

	up := h.upload(t, "Letter.PDF", testutil.PDF("Authorized by Jane Doe"))
	res, err := h.svc.Ingest(context.Background(), up)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if !strings.Contains(res.Text, "Authorized by Jane Doe") {
		t.Errorf("extracted text %q is missing the phrase", res.Text)
	}
	if want := "/uploads/" + res.Document.Id + ".pdf"; res.ArtifactRef != want {
		t.Errorf("ArtifactRef = %s; want %s", res.ArtifactRef, want)
	}
	if res.Document.OriginalName != "Letter.PDF" {
		t.Errorf("OriginalName = %s", res.Document.OriginalName)
	}
	assertGone(t, up.TempPath)

	provider.On("Generate", mock.Anything, llm.Request{Question: "Who signed the letter?", Context: res.Text}).
		Return("Jane Doe", nil).Once()

	got, err := h.svc.Query(context.Background(), commonModels.QueryRequest{DocumentRef: res.ArtifactRef, Question: "Who signed the letter?"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if got != "Jane Doe" {
		t.Errorf("answer = %q", got)
	}
	provider.AssertExpectations(t)
}

func TestIngest_Docx(t *testing.T) {
	h := newHarness(t, rag.Options{}, nil)

	up := h.upload(t, "report.docx", []byte("not inspected by the mock converter"))
	res, err := h.svc.Ingest(context.Background(), up)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if res.Document.Format != commonModels.TXT {
		t.Errorf("Format = %s; want txt", res.Document.Format)
	}
	if res.Text != "Converted body text" {
		t.Errorf("Text = %q", res.Text)
	}
	assertGone(t, up.TempPath)
}

func TestIngest_RealDocx(t *testing.T) {
	h := newHarness(t, rag.Options{}, nil)
	h.svc = rag.NewService(rag.Dependencies{
		Normalizer: normalize.New(h.files, normalize.TextConverter{}),
		Extractor:  extract.New(),
		Answerer:   h.answerer,
		Artifacts:  h.files,
		Repository: h.repo,
	}, rag.Options{})

	res, err := h.svc.Ingest(context.Background(), h.upload(t, "letter.docx", testutil.DOCX("Authorized by Jane Doe")))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if !strings.Contains(res.Text, "Authorized by Jane Doe") {
		t.Errorf("Text = %q", res.Text)
	}

	_, err = h.svc.Ingest(context.Background(), h.upload(t, "renamed.docx", []byte("plain notes, not a word file")))
	if failures.KindOf(err) != failures.ConversionError {
		t.Fatalf("expected ConversionError, got %v", err)
	}
}

func TestIngest_UnsupportedFormat(t *testing.T) {
	tests := []string{"notes.txt", "image.png", "archive.pdf.zip", "noextension"}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			norm := &MockNormalizer{}
			files, _ := fileStore.New(t.TempDir())
			repo := store.InitInMemoryDocumentStore()
			svc := rag.NewService(rag.Dependencies{
				Normalizer: norm,
				Extractor:  extract.New(),
				Answerer:   &MockAnswerer{},
				Artifacts:  files,
				Repository: repo,
			}, rag.Options{})

			tmp := testutil.WriteFile(t, t.TempDir(), "incoming", []byte("data"))
			_, err := svc.Ingest(context.Background(), commonModels.Upload{TempPath: tmp, OriginalName: name})

			if failures.KindOf(err) != failures.UnsupportedFormat {
				t.Fatalf("expected UnsupportedFormat, got %v", err)
			}
			if norm.Calls != 0 {
				t.Error("normalizer must not run for rejected uploads")
			}
			assertGone(t, tmp)
		})
	}
}

func TestIngest_NoTextFailsAndCleansUp(t *testing.T) {
	h := newHarness(t, rag.Options{PersistExtractedText: true}, nil)

	_, err := h.svc.Ingest(context.Background(), h.upload(t, "scan.pdf", testutil.PDF("")))
	if failures.KindOf(err) != failures.ExtractionError {
		t.Fatalf("expected ExtractionError, got %v", err)
	}

	entries, _ := os.ReadDir(h.files.Root)
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), ".") {
			t.Errorf("artifact %s left behind after failed ingest", e.Name())
		}
	}
}

func TestIngest_PersistExtractedText(t *testing.T) {
	h := newHarness(t, rag.Options{PersistExtractedText: true}, nil)

	res, err := h.svc.Ingest(context.Background(), h.upload(t, "a.pdf", testutil.PDF("Persist me")))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(h.files.Root, res.Document.Id+".extracted.txt"))
	if err != nil {
		t.Fatalf("extracted text artifact missing: %v", err)
	}
	if string(data) != res.Text {
		t.Errorf("persisted %q; want %q", data, res.Text)
	}
}

func TestSingleSlot_ReingestOverwrites(t *testing.T) {
	var seenContext string
	answerer := &MockAnswerer{OnAnswer: func(ctx context.Context, q string, c string, raw *llm.Attachment) (string, error) {
		seenContext = c
		return "ok", nil
	}}
	h := newHarness(t, rag.Options{SingleSlot: true}, answerer)

	first, err := h.svc.Ingest(context.Background(), h.upload(t, "first.pdf", testutil.PDF("Alpha contract")))
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	second, err := h.svc.Ingest(context.Background(), h.upload(t, "second.pdf", testutil.PDF("Beta contract")))
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if first.Document.Id != config.SingleSlotDocumentId || second.Document.Id != config.SingleSlotDocumentId {
		t.Fatalf("single slot ids: %s, %s", first.Document.Id, second.Document.Id)
	}

	if _, err := h.svc.Query(context.Background(), commonModels.QueryRequest{DocumentRef: first.ArtifactRef, Question: "Which contract?"}); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if !strings.Contains(seenContext, "Beta") || strings.Contains(seenContext, "Alpha") {
		t.Errorf("query against the old reference saw %q; want the second document", seenContext)
	}
}

func TestSingleSlot_TextlessReingestDropsExtractedText(t *testing.T) {
	h := newHarness(t, rag.Options{SingleSlot: true, PersistExtractedText: true, AnswerMode: config.AnswerModeFallback}, nil)
	extracted := filepath.Join(h.files.Root, config.SingleSlotDocumentId+".extracted.txt")

	if _, err := h.svc.Ingest(context.Background(), h.upload(t, "first.pdf", testutil.PDF("Alpha secret contract"))); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if _, err := os.Stat(extracted); err != nil {
		t.Fatalf("extracted text not persisted: %v", err)
	}

	res, err := h.svc.Ingest(context.Background(), h.upload(t, "scan.pdf", testutil.PDF("")))
	if err != nil {
		t.Fatalf("textless ingest: %v", err)
	}
	if res.Text != "" {
		t.Errorf("Text = %q; want empty", res.Text)
	}
	assertGone(t, extracted)
}

func TestSingleSlot_PdfReplacesDocx(t *testing.T) {
	h := newHarness(t, rag.Options{SingleSlot: true}, nil)

	if _, err := h.svc.Ingest(context.Background(), h.upload(t, "a.docx", []byte("x"))); err != nil {
		t.Fatalf("docx ingest: %v", err)
	}
	if _, err := h.svc.Ingest(context.Background(), h.upload(t, "b.pdf", testutil.PDF("Now a pdf"))); err != nil {
		t.Fatalf("pdf ingest: %v", err)
	}
	assertGone(t, h.files.Path(config.SingleSlotDocumentId, commonModels.TXT))
}

func TestQuery_ValidationNeverReachesAnswerer(t *testing.T) {
	tests := []struct {
		name string
		req  commonModels.QueryRequest
	}{
		{"missing question", commonModels.QueryRequest{DocumentRef: "/uploads/upload.pdf"}},
		{"missing reference", commonModels.QueryRequest{Question: "Who signed?"}},
		{"whitespace question", commonModels.QueryRequest{DocumentRef: "/uploads/upload.pdf", Question: "   "}},
		{"both missing", commonModels.QueryRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, rag.Options{}, nil)
			_, err := h.svc.Query(context.Background(), tt.req)
			if failures.KindOf(err) != failures.ValidationError {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if h.answerer.Calls != 0 {
				t.Error("answering client was called for an invalid request")
			}
		})
	}
}

func TestQuery_UnknownDocument(t *testing.T) {
	h := newHarness(t, rag.Options{}, nil)
	_, err := h.svc.Query(context.Background(), commonModels.QueryRequest{DocumentRef: "/uploads/missing.pdf", Question: "q"})
	if failures.KindOf(err) != failures.DocumentNotFound {
		t.Fatalf("expected DocumentNotFound, got %v", err)
	}
}

func TestQuery_ProviderErrorReturnedVerbatim(t *testing.T) {
	providerErr := failures.New(failures.ProviderError, "quota exceeded", errors.New("429"))
	answerer := &MockAnswerer{OnAnswer: func(ctx context.Context, q string, c string, raw *llm.Attachment) (string, error) {
		return "", providerErr
	}}
	h := newHarness(t, rag.Options{}, answerer)

	res, err := h.svc.Ingest(context.Background(), h.upload(t, "a.pdf", testutil.PDF("text")))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	_, err = h.svc.Query(context.Background(), commonModels.QueryRequest{DocumentRef: res.Document.Id, Question: "q"})
	if !errors.Is(err, providerErr) {
		t.Fatalf("expected the provider failure, got %v", err)
	}
	if answerer.Calls != 1 {
		t.Errorf("expected a single attempt, got %d", answerer.Calls)
	}
}

func TestFallbackMode_AttachesRawDocument(t *testing.T) {
	var got *llm.Attachment
	answerer := &MockAnswerer{OnAnswer: func(ctx context.Context, q string, c string, raw *llm.Attachment) (string, error) {
		got = raw
		return "read from the scan", nil
	}}
	h := newHarness(t, rag.Options{AnswerMode: config.AnswerModeFallback}, answerer)

	scan := testutil.PDF("")
	res, err := h.svc.Ingest(context.Background(), h.upload(t, "scan.pdf", scan))
	if err != nil {
		t.Fatalf("fallback ingest should tolerate a textless pdf: %v", err)
	}
	if res.Text != "" {
		t.Errorf("Text = %q; want empty", res.Text)
	}

	ans, err := h.svc.Query(context.Background(), commonModels.QueryRequest{DocumentRef: res.ArtifactRef, Question: "q"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if ans != "read from the scan" {
		t.Errorf("answer = %q", ans)
	}
	if got == nil || got.MIMEType != "application/pdf" || string(got.Data) != string(scan) {
		t.Errorf("raw document was not attached: %+v", got)
	}
}

func TestAttachmentMode_SkipsExtraction(t *testing.T) {
	var gotContext string
	var got *llm.Attachment
	answerer := &MockAnswerer{OnAnswer: func(ctx context.Context, q string, c string, raw *llm.Attachment) (string, error) {
		gotContext, got = c, raw
		return "ok", nil
	}}
	h := newHarness(t, rag.Options{AnswerMode: config.AnswerModeAttachment}, answerer)

	res, err := h.svc.Ingest(context.Background(), h.upload(t, "a.pdf", testutil.PDF("Some text")))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if _, err := h.svc.Query(context.Background(), commonModels.QueryRequest{DocumentRef: res.ArtifactRef, Question: "q"}); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if gotContext != "" || got == nil {
		t.Errorf("attachment mode sent context %q and attachment %v", gotContext, got)
	}
}

func TestDescribe(t *testing.T) {
	h := newHarness(t, rag.Options{}, nil)
	res, err := h.svc.Ingest(context.Background(), h.upload(t, "a.pdf", testutil.PDF("Described text")))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	desc, err := h.svc.Describe(context.Background(), res.Document.FileName())
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if desc.Text != res.Text || desc.Document.Id != res.Document.Id {
		t.Errorf("Describe = %+v; want %+v", desc, res)
	}
	if h.answerer.Calls != 0 {
		t.Error("Describe must not call the provider")
	}
}

func TestDescribe_TextlessDocumentInFallbackMode(t *testing.T) {
	h := newHarness(t, rag.Options{AnswerMode: config.AnswerModeFallback}, nil)
	res, err := h.svc.Ingest(context.Background(), h.upload(t, "scan.pdf", testutil.PDF("")))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	desc, err := h.svc.Describe(context.Background(), res.ArtifactRef)
	if err != nil {
		t.Fatalf("Describe failed for a document ingest accepted: %v", err)
	}
	if desc.Text != "" || desc.Document.Id != res.Document.Id {
		t.Errorf("Describe = %+v", desc)
	}
}

func TestDescribe_TextlessDocumentInTextMode(t *testing.T) {
	h := newHarness(t, rag.Options{}, nil)
	doc := commonModels.Document{Id: "scan", Format: commonModels.PDF, OriginalName: "scan.pdf"}
	path, err := h.files.Move(testutil.WriteFile(t, t.TempDir(), "scan", testutil.PDF("")), doc.Id, doc.Format)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	doc.Path = path
	h.repo.SaveDocument(context.Background(), doc)

	if _, err := h.svc.Describe(context.Background(), "scan"); failures.KindOf(err) != failures.ExtractionError {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}

func TestResolveReference(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"/uploads/upload.pdf", "upload"},
		{"upload.docx", "upload"},
		{"upload", "upload"},
		{"  /uploads/abc-123.txt ", "abc-123"},
		{"uploads/abc-123.pdf", "abc-123"},
		{"", ""},
		{"/uploads/", ""},
	}
	for _, tt := range tests {
		if got := rag.ResolveReference(tt.ref); got != tt.want {
			t.Errorf("ResolveReference(%q) = %q; want %q", tt.ref, got, tt.want)
		}
	}
}
