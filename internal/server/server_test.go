package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/DocQA/internal/api"
	"github.com/akolanti/DocQA/internal/data/fileStore"
	"github.com/akolanti/DocQA/internal/data/store"
	"github.com/akolanti/DocQA/internal/rag"
	"github.com/akolanti/DocQA/internal/rag/answer"
	"github.com/akolanti/DocQA/internal/rag/extract"
	"github.com/akolanti/DocQA/internal/rag/llm"
	"github.com/akolanti/DocQA/internal/rag/normalize"
	"github.com/akolanti/DocQA/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, provider llm.Provider, opts rag.Options) *httptest.Server {
	t.Helper()
	files, err := fileStore.New(t.TempDir())
	require.NoError(t, err)

	svc := rag.NewService(rag.Dependencies{
		Normalizer: normalize.New(files, normalize.TextConverter{}),
		Extractor:  extract.New(),
		Answerer:   answer.New(provider, time.Second),
		Artifacts:  files,
		Repository: store.InitInMemoryDocumentStore(),
	}, opts)

	srv := httptest.NewServer(NewRouter(Params{Service: svc, StorageRoot: files.Root, TempDir: t.TempDir()}))
	t.Cleanup(srv.Close)
	return srv
}

func upload(t *testing.T, baseURL string, name string, content []byte) *http.Response {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	fw.Write(content)
	mw.Close()

	resp, err := http.Post(baseURL+"/upload", mw.FormDataContentType(), body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestUploadQueryRoundTrip(t *testing.T) {
	provider := new(llm.MockProvider)
	provider.On("Generate", mock.Anything, mock.MatchedBy(func(r llm.Request) bool {
		return strings.Contains(r.Context, "Authorized by Jane Doe") && r.Question == "Who authorized this?"
	})).Return("Jane Doe authorized it.", nil).Once()
	srv := newTestServer(t, provider, rag.Options{SingleSlot: true})

	resp := upload(t, srv.URL, "letter.pdf", testutil.PDF("Authorized by Jane Doe"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-Id"))

	var up api.UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&up))
	assert.Equal(t, "/uploads/upload.pdf", up.FilePath)
	assert.Contains(t, up.TextExtracted, "Authorized by Jane Doe")

	// the stored artifact is served back
	artifact, err := http.Get(srv.URL + up.FilePath)
	require.NoError(t, err)
	defer artifact.Body.Close()
	data, _ := io.ReadAll(artifact.Body)
	assert.Equal(t, http.StatusOK, artifact.StatusCode)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	payload, _ := json.Marshal(api.QueryRequest{FilePath: up.FilePath, Question: "Who authorized this?"})
	qresp, err := http.Post(srv.URL+"/query", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer qresp.Body.Close()
	require.Equal(t, http.StatusOK, qresp.StatusCode)

	var q api.QueryResponse
	require.NoError(t, json.NewDecoder(qresp.Body).Decode(&q))
	assert.Equal(t, "Jane Doe authorized it.", q.Answer)
	provider.AssertExpectations(t)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	srv := newTestServer(t, new(llm.MockProvider), rag.Options{})

	resp := upload(t, srv.URL, "notes.txt", []byte("plain text"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body api.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Only PDF and DOCX files are allowed", body.Error)
	assert.Equal(t, "UnsupportedFormat", body.Kind)
	assert.Equal(t, resp.Header.Get("X-Trace-Id"), body.TraceId)
}

func TestQueryEmptyAnswer(t *testing.T) {
	provider := new(llm.MockProvider)
	provider.On("Generate", mock.Anything, mock.Anything).Return("   ", nil)
	srv := newTestServer(t, provider, rag.Options{})

	resp := upload(t, srv.URL, "a.pdf", testutil.PDF("Some content"))
	var up api.UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&up))

	payload, _ := json.Marshal(api.QueryRequest{FilePath: up.FilePath, Question: "Anything?"})
	qresp, err := http.Post(srv.URL+"/query", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer qresp.Body.Close()

	var q api.QueryResponse
	require.NoError(t, json.NewDecoder(qresp.Body).Decode(&q))
	assert.Equal(t, "No answer found", q.Answer)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, new(llm.MockProvider), rag.Options{})

	for _, path := range []string{"/healthz", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	srv := &http.Server{Addr: addr, Handler: http.NotFoundHandler()}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, srv) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
