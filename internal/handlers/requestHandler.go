package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/akolanti/DocQA/internal/adapter"
	"github.com/akolanti/DocQA/internal/api"
	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/rag"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

type DocumentHandler struct {
	service rag.Service
	tempDir string
	logger  *logger_i.Logger
}

// NewDocumentHandler keeps received uploads in tempDir until the pipeline consumes them.
func NewDocumentHandler(service rag.Service, tempDir string) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		tempDir: tempDir,
		logger:  logger_i.NewLogger("DocumentHandler"),
	}
}

// HealthHandler godoc
// @Summary      Liveness probe
// @Tags         Health
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       /healthz [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

// UploadHandler godoc
// @Summary      Upload a document
// @Description  Receives a PDF or DOCX via multipart/form-data, stores the canonical artifact and returns a preview of the extracted text.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "The PDF or DOCX file to upload"
// @Success      200  {object}  api.UploadResponse  "Document stored and text extracted"
// @Failure      400  {object}  api.ErrorResponse   "No file, file too large or unsupported type"
// @Failure      500  {object}  api.ErrorResponse   "Conversion or extraction failed"
// @Router       /upload [post]
func (h *DocumentHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithTrace(r.Context(), config.TRACE_ID_KEY)
	if !validateContext(r.Context(), log) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		log.Warn("bad upload request", "error", err)
		writeBadRequest(w, r, "File too large or bad request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	fileReader, fileMetadata, err := r.FormFile(config.UploadField)
	if err != nil {
		log.Warn("no file in upload", "error", err)
		writeBadRequest(w, r, "No file uploaded")
		return
	}
	defer fileReader.Close()

	tempPath, err := h.saveTemp(fileReader)
	if err != nil {
		log.Error("could not store upload", "error", err)
		writeJsonResponse(w, http.StatusInternalServerError, api.ErrorResponse{
			Error:   "Storage error",
			Kind:    "StorageError",
			TraceId: traceId(r),
		})
		return
	}

	log.Debug("upload received", "name", fileMetadata.Filename, "size", fileMetadata.Size)
	res, err := h.service.Ingest(r.Context(), commonModels.Upload{TempPath: tempPath, OriginalName: fileMetadata.Filename})
	if err != nil {
		writeFailure(w, r, log, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToUploadResponse(res))
}

// QueryHandler godoc
// @Summary      Ask a question about an uploaded document
// @Description  Extracts the referenced document's text and forwards it with the question to the language model.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Param        request  body      api.QueryRequest   true  "Document reference and question"
// @Success      200      {object}  api.QueryResponse  "The answer"
// @Failure      400      {object}  api.ErrorResponse  "Missing field or malformed body"
// @Failure      404      {object}  api.ErrorResponse  "Unknown document"
// @Failure      500      {object}  api.ErrorResponse  "Extraction or provider failure"
// @Router       /query [post]
func (h *DocumentHandler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithTrace(r.Context(), config.TRACE_ID_KEY)
	if !validateContext(r.Context(), log) {
		return
	}

	var requestData api.QueryRequest
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.Error("Couldn't close the query handler reader", "error", err)
		}
	}(r.Body)
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&requestData); err != nil {
		log.Warn("Bad query request", "error", err)
		writeBadRequest(w, r, "File path and question are required.")
		return
	}

	answer, err := h.service.Query(r.Context(), adapter.ToQueryRequest(requestData))
	if err != nil {
		writeFailure(w, r, log, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToQueryResponse(answer))
}

func (h *DocumentHandler) saveTemp(src io.Reader) (string, error) {
	if err := os.MkdirAll(h.tempDir, 0750); err != nil {
		return "", err
	}
	dst, err := os.CreateTemp(h.tempDir, "upload-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}
