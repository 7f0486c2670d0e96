package adapter

import (
	"github.com/akolanti/DocQA/internal/api"
	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/domain/failures"
	"github.com/akolanti/DocQA/internal/rag"
	"github.com/akolanti/DocQA/internal/rag/assemble"
)

const uploadSuccessMessage = "File uploaded and processed successfully."

// ToUploadResponse cuts the extracted text down to the preview, the pipeline keeps the full text.
func ToUploadResponse(res rag.DocumentResult) api.UploadResponse {
	return api.UploadResponse{
		Message:       uploadSuccessMessage,
		FilePath:      res.ArtifactRef,
		DocumentId:    res.Document.Id,
		TextExtracted: assemble.Preview(res.Text, config.PreviewCharLimit),
	}
}

func ToQueryRequest(req api.QueryRequest) commonModels.QueryRequest {
	return commonModels.QueryRequest{
		DocumentRef: req.FilePath,
		Question:    req.Question,
	}
}

func ToQueryResponse(answer string) api.QueryResponse {
	return api.QueryResponse{Answer: answer}
}

// ToErrorResponse maps a pipeline failure to its status code and client safe body.
func ToErrorResponse(err error, traceId string) (int, api.ErrorResponse) {
	kind := failures.KindOf(err)
	return failures.HTTPStatus(kind), api.ErrorResponse{
		Error:   failures.ClientMessage(kind),
		Kind:    string(kind),
		TraceId: traceId,
	}
}

func BadRequest(message string, traceId string) api.ErrorResponse {
	return api.ErrorResponse{
		Error:   message,
		Kind:    string(failures.ValidationError),
		TraceId: traceId,
	}
}
