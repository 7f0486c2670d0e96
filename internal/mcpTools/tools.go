// Package mcpTools exposes the document pipeline as MCP tools over streamable HTTP.
package mcpTools

import (
	"context"
	"errors"
	"net/http"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/domain/failures"
	"github.com/akolanti/DocQA/internal/rag"
	"github.com/akolanti/DocQA/internal/rag/assemble"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "docqa"
	serverVersion = "1.0.0"
)

type QueryInput struct {
	FilePath string `json:"filePath" jsonschema:"reference returned by the upload endpoint, e.g. /uploads/upload.pdf"`
	Question string `json:"question" jsonschema:"the question to answer from the document"`
}

type QueryOutput struct {
	Answer string `json:"answer"`
}

type PreviewInput struct {
	FilePath string `json:"filePath" jsonschema:"reference returned by the upload endpoint"`
}

type PreviewOutput struct {
	DocumentId    string `json:"documentId"`
	FilePath      string `json:"filePath"`
	OriginalName  string `json:"originalName"`
	PageCount     int    `json:"pageCount"`
	TextExtracted string `json:"textExtracted"`
}

func NewServer(service rag.Service) *mcp.Server {
	logger := logger_i.NewLogger("mcp")
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_document",
		Description: "Answer a question using the text of one uploaded document.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in QueryInput) (*mcp.CallToolResult, QueryOutput, error) {
		answer, err := service.Query(ctx, commonModels.QueryRequest{DocumentRef: in.FilePath, Question: in.Question})
		if err != nil {
			return nil, QueryOutput{}, toolError(ctx, logger, err)
		}
		return nil, QueryOutput{Answer: answer}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "preview_document",
		Description: "Show the metadata and the first characters of an uploaded document's text.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in PreviewInput) (*mcp.CallToolResult, PreviewOutput, error) {
		res, err := service.Describe(ctx, in.FilePath)
		if err != nil {
			return nil, PreviewOutput{}, toolError(ctx, logger, err)
		}
		return nil, PreviewOutput{
			DocumentId:    res.Document.Id,
			FilePath:      res.ArtifactRef,
			OriginalName:  res.Document.OriginalName,
			PageCount:     res.Document.PageCount,
			TextExtracted: assemble.Preview(res.Text, config.PreviewCharLimit),
		}, nil
	})

	return server
}

// Handler serves every session from the same server.
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
}

func toolError(ctx context.Context, logger *logger_i.Logger, err error) error {
	kind := failures.KindOf(err)
	logger.WithTrace(ctx, config.TRACE_ID_KEY).Warn("tool call failed", "kind", kind, "error", err)
	return errors.New(failures.ClientMessage(kind))
}
