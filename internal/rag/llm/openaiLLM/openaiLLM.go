package openaiLLM

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/customHttpClient"
	"github.com/akolanti/DocQA/internal/rag/llm"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type llmClient struct {
	client    openai.Client
	modelName string
	logger    *logger_i.Logger
}

func NewOpenAIClient(apiKey string, modelName string, opts ...option.RequestOption) (llm.Provider, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(customHttpClient.New()),
		// a single attempt per question
		option.WithMaxRetries(0),
	}, opts...)

	logger := logger_i.NewLogger("llm_openai")
	logger.Info("OpenAI client created", "model", modelName)
	return &llmClient{client: openai.NewClient(opts...), modelName: modelName, logger: logger}, nil
}

func (c *llmClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	c.logger.WithTrace(ctx, config.TRACE_ID_KEY).Debug("generating answer",
		"model", c.modelName, "contextChars", len(req.Context), "attachment", req.Attachment != nil)

	completion, err := c.client.Chat.Completions.New(ctx, buildParams(c.modelName, req))
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

func buildParams(modelName string, req llm.Request) openai.ChatCompletionNewParams {
	parts := []openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(llm.Prompt(req))}
	if req.Attachment != nil {
		parts = append(parts, openai.FileContentPart(openai.ChatCompletionContentPartFileFileParam{
			FileData: openai.String(dataURL(req.Attachment)),
			Filename: openai.String(attachmentName(req.Attachment)),
		}))
	}

	return openai.ChatCompletionNewParams{
		Model: openai.ChatModel(modelName),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(config.ModelContext),
			openai.UserMessage(parts),
		},
		Temperature: openai.Float(float64(config.ModelTemperature)),
	}
}

func dataURL(a *llm.Attachment) string {
	return "data:" + a.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

func attachmentName(a *llm.Attachment) string {
	if a.Name != "" {
		return a.Name
	}
	return "document"
}
