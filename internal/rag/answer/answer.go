// Package answer makes the single question answering call against the configured provider.
package answer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/failures"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/internal/rag/llm"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

type Client struct {
	provider llm.Provider
	timeout  time.Duration
	logger   *logger_i.Logger
}

func New(provider llm.Provider, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = config.DefaultLLMTimeout
	}
	return &Client{
		provider: provider,
		timeout:  timeout,
		logger:   logger_i.NewLogger("AnsweringClient"),
	}
}

// Answer asks the provider once. The returned error is always a *failures.Failure
// of kind ProviderError, and an empty answer becomes the no-answer sentinel.
func (c *Client) Answer(ctx context.Context, question string, docContext string, raw *llm.Attachment) (string, error) {
	log := c.logger.WithTrace(ctx, config.TRACE_ID_KEY)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	text, err := c.provider.Generate(ctx, llm.Request{Question: question, Context: docContext, Attachment: raw})
	metrics.CaptureExecutionMetrics("llm", time.Since(start))

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Error("provider timed out", "timeout", c.timeout, "error", err)
			return "", failures.Newf(failures.ProviderError, err, "provider did not answer within %s", c.timeout)
		}
		log.Error("provider failed", "error", err)
		return "", failures.New(failures.ProviderError, err.Error(), err)
	}

	if strings.TrimSpace(text) == "" {
		log.Info("provider returned an empty answer")
		return config.NoAnswerSentinel, nil
	}
	return text, nil
}
