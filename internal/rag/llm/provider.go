package llm

import "context"

// Attachment is the raw document sent alongside the question.
type Attachment struct {
	Data     []byte
	MIMEType string
	Name     string
}

type Request struct {
	Question   string
	Context    string
	Attachment *Attachment
}

type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Prompt renders the user turn shared by every provider.
func Prompt(req Request) string {
	if req.Context == "" {
		return "User Question: " + req.Question
	}
	return "Context:\n" + req.Context + "\n\nUser Question: " + req.Question
}
