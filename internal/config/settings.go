package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

type AnswerMode string
type DocxConverter string

const (
	AnswerModeText       AnswerMode = "text"
	AnswerModeAttachment AnswerMode = "attachment"
	AnswerModeFallback   AnswerMode = "fallback"

	DocxConverterText    DocxConverter = "text"
	DocxConverterSoffice DocxConverter = "soffice"
)

// Settings is read once at startup. Secrets only ever come from the environment.
type Settings struct {
	IsProd   bool   `env:"IS_PROD" envDefault:"false"`
	LogLevel string `env:"LOG_LEVEL"` // empty means debug, or LOG_LEVEL_PROD with IS_PROD

	ListenAddr string `env:"LISTEN_ADDR"`

	//storage
	StorageDir           string `env:"STORAGE_DIR" envDefault:"uploads"`
	SingleSlot           bool   `env:"SINGLE_SLOT" envDefault:"false"`
	PersistExtractedText bool   `env:"PERSIST_EXTRACTED_TEXT" envDefault:"false"`
	DocumentStore        string `env:"DOCUMENT_STORE" envDefault:"memory"` // "memory" or "redis"
	RedisAddr            string `env:"REDIS_ADDR"`
	RedisPassword        string `env:"REDIS_PASSWORD"`

	//conversion
	DocxConverter DocxConverter `env:"DOCX_CONVERTER" envDefault:"text"`
	SofficePath   string        `env:"SOFFICE_PATH"`

	//llm
	LLMProvider  string        `env:"LLM_PROVIDER" envDefault:"gemini"` // "gemini" or "openai"
	GeminiAPIKey string        `env:"GEMINI_API_KEY"`
	GeminiModel  string        `env:"GEMINI_MODEL"`
	OpenAIAPIKey string        `env:"OPENAI_API_KEY"`
	OpenAIModel  string        `env:"OPENAI_MODEL"`
	AnswerMode   AnswerMode    `env:"ANSWER_MODE" envDefault:"text"`
	LLMTimeout   time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
}

// Load reads the settings from the environment and checks the enum fields.
func Load() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return s, fmt.Errorf("parsing environment: %w", err)
	}
	s.applyDefaults()
	if err := s.validate(); err != nil {
		return s, err
	}
	return s, nil
}

func (s *Settings) applyDefaults() {
	if s.ListenAddr == "" {
		s.ListenAddr = ServerListenAddr
	}
	if s.RedisAddr == "" {
		s.RedisAddr = RedisAddr
	}
	if s.SofficePath == "" {
		s.SofficePath = SofficeBinary
	}
	if s.GeminiModel == "" {
		s.GeminiModel = GeminiModelName
	}
	if s.OpenAIModel == "" {
		s.OpenAIModel = OpenAIModelName
	}
}

func (s Settings) validate() error {
	switch s.AnswerMode {
	case AnswerModeText, AnswerModeAttachment, AnswerModeFallback:
	default:
		return fmt.Errorf("unknown ANSWER_MODE %q", s.AnswerMode)
	}
	switch s.DocxConverter {
	case DocxConverterText, DocxConverterSoffice:
	default:
		return fmt.Errorf("unknown DOCX_CONVERTER %q", s.DocxConverter)
	}
	switch s.LLMProvider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", s.LLMProvider)
	}
	switch s.DocumentStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown DOCUMENT_STORE %q", s.DocumentStore)
	}
	if s.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive, got %s", s.LLMTimeout)
	}
	return nil
}

// APIKey returns the key of the configured provider.
func (s Settings) APIKey() string {
	if s.LLMProvider == "openai" {
		return s.OpenAIAPIKey
	}
	return s.GeminiAPIKey
}

func (s Settings) SlogLevel() slog.Level {
	switch s.LogLevel {
	case "":
		if s.IsProd {
			return LOG_LEVEL_PROD
		}
		return slog.LevelDebug
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
