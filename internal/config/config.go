package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	pkgRetry "github.com/dmelnik/twin-backend/internal/pkg/retry"
)

// Supported completion providers
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr  string `env:"SERVER_ADDR" envDefault:":8080"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	// TrustProxyHeaders enables X-Forwarded-For as the rate-limit client
	// key. Only turn this on behind a proxy that overwrites the header.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Completion provider selection: "anthropic" or "openai"
	LLMProvider string `env:"LLM_PROVIDER" envDefault:"anthropic"`

	// External service configurations
	AnthropicCfg AnthropicConfig `envPrefix:"ANTHROPIC_"`
	OpenAICfg    OpenAIConfig    `envPrefix:"OPENAI_"`
	GoogleCfg    GoogleConfig    `envPrefix:"GOOGLE_"`
	RecaptchaCfg RecaptchaConfig `envPrefix:"RECAPTCHA_"`

	// Rate limiting configuration
	RateLimitCfg RateLimitConfig `envPrefix:"RATE_LIMIT_"`

	// Knowledge base configuration
	KnowledgeCfg KnowledgeConfig `envPrefix:"KNOWLEDGE_"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

// HTTPClientConfig holds timeouts shared by outbound HTTP connectors
type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"60s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"60s"`
}

// AnthropicConfig configures the Anthropic Messages API connector
type AnthropicConfig struct {
	HTTPClientConfig
	BaseURL         string `env:"BASE_URL" envDefault:"https://api.anthropic.com"`
	APIKey          string `env:"API_KEY"`
	Model           string `env:"MODEL" envDefault:"claude-sonnet-4-5-20250929"`
	ModerationModel string `env:"MODERATION_MODEL" envDefault:"claude-3-5-haiku-20241022"`
	MaxTokens       int    `env:"MAX_TOKENS" envDefault:"1024"`
}

// OpenAIConfig configures the alternative OpenAI-compatible connector
type OpenAIConfig struct {
	APIKey          string `env:"API_KEY"`
	BaseURL         string `env:"BASE_URL"`
	Model           string `env:"MODEL" envDefault:"gpt-4o"`
	ModerationModel string `env:"MODERATION_MODEL" envDefault:"gpt-4o-mini"`
	MaxTokens       int    `env:"MAX_TOKENS" envDefault:"1024"`
}

// GoogleConfig configures access to Google Drive and Docs.
// Either a service account JSON or an OAuth2 client with a refresh token
// must be provided (service account wins when both are set).
type GoogleConfig struct {
	ClientID           string `env:"CLIENT_ID"`
	ClientSecret       string `env:"CLIENT_SECRET"`
	RedirectURI        string `env:"REDIRECT_URI" envDefault:"http://localhost:8080/auth/google/callback"`
	RefreshToken       string `env:"REFRESH_TOKEN"`
	ServiceAccountJSON string `env:"SERVICE_ACCOUNT_JSON"`
	DocID              string `env:"DOC_ID"`
	BlogFolderID       string `env:"BLOG_FOLDER_ID"`
}

// RecaptchaConfig configures reCAPTCHA v3 verification
type RecaptchaConfig struct {
	HTTPClientConfig
	BaseURL        string  `env:"BASE_URL" envDefault:"https://www.google.com"`
	VerifyEndpoint string  `env:"VERIFY_ENDPOINT" envDefault:"/recaptcha/api/siteverify"`
	SecretKey      string  `env:"SECRET_KEY"`
	MinScore       float64 `env:"MIN_SCORE" envDefault:"0.5"`
}

// RateLimitConfig holds the fixed-window rate limit caps
type RateLimitConfig struct {
	Window     time.Duration `env:"WINDOW" envDefault:"1h"`
	ChatPerIP  int           `env:"CHAT_PER_IP" envDefault:"15"`
	ChatGlobal int           `env:"CHAT_GLOBAL" envDefault:"200"`
	ReadPerIP  int           `env:"READ_PER_IP" envDefault:"100"`
}

// KnowledgeConfig configures the knowledge base cache lifecycle
type KnowledgeConfig struct {
	RefreshInterval time.Duration        `env:"REFRESH_INTERVAL" envDefault:"5m"`
	RefreshTimeout  time.Duration        `env:"REFRESH_TIMEOUT" envDefault:"1m"`
	Retry           pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.LLMProvider != ProviderAnthropic && cfg.LLMProvider != ProviderOpenAI {
		return fmt.Errorf("LLM_PROVIDER must be 'anthropic' or 'openai', got %q", cfg.LLMProvider)
	}

	if cfg.RecaptchaCfg.MinScore < 0 || cfg.RecaptchaCfg.MinScore > 1 {
		return fmt.Errorf("RECAPTCHA_MIN_SCORE must be between 0.0 and 1.0, got %f", cfg.RecaptchaCfg.MinScore)
	}

	if cfg.RateLimitCfg.ChatPerIP < 1 || cfg.RateLimitCfg.ChatGlobal < 1 || cfg.RateLimitCfg.ReadPerIP < 1 {
		return fmt.Errorf("rate limit caps must be positive")
	}

	if cfg.RateLimitCfg.Window < time.Second {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s, got %s", cfg.RateLimitCfg.Window)
	}

	if cfg.KnowledgeCfg.RefreshInterval < time.Second {
		return fmt.Errorf("KNOWLEDGE_REFRESH_INTERVAL must be at least 1s, got %s", cfg.KnowledgeCfg.RefreshInterval)
	}

	// With mocks enabled the external credentials are not needed.
	if cfg.EnableMocks {
		return nil
	}

	switch cfg.LLMProvider {
	case ProviderAnthropic:
		if cfg.AnthropicCfg.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required")
		}
	case ProviderOpenAI:
		if cfg.OpenAICfg.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	}

	if cfg.RecaptchaCfg.SecretKey == "" {
		return fmt.Errorf("RECAPTCHA_SECRET_KEY is required")
	}

	if cfg.GoogleCfg.DocID == "" {
		return fmt.Errorf("GOOGLE_DOC_ID is required")
	}

	if cfg.GoogleCfg.BlogFolderID == "" {
		return fmt.Errorf("GOOGLE_BLOG_FOLDER_ID is required")
	}

	if cfg.GoogleCfg.ServiceAccountJSON == "" {
		if cfg.GoogleCfg.ClientID == "" || cfg.GoogleCfg.ClientSecret == "" || cfg.GoogleCfg.RefreshToken == "" {
			return fmt.Errorf("either GOOGLE_SERVICE_ACCOUNT_JSON or the GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET/GOOGLE_REFRESH_TOKEN triple is required")
		}
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
