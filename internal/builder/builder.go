package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dmelnik/twin-backend/internal/api"
	blogapi "github.com/dmelnik/twin-backend/internal/api/blog"
	chatapi "github.com/dmelnik/twin-backend/internal/api/chat"
	"github.com/dmelnik/twin-backend/internal/config"
	"github.com/dmelnik/twin-backend/internal/integration/captcha"
	"github.com/dmelnik/twin-backend/internal/integration/gdocs"
	"github.com/dmelnik/twin-backend/internal/integration/llm"
	"github.com/dmelnik/twin-backend/internal/knowledge"
	"github.com/dmelnik/twin-backend/internal/usecase/blog"
	"github.com/dmelnik/twin-backend/internal/usecase/chat"
)

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
		zap.String("llm_provider", cfg.LLMProvider),
	)

	// Initialize external service connectors (with mock support)
	var captchaConnector chat.CaptchaConnector
	var llmConnector chat.CompletionConnector
	var docsConnector knowledge.DocumentSource
	var blogDocs blog.DocsConnector

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		captchaConnector = captcha.NewMockConnector(logger)
		llmConnector = llm.NewMockConnector(logger)
		gdocsMock := gdocs.NewMockConnector(logger)
		docsConnector = gdocsMock
		blogDocs = gdocsMock
	} else {
		logger.Info("Using real connectors for external services")
		captchaConnector = captcha.NewConnector(cfg.RecaptchaCfg, logger)
		llmConnector, err = setupLLMConnector(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("setup llm connector: %w", err)
		}
		gdocsConnector, err := gdocs.NewConnector(ctx, cfg.GoogleCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("setup google docs connector: %w", err)
		}
		docsConnector = gdocsConnector
		blogDocs = gdocsConnector
	}

	// Initialize knowledge base cache and load the initial snapshot.
	// The server does not come up without one.
	knowledgeSvc := knowledge.NewService(docsConnector, cfg.GoogleCfg.DocID, cfg.KnowledgeCfg, logger)

	refreshCtx, cancel := context.WithTimeout(ctx, cfg.KnowledgeCfg.RefreshTimeout)
	err = knowledgeSvc.Refresh(refreshCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("initial knowledge base load: %w", err)
	}
	logger.Info("Knowledge base loaded")

	// Initialize use cases
	chatUC := chat.NewUsecase(
		captchaConnector,
		llmConnector,
		knowledgeSvc,
		chat.Config{
			MinBotScore:     cfg.RecaptchaCfg.MinScore,
			ModerationModel: moderationModel(cfg),
		},
		logger,
	)
	blogUC := blog.NewUsecase(blogDocs, cfg.GoogleCfg.BlogFolderID, logger)
	logger.Info("Use cases initialized")

	// Setup API handlers
	chatHandler := chatapi.NewHandler(chatUC)
	blogHandler := blogapi.NewHandler(blogUC)
	logger.Info("API handlers initialized")

	// Setup router
	limiters := api.NewLimiters(cfg.RateLimitCfg)
	router := api.SetupRouter(chatHandler, blogHandler, limiters, cfg, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Schedule periodic knowledge base refreshes
	scheduler := cron.New()
	_, err = scheduler.AddFunc(fmt.Sprintf("@every %s", cfg.KnowledgeCfg.RefreshInterval), knowledgeSvc.RefreshAsync)
	if err != nil {
		return nil, fmt.Errorf("schedule knowledge refresh: %w", err)
	}
	logger.Info("Knowledge refresh scheduled",
		zap.Duration("interval", cfg.KnowledgeCfg.RefreshInterval),
	)

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server:    server,
		scheduler: scheduler,
		logger:    logger,
	}, nil
}

// setupLLMConnector selects the completion provider from config.
func setupLLMConnector(cfg *config.Config, logger *zap.Logger) (chat.CompletionConnector, error) {
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		return llm.NewAnthropicConnector(cfg.AnthropicCfg, logger), nil
	case config.ProviderOpenAI:
		return llm.NewOpenAIConnector(cfg.OpenAICfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

func moderationModel(cfg *config.Config) string {
	if cfg.LLMProvider == config.ProviderOpenAI {
		return cfg.OpenAICfg.ModerationModel
	}
	return cfg.AnthropicCfg.ModerationModel
}
