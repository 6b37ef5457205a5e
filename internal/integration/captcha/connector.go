package captcha

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/dmelnik/twin-backend/internal/config"
	"github.com/dmelnik/twin-backend/internal/entity"
	pkghttp "github.com/dmelnik/twin-backend/pkg/http"
)

// Connector verifies reCAPTCHA v3 tokens against the siteverify endpoint.
type Connector struct {
	config    config.RecaptchaConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(cfg config.RecaptchaConfig, logger *zap.Logger) *Connector {
	connector := pkghttp.NewConnector(
		&pkghttp.ConnectorConfig{
			BaseURL: cfg.BaseURL,
			Logger:  logger,
		},
		pkghttp.WithRequestTimeout(cfg.RequestTimeout),
		pkghttp.WithConnClientTimeout(cfg.ConnTimeout),
		pkghttp.WithClientKeepAlive(cfg.KeepAlive),
		pkghttp.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkghttp.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		pkghttp.WithRequestLogging(),
	)

	return &Connector{
		config:    cfg,
		connector: connector,
		logger:    logger,
	}
}

type siteverifyResponse struct {
	Success     bool     `json:"success"`
	Score       float64  `json:"score"`
	Action      string   `json:"action"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// Verify checks a client-supplied token. Transport and provider errors are
// returned as-is; the caller decides how to fail (the chat pipeline fails
// closed).
func (c *Connector) Verify(ctx context.Context, token string) (*entity.CaptchaResult, error) {
	form := url.Values{
		"secret":   {c.config.SecretKey},
		"response": {token},
	}

	var resp siteverifyResponse
	if err := c.connector.DoFormRequest(ctx, http.MethodPost, c.config.VerifyEndpoint, form, &resp); err != nil {
		return nil, fmt.Errorf("siteverify request: %w", err)
	}

	if !resp.Success {
		ctxzap.Warn(ctx, "captcha token rejected",
			zap.Strings("error_codes", resp.ErrorCodes),
			zap.String("hostname", resp.Hostname),
		)
	} else {
		ctxzap.Debug(ctx, "captcha token verified",
			zap.Float64("score", resp.Score),
			zap.String("action", resp.Action),
		)
	}

	return &entity.CaptchaResult{
		Success: resp.Success,
		Score:   resp.Score,
	}, nil
}
