// Package providers builds the configured intelligence.Analyzer.
package providers

import (
	"github.com/turtacn/patentdesk/internal/config"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patentdesk/internal/intelligence"
	"github.com/turtacn/patentdesk/internal/intelligence/gpt"
	"github.com/turtacn/patentdesk/internal/intelligence/inference"
	"github.com/turtacn/patentdesk/pkg/errors"
)

// New selects the text and language models for cfg.Provider:
//
//	mock       both offline
//	openai     both on the OpenAI API
//	inference  text tasks on the inference endpoint; generative tasks on
//	           OpenAI when a key is set, otherwise offline
func New(cfg config.IntelligenceConfig, metrics *prometheus.AppMetrics, logger logging.Logger) (intelligence.Analyzer, error) {
	var (
		text intelligence.TextModel
		lang intelligence.LanguageModel
	)
	mock := intelligence.NewMockModel()

	switch cfg.Provider {
	case config.ProviderMock, "":
		text, lang = mock, mock
	case config.ProviderOpenAI:
		c, err := gpt.NewClient(cfg, logger)
		if err != nil {
			return nil, err
		}
		text, lang = c, c
	case config.ProviderInference:
		c, err := inference.NewClient(cfg, logger)
		if err != nil {
			return nil, err
		}
		text, lang = c, mock
		if cfg.OpenAIAPIKey != "" {
			g, err := gpt.NewClient(cfg, logger)
			if err != nil {
				return nil, err
			}
			lang = g
		}
	default:
		return nil, errors.New(errors.ErrCodeAIModelNotAvailable, "unknown intelligence provider").WithDetail("provider=" + cfg.Provider)
	}

	logger.Info("AI analyzer configured",
		logging.String("provider", cfg.Provider),
		logging.String("failure_policy", cfg.FailurePolicy),
	)
	return intelligence.NewAnalyzer(text, lang, intelligence.Options{
		Provider: cfg.Provider,
		Policy:   intelligence.ParsePolicy(cfg.FailurePolicy),
		Timeout:  cfg.Timeout,
		Metrics:  metrics,
		Logger:   logger,
	}), nil
}
