package main

import (
	"errors"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"guardian/internal/capture"
	"guardian/internal/config"
	"guardian/internal/engine"
	"guardian/internal/logging"
	"guardian/internal/ratelimit"
	"guardian/internal/services/gemini"
	"guardian/internal/usage"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// pipeline bundles the capture-to-model wiring a one-shot command needs.
type pipeline struct {
	cfg     *config.Config
	capture *capture.Store
	limiter *ratelimit.Limiter
	model   *gemini.Client
	engine  *engine.Engine
}

func (c *commandContext) openPipeline() (*pipeline, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, errors.New("configuration unavailable")
	}

	store, err := capture.Open(cfg)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.New(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.DailyLimit)
	model := gemini.NewClient(gemini.Config{
		APIKey:                cfg.Gemini.APIKey,
		BaseURL:               cfg.Gemini.BaseURL,
		Temperature:           cfg.Gemini.Temperature,
		MaxOutputTokens:       cfg.Gemini.MaxOutputTokens,
		ProbeTimeoutSeconds:   cfg.Gemini.ProbeTimeoutSeconds,
		RequestTimeoutSeconds: cfg.Gemini.RequestTimeoutSeconds,
	}, limiter, logging.NewNop())
	eng := engine.New(store, model, engine.Options{
		TimeWindowSeconds:   cfg.Query.TimeWindowSeconds,
		MaxTranscriptLength: cfg.Query.MaxTranscriptLength,
	}, logging.NewNop())

	return &pipeline{
		cfg:     cfg,
		capture: store,
		limiter: limiter,
		model:   model,
		engine:  eng,
	}, nil
}

func (p *pipeline) Close() error {
	if p == nil || p.capture == nil {
		return nil
	}
	return p.capture.Close()
}

func (c *commandContext) openUsageStore() (*usage.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return usage.Open(cfg.UsageDBPath())
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
