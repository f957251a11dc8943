package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jackzampolin/hrbp/internal/agent"
	"github.com/jackzampolin/hrbp/internal/config"
	"github.com/jackzampolin/hrbp/internal/dataset"
	"github.com/jackzampolin/hrbp/internal/home"
	"github.com/jackzampolin/hrbp/internal/hrbp"
	"github.com/jackzampolin/hrbp/internal/providers"
)

// runtimeEnv is everything a command needs to answer questions.
type runtimeEnv struct {
	home      *home.Dir
	cfg       *config.Manager
	logger    *slog.Logger
	level     *slog.LevelVar
	dataset   *dataset.Dataset
	client    *providers.OpenAIClient
	responder *hrbp.Responder
}

// loadConfig resolves the home directory, loads .env files and the config.
// .env in the working directory takes precedence over the one in home.
func loadConfig() (*home.Dir, *config.Manager, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, nil, err
	}
	if err := config.LoadDotEnv(".env", h.EnvPath()); err != nil {
		return nil, nil, err
	}
	cm, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, nil, err
	}
	return h, cm, nil
}

// newLogger builds a text logger whose level can change at runtime.
func newLogger(cfg *config.Config) (*slog.Logger, *slog.LevelVar) {
	level := new(slog.LevelVar)
	name := cfg.Log.Level
	if logLevel != "" {
		name = logLevel
	}
	level.Set(config.ParseLevel(name))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return logger, level
}

// builders are the constructors buildEnv calls, in order.
type builders struct {
	loadDataset func(dir string, opts ...dataset.Option) (*dataset.Dataset, error)
	newClient   func(cfg providers.OpenAIConfig) *providers.OpenAIClient
	newDelegate func(cfg agent.DataframeAgentConfig) (hrbp.Delegate, error)
}

func defaultBuilders() builders {
	return builders{
		loadDataset: dataset.Load,
		newClient:   providers.NewOpenAIClient,
		newDelegate: func(cfg agent.DataframeAgentConfig) (hrbp.Delegate, error) {
			return agent.NewDataframeAgent(cfg)
		},
	}
}

// setup wires config, dataset, model client and responder. A missing API
// key or dataset is fatal.
func setup() (*runtimeEnv, error) {
	h, cm, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, level := newLogger(cm.Get())

	if used := cm.ConfigFileUsed(); used != "" {
		logger.Info("loaded config", "file", used)
	}

	env, err := buildEnv(cm.Get(), h, logger, defaultBuilders())
	if err != nil {
		return nil, err
	}
	env.cfg = cm
	env.level = level
	return env, nil
}

// buildEnv checks the API key, then loads the dataset, then constructs the
// model client, agent and responder. Each step runs only if the previous
// one succeeded.
func buildEnv(cfg *config.Config, h *home.Dir, logger *slog.Logger, b builders) (*runtimeEnv, error) {
	apiKey, err := cfg.ResolveAPIKey()
	if err != nil {
		return nil, err
	}

	dir := h.ResolveDatasetDir(cfg.Dataset.Dir)
	ds, err := b.loadDataset(dir,
		dataset.WithExcelFile(cfg.Dataset.ExcelFile),
		dataset.WithCSVFile(cfg.Dataset.CSVFile),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset from %s: %w", dir, err)
	}
	logger.Info("dataset loaded",
		"source", ds.Source(),
		"format", ds.Format(),
		"rows", ds.Len(),
		"columns", len(ds.Columns()),
	)

	client := b.newClient(providers.OpenAIConfig{
		APIKey:       apiKey,
		DefaultModel: cfg.LLM.Model,
		Temperature:  providers.Float(cfg.LLM.Temperature),
		Timeout:      cfg.Timeout(),
		BaseURL:      cfg.LLM.BaseURL,
	})

	delegate, err := b.newDelegate(agent.DataframeAgentConfig{
		Client:        client,
		Model:         cfg.LLM.Model,
		MaxIterations: cfg.LLM.MaxIterations,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	responder, err := hrbp.New(hrbp.Config{
		Dataset:  ds,
		Delegate: delegate,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	return &runtimeEnv{
		home:      h,
		logger:    logger,
		dataset:   ds,
		client:    client,
		responder: responder,
	}, nil
}
