package main

import (
	"fmt"

	"github.com/ram70099/ChatBot/internal/chat"
	"github.com/ram70099/ChatBot/internal/config"
	"github.com/ram70099/ChatBot/internal/credential"
	"github.com/ram70099/ChatBot/internal/history"
	"github.com/ram70099/ChatBot/internal/llm"
	"github.com/ram70099/ChatBot/internal/logger"
	"github.com/ram70099/ChatBot/internal/prompt"
)

// app is everything a front end needs after startup succeeded.
type app struct {
	cfg   *config.Config
	store history.Store
	model chat.Generator
	close func() error
}

func (a *app) options() chat.Options {
	return chat.Options{
		Builder:         prompt.Builder{MaxExchanges: a.cfg.Prompt.MaxExchanges},
		PersistFailures: a.cfg.Chat.PersistFailures,
	}
}

// Swapped in tests to observe startup order.
var (
	openStore = defaultOpenStore
	newModel  = defaultNewModel
)

func defaultOpenStore(cfg config.HistoryConfig) (history.Store, func() error) {
	if cfg.Backend == config.BackendSQLite {
		s := history.NewSQLiteStore(cfg.SQLitePath)
		return s, s.Close
	}
	return history.NewFileStore(cfg.Path), func() error { return nil }
}

func defaultNewModel(cfg config.LLMConfig, apiKey string) chat.Generator {
	return llm.NewModel(llm.NewClient(cfg, apiKey), cfg.Model)
}

// setup loads config, then the credential, then the store and model. A
// missing credential stops it before the store or model exist. The history
// is loaded once here so a corrupt file aborts startup.
func setup(cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logger.SetLevel(cfg.Log.Level)

	apiKey, err := credential.Load(cfg.LLM.APIKeyFile)
	if err != nil {
		return nil, err
	}

	store, closeStore := openStore(cfg.History)
	h, err := store.Load()
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("load history: %w", err)
	}
	logger.L.Info("history ready", "backend", cfg.History.Backend, "exchanges", len(h))

	return &app{
		cfg:   cfg,
		store: store,
		model: newModel(cfg.LLM, apiKey),
		close: closeStore,
	}, nil
}
