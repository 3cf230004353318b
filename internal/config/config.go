package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// History backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig
	LLM     LLMConfig
	History HistoryConfig
	Prompt  PromptConfig
	Chat    ChatConfig
	Log     LogConfig
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// LLMConfig holds the model API configuration. The key itself is never part of
// the config; it is read from APIKeyFile at startup.
type LLMConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Model      string        `mapstructure:"model"`
	APIKeyFile string        `mapstructure:"api_key_file"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// HistoryConfig selects where the conversation is persisted.
type HistoryConfig struct {
	Backend    string `mapstructure:"backend"`
	Path       string `mapstructure:"path"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// PromptConfig bounds how much history goes into a prompt. Zero means all of it.
type PromptConfig struct {
	MaxExchanges int `mapstructure:"max_exchanges"`
}

// ChatConfig holds presentation and turn behaviour.
type ChatConfig struct {
	Title           string `mapstructure:"title"`
	PersistFailures bool   `mapstructure:"persist_failures"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8501")

	v.SetDefault("llm.base_url", "https://generativelanguage.googleapis.com/v1beta/openai")
	v.SetDefault("llm.model", "gemini-1.5-flash")
	v.SetDefault("llm.api_key_file", "gemini_api_key.txt")
	v.SetDefault("llm.timeout", "0s")

	v.SetDefault("history.backend", BackendJSON)
	v.SetDefault("history.path", "chat_history.json")
	v.SetDefault("history.sqlite_path", "chat_history.db")

	v.SetDefault("prompt.max_exchanges", 0)

	v.SetDefault("chat.title", "🌟 Gemini Terminal Chat (with Memory)")
	v.SetDefault("chat.persist_failures", true)

	v.SetDefault("log.level", "info")
}

// Load reads the configuration. path wins over the CONFIG_PATH env variable;
// with neither set, config.yaml is looked up in the working directory and may
// be absent. Every key can be overridden by CHAT_<SECTION>_<KEY>.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the rest of the program cannot act on.
func (c *Config) Validate() error {
	switch c.History.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("unknown history backend %q (want %q or %q)", c.History.Backend, BackendJSON, BackendSQLite)
	}
	if c.Prompt.MaxExchanges < 0 {
		return fmt.Errorf("prompt.max_exchanges must be >= 0, got %d", c.Prompt.MaxExchanges)
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm.timeout must be >= 0, got %s", c.LLM.Timeout)
	}
	return nil
}
