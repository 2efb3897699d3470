package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"stt": {"openai", "whisperhttp"},
	"llm": {"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
}

// Environment variables that override file values. Secrets are expected to
// arrive through the environment rather than the YAML file.
const (
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvPostgresDSN  = "POSTGRES_DSN"
	EnvBuyerID      = "VOXPEDIDO_BUYER_ID"
	EnvListenAddr   = "VOXPEDIDO_LISTEN_ADDR"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config] with environment overrides applied. A .env file in the working
// directory is loaded first when present.
func Load(path string) (*Config, error) {
	// Best effort; absence of a .env file is the normal case.
	_ = godotenv.Load()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	applyEnv(cfg)
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables on top of the file values. The
// environment wins so deployments can inject secrets without editing YAML.
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvOpenAIAPIKey); v != "" {
		if cfg.Providers.STT.APIKey == "" {
			cfg.Providers.STT.APIKey = v
		}
		if cfg.Providers.LLM.APIKey == "" {
			cfg.Providers.LLM.APIKey = v
		}
	}
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		cfg.Store.PostgresDSN = v
	}
	if v := os.Getenv(EnvBuyerID); v != "" {
		cfg.Order.BuyerID = v
	}
	if v := os.Getenv(EnvListenAddr); v != "" {
		cfg.Server.ListenAddr = v
	}
}

// applyDefaults fills zero values with service defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogInfo
	}
	if cfg.Order.Currency == "" {
		cfg.Order.Currency = "MXN"
	}
	if cfg.Order.Locale == "" {
		cfg.Order.Locale = "es-MX"
	}
	if cfg.Order.Status == "" {
		cfg.Order.Status = "pendiente"
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Logging.Level.IsValid() {
		errs = append(errs, fmt.Errorf("logging.level %q is invalid; valid values: debug, info, warn, error", cfg.Logging.Level))
	}
	if cfg.Server.MaxUploadMB < 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb %d must not be negative", cfg.Server.MaxUploadMB))
	}
	if cfg.Server.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.request_timeout must not be negative"))
	}

	if cfg.Providers.STT.Name == "" {
		errs = append(errs, errors.New("providers.stt.name is required"))
	}
	if cfg.Providers.LLM.Name == "" {
		errs = append(errs, errors.New("providers.llm.name is required"))
	}
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("llm", cfg.Providers.LLM.Name)

	if cfg.Providers.STT.Name == "whisperhttp" && cfg.Providers.STT.BaseURL == "" {
		errs = append(errs, errors.New("providers.stt.base_url is required for the whisperhttp provider"))
	}
	if cfg.Providers.LLM.Model == "" {
		errs = append(errs, errors.New("providers.llm.model is required"))
	}

	if cfg.Store.PostgresDSN == "" {
		slog.Warn("store.postgres_dsn is empty; set it in YAML or via " + EnvPostgresDSN)
	}
	if cfg.Order.BuyerID == "" {
		slog.Warn("order.buyer_id is empty; voice orders will fail until it is set")
	}

	if len(cfg.Events.Brokers) > 0 && cfg.Events.Topic == "" {
		errs = append(errs, errors.New("events.topic is required when events.brokers is set"))
	}

	if cfg.Extraction.Temperature < 0 || cfg.Extraction.Temperature > 2 {
		errs = append(errs, fmt.Errorf("extraction.temperature %.2f is out of range [0, 2]", cfg.Extraction.Temperature))
	}
	if cfg.Extraction.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("extraction.max_tokens %d must not be negative", cfg.Extraction.MaxTokens))
	}
	if cfg.Matcher.MinSharedTokens < 0 {
		errs = append(errs, fmt.Errorf("matcher.min_shared_tokens %d must not be negative", cfg.Matcher.MinSharedTokens))
	}
	if cfg.Matcher.SuggestionThreshold < 0 || cfg.Matcher.SuggestionThreshold > 1 {
		errs = append(errs, fmt.Errorf("matcher.suggestion_threshold %.2f is out of range [0, 1]", cfg.Matcher.SuggestionThreshold))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
