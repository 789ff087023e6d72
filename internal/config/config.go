package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Webhook  WebhookConfig  `koanf:"webhook"`
	GitHub   GitHubConfig   `koanf:"github"`
	LLM      LLMConfig      `koanf:"llm"`
	Snapshot SnapshotConfig `koanf:"snapshot"`
	Storage  StorageConfig  `koanf:"storage"`
	Notify   NotifyConfig   `koanf:"notify"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type WebhookConfig struct {
	// Secret is the shared HMAC secret configured on the repository webhook.
	// Empty disables signature validation (local development only).
	Secret string `koanf:"secret"`
}

type GitHubConfig struct {
	Token   string `koanf:"token"`
	BaseURL string `koanf:"base_url"` // Custom API endpoint (GHES or tests)
	// BotLogin is the account the service commits as; pushes by this login
	// are skipped to avoid regeneration loops.
	BotLogin      string `koanf:"bot_login"`
	CommitMessage string `koanf:"commit_message"`
	ReadmePath    string `koanf:"readme_path"`
}

type LLMConfig struct {
	Provider  string `koanf:"provider"` // anthropic, gemini
	Model     string `koanf:"model"`
	APIKey    string `koanf:"api_key"`
	BaseURL   string `koanf:"base_url"`
	MaxTokens int    `koanf:"max_tokens"`
}

type SnapshotConfig struct {
	MaxFiles        int `koanf:"max_files"`
	MaxFileBytes    int `koanf:"max_file_bytes"`
	MaxPromptTokens int `koanf:"max_prompt_tokens"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // sqlite, none
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type NotifyConfig struct {
	Endpoints []NotifyEndpointConfig `koanf:"endpoints"`
}

type NotifyEndpointConfig struct {
	Name    string `koanf:"name"`
	URL     string `koanf:"url"`
	Secret  string `koanf:"secret"`
	Timeout string `koanf:"timeout"` // Duration string like "5s"
	Retries int    `koanf:"retries"`
	OnError string `koanf:"on_error"` // "ignore" (default) or "fail"
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	// Config file is optional, env vars can carry everything.
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Environment variables override file config.
	if err := k.Load(env.Provider("READMEBOT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "READMEBOT_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	applyDefaults(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Substitute environment variables in secret-bearing fields
	cfg.Webhook.Secret = substituteEnvVars(cfg.Webhook.Secret)
	cfg.GitHub.Token = substituteEnvVars(cfg.GitHub.Token)
	cfg.LLM.APIKey = substituteEnvVars(cfg.LLM.APIKey)
	for i := range cfg.Notify.Endpoints {
		cfg.Notify.Endpoints[i].Secret = substituteEnvVars(cfg.Notify.Endpoints[i].Secret)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	defaults := map[string]interface{}{
		"server.port":                8080,
		"github.bot_login":           "readmebot",
		"github.commit_message":      "docs: regenerate README",
		"github.readme_path":         "README.md",
		"llm.provider":               "anthropic",
		"llm.max_tokens":             4096,
		"snapshot.max_files":         24,
		"snapshot.max_file_bytes":    16384,
		"snapshot.max_prompt_tokens": 24000,
		"storage.type":               "sqlite",
		"storage.sqlite.path":        "./data/readmebot.db",
	}
	for key, val := range defaults {
		if !k.Exists(key) {
			k.Set(key, val)
		}
	}
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case "anthropic", "gemini":
	default:
		return fmt.Errorf("unknown llm provider %q (must be 'anthropic' or 'gemini')", c.LLM.Provider)
	}
	switch c.Storage.Type {
	case "sqlite", "none":
	default:
		return fmt.Errorf("unknown storage type %q (must be 'sqlite' or 'none')", c.Storage.Type)
	}
	for _, ep := range c.Notify.Endpoints {
		switch ep.OnError {
		case "", "ignore", "fail":
		default:
			return fmt.Errorf("notify endpoint %s: invalid on_error %q (must be 'ignore' or 'fail')", ep.Name, ep.OnError)
		}
	}
	return nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
