package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	GitHubAPIURL string `yaml:"github_api_url"`
	// GitHubToken is only used by the CLI; the server takes tokens from sessions.
	GitHubToken string `yaml:"github_token"`

	LLMProvider string `yaml:"llm_provider"`
	LLMBaseURL  string `yaml:"llm_base_url"`
	LLMAPIKey   string `yaml:"llm_api_key"`
	LLMModel    string `yaml:"llm_model"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads an optional YAML file, then the environment (including a .env
// file if present). Environment values win over file values. An empty path
// skips the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setFromEnv(&c.ListenAddr, "LISTEN_ADDR")
	setFromEnv(&c.GitHubAPIURL, "GITHUB_API_URL")
	setFromEnv(&c.GitHubToken, "GITHUB_TOKEN")
	setFromEnv(&c.LLMProvider, "LLM_PROVIDER")
	setFromEnv(&c.LLMBaseURL, "LLM_BASE_URL")
	setFromEnv(&c.LLMModel, "LLM_MODEL")
	setFromEnv(&c.LogLevel, "LOG_LEVEL")
	setFromEnv(&c.LogFormat, "LOG_FORMAT")

	// Provider-specific keys only apply to their own provider. LLM_API_KEY
	// applies to whichever provider is selected.
	switch strings.ToLower(c.LLMProvider) {
	case ProviderGemini:
		setFromEnv(&c.LLMAPIKey, "GEMINI_API_KEY")
	default:
		setFromEnv(&c.LLMAPIKey, "OPENAI_API_KEY")
	}
	setFromEnv(&c.LLMAPIKey, "LLM_API_KEY")
}

func (c *Config) applyDefaults() {
	c.LLMProvider = strings.ToLower(c.LLMProvider)
	if c.LLMProvider == "" {
		c.LLMProvider = ProviderOpenAI
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.LLMBaseURL == "" && c.LLMProvider == ProviderOpenAI {
		c.LLMBaseURL = "https://api.openai.com/v1"
	}
	if c.LLMModel == "" {
		switch c.LLMProvider {
		case ProviderGemini:
			c.LLMModel = "gemini-2.0-flash"
		default:
			c.LLMModel = "gpt-3.5-turbo"
		}
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
}

// GenerationEnabled reports whether a generation backend credential is set.
// Without one every post is the fallback post.
func (c *Config) GenerationEnabled() bool {
	return c.LLMAPIKey != ""
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
