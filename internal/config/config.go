package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Port        string   `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`

	Log struct {
		Format string `yaml:"format"` // "console" or "json"
	} `yaml:"log"`

	Database struct {
		Type string `yaml:"type"` // "sqlite" or "postgres"
		Path string `yaml:"path"` // SQLite path or PostgreSQL URL
	} `yaml:"database"`

	Storage struct {
		// EncryptionKey enables at-rest encryption of chat history when set.
		EncryptionKey string `yaml:"encryption_key"`
	} `yaml:"storage"`

	LLM struct {
		Timeout      time.Duration `yaml:"timeout"`
		HistoryLimit int           `yaml:"history_limit"`
		Primary      GeminiConfig  `yaml:"primary"`
		Secondary    OpenAIConfig  `yaml:"secondary"`
	} `yaml:"llm"`

	Mood struct {
		Enabled bool          `yaml:"enabled"`
		Timeout time.Duration `yaml:"timeout"`
		Gemini  GeminiConfig  `yaml:"gemini"`
	} `yaml:"mood"`

	Translation struct {
		Provider string        `yaml:"provider"` // "libre", "google" or "none"
		URL      string        `yaml:"url"`
		APIKey   string        `yaml:"api_key"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"translation"`

	Recorder struct {
		Workers      int           `yaml:"workers"`
		QueueSize    int           `yaml:"queue_size"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"recorder"`

	Admin struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"admin"`

	Realtime struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"realtime"`

	Telegram struct {
		Enabled  bool   `yaml:"enabled"`
		BotToken string `yaml:"bot_token"`
	} `yaml:"telegram"`
}

// GeminiConfig configures a Gemini model. The backend counts as configured
// only when APIKey is non-empty.
type GeminiConfig struct {
	APIKey            string `yaml:"api_key"`
	ModelName         string `yaml:"model_name"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// OpenAIConfig configures an OpenAI-compatible chat backend (Groq, OpenRouter, ...).
type OpenAIConfig struct {
	APIKey            string `yaml:"api_key"`
	BaseURL           string `yaml:"base_url"`
	ModelName         string `yaml:"model_name"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// LoadConfig loads configuration from YAML file.
// A .env file next to the working directory is loaded first so that
// ${VAR} references in the YAML can be filled from it.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	config := &Config{}
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.expandEnv()
	config.setDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) expandEnv() {
	c.Database.Path = os.ExpandEnv(c.Database.Path)
	c.Storage.EncryptionKey = os.ExpandEnv(c.Storage.EncryptionKey)
	c.LLM.Primary.APIKey = os.ExpandEnv(c.LLM.Primary.APIKey)
	c.LLM.Secondary.APIKey = os.ExpandEnv(c.LLM.Secondary.APIKey)
	c.Mood.Gemini.APIKey = os.ExpandEnv(c.Mood.Gemini.APIKey)
	c.Translation.APIKey = os.ExpandEnv(c.Translation.APIKey)
	c.Admin.JWTSecret = os.ExpandEnv(c.Admin.JWTSecret)
	c.Telegram.BotToken = os.ExpandEnv(c.Telegram.BotToken)
}

func (c *Config) setDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}

	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Path == "" && c.Database.Type == "sqlite" {
		c.Database.Path = "./data/wellness.db"
	}

	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 6 * time.Second
	}
	if c.LLM.HistoryLimit == 0 {
		c.LLM.HistoryLimit = 10
	}
	if c.LLM.Primary.ModelName == "" {
		c.LLM.Primary.ModelName = "gemini-1.5-flash"
	}
	if c.LLM.Secondary.BaseURL == "" {
		c.LLM.Secondary.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.LLM.Secondary.ModelName == "" {
		c.LLM.Secondary.ModelName = "llama-3.3-70b-versatile"
	}

	if c.Mood.Timeout == 0 {
		c.Mood.Timeout = 6 * time.Second
	}
	// The extractor reuses the primary key unless it has its own.
	if c.Mood.Gemini.APIKey == "" {
		c.Mood.Gemini.APIKey = c.LLM.Primary.APIKey
	}
	if c.Mood.Gemini.ModelName == "" {
		c.Mood.Gemini.ModelName = c.LLM.Primary.ModelName
	}

	if c.Translation.Provider == "" {
		c.Translation.Provider = "none"
	}
	if c.Translation.Timeout == 0 {
		c.Translation.Timeout = 5 * time.Second
	}

	if c.Recorder.Workers == 0 {
		c.Recorder.Workers = 2
	}
	if c.Recorder.QueueSize == 0 {
		c.Recorder.QueueSize = 256
	}
	if c.Recorder.WriteTimeout == 0 {
		c.Recorder.WriteTimeout = 5 * time.Second
	}
}

// Validate reports settings that cannot work at all.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required for %s", c.Database.Type)
	}

	switch c.Translation.Provider {
	case "none":
	case "libre":
		if c.Translation.URL == "" {
			return fmt.Errorf("translation.url is required for the libre provider")
		}
	case "google":
		if c.Translation.APIKey == "" {
			return fmt.Errorf("translation.api_key is required for the google provider")
		}
	default:
		return fmt.Errorf("unsupported translation provider %q", c.Translation.Provider)
	}

	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
	}
	return nil
}
