package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port       string           `mapstructure:"port"`
	Qdrant     QdrantConfig     `mapstructure:"qdrant"`
	Embeddings EmbeddingsConfig `mapstructure:"embeddings"`
	LLM        LLMConfig        `mapstructure:"llm"`
	WhatsApp   WhatsAppConfig   `mapstructure:"whatsapp"`
	QuickChart QuickChartConfig `mapstructure:"quickchart"`
}

type QdrantConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	UseTLS     bool   `mapstructure:"use_tls"`
	Collection string `mapstructure:"collection"`
	APIKey     string `mapstructure:"QDRANT_API_KEY"`
}

// EmbeddingsConfig selects the embedding provider. The same provider and
// model must be used at ingestion and at query time; mixing them is caught
// later by the retriever's dimension guard.
type EmbeddingsConfig struct {
	Provider      string `mapstructure:"provider"` // "google" or "openai"
	Model         string `mapstructure:"model"`
	GoogleAPIKey  string `mapstructure:"GOOGLE_API_KEY"`
	OpenAIAPIKey  string `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`
}

// LLMConfig configures the primary completion provider and an optional
// alternate used as a fallback when the primary fails.
type LLMConfig struct {
	Provider        string `mapstructure:"provider"` // "gemini" or "deepseek"
	Model           string `mapstructure:"model"`
	AltProvider     string `mapstructure:"alt_provider"`
	AltModel        string `mapstructure:"alt_model"`
	GoogleAPIKey    string `mapstructure:"GOOGLE_API_KEY"`
	DeepSeekAPIKey  string `mapstructure:"DEEPSEEK_API_KEY"`
	DeepSeekBaseURL string `mapstructure:"deepseek_base_url"`
}

type WhatsAppConfig struct {
	ReplyTimeoutMS    int    `mapstructure:"reply_timeout_ms"`
	ValidateSignature bool   `mapstructure:"validate_signature"`
	PublicURL         string `mapstructure:"public_url"`
	AccountSID        string `mapstructure:"TWILIO_ACCOUNT_SID"`
	AuthToken         string `mapstructure:"TWILIO_AUTH_TOKEN"`
}

type QuickChartConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"QUICKCHART_API_KEY"`
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("port", "8080")
	v.SetDefault("qdrant.port", 6334)
	v.SetDefault("qdrant.use_tls", true)
	v.SetDefault("qdrant.collection", "docs_text-embedding-004")
	v.SetDefault("embeddings.provider", "google")
	v.SetDefault("embeddings.model", "text-embedding-004")
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "gemini-1.5-flash")
	v.SetDefault("llm.deepseek_base_url", "https://api.deepseek.com/v1")
	v.SetDefault("whatsapp.reply_timeout_ms", 9000)
	v.SetDefault("quickchart.base_url", "https://quickchart.io")

	// Secrets come from the environment, never from the config file.
	v.AutomaticEnv()
	v.BindEnv("qdrant.QDRANT_API_KEY", "QDRANT_API_KEY")
	v.BindEnv("embeddings.GOOGLE_API_KEY", "GOOGLE_API_KEY")
	v.BindEnv("embeddings.OPENAI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("llm.GOOGLE_API_KEY", "GOOGLE_API_KEY")
	v.BindEnv("llm.DEEPSEEK_API_KEY", "DEEPSEEK_API_KEY")
	v.BindEnv("whatsapp.TWILIO_ACCOUNT_SID", "TWILIO_ACCOUNT_SID")
	v.BindEnv("whatsapp.TWILIO_AUTH_TOKEN", "TWILIO_AUTH_TOKEN")
	v.BindEnv("quickchart.QUICKCHART_API_KEY", "QUICKCHART_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate enforces the credential requirements for the selected providers.
// A missing credential is a configuration error and is fatal at load time.
func (c *Config) Validate() error {
	if c.Qdrant.Host == "" {
		return fmt.Errorf("qdrant host missing: set qdrant.host")
	}

	switch c.Embeddings.Provider {
	case "google":
		if c.Embeddings.GoogleAPIKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY required for google embeddings")
		}
	case "openai":
		if c.Embeddings.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY required for openai embeddings")
		}
	default:
		return fmt.Errorf("unsupported embeddings provider: %q", c.Embeddings.Provider)
	}

	for _, p := range []struct{ name, provider string }{
		{"llm.provider", c.LLM.Provider},
		{"llm.alt_provider", c.LLM.AltProvider},
	} {
		switch p.provider {
		case "gemini":
			if c.LLM.GoogleAPIKey == "" {
				return fmt.Errorf("GOOGLE_API_KEY required for gemini (%s)", p.name)
			}
		case "deepseek":
			if c.LLM.DeepSeekAPIKey == "" {
				return fmt.Errorf("DEEPSEEK_API_KEY required for deepseek (%s)", p.name)
			}
		case "":
			if p.name == "llm.provider" {
				return fmt.Errorf("llm.provider missing")
			}
			// alternate provider is optional
		default:
			return fmt.Errorf("unsupported completion provider: %q (%s)", p.provider, p.name)
		}
	}

	if c.WhatsApp.ValidateSignature && c.WhatsApp.AuthToken == "" {
		return fmt.Errorf("TWILIO_AUTH_TOKEN required when whatsapp.validate_signature is set")
	}

	return nil
}
