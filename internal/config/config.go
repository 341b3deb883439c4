package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderLangChain = "langchain"
	ProviderGenAI     = "genai"

	TransportSMTP  = "smtp"
	TransportGmail = "gmail"
)

// Config holds everything the API needs at runtime. It is built once in main
// and handed to the services that need it; nothing below cmd/ reads the
// process environment directly.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
		// FrontendURL is where OAuth callbacks send the browser back to and the
		// only origin CORS allows.
		FrontendURL string `yaml:"frontend_url"`
	} `yaml:"server"`

	Database struct {
		// DSN is a postgres connection string. When empty the user store is
		// kept in memory.
		DSN string `yaml:"dsn"`
	} `yaml:"database"`

	LLM struct {
		Provider string `yaml:"provider"`
		APIKey   string `yaml:"api_key"`
		Model    string `yaml:"model"`
		// RequestsPerMinute paces calls to the extraction API. Zero disables pacing.
		RequestsPerMinute int `yaml:"requests_per_minute"`
	} `yaml:"llm"`

	Mail struct {
		Transport string `yaml:"transport"`
		Host      string `yaml:"host"`
		Port      int    `yaml:"port"`
		Username  string `yaml:"username"`
		Password  string `yaml:"password"`
		From      string `yaml:"from"`

		// Gmail transport only.
		CredentialsPath string `yaml:"credentials_path"`
		TokenPath       string `yaml:"token_path"`
	} `yaml:"mail"`

	Auth struct {
		JWTSecret string        `yaml:"jwt_secret"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`

	Microsoft struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		TenantID     string `yaml:"tenant_id"`
		RedirectURL  string `yaml:"redirect_url"`
	} `yaml:"microsoft"`

	Processor struct {
		FetchTimeout    time.Duration `yaml:"fetch_timeout"`
		ExtractTimeout  time.Duration `yaml:"extract_timeout"`
		MailTimeout     time.Duration `yaml:"mail_timeout"`
		MaxContentChars int           `yaml:"max_content_chars"`
		MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	} `yaml:"processor"`
}

// Load reads the optional YAML file at path, overlays environment variables
// and applies defaults. An empty path skips the file.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv is Load with an injectable environment lookup.
func LoadWithEnv(path string, getenv func(string) string) (Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := overlayEnv(&cfg, getenv); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func overlayEnv(cfg *Config, getenv func(string) string) error {
	str := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(dst *int, key string) {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
	dur := func(dst *time.Duration, key string) {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}

	str(&cfg.Server.Port, "PORT")
	str(&cfg.Server.FrontendURL, "FRONTEND_URL")

	str(&cfg.Database.DSN, "DATABASE_DSN")

	str(&cfg.LLM.Provider, "LLM_PROVIDER")
	str(&cfg.LLM.APIKey, "GEMINI_API_KEY")
	str(&cfg.LLM.Model, "LLM_MODEL")
	num(&cfg.LLM.RequestsPerMinute, "LLM_REQUESTS_PER_MINUTE")

	str(&cfg.Mail.Transport, "MAIL_TRANSPORT")
	str(&cfg.Mail.Host, "SMTP_HOST")
	num(&cfg.Mail.Port, "SMTP_PORT")
	str(&cfg.Mail.Username, "SMTP_USER")
	str(&cfg.Mail.Password, "SMTP_PASS")
	str(&cfg.Mail.From, "MAIL_FROM")
	str(&cfg.Mail.CredentialsPath, "GMAIL_CREDENTIALS")
	str(&cfg.Mail.TokenPath, "GMAIL_TOKEN")

	str(&cfg.Auth.JWTSecret, "JWT_SECRET")
	dur(&cfg.Auth.TokenTTL, "TOKEN_TTL")

	str(&cfg.Microsoft.ClientID, "CLIENT_ID")
	str(&cfg.Microsoft.ClientSecret, "CLIENT_SECRET")
	str(&cfg.Microsoft.TenantID, "TENANT_ID")
	str(&cfg.Microsoft.RedirectURL, "MICROSOFT_REDIRECT_URL")

	dur(&cfg.Processor.FetchTimeout, "FETCH_TIMEOUT")
	dur(&cfg.Processor.ExtractTimeout, "EXTRACT_TIMEOUT")
	dur(&cfg.Processor.MailTimeout, "MAIL_TIMEOUT")
	num(&cfg.Processor.MaxContentChars, "MAX_CONTENT_CHARS")
	if v := strings.TrimSpace(getenv("MAX_BODY_BYTES")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("MAX_BODY_BYTES: %w", err))
		} else {
			cfg.Processor.MaxBodyBytes = n
		}
	}

	return errors.Join(errs...)
}

// ApplyDefaults fills in every field that was left empty.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "5000"
	}
	if c.Server.FrontendURL == "" {
		c.Server.FrontendURL = "http://localhost:5173"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderLangChain
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gemini-2.5-flash"
	}
	if c.Mail.Transport == "" {
		c.Mail.Transport = TransportSMTP
	}
	if c.Mail.Port == 0 {
		c.Mail.Port = 587
	}
	if c.Mail.From == "" {
		c.Mail.From = c.Mail.Username
	}
	if c.Mail.CredentialsPath == "" {
		c.Mail.CredentialsPath = "credential.json"
	}
	if c.Mail.TokenPath == "" {
		c.Mail.TokenPath = "token.json"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Microsoft.RedirectURL == "" {
		c.Microsoft.RedirectURL = "http://localhost:" + c.Server.Port + "/auth/microsoft/callback"
	}
	if c.Processor.FetchTimeout == 0 {
		c.Processor.FetchTimeout = 10 * time.Second
	}
	if c.Processor.ExtractTimeout == 0 {
		c.Processor.ExtractTimeout = 10 * time.Second
	}
	if c.Processor.MailTimeout == 0 {
		c.Processor.MailTimeout = 10 * time.Second
	}
	if c.Processor.MaxContentChars == 0 {
		c.Processor.MaxContentChars = 10000
	}
	if c.Processor.MaxBodyBytes == 0 {
		c.Processor.MaxBodyBytes = 1 << 20
	}
}

// Validate checks that the configuration can run the API.
// It also applies default values for fields that are not set.
func (c *Config) Validate() error {
	c.ApplyDefaults()

	if c.Auth.JWTSecret == "" {
		return errors.New("missing required setting: JWT_SECRET")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if c.Auth.TokenTTL < 0 {
		return errors.New("token_ttl must be positive")
	}

	switch c.LLM.Provider {
	case ProviderLangChain, ProviderGenAI:
	default:
		return fmt.Errorf("unknown llm provider %q (want %s or %s)", c.LLM.Provider, ProviderLangChain, ProviderGenAI)
	}
	if c.LLM.APIKey == "" {
		return errors.New("missing required setting: GEMINI_API_KEY")
	}
	if c.LLM.RequestsPerMinute < 0 {
		return errors.New("llm requests_per_minute must not be negative")
	}

	switch c.Mail.Transport {
	case TransportSMTP:
		if c.Mail.Host == "" {
			return errors.New("missing required setting: SMTP_HOST")
		}
		if c.Mail.Port <= 0 || c.Mail.Port > 65535 {
			return fmt.Errorf("invalid SMTP_PORT %d", c.Mail.Port)
		}
		if c.Mail.From == "" {
			return errors.New("missing required setting: MAIL_FROM (or SMTP_USER)")
		}
	case TransportGmail:
		if _, err := os.Stat(c.Mail.CredentialsPath); err != nil {
			return fmt.Errorf("gmail credentials file: %w", err)
		}
	default:
		return fmt.Errorf("unknown mail transport %q (want %s or %s)", c.Mail.Transport, TransportSMTP, TransportGmail)
	}

	p := c.Processor
	if p.FetchTimeout < 0 || p.ExtractTimeout < 0 || p.MailTimeout < 0 {
		return errors.New("processor timeouts must be positive")
	}
	if p.MaxContentChars < 0 {
		return errors.New("processor max_content_chars must be positive")
	}
	if p.MaxBodyBytes < 0 {
		return errors.New("processor max_body_bytes must be positive")
	}

	return nil
}

// MicrosoftEnabled reports whether Microsoft sign-in is configured.
func (c *Config) MicrosoftEnabled() bool {
	return c.Microsoft.ClientID != "" && c.Microsoft.ClientSecret != "" && c.Microsoft.TenantID != ""
}
