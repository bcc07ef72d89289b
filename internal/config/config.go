package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	RuntimeHTTP   = "http"
	RuntimeLambda = "lambda"
)

// Config is the full process configuration. It is read once in main and
// passed down as plain values.
type Config struct {
	Env      string
	LogLevel string
	Runtime  string

	HTTP          HTTPConfig
	OpenAI        OpenAIConfig
	ExchangeRates ExchangeRatesConfig

	CatalogPath string
	ParamPrefix string
}

type HTTPConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type ExchangeRatesConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Load reads an optional .env file and the process environment.
// Credentials may still be empty afterwards; see ResolveSecrets.
func Load(envFiles ...string) (*Config, error) {
	loadEnvFiles(envFiles)

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return &Config{
		Env:      strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		LogLevel: strings.TrimSpace(v.GetString("LOG_LEVEL")),
		Runtime:  strings.ToLower(strings.TrimSpace(v.GetString("RUNTIME"))),
		HTTP: HTTPConfig{
			Port:            v.GetInt("HTTP_PORT"),
			ReadTimeout:     seconds(v, "HTTP_READ_TIMEOUT_SEC"),
			WriteTimeout:    seconds(v, "HTTP_WRITE_TIMEOUT_SEC"),
			ShutdownTimeout: seconds(v, "HTTP_SHUTDOWN_TIMEOUT_SEC"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  strings.TrimSpace(v.GetString("OPENAI_API_KEY")),
			BaseURL: strings.TrimSpace(v.GetString("OPENAI_BASE_URL")),
			Model:   strings.TrimSpace(v.GetString("OPENAI_MODEL")),
			Timeout: seconds(v, "OPENAI_TIMEOUT_SEC"),
		},
		ExchangeRates: ExchangeRatesConfig{
			APIKey:  strings.TrimSpace(v.GetString("EXCHANGE_RATES_API_KEY")),
			BaseURL: strings.TrimSpace(v.GetString("EXCHANGE_RATES_BASE_URL")),
			Timeout: seconds(v, "EXCHANGE_RATES_TIMEOUT_SEC"),
		},
		CatalogPath: strings.TrimSpace(v.GetString("CATALOG_PATH")),
		ParamPrefix: strings.TrimRight(strings.TrimSpace(v.GetString("PARAM_PREFIX")), "/"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "local")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("RUNTIME", RuntimeHTTP)
	v.SetDefault("HTTP_PORT", 3000)
	v.SetDefault("HTTP_READ_TIMEOUT_SEC", 10)
	v.SetDefault("HTTP_WRITE_TIMEOUT_SEC", 60)
	v.SetDefault("HTTP_SHUTDOWN_TIMEOUT_SEC", 10)
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_MODEL", "gpt-3.5-turbo")
	v.SetDefault("OPENAI_TIMEOUT_SEC", 30)
	v.SetDefault("EXCHANGE_RATES_API_KEY", "")
	v.SetDefault("EXCHANGE_RATES_BASE_URL", "https://openexchangerates.org/api")
	v.SetDefault("EXCHANGE_RATES_TIMEOUT_SEC", 10)
	v.SetDefault("CATALOG_PATH", "data/products.csv")
	v.SetDefault("PARAM_PREFIX", "")
}

func seconds(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt(key)) * time.Second
}

// loadEnvFiles loads the first readable file. Missing files are not an error;
// variables already set in the environment win.
func loadEnvFiles(paths []string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err == nil {
			return
		}
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	if c.OpenAI.Model == "" {
		errs = append(errs, errors.New("OPENAI_MODEL must not be empty"))
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT %d out of range", c.HTTP.Port))
	}
	switch c.Runtime {
	case RuntimeHTTP, RuntimeLambda:
	default:
		errs = append(errs, fmt.Errorf("RUNTIME %q must be %q or %q", c.Runtime, RuntimeHTTP, RuntimeLambda))
	}
	if c.CatalogPath == "" {
		errs = append(errs, errors.New("CATALOG_PATH must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// ParameterGetter reads a single decrypted parameter by name.
type ParameterGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

const (
	openAIKeyParam        = "openai-api-key"
	exchangeRatesKeyParam = "exchange-rates-api-key"
)

// ResolveSecrets fills credentials left empty by the environment from the
// parameter store under ParamPrefix. Parameters hold {"token": "..."}.
// A missing rate key is tolerated; conversions then fail at call time.
func (c *Config) ResolveSecrets(ctx context.Context, params ParameterGetter) error {
	if c.ParamPrefix == "" || params == nil {
		return nil
	}
	if c.OpenAI.APIKey == "" {
		token, err := readToken(ctx, params, c.ParamPrefix+"/"+openAIKeyParam)
		if err != nil {
			return err
		}
		c.OpenAI.APIKey = token
	}
	if c.ExchangeRates.APIKey == "" {
		token, err := readToken(ctx, params, c.ParamPrefix+"/"+exchangeRatesKeyParam)
		if err == nil {
			c.ExchangeRates.APIKey = token
		}
	}
	return nil
}

func readToken(ctx context.Context, params ParameterGetter, name string) (string, error) {
	raw, err := params.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("config: read %s: %w", name, err)
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return "", fmt.Errorf("config: parse %s: %w", name, err)
	}
	token := strings.TrimSpace(payload.Token)
	if token == "" {
		return "", fmt.Errorf("config: %s has empty token", name)
	}
	return token, nil
}
