package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public Public
}

type Public struct {
	APIBaseURL     string        `yaml:"api_base_url" validate:"required,url"`
	ListenPort     string        `yaml:"listen_port" validate:"required"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	LogLevel       string        `yaml:"log_level"`
	LogJSON        bool          `yaml:"log_json"`

	CorsAllowedOrigins []string `yaml:"cors_allowed_origins"`

	// Mention suggestions
	PersonaCacheTTL    time.Duration `yaml:"persona_cache_ttl" validate:"gt=0"`
	BlurGrace          time.Duration `yaml:"blur_grace" validate:"gte=0"`
	MentionMaxQueryLen int           `yaml:"mention_max_query_len" validate:"gt=0"`

	// Token budget
	EstimateDebounce      time.Duration `yaml:"estimate_debounce" validate:"gte=0"`
	SaturationWarningPct  float64       `yaml:"saturation_warning_pct" validate:"gt=0,lte=100"`
	SaturationCriticalPct float64       `yaml:"saturation_critical_pct" validate:"gtfield=SaturationWarningPct,lte=100"`
	TextMimeTypes         []string      `yaml:"text_mime_types" validate:"required,min=1"`
	TextExtensions        []string      `yaml:"text_extensions" validate:"required,min=1"`

	// Compose workspaces unused for this long are abandoned
	IdleWorkspaceTTL time.Duration `yaml:"idle_workspace_ttl" validate:"gt=0"`
}

// Default returns the settings used when public.yaml leaves a field out.
func Default() Public {
	return Public{
		ListenPort:            "8081",
		RequestTimeout:        30 * time.Second,
		LogLevel:              "info",
		PersonaCacheTTL:       5 * time.Minute,
		BlurGrace:             200 * time.Millisecond,
		MentionMaxQueryLen:    50,
		EstimateDebounce:      750 * time.Millisecond,
		SaturationWarningPct:  70,
		SaturationCriticalPct: 90,
		IdleWorkspaceTTL:      30 * time.Minute,
		TextMimeTypes: []string{
			"text/plain", "text/markdown", "text/csv", "text/html", "text/css",
			"text/xml", "text/x-python", "text/javascript",
			"application/json", "application/xml", "application/javascript",
			"application/x-yaml", "application/x-sh",
		},
		TextExtensions: []string{
			".txt", ".md", ".markdown", ".csv", ".json", ".xml", ".yaml", ".yml",
			".html", ".htm", ".css", ".js", ".ts", ".py", ".go", ".rs", ".java",
			".c", ".h", ".cpp", ".hpp", ".sh", ".toml", ".ini", ".cfg", ".log", ".sql",
		},
	}
}

// Validate checks the struct tags above.
func (p *Public) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func Load(configFolder string) (*Config, error) {
	configPath := path.Join(configFolder, "public.yaml")
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("can't read config file %s: %w", configPath, err)
	}

	public := Default()
	if err := yaml.Unmarshal(configFile, &public); err != nil {
		return nil, fmt.Errorf("can't unmarshal config file %s: %w", configPath, err)
	}
	if err := public.Validate(); err != nil {
		return nil, err
	}
	return &Config{Public: public}, nil
}

func MustLoad(configFolder string) *Config {
	cfg, err := Load(configFolder)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}
