// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger        LoggerConfig        `mapstructure:"logger" yaml:"logger"`
	Temporal      TemporalConfig      `mapstructure:"temporal" yaml:"temporal"`
	Database      DatabaseConfig      `mapstructure:"database" yaml:"database"`
	LLM           LLMRouterConfig     `mapstructure:"llm" yaml:"llm"`
	Browser       BrowserConfig       `mapstructure:"browser" yaml:"browser"`
	Email         EmailConfig         `mapstructure:"email" yaml:"email"`
	Memory        MemoryConfig        `mapstructure:"memory" yaml:"memory"`
	Orchestration OrchestrationConfig `mapstructure:"orchestration" yaml:"orchestration"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// TemporalConfig holds the durable-execution connection details.
type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port" yaml:"host_port"`
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
	TaskQueue string `mapstructure:"task_queue" yaml:"task_queue"`
}

// DatabaseConfig holds the job-store connection details.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
)

// LLMModelConfig defines the configuration for a single LLM.
type LLMModelConfig struct {
	Provider      LLMProvider       `mapstructure:"provider" yaml:"provider"`
	Model         string            `mapstructure:"model" yaml:"model"`
	APIKey        string            `mapstructure:"api_key" yaml:"-"`
	Endpoint      string            `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout    time.Duration     `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature   float32           `mapstructure:"temperature" yaml:"temperature"`
	TopP          float32           `mapstructure:"top_p" yaml:"top_p"`
	TopK          int               `mapstructure:"top_k" yaml:"top_k"`
	MaxTokens     int               `mapstructure:"max_tokens" yaml:"max_tokens"`
	SafetyFilters map[string]string `mapstructure:"safety_filters" yaml:"safety_filters"`
}

// LLMRouterConfig configures the model routing logic: a fast model for
// planning and a powerful one for computer-use turns.
type LLMRouterConfig struct {
	Fast     LLMModelConfig `mapstructure:"fast" yaml:"fast"`
	Powerful LLMModelConfig `mapstructure:"powerful" yaml:"powerful"`
	// TurnRatePerMinute caps calls to the powerful tier to stay under
	// provider quotas. Zero disables the limiter.
	TurnRatePerMinute float64 `mapstructure:"turn_rate_per_minute" yaml:"turn_rate_per_minute"`
}

// BrowserBackendKind selects which browser backend drives sessions.
type BrowserBackendKind string

const (
	BackendSteel BrowserBackendKind = "steel"
	BackendLocal BrowserBackendKind = "local"
)

// SteelConfig holds settings for the Steel cloud-browser API.
type SteelConfig struct {
	APIKey   string `mapstructure:"api_key" yaml:"-"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// UseProxy and SolveCaptcha require paid Steel plans.
	UseProxy     bool `mapstructure:"use_proxy" yaml:"use_proxy"`
	SolveCaptcha bool `mapstructure:"solve_captcha" yaml:"solve_captcha"`
}

// BrowserConfig holds settings for the agent's browser sessions.
type BrowserConfig struct {
	Backend        BrowserBackendKind `mapstructure:"backend" yaml:"backend"`
	ViewportWidth  int                `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int                `mapstructure:"viewport_height" yaml:"viewport_height"`
	Headless       bool               `mapstructure:"headless" yaml:"headless"`
	Steel          SteelConfig        `mapstructure:"steel" yaml:"steel"`
}

// EmailConfig holds settings for owner notifications.
type EmailConfig struct {
	APIKey      string `mapstructure:"api_key" yaml:"-"`
	Endpoint    string `mapstructure:"endpoint" yaml:"endpoint"`
	FromAddress string `mapstructure:"from_address" yaml:"from_address"`
	// ControlBaseURL is prepended to approve/reject links embedded in
	// approval-request emails.
	ControlBaseURL string `mapstructure:"control_base_url" yaml:"control_base_url"`
}

// MemoryConfig holds settings for the long-term memory service.
type MemoryConfig struct {
	APIKey   string `mapstructure:"api_key" yaml:"-"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}

// OrchestrationConfig tunes the task workflow itself. The values feed
// directly into the durable state machine, so changing them affects only
// newly started jobs.
type OrchestrationConfig struct {
	// MaxTurns is the hard ceiling on reasoning-action cycles per job.
	MaxTurns int `mapstructure:"max_turns" yaml:"max_turns"`
	// ApprovalTimeout bounds how long an approval gate waits for a human.
	ApprovalTimeout time.Duration `mapstructure:"approval_timeout" yaml:"approval_timeout"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "wraith")
	v.SetDefault("logger.log_file", "wraith.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Temporal --
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "wraith-task-queue")

	// -- LLM --
	v.SetDefault("llm.fast.provider", "gemini")
	v.SetDefault("llm.fast.model", "gemini-2.5-flash")
	v.SetDefault("llm.fast.api_timeout", "2m")
	v.SetDefault("llm.fast.temperature", 0.2)
	v.SetDefault("llm.powerful.provider", "gemini")
	v.SetDefault("llm.powerful.model", "gemini-2.5-pro")
	v.SetDefault("llm.powerful.api_timeout", "4m")
	v.SetDefault("llm.powerful.temperature", 0.2)
	v.SetDefault("llm.turn_rate_per_minute", 10.0)

	// -- Browser --
	v.SetDefault("browser.backend", "steel")
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 768)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.steel.endpoint", "https://api.steel.dev/v1")
	v.SetDefault("browser.steel.use_proxy", false)
	v.SetDefault("browser.steel.solve_captcha", false)

	// -- Email --
	v.SetDefault("email.endpoint", "https://api.resend.com")
	v.SetDefault("email.from_address", "agent@wraith.dev")
	v.SetDefault("email.control_base_url", "http://localhost:8000")

	// -- Memory --
	v.SetDefault("memory.endpoint", "https://api.supermemory.ai/v3")

	// -- Orchestration --
	v.SetDefault("orchestration.max_turns", 20)
	v.SetDefault("orchestration.approval_timeout", 24*time.Hour)
}

// NewDefaultConfig creates a new configuration struct populated with
// default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Bind environment variables for sensitive data.
	v.BindEnv("llm.fast.api_key", "WRAITH_GEMINI_API_KEY")
	v.BindEnv("llm.powerful.api_key", "WRAITH_GEMINI_API_KEY")
	v.BindEnv("browser.steel.api_key", "WRAITH_STEEL_API_KEY")
	v.BindEnv("email.api_key", "WRAITH_RESEND_API_KEY")
	v.BindEnv("memory.api_key", "WRAITH_SUPERMEMORY_API_KEY")
	v.BindEnv("database.url", "WRAITH_DATABASE_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Temporal.HostPort == "" {
		return fmt.Errorf("temporal.host_port is a required configuration field")
	}
	if c.Temporal.TaskQueue == "" {
		return fmt.Errorf("temporal.task_queue is a required configuration field")
	}
	if c.Orchestration.MaxTurns <= 0 {
		return fmt.Errorf("orchestration.max_turns must be a positive integer")
	}
	if c.Orchestration.ApprovalTimeout <= 0 {
		return fmt.Errorf("orchestration.approval_timeout must be a positive duration")
	}
	switch c.Browser.Backend {
	case BackendSteel, BackendLocal:
	default:
		return fmt.Errorf("browser.backend must be one of [%s %s], got %q",
			BackendSteel, BackendLocal, c.Browser.Backend)
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("browser viewport dimensions must be positive")
	}
	return nil
}
