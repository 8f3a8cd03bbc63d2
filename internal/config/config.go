// Package config loads engine configuration: the agent CLI's executable
// path and argument-template flags, build loop limits, and the optional
// per-model context-window sizes shown in the status bar (spec §6).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/vmakaev/rslph/internal/pathresolve"
)

// Config is the engine's resolved configuration.
type Config struct {
	Agent AgentConfig `mapstructure:"agent" yaml:"agent"`
	Build BuildConfig `mapstructure:"build" yaml:"build"`
	// ContextWindows maps a model name to its context-window size in
	// tokens, used only to render a usage bar in the status bar; absence
	// of an entry simply omits the bar for that model.
	ContextWindows map[string]int `mapstructure:"context_windows" yaml:"context_windows"`
}

// AgentConfig describes how to invoke the agent CLI. The engine treats the
// flag spellings as an opaque configuration template; it never hardcodes a
// particular CLI's flag names (spec §4.F open questions).
type AgentConfig struct {
	Binary            string `mapstructure:"binary" yaml:"binary"`
	PrintFlag         string `mapstructure:"print_flag" yaml:"print_flag"`
	VerboseFlag       string `mapstructure:"verbose_flag" yaml:"verbose_flag"`
	InternetFlag      string `mapstructure:"internet_flag" yaml:"internet_flag,omitempty"`
	OutputFormatFlag  string `mapstructure:"output_format_flag" yaml:"output_format_flag"`
	OutputFormatValue string `mapstructure:"output_format_value" yaml:"output_format_value"`
	SystemPromptFlag  string `mapstructure:"system_prompt_flag" yaml:"system_prompt_flag"`
	ResumeFlag        string `mapstructure:"resume_flag" yaml:"resume_flag"`

	// Model, if set, is passed via ModelFlag and doubles as the lookup key
	// into ContextWindows for the status bar's usage gauge (spec §4.G).
	Model     string `mapstructure:"model" yaml:"model,omitempty"`
	ModelFlag string `mapstructure:"model_flag" yaml:"model_flag,omitempty"`
}

// BuildConfig governs the build loop's limits.
type BuildConfig struct {
	MaxIterations           int `mapstructure:"max_iterations" yaml:"max_iterations"`
	RecentThreads           int `mapstructure:"recent_threads" yaml:"recent_threads"`
	IterationTimeoutSeconds int `mapstructure:"iteration_timeout_seconds" yaml:"iteration_timeout_seconds"`
}

// configDir is the optional, read-only-from-the-engine's-perspective
// sidecar directory name (spec §6 persisted state layout).
const configDir = ".rslph"

// Load reads configuration from <workspaceDir>/.rslph/config.yaml if
// present, applying defaults for anything missing. If the file does not
// exist, DefaultConfig is returned unchanged.
func Load(workspaceDir string) (*Config, error) {
	configPath := filepath.Join(workspaceDir, configDir, "config.yaml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	return LoadFile(configPath)
}

// LoadFile reads configuration from an explicit path (the --config flag),
// applying the same defaults-for-missing-fields behavior as Load.
func LoadFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := *DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// DefaultConfig returns a config with default values matching the agent
// CLI wire contract described in spec §6.
func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			Binary:            "claude",
			PrintFlag:         "-p",
			VerboseFlag:       "--verbose",
			OutputFormatFlag:  "--output-format",
			OutputFormatValue: "stream-json",
			SystemPromptFlag:  "--system-prompt",
			ResumeFlag:        "--resume",
			ModelFlag:         "--model",
		},
		Build: BuildConfig{
			MaxIterations:           20,
			RecentThreads:           5,
			IterationTimeoutSeconds: 600,
		},
		ContextWindows: map[string]int{},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Agent.Binary == "" {
		cfg.Agent.Binary = defaults.Agent.Binary
	}
	if cfg.Agent.PrintFlag == "" {
		cfg.Agent.PrintFlag = defaults.Agent.PrintFlag
	}
	if cfg.Agent.VerboseFlag == "" {
		cfg.Agent.VerboseFlag = defaults.Agent.VerboseFlag
	}
	if cfg.Agent.OutputFormatFlag == "" {
		cfg.Agent.OutputFormatFlag = defaults.Agent.OutputFormatFlag
	}
	if cfg.Agent.OutputFormatValue == "" {
		cfg.Agent.OutputFormatValue = defaults.Agent.OutputFormatValue
	}
	if cfg.Agent.SystemPromptFlag == "" {
		cfg.Agent.SystemPromptFlag = defaults.Agent.SystemPromptFlag
	}
	if cfg.Agent.ResumeFlag == "" {
		cfg.Agent.ResumeFlag = defaults.Agent.ResumeFlag
	}
	if cfg.Agent.ModelFlag == "" {
		cfg.Agent.ModelFlag = defaults.Agent.ModelFlag
	}
	if cfg.Build.MaxIterations == 0 {
		cfg.Build.MaxIterations = defaults.Build.MaxIterations
	}
	if cfg.Build.RecentThreads == 0 {
		cfg.Build.RecentThreads = defaults.Build.RecentThreads
	}
	if cfg.Build.IterationTimeoutSeconds == 0 {
		cfg.Build.IterationTimeoutSeconds = defaults.Build.IterationTimeoutSeconds
	}
	if cfg.ContextWindows == nil {
		cfg.ContextWindows = defaults.ContextWindows
	}
}

// ResolveAgentBinary turns cfg.Agent.Binary into an absolute path, once,
// so the Subprocess Runner never has to search PATH itself. Callers invoke
// this exactly once at CLI startup, after Load, rather than on every
// iteration's spawn.
func ResolveAgentBinary(cfg *Config) error {
	resolved, err := pathresolve.Resolve(cfg.Agent.Binary)
	if err != nil {
		return err
	}
	cfg.Agent.Binary = resolved
	return nil
}
