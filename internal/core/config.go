package core

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// AgentAlias maps a short alias name to a full agent command with optional
// default arguments, so `drover run --agent fast` can expand to a pinned
// model invocation.
type AgentAlias struct {
	Name        string
	Command     string
	DefaultArgs []string
}

// Config holds all runtime settings for a drover invocation. Precedence:
// flags > .drover.yaml > defaults.
type Config struct {
	AgentCommand    string
	AgentArgs       []string
	Model           string
	SkipPermissions bool
	Aliases         []AgentAlias

	MaxIterations int
	IdleTimeout   time.Duration
	SleepBetween  time.Duration
	StopOnFailure bool

	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	AutoCommit   bool
	CommitPrefix string
	UpdateSource bool
}

// ConfigurationManager defines the interface for loading and validating
// drover configuration from a .drover.yaml file.
type ConfigurationManager interface {
	Load() (*Config, error)
	Validate(cfg *Config) error
}

// viperConfigManager implements ConfigurationManager using Viper.
type viperConfigManager struct {
	// workingDir is the directory searched for .drover.yaml.
	workingDir string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// configuration relative to workingDir.
func NewConfigurationManager(workingDir string) ConfigurationManager {
	return &viperConfigManager{workingDir: workingDir}
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		AgentCommand:    "claude",
		SkipPermissions: true,
		MaxIterations:   50,
		IdleTimeout:     60 * time.Second,
		SleepBetween:    2 * time.Second,
		RetryAttempts:   3,
		RetryBaseDelay:  time.Second,
		RetryMaxDelay:   60 * time.Second,
		AutoCommit:      true,
		CommitPrefix:    "feat:",
		UpdateSource:    true,
	}
}

// Load reads .drover.yaml from the working directory. A missing file yields
// the defaults; a malformed file is a configuration error.
func (cm *viperConfigManager) Load() (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName(".drover")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.workingDir)

	v.SetDefault("agent.command", cfg.AgentCommand)
	v.SetDefault("agent.skip_permissions", cfg.SkipPermissions)
	v.SetDefault("execution.max_iterations", cfg.MaxIterations)
	v.SetDefault("execution.idle_timeout_seconds", int(cfg.IdleTimeout.Seconds()))
	v.SetDefault("execution.sleep_between_seconds", int(cfg.SleepBetween.Seconds()))
	v.SetDefault("execution.stop_on_failure", cfg.StopOnFailure)
	v.SetDefault("retry.max_attempts", cfg.RetryAttempts)
	v.SetDefault("retry.base_delay_seconds", cfg.RetryBaseDelay.Seconds())
	v.SetDefault("retry.max_delay_seconds", cfg.RetryMaxDelay.Seconds())
	v.SetDefault("git.auto_commit", cfg.AutoCommit)
	v.SetDefault("git.commit_prefix", cfg.CommitPrefix)
	v.SetDefault("sync.update_source", cfg.UpdateSource)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .drover.yaml: %w", err)
	}

	cfg.AgentCommand = v.GetString("agent.command")
	cfg.AgentArgs = v.GetStringSlice("agent.args")
	cfg.Model = v.GetString("agent.model")
	cfg.SkipPermissions = v.GetBool("agent.skip_permissions")
	cfg.MaxIterations = v.GetInt("execution.max_iterations")
	cfg.IdleTimeout = time.Duration(v.GetInt("execution.idle_timeout_seconds")) * time.Second
	cfg.SleepBetween = time.Duration(v.GetInt("execution.sleep_between_seconds")) * time.Second
	cfg.StopOnFailure = v.GetBool("execution.stop_on_failure")
	cfg.RetryAttempts = v.GetInt("retry.max_attempts")
	cfg.RetryBaseDelay = time.Duration(v.GetFloat64("retry.base_delay_seconds") * float64(time.Second))
	cfg.RetryMaxDelay = time.Duration(v.GetFloat64("retry.max_delay_seconds") * float64(time.Second))
	cfg.AutoCommit = v.GetBool("git.auto_commit")
	cfg.CommitPrefix = v.GetString("git.commit_prefix")
	cfg.UpdateSource = v.GetBool("sync.update_source")

	// Parse agent.aliases section.
	raw := v.Get("agent.aliases")
	if raw != nil {
		if aliasSlice, ok := raw.([]interface{}); ok {
			for _, item := range aliasSlice {
				m, ok := item.(map[string]interface{})
				if !ok {
					continue
				}
				alias := AgentAlias{}
				if name, ok := m["name"].(string); ok {
					alias.Name = name
				}
				if cmd, ok := m["command"].(string); ok {
					alias.Command = cmd
				}
				if args, ok := m["default_args"].([]interface{}); ok {
					for _, a := range args {
						if s, ok := a.(string); ok {
							alias.DefaultArgs = append(alias.DefaultArgs, s)
						}
					}
				}
				cfg.Aliases = append(cfg.Aliases, alias)
			}
		}
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values and returns a clear
// error naming the offending key.
func (cm *viperConfigManager) Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}
	if cfg.AgentCommand == "" {
		return fmt.Errorf("agent.command must not be empty")
	}
	if cfg.MaxIterations < 1 {
		return fmt.Errorf("execution.max_iterations must be at least 1, got %d", cfg.MaxIterations)
	}
	if cfg.IdleTimeout < time.Second {
		return fmt.Errorf("execution.idle_timeout_seconds must be at least 1, got %s", cfg.IdleTimeout)
	}
	if cfg.RetryAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", cfg.RetryAttempts)
	}
	if cfg.RetryBaseDelay <= 0 {
		return fmt.Errorf("retry.base_delay_seconds must be positive, got %s", cfg.RetryBaseDelay)
	}
	if cfg.RetryMaxDelay < cfg.RetryBaseDelay {
		return fmt.Errorf("retry.max_delay_seconds must not be below the base delay")
	}
	for _, a := range cfg.Aliases {
		if a.Name == "" || a.Command == "" {
			return fmt.Errorf("agent.aliases entries need both name and command")
		}
	}
	return nil
}
