/*
Package config manages TOML config for the oracle command.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bastiangx/oracle/internal/utils"
	"github.com/bastiangx/oracle/pkg/generate"
	"github.com/bastiangx/oracle/pkg/oracle"
	"github.com/bastiangx/oracle/pkg/token"
	"github.com/charmbracelet/log"
)

var ErrInvalid = errors.New("config: invalid value")

// Config holds the entire config structure
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Fuzz   FuzzConfig   `toml:"fuzz"`
	HTTP   HTTPConfig   `toml:"http"`
	CLI    CliConfig    `toml:"cli"`
}

// EngineConfig has model and generation options.
type EngineConfig struct {
	Alpha             float64 `toml:"alpha"`
	Threshold         float64 `toml:"threshold"`
	TopK              int     `toml:"top_k"`
	BeamWidth         int     `toml:"beam_width"`
	MaxLength         int     `toml:"max_length"`
	SeedPosition      string  `toml:"seed_position"`
	MaxSeedsPerBranch int     `toml:"max_seeds_per_branch"`
	Strategy          string  `toml:"strategy"`
	RandSeed          int     `toml:"rand_seed"`
	FoldCase          bool    `toml:"fold_case"`
	NormalizeIDs      bool    `toml:"normalize_ids"`
	IncludeKnown      bool    `toml:"include_known"`
	Limit             int     `toml:"limit"`
}

// FuzzConfig holds augmentation options.
type FuzzConfig struct {
	Enabled bool   `toml:"enabled"`
	Iters   int    `toml:"iters"`
	MinPool int    `toml:"min_pool"`
	Binary  string `toml:"binary"`
	// Builtin uses the in-process mutator instead of the external binary.
	Builtin bool `toml:"builtin"`
}

// HTTPConfig holds validation request options. Durations are seconds.
type HTTPConfig struct {
	Throttle      float64 `toml:"throttle"`
	Timeout       float64 `toml:"timeout"`
	StaticPattern string  `toml:"static_pattern"`
	ValidCodes    []int   `toml:"valid_codes"`
}

// CliConfig holds interactive explorer options.
type CliConfig struct {
	DefaultK   int  `toml:"default_k"`
	ShowCounts bool `toml:"show_counts"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.ExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "oracle")
	if utils.WritableDir(primaryPath) {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "oracle")
	if utils.WritableDir(macOSPath) {
		return macOSPath, nil
	}
	execDir, err := utils.ExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/oracle/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	policy := generate.DefaultPolicy()
	opts := oracle.DefaultOptions()
	return &Config{
		Engine: EngineConfig{
			Alpha:             opts.Alpha,
			Threshold:         opts.Threshold,
			TopK:              policy.TopK,
			BeamWidth:         policy.BeamWidth,
			MaxLength:         policy.MaxLength,
			SeedPosition:      policy.Seeds.String(),
			MaxSeedsPerBranch: policy.MaxSeedsPerBranch,
			Strategy:          policy.Strategy.String(),
			RandSeed:          0,
			FoldCase:          false,
			NormalizeIDs:      true,
			IncludeKnown:      false,
			Limit:             0,
		},
		Fuzz: FuzzConfig{
			Enabled: false,
			Iters:   opts.Fuzz.Iters,
			MinPool: opts.Fuzz.MinPool,
			Binary:  "radamsa",
			Builtin: false,
		},
		HTTP: HTTPConfig{
			Throttle:      0.5,
			Timeout:       5,
			StaticPattern: "",
			ValidCodes:    []int{200, 401, 403},
		},
		CLI: CliConfig{
			DefaultK:   5,
			ShowCounts: false,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		log.Debugf("Strict parse of %s failed: %v", configPath, err)
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse keeps every value it can read and defaults the rest.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "engine"); ok {
		extractEngineConfig(section, &config.Engine)
	}
	if section, ok := utils.ExtractSection(tempConfig, "fuzz"); ok {
		extractFuzzConfig(section, &config.Fuzz)
	}
	if section, ok := utils.ExtractSection(tempConfig, "http"); ok {
		extractHTTPConfig(section, &config.HTTP)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	return config, nil
}

func extractEngineConfig(data map[string]any, engine *EngineConfig) {
	if val, ok := utils.ExtractFloat64(data, "alpha"); ok {
		engine.Alpha = val
	}
	if val, ok := utils.ExtractFloat64(data, "threshold"); ok {
		engine.Threshold = val
	}
	if val, ok := utils.ExtractInt64(data, "top_k"); ok {
		engine.TopK = val
	}
	if val, ok := utils.ExtractInt64(data, "beam_width"); ok {
		engine.BeamWidth = val
	}
	if val, ok := utils.ExtractInt64(data, "max_length"); ok {
		engine.MaxLength = val
	}
	if val, ok := utils.ExtractString(data, "seed_position"); ok {
		engine.SeedPosition = val
	}
	if val, ok := utils.ExtractInt64(data, "max_seeds_per_branch"); ok {
		engine.MaxSeedsPerBranch = val
	}
	if val, ok := utils.ExtractString(data, "strategy"); ok {
		engine.Strategy = val
	}
	if val, ok := utils.ExtractInt64(data, "rand_seed"); ok {
		engine.RandSeed = val
	}
	if val, ok := utils.ExtractBool(data, "fold_case"); ok {
		engine.FoldCase = val
	}
	if val, ok := utils.ExtractBool(data, "normalize_ids"); ok {
		engine.NormalizeIDs = val
	}
	if val, ok := utils.ExtractBool(data, "include_known"); ok {
		engine.IncludeKnown = val
	}
	if val, ok := utils.ExtractInt64(data, "limit"); ok {
		engine.Limit = val
	}
}

func extractFuzzConfig(data map[string]any, fuzz *FuzzConfig) {
	if val, ok := utils.ExtractBool(data, "enabled"); ok {
		fuzz.Enabled = val
	}
	if val, ok := utils.ExtractInt64(data, "iters"); ok {
		fuzz.Iters = val
	}
	if val, ok := utils.ExtractInt64(data, "min_pool"); ok {
		fuzz.MinPool = val
	}
	if val, ok := utils.ExtractString(data, "binary"); ok {
		fuzz.Binary = val
	}
	if val, ok := utils.ExtractBool(data, "builtin"); ok {
		fuzz.Builtin = val
	}
}

func extractHTTPConfig(data map[string]any, http *HTTPConfig) {
	if val, ok := utils.ExtractFloat64(data, "throttle"); ok {
		http.Throttle = val
	}
	if val, ok := utils.ExtractFloat64(data, "timeout"); ok {
		http.Timeout = val
	}
	if val, ok := utils.ExtractString(data, "static_pattern"); ok {
		http.StaticPattern = val
	}
	if val, ok := utils.ExtractIntSlice(data, "valid_codes"); ok {
		http.ValidCodes = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_k"); ok {
		cli.DefaultK = val
	}
	if val, ok := utils.ExtractBool(data, "show_counts"); ok {
		cli.ShowCounts = val
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	configDir := filepath.Dir(defaultPath)
	if err := utils.EnsureDir(configDir); err != nil {
		return err
	}
	return utils.SaveTOMLFile(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.AbsPath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// EngineOptions converts the engine and fuzz sections.
func (c *Config) EngineOptions() (oracle.Options, error) {
	seeds, err := generate.ParseSeedPosition(c.Engine.SeedPosition)
	if err != nil {
		return oracle.Options{}, err
	}
	strategy, err := generate.ParseStrategy(c.Engine.Strategy)
	if err != nil {
		return oracle.Options{}, err
	}
	if c.Engine.RandSeed < 0 {
		return oracle.Options{}, fmt.Errorf("%w: rand_seed %d < 0", ErrInvalid, c.Engine.RandSeed)
	}

	opts := oracle.DefaultOptions()
	opts.Alpha = c.Engine.Alpha
	opts.Threshold = c.Engine.Threshold
	opts.Policy = generate.Policy{
		MaxLength:         c.Engine.MaxLength,
		TopK:              c.Engine.TopK,
		BeamWidth:         c.Engine.BeamWidth,
		Seeds:             seeds,
		MaxSeedsPerBranch: c.Engine.MaxSeedsPerBranch,
		Strategy:          strategy,
		RandSeed:          uint64(c.Engine.RandSeed),
	}
	opts.Tokenizer = token.Tokenizer{FoldCase: c.Engine.FoldCase, NormalizeIDs: c.Engine.NormalizeIDs}
	opts.Fuzz = oracle.FuzzOptions{Enabled: c.Fuzz.Enabled, Iters: c.Fuzz.Iters, MinPool: c.Fuzz.MinPool}
	opts.IncludeKnown = c.Engine.IncludeKnown
	opts.Limit = c.Engine.Limit
	return opts, opts.Validate()
}

// ThrottleDuration converts the throttle seconds.
func (h HTTPConfig) ThrottleDuration() time.Duration {
	return time.Duration(h.Throttle * float64(time.Second))
}

// TimeoutDuration converts the timeout seconds.
func (h HTTPConfig) TimeoutDuration() time.Duration {
	return time.Duration(h.Timeout * float64(time.Second))
}

// Validate checks every section.
func (c *Config) Validate() error {
	if _, err := c.EngineOptions(); err != nil {
		return err
	}
	switch {
	case c.HTTP.Throttle < 0:
		return fmt.Errorf("%w: http.throttle %v < 0", ErrInvalid, c.HTTP.Throttle)
	case c.HTTP.Timeout <= 0:
		return fmt.Errorf("%w: http.timeout %v <= 0", ErrInvalid, c.HTTP.Timeout)
	case c.CLI.DefaultK < 1:
		return fmt.Errorf("%w: cli.default_k %d < 1", ErrInvalid, c.CLI.DefaultK)
	}
	for _, code := range c.HTTP.ValidCodes {
		if code < 100 || code > 599 {
			return fmt.Errorf("%w: http.valid_codes contains %d", ErrInvalid, code)
		}
	}
	return nil
}
