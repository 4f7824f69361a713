// Package config holds nb2prod's settings, resolved by viper from defaults,
// an optional YAML file and NB2PROD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. NB2PROD_LOGGING_LEVEL.
const EnvPrefix = "NB2PROD"

// Config is the full set of tunables.
type Config struct {
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
	Heuristics HeuristicsConfig `mapstructure:"heuristics"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	// Workers bounds how many notebooks are analyzed at once.
	Workers int `mapstructure:"workers"`
}

// AnalysisConfig controls grouping and validation.
type AnalysisConfig struct {
	MaxCellsPerFunction int               `mapstructure:"max_cells_per_function"`
	DeadCodeRatio       float64           `mapstructure:"dead_code_ratio"`
	Educational         EducationalConfig `mapstructure:"educational"`
}

// EducationalConfig controls tutorial-notebook detection.
type EducationalConfig struct {
	NarrativeRatio      float64 `mapstructure:"narrative_ratio"`
	MinNumberedVariants int     `mapstructure:"min_numbered_variants"`
	MinRebindingCells   int     `mapstructure:"min_rebinding_cells"`
	// TutorialNames are the names whose rebinding counts toward detection.
	TutorialNames []string `mapstructure:"tutorial_names"`
}

// HeuristicsConfig points at an optional YAML table file layered over the
// built-in naming, typing and category tables.
type HeuristicsConfig struct {
	File string `mapstructure:"file"`
}

// LoggingConfig controls the stderr logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			MaxCellsPerFunction: 4,
			DeadCodeRatio:       0.5,
			Educational: EducationalConfig{
				NarrativeRatio:      0.5,
				MinNumberedVariants: 3,
				MinRebindingCells:   4,
				TutorialNames:       []string{"x", "y", "X", "data", "model"},
			},
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Workers: runtime.GOMAXPROCS(0),
	}
}

// SetDefaults registers every default with viper so that env overrides work
// for keys absent from the config file.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("analysis.max_cells_per_function", defaults.Analysis.MaxCellsPerFunction)
	viper.SetDefault("analysis.dead_code_ratio", defaults.Analysis.DeadCodeRatio)
	viper.SetDefault("analysis.educational.narrative_ratio", defaults.Analysis.Educational.NarrativeRatio)
	viper.SetDefault("analysis.educational.min_numbered_variants", defaults.Analysis.Educational.MinNumberedVariants)
	viper.SetDefault("analysis.educational.min_rebinding_cells", defaults.Analysis.Educational.MinRebindingCells)
	viper.SetDefault("analysis.educational.tutorial_names", defaults.Analysis.Educational.TutorialNames)

	viper.SetDefault("heuristics.file", defaults.Heuristics.File)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.format", defaults.Logging.Format)

	viper.SetDefault("workers", defaults.Workers)
}

// Init wires viper to the config file, the environment and the defaults.
// An explicit cfgFile must exist; the default locations are optional.
func Init(cfgFile string) error {
	SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nb2prod")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nb2prod"
	}
	return filepath.Join(home, ".config", "nb2prod")
}

// ConfigFile returns the path to the default config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
