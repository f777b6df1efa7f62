package cmd

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/screener/internal/stages"
)

const (
	app       = "screener"
	envPrefix = "SCREENER"
)

type Config struct {
	Pipeline *PipelineConfig `mapstructure:"pipeline" validate:"required"`
	Quality  *QualityConfig  `mapstructure:"quality" validate:"required"`
	Scoring  *ScoringConfig  `mapstructure:"scoring" validate:"required"`
	Timeouts *TimeoutsConfig `mapstructure:"timeouts" validate:"required"`
	AI       *AIConfig       `mapstructure:"ai" validate:"required"`
	Lookup   *LookupConfig   `mapstructure:"lookup" validate:"required"`
	Output   *OutputConfig   `mapstructure:"output" validate:"required"`
}

type PipelineConfig struct {
	Variant string `mapstructure:"variant" validate:"oneof=linear extended"`
	Workers int    `mapstructure:"workers" validate:"gte=1,lte=64"`
}

type QualityConfig struct {
	Threshold  float64 `mapstructure:"threshold" validate:"gte=0,lte=1"`
	MaxRetries int     `mapstructure:"max-retries" validate:"gte=0,lte=10"`
}

type ScoringConfig struct {
	Weights *WeightsConfig `mapstructure:"weights" validate:"required"`
}

type WeightsConfig struct {
	Skills     float64 `mapstructure:"skills" validate:"gte=0,lte=1"`
	Experience float64 `mapstructure:"experience" validate:"gte=0,lte=1"`
	Education  float64 `mapstructure:"education" validate:"gte=0,lte=1"`
}

type TimeoutsConfig struct {
	LLM    time.Duration `mapstructure:"llm" validate:"gte=0"`
	Lookup time.Duration `mapstructure:"lookup" validate:"gte=0"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider" validate:"omitempty,oneof=gemini"`
	Gemini   *GeminiConfig `mapstructure:"gemini" validate:"required_if=Enabled true"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key" json:"-"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries" validate:"gte=0"`
	MaxLogLength int    `mapstructure:"max-log-length" validate:"gte=0"`
}

type LookupConfig struct {
	// Enabled turns on the network lookups; the skill taxonomy is always available.
	Enabled         bool   `mapstructure:"enabled"`
	GitHubTokenFile string `mapstructure:"github-token-file"`
	UserAgent       string `mapstructure:"user-agent"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "screener ranks candidate resumes against a job description",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// setDefaults registers every key so environment variables can override keys
// missing from the config file.
func setDefaults(v *viper.Viper) {
	def := stages.DefaultConfig()

	v.SetDefault("pipeline.variant", stages.VariantExtended)
	v.SetDefault("pipeline.workers", def.Workers)
	v.SetDefault("quality.threshold", def.QualityThreshold)
	v.SetDefault("quality.max-retries", def.MaxRetries)
	v.SetDefault("scoring.weights.skills", def.Weights.Skills)
	v.SetDefault("scoring.weights.experience", def.Weights.Experience)
	v.SetDefault("scoring.weights.education", def.Weights.Education)
	v.SetDefault("timeouts.llm", 60*time.Second)
	v.SetDefault("timeouts.lookup", 15*time.Second)
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 200)
	v.SetDefault("lookup.enabled", false)
	v.SetDefault("lookup.github-token-file", "")
	v.SetDefault("lookup.user-agent", app)
	v.SetDefault("output.dir", "output")
}

func initConfig() {
	// Config is needed only by the commands that build a pipeline.
	if runCmd.CalledAs() == "" && graphCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// The default file is optional; an explicit one is not.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return loadConfig(viper.GetViper())
}

func loadConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the struct tags and that the scoring weights sum to 1.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is required")
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	w := c.Scoring.Weights
	if sum := w.Skills + w.Experience + w.Education; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("invalid config: scoring weights must sum to 1, got %.3f", sum)
	}
	return nil
}

// StageConfig converts the config into the stage policy.
func (c *Config) StageConfig() stages.Config {
	return stages.Config{
		Workers: c.Pipeline.Workers,
		Weights: stages.Weights{
			Skills:     c.Scoring.Weights.Skills,
			Experience: c.Scoring.Weights.Experience,
			Education:  c.Scoring.Weights.Education,
		},
		QualityThreshold: c.Quality.Threshold,
		MaxRetries:       c.Quality.MaxRetries,
	}
}
