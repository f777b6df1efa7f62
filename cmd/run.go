package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/screener/internal/ai"
	"github.com/spigell/screener/internal/ai/gemini"
	"github.com/spigell/screener/internal/enrichment"
	"github.com/spigell/screener/internal/extract"
	"github.com/spigell/screener/internal/logger"
	"github.com/spigell/screener/internal/lookup"
	"github.com/spigell/screener/internal/model"
	"github.com/spigell/screener/internal/secrets"
	"github.com/spigell/screener/internal/stages"
	"github.com/spigell/screener/internal/state"
)

const (
	PromptRanking   = "Show ranking"
	PromptReport    = "Write report"
	PromptState     = "Dump state"
	PromptQuestions = "Show interview questions"
	PromptExit      = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Screening finished, what next?",
	Items: []string{PromptRanking, PromptReport, PromptState, PromptQuestions, PromptExit},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Screen resumes against a job description",
	// Both commands carry a variant flag, so it is bound only for the one invoked.
	PreRun: func(cmd *cobra.Command, _ []string) {
		viper.BindPFlag("pipeline.variant", cmd.Flags().Lookup("variant"))
		viper.BindPFlag("output.dir", cmd.Flags().Lookup("output"))
	},
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("job", "", "a file with the job description")
	runCmd.Flags().StringSlice("resumes", nil, "resume files (pdf or text), comma separated")
	runCmd.Flags().String("variant", "", "pipeline variant: linear or extended")
	runCmd.Flags().StringP("output", "o", "", "directory for the report and the state dump")
	runCmd.Flags().BoolP("auto-approve", "y", false, "write all outputs without asking")

	runCmd.MarkFlagRequired("job")
	runCmd.MarkFlagRequired("resumes")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	base, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		base.Fatal("getting a config", zap.Error(err))
	}

	runID := uuid.NewString()
	logger := logger.WithRun(base, runID, config.Pipeline.Variant)
	logger.Info("starting the screener", zap.String("version", version))

	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	jobFile, _ := cmd.Flags().GetString("job")
	resumeFiles, _ := cmd.Flags().GetStringSlice("resumes")

	jobText, docs, err := readInputs(jobFile, resumeFiles)
	if err != nil {
		logger.Fatal("reading inputs", zap.Error(err))
	}

	set := stages.New(buildDeps(ctx, config, logger), config.StageConfig())
	pipe, err := stages.Build(config.Pipeline.Variant, set)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	rec, err := pipe.Run(ctx, state.New(jobText, docs))
	if err != nil {
		logger.Fatal("screening failed", zap.Error(err))
	}

	logger.Info("screening finished",
		zap.Int("candidates", len(rec.Ranked)),
		zap.Int("errors", len(rec.Errors)),
		zap.Int("reanalysis", rec.RetryCount),
	)

	out := newOutputs(config.Output.Dir, runID)

	if approved, _ := cmd.Flags().GetBool("auto-approve"); approved {
		printRanking(rec)
		for _, write := range []func(state.Record) (string, error){out.report, out.state} {
			filename, err := write(rec)
			if err != nil {
				logger.Fatal("writing output", zap.Error(err))
			}
			logger.Info("output written", zap.String("filename", filename))
		}
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, out, rec, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, out *outputs, rec state.Record, logger *zap.Logger) error {
	switch action {
	case PromptRanking:
		printRanking(rec)
		return nil
	case PromptReport:
		filename, err := out.report(rec)
		if err != nil {
			return err
		}
		logger.Info("report written", zap.String("filename", filename))
		return nil
	case PromptState:
		filename, err := out.state(rec)
		if err != nil {
			return err
		}
		logger.Info("state dumped", zap.String("filename", filename))
		return nil
	case PromptQuestions:
		printQuestions(rec)
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func readInputs(jobFile string, resumeFiles []string) (string, []model.Document, error) {
	job, err := os.ReadFile(jobFile)
	if err != nil {
		return "", nil, fmt.Errorf("read job description: %w", err)
	}

	docs := make([]model.Document, 0, len(resumeFiles))
	for _, name := range resumeFiles {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		data, err := os.ReadFile(name)
		if err != nil {
			return "", nil, fmt.Errorf("read resume: %w", err)
		}
		docs = append(docs, model.Document{Name: filepath.Base(name), Data: data})
	}
	return string(job), docs, nil
}

// buildDeps wires the generator and the lookups. Missing credentials disable
// the generator instead of failing the run.
func buildDeps(ctx context.Context, config *Config, logger *zap.Logger) stages.Deps {
	var generator ai.Generator
	maxLogLength := 0
	if config.AI.Gemini != nil {
		maxLogLength = config.AI.Gemini.MaxLogLength
	}

	if config.AI.Enabled {
		g, err := newGenerator(ctx, config.AI, logger)
		if err != nil {
			logger.Warn("text generation disabled, using rule-based fallbacks", zap.Error(err))
		} else {
			generator = g
		}
	}

	return stages.Deps{
		Caller:    ai.NewCaller(generator, logger, config.Timeouts.LLM, maxLogLength),
		Extractor: extract.NewFiles(logger),
		Enricher:  newEnricher(config, logger),
		Logger:    logger,
	}
}

func newGenerator(ctx context.Context, cfg *AIConfig, log *zap.Logger) (*gemini.Generator, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.Gemini.APIKeyFile,
		Value: cfg.Gemini.APIKey,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	genLogger := logger.WithModel(log, "gemini", cfg.Gemini.Model).With(
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)

	return gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
}

func newEnricher(config *Config, log *zap.Logger) *enrichment.Executor {
	taxonomy := lookup.NewTaxonomy()
	if !config.Lookup.Enabled {
		return enrichment.NewExecutor(nil, nil, taxonomy, config.Timeouts.Lookup, log)
	}

	token, err := secrets.Load(secrets.Source{
		Name: "github token",
		File: config.Lookup.GitHubTokenFile,
		Env:  "GITHUB_TOKEN",
	})
	if err != nil {
		log.Warn("github lookups are anonymous", zap.Error(err))
	}

	httpClient := &http.Client{Timeout: config.Timeouts.Lookup}
	return enrichment.NewExecutor(
		lookup.NewCompanySearch(httpClient, config.Lookup.UserAgent, log),
		lookup.NewGitHub(httpClient, config.Lookup.UserAgent, token, log),
		taxonomy,
		config.Timeouts.Lookup,
		log,
	)
}
