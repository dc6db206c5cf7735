package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"promptparse/internal/analyzer"
	"promptparse/internal/classify"
	"promptparse/internal/config"
	"promptparse/internal/logging"
	"promptparse/internal/roles"
)

var (
	// Global flags
	verbose   bool
	apiKey    string
	workspace string

	// parse flags
	packPaths     []string
	minConfidence float64
	noNegation    bool
	noStemming    bool
	noSections    bool
	analyzerID    string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "promptparse",
	Short: "promptparse - deterministic prompt classification engine",
	Long: `promptparse decomposes natural-language prompts into role-tagged
segments (character, action, setting, mood, romance, camera, ...) for
downstream prompt composition.

Classification is keyword-driven and fully deterministic: section and
sentence segmentation, negation-aware matching with lightweight stemming,
per-role scoring with explicit tie-breaks, and tag derivation. A generative
analyzer is available as an alternate strategy and always degrades to the
deterministic path on failure.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		}
		if err := logging.Initialize(ws); err != nil {
			logger.Warn("File logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// parseCmd classifies one prompt and prints the analysis as JSON.
var parseCmd = &cobra.Command{
	Use:   "parse [text]",
	Short: "Classify a prompt into role-tagged segments",
	Long: `Classifies the given text (or stdin when no argument is supplied)
and prints the full analysis as JSON: segments with roles, offsets,
confidences, matched keywords, and derived tags.

Example:
  promptparse parse "A woman dances in the moonlight. CAMERA: slow zoom."
  echo "a quiet sunset" | promptparse parse --min-confidence 0.2`,
	RunE: runParse,
}

// rolesCmd lists the role catalog.
var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List registered roles and their keyword counts",
	RunE:  runRoles,
}

// analyzersCmd lists the analyzer catalog.
var analyzersCmd = &cobra.Command{
	Use:   "analyzers",
	Short: "List registered analysis strategies",
	RunE:  runAnalyzers,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (or set GOOGLE_API_KEY env)")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringSliceVar(&packPaths, "packs", nil, "Role pack YAML files to load")

	parseCmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "Minimum segment confidence; lower segments fall to the default role")
	parseCmd.Flags().BoolVar(&noNegation, "no-negation", false, "Disable negation filtering")
	parseCmd.Flags().BoolVar(&noStemming, "no-stemming", false, "Disable stemming")
	parseCmd.Flags().BoolVar(&noSections, "no-sections", false, "Disable the section header pre-pass")
	parseCmd.Flags().StringVar(&analyzerID, "analyzer", "", "Analyzer id (default: the registered default)")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(rolesCmd)
	rootCmd.AddCommand(analyzersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildRegistry creates the role registry and loads any requested packs.
func buildRegistry() (*roles.Registry, error) {
	reg := roles.NewRegistry(nil)
	for _, path := range packPaths {
		pack, err := roles.LoadPackFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load pack %s: %w", path, err)
		}
		if err := reg.RegisterPack(pack); err != nil {
			return nil, fmt.Errorf("failed to register pack %s: %w", path, err)
		}
		logger.Info("Loaded role pack", zap.String("pack", pack.ID), zap.String("path", path))
	}
	return reg, nil
}

// buildService assembles the analysis service from flags and workspace config.
func buildService(ctx context.Context) (*analyzer.Service, error) {
	ws := workspace
	if ws == "" {
		ws, _ = os.Getwd()
	}
	appCfg, err := config.Load(ws)
	if err != nil {
		logger.Warn("Workspace config unreadable, using defaults", zap.Error(err))
		appCfg = config.Default()
	}
	if apiKey != "" {
		appCfg.LLM.APIKey = apiKey
	}

	reg, err := buildRegistry()
	if err != nil {
		return nil, err
	}

	parseCfg := classify.DefaultConfig()
	parseCfg.MinConfidence = minConfidence
	parseCfg.Negation = !noNegation
	parseCfg.Stemming = !noStemming
	parseCfg.Sections = !noSections

	var client analyzer.LLMClient
	if appCfg.LLM.APIKey != "" {
		c, err := analyzer.NewGenAIClient(ctx, appCfg.LLM)
		if err != nil {
			logger.Warn("Generative backend unavailable", zap.Error(err))
		} else {
			client = c
		}
	}

	return analyzer.NewService(reg, analyzer.ServiceOptions{
		ParseConfig: parseCfg,
		Client:      client,
		Model:       appCfg.LLM.Model,
		CacheSize:   appCfg.Cache.Size,
	})
}

func runParse(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if text == "" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(raw)
	}

	ctx := cmd.Context()
	svc, err := buildService(ctx)
	if err != nil {
		return err
	}

	var analysis analyzer.Analysis
	if analyzerID != "" {
		analysis = svc.AnalyzeWith(ctx, analyzerID, text)
	} else {
		analysis = svc.Analyze(ctx, text)
	}

	return printJSON(analysis)
}

func runRoles(cmd *cobra.Command, args []string) error {
	reg, err := buildRegistry()
	if err != nil {
		return err
	}

	type roleInfo struct {
		ID          string `json:"id"`
		Label       string `json:"label"`
		Priority    int    `json:"priority"`
		Keywords    int    `json:"keywords"`
		ActionVerbs int    `json:"action_verbs,omitempty"`
	}

	var out []roleInfo
	for _, id := range reg.IDs() {
		def, ok := reg.Get(id)
		if !ok {
			continue
		}
		out = append(out, roleInfo{
			ID:          def.ID,
			Label:       def.Label,
			Priority:    def.Priority,
			Keywords:    len(def.Keywords),
			ActionVerbs: len(def.ActionVerbs),
		})
	}
	return printJSON(out)
}

func runAnalyzers(cmd *cobra.Command, args []string) error {
	svc, err := buildService(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(svc.Catalog().List())
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
