package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"promptpack/pkg/chunk"
	"promptpack/pkg/config"
	"promptpack/pkg/crawler"
	"promptpack/pkg/ignore"
	"promptpack/pkg/serialize"
	"promptpack/pkg/tokens"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// packCmd crawls the repository, serializes it, and emits the planned
// chunks. Without an output destination the chunks are printed to stdout.
var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Pack a repository into token-budgeted context chunks",
	Long: `Pack crawls the repository, serializes the directory structure and file
contents into one document, and splits it into chunks that fit the selected
model's token budget. A chunk can exceed the budget only when a single file
block alone is larger than the budget; such chunks are emitted unsplit.`,
	RunE: runPack,
}

func init() {
	packCmd.Flags().StringP("root", "r", "", "Repository root to pack (default: config root or current directory)")
	packCmd.Flags().StringP("model", "m", "", "Model whose tokenizer and context limit to use")
	packCmd.Flags().Float64("budget-fraction", 0, "Fraction of the model's context window per chunk")
	packCmd.Flags().Int("workers", 0, "Concurrent file readers (0 = one per CPU)")
	packCmd.Flags().Int("max-file-size", 0, "Skip files larger than this many KB (0 = no limit)")
	packCmd.Flags().String("rules", "", "File whose text is prepended verbatim as a rules section")
	packCmd.Flags().StringP("output", "o", "", "Write the whole serialized document to this file")
	packCmd.Flags().String("chunk-dir", "", "Write each chunk to a numbered file in this directory")
	packCmd.Flags().Bool("clipboard", false, "Copy the serialized document to the system clipboard")
	packCmd.Flags().StringSlice("ignore-dir", nil, "Additional directory ignore patterns")
	packCmd.Flags().StringSlice("ignore-file", nil, "Additional file ignore patterns")

	RootCmd.AddCommand(packCmd)
}

func runPack(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	rules, err := loadRules(cfg.RulesFile)
	if err != nil {
		return err
	}

	cache := crawler.NewCache(logger)
	tree := cache.GetTree(cfg.Root, cfg.IgnorePatterns)

	doc := serialize.Serialize(tree, serialize.Options{
		Rules:         rules,
		MaxFileSizeKB: cfg.MaxFileSizeKB,
		Workers:       cfg.Workers,
	}, logger)

	counter := tokens.NewCounter(logger)
	planner := chunk.NewPlanner(counter, logger)
	chunks := planner.Plan(doc, chunk.Options{
		Model:          cfg.Model,
		BudgetFraction: cfg.BudgetFraction,
	})

	rendered := doc.Render()
	totalTokens, method := counter.Count(rendered, cfg.Model)
	logger.Info("Packed repository",
		zap.String("root", cfg.Root),
		zap.String("model", cfg.Model),
		zap.Int("files", len(doc.Codebase())),
		zap.Int("chunks", len(chunks)),
		zap.Int("totalTokens", totalTokens),
		zap.String("countMethod", method.String()))

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(rendered), 0o644); err != nil {
			return fmt.Errorf("write document: %w", err)
		}
		logger.Info("Wrote serialized document", zap.String("file", outputPath))
	}

	useClipboard, _ := cmd.Flags().GetBool("clipboard")
	if useClipboard {
		if err := clipboard.WriteAll(rendered); err != nil {
			return fmt.Errorf("copy document to clipboard: %w", err)
		}
		logger.Info("Copied serialized document to clipboard")
	}

	chunkDir, _ := cmd.Flags().GetString("chunk-dir")
	if chunkDir != "" {
		return writeChunkFiles(chunkDir, chunks)
	}
	if outputPath == "" && !useClipboard {
		printChunks(cmd, chunks)
	}
	return nil
}

// writeChunkFiles writes each chunk to a numbered file inside dir.
func writeChunkFiles(dir string, chunks []chunk.Chunk) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create chunk directory: %w", err)
	}
	for _, c := range chunks {
		name := fmt.Sprintf("part_%03d_of_%03d.txt", c.Index, c.Total)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(c.Text), 0o644); err != nil {
			return fmt.Errorf("write chunk %d: %w", c.Index, err)
		}
		logger.Debug("Wrote chunk file",
			zap.String("file", path),
			zap.Int("tokens", c.Tokens),
			zap.Bool("oversized", c.Oversized))
	}
	logger.Info("Wrote chunk files", zap.String("dir", dir), zap.Int("chunks", len(chunks)))
	return nil
}

// printChunks prints the chunk sequence to stdout with part separators.
func printChunks(cmd *cobra.Command, chunks []chunk.Chunk) {
	out := cmd.OutOrStdout()
	for _, c := range chunks {
		fmt.Fprintf(out, "----- Part %d/%d (%d tokens) -----\n", c.Index, c.Total, c.Tokens)
		fmt.Fprint(out, c.Text)
	}
}

// loadRules reads the optional rules file.
func loadRules(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read rules file: %w", err)
	}
	return string(data), nil
}

// resolveConfig merges the config file with any flags set on the command.
// Flags win over file values; an invalid merged pattern set leaves the
// previously loaded one active.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configFlag, logger)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Root, _ = flags.GetString("root")
	}
	if flags.Changed("model") {
		cfg.Model, _ = flags.GetString("model")
	}
	if flags.Changed("budget-fraction") {
		cfg.BudgetFraction, _ = flags.GetFloat64("budget-fraction")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("max-file-size") {
		cfg.MaxFileSizeKB, _ = flags.GetInt("max-file-size")
	}
	if flags.Changed("rules") {
		cfg.RulesFile, _ = flags.GetString("rules")
	}

	extraDirs, _ := flags.GetStringSlice("ignore-dir")
	extraFiles, _ := flags.GetStringSlice("ignore-file")
	if len(extraDirs) > 0 || len(extraFiles) > 0 {
		patterns := ignore.PatternSet{
			Directories: append(cfg.IgnorePatterns.Directories, extraDirs...),
			Files:       append(cfg.IgnorePatterns.Files, extraFiles...),
		}
		if err := cfg.SetIgnorePatterns(patterns); err != nil {
			return config.Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
