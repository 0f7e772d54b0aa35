package cmd

import (
	"fmt"
	"os"

	"promptpack/pkg/crawler"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// treeCmd renders the filtered directory tree without serializing contents.
var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the filtered directory tree of a repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		cache := crawler.NewCache(logger)
		tree := cache.GetTree(cfg.Root, cfg.IgnorePatterns)
		rendered := crawler.RenderTree(tree)

		outputPath, _ := cmd.Flags().GetString("output")
		if outputPath != "" {
			if err := os.WriteFile(outputPath, []byte(rendered), 0o644); err != nil {
				return fmt.Errorf("write tree file: %w", err)
			}
			logger.Info("Wrote tree structure",
				zap.String("file", outputPath),
				zap.Int("files", tree.FileCount()))
			return nil
		}

		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return nil
	},
}

func init() {
	treeCmd.Flags().StringP("root", "r", "", "Repository root to crawl (default: config root or current directory)")
	treeCmd.Flags().StringP("output", "o", "", "Write the tree to this file instead of stdout")
	treeCmd.Flags().StringSlice("ignore-dir", nil, "Additional directory ignore patterns")
	treeCmd.Flags().StringSlice("ignore-file", nil, "Additional file ignore patterns")

	RootCmd.AddCommand(treeCmd)
}
