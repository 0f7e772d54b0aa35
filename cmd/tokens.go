package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"promptpack/pkg/tokens"

	"github.com/spf13/cobra"
)

// tokensCmd counts the tokens of a file (or stdin) and estimates request
// cost for the selected model.
var tokensCmd = &cobra.Command{
	Use:   "tokens [file]",
	Short: "Count tokens and estimate cost for a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model, _ := cmd.Flags().GetString("model")
		if model == "" {
			model = tokens.DefaultModel
		}

		var data []byte
		var err error
		if len(args) == 1 {
			data, err = os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read input file: %w", err)
			}
		} else {
			data, err = io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
		}

		counter := tokens.NewCounter(logger)
		count, method := counter.Count(string(data), model)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Model:        %s\n", model)
		fmt.Fprintf(out, "Tokens:       %d (%s)\n", count, method)
		fmt.Fprintf(out, "Context:      %d\n", tokens.ContextLimit(model))
		fmt.Fprintf(out, "Input cost:   $%.4f\n", tokens.EstimateCost(count, model, false))
		fmt.Fprintf(out, "Output cost:  $%.4f\n", tokens.EstimateCost(count, model, true))
		return nil
	},
}

func init() {
	tokensCmd.Flags().StringP("model", "m", "", "Model to count for (known models: "+strings.Join(tokens.KnownModels(), ", ")+")")

	RootCmd.AddCommand(tokensCmd)
}
