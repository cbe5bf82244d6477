package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/zpam/spam-nb/pkg/evaluate"
	"github.com/zpam/spam-nb/pkg/learning"
)

var classifyCmd = &cobra.Command{
	Use:   "classify FILE...",
	Short: "Classify individual documents",
	Long: `Classify one or more documents with the trained model and print the label
with both posterior probabilities.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		model, err := s.loadModel(ctx)
		if err != nil {
			return err
		}

		predictions, err := evaluate.ClassifyPaths(ctx, model, s.reader, args, s.cfg.Performance.Workers, nil)
		if err != nil {
			return err
		}
		writePredictions(cmd.OutOrStdout(), args, predictions)
		return nil
	},
}

// writePredictions prints one line per document in input order
func writePredictions(w io.Writer, paths []string, predictions []learning.Prediction) {
	for i, p := range predictions {
		label := color.Green.Sprint(p.Label())
		if p.IsSpam {
			label = color.Red.Sprint(p.Label())
		}
		fmt.Fprintf(w, "%s %s  P(spam)=%.6f P(ham)=%.6f\n", label, paths[i], p.PSpam, p.PHam)
	}
}
