package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	trainSpamDir string
	trainHamDir  string
	trainProfile bool
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the Naive Bayes model",
	Long: `Train the Bernoulli Naive Bayes model from the labelled spam and ham corpora.

Every vocabulary word becomes one presence feature. The estimated priors and
per-word probabilities are saved to the configured model store under the
model name.`,
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

		if trainSpamDir != "" {
			s.cfg.Corpus.TrainSpam = trainSpamDir
		}
		if trainHamDir != "" {
			s.cfg.Corpus.TrainHam = trainHamDir
		}

		fmt.Printf("🧠 Training model '%s'\n", s.cfg.Model.Name)
		start := time.Now()

		model, err := s.trainModel(ctx)
		if err != nil {
			return err
		}
		if err := s.saveModel(ctx, model); err != nil {
			return err
		}

		fmt.Printf("\n✅ Training completed in %v\n", time.Since(start).Round(time.Millisecond))
		fmt.Printf("📊 P(spam) = %.4f, P(ham) = %.4f\n", model.PSpam(), model.PHam())
		fmt.Printf("💾 Saved to %s backend as '%s'\n", s.cfg.Model.Backend, s.cfg.Model.Name)

		if trainProfile || s.cfg.Performance.EnableProfiling {
			fmt.Println()
			s.profiler.WriteReport(os.Stdout)
		}
		return nil
	},
}

func init() {
	trainCmd.Flags().StringVar(&trainSpamDir, "spam-dir", "", "Spam training corpus (overrides config)")
	trainCmd.Flags().StringVar(&trainHamDir, "ham-dir", "", "Ham training corpus (overrides config)")
	trainCmd.Flags().BoolVar(&trainProfile, "profile", false, "Print stage timings")
}
