package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/zpam/spam-nb/pkg/corpus"
	"github.com/zpam/spam-nb/pkg/evaluate"
	"github.com/zpam/spam-nb/pkg/learning"
	"github.com/zpam/spam-nb/pkg/profiler"
)

var (
	testSpamDir string
	testHamDir  string
	testTrain   bool
	testQuiet   bool
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Evaluate the model on the test corpora",
	Long: `Classify every document of the spam and ham test corpora with the trained
model and report the error rate on each set and on both combined.

With --train the model is trained from the training corpora first and saved.`,
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

		if testSpamDir != "" {
			s.cfg.Corpus.TestSpam = testSpamDir
		}
		if testHamDir != "" {
			s.cfg.Corpus.TestHam = testHamDir
		}

		var model *learning.Model
		if testTrain {
			if model, err = s.trainModel(ctx); err != nil {
				return err
			}
			if err := s.saveModel(ctx, model); err != nil {
				return err
			}
			fmt.Println()
		} else if model, err = s.loadModel(ctx); err != nil {
			return err
		}

		spamPaths, err := corpus.List(s.cfg.Corpus.TestSpam)
		if err != nil {
			return err
		}
		hamPaths, err := corpus.List(s.cfg.Corpus.TestHam)
		if err != nil {
			return err
		}

		evaluator := &evaluate.Evaluator{
			Model:   model,
			Reader:  s.reader,
			Workers: s.cfg.Performance.Workers,
		}
		if !testQuiet {
			evaluator.OnResult = printResult
		}

		var report *evaluate.Report
		err = s.profiler.Time(profiler.StageEvaluate, func() error {
			var err error
			report, err = evaluator.Run(ctx, spamPaths, hamPaths)
			return err
		})
		if err != nil {
			return fmt.Errorf("evaluation failed: %w", err)
		}

		printReport(report)

		if s.cfg.Performance.EnableProfiling {
			fmt.Println()
			s.profiler.WriteReport(os.Stdout)
		}
		return nil
	},
}

func printResult(r evaluate.Result) {
	line := fmt.Sprintf("%s %s identified as %s  P(spam)=%.6f P(ham)=%.6f",
		r.Actual(), r.Path, r.Prediction.Label(), r.Prediction.PSpam, r.Prediction.PHam)
	if r.Correct {
		fmt.Println(line)
		return
	}
	fmt.Printf("%s %s\n", line, color.Red.Sprint("*** error ***"))
}

func printReport(report *evaluate.Report) {
	fmt.Printf("\n📊 Evaluation Results\n")
	fmt.Printf("   Spam test set: %d/%d errors, error rate %.2f%%\n",
		report.Spam.Errors, report.Spam.Total, report.Spam.ErrorRate*100)
	fmt.Printf("   Ham test set:  %d/%d errors, error rate %.2f%%\n",
		report.Ham.Errors, report.Ham.Total, report.Ham.ErrorRate*100)
	fmt.Printf("   Combined:      %d/%d errors, error rate %.2f%%\n",
		report.Combined.Errors, report.Combined.Total, report.Combined.ErrorRate*100)
	fmt.Printf("⏱️  Evaluated in %s\n", profiler.FormatDuration(report.Duration))
}

func init() {
	testCmd.Flags().StringVar(&testSpamDir, "spam-dir", "", "Spam test corpus (overrides config)")
	testCmd.Flags().StringVar(&testHamDir, "ham-dir", "", "Ham test corpus (overrides config)")
	testCmd.Flags().BoolVar(&testTrain, "train", false, "Train and save the model before testing")
	testCmd.Flags().BoolVarP(&testQuiet, "quiet", "q", false, "Only print the summary")
}
