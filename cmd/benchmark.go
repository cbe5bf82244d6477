package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zpam/spam-nb/pkg/corpus"
	"github.com/zpam/spam-nb/pkg/profiler"
)

var (
	benchmarkInput string
	benchmarkRuns  int
)

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Measure classification speed",
	Long: `Load every document of a directory once, then classify all of them
repeatedly with the trained model and report per-document timings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if benchmarkRuns < 1 {
			return fmt.Errorf("--runs must be at least 1")
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if benchmarkInput == "" {
			benchmarkInput = s.cfg.Corpus.TestSpam
		}

		model, err := s.loadModel(ctx)
		if err != nil {
			return err
		}

		paths, err := corpus.List(benchmarkInput)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no documents found in %s", benchmarkInput)
		}

		texts := make([]string, len(paths))
		for i, path := range paths {
			if texts[i], err = s.reader.ReadDocument(path); err != nil {
				return err
			}
		}

		fmt.Printf("🚀 ZPAM NB Performance Benchmark\n")
		fmt.Printf("📁 Input directory: %s\n", benchmarkInput)
		fmt.Printf("📧 Documents found: %d\n", len(paths))
		fmt.Printf("🔄 Benchmark runs: %d\n", benchmarkRuns)
		fmt.Printf("🧠 Features: %d\n\n", model.Vocabulary().Len())

		spam := 0
		for run := 0; run < benchmarkRuns; run++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, text := range texts {
				timer := s.profiler.Start(profiler.StageClassify)
				pred, err := model.ClassifyText(text)
				timer.Stop()
				if err != nil {
					return err
				}
				if run == 0 && pred.IsSpam {
					spam++
				}
			}
		}

		stats := s.profiler.GetStats(profiler.StageClassify)
		fmt.Printf("⚡ Performance Metrics:\n")
		fmt.Printf("  Total classifications: %d\n", stats.Count)
		fmt.Printf("  Total time: %s\n", profiler.FormatDuration(stats.Total))
		fmt.Printf("  Average time per document: %s\n", profiler.FormatDuration(stats.Average))
		if stats.Total > 0 {
			fmt.Printf("  Documents per second: %.0f\n", float64(stats.Count)/stats.Total.Seconds())
		}
		fmt.Printf("\n🎯 Classification Results:\n")
		fmt.Printf("  Spam detected: %d\n", spam)
		fmt.Printf("  Ham detected: %d\n\n", len(texts)-spam)

		s.profiler.WriteReport(os.Stdout)
		return nil
	},
}

func init() {
	benchmarkCmd.Flags().StringVarP(&benchmarkInput, "input", "i", "", "Directory of documents (defaults to the spam test corpus)")
	benchmarkCmd.Flags().IntVarP(&benchmarkRuns, "runs", "r", 3, "Number of passes over the documents")
}
