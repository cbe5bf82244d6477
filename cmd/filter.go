package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zpam/spam-nb/pkg/filter"
)

var (
	filterInput string
	filterHam   string
	filterSpam  string
	filterMove  bool
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Sort a directory into spam and ham",
	Long: `Classify every document of a directory with the trained model and copy it
into the spam or ham directory. With --move the source file is removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if filterHam == "" && filterSpam == "" {
			return fmt.Errorf("at least one of --ham or --spam must be specified")
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

		model, err := s.loadModel(ctx)
		if err != nil {
			return err
		}

		spamFilter := filter.NewSpamFilter(model, s.reader, s.cfg.Performance.Workers, s.logger)
		spamFilter.Move = filterMove

		start := time.Now()
		results, err := spamFilter.ProcessEmails(ctx, filterInput, filterHam, filterSpam)
		if err != nil {
			return fmt.Errorf("failed to process documents: %w", err)
		}
		duration := time.Since(start)

		fmt.Printf("🫏 ZPAM NB Processing Complete!\n")
		fmt.Printf("📧 Documents processed: %d\n", results.Total)
		fmt.Printf("🚫 Spam detected: %d\n", results.Spam)
		fmt.Printf("✅ Ham (clean): %d\n", results.Ham)
		action := "Copied"
		if filterMove {
			action = "Moved"
		}
		fmt.Printf("📦 %s: %d\n", action, results.Placed)
		if results.Total > 0 {
			fmt.Printf("⚡ Average processing time: %.2fms per document\n",
				float64(duration.Nanoseconds())/float64(results.Total)/1e6)
		}
		fmt.Printf("⏱️  Total time: %v\n", duration)
		return nil
	},
}

func init() {
	filterCmd.Flags().StringVarP(&filterInput, "input", "i", "", "Input directory")
	filterCmd.Flags().StringVarP(&filterHam, "ham", "o", "", "Directory for ham documents")
	filterCmd.Flags().StringVarP(&filterSpam, "spam", "s", "", "Directory for spam documents")
	filterCmd.Flags().BoolVar(&filterMove, "move", false, "Move files instead of copying them")

	filterCmd.MarkFlagRequired("input")
}
