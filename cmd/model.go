package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zpam/spam-nb/pkg/learning"
)

var modelTop int

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect and manage stored models",
}

var modelInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show priors and the most discriminative words",
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

		learning.PrintStats(os.Stdout, s.cfg.Model.Name, model, modelTop)
		return nil
	},
}

var modelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored models",
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

		names, err := s.store.List(ctx)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Printf("No models stored in %s backend\n", s.cfg.Model.Backend)
			return nil
		}
		for _, name := range names {
			marker := " "
			if name == s.cfg.Model.Name {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, name)
		}
		return nil
	},
}

var modelDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a stored model",
	Args:  cobra.ExactArgs(1),
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

		if err := s.store.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("🗑️  Deleted model '%s'\n", args[0])
		return nil
	},
}

func init() {
	modelInfoCmd.Flags().IntVarP(&modelTop, "top", "t", 10, "Words to show per class (0 for all)")

	modelCmd.AddCommand(modelInfoCmd)
	modelCmd.AddCommand(modelListCmd)
	modelCmd.AddCommand(modelDeleteCmd)
}
