package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zpam/spam-nb/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  `Generate and manage ZPAM NB configuration files`,
}

var configGenCmd = &cobra.Command{
	Use:   "generate [config-file]",
	Short: "Generate default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := "config.yaml"
		if len(args) > 0 {
			configPath = args[0]
		}

		if _, err := os.Stat(configPath); err == nil {
			overwrite, _ := cmd.Flags().GetBool("force")
			if !overwrite {
				return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
			}
		}

		if err := config.DefaultConfig().SaveConfig(configPath); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("✅ Configuration file generated: %s\n", configPath)
		fmt.Printf("📝 Point vocabulary.path and the corpus directories at your data\n")
		fmt.Printf("🚀 Use 'zpam-nb train --config %s' to train a model\n", configPath)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(args[0])
		if err != nil {
			return fmt.Errorf("❌ Configuration validation failed: %w", err)
		}

		fmt.Printf("✅ Configuration is valid: %s\n", args[0])

		if warnings := configWarnings(cfg); len(warnings) > 0 {
			fmt.Printf("\n⚠️  Warnings:\n")
			for _, warning := range warnings {
				fmt.Printf("  - %s\n", warning)
			}
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show [config-file]",
	Short: "Show current configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFile
		if len(args) > 0 {
			path = args[0]
		}

		cfg, err := config.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if path != "" {
			fmt.Printf("Configuration: %s\n\n", path)
		} else {
			fmt.Printf("Default Configuration:\n\n")
		}

		fmt.Printf("📖 Vocabulary:\n")
		fmt.Printf("  Path: %s (min word length %d)\n", cfg.Vocabulary.Path, cfg.Vocabulary.MinWordLength)

		fmt.Printf("\n📁 Corpora (%s):\n", cfg.Corpus.Format)
		fmt.Printf("  Train: spam=%s ham=%s\n", cfg.Corpus.TrainSpam, cfg.Corpus.TrainHam)
		fmt.Printf("  Test:  spam=%s ham=%s\n", cfg.Corpus.TestSpam, cfg.Corpus.TestHam)

		fmt.Printf("\n🧠 Training:\n")
		fmt.Printf("  Smoothing: %g\n", cfg.Training.Smoothing)
		fmt.Printf("  Expected counts: spam=%d ham=%d\n", cfg.Training.ExpectedSpamCount, cfg.Training.ExpectedHamCount)

		fmt.Printf("\n💾 Model:\n")
		fmt.Printf("  Name: %s\n", cfg.Model.Name)
		fmt.Printf("  Backend: %s\n", cfg.Model.Backend)

		fmt.Printf("\n⚡ Performance:\n")
		fmt.Printf("  Workers: %d\n", cfg.Performance.Workers)
		fmt.Printf("  Profiling: %v\n", cfg.Performance.EnableProfiling)

		fmt.Printf("\n📬 Milter:\n")
		fmt.Printf("  Listen: %s://%s\n", cfg.Milter.Network, cfg.Milter.Address)
		fmt.Printf("  Reject spam: %v (P(spam) >= %.2f)\n", cfg.Milter.RejectSpam, cfg.Milter.RejectProbability)
		return nil
	},
}

// configWarnings reports settings that are valid but probably unintended
func configWarnings(cfg *config.Config) []string {
	var warnings []string

	if _, err := os.Stat(cfg.Vocabulary.Path); err != nil {
		warnings = append(warnings, fmt.Sprintf("Vocabulary file not found: %s", cfg.Vocabulary.Path))
	}
	for _, dir := range []string{cfg.Corpus.TrainSpam, cfg.Corpus.TrainHam, cfg.Corpus.TestSpam, cfg.Corpus.TestHam} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			warnings = append(warnings, fmt.Sprintf("Corpus directory not found: %s", dir))
		}
	}
	if cfg.Training.Smoothing != 1 {
		warnings = append(warnings, fmt.Sprintf("Smoothing is %g instead of the usual Laplace value 1", cfg.Training.Smoothing))
	}
	if cfg.Model.Badger.InMemory && cfg.Model.Backend == "badger" {
		warnings = append(warnings, "In-memory badger store loses every model on exit")
	}
	return warnings
}

func init() {
	configGenCmd.Flags().Bool("force", false, "Overwrite existing configuration file")

	configCmd.AddCommand(configGenCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}
