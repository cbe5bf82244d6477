package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zpam/spam-nb/pkg/config"
	"github.com/zpam/spam-nb/pkg/corpus"
	"github.com/zpam/spam-nb/pkg/learning"
	"github.com/zpam/spam-nb/pkg/logging"
	"github.com/zpam/spam-nb/pkg/profiler"
	"github.com/zpam/spam-nb/pkg/store"
)

var (
	configFile string
	modelName  string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "zpam-nb",
	Short: "ZPAM NB - Naive Bayes spam classifier",
	Long: `ZPAM NB labels documents as spam or ham with a Bernoulli Naive Bayes model
over a fixed vocabulary of word-presence features.

Train a model on labelled corpora, evaluate it on held-out corpora, then use it
to classify files, sort directories or filter live mail through the milter.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ZPAM NB - Naive Bayes Spam Classifier")
		fmt.Println("Use 'zpam-nb --help' for usage information")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&modelName, "model", "m", "", "Model name (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(benchmarkCmd)
	rootCmd.AddCommand(modelCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(milterCmd)
}

// session bundles what most commands need
type session struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    store.Store
	reader   *corpus.Reader
	profiler *profiler.Profiler
}

// loadConfig reads the configuration and applies the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if modelName != "" {
		if err := store.ValidateName(modelName); err != nil {
			return nil, err
		}
		cfg.Model.Name = modelName
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	st, err := store.New(ctx, cfg.Model, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open model store: %w", err)
	}

	reader, err := corpus.NewReader(cfg.Corpus.Format)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &session{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		reader:   reader,
		profiler: profiler.NewProfiler(),
	}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.logger.Warn("failed to close model store", zap.Error(err))
	}
	_ = s.logger.Sync()
}

// loadModel loads the configured model, pointing at train when it is missing
func (s *session) loadModel(ctx context.Context) (*learning.Model, error) {
	var model *learning.Model
	err := s.profiler.Time(profiler.StageLoad, func() error {
		var err error
		model, err = s.store.Load(ctx, s.cfg.Model.Name)
		return err
	})
	if errors.Is(err, learning.ErrNotFound) {
		return nil, fmt.Errorf("%w (run 'zpam-nb train' first)", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", s.cfg.Model.Name, err)
	}
	return model, nil
}

// trainModel loads the vocabulary, lists both training corpora and trains
func (s *session) trainModel(ctx context.Context) (*learning.Model, error) {
	var vocab *learning.Vocabulary
	err := s.profiler.Time(profiler.StageVocabulary, func() error {
		var err error
		vocab, err = learning.LoadVocabularyFile(s.cfg.Vocabulary.Path, s.cfg.Vocabulary.MinWordLength)
		return err
	})
	if err != nil {
		return nil, err
	}

	var spamPaths, hamPaths []string
	err = s.profiler.Time(profiler.StageList, func() error {
		var err error
		if spamPaths, err = corpus.List(s.cfg.Corpus.TrainSpam); err != nil {
			return err
		}
		hamPaths, err = corpus.List(s.cfg.Corpus.TrainHam)
		return err
	})
	if err != nil {
		return nil, err
	}

	fmt.Printf("📖 Vocabulary: %s (%d words)\n", s.cfg.Vocabulary.Path, vocab.Len())
	fmt.Printf("📁 Spam corpus: %s (%d documents)\n", s.cfg.Corpus.TrainSpam, len(spamPaths))
	fmt.Printf("📁 Ham corpus: %s (%d documents)\n", s.cfg.Corpus.TrainHam, len(hamPaths))

	trainer := learning.NewTrainer(vocab, s.reader,
		learning.WithSmoothing(s.cfg.Training.Smoothing),
		learning.WithWorkers(s.cfg.Performance.Workers),
		learning.WithExpectedCounts(s.cfg.Training.ExpectedSpamCount, s.cfg.Training.ExpectedHamCount),
		learning.WithLogger(s.logger),
	)

	var model *learning.Model
	err = s.profiler.Time(profiler.StageTrain, func() error {
		var err error
		model, err = trainer.Train(ctx, spamPaths, hamPaths)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("training failed: %w", err)
	}

	s.logger.Info("model trained",
		zap.Int("vocabulary", vocab.Len()),
		zap.Int("m_spam", model.MSpam()),
		zap.Int("m_ham", model.MHam()))
	return model, nil
}

// saveModel stores the model under the configured name
func (s *session) saveModel(ctx context.Context, model *learning.Model) error {
	err := s.profiler.Time(profiler.StageSave, func() error {
		return s.store.Save(ctx, s.cfg.Model.Name, model)
	})
	if err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	s.logger.Info("model saved", zap.String("name", s.cfg.Model.Name), zap.String("backend", s.cfg.Model.Backend))
	return nil
}
