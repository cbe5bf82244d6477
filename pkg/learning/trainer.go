package learning

import (
	"context"
	"fmt"
	"runtime"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultSmoothing is the additive (Laplace) smoothing constant
const DefaultSmoothing = 1.0

// DocumentReader loads the text of one document
type DocumentReader interface {
	ReadDocument(path string) (string, error)
}

// Trainer estimates class parameter vectors from labelled corpora
type Trainer struct {
	vocab     *Vocabulary
	reader    DocumentReader
	smoothing float64
	workers   int
	logger    *zap.Logger

	// expected corpus sizes, 0 = not checked
	expectedSpam int
	expectedHam  int
}

// TrainerOption configures a Trainer
type TrainerOption func(*Trainer)

// WithSmoothing sets the additive smoothing constant
func WithSmoothing(e float64) TrainerOption {
	return func(t *Trainer) { t.smoothing = e }
}

// WithWorkers sets how many goroutines read documents in parallel
func WithWorkers(n int) TrainerOption {
	return func(t *Trainer) {
		if n > 0 {
			t.workers = n
		}
	}
}

// WithLogger attaches a logger
func WithLogger(logger *zap.Logger) TrainerOption {
	return func(t *Trainer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithExpectedCounts makes Train fail when a corpus does not hold exactly the
// configured number of documents. Zero disables the check for that class.
func WithExpectedCounts(spam, ham int) TrainerOption {
	return func(t *Trainer) {
		t.expectedSpam = spam
		t.expectedHam = ham
	}
}

// NewTrainer creates a trainer for vocab reading documents through reader
func NewTrainer(vocab *Vocabulary, reader DocumentReader, opts ...TrainerOption) *Trainer {
	t := &Trainer{
		vocab:     vocab,
		reader:    reader,
		smoothing: DefaultSmoothing,
		workers:   runtime.NumCPU(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CountPresence returns, for every vocabulary word, the number of documents
// in paths that contain it. Documents are split into one partition per
// worker; each worker fills a private counter and the partials are summed once
// all of them finish. The first read error aborts the whole count.
func (t *Trainer) CountPresence(ctx context.Context, paths []string) ([]int, error) {
	d := t.vocab.Len()
	if len(paths) == 0 {
		return make([]int, d), nil
	}

	size := (len(paths) + t.workers - 1) / t.workers
	partitions := lo.Chunk(paths, size)
	partials := make([][]int, len(partitions))

	g, ctx := errgroup.WithContext(ctx)
	for i, partition := range partitions {
		g.Go(func() error {
			local := make([]int, d)
			for _, path := range partition {
				if err := ctx.Err(); err != nil {
					return err
				}
				text, err := t.reader.ReadDocument(path)
				if err != nil {
					return err
				}
				for j, present := range Extract(text, t.vocab) {
					if present {
						local[j]++
					}
				}
			}
			partials[i] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := make([]int, d)
	for _, local := range partials {
		for j, c := range local {
			counts[j] += c
		}
	}
	return counts, nil
}

// EstimateParameters turns presence counts over m documents into smoothed
// probabilities (count + e) / (m + 2e). With e > 0 every result is strictly
// between 0 and 1, including words seen in none or all of the documents.
func EstimateParameters(counts []int, m int, e float64) ([]float64, error) {
	if e <= 0 {
		return nil, fmt.Errorf("%w: smoothing factor must be > 0, got %g", ErrInvalidModel, e)
	}
	if m < 0 {
		return nil, fmt.Errorf("%w: negative document count %d", ErrInvalidModel, m)
	}

	b := make([]float64, len(counts))
	denominator := float64(m) + 2*e
	for i, c := range counts {
		if c < 0 || c > m {
			return nil, fmt.Errorf("%w: count[%d] = %d with only %d documents", ErrInvalidModel, i, c, m)
		}
		b[i] = (float64(c) + e) / denominator
	}
	return b, nil
}

// TrainClass estimates the parameter vector of one class. M is always the
// number of documents actually processed.
func (t *Trainer) TrainClass(ctx context.Context, paths []string) (ClassParams, error) {
	counts, err := t.CountPresence(ctx, paths)
	if err != nil {
		return ClassParams{}, err
	}
	b, err := EstimateParameters(counts, len(paths), t.smoothing)
	if err != nil {
		return ClassParams{}, err
	}
	return ClassParams{B: b, M: len(paths)}, nil
}

// Train builds a complete model from the spam and ham training documents.
// Both classes are trained concurrently; training is all-or-nothing.
func (t *Trainer) Train(ctx context.Context, spamPaths, hamPaths []string) (*Model, error) {
	if err := CheckCorpusSize("spam", t.expectedSpam, len(spamPaths)); err != nil {
		return nil, err
	}
	if err := CheckCorpusSize("ham", t.expectedHam, len(hamPaths)); err != nil {
		return nil, err
	}

	var spam, ham ClassParams
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		spam, err = t.TrainClass(gctx, spamPaths)
		if err != nil {
			return fmt.Errorf("failed to train spam class: %w", err)
		}
		t.logger.Debug("class trained", zap.String("class", "spam"), zap.Int("documents", spam.M))
		return nil
	})
	g.Go(func() error {
		var err error
		ham, err = t.TrainClass(gctx, hamPaths)
		if err != nil {
			return fmt.Errorf("failed to train ham class: %w", err)
		}
		t.logger.Debug("class trained", zap.String("class", "ham"), zap.Int("documents", ham.M))
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NewModel(t.vocab, spam, ham, t.smoothing)
}

// CheckCorpusSize compares a configured corpus size with the number of
// documents actually found. expected == 0 means no expectation.
func CheckCorpusSize(class string, expected, actual int) error {
	if expected == 0 || expected == actual {
		return nil
	}
	return fmt.Errorf("%w: %s corpus holds %d documents but %d were configured", ErrInvalidModel, class, actual, expected)
}
