// Package evaluate drives a trained model over labelled test sets and
// measures its error rates.
package evaluate

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/zpam/spam-nb/pkg/learning"
)

// Result is the outcome for one test document
type Result struct {
	Path       string              `json:"path"`
	ActualSpam bool                `json:"actual_spam"`
	Prediction learning.Prediction `json:"prediction"`
	Correct    bool                `json:"correct"`
}

// Actual returns the true label, "SPAM" or "HAM"
func (r Result) Actual() string {
	if r.ActualSpam {
		return "SPAM"
	}
	return "HAM"
}

// SetStats summarizes one test set
type SetStats struct {
	Total     int     `json:"total"`
	Errors    int     `json:"errors"`
	ErrorRate float64 `json:"error_rate"`
}

func newSetStats(total, errors int) SetStats {
	s := SetStats{Total: total, Errors: errors}
	if total > 0 {
		s.ErrorRate = float64(errors) / float64(total)
	}
	return s
}

// Report is the outcome of an evaluation run
type Report struct {
	Spam     SetStats      `json:"spam"`
	Ham      SetStats      `json:"ham"`
	Combined SetStats      `json:"combined"`
	Results  []Result      `json:"results"`
	Duration time.Duration `json:"duration"`
}

// Evaluator classifies labelled documents with a fixed model
type Evaluator struct {
	Model  *learning.Model
	Reader learning.DocumentReader

	// Workers bounds concurrent classifications; <= 0 means one per CPU
	Workers int

	// OnResult, when set, receives every result in input order (spam set
	// first) as soon as it and all results before it are known
	OnResult func(Result)
}

// Run classifies the spam and ham test documents. A document that cannot be
// read aborts the run. The combined error rate is total errors over total
// documents; an empty set has rate 0.
func (e *Evaluator) Run(ctx context.Context, spamPaths, hamPaths []string) (*Report, error) {
	start := time.Now()

	paths := append(append(make([]string, 0, len(spamPaths)+len(hamPaths)), spamPaths...), hamPaths...)
	results := make([]Result, len(paths))

	emit := e.orderedEmitter(results)
	_, err := ClassifyPaths(ctx, e.Model, e.Reader, paths, e.Workers, func(i int, pred learning.Prediction) {
		actualSpam := i < len(spamPaths)
		results[i] = Result{
			Path:       paths[i],
			ActualSpam: actualSpam,
			Prediction: pred,
			Correct:    pred.IsSpam == actualSpam,
		}
		emit(i)
	})
	if err != nil {
		return nil, err
	}

	wrong := func(r Result) bool { return !r.Correct }
	spamErrors := lo.CountBy(results[:len(spamPaths)], wrong)
	hamErrors := lo.CountBy(results[len(spamPaths):], wrong)

	return &Report{
		Spam:     newSetStats(len(spamPaths), spamErrors),
		Ham:      newSetStats(len(hamPaths), hamErrors),
		Combined: newSetStats(len(paths), spamErrors+hamErrors),
		Results:  results,
		Duration: time.Since(start),
	}, nil
}

// orderedEmitter returns a callback that marks result i as done and hands
// every newly contiguous result to OnResult
func (e *Evaluator) orderedEmitter(results []Result) func(int) {
	if e.OnResult == nil {
		return func(int) {}
	}

	var mu sync.Mutex
	done := make([]bool, len(results))
	next := 0
	return func(i int) {
		mu.Lock()
		defer mu.Unlock()
		done[i] = true
		for next < len(results) && done[next] {
			e.OnResult(results[next])
			next++
		}
	}
}

// ClassifyPaths reads and classifies every path with at most workers
// goroutines. Predictions are returned in input order; onDone, if not nil,
// is called once per document as soon as it is classified. The first error
// stops the run.
func ClassifyPaths(ctx context.Context, model *learning.Model, reader learning.DocumentReader, paths []string, workers int, onDone func(int, learning.Prediction)) ([]learning.Prediction, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	predictions := make([]learning.Prediction, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := reader.ReadDocument(path)
			if err != nil {
				return err
			}
			pred, err := model.ClassifyText(text)
			if err != nil {
				return err
			}
			predictions[i] = pred
			if onDone != nil {
				onDone(i, pred)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return predictions, nil
}
