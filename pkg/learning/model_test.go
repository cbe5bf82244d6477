package learning

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestPriors(t *testing.T) {
	tests := []struct {
		name        string
		mSpam, mHam int
		wantSpam    float64
		wantErr     bool
	}{
		{"Balanced", 300, 300, 0.5, false},
		{"Unbalanced", 1, 3, 0.25, false},
		{"Odd split", 7, 13, 0.35, false},
		{"Empty spam corpus", 0, 10, 0, false},
		{"Both empty", 0, 0, 0, true},
		{"Negative", -1, 5, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pSpam, pHam, err := Priors(tt.mSpam, tt.mHam)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidModel) {
					t.Errorf("Priors() error = %v, want ErrInvalidModel", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Priors() error = %v", err)
			}
			if math.Abs(pSpam-tt.wantSpam) > tolerance {
				t.Errorf("pSpam = %g, want %g", pSpam, tt.wantSpam)
			}
			if math.Abs(pSpam+pHam-1) > tolerance {
				t.Errorf("pSpam + pHam = %g, want 1", pSpam+pHam)
			}
		})
	}
}

func TestNewModelRejectsEmptyClass(t *testing.T) {
	vocab := NewVocabulary([]string{"free"})
	_, err := NewModel(vocab, ClassParams{B: []float64{0.5}, M: 0}, ClassParams{B: []float64{0.5}, M: 4}, DefaultSmoothing)
	if !errors.Is(err, ErrInvalidModel) {
		t.Errorf("NewModel() with empty spam corpus error = %v, want ErrInvalidModel", err)
	}
}

func TestNewModelValidation(t *testing.T) {
	vocab := NewVocabulary([]string{"free", "money"})
	good := []float64{0.3, 0.7}

	tests := []struct {
		name  string
		vocab *Vocabulary
		bSpam []float64
		bHam  []float64
	}{
		{"Missing vocabulary", nil, good, good},
		{"Short spam vector", vocab, []float64{0.3}, good},
		{"Long ham vector", vocab, good, []float64{0.3, 0.7, 0.5}},
		{"Zero probability", vocab, []float64{0, 0.7}, good},
		{"One probability", vocab, good, []float64{0.3, 1}},
		{"Negative probability", vocab, []float64{-0.1, 0.7}, good},
		{"NaN probability", vocab, good, []float64{math.NaN(), 0.7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModel(tt.vocab, ClassParams{B: tt.bSpam, M: 2}, ClassParams{B: tt.bHam, M: 2}, DefaultSmoothing)
			if !errors.Is(err, ErrInvalidModel) {
				t.Errorf("NewModel() error = %v, want ErrInvalidModel", err)
			}
		})
	}
}

func TestNewModelInvalidPriors(t *testing.T) {
	vocab := NewVocabulary([]string{"free"})
	b := []float64{0.5}

	for _, priors := range [][2]float64{{0.6, 0.6}, {0, 1}, {1, 0}, {0.5, 0.4}} {
		_, err := newModel(vocab, priors[0], priors[1], b, b, 1, 1, DefaultSmoothing, time.Time{})
		if !errors.Is(err, ErrInvalidModel) {
			t.Errorf("newModel(priors %v) error = %v, want ErrInvalidModel", priors, err)
		}
	}
}

func TestModelGettersCopy(t *testing.T) {
	model := freeMoneyModel(t)

	b := model.BSpam()
	b[0] = 0.99
	if model.BSpam()[0] == 0.99 {
		t.Error("BSpam() exposes internal slice")
	}

	if model.MSpam() != 1 || model.MHam() != 1 {
		t.Errorf("corpus sizes = (%d, %d), want (1, 1)", model.MSpam(), model.MHam())
	}
	if model.PSpam() != 0.5 || model.PHam() != 0.5 {
		t.Errorf("priors = (%g, %g), want (0.5, 0.5)", model.PSpam(), model.PHam())
	}
	if model.TrainedAt().IsZero() {
		t.Error("TrainedAt should be set")
	}
}
