package learning

import (
	"fmt"
	"math"
)

// Prediction is the outcome of classifying one feature vector
type Prediction struct {
	IsSpam   bool    `json:"is_spam"`
	LogRatio float64 `json:"log_ratio"`
	PSpam    float64 `json:"p_spam"`
	PHam     float64 `json:"p_ham"`
}

// Label returns "SPAM" or "HAM"
func (p Prediction) Label() string {
	if p.IsSpam {
		return "SPAM"
	}
	return "HAM"
}

// LogRatio returns log(P(spam|x) / P(ham|x)) for the feature vector x.
//
// The sum runs over every vocabulary word, absent ones included, which is what
// separates this Bernoulli model from a multinomial one.
func (m *Model) LogRatio(x []bool) (float64, error) {
	if m == nil || m.vocab == nil {
		return 0, fmt.Errorf("%w: model is not initialized", ErrInvalidModel)
	}
	if len(x) != len(m.presentTerms) {
		return 0, fmt.Errorf("%w: feature vector has %d entries, vocabulary has %d", ErrInvalidModel, len(x), len(m.presentTerms))
	}

	ratio := m.logPriorOdds
	for i, present := range x {
		if present {
			ratio += m.presentTerms[i]
		} else {
			ratio += m.absentTerms[i]
		}
	}
	return ratio, nil
}

// Classify predicts the class of feature vector x.
// A log ratio of exactly zero is a tie and resolves to ham.
func (m *Model) Classify(x []bool) (Prediction, error) {
	ratio, err := m.LogRatio(x)
	if err != nil {
		return Prediction{}, err
	}

	pSpam, pHam := Posterior(ratio)
	return Prediction{
		IsSpam:   ratio > 0,
		LogRatio: ratio,
		PSpam:    pSpam,
		PHam:     pHam,
	}, nil
}

// ClassifyText extracts features from text and classifies them
func (m *Model) ClassifyText(text string) (Prediction, error) {
	if m == nil || m.vocab == nil {
		return Prediction{}, fmt.Errorf("%w: model is not initialized", ErrInvalidModel)
	}
	return m.Classify(Extract(text, m.vocab))
}

// Posterior converts log-odds into (P(spam|x), P(ham|x)).
// The smaller of the two is computed directly through softplus so it keeps its
// precision, and the other is its complement.
func Posterior(logRatio float64) (pSpam, pHam float64) {
	if logRatio >= 0 {
		pHam = math.Exp(-softplus(logRatio))
		return 1 - pHam, pHam
	}
	pSpam = math.Exp(-softplus(-logRatio))
	return pSpam, 1 - pSpam
}

// softplus returns log(1 + e^z) without overflowing for large z
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
