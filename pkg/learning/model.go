package learning

import (
	"fmt"
	"math"
	"time"
)

// priorTolerance bounds how far a persisted P_spam + P_ham may drift from 1
const priorTolerance = 1e-9

// ClassParams is what training one class produces: the smoothed presence
// probability of every vocabulary word and the number of documents behind it.
type ClassParams struct {
	B []float64
	M int
}

// Model is a trained classifier. It is built once by NewModel or
// FromSnapshot, never changes afterwards and is safe for concurrent use.
type Model struct {
	vocab     *Vocabulary
	pSpam     float64
	pHam      float64
	bSpam     []float64
	bHam      []float64
	mSpam     int
	mHam      int
	smoothing float64
	trainedAt time.Time

	// log-odds contribution of word i when present and when absent
	presentTerms []float64
	absentTerms  []float64
	logPriorOdds float64
}

// Priors derives the class priors from the training corpus sizes.
// P_ham is computed as 1 - P_spam so the two always sum to one.
func Priors(mSpam, mHam int) (pSpam, pHam float64, err error) {
	if mSpam < 0 || mHam < 0 {
		return 0, 0, fmt.Errorf("%w: negative corpus size (m_spam=%d, m_ham=%d)", ErrInvalidModel, mSpam, mHam)
	}
	if mSpam+mHam == 0 {
		return 0, 0, fmt.Errorf("%w: both training corpora are empty", ErrInvalidModel)
	}
	pSpam = float64(mSpam) / float64(mSpam+mHam)
	return pSpam, 1 - pSpam, nil
}

// NewModel assembles a model from the two trained classes. Priors come from
// the same document counts that were used as smoothing divisors.
func NewModel(vocab *Vocabulary, spam, ham ClassParams, smoothing float64) (*Model, error) {
	pSpam, pHam, err := Priors(spam.M, ham.M)
	if err != nil {
		return nil, err
	}
	return newModel(vocab, pSpam, pHam, spam.B, ham.B, spam.M, ham.M, smoothing, time.Now())
}

func newModel(vocab *Vocabulary, pSpam, pHam float64, bSpam, bHam []float64, mSpam, mHam int, smoothing float64, trainedAt time.Time) (*Model, error) {
	if vocab == nil {
		return nil, fmt.Errorf("%w: missing vocabulary", ErrInvalidModel)
	}
	d := vocab.Len()
	if len(bSpam) != d {
		return nil, fmt.Errorf("%w: b_spam has %d entries, vocabulary has %d", ErrInvalidModel, len(bSpam), d)
	}
	if len(bHam) != d {
		return nil, fmt.Errorf("%w: b_ham has %d entries, vocabulary has %d", ErrInvalidModel, len(bHam), d)
	}
	if err := checkOpenUnit("p_spam", pSpam); err != nil {
		return nil, err
	}
	if err := checkOpenUnit("p_ham", pHam); err != nil {
		return nil, err
	}
	if math.Abs(pSpam+pHam-1) > priorTolerance {
		return nil, fmt.Errorf("%w: p_spam + p_ham = %g, want 1", ErrInvalidModel, pSpam+pHam)
	}
	if mSpam < 0 || mHam < 0 {
		return nil, fmt.Errorf("%w: negative corpus size (m_spam=%d, m_ham=%d)", ErrInvalidModel, mSpam, mHam)
	}

	m := &Model{
		vocab:        vocab,
		pSpam:        pSpam,
		pHam:         pHam,
		bSpam:        make([]float64, d),
		bHam:         make([]float64, d),
		mSpam:        mSpam,
		mHam:         mHam,
		smoothing:    smoothing,
		trainedAt:    trainedAt,
		presentTerms: make([]float64, d),
		absentTerms:  make([]float64, d),
		logPriorOdds: math.Log(pSpam) - math.Log(pHam),
	}
	copy(m.bSpam, bSpam)
	copy(m.bHam, bHam)

	for i := 0; i < d; i++ {
		bs, bh := m.bSpam[i], m.bHam[i]
		if err := checkOpenUnit(fmt.Sprintf("b_spam[%d] (%q)", i, vocab.Word(i)), bs); err != nil {
			return nil, err
		}
		if err := checkOpenUnit(fmt.Sprintf("b_ham[%d] (%q)", i, vocab.Word(i)), bh); err != nil {
			return nil, err
		}
		m.presentTerms[i] = math.Log(bs) - math.Log(bh)
		m.absentTerms[i] = math.Log1p(-bs) - math.Log1p(-bh)
	}

	return m, nil
}

func checkOpenUnit(name string, v float64) error {
	if math.IsNaN(v) || v <= 0 || v >= 1 {
		return fmt.Errorf("%w: %s = %g is outside (0,1)", ErrInvalidModel, name, v)
	}
	return nil
}

// Vocabulary returns the feature vocabulary
func (m *Model) Vocabulary() *Vocabulary { return m.vocab }

// PSpam returns the spam prior
func (m *Model) PSpam() float64 { return m.pSpam }

// PHam returns the ham prior
func (m *Model) PHam() float64 { return m.pHam }

// MSpam returns the number of spam training documents
func (m *Model) MSpam() int { return m.mSpam }

// MHam returns the number of ham training documents
func (m *Model) MHam() int { return m.mHam }

// Smoothing returns the additive smoothing constant used in training
func (m *Model) Smoothing() float64 { return m.smoothing }

// TrainedAt returns when the model was built
func (m *Model) TrainedAt() time.Time { return m.trainedAt }

// BSpam returns a copy of the spam parameter vector
func (m *Model) BSpam() []float64 {
	b := make([]float64, len(m.bSpam))
	copy(b, m.bSpam)
	return b
}

// BHam returns a copy of the ham parameter vector
func (m *Model) BHam() []float64 {
	b := make([]float64, len(m.bHam))
	copy(b, m.bHam)
	return b
}
