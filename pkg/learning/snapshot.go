package learning

import "time"

// Snapshot is the serializable form of a Model
type Snapshot struct {
	Vocabulary []string  `json:"vocabulary"`
	PSpam      float64   `json:"p_spam"`
	PHam       float64   `json:"p_ham"`
	BSpam      []float64 `json:"b_spam"`
	BHam       []float64 `json:"b_ham"`
	MSpam      int       `json:"m_spam"`
	MHam       int       `json:"m_ham"`
	Smoothing  float64   `json:"smoothing"`
	TrainedAt  time.Time `json:"trained_at"`
}

// Snapshot returns a copy of the model's state for persistence
func (m *Model) Snapshot() Snapshot {
	return Snapshot{
		Vocabulary: m.vocab.Words(),
		PSpam:      m.pSpam,
		PHam:       m.pHam,
		BSpam:      m.BSpam(),
		BHam:       m.BHam(),
		MSpam:      m.mSpam,
		MHam:       m.mHam,
		Smoothing:  m.smoothing,
		TrainedAt:  m.trainedAt,
	}
}

// FromSnapshot rebuilds a model, re-checking every invariant. A snapshot
// that was tampered with or truncated fails with ErrInvalidModel.
func FromSnapshot(s Snapshot) (*Model, error) {
	return newModel(NewVocabulary(s.Vocabulary), s.PSpam, s.PHam, s.BSpam, s.BHam, s.MSpam, s.MHam, s.Smoothing, s.TrainedAt)
}
