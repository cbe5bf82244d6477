package learning

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	model := freeMoneyModel(t)

	data, err := json.Marshal(model.Snapshot())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	restored, err := FromSnapshot(snap)
	if err != nil {
		t.Fatalf("FromSnapshot() error = %v", err)
	}

	if !restored.Vocabulary().Equal(model.Vocabulary()) {
		t.Errorf("vocabulary changed: %v", restored.Vocabulary().Words())
	}
	if !restored.TrainedAt().Equal(model.TrainedAt()) {
		t.Errorf("trained_at = %v, want %v", restored.TrainedAt(), model.TrainedAt())
	}

	docs := []string{"", "free", "money meeting", "free money meeting", "notes"}
	for _, doc := range docs {
		before, _ := model.ClassifyText(doc)
		after, _ := restored.ClassifyText(doc)
		if before != after {
			t.Errorf("%q: prediction changed from %+v to %+v", doc, before, after)
		}
	}
}

func TestFromSnapshotRejectsInvalid(t *testing.T) {
	base := freeMoneyModel(t).Snapshot()

	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"Truncated vector", func(s *Snapshot) { s.BSpam = s.BSpam[:2] }},
		{"Extra word", func(s *Snapshot) { s.Vocabulary = append(s.Vocabulary, "extra") }},
		{"Probability of one", func(s *Snapshot) { s.BHam[1] = 1 }},
		{"Priors not summing to one", func(s *Snapshot) { s.PSpam = 0.9 }},
		{"Negative corpus size", func(s *Snapshot) { s.MHam = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := base
			snap.Vocabulary = append([]string(nil), base.Vocabulary...)
			snap.BSpam = append([]float64(nil), base.BSpam...)
			snap.BHam = append([]float64(nil), base.BHam...)
			tt.mutate(&snap)

			if _, err := FromSnapshot(snap); !errors.Is(err, ErrInvalidModel) {
				t.Errorf("FromSnapshot() error = %v, want ErrInvalidModel", err)
			}
		})
	}
}

func TestTopWords(t *testing.T) {
	model := freeMoneyModel(t)

	spam := TopWords(model, 2, true)
	if len(spam) != 2 {
		t.Fatalf("len(TopWords) = %d, want 2", len(spam))
	}
	if spam[0].Word != "free" || spam[1].Word != "money" {
		t.Errorf("top spam words = %v", spam)
	}

	ham := TopWords(model, 0, false)
	if len(ham) != 3 || ham[0].Word != "meeting" {
		t.Errorf("ham ranking = %v", ham)
	}
	if ham[0].Weight >= 0 {
		t.Errorf("meeting weight = %g, want negative", ham[0].Weight)
	}
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	PrintStats(&buf, "default", freeMoneyModel(t), 2)

	out := buf.String()
	for _, want := range []string{"default", "Spam documents: 1", "Vocabulary size: 3", "free", "meeting"} {
		if !strings.Contains(out, want) {
			t.Errorf("PrintStats output missing %q:\n%s", want, out)
		}
	}
}
